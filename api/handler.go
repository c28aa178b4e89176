package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketd/internal/market"
	"marketd/pkg/ledger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IsReady reports whether derived views are servable. The feed has to have
// reported catch-up with the chain tip at least once since connecting.
func (h *Handler) IsReady(c *gin.Context) {
	ready := h.feed != nil && h.feed.CaughtUp()
	payload := gin.H{"ready": ready}
	if h.feed != nil {
		payload["last_message_index"] = h.feed.LastMessageIndex()
		payload["last_block_index"] = h.feed.LastBlockIndex()
	}
	c.JSON(http.StatusOK, payload)
}

// GetBaseQuotePair canonicalizes two assets into their market pair.
func (h *Handler) GetBaseQuotePair(c *gin.Context) {
	asset1, asset2, ok := h.pairParams(c)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	pair, err := h.service.BaseQuotePair(ctx, asset1, asset2)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// GetMarketPriceSummary derives the current price for a pair.
func (h *Handler) GetMarketPriceSummary(c *gin.Context) {
	asset1, asset2, ok := h.pairParams(c)
	if !ok {
		return
	}
	withLastTrades, err := intQuery(c, "with_last_trades", 0)
	if err != nil {
		h.badRequest(c, "with_last_trades must be an integer")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	summary, err := h.service.MarketPriceSummary(ctx, asset1, asset2, withLastTrades)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetMarketInfo composes market views for one or more assets.
func (h *Handler) GetMarketInfo(c *gin.Context) {
	assets := splitList(c.Query("assets"))
	if len(assets) == 0 {
		h.badRequest(c, "assets is required")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	info, err := h.service.MarketInfo(ctx, assets)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetPriceHistory returns the hourly price curve for a pair.
func (h *Handler) GetPriceHistory(c *gin.Context) {
	asset1, asset2, ok := h.pairParams(c)
	if !ok {
		return
	}
	start, end, err := timeRange(c)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	candles, err := h.service.PriceHistory(ctx, asset1, asset2, start, end)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, candles)
}

// GetTradeHistory returns recent trades for a pair, optionally bounded to a
// date range.
func (h *Handler) GetTradeHistory(c *gin.Context) {
	asset1, asset2, ok := h.pairParams(c)
	if !ok {
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		h.badRequest(c, "limit must be an integer")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	var trades []market.Trade
	if c.Query("start_ts") != "" || c.Query("end_ts") != "" {
		start, end, rangeErr := timeRange(c)
		if rangeErr != nil {
			h.badRequest(c, rangeErr.Error())
			return
		}
		trades, err = h.service.TradeHistoryWithinDates(ctx, asset1, asset2, start, end, limit)
	} else {
		trades, err = h.service.TradeHistory(ctx, asset1, asset2, limit)
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

// GetOrderBook builds the aggregated order book for a pair.
func (h *Handler) GetOrderBook(c *gin.Context) {
	buyAsset := c.Query("buy_asset")
	sellAsset := c.Query("sell_asset")
	if buyAsset == "" || sellAsset == "" {
		h.badRequest(c, "buy_asset and sell_asset are required")
		return
	}
	feeProvided, err := floatQueryPtr(c, "fee_provided")
	if err != nil {
		h.badRequest(c, "fee_provided must be a number")
		return
	}
	feeRequired, err := floatQueryPtr(c, "fee_required")
	if err != nil {
		h.badRequest(c, "fee_required must be a number")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	book, err := h.service.OrderBook(ctx, buyAsset, sellAsset, feeProvided, feeRequired)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// GetAssetHistory reconstructs the lifecycle event stream of an asset.
func (h *Handler) GetAssetHistory(c *gin.Context) {
	asset := c.Param("asset")
	reverse := c.Query("reverse") == "true"

	ctx, cancel := h.requestContext(c)
	defer cancel()

	events, err := h.service.AssetHistory(ctx, asset, reverse)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetOwnedAssets lists assets owned by any of the given addresses.
func (h *Handler) GetOwnedAssets(c *gin.Context) {
	addresses := splitList(c.Query("addresses"))
	if len(addresses) == 0 {
		h.badRequest(c, "addresses is required")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	assets, err := h.service.OwnedAssets(ctx, addresses)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

// GetBalanceHistory returns per-address balance curves for an asset.
func (h *Handler) GetBalanceHistory(c *gin.Context) {
	asset := c.Query("asset")
	if asset == "" {
		h.badRequest(c, "asset is required")
		return
	}
	addresses := splitList(c.Query("addresses"))
	if len(addresses) == 0 {
		h.badRequest(c, "addresses is required")
		return
	}
	normalize := c.DefaultQuery("normalize", "true") != "false"
	start, end, err := timeRange(c)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	series, err := h.service.BalanceHistory(ctx, asset, addresses, normalize, start, end)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// GetPreferences returns a wallet's stored preference document.
func (h *Handler) GetPreferences(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	record, err := h.wallet.Preferences(ctx, c.Param("wallet"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, gin.H{"preferences": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"preferences":  record.Preferences,
		"last_updated": record.LastUpdated.Unix(),
	})
}

type preferencesRequest struct {
	Preferences map[string]any `json:"preferences" binding:"required"`
}

// StorePreferences stores a wallet's preference document.
func (h *Handler) StorePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "preferences must be a JSON object")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.wallet.StorePreferences(ctx, c.Param("wallet"), req.Preferences); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": true})
}

// GetChatHandle returns a wallet's chat handle.
func (h *Handler) GetChatHandle(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	record, err := h.wallet.ChatHandle(ctx, c.Param("wallet"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, gin.H{"handle": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"handle":       record.Handle,
		"last_updated": record.LastUpdated.Unix(),
	})
}

type chatHandleRequest struct {
	Handle string `json:"handle" binding:"required"`
}

// StoreChatHandle stores a wallet's chat handle.
func (h *Handler) StoreChatHandle(c *gin.Context) {
	var req chatHandleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "handle is required")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.wallet.StoreChatHandle(ctx, c.Param("wallet"), req.Handle); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": true})
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), DefaultTimeout)
}

func (h *Handler) pairParams(c *gin.Context) (asset1, asset2 string, ok bool) {
	asset1 = c.Query("asset1")
	asset2 = c.Query("asset2")
	if asset1 == "" || asset2 == "" {
		h.badRequest(c, "asset1 and asset2 are required")
		return "", "", false
	}
	return asset1, asset2, true
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// renderError maps domain errors onto HTTP statuses.
func (h *Handler) renderError(c *gin.Context, err error) {
	requestID, _ := c.Get(RequestIDContextKey)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrInvalidAsset),
		errors.Is(err, market.ErrInvalidPair),
		errors.Is(err, market.ErrInvalidParam):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Any("request_id", requestID),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func floatQueryPtr(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// timeRange parses optional start_ts/end_ts query parameters, in unix
// seconds. Zero values are filled in downstream with the default window.
func timeRange(c *gin.Context) (start, end time.Time, err error) {
	startTS, err := intQuery(c, "start_ts", 0)
	if err != nil {
		return start, end, errors.New("start_ts must be a unix timestamp")
	}
	endTS, err := intQuery(c, "end_ts", 0)
	if err != nil {
		return start, end, errors.New("end_ts must be a unix timestamp")
	}
	if startTS != 0 {
		start = time.Unix(int64(startTS), 0).UTC()
	}
	if endTS != 0 {
		end = time.Unix(int64(endTS), 0).UTC()
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, errors.New("end_ts must not precede start_ts")
	}
	return start, end, nil
}
