package api

import (
	"context"
	"fmt"
	"time"

	"marketd/internal/market"
	"marketd/pkg/storage/postgres"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	DefaultTimeout      = 30 * time.Second
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"

	// StatusNotCaughtUp is returned while the ledger daemon is still
	// replicating; derived views would be stale or incomplete.
	StatusNotCaughtUp = 525
)

// MarketService is the derivation engine surface the API exposes.
type MarketService interface {
	BaseQuotePair(ctx context.Context, asset1, asset2 string) (*market.PairInfo, error)
	MarketPriceSummary(ctx context.Context, asset1, asset2 string, withLastTrades int) (*market.PriceSummary, error)
	MarketInfo(ctx context.Context, assets []string) (map[string]*market.AssetMarketInfo, error)
	PriceHistory(ctx context.Context, asset1, asset2 string, start, end time.Time) ([]market.Candle, error)
	TradeHistory(ctx context.Context, asset1, asset2 string, limit int) ([]market.Trade, error)
	TradeHistoryWithinDates(ctx context.Context, asset1, asset2 string, start, end time.Time, limit int) ([]market.Trade, error)
	OrderBook(ctx context.Context, buyAsset, sellAsset string, feeProvided, feeRequired *float64) (*market.OrderBook, error)
	AssetHistory(ctx context.Context, asset string, reverse bool) ([]market.AssetEvent, error)
	OwnedAssets(ctx context.Context, addresses []string) ([]market.AssetInfo, error)
	BalanceHistory(ctx context.Context, asset string, addresses []string, normalize bool, start, end time.Time) ([]market.BalanceSeries, error)
}

// Readiness is the ledger feed's replication status, read per request.
// *ledger.FeedState satisfies it.
type Readiness interface {
	CaughtUp() bool
	LastMessageIndex() int64
	LastBlockIndex() int64
}

// Handler serves the HTTP API. Readiness comes from the ledger feed state
// passed in at construction, not from any process-global flag.
type Handler struct {
	service MarketService
	wallet  *postgres.PostgresClient
	feed    Readiness
	logger  *zap.Logger
}

func NewHandler(service MarketService, wallet *postgres.PostgresClient, feed Readiness, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		wallet:  wallet,
		feed:    feed,
		logger:  logger,
	}
}

// StartServer starts the HTTP server.
func (h *Handler) StartServer(host string, port int) error {
	router := h.SetupRoutes()
	return router.Run(fmt.Sprintf("%s:%d", host, port))
}

// SetupRoutes configures all API routes.
func (h *Handler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Readiness is exempt from the caught-up gate so clients can poll it.
	router.GET("/is_ready", h.IsReady)

	gated := router.Group("/", h.requireCaughtUp())
	{
		gated.GET("/pairs", h.GetBaseQuotePair)
		gated.GET("/markets/price", h.GetMarketPriceSummary)
		gated.GET("/markets/info", h.GetMarketInfo)
		gated.GET("/markets/price_history", h.GetPriceHistory)
		gated.GET("/markets/trades", h.GetTradeHistory)
		gated.GET("/markets/orderbook", h.GetOrderBook)
		gated.GET("/assets/:asset/history", h.GetAssetHistory)
		gated.GET("/assets/owned", h.GetOwnedAssets)
		gated.GET("/balances/history", h.GetBalanceHistory)
		gated.GET("/wallets/:wallet/preferences", h.GetPreferences)
		gated.POST("/wallets/:wallet/preferences", h.StorePreferences)
		gated.GET("/wallets/:wallet/chat_handle", h.GetChatHandle)
		gated.POST("/wallets/:wallet/chat_handle", h.StoreChatHandle)
	}

	return router
}
