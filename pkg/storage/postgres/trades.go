package postgres

import (
	"context"
	"time"

	"marketd/internal/market"
)

// RecentTrades returns up to limit trades of the canonical pair at or after
// since, newest first. A zero since applies no lower bound.
func (p *PostgresClient) RecentTrades(ctx context.Context, base, quote string, since time.Time, limit int) ([]market.Trade, error) {
	q := p.DB.WithContext(ctx).
		Where("base_asset = ? AND quote_asset = ?", base, quote)
	if !since.IsZero() {
		q = q.Where("block_time >= ?", since)
	}

	var records []TradeRecord
	err := q.Order("block_time DESC, tx_index DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toTrades(records), nil
}

// TradesBetween returns trades of the canonical pair within [start, end],
// oldest first.
func (p *PostgresClient) TradesBetween(ctx context.Context, base, quote string, start, end time.Time) ([]market.Trade, error) {
	var records []TradeRecord
	err := p.DB.WithContext(ctx).
		Where("base_asset = ? AND quote_asset = ?", base, quote).
		Where("block_time >= ? AND block_time <= ?", start, end).
		Order("block_time ASC, tx_index ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toTrades(records), nil
}

// TradesForAsset returns every trade at or after since where the asset is
// either side of the pair, oldest first.
func (p *PostgresClient) TradesForAsset(ctx context.Context, asset string, since time.Time) ([]market.Trade, error) {
	var records []TradeRecord
	err := p.DB.WithContext(ctx).
		Where("base_asset = ? OR quote_asset = ?", asset, asset).
		Where("block_time >= ?", since).
		Order("block_time ASC, tx_index ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toTrades(records), nil
}

// InsertTrade appends one replicated trade.
func (p *PostgresClient) InsertTrade(ctx context.Context, record *TradeRecord) error {
	return p.DB.WithContext(ctx).Create(record).Error
}

func toTrades(records []TradeRecord) []market.Trade {
	trades := make([]market.Trade, 0, len(records))
	for _, r := range records {
		trades = append(trades, market.Trade{
			BaseAsset:         r.BaseAsset,
			QuoteAsset:        r.QuoteAsset,
			UnitPrice:         r.UnitPrice,
			BaseQuantityNorm:  r.BaseQuantityNorm,
			QuoteQuantityNorm: r.QuoteQuantityNorm,
			BlockIndex:        r.BlockIndex,
			BlockTime:         r.BlockTime,
		})
	}
	return trades
}
