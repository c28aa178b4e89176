package postgres

import (
	"context"
	"errors"
	"time"

	"marketd/internal/market"

	"gorm.io/gorm"
)

// Asset returns the registry entry without its change log, or nil if the
// asset is unknown.
func (p *PostgresClient) Asset(ctx context.Context, name string) (*market.AssetInfo, error) {
	var record AssetRecord
	err := p.DB.WithContext(ctx).
		Where("asset = ?", name).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info := toAssetInfo(record)
	return &info, nil
}

// AssetWithLog returns the registry entry with its full ordered change log,
// the current state appended as the final entry, or nil if unknown.
func (p *PostgresClient) AssetWithLog(ctx context.Context, name string) (*market.AssetInfo, error) {
	var current AssetRecord
	err := p.DB.WithContext(ctx).
		Where("asset = ?", name).
		First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info := toAssetInfo(current)

	var changes []AssetChangeRecord
	err = p.DB.WithContext(ctx).
		Where("asset = ?", name).
		Order("seq ASC").
		Find(&changes).Error
	if err != nil {
		return nil, err
	}

	info.Log = make([]market.AssetSnapshot, 0, len(changes)+1)
	for _, c := range changes {
		info.Log = append(info.Log, market.AssetSnapshot{
			ChangeType:      c.ChangeType,
			AtBlock:         c.AtBlock,
			AtBlockTime:     c.AtBlockTime,
			Owner:           c.Owner,
			Description:     c.Description,
			Divisible:       c.Divisible,
			Locked:          c.Locked,
			TotalIssued:     c.TotalIssued,
			TotalIssuedNorm: c.TotalIssuedNorm,
		})
	}

	// The current state is the implicit final snapshot of the log.
	info.Log = append(info.Log, market.AssetSnapshot{
		ChangeType:      current.ChangeType,
		AtBlock:         current.AtBlock,
		AtBlockTime:     current.AtBlockTime,
		Owner:           current.Owner,
		Description:     current.Description,
		Divisible:       current.Divisible,
		Locked:          current.Locked,
		TotalIssued:     current.TotalIssued,
		TotalIssuedNorm: current.TotalIssuedNorm,
	})

	return &info, nil
}

// AssetsOwnedBy lists registry entries owned by any of the addresses,
// ordered by asset name.
func (p *PostgresClient) AssetsOwnedBy(ctx context.Context, addresses []string) ([]market.AssetInfo, error) {
	var records []AssetRecord
	err := p.DB.WithContext(ctx).
		Where("owner IN ?", addresses).
		Order("asset ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	infos := make([]market.AssetInfo, 0, len(records))
	for _, r := range records {
		infos = append(infos, toAssetInfo(r))
	}
	return infos, nil
}

// BalanceChanges returns the ordered balance change log for one address and
// asset within [start, end].
func (p *PostgresClient) BalanceChanges(ctx context.Context, address, asset string, start, end time.Time) ([]market.BalanceChange, error) {
	var records []BalanceChangeRecord
	err := p.DB.WithContext(ctx).
		Where("address = ? AND asset = ?", address, asset).
		Where("block_time >= ? AND block_time <= ?", start, end).
		Order("block_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	changes := make([]market.BalanceChange, 0, len(records))
	for _, r := range records {
		changes = append(changes, market.BalanceChange{
			Address:        r.Address,
			Asset:          r.Asset,
			BlockTime:      r.BlockTime,
			NewBalance:     r.NewBalance,
			NewBalanceNorm: r.NewBalanceNorm,
		})
	}
	return changes, nil
}

func toAssetInfo(r AssetRecord) market.AssetInfo {
	return market.AssetInfo{
		Asset:           r.Asset,
		Owner:           r.Owner,
		Description:     r.Description,
		Divisible:       r.Divisible,
		Locked:          r.Locked,
		TotalIssued:     r.TotalIssued,
		TotalIssuedNorm: r.TotalIssuedNorm,
	}
}
