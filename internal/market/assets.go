package market

import (
	"context"
	"fmt"
	"time"
)

// OwnedAssets lists the registry entries owned by any of the addresses.
func (s *Service) OwnedAssets(ctx context.Context, addresses []string) ([]AssetInfo, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: empty address list", ErrInvalidParam)
	}
	assets, err := s.store.AssetsOwnedBy(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("fetch owned assets: %w", err)
	}
	return assets, nil
}

// BalanceSeries is the balance history of one address for one asset.
type BalanceSeries struct {
	Name string       `json:"name"`
	Data []PricePoint `json:"data"` // when (epoch ms), balance
}

// BalanceHistory returns the ordered balance history of each address for the
// asset within [start, end]. Zero times default to the last 30 days. With
// normalize unset, raw ledger quantities are returned instead.
func (s *Service) BalanceHistory(ctx context.Context, asset string, addresses []string, normalize bool, start, end time.Time) ([]BalanceSeries, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: empty address list", ErrInvalidParam)
	}
	info, err := s.store.Asset(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("look up asset: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAsset, asset)
	}
	start, end = defaultRange(start, end)

	series := make([]BalanceSeries, 0, len(addresses))
	for _, address := range addresses {
		changes, err := s.store.BalanceChanges(ctx, address, asset, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch balance changes for %s: %w", address, err)
		}
		data := make([]PricePoint, 0, len(changes))
		for _, c := range changes {
			balance := float64(c.NewBalance)
			if normalize {
				balance = c.NewBalanceNorm
			}
			data = append(data, PricePoint{
				WhenMillis: c.BlockTime.UnixMilli(),
				Price:      balance,
			})
		}
		series = append(series, BalanceSeries{Name: address, Data: data})
	}
	return series, nil
}
