package market

import (
	"context"
	"time"
)

// fakeStore serves canned records. Trades are held oldest first, the way
// TradesBetween returns them; RecentTrades reverses and limits on the fly.
type fakeStore struct {
	assets     map[string]*AssetInfo
	trades     []Trade
	balances   map[string][]BalanceChange
	blockTimes map[int64]time.Time

	assetLookups int
}

func (f *fakeStore) Asset(ctx context.Context, name string) (*AssetInfo, error) {
	f.assetLookups++
	return f.assets[name], nil
}

func (f *fakeStore) AssetWithLog(ctx context.Context, name string) (*AssetInfo, error) {
	f.assetLookups++
	return f.assets[name], nil
}

func (f *fakeStore) AssetsOwnedBy(ctx context.Context, addresses []string) ([]AssetInfo, error) {
	var out []AssetInfo
	for _, info := range f.assets {
		for _, addr := range addresses {
			if info.Owner == addr {
				out = append(out, *info)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) RecentTrades(ctx context.Context, base, quote string, since time.Time, limit int) ([]Trade, error) {
	var matched []Trade
	for _, t := range f.trades {
		if t.BaseAsset != base || t.QuoteAsset != quote {
			continue
		}
		if !since.IsZero() && t.BlockTime.Before(since) {
			continue
		}
		matched = append(matched, t)
	}
	// newest first, capped
	reverseTrades(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeStore) TradesBetween(ctx context.Context, base, quote string, start, end time.Time) ([]Trade, error) {
	var matched []Trade
	for _, t := range f.trades {
		if t.BaseAsset != base || t.QuoteAsset != quote {
			continue
		}
		if t.BlockTime.Before(start) || t.BlockTime.After(end) {
			continue
		}
		matched = append(matched, t)
	}
	return matched, nil
}

func (f *fakeStore) TradesForAsset(ctx context.Context, asset string, since time.Time) ([]Trade, error) {
	var matched []Trade
	for _, t := range f.trades {
		if t.BaseAsset != asset && t.QuoteAsset != asset {
			continue
		}
		if t.BlockTime.Before(since) {
			continue
		}
		matched = append(matched, t)
	}
	return matched, nil
}

func (f *fakeStore) BalanceChanges(ctx context.Context, address, asset string, start, end time.Time) ([]BalanceChange, error) {
	var matched []BalanceChange
	for _, c := range f.balances[address] {
		if c.Asset != asset || c.BlockTime.Before(start) || c.BlockTime.After(end) {
			continue
		}
		matched = append(matched, c)
	}
	return matched, nil
}

func (f *fakeStore) BlockTime(ctx context.Context, blockIndex int64) (time.Time, error) {
	if t, ok := f.blockTimes[blockIndex]; ok {
		return t, nil
	}
	return time.Unix(blockIndex*600, 0).UTC(), nil
}

// fakeLedger applies real query filtering so fee-bound behavior is
// observable, and records every query for verification.
type fakeLedger struct {
	orders    []Order
	callbacks []Callback
	supplies  map[string]int64

	queries []OrderQuery
}

func (f *fakeLedger) OpenOrders(ctx context.Context, q OrderQuery) ([]Order, error) {
	f.queries = append(f.queries, q)
	var out []Order
	for _, o := range f.orders {
		if o.GetAsset != q.GetAsset || o.GiveAsset != q.GiveAsset || o.GiveRemaining == 0 {
			continue
		}
		if q.FeeRequiredGTE != nil && o.FeeRequired < *q.FeeRequiredGTE {
			continue
		}
		if q.FeeRequiredLTE != nil && o.FeeRequired > *q.FeeRequiredLTE {
			continue
		}
		if q.FeeProvidedGTE != nil && o.FeeProvided < *q.FeeProvidedGTE {
			continue
		}
		if q.FeeProvidedLTE != nil && o.FeeProvided > *q.FeeProvidedLTE {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeLedger) Callbacks(ctx context.Context, asset string) ([]Callback, error) {
	var out []Callback
	for _, cb := range f.callbacks {
		if cb.Asset == asset {
			out = append(out, cb)
		}
	}
	return out, nil
}

func (f *fakeLedger) IssuedSupply(ctx context.Context, asset string) (int64, error) {
	return f.supplies[asset], nil
}

func newTestService(store *fakeStore, ledger *fakeLedger) *Service {
	if store.assets == nil {
		store.assets = map[string]*AssetInfo{}
	}
	return NewService(store, ledger, "XCP", "BTC", nil)
}

func registerAsset(store *fakeStore, name string, divisible bool) *AssetInfo {
	if store.assets == nil {
		store.assets = map[string]*AssetInfo{}
	}
	info := &AssetInfo{
		Asset:           name,
		Owner:           "addr_" + name,
		Divisible:       divisible,
		TotalIssued:     100000000000,
		TotalIssuedNorm: 1000,
	}
	store.assets[name] = info
	return info
}

func mkTrade(base, quote string, price float64, baseQty, quoteQty float64, block int64, at time.Time) Trade {
	return Trade{
		BaseAsset:         base,
		QuoteAsset:        quote,
		UnitPrice:         price,
		BaseQuantityNorm:  baseQty,
		QuoteQuantityNorm: quoteQty,
		BlockIndex:        block,
		BlockTime:         at,
	}
}
