package market

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Store is the read side of the replicated record store.
type Store interface {
	// Asset returns the registry entry without its change log, or nil if the
	// asset is unknown.
	Asset(ctx context.Context, name string) (*AssetInfo, error)

	// AssetWithLog returns the registry entry with its full ordered change
	// log (current state included as the last entry), or nil if unknown.
	AssetWithLog(ctx context.Context, name string) (*AssetInfo, error)

	// AssetsOwnedBy lists registry entries owned by any of the addresses,
	// ordered by asset name.
	AssetsOwnedBy(ctx context.Context, addresses []string) ([]AssetInfo, error)

	// RecentTrades returns up to limit trades of the canonical pair at or
	// after since, newest first.
	RecentTrades(ctx context.Context, base, quote string, since time.Time, limit int) ([]Trade, error)

	// TradesBetween returns trades of the canonical pair within [start, end],
	// oldest first.
	TradesBetween(ctx context.Context, base, quote string, start, end time.Time) ([]Trade, error)

	// TradesForAsset returns every trade at or after since where the asset
	// appears on either side, oldest first.
	TradesForAsset(ctx context.Context, asset string, since time.Time) ([]Trade, error)

	// BalanceChanges returns the ordered balance change log for one address
	// and asset within [start, end].
	BalanceChanges(ctx context.Context, address, asset string, start, end time.Time) ([]BalanceChange, error)

	// BlockTime resolves a block index to its block time.
	BlockTime(ctx context.Context, blockIndex int64) (time.Time, error)
}

// OrderQuery selects open orders from the ledger daemon. Orders with zero
// remaining quantity and expired orders are always excluded. Nil fee bounds
// are not applied.
type OrderQuery struct {
	GetAsset       string
	GiveAsset      string
	FeeRequiredGTE *int64
	FeeRequiredLTE *int64
	FeeProvidedGTE *int64
	FeeProvidedLTE *int64
}

// Ledger is the live ledger daemon this service consults for state not
// replicated into the record store.
type Ledger interface {
	// OpenOrders lists open orders matching the query, ordered by block index
	// ascending.
	OpenOrders(ctx context.Context, q OrderQuery) ([]Order, error)

	// Callbacks lists supply-reduction callbacks for the asset, ordered by
	// block index ascending.
	Callbacks(ctx context.Context, asset string) ([]Callback, error)

	// IssuedSupply reports the ledger-wide total issuance of a reference
	// asset in raw units.
	IssuedSupply(ctx context.Context, asset string) (int64, error)
}

// Service derives read-only market views from the record store and the
// ledger daemon. Each call is synchronous and shares no mutable state, so a
// single Service is safe for concurrent use.
type Service struct {
	store  Store
	ledger Ledger
	log    *zap.Logger

	protocolAsset string // priority base in pair ordering
	chainAsset    string // fee-bearing chain currency
}

func NewService(store Store, ledger Ledger, protocolAsset, chainAsset string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:         store,
		ledger:        ledger,
		log:           log,
		protocolAsset: protocolAsset,
		chainAsset:    chainAsset,
	}
}

// assetMemo caches registry lookups within the scope of one request. Its
// lifetime is bound to the call that created it and is never shared.
type assetMemo map[string]*AssetInfo

func (s *Service) assetCached(ctx context.Context, memo assetMemo, name string) (*AssetInfo, error) {
	if info, ok := memo[name]; ok {
		return info, nil
	}
	info, err := s.store.Asset(ctx, name)
	if err != nil {
		return nil, err
	}
	memo[name] = info
	return info, nil
}
