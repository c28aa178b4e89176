package market

import "time"

// Trade is one recorded match between two assets, expressed under the
// canonical pair ordering: UnitPrice is quote units per base unit.
type Trade struct {
	BaseAsset         string
	QuoteAsset        string
	UnitPrice         float64
	BaseQuantityNorm  float64
	QuoteQuantityNorm float64
	BlockIndex        int64
	BlockTime         time.Time
}

// Order is an open exchange offer as reported by the ledger daemon. Raw
// quantities are un-normalized ledger units; remaining quantities decrease
// toward zero as the order fills.
type Order struct {
	GiveAsset     string    `json:"give_asset"`
	GiveQuantity  int64     `json:"give_quantity"`
	GetAsset      string    `json:"get_asset"`
	GetQuantity   int64     `json:"get_quantity"`
	GiveRemaining int64     `json:"give_remaining"`
	GetRemaining  int64     `json:"get_remaining"`
	FeeRequired   int64     `json:"fee_required"`
	FeeProvided   int64     `json:"fee_provided"`
	BlockIndex    int64     `json:"block_index"`
	Expiration    int64     `json:"expiration"`
	BlockTime     int64     `json:"block_time,omitempty"` // epoch ms, annotated by the order book builder
}

// AssetSnapshot is one state of an asset in its change log. ChangeType names
// the change that produced this state; the first entry of a log is always
// "created".
type AssetSnapshot struct {
	ChangeType      string
	AtBlock         int64
	AtBlockTime     time.Time
	Owner           string
	Description     string
	Divisible       bool
	Locked          bool
	TotalIssued     int64
	TotalIssuedNorm float64
}

// Change types carried by asset snapshots.
const (
	ChangeCreated     = "created"
	ChangeLocked      = "locked"
	ChangeTransferred = "transferred"
	ChangeDescription = "changed_description"
	ChangeIssuedMore  = "issued_more"
	ChangeCalledBack  = "called_back"
)

// AssetInfo is the registry entry for one tracked asset. Log holds every
// state of the asset oldest to newest, including the current state as the
// final entry.
type AssetInfo struct {
	Asset           string
	Owner           string
	Description     string
	Divisible       bool
	Locked          bool
	TotalIssued     int64
	TotalIssuedNorm float64
	Log             []AssetSnapshot
}

// Callback is an out-of-band proportional supply reduction reported by the
// ledger daemon; it is not part of the asset's snapshot log.
type Callback struct {
	Asset      string  `json:"asset"`
	Fraction   float64 `json:"fraction"`
	BlockIndex int64   `json:"block_index"`
}

// BalanceChange is one ledger credit or debit applied to an address.
type BalanceChange struct {
	Address        string
	Asset          string
	BlockTime      time.Time
	NewBalance     int64
	NewBalanceNorm float64
}

// TradeTick is one raw trade attached to a price summary:
// block time (epoch ms), unit price, base quantity, quote quantity, block index.
type TradeTick struct {
	BlockTime     int64   `json:"block_time"`
	UnitPrice     float64 `json:"unit_price"`
	BaseQuantity  float64 `json:"base_quantity_normalized"`
	QuoteQuantity float64 `json:"quote_quantity_normalized"`
	BlockIndex    int64   `json:"block_index"`
}

// PriceSummary is the synthesized market price for a canonical pair.
type PriceSummary struct {
	MarketPrice float64     `json:"market_price"`
	BaseAsset   string      `json:"base_asset"`
	QuoteAsset  string      `json:"quote_asset"`
	LastTrades  []TradeTick `json:"last_trades,omitempty"`
}

// PairInfo is the canonical ordering of an arbitrary asset pair.
type PairInfo struct {
	BaseAsset  string `json:"base_asset"`
	QuoteAsset string `json:"quote_asset"`
	PairName   string `json:"pair_name"`
}

// OHLCBucket summarizes price activity over one time bucket.
type OHLCBucket struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"vol"`
	Count  int     `json:"count"`
}

// Candle is an OHLC bucket pinned to the block that produced it.
type Candle struct {
	BlockTime  int64 `json:"block_time"` // epoch ms
	BlockIndex int64 `json:"block_index"`
	OHLCBucket
}

// PricePoint is one entry of a price history curve: when (epoch ms) and price.
type PricePoint struct {
	WhenMillis int64   `json:"when"`
	Price      float64 `json:"price"`
}

// VolumeSummary is the total traded quantity of one asset across all of its
// markets over a window, regardless of counter-asset.
type VolumeSummary struct {
	Volume float64 `json:"vol"`
	Count  int     `json:"count"`
}

// ReferenceQuote is an asset's market data expressed against one reference
// asset. Nil pointer fields mean "no data", never zero.
type ReferenceQuote struct {
	Price                  *float64     `json:"price"`
	PriceInverse           *float64     `json:"price_inverse"`
	AggregatedPrice        *float64     `json:"aggregated_price"`
	AggregatedPriceInverse *float64     `json:"aggregated_price_inverse"`
	MarketCap              *float64     `json:"market_cap"`
	OHLC24h                *OHLCBucket  `json:"ohlc_24h"`
	PriceChange24h         *float64     `json:"price_change_24h"`
	History7d              []PricePoint `json:"history_7d"`
}

// AssetMarketInfo is the per-asset snapshot produced by MarketInfo. Quotes is
// keyed by reference asset name.
type AssetMarketInfo struct {
	Asset       string                     `json:"asset"`
	TotalSupply float64                    `json:"total_supply"`
	Summary24h  VolumeSummary              `json:"summary_24h"`
	Quotes      map[string]*ReferenceQuote `json:"quotes"`
}

// BookLevel is one price level of an order book side. Depth is the running
// cumulative base quantity from the best price outward.
type BookLevel struct {
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	Count     int     `json:"count"`
	Depth     float64 `json:"depth"`
}

// OrderBook is the fee-filtered book for one canonical pair.
type OrderBook struct {
	Bids              []BookLevel `json:"base_bid_book"`
	Asks              []BookLevel `json:"base_ask_book"`
	BidDepth          float64     `json:"bid_depth"`
	AskDepth          float64     `json:"ask_depth"`
	Spread            float64     `json:"bid_ask_spread"`
	Median            float64     `json:"bid_ask_median"`
	RawOrders         []Order     `json:"raw_orders"`
	OpenCounterOrders []Order     `json:"open_counter_orders"`
}
