package postgres

import (
	"time"

	"gorm.io/datatypes"
)

// TradeRecord is one completed trade replicated from the ledger, stored
// under canonical pair ordering (unit price = quote per base).
type TradeRecord struct {
	ID uint `gorm:"primaryKey"`

	BaseAsset  string `gorm:"type:text;not null;index:idx_trade_pair_time"`
	QuoteAsset string `gorm:"type:text;not null;index:idx_trade_pair_time;index:idx_trade_quote_time"`

	UnitPrice         float64 `gorm:"type:numeric;not null"`
	BaseQuantity      int64   `gorm:"not null"`
	QuoteQuantity     int64   `gorm:"not null"`
	BaseQuantityNorm  float64 `gorm:"type:numeric;not null"`
	QuoteQuantityNorm float64 `gorm:"type:numeric;not null"`

	BlockIndex int64     `gorm:"not null"`
	TxIndex    int64     `gorm:"not null"`
	BlockTime  time.Time `gorm:"not null;index:idx_trade_pair_time;index:idx_trade_quote_time;index:idx_trade_time"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (TradeRecord) TableName() string {
	return "trades"
}

// AssetRecord is the current state of one tracked asset. Change metadata
// describes the change that produced this state.
type AssetRecord struct {
	ID uint `gorm:"primaryKey"`

	Asset string `gorm:"type:text;not null;uniqueIndex:idx_asset_name"`
	Owner string `gorm:"type:text;not null;index:idx_asset_owner"`

	Description     string  `gorm:"type:text;not null"`
	Divisible       bool    `gorm:"not null"`
	Locked          bool    `gorm:"not null"`
	TotalIssued     int64   `gorm:"not null"`
	TotalIssuedNorm float64 `gorm:"type:numeric;not null"`

	ChangeType  string    `gorm:"type:varchar(32);not null"`
	AtBlock     int64     `gorm:"not null"`
	AtBlockTime time.Time `gorm:"not null"`
}

func (AssetRecord) TableName() string {
	return "tracked_assets"
}

// AssetChangeRecord is one prior state of an asset, appended whenever the
// ledger modifies it. Seq orders the log; rows never change once written.
type AssetChangeRecord struct {
	ID uint `gorm:"primaryKey"`

	Asset string `gorm:"type:text;not null;uniqueIndex:idx_asset_change_seq"`
	Seq   int    `gorm:"not null;uniqueIndex:idx_asset_change_seq"`

	Owner           string  `gorm:"type:text;not null"`
	Description     string  `gorm:"type:text;not null"`
	Divisible       bool    `gorm:"not null"`
	Locked          bool    `gorm:"not null"`
	TotalIssued     int64   `gorm:"not null"`
	TotalIssuedNorm float64 `gorm:"type:numeric;not null"`

	ChangeType  string    `gorm:"type:varchar(32);not null"`
	AtBlock     int64     `gorm:"not null"`
	AtBlockTime time.Time `gorm:"not null"`
}

func (AssetChangeRecord) TableName() string {
	return "tracked_asset_changes"
}

// BlockRecord maps processed block indexes to their block times.
type BlockRecord struct {
	ID uint `gorm:"primaryKey"`

	BlockIndex int64     `gorm:"not null;uniqueIndex:idx_block_index"`
	BlockTime  time.Time `gorm:"not null;index:idx_block_time"`
}

func (BlockRecord) TableName() string {
	return "processed_blocks"
}

// BalanceChangeRecord is one credit or debit applied to an address balance.
type BalanceChangeRecord struct {
	ID uint `gorm:"primaryKey"`

	Address string `gorm:"type:text;not null;index:idx_balance_addr_asset"`
	Asset   string `gorm:"type:text;not null;index:idx_balance_addr_asset"`

	Quantity       int64     `gorm:"not null"`
	NewBalance     int64     `gorm:"not null"`
	NewBalanceNorm float64   `gorm:"type:numeric;not null"`
	BlockIndex     int64     `gorm:"not null"`
	BlockTime      time.Time `gorm:"not null;index:idx_balance_time"`
}

func (BalanceChangeRecord) TableName() string {
	return "balance_changes"
}

// PreferenceRecord stores a wallet's opaque preference document. The server
// imposes no shape on the payload beyond a size bound.
type PreferenceRecord struct {
	ID uint `gorm:"primaryKey"`

	WalletID    string         `gorm:"type:text;not null;uniqueIndex:idx_pref_wallet"`
	Preferences datatypes.JSON `gorm:"type:jsonb;not null"`

	LastUpdated time.Time `gorm:"not null"`
	LastTouched time.Time `gorm:"not null"`
}

func (PreferenceRecord) TableName() string {
	return "preferences"
}

// ChatHandleRecord stores a wallet's chat handle.
type ChatHandleRecord struct {
	ID uint `gorm:"primaryKey"`

	WalletID string `gorm:"type:text;not null;uniqueIndex:idx_chat_wallet"`
	Handle   string `gorm:"type:varchar(12);not null"`

	LastUpdated time.Time `gorm:"not null"`
	LastTouched time.Time `gorm:"not null"`
}

func (ChatHandleRecord) TableName() string {
	return "chat_handles"
}
