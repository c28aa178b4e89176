package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// marketInfoFixture trades FOO against both references and the references
// against each other, all within the last few hours.
func marketInfoFixture() (*fakeStore, *fakeLedger) {
	store := &fakeStore{}
	registerAsset(store, "XCP", true)
	registerAsset(store, "BTC", true)
	foo := registerAsset(store, "FOO", true)
	foo.TotalIssuedNorm = 1000

	now := time.Now().UTC()
	store.trades = []Trade{
		// FOO per XCP
		mkTrade("XCP", "FOO", 4, 25, 100, 100, now.Add(-3*time.Hour)),
		// FOO per BTC
		mkTrade("BTC", "FOO", 200, 0.5, 100, 101, now.Add(-2*time.Hour)),
		// BTC per XCP, the reference cross
		mkTrade("XCP", "BTC", 0.02, 100, 2, 102, now.Add(-time.Hour)),
	}
	ledger := &fakeLedger{supplies: map[string]int64{
		"XCP": 2600000000000000,
		"BTC": 2100000000000000,
	}}
	return store, ledger
}

// go test -v --run TestMarketInfo
func TestMarketInfo(t *testing.T) {
	store, ledger := marketInfoFixture()
	s := newTestService(store, ledger)

	out, err := s.MarketInfo(context.Background(), []string{"FOO"})
	require.NoError(t, err)
	info := out["FOO"]
	require.NotNil(t, info)

	assert.Equal(t, 1000.0, info.TotalSupply)
	require.Contains(t, info.Quotes, "XCP")
	require.Contains(t, info.Quotes, "BTC")

	xcp := info.Quotes["XCP"]
	require.NotNil(t, xcp.Price)
	assert.Equal(t, 4.0, *xcp.Price)
	require.NotNil(t, xcp.PriceInverse)
	assert.Equal(t, 0.25, *xcp.PriceInverse)

	// market cap * price recovers the total supply
	require.NotNil(t, xcp.MarketCap)
	assert.Equal(t, 250.0, *xcp.MarketCap)
	assert.Equal(t, info.TotalSupply, *xcp.MarketCap * *xcp.Price)

	btc := info.Quotes["BTC"]
	require.NotNil(t, btc.Price)
	assert.Equal(t, 200.0, *btc.Price)
	require.NotNil(t, btc.MarketCap)
	assert.Equal(t, 5.0, *btc.MarketCap)

	// 24h totals span both markets: 100 FOO sold for XCP, 100 for BTC.
	assert.Equal(t, 200.0, info.Summary24h.Volume)
	assert.Equal(t, 2, info.Summary24h.Count)

	// Single trade in the window: flat 24h bucket, zero change.
	require.NotNil(t, xcp.OHLC24h)
	assert.Equal(t, 4.0, xcp.OHLC24h.Open)
	assert.Equal(t, 4.0, xcp.OHLC24h.Close)
	require.NotNil(t, xcp.PriceChange24h)
	assert.Equal(t, 0.0, *xcp.PriceChange24h)

	require.NotEmpty(t, xcp.History7d)
	require.NotEmpty(t, btc.History7d)
}

// go test -v --run TestMarketInfoPriceChange
func TestMarketInfoPriceChange(t *testing.T) {
	store, ledger := marketInfoFixture()
	now := time.Now().UTC()
	// A later XCP-market trade at 5 moves the 24h open 4 -> close 5.
	store.trades = append(store.trades,
		mkTrade("XCP", "FOO", 5, 20, 100, 103, now.Add(-30*time.Minute)))
	s := newTestService(store, ledger)

	out, err := s.MarketInfo(context.Background(), []string{"FOO"})
	require.NoError(t, err)

	xcp := out["FOO"].Quotes["XCP"]
	require.NotNil(t, xcp.PriceChange24h)
	assert.Equal(t, 25.0, *xcp.PriceChange24h)
}

// go test -v --run TestMarketInfoReferenceAssets
func TestMarketInfoReferenceAssets(t *testing.T) {
	store, ledger := marketInfoFixture()
	s := newTestService(store, ledger)

	out, err := s.MarketInfo(context.Background(), []string{"XCP", "BTC"})
	require.NoError(t, err)

	xcp := out["XCP"]
	require.NotNil(t, xcp)
	// Reference supply comes from ledger-wide issuance, not the registry.
	assert.Equal(t, 26000000.0, xcp.TotalSupply)
	// A reference asset prices at exactly 1 against itself.
	require.NotNil(t, xcp.Quotes["XCP"].Price)
	assert.Equal(t, 1.0, *xcp.Quotes["XCP"].Price)
	// Against the other reference the price derives from the cross pair,
	// inverted for the direction canonical ordering cannot express:
	// units of XCP per 1 BTC.
	require.NotNil(t, xcp.Quotes["BTC"].Price)
	assert.Equal(t, 50.0, *xcp.Quotes["BTC"].Price)

	btc := out["BTC"]
	require.NotNil(t, btc)
	assert.Equal(t, 21000000.0, btc.TotalSupply)
	require.NotNil(t, btc.Quotes["BTC"].Price)
	assert.Equal(t, 1.0, *btc.Quotes["BTC"].Price)
	require.NotNil(t, btc.Quotes["XCP"].Price)
	assert.Equal(t, 0.02, *btc.Quotes["XCP"].Price)
}

// go test -v --run TestMarketInfoNoTrades
func TestMarketInfoNoTrades(t *testing.T) {
	store := &fakeStore{}
	registerAsset(store, "XCP", true)
	registerAsset(store, "BTC", true)
	registerAsset(store, "FOO", true)
	ledger := &fakeLedger{supplies: map[string]int64{}}
	s := newTestService(store, ledger)

	out, err := s.MarketInfo(context.Background(), []string{"FOO"})
	require.NoError(t, err)

	// Absent markets surface as nil fields, never zero prices.
	xcp := out["FOO"].Quotes["XCP"]
	assert.Nil(t, xcp.Price)
	assert.Nil(t, xcp.MarketCap)
	assert.Nil(t, xcp.OHLC24h)
	assert.Nil(t, xcp.PriceChange24h)
	assert.Equal(t, 0.0, out["FOO"].Summary24h.Volume)
}

// go test -v --run TestMarketInfoUnknownAsset
func TestMarketInfoUnknownAsset(t *testing.T) {
	store, ledger := marketInfoFixture()
	s := newTestService(store, ledger)

	_, err := s.MarketInfo(context.Background(), []string{"NOSUCH"})
	assert.ErrorIs(t, err, ErrInvalidAsset)
}
