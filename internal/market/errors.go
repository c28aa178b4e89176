package market

import "errors"

var (
	// ErrInvalidAsset is returned when an asset identifier is unknown to the
	// registry or malformed.
	ErrInvalidAsset = errors.New("invalid asset")

	// ErrInvalidPair is returned when a pair cannot be canonicalized.
	ErrInvalidPair = errors.New("invalid asset pair")

	// ErrNoData marks a valid absence of data (e.g. no trades in the lookback
	// window). It is never conflated with a zero price.
	ErrNoData = errors.New("no data available")

	// ErrDataIntegrity is returned when an asset's change log contradicts its
	// declared change types. Reconstruction fails rather than emit a wrong
	// event.
	ErrDataIntegrity = errors.New("data integrity fault")

	// ErrInvalidParam is returned for out-of-range request parameters,
	// rejected before any query is made.
	ErrInvalidParam = errors.New("invalid parameter")
)
