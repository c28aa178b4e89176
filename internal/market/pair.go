package market

import (
	"context"
	"fmt"
)

// canonicalPair maps an unordered asset pair to its deterministic
// (base, quote) assignment: the protocol asset always takes base, then the
// chain asset, otherwise the lexicographically smaller name. The mapping is
// symmetric in its inputs.
func (s *Service) canonicalPair(asset1, asset2 string) (base, quote string) {
	switch {
	case asset1 == s.protocolAsset || asset2 == s.protocolAsset:
		if asset1 == s.protocolAsset {
			return asset1, asset2
		}
		return asset2, asset1
	case asset1 == s.chainAsset || asset2 == s.chainAsset:
		if asset1 == s.chainAsset {
			return asset1, asset2
		}
		return asset2, asset1
	default:
		if asset1 < asset2 {
			return asset1, asset2
		}
		return asset2, asset1
	}
}

// BaseQuotePair canonicalizes an arbitrary pair, validating both assets
// against the registry.
func (s *Service) BaseQuotePair(ctx context.Context, asset1, asset2 string) (*PairInfo, error) {
	base, quote := s.canonicalPair(asset1, asset2)

	baseInfo, err := s.store.Asset(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("look up base asset: %w", err)
	}
	quoteInfo, err := s.store.Asset(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("look up quote asset: %w", err)
	}
	if baseInfo == nil || quoteInfo == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidAsset, asset1, asset2)
	}

	return &PairInfo{
		BaseAsset:  base,
		QuoteAsset: quote,
		PairName:   fmt.Sprintf("%s/%s", base, quote),
	}, nil
}
