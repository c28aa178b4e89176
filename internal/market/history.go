package market

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// AssetEvent is one entry of a reconstructed asset timeline. Concrete
// variants carry only the fields of their change type; consumers dispatch by
// type switch.
type AssetEvent interface {
	Kind() string
	Block() int64
}

type eventBase struct {
	Type        string `json:"type"`
	AtBlock     int64  `json:"at_block"`
	AtBlockTime int64  `json:"at_block_time"` // epoch ms
}

func (e eventBase) Kind() string { return e.Type }
func (e eventBase) Block() int64 { return e.AtBlock }

type CreatedEvent struct {
	eventBase
	Owner           string  `json:"owner"`
	Description     string  `json:"description"`
	Divisible       bool    `json:"divisible"`
	Locked          bool    `json:"locked"`
	TotalIssued     int64   `json:"total_issued"`
	TotalIssuedNorm float64 `json:"total_issued_normalized"`
}

type LockedEvent struct {
	eventBase
}

type TransferredEvent struct {
	eventBase
	PrevOwner string `json:"prev_owner"`
	NewOwner  string `json:"new_owner"`
}

type DescriptionChangedEvent struct {
	eventBase
	PrevDescription string `json:"prev_description"`
	NewDescription  string `json:"new_description"`
}

type IssuedMoreEvent struct {
	eventBase
	Additional      int64   `json:"additional"`
	AdditionalNorm  float64 `json:"additional_normalized"`
	TotalIssued     int64   `json:"total_issued"`
	TotalIssuedNorm float64 `json:"total_issued_normalized"`
}

type CalledBackEvent struct {
	eventBase
	Percentage float64 `json:"percentage"`
}

// AssetHistory replays the asset's snapshot log and its callback feed into a
// single block-ordered event timeline, oldest first (newest first when
// reverse is set).
func (s *Service) AssetHistory(ctx context.Context, asset string, reverse bool) ([]AssetEvent, error) {
	info, err := s.store.AssetWithLog(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("look up asset: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAsset, asset)
	}

	events, err := replayLog(info.Log)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", asset, err)
	}

	callbacks, err := s.ledger.Callbacks(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("fetch callbacks: %w", err)
	}
	events, err = s.mergeCallbacks(ctx, events, callbacks)
	if err != nil {
		return nil, err
	}

	if reverse {
		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
	}
	return events, nil
}

// replayLog diffs each snapshot against its predecessor and emits the typed
// event its declared change type describes. A diff that contradicts the
// declared type is a data-integrity fault, never silently corrected.
func replayLog(log []AssetSnapshot) ([]AssetEvent, error) {
	if len(log) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot log", ErrDataIntegrity)
	}
	if log[0].ChangeType != ChangeCreated {
		return nil, fmt.Errorf("%w: first snapshot tagged %q, want %q",
			ErrDataIntegrity, log[0].ChangeType, ChangeCreated)
	}

	events := make([]AssetEvent, 0, len(log))
	events = append(events, CreatedEvent{
		eventBase:       base(log[0]),
		Owner:           log[0].Owner,
		Description:     log[0].Description,
		Divisible:       log[0].Divisible,
		Locked:          log[0].Locked,
		TotalIssued:     log[0].TotalIssued,
		TotalIssuedNorm: log[0].TotalIssuedNorm,
	})

	for i := 1; i < len(log); i++ {
		prev, cur := log[i-1], log[i]
		switch cur.ChangeType {
		case ChangeLocked:
			if prev.Locked == cur.Locked {
				return nil, fmt.Errorf("%w: snapshot at block %d tagged %q but locked flag unchanged",
					ErrDataIntegrity, cur.AtBlock, cur.ChangeType)
			}
			events = append(events, LockedEvent{eventBase: base(cur)})
		case ChangeTransferred:
			if prev.Owner == cur.Owner {
				return nil, fmt.Errorf("%w: snapshot at block %d tagged %q but owner unchanged",
					ErrDataIntegrity, cur.AtBlock, cur.ChangeType)
			}
			events = append(events, TransferredEvent{
				eventBase: base(cur),
				PrevOwner: prev.Owner,
				NewOwner:  cur.Owner,
			})
		case ChangeDescription:
			if prev.Description == cur.Description {
				return nil, fmt.Errorf("%w: snapshot at block %d tagged %q but description unchanged",
					ErrDataIntegrity, cur.AtBlock, cur.ChangeType)
			}
			events = append(events, DescriptionChangedEvent{
				eventBase:       base(cur),
				PrevDescription: prev.Description,
				NewDescription:  cur.Description,
			})
		default: // additional issuance
			if cur.TotalIssued <= prev.TotalIssued {
				return nil, fmt.Errorf("%w: snapshot at block %d tagged %q but total issuance did not increase",
					ErrDataIntegrity, cur.AtBlock, cur.ChangeType)
			}
			events = append(events, IssuedMoreEvent{
				eventBase:       base(cur),
				Additional:      cur.TotalIssued - prev.TotalIssued,
				AdditionalNorm:  round8(cur.TotalIssuedNorm - prev.TotalIssuedNorm),
				TotalIssued:     cur.TotalIssued,
				TotalIssuedNorm: cur.TotalIssuedNorm,
			})
		}
	}
	return events, nil
}

func base(snap AssetSnapshot) eventBase {
	return eventBase{
		Type:        snap.ChangeType,
		AtBlock:     snap.AtBlock,
		AtBlockTime: snap.AtBlockTime.UnixMilli(),
	}
}

// mergeCallbacks splices callback events into the diffed timeline: any
// callback whose block precedes the next pending event goes first. Both
// inputs are block-ordered, so the result is too, and every event of both
// feeds survives the merge.
func (s *Service) mergeCallbacks(ctx context.Context, events []AssetEvent, callbacks []Callback) ([]AssetEvent, error) {
	if len(callbacks) == 0 {
		return events, nil
	}

	merged := make([]AssetEvent, 0, len(events)+len(callbacks))
	ci := 0
	for _, e := range events {
		for ci < len(callbacks) && callbacks[ci].BlockIndex < e.Block() {
			ev, err := s.callbackEvent(ctx, callbacks[ci])
			if err != nil {
				return nil, err
			}
			merged = append(merged, ev)
			ci++
		}
		merged = append(merged, e)
	}
	for ; ci < len(callbacks); ci++ {
		ev, err := s.callbackEvent(ctx, callbacks[ci])
		if err != nil {
			return nil, err
		}
		merged = append(merged, ev)
	}
	return merged, nil
}

func (s *Service) callbackEvent(ctx context.Context, cb Callback) (AssetEvent, error) {
	blockTime, err := s.store.BlockTime(ctx, cb.BlockIndex)
	if err != nil {
		return nil, fmt.Errorf("resolve block time for callback at block %d: %w", cb.BlockIndex, err)
	}
	return CalledBackEvent{
		eventBase: eventBase{
			Type:        ChangeCalledBack,
			AtBlock:     cb.BlockIndex,
			AtBlockTime: blockTime.UnixMilli(),
		},
		Percentage: round8Decimal(decimal.NewFromFloat(cb.Fraction).Mul(decimal.NewFromInt(100))),
	}, nil
}
