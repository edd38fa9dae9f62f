package channel

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lendfi/paychan/channel/types"
)

// DefaultBufferSize is the capacity of a subscriber's event channel.
const DefaultBufferSize = 1024

type EventType int

const (
	EventTypeOpened EventType = iota
	EventTypeUpdated
	EventTypeClosed // closed cooperatively or via timeout fallback
	EventTypeDisputed
	EventTypeDisputeResolved
	EventTypeRelayerChanged
	EventTypeFeesChanged
	EventTypeOracleChanged
)

type (
	// Event is a notification emitted after a state change has been
	// finalized.
	Event interface {
		Type() EventType
		Time() time.Time
	}

	// ChannelEvent is implemented by events scoped to a single channel.
	ChannelEvent interface {
		Event
		ID() types.ChannelID
	}

	OpenedEvent struct {
		ChannelID types.ChannelID
		Nonce     uint64
		At        time.Time
	}

	UpdatedEvent struct {
		ChannelID types.ChannelID
		Nonce     uint64
		Relayed   bool
		At        time.Time
	}

	ClosedEvent struct {
		ChannelID types.ChannelID
		// ByTimeout is set when the close is the punitive equal-split
		// fallback of WithdrawTimelock.
		ByTimeout bool
		At        time.Time
	}

	DisputedEvent struct {
		ChannelID types.ChannelID
		RaisedBy  common.Address
		Deadline  time.Time
		At        time.Time
	}

	DisputeResolvedEvent struct {
		ChannelID types.ChannelID
		Nonce     uint64
		At        time.Time
	}

	RelayerChangedEvent struct {
		Relayer    common.Address
		Authorized bool
		At         time.Time
	}

	FeesChangedEvent struct {
		ChannelFee *big.Int
		RelayerFee *big.Int
		At         time.Time
	}

	OracleChangedEvent struct {
		Oracle common.Address
		At     time.Time
	}
)

func (e OpenedEvent) Type() EventType          { return EventTypeOpened }
func (e OpenedEvent) Time() time.Time          { return e.At }
func (e OpenedEvent) ID() types.ChannelID      { return e.ChannelID }
func (e UpdatedEvent) Type() EventType         { return EventTypeUpdated }
func (e UpdatedEvent) Time() time.Time         { return e.At }
func (e UpdatedEvent) ID() types.ChannelID     { return e.ChannelID }
func (e ClosedEvent) Type() EventType          { return EventTypeClosed }
func (e ClosedEvent) Time() time.Time          { return e.At }
func (e ClosedEvent) ID() types.ChannelID      { return e.ChannelID }
func (e DisputedEvent) Type() EventType        { return EventTypeDisputed }
func (e DisputedEvent) Time() time.Time        { return e.At }
func (e DisputedEvent) ID() types.ChannelID    { return e.ChannelID }
func (e DisputeResolvedEvent) Type() EventType { return EventTypeDisputeResolved }
func (e DisputeResolvedEvent) Time() time.Time { return e.At }
func (e DisputeResolvedEvent) ID() types.ChannelID {
	return e.ChannelID
}
func (e RelayerChangedEvent) Type() EventType { return EventTypeRelayerChanged }
func (e RelayerChangedEvent) Time() time.Time { return e.At }
func (e FeesChangedEvent) Type() EventType    { return EventTypeFeesChanged }
func (e FeesChangedEvent) Time() time.Time    { return e.At }
func (e OracleChangedEvent) Type() EventType  { return EventTypeOracleChanged }
func (e OracleChangedEvent) Time() time.Time  { return e.At }

// Subscribe registers a new subscriber and returns its event channel. Events
// are emitted after the corresponding state change is finalized; a subscriber
// that falls more than DefaultBufferSize events behind misses events rather
// than blocking the engine.
func (e *Engine) Subscribe() <-chan Event {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	sub := make(chan Event, DefaultBufferSize)
	e.subs = append(e.subs, sub)
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Events buffered
// before the call remain readable; a receive after draining them reports the
// channel closed.
func (e *Engine) Unsubscribe(sub <-chan Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for i, s := range e.subs {
		if (<-chan Event)(s) == sub {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			close(s)
			return
		}
	}
}

func (e *Engine) emit(ev Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, sub := range e.subs {
		select {
		case sub <- ev:
		default:
			e.log.Log().Warnf("dropping event %T for slow subscriber", ev)
		}
	}
}
