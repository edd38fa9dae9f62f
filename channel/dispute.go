// Copyright 2025 - See NOTICE file for copyright holders.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package channel

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lendfi/paychan/channel/types"
)

// DisputeChannel freezes cooperative progress on an active channel and
// starts the bounded dispute countdown. Either participant may dispute when
// the counterparty has become unresponsive.
func (e *Engine) DisputeChannel(ctx context.Context, caller common.Address, id types.ChannelID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, err := e.getChannel(ctx, id)
	if err != nil {
		return err
	}
	if !ch.Active {
		return types.ErrChannelInactive
	}
	if !ch.HasParticipant(caller) {
		return types.ErrNotParticipant
	}
	if disputed, _, err := e.disputeOf(ctx, id); err != nil {
		return err
	} else if disputed {
		return types.ErrChannelInDispute
	}

	rec := &types.DisputeRecord{
		ChannelID: id,
		RaisedBy:  caller,
		Deadline:  e.now().Add(e.disputeWindow),
	}
	if err := e.store.PutDispute(ctx, rec); err != nil {
		return fmt.Errorf("storing dispute: %w", err)
	}

	e.log.Log().Infof("channel %s disputed by %s, deadline %s", id, caller, rec.Deadline)
	e.emit(DisputedEvent{ChannelID: id, RaisedBy: caller, Deadline: rec.Deadline, At: e.now()})
	return nil
}

// ResolveDispute ends a dispute before its deadline. A non-nil update is
// applied through the same validation as UpdateChannel, letting the honest
// party present the latest jointly-signed state; a nil update merely clears
// the dispute at the last accepted state.
func (e *Engine) ResolveDispute(ctx context.Context, caller common.Address, id types.ChannelID, update *types.StateUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, err := e.getChannel(ctx, id)
	if err != nil {
		return err
	}
	if !ch.Active {
		return types.ErrChannelInactive
	}
	if !ch.HasParticipant(caller) {
		return types.ErrNotParticipant
	}
	disputed, rec, err := e.disputeOf(ctx, id)
	if err != nil {
		return err
	}
	if !disputed {
		return types.ErrNoDispute
	}
	if !e.now().Before(rec.Deadline) {
		return types.ErrDisputeExpired
	}

	if update != nil {
		if err := validateUpdate(ch, update); err != nil {
			return err
		}
		prev := ch.Clone()
		applyToChannel(ch, update)
		if err := e.store.PutChannel(ctx, ch); err != nil {
			return fmt.Errorf("storing resolved channel: %w", err)
		}
		if err := e.store.DeleteDispute(ctx, id); err != nil {
			if rerr := e.store.PutChannel(ctx, prev); rerr != nil {
				e.log.Log().Errorf("restoring channel %s after failed dispute clear: %v", id, rerr)
			}
			return fmt.Errorf("clearing dispute: %w", err)
		}
	} else if err := e.store.DeleteDispute(ctx, id); err != nil {
		return fmt.Errorf("clearing dispute: %w", err)
	}

	e.log.Log().Infof("dispute on channel %s resolved at nonce %d", id, ch.Nonce)
	e.emit(DisputeResolvedEvent{ChannelID: id, Nonce: ch.Nonce, At: e.now()})
	return nil
}

// WithdrawTimelock liberates the funds of a channel whose dispute deadline
// has passed without resolution. The total balance is split into two equal
// shares, remainder to participant2. The split deliberately discards the last
// proposed unequal allocation, so stalling a dispute never pays.
func (e *Engine) WithdrawTimelock(ctx context.Context, caller common.Address, id types.ChannelID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, err := e.getChannel(ctx, id)
	if err != nil {
		return err
	}
	if !ch.Active {
		return types.ErrChannelInactive
	}
	if !ch.HasParticipant(caller) {
		return types.ErrNotParticipant
	}
	disputed, rec, err := e.disputeOf(ctx, id)
	if err != nil {
		return err
	}
	if !disputed {
		return types.ErrNoDispute
	}
	if e.now().Before(rec.Deadline) {
		return types.ErrDisputePending
	}

	prev := ch.Clone()
	total := ch.Total()
	half := new(big.Int).Div(total, big.NewInt(2))
	ch.Balance1 = half
	ch.Balance2 = new(big.Int).Sub(total, half)
	ch.Active = false
	if err := e.store.PutChannel(ctx, ch); err != nil {
		return fmt.Errorf("deactivating channel: %w", err)
	}
	if err := e.store.DeleteDispute(ctx, id); err != nil {
		if rerr := e.store.PutChannel(ctx, prev); rerr != nil {
			e.log.Log().Errorf("restoring channel %s after failed dispute clear: %v", id, rerr)
		}
		return fmt.Errorf("clearing dispute: %w", err)
	}

	err = e.settle(ctx, ch)
	e.log.Log().Infof("channel %s closed by timeout, split %s/%s", id, half, new(big.Int).Sub(total, half))
	e.emit(ClosedEvent{ChannelID: id, ByTimeout: true, At: e.now()})
	return err
}

// DisputeStatus returns the dispute record of the channel, or ErrNoDispute
// when the channel is not contested.
func (e *Engine) DisputeStatus(ctx context.Context, id types.ChannelID) (*types.DisputeRecord, error) {
	disputed, rec, err := e.disputeOf(ctx, id)
	if err != nil {
		return nil, err
	}
	if !disputed {
		return nil, types.ErrNoDispute
	}
	return rec, nil
}
