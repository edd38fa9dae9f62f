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
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"perun.network/go-perun/log"

	"github.com/lendfi/paychan/channel/types"
	"github.com/lendfi/paychan/config"
	"github.com/lendfi/paychan/funds"
	"github.com/lendfi/paychan/store"
	"github.com/lendfi/paychan/wallet"
	"github.com/lendfi/paychan/wire"
)

// Engine is the payment channel engine. All state-changing operations are
// serialized behind a single mutex, reproducing the single-writer execution
// model; each operation validates completely before its first write, so a
// failed call leaves no partial mutation.
type Engine struct {
	mu  sync.Mutex
	log log.Embedding

	store store.ChannelStore
	bank  *funds.Bank

	admin  common.Address
	oracle common.Address

	channelFee *big.Int
	relayerFee *big.Int

	minTimeout    time.Duration
	maxTimeout    time.Duration
	disputeWindow time.Duration

	now func() time.Time
	seq uint64

	subMu sync.Mutex
	subs  []chan Event
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the engine's time source. Used by tests to advance
// past dispute deadlines.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine on top of the given channel store and funds
// bank, parameterized by cfg.
func NewEngine(cfg *config.Config, st store.ChannelStore, bank *funds.Bank, opts ...Option) *Engine {
	e := &Engine{
		log:           log.MakeEmbedding(log.Default()),
		store:         st,
		bank:          bank,
		admin:         cfg.Admin,
		channelFee:    new(big.Int).Set(cfg.ChannelFee),
		relayerFee:    new(big.Int).Set(cfg.RelayerFee),
		minTimeout:    cfg.MinTimeout,
		maxTimeout:    cfg.MaxTimeout,
		disputeWindow: cfg.DisputeWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpenChannel creates a new active channel between p1 and p2 with the given
// initial balances. The caller funds amount1+amount2 plus the channel fee out
// of its bank account; the fee accrues to the treasury.
func (e *Engine) OpenChannel(
	ctx context.Context, caller, p1, p2 common.Address,
	amount1, amount2 *big.Int, timeout time.Duration,
) (types.ChannelID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var zero common.Address
	if p1 == p2 || p1 == zero || p2 == zero {
		return types.ChannelID{}, types.ErrInvalidParticipants
	}
	if timeout < e.minTimeout || timeout > e.maxTimeout {
		return types.ChannelID{}, types.ErrInvalidTimeout
	}
	if amount1 == nil || amount1.Sign() < 0 || amount2 == nil || amount2.Sign() < 0 {
		return types.ChannelID{}, types.ErrInsufficientFunds
	}

	deposit := new(big.Int).Add(amount1, amount2)
	if err := e.bank.Escrow(caller, deposit, e.channelFee); err != nil {
		if errors.Is(err, funds.ErrInsufficientBalance) {
			return types.ChannelID{}, types.ErrInsufficientFunds
		}
		return types.ChannelID{}, fmt.Errorf("escrowing deposit: %w", err)
	}

	openedAt := e.now()
	e.seq++
	ch := &types.Channel{
		ID:           wire.DeriveChannelID(p1, p2, openedAt.UnixNano(), e.seq),
		Participant1: p1,
		Participant2: p2,
		Balance1:     new(big.Int).Set(amount1),
		Balance2:     new(big.Int).Set(amount2),
		Nonce:        0,
		Timeout:      timeout,
		Active:       true,
		OpenedAt:     openedAt,
	}
	if err := e.store.PutChannel(ctx, ch); err != nil {
		if rerr := e.bank.RefundEscrow(caller, deposit, e.channelFee); rerr != nil {
			e.log.Log().Errorf("refunding escrow after failed open: %v", rerr)
		}
		return types.ChannelID{}, fmt.Errorf("storing channel: %w", err)
	}

	e.log.Log().Infof("opened channel %s between %s and %s", ch.ID, p1, p2)
	e.emit(OpenedEvent{ChannelID: ch.ID, At: openedAt})
	return ch.ID, nil
}

// UpdateChannel applies a dual-signed state update to an active, undisputed
// channel. The update must strictly increase the nonce and conserve the
// balance sum.
func (e *Engine) UpdateChannel(ctx context.Context, update *types.StateUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.applyUpdate(ctx, update); err != nil {
		return err
	}
	e.emit(UpdatedEvent{ChannelID: update.ChannelID, Nonce: update.Nonce, At: e.now()})
	return nil
}

// CloseChannel terminates the channel cooperatively. The caller must be a
// participant. A non-nil finalUpdate with nonce > 0 is first applied through
// the same validation path as UpdateChannel; a nil finalUpdate (or one at
// nonce 0) closes at the last accepted state. The channel is marked inactive
// before any payout is issued.
func (e *Engine) CloseChannel(ctx context.Context, caller common.Address, id types.ChannelID, finalUpdate *types.StateUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, err := e.getChannel(ctx, id)
	if err != nil {
		return err
	}
	if !ch.Active {
		return types.ErrChannelInactive
	}
	if disputed, _, err := e.disputeOf(ctx, id); err != nil {
		return err
	} else if disputed {
		return types.ErrChannelInDispute
	}
	if !ch.HasParticipant(caller) {
		return types.ErrNotParticipant
	}

	if finalUpdate != nil && finalUpdate.Nonce > 0 {
		if err := validateUpdate(ch, finalUpdate); err != nil {
			return err
		}
		applyToChannel(ch, finalUpdate)
	}

	ch.Active = false
	if err := e.store.PutChannel(ctx, ch); err != nil {
		return fmt.Errorf("deactivating channel: %w", err)
	}

	err = e.settle(ctx, ch)
	e.log.Log().Infof("closed channel %s at nonce %d", id, ch.Nonce)
	e.emit(ClosedEvent{ChannelID: id, At: e.now()})
	return err
}

// GetChannel returns a copy of the channel record.
func (e *Engine) GetChannel(ctx context.Context, id types.ChannelID) (*types.Channel, error) {
	return e.getChannel(ctx, id)
}

// Admin returns the engine administrator.
func (e *Engine) Admin() common.Address {
	return e.admin
}

// applyUpdate validates the update against the stored channel and collapses
// it into a new channel state. Caller must hold e.mu.
func (e *Engine) applyUpdate(ctx context.Context, update *types.StateUpdate) error {
	ch, err := e.getChannel(ctx, update.ChannelID)
	if err != nil {
		return err
	}
	if !ch.Active {
		return types.ErrChannelInactive
	}
	if disputed, _, err := e.disputeOf(ctx, update.ChannelID); err != nil {
		return err
	} else if disputed {
		return types.ErrChannelInDispute
	}
	if err := validateUpdate(ch, update); err != nil {
		return err
	}

	applyToChannel(ch, update)
	if err := e.store.PutChannel(ctx, ch); err != nil {
		return fmt.Errorf("storing updated channel: %w", err)
	}
	return nil
}

// validateUpdate checks nonce monotonicity, balance conservation and both
// participant signatures over the canonical state digest.
func validateUpdate(ch *types.Channel, update *types.StateUpdate) error {
	if update.ChannelID != ch.ID {
		return fmt.Errorf("update targets channel %s, not %s", update.ChannelID, ch.ID)
	}
	if update.Nonce <= ch.Nonce {
		return types.ErrInvalidNonce
	}
	if update.Balance1 == nil || update.Balance1.Sign() < 0 ||
		update.Balance2 == nil || update.Balance2.Sign() < 0 {
		return types.ErrInvalidBalanceSum
	}
	if update.Total().Cmp(ch.Total()) != 0 {
		return types.ErrInvalidBalanceSum
	}

	digest, err := wire.StateDigest(update.ChannelID, update.Nonce, update.Balance1, update.Balance2)
	if err != nil {
		return fmt.Errorf("computing state digest: %w", err)
	}
	if ok, err := wallet.Backend.VerifySignature(digest, update.Sig1, ch.Participant1); err != nil || !ok {
		return fmt.Errorf("%w: participant1", types.ErrInvalidSignature)
	}
	if ok, err := wallet.Backend.VerifySignature(digest, update.Sig2, ch.Participant2); err != nil || !ok {
		return fmt.Errorf("%w: participant2", types.ErrInvalidSignature)
	}
	return nil
}

func applyToChannel(ch *types.Channel, update *types.StateUpdate) {
	ch.Balance1 = new(big.Int).Set(update.Balance1)
	ch.Balance2 = new(big.Int).Set(update.Balance2)
	ch.Nonce = update.Nonce
}

// settle pays the recorded balances out to the participants of an already
// deactivated channel. Balances are zeroed as they are paid; a residual
// balance left by a failed payout stays recorded for EmergencyWithdraw.
func (e *Engine) settle(ctx context.Context, ch *types.Channel) error {
	var firstErr error
	if ch.Balance1.Sign() > 0 {
		if err := e.bank.Payout(ch.Participant1, ch.Balance1); err != nil {
			e.log.Log().Errorf("paying out participant1 of %s: %v", ch.ID, err)
			firstErr = err
		} else {
			ch.Balance1 = new(big.Int)
		}
	}
	if ch.Balance2.Sign() > 0 {
		if err := e.bank.Payout(ch.Participant2, ch.Balance2); err != nil {
			e.log.Log().Errorf("paying out participant2 of %s: %v", ch.ID, err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			ch.Balance2 = new(big.Int)
		}
	}
	if err := e.store.PutChannel(ctx, ch); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (e *Engine) getChannel(ctx context.Context, id types.ChannelID) (*types.Channel, error) {
	ch, err := e.store.GetChannel(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, types.ErrChannelNotFound
		}
		return nil, err
	}
	return ch, nil
}

func (e *Engine) disputeOf(ctx context.Context, id types.ChannelID) (bool, *types.DisputeRecord, error) {
	rec, err := e.store.GetDispute(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, rec, nil
}
