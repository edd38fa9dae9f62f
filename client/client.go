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

// Package client is the off-chain side of the protocol: it constructs state
// updates, collects both participant signatures out of band and submits the
// result to the engine, either directly or through an authorized relayer.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"perun.network/go-perun/log"
	pwallet "perun.network/go-perun/wallet"

	"github.com/lendfi/paychan/channel"
	"github.com/lendfi/paychan/channel/types"
	"github.com/lendfi/paychan/wallet"
	"github.com/lendfi/paychan/wire"
)

// ErrNotChannelParticipant is returned when an account signs an update for a
// channel it does not participate in.
var ErrNotChannelParticipant = errors.New("account is not a channel participant")

// Client drives channels on behalf of one participant.
type Client struct {
	engine *channel.Engine
	acc    *wallet.Account
	log    log.Embedding
}

// New creates a client for the given account.
func New(engine *channel.Engine, acc *wallet.Account) *Client {
	return &Client{
		engine: engine,
		acc:    acc,
		log:    log.MakeEmbedding(log.Default()),
	}
}

// Address returns the address of the client's account.
func (c *Client) Address() common.Address {
	return c.acc.Address()
}

// OpenChannel opens a channel between the client and the counterparty,
// funded from the client's bank account.
func (c *Client) OpenChannel(
	ctx context.Context, counterparty common.Address,
	myBalance, theirBalance *big.Int, timeout time.Duration,
) (types.ChannelID, error) {
	return c.engine.OpenChannel(ctx, c.acc.Address(), c.acc.Address(), counterparty, myBalance, theirBalance, timeout)
}

// ProposeUpdate builds the next state update for the channel, carrying the
// client's own signature. The counterparty countersigns it out of band
// before submission.
func (c *Client) ProposeUpdate(ctx context.Context, id types.ChannelID, balance1, balance2 *big.Int) (*types.StateUpdate, error) {
	ch, err := c.engine.GetChannel(ctx, id)
	if err != nil {
		return nil, err
	}
	update := &types.StateUpdate{
		ChannelID: id,
		Nonce:     ch.Nonce + 1,
		Balance1:  new(big.Int).Set(balance1),
		Balance2:  new(big.Int).Set(balance2),
	}
	if err := SignUpdate(update, ch, c.acc); err != nil {
		return nil, err
	}
	c.log.Log().Debugf("proposed update for %s at nonce %d", id, update.Nonce)
	return update, nil
}

// Countersign attaches the client's signature to an update proposed by the
// counterparty.
func (c *Client) Countersign(ctx context.Context, update *types.StateUpdate) error {
	ch, err := c.engine.GetChannel(ctx, update.ChannelID)
	if err != nil {
		return err
	}
	return SignUpdate(update, ch, c.acc)
}

// SubmitUpdate hands a fully signed update to the engine.
func (c *Client) SubmitUpdate(ctx context.Context, update *types.StateUpdate) error {
	return c.engine.UpdateChannel(ctx, update)
}

// CloseChannel settles the channel at the given final state, or at the last
// accepted state when finalUpdate is nil.
func (c *Client) CloseChannel(ctx context.Context, id types.ChannelID, finalUpdate *types.StateUpdate) error {
	return c.engine.CloseChannel(ctx, c.acc.Address(), id, finalUpdate)
}

// Dispute freezes the channel and starts the dispute countdown.
func (c *Client) Dispute(ctx context.Context, id types.ChannelID) error {
	return c.engine.DisputeChannel(ctx, c.acc.Address(), id)
}

// ResolveDispute presents a jointly-signed update to end a dispute early.
func (c *Client) ResolveDispute(ctx context.Context, id types.ChannelID, update *types.StateUpdate) error {
	return c.engine.ResolveDispute(ctx, c.acc.Address(), id, update)
}

// WithdrawTimelock claims the equal-split fallback after an unresolved
// dispute deadline.
func (c *Client) WithdrawTimelock(ctx context.Context, id types.ChannelID) error {
	return c.engine.WithdrawTimelock(ctx, c.acc.Address(), id)
}

// SignUpdate signs the update's canonical digest with acc and stores the
// signature in the slot matching the account's participant position.
func SignUpdate(update *types.StateUpdate, ch *types.Channel, acc *wallet.Account) error {
	digest, err := wire.StateDigest(update.ChannelID, update.Nonce, update.Balance1, update.Balance2)
	if err != nil {
		return fmt.Errorf("computing state digest: %w", err)
	}
	sig, err := acc.SignDigest(digest)
	if err != nil {
		return err
	}
	switch acc.Address() {
	case ch.Participant1:
		update.Sig1 = sig
	case ch.Participant2:
		update.Sig2 = sig
	default:
		return ErrNotChannelParticipant
	}
	return nil
}

// SignRelayEnvelope produces the relayer's authorization signature over the
// relay digest of the update.
func SignRelayEnvelope(update *types.StateUpdate, relayer *wallet.Account) (pwallet.Sig, error) {
	digest := wire.RelayDigest(update.ChannelID, update.Nonce, relayer.Address())
	return relayer.SignDigest(digest)
}
