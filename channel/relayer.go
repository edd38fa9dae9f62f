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

	"github.com/ethereum/go-ethereum/common"
	pwallet "perun.network/go-perun/wallet"

	"github.com/lendfi/paychan/channel/types"
	"github.com/lendfi/paychan/funds"
	"github.com/lendfi/paychan/wallet"
	"github.com/lendfi/paychan/wire"
)

// SetRelayerAuthorization toggles a relayer's authorization. Administrator
// only.
func (e *Engine) SetRelayerAuthorization(ctx context.Context, caller, relayer common.Address, authorized bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return types.ErrNotAdmin
	}
	if err := e.store.SetRelayer(ctx, relayer, authorized); err != nil {
		return fmt.Errorf("storing relayer authorization: %w", err)
	}

	e.log.Log().Infof("relayer %s authorization set to %t", relayer, authorized)
	e.emit(RelayerChangedEvent{Relayer: relayer, Authorized: authorized, At: e.now()})
	return nil
}

// IsAuthorizedRelayer reports whether the given relayer is authorized.
func (e *Engine) IsAuthorizedRelayer(ctx context.Context, relayer common.Address) (bool, error) {
	return e.store.IsRelayer(ctx, relayer)
}

// RelayTransaction applies a dual-signed update submitted by a third-party
// relayer. The relayer must be authorized and must itself sign the relay
// envelope (channel id, nonce, relayer address); the update then passes the
// full UpdateChannel validation. On success the relayer is paid the relayer
// fee from the treasury, decoupling network cost from the participants.
func (e *Engine) RelayTransaction(ctx context.Context, update *types.StateUpdate, relayer common.Address, relayerSig pwallet.Sig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	authorized, err := e.store.IsRelayer(ctx, relayer)
	if err != nil {
		return fmt.Errorf("checking relayer authorization: %w", err)
	}
	if !authorized {
		return types.ErrUnauthorizedRelayer
	}

	digest := wire.RelayDigest(update.ChannelID, update.Nonce, relayer)
	if ok, err := wallet.Backend.VerifySignature(digest, relayerSig, relayer); err != nil || !ok {
		return fmt.Errorf("%w: relayer", types.ErrInvalidSignature)
	}

	if err := e.applyUpdate(ctx, update); err != nil {
		return err
	}

	// The update is final at this point. A treasury too poor to pay the
	// relay fee must not invalidate the participants' state progress.
	if e.relayerFee.Sign() > 0 {
		if err := e.bank.PayFromTreasury(relayer, e.relayerFee); err != nil {
			if errors.Is(err, funds.ErrInsufficientBalance) {
				e.log.Log().Warnf("treasury cannot cover relay fee for %s", relayer)
			} else {
				return fmt.Errorf("paying relayer: %w", err)
			}
		}
	}

	e.log.Log().Infof("channel %s updated to nonce %d via relayer %s", update.ChannelID, update.Nonce, relayer)
	e.emit(UpdatedEvent{ChannelID: update.ChannelID, Nonce: update.Nonce, Relayed: true, At: e.now()})
	return nil
}
