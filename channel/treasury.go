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

// SetFees updates the channel and relayer fee parameters. Administrator only.
func (e *Engine) SetFees(ctx context.Context, caller common.Address, channelFee, relayerFee *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return types.ErrNotAdmin
	}
	if channelFee == nil || channelFee.Sign() < 0 || relayerFee == nil || relayerFee.Sign() < 0 {
		return fmt.Errorf("fees must be non-negative")
	}
	e.channelFee = new(big.Int).Set(channelFee)
	e.relayerFee = new(big.Int).Set(relayerFee)

	e.log.Log().Infof("fees changed: channel=%s relayer=%s", channelFee, relayerFee)
	e.emit(FeesChangedEvent{
		ChannelFee: new(big.Int).Set(channelFee),
		RelayerFee: new(big.Int).Set(relayerFee),
		At:         e.now(),
	})
	return nil
}

// Fees returns the current channel and relayer fee parameters.
func (e *Engine) Fees() (channelFee, relayerFee *big.Int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(big.Int).Set(e.channelFee), new(big.Int).Set(e.relayerFee)
}

// TreasuryBalance returns the accrued, not yet withdrawn fee balance.
func (e *Engine) TreasuryBalance() *big.Int {
	return e.bank.Treasury()
}

// SetOracle updates the informational external oracle address. It is used
// for governance and monitoring only and never consulted for state
// transitions. Administrator only.
func (e *Engine) SetOracle(ctx context.Context, caller, oracle common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return types.ErrNotAdmin
	}
	e.oracle = oracle

	e.log.Log().Infof("oracle changed to %s", oracle)
	e.emit(OracleChangedEvent{Oracle: oracle, At: e.now()})
	return nil
}

// Oracle returns the informational external oracle address.
func (e *Engine) Oracle() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.oracle
}

// WithdrawFees sweeps the accumulated treasury balance to the administrator
// and returns the swept amount. Administrator only.
func (e *Engine) WithdrawFees(ctx context.Context, caller common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return nil, types.ErrNotAdmin
	}
	amount, err := e.bank.SweepTreasury(e.admin)
	if err != nil {
		return nil, fmt.Errorf("sweeping treasury: %w", err)
	}

	e.log.Log().Infof("treasury of %s swept to admin", amount)
	return amount, nil
}

// EmergencyWithdraw recovers residual funds of an already inactive channel,
// paying the participants their recorded balances. It exists for funds
// stranded by a failed payout; it never pays the administrator.
// Administrator only.
func (e *Engine) EmergencyWithdraw(ctx context.Context, caller common.Address, id types.ChannelID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return types.ErrNotAdmin
	}
	ch, err := e.getChannel(ctx, id)
	if err != nil {
		return err
	}
	if ch.Active {
		return types.ErrChannelStillActive
	}
	if ch.Total().Sign() == 0 {
		return types.ErrNothingToRecover
	}

	e.log.Log().Warnf("emergency withdraw on channel %s, residual %s/%s", id, ch.Balance1, ch.Balance2)
	return e.settle(ctx, ch)
}
