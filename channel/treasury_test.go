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

package channel_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/lendfi/paychan/channel"
	"github.com/lendfi/paychan/channel/types"
)

func TestFeeAccrualAndWithdraw(t *testing.T) {
	s := newSetup(t)

	s.open(100, 100)
	s.open(1, 1)
	require.Zero(t, s.engine.TreasuryBalance().Cmp(big.NewInt(2*testChannelFee)))

	_, err := s.engine.WithdrawFees(s.ctx, s.alice.Address())
	require.ErrorIs(t, err, types.ErrNotAdmin)

	swept, err := s.engine.WithdrawFees(s.ctx, s.admin.Address())
	require.NoError(t, err)
	require.Zero(t, swept.Cmp(big.NewInt(2*testChannelFee)))
	require.Zero(t, s.engine.TreasuryBalance().Sign())
	require.Zero(t, s.balance(s.admin).Cmp(big.NewInt(2*testChannelFee)))
}

func TestSetFees(t *testing.T) {
	s := newSetup(t)
	events := s.engine.Subscribe()

	err := s.engine.SetFees(s.ctx, s.alice.Address(), big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, types.ErrNotAdmin)
	err = s.engine.SetFees(s.ctx, s.admin.Address(), big.NewInt(-1), big.NewInt(1))
	require.Error(t, err)

	require.NoError(t, s.engine.SetFees(s.ctx, s.admin.Address(), big.NewInt(200), big.NewInt(20)))
	chFee, relFee := s.engine.Fees()
	require.Zero(t, chFee.Cmp(big.NewInt(200)))
	require.Zero(t, relFee.Cmp(big.NewInt(20)))

	select {
	case ev := <-events:
		require.Equal(t, channel.EventTypeFeesChanged, ev.Type())
	default:
		t.Fatal("missing fee change event")
	}

	// New opens pay the updated fee.
	s.open(1, 1)
	require.Zero(t, s.engine.TreasuryBalance().Cmp(big.NewInt(200)))
}

func TestSetOracle(t *testing.T) {
	s := newSetup(t)
	oracle := common.HexToAddress("0xfeed")

	err := s.engine.SetOracle(s.ctx, s.alice.Address(), oracle)
	require.ErrorIs(t, err, types.ErrNotAdmin)

	require.NoError(t, s.engine.SetOracle(s.ctx, s.admin.Address(), oracle))
	require.Equal(t, oracle, s.engine.Oracle())
}

func TestEmergencyWithdraw(t *testing.T) {
	s := newSetup(t)
	id := s.open(100, 100)

	err := s.engine.EmergencyWithdraw(s.ctx, s.alice.Address(), id)
	require.ErrorIs(t, err, types.ErrNotAdmin)

	// Active channels are out of reach.
	err = s.engine.EmergencyWithdraw(s.ctx, s.admin.Address(), id)
	require.ErrorIs(t, err, types.ErrChannelStillActive)

	// A cleanly settled channel keeps no residual to recover.
	require.NoError(t, s.engine.CloseChannel(s.ctx, s.alice.Address(), id, nil))
	err = s.engine.EmergencyWithdraw(s.ctx, s.admin.Address(), id)
	require.ErrorIs(t, err, types.ErrNothingToRecover)

	err = s.engine.EmergencyWithdraw(s.ctx, s.admin.Address(), types.ChannelID{0x01})
	require.ErrorIs(t, err, types.ErrChannelNotFound)
}

// A payout that fails at close strands the recorded balances on the inactive
// channel; the administrator recovers them to the participants once custody
// is funded again.
func TestEmergencyWithdrawRecoversResidual(t *testing.T) {
	s := newSetup(t)
	id := s.open(100, 100)

	// Drain custody behind the engine's back so the close payouts fail.
	drain := common.HexToAddress("0xd1")
	require.NoError(t, s.bank.Payout(drain, big.NewInt(200)))
	require.Error(t, s.engine.CloseChannel(s.ctx, s.alice.Address(), id, nil))

	ch, err := s.engine.GetChannel(s.ctx, id)
	require.NoError(t, err)
	require.False(t, ch.Active)
	require.Zero(t, ch.Total().Cmp(big.NewInt(200)))

	aliceBefore := s.balance(s.alice)
	bobBefore := s.balance(s.bob)
	adminBefore := s.balance(s.admin)

	// Return the drained funds to custody and recover.
	require.NoError(t, s.bank.Escrow(drain, big.NewInt(200), big.NewInt(0)))
	require.NoError(t, s.engine.EmergencyWithdraw(s.ctx, s.admin.Address(), id))

	require.Zero(t, s.balance(s.alice).Cmp(new(big.Int).Add(aliceBefore, big.NewInt(100))))
	require.Zero(t, s.balance(s.bob).Cmp(new(big.Int).Add(bobBefore, big.NewInt(100))))
	// Recovery pays the participants, never the administrator.
	require.Zero(t, s.balance(s.admin).Cmp(adminBefore))

	ch, err = s.engine.GetChannel(s.ctx, id)
	require.NoError(t, err)
	require.Zero(t, ch.Total().Sign())

	err = s.engine.EmergencyWithdraw(s.ctx, s.admin.Address(), id)
	require.ErrorIs(t, err, types.ErrNothingToRecover)
}
