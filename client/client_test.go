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

package client_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	pkgtest "polycry.pt/poly-go/test"

	"github.com/lendfi/paychan/channel"
	"github.com/lendfi/paychan/channel/types"
	"github.com/lendfi/paychan/client"
	"github.com/lendfi/paychan/config"
	"github.com/lendfi/paychan/funds"
	"github.com/lendfi/paychan/store"
	"github.com/lendfi/paychan/wallet"
)

// TestHappyPath walks one channel through its full cooperative lifecycle:
// open, a countersigned payment, and a close at the final state.
func TestHappyPath(t *testing.T) {
	ctx := context.Background()
	rng := pkgtest.Prng(t)

	w := wallet.NewEphemeralWallet()
	admin, err := w.AddNewAccount(rng)
	require.NoError(t, err)
	aliceAcc, err := w.AddNewAccount(rng)
	require.NoError(t, err)
	bobAcc, err := w.AddNewAccount(rng)
	require.NoError(t, err)

	cfg := &config.Config{
		StoreType:     "inmemory",
		Admin:         admin.Address(),
		ChannelFee:    big.NewInt(100),
		RelayerFee:    big.NewInt(10),
		MinTimeout:    time.Hour,
		MaxTimeout:    720 * time.Hour,
		DisputeWindow: 24 * time.Hour,
	}

	bank := funds.NewBank()
	require.NoError(t, bank.Mint(aliceAcc.Address(), big.NewInt(10_000)))

	engine := channel.NewEngine(cfg, store.NewInMemoryStore(), bank)
	alice := client.New(engine, aliceAcc)
	bob := client.New(engine, bobAcc)

	id, err := alice.OpenChannel(ctx, bob.Address(), big.NewInt(500), big.NewInt(500), 2*time.Hour)
	require.NoError(t, err)

	// Alice pays bob 200 off-ledger; bob countersigns and submits.
	update, err := alice.ProposeUpdate(ctx, id, big.NewInt(300), big.NewInt(700))
	require.NoError(t, err)
	require.Equal(t, uint64(1), update.Nonce)
	require.NoError(t, bob.Countersign(ctx, update))
	require.NoError(t, bob.SubmitUpdate(ctx, update))

	require.NoError(t, bob.CloseChannel(ctx, id, nil))
	require.Zero(t, bank.Balance(bob.Address()).Cmp(big.NewInt(700)))
	require.Zero(t, bank.Balance(alice.Address()).Cmp(big.NewInt(10_000-1000-100+300)))
}

// TestDisputeLifecycle exercises the contested path through the client API:
// dispute, failed resolution attempt by an outsider, resolution with the
// latest state.
func TestDisputeLifecycle(t *testing.T) {
	ctx := context.Background()
	rng := pkgtest.Prng(t)

	w := wallet.NewEphemeralWallet()
	admin, err := w.AddNewAccount(rng)
	require.NoError(t, err)
	aliceAcc, err := w.AddNewAccount(rng)
	require.NoError(t, err)
	bobAcc, err := w.AddNewAccount(rng)
	require.NoError(t, err)

	cfg := &config.Config{
		StoreType:     "inmemory",
		Admin:         admin.Address(),
		ChannelFee:    big.NewInt(0),
		RelayerFee:    big.NewInt(0),
		MinTimeout:    time.Hour,
		MaxTimeout:    720 * time.Hour,
		DisputeWindow: 24 * time.Hour,
	}

	bank := funds.NewBank()
	require.NoError(t, bank.Mint(aliceAcc.Address(), big.NewInt(1_000)))

	engine := channel.NewEngine(cfg, store.NewInMemoryStore(), bank)
	alice := client.New(engine, aliceAcc)
	bob := client.New(engine, bobAcc)

	id, err := alice.OpenChannel(ctx, bob.Address(), big.NewInt(400), big.NewInt(600), 2*time.Hour)
	require.NoError(t, err)

	update, err := alice.ProposeUpdate(ctx, id, big.NewInt(100), big.NewInt(900))
	require.NoError(t, err)
	require.NoError(t, bob.Countersign(ctx, update))

	// Bob goes silent instead of submitting; alice disputes.
	require.NoError(t, alice.Dispute(ctx, id))
	err = bob.SubmitUpdate(ctx, update)
	require.ErrorIs(t, err, types.ErrChannelInDispute)

	// Bob reappears and resolves with the jointly-signed state.
	require.NoError(t, bob.ResolveDispute(ctx, id, update))
	ch, err := engine.GetChannel(ctx, id)
	require.NoError(t, err)
	require.True(t, ch.Active)
	require.Equal(t, uint64(1), ch.Nonce)
	require.Zero(t, ch.Balance2.Cmp(big.NewInt(900)))
}

func TestSignUpdateRejectsOutsider(t *testing.T) {
	rng := pkgtest.Prng(t)
	p1, err := wallet.NewRandomAccount(rng)
	require.NoError(t, err)
	p2, err := wallet.NewRandomAccount(rng)
	require.NoError(t, err)
	outsider, err := wallet.NewRandomAccount(rng)
	require.NoError(t, err)

	ch := &types.Channel{
		ID:           types.ChannelID{0x01},
		Participant1: p1.Address(),
		Participant2: p2.Address(),
		Balance1:     big.NewInt(1),
		Balance2:     big.NewInt(1),
	}
	update := &types.StateUpdate{
		ChannelID: ch.ID, Nonce: 1,
		Balance1: big.NewInt(1), Balance2: big.NewInt(1),
	}
	err = client.SignUpdate(update, ch, outsider)
	require.ErrorIs(t, err, client.ErrNotChannelParticipant)
}
