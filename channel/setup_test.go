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
	"context"
	"math/big"
	"sync"
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

const (
	testChannelFee   = 100
	testRelayerFee   = 10
	testTimeout      = 2 * time.Hour
	testDisputeWin   = 24 * time.Hour
	testInitialMint  = 1_000_000
	testMinTimeout   = time.Hour
	testMaxTimeoutHr = 720
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Unix(1700000000, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

type setup struct {
	t      *testing.T
	ctx    context.Context
	engine *channel.Engine
	bank   *funds.Bank
	clock  *fakeClock

	admin   *wallet.Account
	alice   *wallet.Account
	bob     *wallet.Account
	relayer *wallet.Account
}

// faultyStore wraps a ChannelStore with an injectable DeleteDispute failure.
type faultyStore struct {
	store.ChannelStore
	deleteDisputeErr error
}

func (s *faultyStore) DeleteDispute(ctx context.Context, id types.ChannelID) error {
	if s.deleteDisputeErr != nil {
		return s.deleteDisputeErr
	}
	return s.ChannelStore.DeleteDispute(ctx, id)
}

func newSetup(t *testing.T) *setup {
	return newSetupStore(t, store.NewInMemoryStore())
}

func newSetupStore(t *testing.T, st store.ChannelStore) *setup {
	rng := pkgtest.Prng(t)
	w := wallet.NewEphemeralWallet()

	accounts := make([]*wallet.Account, 4)
	for i := range accounts {
		acc, err := w.AddNewAccount(rng)
		require.NoError(t, err)
		accounts[i] = acc
	}
	admin, alice, bob, relayer := accounts[0], accounts[1], accounts[2], accounts[3]

	cfg := &config.Config{
		StoreType:     "inmemory",
		Admin:         admin.Address(),
		ChannelFee:    big.NewInt(testChannelFee),
		RelayerFee:    big.NewInt(testRelayerFee),
		MinTimeout:    testMinTimeout,
		MaxTimeout:    testMaxTimeoutHr * time.Hour,
		DisputeWindow: testDisputeWin,
	}

	bank := funds.NewBank()
	require.NoError(t, bank.Mint(alice.Address(), big.NewInt(testInitialMint)))
	require.NoError(t, bank.Mint(bob.Address(), big.NewInt(testInitialMint)))

	clock := newFakeClock()
	engine := channel.NewEngine(cfg, st, bank, channel.WithClock(clock.Now))

	return &setup{
		t:       t,
		ctx:     context.Background(),
		engine:  engine,
		bank:    bank,
		clock:   clock,
		admin:   admin,
		alice:   alice,
		bob:     bob,
		relayer: relayer,
	}
}

// open opens a channel between alice and bob, funded by alice.
func (s *setup) open(balance1, balance2 int64) types.ChannelID {
	id, err := s.engine.OpenChannel(
		s.ctx, s.alice.Address(), s.alice.Address(), s.bob.Address(),
		big.NewInt(balance1), big.NewInt(balance2), testTimeout,
	)
	require.NoError(s.t, err)
	return id
}

// signedUpdate builds an update at the given nonce and balances, dual-signed
// by alice and bob.
func (s *setup) signedUpdate(id types.ChannelID, nonce uint64, balance1, balance2 int64) *types.StateUpdate {
	ch, err := s.engine.GetChannel(s.ctx, id)
	require.NoError(s.t, err)

	update := &types.StateUpdate{
		ChannelID: id,
		Nonce:     nonce,
		Balance1:  big.NewInt(balance1),
		Balance2:  big.NewInt(balance2),
	}
	require.NoError(s.t, client.SignUpdate(update, ch, s.alice))
	require.NoError(s.t, client.SignUpdate(update, ch, s.bob))
	return update
}

// balance is a shorthand for the bank balance of the given account.
func (s *setup) balance(acc *wallet.Account) *big.Int {
	return s.bank.Balance(acc.Address())
}
