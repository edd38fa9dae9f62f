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

// Package funds tracks custody of channel deposits, participant balances and
// the accumulated fee treasury. The engine escrows deposits at open time and
// pays out of custody at close/withdraw time, always after its own state has
// been finalized.
package funds

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientBalance is returned when an account or the custody
	// pool cannot cover a requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAmount is returned for nil or negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrReentrantTransfer is returned when a payout hook calls back into
	// the bank while a transfer is still in flight.
	ErrReentrantTransfer = errors.New("reentrant transfer")
)

// PayoutHook observes outbound transfers. It runs after the bank's own books
// are settled; calling back into Payout or SweepTreasury from the hook fails
// with ErrReentrantTransfer.
type PayoutHook func(to common.Address, amount *big.Int)

// Bank is an in-process funds ledger. Accounts hold withdrawable balances,
// custody holds funds locked in open channels, and treasury holds accrued
// protocol fees.
type Bank struct {
	mu         sync.Mutex
	accounts   map[common.Address]*big.Int
	custody    *big.Int
	treasury   *big.Int
	inTransfer bool
	onPayout   PayoutHook
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{
		accounts: make(map[common.Address]*big.Int),
		custody:  new(big.Int),
		treasury: new(big.Int),
	}
}

// SetPayoutHook installs the payout observer. A nil hook removes it.
func (b *Bank) SetPayoutHook(hook PayoutHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPayout = hook
}

// Mint credits the given account, simulating an incoming deposit from the
// outside world.
func (b *Bank) Mint(addr common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(addr, amount)
	return nil
}

// Balance returns the withdrawable balance of the given account.
func (b *Bank) Balance(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.accounts[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Custody returns the total funds locked in open channels.
func (b *Bank) Custody() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.custody)
}

// Treasury returns the accrued fee balance.
func (b *Bank) Treasury() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.treasury)
}

// Escrow moves deposit+fee out of the payer's account: deposit into custody,
// fee into the treasury. It is all-or-nothing.
func (b *Bank) Escrow(from common.Address, deposit, fee *big.Int) error {
	if err := checkAmount(deposit); err != nil {
		return err
	}
	if err := checkAmount(fee); err != nil {
		return err
	}
	total := new(big.Int).Add(deposit, fee)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.debit(from, total); err != nil {
		return err
	}
	b.custody.Add(b.custody, deposit)
	b.treasury.Add(b.treasury, fee)
	return nil
}

// RefundEscrow reverses a previous Escrow: deposit leaves custody and fee
// leaves the treasury, both back into the payer's account. Used to roll back
// an open whose ledger write failed.
func (b *Bank) RefundEscrow(to common.Address, deposit, fee *big.Int) error {
	if err := checkAmount(deposit); err != nil {
		return err
	}
	if err := checkAmount(fee); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.custody.Cmp(deposit) < 0 || b.treasury.Cmp(fee) < 0 {
		return ErrInsufficientBalance
	}
	b.custody.Sub(b.custody, deposit)
	b.treasury.Sub(b.treasury, fee)
	b.credit(to, new(big.Int).Add(deposit, fee))
	return nil
}

// Payout transfers amount from custody to the given account.
func (b *Bank) Payout(to common.Address, amount *big.Int) error {
	return b.transfer(b.custody, to, amount)
}

// PayFromTreasury transfers amount from the treasury to the given account.
func (b *Bank) PayFromTreasury(to common.Address, amount *big.Int) error {
	return b.transfer(b.treasury, to, amount)
}

// SweepTreasury transfers the whole treasury balance to the given account and
// returns the swept amount.
func (b *Bank) SweepTreasury(to common.Address) (*big.Int, error) {
	b.mu.Lock()
	amount := new(big.Int).Set(b.treasury)
	b.mu.Unlock()
	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := b.transfer(b.treasury, to, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// transfer debits the given pool and credits the target account. The payout
// hook, if any, runs outside the lock but inside the reentrancy guard.
func (b *Bank) transfer(pool *big.Int, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	b.mu.Lock()
	if b.inTransfer {
		b.mu.Unlock()
		return ErrReentrantTransfer
	}
	if pool.Cmp(amount) < 0 {
		b.mu.Unlock()
		return ErrInsufficientBalance
	}
	pool.Sub(pool, amount)
	b.credit(to, amount)
	hook := b.onPayout
	b.inTransfer = true
	b.mu.Unlock()

	// Release the guard even when the hook panics.
	defer func() {
		b.mu.Lock()
		b.inTransfer = false
		b.mu.Unlock()
	}()
	if hook != nil {
		hook(to, new(big.Int).Set(amount))
	}
	return nil
}

func (b *Bank) credit(addr common.Address, amount *big.Int) {
	if bal, ok := b.accounts[addr]; ok {
		bal.Add(bal, amount)
		return
	}
	b.accounts[addr] = new(big.Int).Set(amount)
}

func (b *Bank) debit(addr common.Address, amount *big.Int) error {
	bal, ok := b.accounts[addr]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	return nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}
