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

package wallet

import (
	"errors"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"polycry.pt/poly-go/sync"
)

// EphemeralWallet is a wallet that stores accounts in memory.
type EphemeralWallet struct {
	lock     sync.Mutex
	accounts map[common.Address]*Account
}

// NewEphemeralWallet creates a new EphemeralWallet instance.
func NewEphemeralWallet() *EphemeralWallet {
	return &EphemeralWallet{
		accounts: make(map[common.Address]*Account),
	}
}

// Unlock returns the account associated with the given address.
func (e *EphemeralWallet) Unlock(addr common.Address) (*Account, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	account, ok := e.accounts[addr]
	if !ok {
		return nil, errors.New("account not found")
	}
	return account, nil
}

// AddNewAccount generates a new account and adds it to the wallet.
func (e *EphemeralWallet) AddNewAccount(rng *rand.Rand) (*Account, error) {
	acc, err := NewRandomAccount(rng)
	if err != nil {
		return nil, err
	}
	return acc, e.AddAccount(acc)
}

// AddAccount adds the given account to the wallet.
func (e *EphemeralWallet) AddAccount(acc *Account) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, ok := e.accounts[acc.Address()]; ok {
		return errors.New("account already exists")
	}
	e.accounts[acc.Address()] = acc
	return nil
}
