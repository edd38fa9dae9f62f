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

package wallet_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	pkgtest "polycry.pt/poly-go/test"

	"github.com/lendfi/paychan/wallet"
)

// TestEphemeralWallet tests the ephemeral wallet implementation.
func TestEphemeralWallet(t *testing.T) {
	rng := pkgtest.Prng(t)
	w := wallet.NewEphemeralWallet()

	acc, err := w.AddNewAccount(rng)
	require.NoError(t, err)

	unlocked, err := w.Unlock(acc.Address())
	require.NoError(t, err)
	require.Equal(t, acc.Address(), unlocked.Address())

	err = w.AddAccount(acc)
	require.Error(t, err)

	_, err = w.Unlock(common.HexToAddress("0xdead"))
	require.Error(t, err)
}

func TestSignVerifyRecover(t *testing.T) {
	rng := pkgtest.Prng(t)
	acc, err := wallet.NewRandomAccount(rng)
	require.NoError(t, err)

	digest := crypto.Keccak256Hash([]byte("hello world"))
	sig, err := acc.SignDigest(digest)
	require.NoError(t, err)
	require.Len(t, sig, wallet.SignatureLength)

	valid, err := wallet.Backend.VerifySignature(digest, sig, acc.Address())
	require.NoError(t, err)
	require.True(t, valid)

	recovered, err := wallet.Backend.RecoverSigner(digest, sig)
	require.NoError(t, err)
	require.Equal(t, acc.Address(), recovered)
}

func TestVerifyRejectsWrongSigner(t *testing.T) {
	rng := pkgtest.Prng(t)
	acc, err := wallet.NewRandomAccount(rng)
	require.NoError(t, err)
	other, err := wallet.NewRandomAccount(rng)
	require.NoError(t, err)

	digest := crypto.Keccak256Hash([]byte("payload"))
	sig, err := acc.SignDigest(digest)
	require.NoError(t, err)

	valid, err := wallet.Backend.VerifySignature(digest, sig, other.Address())
	require.NoError(t, err)
	require.False(t, valid)

	// A signature over one digest must not verify against another.
	otherDigest := crypto.Keccak256Hash([]byte("other payload"))
	valid, err = wallet.Backend.VerifySignature(otherDigest, sig, acc.Address())
	require.NoError(t, err)
	require.False(t, valid)
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	rng := pkgtest.Prng(t)
	acc, err := wallet.NewRandomAccount(rng)
	require.NoError(t, err)

	digest := crypto.Keccak256Hash([]byte("payload"))
	_, err = wallet.Backend.VerifySignature(digest, make([]byte, 64), acc.Address())
	require.Error(t, err)
}
