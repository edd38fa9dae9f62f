package wallet

import (
	"crypto/ecdsa"
	"errors"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	pwallet "perun.network/go-perun/wallet"
)

// Account is used for signing channel state. It holds a secp256k1 private
// key; its address is the Ethereum-style address of the public key, which is
// what signature recovery yields during verification.
type Account struct {
	privateKey *ecdsa.PrivateKey
	// Addr is the address of the participant this account belongs to.
	Addr common.Address
}

// NewRandomAccount creates a new account with a random private key drawn from
// rng.
func NewRandomAccount(rng *rand.Rand) (*Account, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rng)
	if err != nil {
		return nil, err
	}
	return NewAccount(key), nil
}

// NewAccount wraps the given private key into an account.
func NewAccount(key *ecdsa.PrivateKey) *Account {
	return &Account{
		privateKey: key,
		Addr:       crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Address returns the address of the account.
func (a *Account) Address() common.Address {
	return a.Addr
}

// SignDigest signs the given 32-byte digest with the account's private key.
// The returned signature is 65 bytes [R || S || V] and recoverable.
func (a *Account) SignDigest(digest common.Hash) (pwallet.Sig, error) {
	if a.privateKey == nil {
		return nil, errors.New("account has no private key")
	}
	return crypto.Sign(digest[:], a.privateKey)
}
