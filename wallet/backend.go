package wallet

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	pwallet "perun.network/go-perun/wallet"
)

// SignatureLength is the length of a recoverable signature in bytes.
const SignatureLength = 65

type backend struct{}

// Backend verifies channel state signatures by recovering the signer address
// from the signature and comparing it to the expected one.
var Backend = backend{}

// RecoverSigner recovers the address that produced sig over digest.
func (b backend) RecoverSigner(digest common.Hash, sig pwallet.Sig) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, errors.New("invalid signature size")
	}
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature reports whether sig over digest was produced by signer.
func (b backend) VerifySignature(digest common.Hash, sig pwallet.Sig, signer common.Address) (bool, error) {
	recovered, err := b.RecoverSigner(digest, sig)
	if err != nil {
		return false, err
	}
	return recovered == signer, nil
}
