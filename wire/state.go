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

// Package wire defines the canonical signing payloads of the channel
// protocol. Every digest is domain-separated per channel: it includes the
// 32-byte channel id, so a signature over one channel's state can never be
// replayed against another channel or another nonce.
package wire

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/lendfi/paychan/channel/types"
)

// balanceLength is the packed width of a single balance, matching a uint256.
const balanceLength = 32

// relayDomain prefixes relay authorization payloads so a relay signature can
// never double as a state signature.
const relayDomain = "relay"

// ErrBalanceOutOfRange is returned when a balance is negative or does not fit
// the packed 32-byte encoding.
var ErrBalanceOutOfRange = errors.New("balance out of range")

// EncodeState packs a channel state tuple into its canonical byte
// representation: channelID || nonce (8 bytes BE) || balance1 || balance2,
// with balances as 32-byte big-endian values.
func EncodeState(id types.ChannelID, nonce uint64, bal1, bal2 *big.Int) ([]byte, error) {
	buf := make([]byte, 0, types.ChannelIDLength+8+2*balanceLength)
	buf = append(buf, id[:]...)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	for _, bal := range []*big.Int{bal1, bal2} {
		packed, err := packBalance(bal)
		if err != nil {
			return nil, err
		}
		buf = append(buf, packed...)
	}
	return buf, nil
}

// StateDigest returns the canonical digest both participants must sign for
// the given state tuple.
func StateDigest(id types.ChannelID, nonce uint64, bal1, bal2 *big.Int) (common.Hash, error) {
	enc, err := EncodeState(id, nonce, bal1, bal2)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

// RelayDigest returns the digest a relayer signs to authorize submitting the
// update with the given channel id and nonce on the participants' behalf.
func RelayDigest(id types.ChannelID, nonce uint64, relayer common.Address) common.Hash {
	buf := make([]byte, 0, len(relayDomain)+types.ChannelIDLength+8+common.AddressLength)
	buf = append(buf, relayDomain...)
	buf = append(buf, id[:]...)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	buf = append(buf, relayer[:]...)
	return crypto.Keccak256Hash(buf)
}

// DeriveChannelID derives a channel id from the two participants, the opening
// time and a per-engine sequence number. The sequence number keeps ids unique
// even when the same pair opens two channels within one clock tick.
func DeriveChannelID(p1, p2 common.Address, openedAtUnixNano int64, seq uint64) types.ChannelID {
	buf := make([]byte, 0, 2*common.AddressLength+16)
	buf = append(buf, p1[:]...)
	buf = append(buf, p2[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(openedAtUnixNano))
	buf = binary.BigEndian.AppendUint64(buf, seq)
	return crypto.Keccak256Hash(buf)
}

func packBalance(bal *big.Int) ([]byte, error) {
	if bal == nil || bal.Sign() < 0 || bal.BitLen() > balanceLength*8 {
		return nil, ErrBalanceOutOfRange
	}
	return bal.FillBytes(make([]byte, balanceLength)), nil
}
