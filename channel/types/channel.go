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

package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ChannelIDLength is the length of a channel identifier in bytes.
const ChannelIDLength = 32

// ChannelID uniquely identifies a channel. It is derived from the two
// participants and the opening time, see wire.DeriveChannelID.
type ChannelID = common.Hash

// Channel is the authoritative record of a two-party payment channel.
// The sum Balance1+Balance2 only changes at open (deposit) and at
// close/withdraw (payout); every accepted update preserves it.
type Channel struct {
	ID           ChannelID
	Participant1 common.Address
	Participant2 common.Address
	Balance1     *big.Int
	Balance2     *big.Int
	// Nonce is the version of the latest accepted state. It starts at 0
	// and strictly increases with every accepted update.
	Nonce uint64
	// Timeout is the challenge duration agreed at open time, recorded for
	// auditing. Dispute deadlines are computed from the engine-wide dispute
	// window, not from this value.
	Timeout  time.Duration
	Active   bool
	OpenedAt time.Time
}

// Total returns Balance1 + Balance2.
func (c *Channel) Total() *big.Int {
	return new(big.Int).Add(c.Balance1, c.Balance2)
}

// HasParticipant reports whether addr is one of the two channel participants.
func (c *Channel) HasParticipant(addr common.Address) bool {
	return addr == c.Participant1 || addr == c.Participant2
}

// Clone returns a deep copy of the channel record.
func (c *Channel) Clone() *Channel {
	clone := *c
	clone.Balance1 = new(big.Int).Set(c.Balance1)
	clone.Balance2 = new(big.Int).Set(c.Balance2)
	return &clone
}

// DisputeRecord tracks a contested channel. It is created by DisputeChannel,
// cleared by ResolveDispute and consumed by WithdrawTimelock once Deadline
// has passed.
type DisputeRecord struct {
	ChannelID ChannelID
	RaisedBy  common.Address
	Deadline  time.Time
}
