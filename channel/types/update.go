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

	pwallet "perun.network/go-perun/wallet"
)

// StateUpdate is a jointly-signed channel state proposal. It is never stored;
// once validated it collapses into the channel record. Both signatures cover
// the identical canonical digest, which lets either party submit the latest
// mutually-agreed state without the other's live cooperation.
type StateUpdate struct {
	ChannelID ChannelID
	Nonce     uint64
	Balance1  *big.Int
	Balance2  *big.Int
	Sig1      pwallet.Sig
	Sig2      pwallet.Sig
}

// Total returns Balance1 + Balance2.
func (u *StateUpdate) Total() *big.Int {
	return new(big.Int).Add(u.Balance1, u.Balance2)
}
