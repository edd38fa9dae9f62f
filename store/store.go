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

// Package store holds the channel ledger: the keyed records the engine
// mutates. All engine state (channels, dispute records, relayer
// authorizations) is read and written exclusively through ChannelStore.
package store

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lendfi/paychan/channel/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ChannelStore is the authoritative keyed store of engine state.
type ChannelStore interface {
	// GetChannel returns the channel with the given id, or ErrNotFound.
	GetChannel(ctx context.Context, id types.ChannelID) (*types.Channel, error)
	// PutChannel inserts or replaces the channel record.
	PutChannel(ctx context.Context, ch *types.Channel) error

	// GetDispute returns the dispute record for the channel, or ErrNotFound.
	GetDispute(ctx context.Context, id types.ChannelID) (*types.DisputeRecord, error)
	// PutDispute inserts or replaces the dispute record.
	PutDispute(ctx context.Context, rec *types.DisputeRecord) error
	// DeleteDispute removes the dispute record. Deleting a non-existent
	// record is not an error.
	DeleteDispute(ctx context.Context, id types.ChannelID) error

	// SetRelayer toggles the authorization flag of the given relayer.
	SetRelayer(ctx context.Context, relayer common.Address, authorized bool) error
	// IsRelayer reports whether the given relayer is authorized.
	IsRelayer(ctx context.Context, relayer common.Address) (bool, error)

	// Close releases underlying resources.
	Close() error
}
