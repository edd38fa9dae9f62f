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

package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lendfi/paychan/channel/types"
)

const channelStoreDir = "channels"

type badgerStore struct {
	store *badgerhold.Store
}

type disputeRecord struct {
	Dispute types.DisputeRecord
}

type relayerRecord struct {
	Authorized bool
}

// NewBadgerStore returns a ChannelStore persisted with badger under
// baseDir. An empty baseDir opens an in-memory badger instance, which is
// useful in tests.
func NewBadgerStore(baseDir string, logger badger.Logger) (ChannelStore, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, channelStoreDir)
	}
	db, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel store: %w", err)
	}
	return &badgerStore{store: db}, nil
}

func (s *badgerStore) GetChannel(_ context.Context, id types.ChannelID) (*types.Channel, error) {
	var ch types.Channel
	if err := s.store.Get(channelKey(id), &ch); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (s *badgerStore) PutChannel(_ context.Context, ch *types.Channel) error {
	return s.store.Upsert(channelKey(ch.ID), ch.Clone())
}

func (s *badgerStore) GetDispute(_ context.Context, id types.ChannelID) (*types.DisputeRecord, error) {
	var rec disputeRecord
	if err := s.store.Get(disputeKey(id), &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec.Dispute, nil
}

func (s *badgerStore) PutDispute(_ context.Context, rec *types.DisputeRecord) error {
	return s.store.Upsert(disputeKey(rec.ChannelID), &disputeRecord{Dispute: *rec})
}

func (s *badgerStore) DeleteDispute(_ context.Context, id types.ChannelID) error {
	err := s.store.Delete(disputeKey(id), &disputeRecord{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil
	}
	return err
}

func (s *badgerStore) SetRelayer(_ context.Context, relayer common.Address, authorized bool) error {
	return s.store.Upsert(relayerKey(relayer), &relayerRecord{Authorized: authorized})
}

func (s *badgerStore) IsRelayer(_ context.Context, relayer common.Address) (bool, error) {
	var rec relayerRecord
	if err := s.store.Get(relayerKey(relayer), &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return rec.Authorized, nil
}

func (s *badgerStore) Close() error {
	return s.store.Close()
}

func channelKey(id types.ChannelID) string {
	return "channel/" + id.Hex()
}

func disputeKey(id types.ChannelID) string {
	return "dispute/" + id.Hex()
}

func relayerKey(relayer common.Address) string {
	return "relayer/" + relayer.Hex()
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if len(dbDir) <= 0 {
		opts.InMemory = true
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
