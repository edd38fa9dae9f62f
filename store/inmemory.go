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
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lendfi/paychan/channel/types"
)

type inMemoryStore struct {
	mu       sync.RWMutex
	channels map[types.ChannelID]*types.Channel
	disputes map[types.ChannelID]*types.DisputeRecord
	relayers map[common.Address]bool
}

// NewInMemoryStore returns a ChannelStore backed by process memory. Records
// are copied on read and write so callers never alias stored state.
func NewInMemoryStore() ChannelStore {
	return &inMemoryStore{
		channels: make(map[types.ChannelID]*types.Channel),
		disputes: make(map[types.ChannelID]*types.DisputeRecord),
		relayers: make(map[common.Address]bool),
	}
}

func (s *inMemoryStore) GetChannel(_ context.Context, id types.ChannelID) (*types.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ch.Clone(), nil
}

func (s *inMemoryStore) PutChannel(_ context.Context, ch *types.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch.ID] = ch.Clone()
	return nil
}

func (s *inMemoryStore) GetDispute(_ context.Context, id types.ChannelID) (*types.DisputeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.disputes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *inMemoryStore) PutDispute(_ context.Context, rec *types.DisputeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.disputes[rec.ChannelID] = &cp
	return nil
}

func (s *inMemoryStore) DeleteDispute(_ context.Context, id types.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.disputes, id)
	return nil
}

func (s *inMemoryStore) SetRelayer(_ context.Context, relayer common.Address, authorized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if authorized {
		s.relayers[relayer] = true
	} else {
		delete(s.relayers, relayer)
	}
	return nil
}

func (s *inMemoryStore) IsRelayer(_ context.Context, relayer common.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relayers[relayer], nil
}

func (s *inMemoryStore) Close() error { return nil }
