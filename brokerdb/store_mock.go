package brokerdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
)

// StoreMock implements the Store interface in memory.
type StoreMock struct {
	mtx sync.Mutex

	swaps   map[lntypes.Hash]*SwapContract
	updates map[lntypes.Hash][]SwapUpdate
}

// NewStoreMock instantiates a new mock store.
func NewStoreMock() *StoreMock {
	return &StoreMock{
		swaps:   make(map[lntypes.Hash]*SwapContract),
		updates: make(map[lntypes.Hash][]SwapUpdate),
	}
}

// A compile-time check to ensure that StoreMock implements the Store
// interface.
var _ Store = (*StoreMock)(nil)

// CreateSwap adds an initiated swap attempt to the store.
//
// NOTE: Part of the brokerdb.Store interface.
func (s *StoreMock) CreateSwap(_ context.Context, hash lntypes.Hash,
	contract *SwapContract) error {

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.swaps[hash]; ok {
		return fmt.Errorf("swap %v already exists", hash)
	}

	s.swaps[hash] = contract
	return nil
}

// UpdateSwap appends a new state update to the log of the target swap.
//
// NOTE: Part of the brokerdb.Store interface.
func (s *StoreMock) UpdateSwap(_ context.Context, hash lntypes.Hash,
	updateTime time.Time, state SwapState) error {

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.swaps[hash]; !ok {
		return fmt.Errorf("swap %v does not exist", hash)
	}

	s.updates[hash] = append(s.updates[hash], SwapUpdate{
		Time:  updateTime,
		State: state,
	})
	return nil
}

// FetchSwaps returns all swaps currently in the store.
//
// NOTE: Part of the brokerdb.Store interface.
func (s *StoreMock) FetchSwaps(_ context.Context) ([]*Swap, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	swaps := make([]*Swap, 0, len(s.swaps))
	for hash, contract := range s.swaps {
		updates := make([]SwapUpdate, len(s.updates[hash]))
		copy(updates, s.updates[hash])

		swaps = append(swaps, &Swap{
			Hash:     hash,
			Contract: contract,
			Updates:  updates,
		})
	}

	return swaps, nil
}

// Close closes the database.
//
// NOTE: Part of the brokerdb.Store interface.
func (s *StoreMock) Close() error {
	return nil
}

// SwapState returns the current state of the given swap, for test
// assertions.
func (s *StoreMock) SwapState(hash lntypes.Hash) (SwapState, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.swaps[hash]; !ok {
		return 0, fmt.Errorf("swap %v does not exist", hash)
	}

	updates := s.updates[hash]
	if len(updates) == 0 {
		return StateProposed, nil
	}
	return updates[len(updates)-1].State, nil
}
