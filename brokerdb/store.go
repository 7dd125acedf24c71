package brokerdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"go.etcd.io/bbolt"
)

var (
	// dbFileName is the default file name of the broker database.
	dbFileName = "broker.db"

	// swapsBucketKey is a bucket that contains all swap attempts that
	// are currently pending or completed. This bucket is keyed by the
	// token hash, and leads to a nested sub-bucket that houses
	// information for that swap.
	//
	// maps: tokenHash -> swapBucket
	swapsBucketKey = []byte("swaps")

	// contractKey is the key that stores the serialized swap contract.
	// It is nested within the sub-bucket for each swap.
	//
	// path: swapsBucket -> swapBucket[hash] -> contractKey
	contractKey = []byte("contract")

	// updatesBucketKey is a bucket that contains all state updates
	// pertaining to a swap. This is a sub-bucket of the swap bucket for
	// a particular swap. This list only ever grows.
	//
	// path: swapsBucket -> swapBucket[hash] -> updatesBucket
	//
	// maps: updateNumber -> time || state
	updatesBucketKey = []byte("updates")

	byteOrder = binary.BigEndian
)

// fileExists returns true if the file exists, and false otherwise.
func fileExists(path string) bool {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}

	return true
}

// boltStore stores swap data in boltdb.
type boltStore struct {
	db *bbolt.DB
}

// A compile-time check to ensure that boltStore implements the Store
// interface.
var _ Store = (*boltStore)(nil)

// NewBoltStore creates a new bbolt-backed broker store in the given
// directory.
func NewBoltStore(dbPath string) (Store, error) {
	// If the target path for the store doesn't exist, then we'll create
	// it now before we proceed.
	if !fileExists(dbPath) {
		if err := os.MkdirAll(dbPath, 0700); err != nil {
			return nil, err
		}
	}

	path := filepath.Join(dbPath, dbFileName)
	bdb, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	// Create the top level bucket if this is the first time we're
	// starting up. If it already exists, this call is a noop.
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(swapsBucketKey)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Infof("Opened broker database %v", path)

	return &boltStore{db: bdb}, nil
}

// CreateSwap adds an initiated swap attempt to the store.
//
// NOTE: Part of the brokerdb.Store interface.
func (s *boltStore) CreateSwap(_ context.Context, hash lntypes.Hash,
	contract *SwapContract) error {

	return s.db.Update(func(tx *bbolt.Tx) error {
		rootBucket := tx.Bucket(swapsBucketKey)
		if rootBucket == nil {
			return errors.New("bucket does not exist")
		}

		if rootBucket.Bucket(hash[:]) != nil {
			return fmt.Errorf("swap %v already exists", hash)
		}

		swapBucket, err := rootBucket.CreateBucket(hash[:])
		if err != nil {
			return err
		}

		value, err := serializeContract(contract)
		if err != nil {
			return err
		}
		if err := swapBucket.Put(contractKey, value); err != nil {
			return err
		}

		_, err = swapBucket.CreateBucket(updatesBucketKey)
		return err
	})
}

// UpdateSwap appends a new state update to the log of the target swap.
//
// NOTE: Part of the brokerdb.Store interface.
func (s *boltStore) UpdateSwap(_ context.Context, hash lntypes.Hash,
	updateTime time.Time, state SwapState) error {

	return s.db.Update(func(tx *bbolt.Tx) error {
		rootBucket := tx.Bucket(swapsBucketKey)
		if rootBucket == nil {
			return errors.New("bucket does not exist")
		}

		swapBucket := rootBucket.Bucket(hash[:])
		if swapBucket == nil {
			return fmt.Errorf("swap %v does not exist", hash)
		}

		updatesBucket := swapBucket.Bucket(updatesBucketKey)
		if updatesBucket == nil {
			return errors.New("updates bucket does not exist")
		}

		id, err := updatesBucket.NextSequence()
		if err != nil {
			return err
		}

		value, err := serializeUpdate(updateTime, state)
		if err != nil {
			return err
		}

		return updatesBucket.Put(itob(id), value)
	})
}

// FetchSwaps returns all swaps currently in the store.
//
// NOTE: Part of the brokerdb.Store interface.
func (s *boltStore) FetchSwaps(_ context.Context) ([]*Swap, error) {
	var swaps []*Swap

	err := s.db.View(func(tx *bbolt.Tx) error {
		rootBucket := tx.Bucket(swapsBucketKey)
		if rootBucket == nil {
			return errors.New("bucket does not exist")
		}

		// Traverse the root bucket for all swap attempts. The primary
		// key is the token hash itself.
		return rootBucket.ForEach(func(swapHash, v []byte) error {
			// Only go into things that we know are sub-bucket
			// keys.
			if v != nil {
				return nil
			}

			swapBucket := rootBucket.Bucket(swapHash)
			if swapBucket == nil {
				return fmt.Errorf("swap bucket %x not found",
					swapHash)
			}

			contractBytes := swapBucket.Get(contractKey)
			if contractBytes == nil {
				return errors.New("contract not found")
			}

			contract, err := deserializeContract(contractBytes)
			if err != nil {
				return err
			}

			swap := Swap{
				Contract: contract,
			}
			copy(swap.Hash[:], swapHash)

			updatesBucket := swapBucket.Bucket(updatesBucketKey)
			if updatesBucket == nil {
				return errors.New("updates bucket not found")
			}

			err = updatesBucket.ForEach(func(_, v []byte) error {
				update, err := deserializeUpdate(v)
				if err != nil {
					return err
				}
				swap.Updates = append(swap.Updates, update)
				return nil
			})
			if err != nil {
				return err
			}

			swaps = append(swaps, &swap)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return swaps, nil
}

// Close closes the underlying database.
//
// NOTE: Part of the brokerdb.Store interface.
func (s *boltStore) Close() error {
	return s.db.Close()
}
