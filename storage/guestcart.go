// Package storage persists the guest cart to a local bbolt database so
// an unauthenticated cart survives process restarts.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Ziroworld/ailav-client/models"
)

var (
	bucketCart = []byte("guest_cart")
	keyCart    = []byte("cart")
)

// GuestCartStore is a single-entry durable store for the guest cart.
// All operations are synchronous; the underlying file is owned
// exclusively by the cart store while the session is unauthenticated.
type GuestCartStore struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the guest cart database at path.
func Open(path string) (*GuestCartStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating guest cart dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening guest cart db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCart)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating guest cart bucket: %w", err)
	}

	return &GuestCartStore{db: db}, nil
}

// Load returns the stored guest cart, or nil when no cart is stored.
func (s *GuestCartStore) Load() (*models.Cart, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketCart).Get(keyCart); v != nil {
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading guest cart: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var cart models.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decoding guest cart: %w", err)
	}
	return &cart, nil
}

// Save replaces the stored guest cart with cart.
func (s *GuestCartStore) Save(cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encoding guest cart: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCart).Put(keyCart, data)
	})
	if err != nil {
		return fmt.Errorf("writing guest cart: %w", err)
	}
	return nil
}

// Delete removes the stored guest cart entry. Deleting an absent entry
// is not an error.
func (s *GuestCartStore) Delete() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCart).Delete(keyCart)
	})
	if err != nil {
		return fmt.Errorf("deleting guest cart: %w", err)
	}
	return nil
}

// Close releases the underlying database file.
func (s *GuestCartStore) Close() error {
	return s.db.Close()
}
