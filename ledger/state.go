// Package ledger is the typed state of one shard: account balances, community
// currencies and ceremony registries, stored SCALE-encoded under runtime
// storage keys.
package ledger

import (
	"fmt"

	"github.com/colorfulnotion/sidechain/codec"
)

// Backend is raw key-value read access.
type Backend interface {
	Get(key []byte) ([]byte, bool, error)
}

// WriteBackend is a Backend that also accepts writes.
type WriteBackend interface {
	Backend
	Put(key, value []byte) error
	Delete(key []byte) error
}

// State implements Reader over any Backend, and Writer when the backend is
// writable.
type State struct {
	r Backend
	w WriteBackend
}

// NewState wraps b. Writes fail with ErrReadOnly unless b is a WriteBackend.
func NewState(b Backend) *State {
	s := &State{r: b}
	if w, ok := b.(WriteBackend); ok {
		s.w = w
	}
	return s
}

func get[T any](s *State, key []byte) (T, bool, error) {
	var v T
	raw, ok, err := s.r.Get(key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := codec.UnmarshalExact(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %x: %w", key, err)
	}
	return v, true, nil
}

// getOrDefault reads key, returning the zero value when absent.
func getOrDefault[T any](s *State, key []byte) (T, error) {
	v, _, err := get[T](s, key)
	return v, err
}

func has(s *State, key []byte) (bool, error) {
	_, ok, err := s.r.Get(key)
	return ok, err
}

func (s *State) put(key []byte, v interface{}) error {
	if s.w == nil {
		return ErrReadOnly
	}
	raw, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %x: %w", key, err)
	}
	return s.w.Put(key, raw)
}

func (s *State) del(key []byte) error {
	if s.w == nil {
		return ErrReadOnly
	}
	return s.w.Delete(key)
}

// Raw returns the stored bytes at key.
func (s *State) Raw(key []byte) ([]byte, bool, error) {
	return s.r.Get(key)
}
