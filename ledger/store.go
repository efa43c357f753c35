package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/storage"
	"github.com/colorfulnotion/sidechain/trie"
)

// statePrefix separates ledger entries from trie nodes in the shared database.
const statePrefix = 's'

var ErrTxClosed = errors.New("transaction already committed or discarded")

func stateKey(key []byte) []byte {
	out := make([]byte, 0, 1+len(key))
	out = append(out, statePrefix)
	return append(out, key...)
}

// Store is the leveldb-backed ledger of one shard.
type Store struct {
	ps *storage.PersistenceStore
}

func NewStore(ps *storage.PersistenceStore) *Store {
	return &Store{ps: ps}
}

// OpenStore opens the ledger under dataDir, or in memory when dataDir is empty.
func OpenStore(dataDir string) (*Store, error) {
	ps, err := storage.NewPersistenceStore(dataDir)
	if err != nil {
		return nil, err
	}
	return NewStore(ps), nil
}

func (s *Store) Close() error {
	return s.ps.Close()
}

type liveBackend struct {
	ps *storage.PersistenceStore
}

func (b liveBackend) Get(key []byte) ([]byte, bool, error) {
	return b.ps.Get(stateKey(key))
}

type snapshotBackend struct {
	snap *storage.Snapshot
}

func (b snapshotBackend) Get(key []byte) ([]byte, bool, error) {
	return b.snap.Get(stateKey(key))
}

// View is a read-only, point-in-time ledger. Release it when done.
type View struct {
	*State
	snap *storage.Snapshot
}

func (s *Store) View() (*View, error) {
	snap, err := s.ps.Snapshot()
	if err != nil {
		return nil, err
	}
	return &View{State: NewState(snapshotBackend{snap}), snap: snap}, nil
}

func (v *View) Release() {
	v.snap.Release()
}

// Pairs returns every ledger entry in key order.
func (v *View) Pairs() ([][2][]byte, error) {
	kvs, err := v.snap.GetWithPrefix([]byte{statePrefix})
	if err != nil {
		return nil, err
	}
	for i := range kvs {
		kvs[i][0] = kvs[i][0][1:]
	}
	return kvs, nil
}

// Trie builds the state trie over the view.
func (v *View) Trie() (*trie.Trie, error) {
	kvs, err := v.Pairs()
	if err != nil {
		return nil, err
	}
	return trie.FromPairs(kvs), nil
}

// StateRoot is the trie root over the current ledger.
func (s *Store) StateRoot() (common.Hash, error) {
	v, err := s.View()
	if err != nil {
		return common.Hash{}, err
	}
	defer v.Release()
	t, err := v.Trie()
	if err != nil {
		return common.Hash{}, err
	}
	return t.Root(), nil
}

// CommitTrie persists the current state trie so proofs can be served with
// trie.ProveFromStore.
func (s *Store) CommitTrie() (common.Hash, error) {
	v, err := s.View()
	if err != nil {
		return common.Hash{}, err
	}
	defer v.Release()
	t, err := v.Trie()
	if err != nil {
		return common.Hash{}, err
	}
	return t.Commit(s.ps)
}

// Prove returns the proof for key under a root previously written by CommitTrie.
func (s *Store) Prove(root common.Hash, key []byte) ([][]byte, error) {
	return trie.ProveFromStore(s.ps, root, key)
}

type txEntry struct {
	value   []byte
	deleted bool
}

// Tx buffers writes over the live ledger until Commit or Discard.
type Tx struct {
	*State
	store   *Store
	overlay map[string]txEntry
	closed  bool
}

func (s *Store) Begin() *Tx {
	tx := &Tx{store: s, overlay: make(map[string]txEntry)}
	tx.State = NewState(tx)
	return tx
}

func (tx *Tx) Get(key []byte) ([]byte, bool, error) {
	if e, ok := tx.overlay[string(key)]; ok {
		if e.deleted {
			return nil, false, nil
		}
		return e.value, true, nil
	}
	return liveBackend{tx.store.ps}.Get(key)
}

func (tx *Tx) Put(key, value []byte) error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.overlay[string(key)] = txEntry{value: append([]byte{}, value...)}
	return nil
}

func (tx *Tx) Delete(key []byte) error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.overlay[string(key)] = txEntry{deleted: true}
	return nil
}

// Keys returns the keys written by tx in sorted order.
func (tx *Tx) Keys() [][]byte {
	keys := make([][]byte, 0, len(tx.overlay))
	for k := range tx.overlay {
		keys = append(keys, []byte(k))
	}
	sort.Slice(keys, func(i, j int) bool { return string(keys[i]) < string(keys[j]) })
	return keys
}

// Commit writes every buffered change in one atomic batch.
func (tx *Tx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.closed = true
	batch := tx.store.ps.NewBatch()
	for k, e := range tx.overlay {
		if e.deleted {
			batch.Delete(stateKey([]byte(k)))
		} else {
			batch.Put(stateKey([]byte(k)), e.value)
		}
	}
	if err := tx.store.ps.Write(batch); err != nil {
		return fmt.Errorf("ledger commit: %w", err)
	}
	log.Trace(log.LedgerMonitoring, "Tx committed", "writes", len(tx.overlay))
	return nil
}

// Discard drops every buffered change.
func (tx *Tx) Discard() {
	if !tx.closed {
		log.Trace(log.LedgerMonitoring, "Tx discarded", "writes", len(tx.overlay))
	}
	tx.closed = true
	tx.overlay = nil
}

// Update runs fn in a transaction, committing only if fn succeeds.
func (s *Store) Update(fn func(*State) error) error {
	tx := s.Begin()
	if err := fn(tx.State); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}
