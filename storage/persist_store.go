package storage

import (
	"bytes"
	"fmt"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// PersistenceStore wraps LevelDB for raw key-value persistence.
// Thread-safe: LevelDB handles its own synchronization.
type PersistenceStore struct {
	db *leveldb.DB
}

// NewPersistenceStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewPersistenceStore(path string) (*PersistenceStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	return &PersistenceStore{db: db}, nil
}

// NewMemoryPersistenceStore creates an in-memory PersistenceStore for testing.
func NewMemoryPersistenceStore() (*PersistenceStore, error) {
	return NewPersistenceStore("")
}

// Get retrieves a value by key. Returns (nil, false, nil) if not found.
func (ps *PersistenceStore) Get(key []byte) ([]byte, bool, error) {
	data, err := ps.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get %x: %w", key, err)
	}
	return data, true, nil
}

func (ps *PersistenceStore) Put(key []byte, value []byte) error {
	return ps.db.Put(key, value, nil)
}

func (ps *PersistenceStore) Delete(key []byte) error {
	return ps.db.Delete(key, nil)
}

// GetWithPrefix returns all key-value pairs with the given prefix, sorted by key.
func (ps *PersistenceStore) GetWithPrefix(prefix []byte) ([][2][]byte, error) {
	return collect(ps.db.NewIterator(util.BytesPrefix(prefix), nil), prefix)
}

// GetHash returns error if not found (unlike Get which returns found=false).
func (ps *PersistenceStore) GetHash(key common.Hash) ([]byte, error) {
	return ps.db.Get(key.Bytes(), nil)
}

func (ps *PersistenceStore) PutHash(key common.Hash, value []byte) error {
	return ps.db.Put(key.Bytes(), value, nil)
}

// Batch is a set of writes applied atomically by Write.
type Batch struct {
	b leveldb.Batch
}

func (b *Batch) Put(key, value []byte) {
	b.b.Put(key, value)
}

func (b *Batch) Delete(key []byte) {
	b.b.Delete(key)
}

func (b *Batch) Len() int {
	return b.b.Len()
}

// NewBatch returns an empty batch for this store.
func (ps *PersistenceStore) NewBatch() *Batch {
	return &Batch{}
}

// Write applies all writes of b in one atomic, synced leveldb write.
func (ps *PersistenceStore) Write(b *Batch) error {
	if b.Len() == 0 {
		return nil
	}
	if err := ps.db.Write(&b.b, nil); err != nil {
		return fmt.Errorf("Write batch of %d: %w", b.Len(), err)
	}
	return nil
}

// Snapshot is a frozen, read-only view of the store at the time it was taken.
type Snapshot struct {
	snap *leveldb.Snapshot
}

// Snapshot captures the current state. Writes made afterwards are not visible.
// The caller must Release it.
func (ps *PersistenceStore) Snapshot() (*Snapshot, error) {
	snap, err := ps.db.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("GetSnapshot: %w", err)
	}
	return &Snapshot{snap: snap}, nil
}

func (s *Snapshot) Get(key []byte) ([]byte, bool, error) {
	data, err := s.snap.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Snapshot Get %x: %w", key, err)
	}
	return data, true, nil
}

func (s *Snapshot) GetWithPrefix(prefix []byte) ([][2][]byte, error) {
	return collect(s.snap.NewIterator(util.BytesPrefix(prefix), nil), prefix)
}

func (s *Snapshot) Release() {
	s.snap.Release()
}

type iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

func collect(iter iterator, prefix []byte) ([][2][]byte, error) {
	defer iter.Release()

	var results [][2][]byte
	for iter.Next() {
		key := iter.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		// Copy key and value to avoid iterator reuse issues
		keyCopy := make([]byte, len(key))
		copy(keyCopy, key)
		valueCopy := make([]byte, len(iter.Value()))
		copy(valueCopy, iter.Value())

		results = append(results, [2][]byte{keyCopy, valueCopy})
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("GetWithPrefix %x: %w", prefix, err)
	}
	return results, nil
}

func (ps *PersistenceStore) Close() error {
	return ps.db.Close()
}

// DB returns the underlying LevelDB instance for advanced operations.
func (ps *PersistenceStore) DB() *leveldb.DB {
	return ps.db
}
