// Package storageproof checks facts read from the public chain against the
// state root of a trusted header before the enclave acts on them.
package storageproof

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/trie"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoProofSupplied = errors.New("no storage proof supplied")
	ErrWrongValue      = errors.New("proven value differs from claimed value")
	ErrCodec           = errors.New("failed to decode verified value")
)

// Header is the part of a trusted block header the verifier needs.
type Header interface {
	StateRoot() common.Hash
}

// SimpleHeader is a header carrying only its number and state root.
type SimpleHeader struct {
	Number uint64      `json:"number"`
	Root   common.Hash `json:"state_root"`
}

func (h SimpleHeader) StateRoot() common.Hash {
	return h.Root
}

// StorageEntry is an unverified (key, value, proof) fact. A nil Value claims
// the key is absent; a nil Proof means none was supplied.
type StorageEntry struct {
	Key   []byte
	Value []byte
	Proof [][]byte
}

// StorageEntryVerified is an entry whose value has been checked against a header.
type StorageEntryVerified[V any] struct {
	Key   []byte
	Value *V
}

// VerifyStorageProof confirms the value stored at entry.Key under the header's
// state root equals entry.Value byte for byte, including presence.
func VerifyStorageProof(entry StorageEntry, header Header) error {
	if entry.Proof == nil {
		return ErrNoProofSupplied
	}
	actual, found, err := trie.CheckProof(header.StateRoot(), entry.Key, entry.Proof)
	if err != nil {
		return fmt.Errorf("check proof %x: %w", entry.Key, err)
	}
	if found != (entry.Value != nil) || !bytes.Equal(actual, entry.Value) {
		return ErrWrongValue
	}
	return nil
}

// VerifyStorageProofAndDecode verifies entry and decodes its value into V.
func VerifyStorageProofAndDecode[V any](entry StorageEntry, header Header) (StorageEntryVerified[V], error) {
	if err := VerifyStorageProof(entry, header); err != nil {
		return StorageEntryVerified[V]{}, err
	}
	out := StorageEntryVerified[V]{Key: entry.Key}
	if entry.Value != nil {
		v := new(V)
		if err := codec.UnmarshalExact(entry.Value, v); err != nil {
			return StorageEntryVerified[V]{}, fmt.Errorf("%w: key %x: %v", ErrCodec, entry.Key, err)
		}
		out.Value = v
	}
	return out, nil
}

func verifyAll[V any](entries []StorageEntry, header Header, verify func(StorageEntry, Header) (StorageEntryVerified[V], error)) ([]StorageEntryVerified[V], error) {
	out := make([]StorageEntryVerified[V], len(entries))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())
	for i := range entries {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			v, err := verify(entries[i], header)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Debug(log.ProofMonitoring, "VerifyStorageEntries: batch rejected", "entries", len(entries), "err", err)
		return nil, err
	}
	log.Trace(log.ProofMonitoring, "VerifyStorageEntries", "entries", len(entries), "root", header.StateRoot())
	return out, nil
}

func verifyRaw(e StorageEntry, h Header) (StorageEntryVerified[[]byte], error) {
	if err := VerifyStorageProof(e, h); err != nil {
		return StorageEntryVerified[[]byte]{}, err
	}
	out := StorageEntryVerified[[]byte]{Key: e.Key}
	if e.Value != nil {
		v := e.Value
		out.Value = &v
	}
	return out, nil
}

// VerifyStorageEntries verifies every entry in parallel and returns them in
// input order. The first failure rejects the whole batch.
func VerifyStorageEntries(entries []StorageEntry, header Header) ([]StorageEntryVerified[[]byte], error) {
	return verifyAll(entries, header, verifyRaw)
}

// VerifyStorageEntriesAndDecode is VerifyStorageEntries with each value decoded into V.
func VerifyStorageEntriesAndDecode[V any](entries []StorageEntry, header Header) ([]StorageEntryVerified[V], error) {
	return verifyAll(entries, header, VerifyStorageProofAndDecode[V])
}

// VerifyStorageEntriesLenient verifies every entry and reports failures per
// entry instead of rejecting the batch. errs is aligned with entries; only
// entries with a nil error appear in verified.
func VerifyStorageEntriesLenient(entries []StorageEntry, header Header) (verified []StorageEntryVerified[[]byte], errs []error) {
	results := make([]StorageEntryVerified[[]byte], len(entries))
	errs = make([]error, len(entries))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range entries {
		i := i
		g.Go(func() error {
			results[i], errs[i] = verifyRaw(entries[i], header)
			return nil
		})
	}
	_ = g.Wait()
	for i, err := range errs {
		if err != nil {
			log.Warn(log.ProofMonitoring, "skipping unverified storage entry", "key", common.Bytes2Hex(entries[i].Key), "err", err)
			continue
		}
		verified = append(verified, results[i])
	}
	return verified, errs
}

type jsonEntry struct {
	Key   string   `json:"key"`
	Value *string  `json:"value"`
	Proof []string `json:"proof"`
}

func (e StorageEntry) MarshalJSON() ([]byte, error) {
	j := jsonEntry{Key: common.Bytes2Hex(e.Key)}
	if e.Value != nil {
		v := common.Bytes2Hex(e.Value)
		j.Value = &v
	}
	if e.Proof != nil {
		j.Proof = make([]string, len(e.Proof))
		for i, p := range e.Proof {
			j.Proof[i] = common.Bytes2Hex(p)
		}
	}
	return json.Marshal(j)
}

func (e *StorageEntry) UnmarshalJSON(data []byte) error {
	var j jsonEntry
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.Key = common.FromHex(j.Key)
	e.Value = nil
	if j.Value != nil {
		e.Value = append([]byte{}, common.FromHex(*j.Value)...)
	}
	e.Proof = nil
	if j.Proof != nil {
		e.Proof = make([][]byte, len(j.Proof))
		for i, p := range j.Proof {
			e.Proof[i] = common.FromHex(p)
		}
	}
	return nil
}
