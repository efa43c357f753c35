// Package engine runs trusted operations against the ledger of one shard.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/stf"
	"github.com/colorfulnotion/sidechain/stf/evm"
	"github.com/colorfulnotion/sidechain/storageproof"
)

var ErrClosed = errors.New("engine closed")

// OpaqueCallSink receives the parentchain calls produced by a committed call.
type OpaqueCallSink interface {
	SendOpaqueCalls(shard common.ShardIdentifier, calls []stf.OpaqueCall) error
}

// Outbox is an in-memory OpaqueCallSink.
type Outbox struct {
	mu    sync.Mutex
	calls []stf.OpaqueCall
}

func (o *Outbox) SendOpaqueCalls(_ common.ShardIdentifier, calls []stf.OpaqueCall) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, calls...)
	return nil
}

// Drain returns and clears every queued call.
func (o *Outbox) Drain() []stf.OpaqueCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.calls
	o.calls = nil
	return out
}

// Result is the outcome of a committed call.
type Result struct {
	CallHash common.Hash
	Variant  string
	Changes  [][]byte
	Calls    []stf.OpaqueCall
}

// GetterResult is the outcome of a getter. Found is false when the getter has
// no value or the sender may not see it.
type GetterResult struct {
	Value   []byte
	Found   bool
	Changes [][]byte
}

// Engine serializes calls on a shard. Getters read a snapshot and do not
// wait for calls in flight.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	env    stf.Env
	store  *ledger.Store
	sink   OpaqueCallSink
	closed bool
}

// New opens the shard ledger under cfg.DataDir, in memory when it is empty.
func New(cfg Config, sink OpaqueCallSink) (*Engine, error) {
	store, err := ledger.OpenStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return NewWithStore(cfg, store, sink), nil
}

func NewWithStore(cfg Config, store *ledger.Store, sink OpaqueCallSink) *Engine {
	if cfg.EnableEVM {
		evm.Register()
	}
	e := &Engine{cfg: cfg, env: cfg.Env(), store: store, sink: sink}
	log.Info(log.EngineMonitoring, "engine started", "shard", e.env.Shard, "evm", cfg.EnableEVM, "datadir", cfg.DataDir)
	return e
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Shard() common.ShardIdentifier { return e.env.Shard }

// Genesis applies fn to the ledger in one transaction.
func (e *Engine) Genesis(fn func(*ledger.State) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.store.Update(fn)
}

func (e *Engine) record(kind, variant, sender, hash string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = err.Error()
	}
	log.Operation(log.EngineMonitoring, log.OperationRecord{
		Shard:    e.env.Shard.String_short(),
		Kind:     kind,
		Variant:  variant,
		Sender:   sender,
		CallHash: hash,
		Outcome:  outcome,
		Elapsed:  uint32(time.Since(start).Microseconds()),
	})
}

// ExecuteCall verifies and executes a signed call. The ledger changes only if
// the call succeeds, and only then are its parentchain calls sent.
func (e *Engine) ExecuteCall(signed stf.TrustedCallSigned) (res *Result, err error) {
	start := time.Now()
	variant := signed.Call.Name()
	var sender, hash string
	if signed.Call.Call != nil {
		sender = signed.Sender().Short()
	}
	defer func() { e.record("call", variant, sender, hash, start, err) }()

	if !signed.VerifySignature(e.env.MrEnclave, e.env.Shard) {
		return nil, stf.ErrInvalidSignature
	}
	callHash, err := signed.Call.Hash()
	if err != nil {
		return nil, err
	}
	hash = callHash.String_short()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	tx := e.store.Begin()
	var calls []stf.OpaqueCall
	if err := signed.Execute(tx, e.env, &calls); err != nil {
		tx.Discard()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	res = &Result{CallHash: callHash, Variant: variant, Changes: signed.StorageHashesToUpdate(), Calls: calls}
	if e.sink != nil && len(calls) > 0 {
		if err := e.sink.SendOpaqueCalls(e.env.Shard, calls); err != nil {
			log.Error(log.EngineMonitoring, "SendOpaqueCalls", "calls", len(calls), "err", err)
			return res, fmt.Errorf("opaque call sink: %w", err)
		}
	}
	return res, nil
}

// ExecuteGetter answers a getter from a snapshot of the ledger.
func (e *Engine) ExecuteGetter(g stf.Getter) (res GetterResult, err error) {
	start := time.Now()
	var sender string
	if who, ok := g.Sender(); ok {
		sender = who.Short()
	}
	defer func() { e.record("getter", g.Name(), sender, "", start, err) }()

	if !g.VerifySignature() {
		return res, stf.ErrInvalidSignature
	}
	v, err := e.view()
	if err != nil {
		return res, err
	}
	defer v.Release()
	if res.Value, res.Found, err = g.Execute(v, e.env); err != nil {
		return res, err
	}
	if res.Changes, err = g.StorageHashesToUpdate(v); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) view() (*ledger.View, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return e.store.View()
}

// Nonce is the next call nonce expected from who.
func (e *Engine) Nonce(who common.AccountId) (uint32, error) {
	v, err := e.view()
	if err != nil {
		return 0, err
	}
	defer v.Release()
	return v.AccountNonce(who)
}

// StateRoot commits the state trie and returns its root.
func (e *Engine) StateRoot() (common.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return common.Hash{}, ErrClosed
	}
	return e.store.CommitTrie()
}

// ProveStorage returns the state root and one proven entry per key. Absent
// keys carry a nil value and a proof of absence.
func (e *Engine) ProveStorage(keys [][]byte) (common.Hash, []storageproof.StorageEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return common.Hash{}, nil, ErrClosed
	}
	root, err := e.store.CommitTrie()
	if err != nil {
		return common.Hash{}, nil, err
	}
	v, err := e.store.View()
	if err != nil {
		return common.Hash{}, nil, err
	}
	defer v.Release()
	entries := make([]storageproof.StorageEntry, len(keys))
	for i, key := range keys {
		value, _, err := v.Raw(key)
		if err != nil {
			return common.Hash{}, nil, err
		}
		proof, err := e.store.Prove(root, key)
		if err != nil {
			return common.Hash{}, nil, fmt.Errorf("ProveStorage %s: %w", common.Bytes2Hex(key), err)
		}
		if proof == nil {
			proof = [][]byte{}
		}
		entries[i] = storageproof.StorageEntry{Key: key, Value: value, Proof: proof}
	}
	log.Debug(log.ProofMonitoring, "ProveStorage", "root", root, "keys", len(keys))
	return root, entries, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	log.Info(log.EngineMonitoring, "engine closed", "shard", e.env.Shard)
	return e.store.Close()
}
