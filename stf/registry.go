package stf

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/types"
)

// Privilege restricts who may submit a call beyond holding a valid signature.
type Privilege uint8

const (
	AnySigner Privilege = iota
	SudoOnly
	EnclaveSignerOnly
	PolicyOnly
)

func (p Privilege) String() string {
	switch p {
	case AnySigner:
		return "any"
	case SudoOnly:
		return "sudo"
	case EnclaveSignerOnly:
		return "enclave-signer"
	case PolicyOnly:
		return "policy"
	}
	return fmt.Sprintf("privilege(%d)", uint8(p))
}

// PhaseRule rejects a call while the ceremony is in one of the listed phases.
type PhaseRule struct {
	Rejected []types.CeremonyPhase
	Message  string
}

func rejectIn(msg string, phases ...types.CeremonyPhase) *PhaseRule {
	return &PhaseRule{Rejected: phases, Message: msg}
}

func onlyIn(phase types.CeremonyPhase, msg string) *PhaseRule {
	var rejected []types.CeremonyPhase
	for _, p := range []types.CeremonyPhase{types.Registering, types.Assigning, types.Attesting} {
		if p != phase {
			rejected = append(rejected, p)
		}
	}
	return &PhaseRule{Rejected: rejected, Message: msg}
}

// Allows reports whether the call may run in phase p.
func (r *PhaseRule) Allows(p types.CeremonyPhase) bool {
	if r == nil {
		return true
	}
	for _, x := range r.Rejected {
		if x == p {
			return false
		}
	}
	return true
}

// CallSpec binds a TrustedCall variant to everything needed to execute it.
type CallSpec struct {
	Index     uint8
	Name      string
	Variant   Call
	Phase     *PhaseRule
	Privilege Privilege
	Dispatch  func(ctx *Context, c Call) error
	// StorageKeys is the static change set reported after the call runs.
	StorageKeys [][]byte
	// Module names the optional module the variant belongs to. Empty for core.
	Module string
}

// GetterSpec binds a getter variant to its query and change set.
type GetterSpec struct {
	Index        uint8
	Name         string
	Variant      interface{}
	Confidential bool
	Execute      func(r ledger.Reader, q interface{}) ([]byte, bool, error)
	StorageKeys  func(r ledger.Reader, q interface{}) ([][]byte, error)
	Module       string
}

// HandleCall adapts a typed dispatch function to CallSpec.Dispatch.
func HandleCall[C Call](fn func(ctx *Context, c C) error) func(*Context, Call) error {
	return func(ctx *Context, c Call) error {
		return fn(ctx, c.(C))
	}
}

// HandleGetter adapts a typed query function to GetterSpec.Execute.
func HandleGetter[Q any](fn func(r ledger.Reader, q Q) ([]byte, bool, error)) func(ledger.Reader, interface{}) ([]byte, bool, error) {
	return func(r ledger.Reader, q interface{}) ([]byte, bool, error) {
		return fn(r, q.(Q))
	}
}

// GetterKeys adapts a typed change set builder to GetterSpec.StorageKeys.
func GetterKeys[Q any](fn func(r ledger.Reader, q Q) ([][]byte, error)) func(ledger.Reader, interface{}) ([][]byte, error) {
	return func(r ledger.Reader, q interface{}) ([][]byte, error) {
		return fn(r, q.(Q))
	}
}

type table[S any] struct {
	kind    string
	mu      sync.RWMutex
	byIndex map[uint8]*S
	byType  map[reflect.Type]*S
}

func newTable[S any](kind string) *table[S] {
	return &table[S]{kind: kind, byIndex: make(map[uint8]*S), byType: make(map[reflect.Type]*S)}
}

func (t *table[S]) add(index uint8, variant interface{}, s *S) {
	t.mu.Lock()
	defer t.mu.Unlock()
	typ := reflect.TypeOf(variant)
	if typ == nil {
		panic(fmt.Sprintf("stf: %s %d has no variant", t.kind, index))
	}
	if _, dup := t.byIndex[index]; dup {
		panic(fmt.Sprintf("stf: duplicate %s index %d", t.kind, index))
	}
	if _, dup := t.byType[typ]; dup {
		panic(fmt.Sprintf("stf: %s variant %s registered twice", t.kind, typ))
	}
	t.byIndex[index] = s
	t.byType[typ] = s
}

func (t *table[S]) at(index uint) (*S, bool) {
	if index > 255 {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byIndex[uint8(index)]
	return s, ok
}

func (t *table[S]) of(v interface{}) (*S, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byType[reflect.TypeOf(v)]
	return s, ok
}

func (t *table[S]) all() []S {
	t.mu.RLock()
	defer t.mu.RUnlock()
	indices := make([]int, 0, len(t.byIndex))
	for i := range t.byIndex {
		indices = append(indices, int(i))
	}
	sort.Ints(indices)
	out := make([]S, 0, len(indices))
	for _, i := range indices {
		out = append(out, *t.byIndex[uint8(i)])
	}
	return out
}

var (
	callTable          = newTable[CallSpec]("call")
	trustedGetterTable = newTable[GetterSpec]("trusted getter")
	publicGetterTable  = newTable[GetterSpec]("public getter")
)

// RegisterCall adds a TrustedCall variant. It panics on an incomplete entry or
// a reused index, so a bad table fails at init.
func RegisterCall(spec CallSpec) {
	if spec.Name == "" || spec.Variant == nil || spec.Dispatch == nil {
		panic(fmt.Sprintf("stf: incomplete call spec at index %d", spec.Index))
	}
	s := spec
	callTable.add(spec.Index, spec.Variant, &s)
}

func RegisterTrustedGetter(spec GetterSpec) {
	if _, ok := spec.Variant.(TrustedQuery); !ok {
		panic(fmt.Sprintf("stf: trusted getter %q does not name a signer", spec.Name))
	}
	checkGetter(spec)
	s := spec
	trustedGetterTable.add(spec.Index, spec.Variant, &s)
}

func RegisterPublicGetter(spec GetterSpec) {
	checkGetter(spec)
	s := spec
	publicGetterTable.add(spec.Index, spec.Variant, &s)
}

func checkGetter(spec GetterSpec) {
	if spec.Name == "" || spec.Variant == nil || spec.Execute == nil {
		panic(fmt.Sprintf("stf: incomplete getter spec at index %d", spec.Index))
	}
}

// Calls lists the registered call variants in wire order.
func Calls() []CallSpec { return callTable.all() }

func TrustedGetters() []GetterSpec { return trustedGetterTable.all() }

func PublicGetters() []GetterSpec { return publicGetterTable.all() }

func lookupCall(c Call) (*CallSpec, error) {
	spec, ok := callTable.of(c)
	if !ok {
		return nil, fmt.Errorf("%w: call %T", ErrUnknownVariant, c)
	}
	return spec, nil
}

func callByIndex(index uint) (*CallSpec, bool) {
	return callTable.at(index)
}

func keys(k ...[]byte) [][]byte { return k }
