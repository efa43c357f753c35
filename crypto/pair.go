package crypto

import (
	"fmt"

	"github.com/colorfulnotion/sidechain/common"
)

// Pair is a signing key bound to an account.
type Pair interface {
	Scheme() Scheme
	AccountId() common.AccountId
	Seed() []byte
	Sign(msg []byte) MultiSignature
}

var (
	_ Pair = (*Ed25519Pair)(nil)
	_ Pair = (*EcdsaPair)(nil)
)

// PairFromSeed restores a pair of the given scheme from its 32 byte seed.
func PairFromSeed(scheme Scheme, seed []byte) (Pair, error) {
	switch scheme {
	case Ed25519:
		return NewEd25519FromSeed(seed)
	case Ecdsa:
		return NewEcdsaFromSeed(seed)
	}
	return nil, fmt.Errorf("%w: cannot derive %s keys", ErrUnknownScheme, scheme)
}

// GeneratePair creates a random pair of the given scheme.
func GeneratePair(scheme Scheme) (Pair, error) {
	switch scheme {
	case Ed25519:
		return GenerateEd25519(nil)
	case Ecdsa:
		return GenerateEcdsa()
	}
	return nil, fmt.Errorf("%w: cannot generate %s keys", ErrUnknownScheme, scheme)
}

// DevPair derives a deterministic ed25519 pair from a name, for tests and demos.
func DevPair(name string) Pair {
	seed := common.Blake2_256([]byte("//" + name))
	p, _ := NewEd25519FromSeed(seed[:])
	return p
}
