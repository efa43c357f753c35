package crypto

import (
	stded25519 "crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/colorfulnotion/sidechain/common"
	consensus "github.com/hdevalence/ed25519consensus"
)

// Ed25519Pair signs with the standard library and verifies under ZIP-215 rules.
type Ed25519Pair struct {
	priv stded25519.PrivateKey
}

// NewEd25519FromSeed derives a pair from a 32 byte seed.
func NewEd25519FromSeed(seed []byte) (*Ed25519Pair, error) {
	if len(seed) != stded25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", stded25519.SeedSize, len(seed))
	}
	return &Ed25519Pair{priv: stded25519.NewKeyFromSeed(seed)}, nil
}

// GenerateEd25519 creates a random pair; r defaults to crypto/rand.
func GenerateEd25519(r io.Reader) (*Ed25519Pair, error) {
	if r == nil {
		r = rand.Reader
	}
	_, priv, err := stded25519.GenerateKey(r)
	if err != nil {
		return nil, err
	}
	return &Ed25519Pair{priv: priv}, nil
}

func (p *Ed25519Pair) Scheme() Scheme {
	return Ed25519
}

// AccountId is the raw public key.
func (p *Ed25519Pair) AccountId() common.AccountId {
	return common.BytesToAccountId(p.priv.Public().(stded25519.PublicKey))
}

func (p *Ed25519Pair) Seed() []byte {
	return p.priv.Seed()
}

func (p *Ed25519Pair) Sign(msg []byte) MultiSignature {
	return MultiSignature{Scheme: Ed25519, Bytes: stded25519.Sign(p.priv, msg)}
}

func verifyEd25519(pub, msg, sig []byte) bool {
	if len(pub) != stded25519.PublicKeySize || len(sig) != Ed25519SignatureSize {
		return false
	}
	return consensus.Verify(stded25519.PublicKey(pub), msg, sig)
}
