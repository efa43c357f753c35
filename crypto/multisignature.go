package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/colorfulnotion/sidechain/common"
)

// Scheme is the signature scheme discriminant of a MultiSignature.
type Scheme uint8

const (
	Ed25519 Scheme = iota
	Sr25519
	Ecdsa
)

const (
	Ed25519SignatureSize = 64
	Sr25519SignatureSize = 64
	EcdsaSignatureSize   = 65
)

var ErrUnknownScheme = errors.New("unknown signature scheme")

func (s Scheme) String() string {
	switch s {
	case Ed25519:
		return "ed25519"
	case Sr25519:
		return "sr25519"
	case Ecdsa:
		return "ecdsa"
	}
	return fmt.Sprintf("scheme(%d)", uint8(s))
}

// ParseScheme accepts the lower case scheme name.
func ParseScheme(s string) (Scheme, error) {
	for _, sc := range []Scheme{Ed25519, Sr25519, Ecdsa} {
		if sc.String() == s {
			return sc, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, s)
}

func (s Scheme) signatureSize() (int, error) {
	switch s {
	case Ed25519:
		return Ed25519SignatureSize, nil
	case Sr25519:
		return Sr25519SignatureSize, nil
	case Ecdsa:
		return EcdsaSignatureSize, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownScheme, uint8(s))
}

// MultiSignature is a signature tagged with its scheme. SCALE layout is the
// scheme byte followed by the fixed-size raw signature.
type MultiSignature struct {
	Scheme Scheme
	Bytes  []byte
}

func (m MultiSignature) MarshalSCALE() ([]byte, error) {
	size, err := m.Scheme.signatureSize()
	if err != nil {
		return nil, err
	}
	if len(m.Bytes) != size {
		return nil, fmt.Errorf("%s signature must be %d bytes, got %d", m.Scheme, size, len(m.Bytes))
	}
	out := make([]byte, 0, 1+size)
	out = append(out, byte(m.Scheme))
	return append(out, m.Bytes...), nil
}

func (m *MultiSignature) UnmarshalSCALE(r io.Reader) error {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return fmt.Errorf("MultiSignature: %w", err)
	}
	scheme := Scheme(tag[0])
	size, err := scheme.signatureSize()
	if err != nil {
		return err
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return fmt.Errorf("MultiSignature %s: %w", scheme, err)
	}
	m.Scheme = scheme
	m.Bytes = raw
	return nil
}

func (m MultiSignature) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Scheme string `json:"scheme"`
		Bytes  string `json:"signature"`
	}{m.Scheme.String(), common.Bytes2Hex(m.Bytes)})
}

func (m *MultiSignature) UnmarshalJSON(data []byte) error {
	var aux struct {
		Scheme string `json:"scheme"`
		Bytes  string `json:"signature"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	scheme, err := ParseScheme(aux.Scheme)
	if err != nil {
		return err
	}
	m.Scheme = scheme
	m.Bytes = common.FromHex(aux.Bytes)
	return nil
}

// Verify reports whether sig is a valid signature of msg by account. It never
// returns an error: malformed input simply does not verify.
func Verify(sig MultiSignature, msg []byte, account common.AccountId) bool {
	switch sig.Scheme {
	case Ed25519:
		return verifyEd25519(account[:], msg, sig.Bytes)
	case Ecdsa:
		return verifyEcdsa(account, msg, sig.Bytes)
	}
	// no sr25519 implementation is available to this module
	return false
}
