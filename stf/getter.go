package stf

import (
	"fmt"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/log"
)

// TrustedQuery is one TrustedGetter variant. The signer is the account
// checked by the confidentiality policy.
type TrustedQuery interface {
	Signer() common.AccountId
}

// TrustedGetter is the SCALE enum over every registered TrustedQuery.
type TrustedGetter struct {
	TrustedQuery
}

func NewTrustedGetter(q TrustedQuery) TrustedGetter {
	return TrustedGetter{TrustedQuery: q}
}

func (g TrustedGetter) spec() (*GetterSpec, error) {
	spec, ok := trustedGetterTable.of(g.TrustedQuery)
	if !ok {
		return nil, fmt.Errorf("%w: trusted getter %T", ErrUnknownVariant, g.TrustedQuery)
	}
	return spec, nil
}

func (g TrustedGetter) IndexValue() (int, interface{}, error) {
	spec, err := g.spec()
	if err != nil {
		return 0, nil, err
	}
	return int(spec.Index), g.TrustedQuery, nil
}

func (g *TrustedGetter) ValueAt(index uint) (interface{}, error) {
	spec, ok := trustedGetterTable.at(index)
	if !ok {
		return nil, fmt.Errorf("%w: trusted getter %d", ErrUnknownVariant, index)
	}
	return spec.Variant, nil
}

func (g *TrustedGetter) SetValue(v interface{}) error {
	q, ok := v.(TrustedQuery)
	if !ok {
		return fmt.Errorf("%w: %T is not a trusted getter", ErrUnknownVariant, v)
	}
	g.TrustedQuery = q
	return nil
}

// SigningPayload is the encoded getter.
func (g TrustedGetter) SigningPayload() ([]byte, error) {
	return codec.Marshal(g)
}

func (g TrustedGetter) Sign(pair crypto.Pair) (TrustedGetterSigned, error) {
	payload, err := g.SigningPayload()
	if err != nil {
		return TrustedGetterSigned{}, err
	}
	return TrustedGetterSigned{Getter: g, Signature: pair.Sign(payload)}, nil
}

type TrustedGetterSigned struct {
	Getter    TrustedGetter
	Signature crypto.MultiSignature
}

func (s TrustedGetterSigned) VerifySignature() bool {
	if s.Getter.TrustedQuery == nil {
		return false
	}
	payload, err := s.Getter.SigningPayload()
	if err != nil {
		return false
	}
	return crypto.Verify(s.Signature, payload, s.Getter.Signer())
}

// PublicGetter is the SCALE enum over every registered public query.
type PublicGetter struct {
	Query interface{}
}

func NewPublicGetter(q interface{}) PublicGetter {
	return PublicGetter{Query: q}
}

func (g PublicGetter) spec() (*GetterSpec, error) {
	spec, ok := publicGetterTable.of(g.Query)
	if !ok {
		return nil, fmt.Errorf("%w: public getter %T", ErrUnknownVariant, g.Query)
	}
	return spec, nil
}

func (g PublicGetter) IndexValue() (int, interface{}, error) {
	spec, err := g.spec()
	if err != nil {
		return 0, nil, err
	}
	return int(spec.Index), g.Query, nil
}

func (g *PublicGetter) ValueAt(index uint) (interface{}, error) {
	spec, ok := publicGetterTable.at(index)
	if !ok {
		return nil, fmt.Errorf("%w: public getter %d", ErrUnknownVariant, index)
	}
	return spec.Variant, nil
}

func (g *PublicGetter) SetValue(v interface{}) error {
	g.Query = v
	return nil
}

const (
	getterPublic  = 0
	getterTrusted = 1
)

// Getter is either a PublicGetter or a TrustedGetterSigned.
type Getter struct {
	Value interface{}
}

func GetterFromPublic(q interface{}) Getter {
	return Getter{Value: NewPublicGetter(q)}
}

func GetterFromTrusted(s TrustedGetterSigned) Getter {
	return Getter{Value: s}
}

func (g Getter) IndexValue() (int, interface{}, error) {
	switch v := g.Value.(type) {
	case PublicGetter:
		return getterPublic, v, nil
	case TrustedGetterSigned:
		return getterTrusted, v, nil
	}
	return 0, nil, fmt.Errorf("%w: getter %T", ErrUnknownVariant, g.Value)
}

func (g *Getter) ValueAt(index uint) (interface{}, error) {
	switch index {
	case getterPublic:
		return PublicGetter{}, nil
	case getterTrusted:
		return TrustedGetterSigned{}, nil
	}
	return nil, fmt.Errorf("%w: getter %d", ErrUnknownVariant, index)
}

func (g *Getter) SetValue(v interface{}) error {
	g.Value = v
	return nil
}

func (g Getter) resolve() (*GetterSpec, interface{}, error) {
	switch v := g.Value.(type) {
	case PublicGetter:
		spec, err := v.spec()
		return spec, v.Query, err
	case TrustedGetterSigned:
		spec, err := v.Getter.spec()
		return spec, v.Getter.TrustedQuery, err
	}
	return nil, nil, fmt.Errorf("%w: getter %T", ErrUnknownVariant, g.Value)
}

// Name is the wire name of the underlying variant.
func (g Getter) Name() string {
	spec, _, err := g.resolve()
	if err != nil {
		return fmt.Sprintf("%T", g.Value)
	}
	return spec.Name
}

// Sender is the signer of a trusted getter and the zero account otherwise.
func (g Getter) Sender() (common.AccountId, bool) {
	if s, ok := g.Value.(TrustedGetterSigned); ok && s.Getter.TrustedQuery != nil {
		return s.Getter.Signer(), true
	}
	return common.AccountId{}, false
}

// VerifySignature is true for public getters.
func (g Getter) VerifySignature() bool {
	if s, ok := g.Value.(TrustedGetterSigned); ok {
		return s.VerifySignature()
	}
	_, ok := g.Value.(PublicGetter)
	return ok
}

// Execute runs the getter against r and returns its SCALE encoded result.
// ok is false when there is nothing to return, which includes confidential
// getters whose signer the env policy rejects.
func (g Getter) Execute(r ledger.Reader, env Env) (result []byte, ok bool, err error) {
	spec, q, err := g.resolve()
	if err != nil {
		return nil, false, err
	}
	if !env.Enabled(spec.Module) {
		return nil, false, fmt.Errorf("%w: getter %s, module %s is not enabled", ErrUnknownVariant, spec.Name, spec.Module)
	}
	if spec.Confidential {
		who, _ := g.Sender()
		if !env.Policy.allows(r, who) {
			log.Debug(log.GetterMonitoring, "Execute: confidential getter denied", "getter", spec.Name, "who", who.Short())
			return nil, false, nil
		}
	}
	return spec.Execute(r, q)
}

// StorageHashesToUpdate lists the storage keys the host must refresh before
// serving the getter.
func (g Getter) StorageHashesToUpdate(r ledger.Reader) ([][]byte, error) {
	spec, q, err := g.resolve()
	if err != nil {
		return nil, err
	}
	if spec.StorageKeys == nil {
		return nil, nil
	}
	return spec.StorageKeys(r, q)
}
