package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/colorfulnotion/sidechain/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// EcdsaPair is a secp256k1 key. Messages are signed over their blake2-256
// digest and the account is blake2-256 of the compressed public key.
type EcdsaPair struct {
	priv *ecdsa.PrivateKey
}

func NewEcdsaFromSeed(seed []byte) (*EcdsaPair, error) {
	priv, err := ethcrypto.ToECDSA(seed)
	if err != nil {
		return nil, fmt.Errorf("ecdsa seed: %w", err)
	}
	return &EcdsaPair{priv: priv}, nil
}

// NewEcdsaFromHex parses a hex encoded private key.
func NewEcdsaFromHex(privateKeyHex string) (*EcdsaPair, error) {
	priv, err := ethcrypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("error converting private key: %v", err)
	}
	return &EcdsaPair{priv: priv}, nil
}

func GenerateEcdsa() (*EcdsaPair, error) {
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &EcdsaPair{priv: priv}, nil
}

func (p *EcdsaPair) Scheme() Scheme {
	return Ecdsa
}

func (p *EcdsaPair) AccountId() common.AccountId {
	return ecdsaAccount(&p.priv.PublicKey)
}

func (p *EcdsaPair) Seed() []byte {
	return ethcrypto.FromECDSA(p.priv)
}

// Address is the Ethereum address of the key.
func (p *EcdsaPair) Address() common.Address {
	return common.Address(ethcrypto.PubkeyToAddress(p.priv.PublicKey))
}

func (p *EcdsaPair) Sign(msg []byte) MultiSignature {
	digest := common.Blake2_256(msg)
	sig, err := ethcrypto.Sign(digest[:], p.priv)
	if err != nil {
		// only fails on a malformed digest length
		panic(err)
	}
	return MultiSignature{Scheme: Ecdsa, Bytes: sig}
}

func ecdsaAccount(pub *ecdsa.PublicKey) common.AccountId {
	h := common.Blake2_256(ethcrypto.CompressPubkey(pub))
	return common.AccountId(h)
}

func verifyEcdsa(account common.AccountId, msg, sig []byte) bool {
	if len(sig) != EcdsaSignatureSize {
		return false
	}
	digest := common.Blake2_256(msg)
	pub, err := ethcrypto.SigToPub(digest[:], sig)
	if err != nil {
		return false
	}
	if ecdsaAccount(pub) != account {
		return false
	}
	return ethcrypto.VerifySignature(ethcrypto.CompressPubkey(pub), digest[:], sig[:64])
}
