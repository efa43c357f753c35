package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
	"github.com/colorfulnotion/sidechain/engine"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHash32(t *testing.T) {
	want := common.Blake2_256([]byte("mrenclave"))
	got, err := parseHash32(common.Bytes2Hex(want[:]))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = parseHash32(base58.Encode(want[:]))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = parseHash32("0x0102")
	assert.Error(t, err)
	_, err = parseHash32("not base58 0OIl")
	assert.Error(t, err)
}

func TestParseAccount(t *testing.T) {
	a, err := parseAccount("//bob")
	require.NoError(t, err)
	assert.Equal(t, crypto.DevPair("bob").AccountId(), a)

	b, err := parseAccount(a.Hex())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = parseAccount("0x01")
	assert.Error(t, err)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, common.StorageValueKey("Sudo", "Key"), storageKey("Sudo", "Key", nil, nil))

	who := crypto.DevPair("alice").AccountId()
	assert.Equal(t, ledger.AccountKey(who), storageKey("System", "Account", [][]byte{who[:]}, []common.StorageHasher{common.Blake2_128ConcatHasher}))
}

func TestSignAndVerifyCall(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.MrEnclave = common.MrEnclave{4, 2}

	var out bytes.Buffer
	sign := signCallCmd(&cfg)
	sign.SetOut(&out)
	sign.SetArgs([]string{"--to", "//charlie", "--amount", "25", "--nonce", "3", "--unshield"})
	require.NoError(t, sign.Execute())

	var signed signedOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &signed))
	assert.Equal(t, "balance_unshield", signed.Variant)
	assert.Equal(t, uint32(3), signed.Nonce)
	assert.Equal(t, base58.Encode(cfg.MrEnclave[:]), signed.MrEnclave)

	out.Reset()
	verify := verifyCallCmd(&cfg)
	verify.SetOut(&out)
	verify.SetArgs([]string{signed.Signed})
	require.NoError(t, verify.Execute())
	var checked signedOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &checked))
	require.NotNil(t, checked.Valid)
	assert.True(t, *checked.Valid)
	assert.Equal(t, signed.CallHash, checked.CallHash)

	// the same envelope does not verify for another shard
	out.Reset()
	verify = verifyCallCmd(&cfg)
	verify.SetOut(&out)
	verify.SetArgs([]string{signed.Signed, "--shard", "0x" + strings.Repeat("11", 32)})
	assert.Error(t, verify.Execute())
}

func TestVerifyProofCmd(t *testing.T) {
	cfg := engine.DefaultConfig()
	e, err := engine.New(cfg, nil)
	require.NoError(t, err)
	defer e.Close()
	alice := crypto.DevPair("alice").AccountId()
	require.NoError(t, e.Genesis(func(st *ledger.State) error {
		return st.SetBalance(alice, common.NewBalance(7), common.Balance{})
	}))
	root, entries, err := e.ProveStorage([][]byte{ledger.AccountKey(alice), []byte("absent")})
	require.NoError(t, err)

	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "entries.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var out bytes.Buffer
	cmd := verifyProofCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--entries", path, "--root", root.Hex()})
	require.NoError(t, cmd.Execute())
	var results []proofOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.NotNil(t, results[0].Value)
	assert.Nil(t, results[1].Value)
	assert.Empty(t, results[1].Error)

	cmd = verifyProofCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--entries", path, "--root", common.Bytes2Hex(make([]byte, 31)) + "01"})
	assert.Error(t, cmd.Execute())
}

func TestDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(engine.DefaultConfig(), &out))
	assert.Contains(t, out.String(), "free balance 70")
	assert.Contains(t, out.String(), "parentchain call 0x0701")
	assert.Contains(t, out.String(), "proof nodes verified")
}
