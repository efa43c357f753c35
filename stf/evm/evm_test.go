package evm

import (
	"errors"
	"testing"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/stf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mrenclave = common.MrEnclave{0xaa}
	shard     = common.HexToHash("0x02")
	testEnv   = stf.Env{Shard: shard, MrEnclave: mrenclave, Modules: []string{Module}}
)

func init() { Register() }

func acc(name string) common.AccountId { return crypto.DevPair(name).AccountId() }

func newStore(t *testing.T) *ledger.Store {
	t.Helper()
	s, err := ledger.OpenStore("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Update(func(st *ledger.State) error {
		if err := st.SetBalance(acc("alice"), common.NewBalance(50), common.Balance{}); err != nil {
			return err
		}
		return st.SetBalance(AccountOf(AddressOf(acc("alice"))), common.NewBalance(100), common.Balance{})
	}))
	return s
}

func run(t *testing.T, s *ledger.Store, signer string, c stf.Call) error {
	t.Helper()
	pair := crypto.DevPair(signer)
	tx := s.Begin()
	n, err := tx.AccountNonce(pair.AccountId())
	require.NoError(t, err)
	signed, err := stf.NewTrustedCall(c).Sign(pair, n, mrenclave, shard)
	require.NoError(t, err)
	if err := signed.Execute(tx, testEnv, nil); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}

func get(t *testing.T, s *ledger.Store, signer string, q stf.TrustedQuery) ([]byte, bool) {
	t.Helper()
	signed, err := stf.NewTrustedGetter(q).Sign(crypto.DevPair(signer))
	require.NoError(t, err)
	v, err := s.View()
	require.NoError(t, err)
	defer v.Release()
	res, ok, err := stf.GetterFromTrusted(signed).Execute(v, testEnv)
	require.NoError(t, err)
	return res, ok
}

func TestRegistered(t *testing.T) {
	Register()
	calls := stf.Calls()
	require.Len(t, calls, 26)
	assert.Equal(t, "evm_create2", calls[25].Name)
	getters := stf.TrustedGetters()
	require.Len(t, getters, 20)
	assert.False(t, getters[19].Confidential)

	raw, err := codec.Marshal(stf.NewTrustedCall(Withdraw{From: acc("alice")}))
	require.NoError(t, err)
	assert.Equal(t, byte(22), raw[0])
}

func TestU256(t *testing.T) {
	v := NewU256(0x0102)
	raw, err := codec.Marshal(v)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	assert.Equal(t, []byte{2, 1, 0}, raw[:3])
	var back U256
	require.NoError(t, codec.UnmarshalExact(raw, &back))
	assert.Equal(t, "258", back.String())

	b, err := v.Balance()
	require.NoError(t, err)
	assert.Equal(t, uint64(258), b.Uint64())

	var big U256
	raw[31] = 1
	require.NoError(t, codec.UnmarshalExact(raw, &big))
	_, err = big.Balance()
	assert.ErrorIs(t, err, ErrValueOverflow)
}

func TestWithdraw(t *testing.T) {
	s := newStore(t)
	alice := AddressOf(acc("alice"))

	require.NoError(t, run(t, s, "alice", Withdraw{From: acc("alice"), Address: alice, Value: common.NewBalance(30)}))
	v, err := s.View()
	require.NoError(t, err)
	free, err := v.FreeBalance(acc("alice"))
	require.NoError(t, err)
	assert.Equal(t, uint64(80), free.Uint64())
	free, err = v.FreeBalance(AccountOf(alice))
	require.NoError(t, err)
	assert.Equal(t, uint64(70), free.Uint64())
	v.Release()

	// bob cannot drain alice's mapped account
	err = run(t, s, "bob", Withdraw{From: acc("bob"), Address: alice, Value: common.NewBalance(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadOrigin)
	assert.ErrorIs(t, err, stf.ErrDispatch)
	assert.Contains(t, err.Error(), "Evm Withdraw error: BadOrigin")
}

func TestCreateAndCall(t *testing.T) {
	s := newStore(t)
	alice := AddressOf(acc("alice"))
	init := []byte{0x60, 0x80, 0x60, 0x40}

	require.NoError(t, run(t, s, "alice", Create{From: acc("alice"), Source: alice, Init: init, Value: NewU256(5)}))
	contract := CreateAddress(alice, 0)

	code, ok := get(t, s, "alice", AccountCodes{Who: acc("alice"), Address: contract})
	require.True(t, ok)
	assert.Equal(t, codec.MustMarshal(init), code)

	res, ok := get(t, s, "alice", NonceOf{Who: acc("alice")})
	require.True(t, ok)
	assert.Equal(t, []byte{1, 0, 0, 0}, res)

	// an explicit nonce must match the mapped account nonce
	stale := NewU256(0)
	err := run(t, s, "alice", Call{From: acc("alice"), Source: alice, Target: contract, Input: []byte{1}, Nonce: &stale})
	assert.ErrorIs(t, err, ErrInvalidNonce)

	input := []byte{0xde, 0xad}
	require.NoError(t, run(t, s, "alice", Call{From: acc("alice"), Source: alice, Target: contract, Input: input}))
	slot := common.Keccak256(input)
	res, ok = get(t, s, "alice", AccountStorages{Who: acc("alice"), Address: contract, Index: slot})
	require.True(t, ok)
	assert.Equal(t, codec.MustMarshal(common.Keccak256(append(append([]byte{}, init...), input...))), res)

	_, ok = get(t, s, "alice", AccountStorages{Who: acc("alice"), Address: contract, Index: common.Hash{}})
	assert.False(t, ok)

	err = run(t, s, "alice", Call{From: acc("alice"), Source: alice, Target: common.Address{9}})
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestCreate2(t *testing.T) {
	s := newStore(t)
	alice := AddressOf(acc("alice"))
	c := Create2{From: acc("alice"), Source: alice, Init: []byte{0x00}, Salt: common.Hash{1}}

	require.NoError(t, run(t, s, "alice", c))
	_, ok := get(t, s, "alice", AccountCodes{Who: acc("alice"), Address: Create2Address(alice, c.Salt, c.Init)})
	assert.True(t, ok)

	err := run(t, s, "alice", c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreateCollision))
}

func TestOptionalFieldsRoundTrip(t *testing.T) {
	alice := AddressOf(acc("alice"))
	nonce := NewU256(3)
	tip := NewU256(1)
	for _, c := range []Create{
		{From: acc("alice"), Source: alice, Init: []byte{0xfe}},
		{From: acc("alice"), Source: alice, Init: []byte{0xfe}, Nonce: &nonce},
		{From: acc("alice"), Source: alice, Init: []byte{0xfe}, Nonce: &nonce, MaxPriorityFeePerGas: &tip},
	} {
		raw, err := codec.Marshal(c)
		require.NoError(t, err)
		var back Create
		require.NoError(t, codec.UnmarshalExact(raw, &back))
		assert.Equal(t, c.Nonce, back.Nonce)
		assert.Equal(t, c.MaxPriorityFeePerGas, back.MaxPriorityFeePerGas)
		assert.Equal(t, raw, codec.MustMarshal(back))
	}

	none := codec.MustMarshal(Create{Source: alice})
	some := codec.MustMarshal(Create{Source: alice, Nonce: &nonce})
	// Some(nonce) is the option tag plus 32 bytes
	assert.Len(t, some, len(none)+33)
	assert.Equal(t, byte(0x01), some[len(some)-34])
}

func TestModuleNotEnabled(t *testing.T) {
	s := newStore(t)
	alice := AddressOf(acc("alice"))
	tx := s.Begin()
	defer tx.Discard()
	signed, err := stf.NewTrustedCall(Withdraw{From: acc("alice"), Address: alice, Value: common.NewBalance(1)}).
		Sign(crypto.DevPair("alice"), 0, mrenclave, shard)
	require.NoError(t, err)
	err = signed.Execute(tx, stf.Env{Shard: shard, MrEnclave: mrenclave}, nil)
	assert.ErrorIs(t, err, stf.ErrUnknownVariant)

	getter, err := stf.NewTrustedGetter(NonceOf{Who: acc("alice")}).Sign(crypto.DevPair("alice"))
	require.NoError(t, err)
	_, _, err = stf.GetterFromTrusted(getter).Execute(tx, stf.Env{})
	assert.ErrorIs(t, err, stf.ErrUnknownVariant)
}
