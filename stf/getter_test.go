package stf

import (
	"errors"
	"math"
	"testing"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trusted(t *testing.T, signer string, q TrustedQuery) Getter {
	t.Helper()
	signed, err := NewTrustedGetter(q).Sign(pair(signer))
	require.NoError(t, err)
	return GetterFromTrusted(signed)
}

func query(t *testing.T, s *ledger.Store, g Getter) ([]byte, bool) {
	t.Helper()
	v := view(t, s)
	res, ok, err := g.Execute(v, testEnv())
	require.NoError(t, err)
	return res, ok
}

func TestGetterEnvelope(t *testing.T) {
	g := trusted(t, "alice", FreeBalance{Who: acc("alice")})
	assert.True(t, g.VerifySignature())
	assert.Equal(t, "free_balance", g.Name())

	raw, err := codec.Marshal(g)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0}, raw[:2])
	var decoded Getter
	require.NoError(t, codec.UnmarshalExact(raw, &decoded))
	assert.Equal(t, g, decoded)
	assert.True(t, decoded.VerifySignature())

	// the signature must come from the queried account
	forged := trusted(t, "mallory", FreeBalance{Who: acc("alice")})
	assert.False(t, forged.VerifySignature())

	pub := GetterFromPublic(CeremoniesReward{Cid: testCid})
	assert.True(t, pub.VerifySignature())
	raw, err = codec.Marshal(pub)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 10}, raw[:2])
	require.NoError(t, codec.UnmarshalExact(raw, &decoded))
	assert.Equal(t, pub, decoded)
	_, ok := decoded.Sender()
	assert.False(t, ok)
}

func TestPublicGetters(t *testing.T) {
	s := newStore(t)
	res, ok := query(t, s, GetterFromPublic(SomeValue{}))
	require.True(t, ok)
	assert.Equal(t, []byte{42, 0, 0, 0}, res)

	res, ok = query(t, s, GetterFromPublic(CeremoniesReward{Cid: testCid}))
	require.True(t, ok)
	assert.Equal(t, codec.MustMarshal(types.FixedFromInt(10)), res)

	_, err := run(t, s, "alice", CeremoniesRegisterParticipant{Who: acc("alice"), Cid: testCid})
	require.NoError(t, err)
	res, ok = query(t, s, GetterFromPublic(CeremoniesRegisteredBootstrappersCount{CeremonyQuery{Cid: testCid, Cindex: 1}}))
	require.True(t, ok)
	assert.Equal(t, codec.MustMarshal(uint64(1)), res)
	res, ok = query(t, s, GetterFromPublic(CeremoniesRegisteredNewbiesCount{CeremonyQuery{Cid: testCid, Cindex: 1}}))
	require.True(t, ok)
	assert.Equal(t, codec.MustMarshal(uint64(0)), res)
}

func TestTrustedGetters(t *testing.T) {
	s := newStore(t)
	res, ok := query(t, s, trusted(t, "alice", FreeBalance{Who: acc("alice")}))
	require.True(t, ok)
	assert.Equal(t, codec.MustMarshal(common.NewBalance(100)), res)

	_, err := run(t, s, "alice", BalanceTransfer{From: acc("alice"), To: acc("bob"), Value: common.NewBalance(1)})
	require.NoError(t, err)
	res, ok = query(t, s, trusted(t, "alice", Nonce{Who: acc("alice")}))
	require.True(t, ok)
	assert.Equal(t, []byte{1, 0, 0, 0}, res)
}

func TestConfidentialGetters(t *testing.T) {
	s := newStore(t)
	bootstrappers := RegistryQuery{Who: acc("master"), Cid: testCid, Cindex: 1}

	// nobody registered yet
	res, ok := query(t, s, trusted(t, "master", CeremoniesRegisteredBootstrappers{bootstrappers}))
	require.True(t, ok)
	assert.Equal(t, []byte{0}, res)

	for _, name := range []string{"alice", "bob", "charlie"} {
		_, err := run(t, s, name, CeremoniesRegisterParticipant{Who: acc(name), Cid: testCid})
		require.NoError(t, err)
	}

	res, ok = query(t, s, trusted(t, "master", CeremoniesRegisteredBootstrappers{bootstrappers}))
	require.True(t, ok)
	var got []common.AccountId
	require.NoError(t, codec.UnmarshalExact(res, &got))
	assert.Equal(t, []common.AccountId{acc("alice"), acc("bob"), acc("charlie")}, got)

	// same query signed by a participant yields nothing
	alice := bootstrappers
	alice.Who = acc("alice")
	_, ok = query(t, s, trusted(t, "alice", CeremoniesRegisteredBootstrappers{alice}))
	assert.False(t, ok)

	// no policy at all denies every confidential getter
	v := view(t, s)
	_, ok, err := trusted(t, "master", CeremoniesRegisteredBootstrappers{bootstrappers}).Execute(v, Env{})
	require.NoError(t, err)
	assert.False(t, ok)

	// without a ceremony master only root is admitted
	rootOnly := Env{Policy: RootPolicy}
	_, ok, err = trusted(t, "master", CeremoniesRegisteredBootstrappers{bootstrappers}).Execute(v, rootOnly)
	require.NoError(t, err)
	assert.False(t, ok)
	byRoot := bootstrappers
	byRoot.Who = acc("root")
	res, ok, err = trusted(t, "root", CeremoniesRegisteredBootstrappers{byRoot}).Execute(v, rootOnly)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, res)

	slot := RegistrySlot{Who: acc("master"), Cid: testCid, Cindex: 1, Index: 2}
	res, ok = query(t, s, trusted(t, "master", CeremoniesRegisteredBootstrapper{slot}))
	require.True(t, ok)
	assert.Equal(t, codec.MustMarshal(acc("bob")), res)
	slot.Index = 9
	_, ok = query(t, s, trusted(t, "master", CeremoniesRegisteredBootstrapper{slot}))
	assert.False(t, ok)

	// the sudo key may read confidential data as well
	res, ok = query(t, s, trusted(t, "root", CeremoniesAggregatedAccountData{Who: acc("root"), Cid: testCid, Account: acc("bob")}))
	require.True(t, ok)
	var agg types.AggregatedAccountData
	require.NoError(t, codec.UnmarshalExact(res, &agg))
	require.NotNil(t, agg.Personal)
	assert.Equal(t, types.Bootstrapper, agg.Personal.ParticipantType)

	// non confidential trusted getters ignore the policy
	_, ok, err = trusted(t, "bob", FreeBalance{Who: acc("bob")}).Execute(v, Env{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetterChangeSets(t *testing.T) {
	s := newStore(t)
	setPhase(t, s, types.Attesting)
	v := view(t, s)

	got, err := trusted(t, "alice", EncointerBalance{Who: acc("alice"), Cid: testCid}).StorageHashesToUpdate(v)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{ledger.DemurragePerBlockKey(testCid)}, got)

	got, err = trusted(t, "master", CeremoniesAggregatedAccountData{Who: acc("master"), Cid: testCid}).StorageHashesToUpdate(v)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{
		common.StorageValueKey("EncointerScheduler", "CurrentPhase"),
		ledger.KeyCurrentCeremonyIndex,
		ledger.PhaseDurationsKey(types.Attesting),
		common.StorageValueKey("EncointerScheduler", "NextPhaseTimestamp"),
	}, got)

	got, err = GetterFromPublic(CeremoniesReward{Cid: testCid}).StorageHashesToUpdate(v)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{common.StorageMapKey("EncointerCommunities", "NominalIncome", testCid, common.Blake2_128ConcatHasher)}, got)

	got, err = GetterFromPublic(SomeValue{}).StorageHashesToUpdate(v)
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = trusted(t, "alice", Nonce{Who: acc("alice")}).StorageHashesToUpdate(v)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGettersAreReadOnly(t *testing.T) {
	s := newStore(t)
	before, err := s.StateRoot()
	require.NoError(t, err)

	g := trusted(t, "alice", FreeBalance{Who: acc("alice")})
	first, ok := query(t, s, g)
	require.True(t, ok)
	second, ok := query(t, s, g)
	require.True(t, ok)
	assert.Equal(t, first, second)

	n, err := view(t, s).AccountNonce(acc("alice"))
	require.NoError(t, err)
	assert.Zero(t, n)
	after, err := s.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// sparseRegistry hides one registry slot and fails reads past last.
type sparseRegistry struct {
	ledger.Reader
	count   types.ParticipantIndex
	missing types.ParticipantIndex
	last    types.ParticipantIndex
}

var errCorrupt = errors.New("corrupt registry slot")

func (r sparseRegistry) RegistryCount(types.ParticipantType, types.CommunityCeremony) (types.ParticipantIndex, error) {
	return r.count, nil
}

func (r sparseRegistry) RegistryEntry(pt types.ParticipantType, cc types.CommunityCeremony, idx types.ParticipantIndex) (common.AccountId, bool, error) {
	switch {
	case idx == r.missing:
		return common.AccountId{}, false, nil
	case idx > r.last:
		return common.AccountId{}, false, errCorrupt
	}
	return r.Reader.RegistryEntry(pt, cc, idx)
}

func TestRegisteredListSkipsMissingSlot(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"alice", "bob", "charlie"} {
		_, err := run(t, s, name, CeremoniesRegisterParticipant{Who: acc(name), Cid: testCid})
		require.NoError(t, err, name)
	}
	g := trusted(t, "master", CeremoniesRegisteredBootstrappers{RegistryQuery{Who: acc("master"), Cid: testCid, Cindex: 1}})

	r := sparseRegistry{Reader: view(t, s), count: 3, missing: 2, last: 3}
	res, ok, err := g.Execute(r, testEnv())
	require.NoError(t, err)
	require.True(t, ok)
	var got []common.AccountId
	require.NoError(t, codec.UnmarshalExact(res, &got))
	assert.Equal(t, []common.AccountId{acc("alice"), acc("charlie")}, got)

	// a count far beyond what state holds must not be preallocated
	r = sparseRegistry{Reader: view(t, s), count: math.MaxUint64, missing: 2, last: 3}
	_, _, err = g.Execute(r, testEnv())
	assert.ErrorIs(t, err, errCorrupt)
}
