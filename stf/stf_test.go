package stf

import (
	"errors"
	"testing"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCid   = types.CommunityIdentifier{Geohash: [5]byte{'u', '0', 'q', 'j', 'd'}, Digest: [4]byte{1, 2, 3, 4}}
	mrenclave = common.MrEnclave{0xaa, 0xbb}
	shard     = common.HexToHash("0x01")
)

func pair(name string) crypto.Pair { return crypto.DevPair(name) }

func acc(name string) common.AccountId { return pair(name).AccountId() }

func testEnv() Env {
	return Env{
		Shard:           shard,
		MrEnclave:       mrenclave,
		EnclaveSigner:   acc("enclave"),
		UnshieldFundsFn: [2]byte{7, 1},
		Policy:          CeremonyMasterPolicy(acc("master")),
	}
}

func newStore(t *testing.T) *ledger.Store {
	t.Helper()
	s, err := ledger.OpenStore("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Update(func(st *ledger.State) error {
		require.NoError(t, st.SetSudoKey(acc("root")))
		require.NoError(t, st.SetCurrentCeremonyIndex(1))
		require.NoError(t, st.SetEndorsementTicketsPerBootstrapper(1))
		require.NoError(t, st.SetBalance(acc("alice"), common.NewBalance(100), common.Balance{}))
		return st.AddCommunity(ledger.Community{
			Cid:           testCid,
			Bootstrappers: []common.AccountId{acc("alice"), acc("bob"), acc("charlie")},
			NominalIncome: types.FixedFromInt(10),
		})
	}))
	return s
}

func setPhase(t *testing.T, s *ledger.Store, p types.CeremonyPhase) {
	t.Helper()
	require.NoError(t, s.Update(func(st *ledger.State) error { return st.SetCurrentPhase(p) }))
}

// run signs c with the named key at the account's current nonce and executes
// it in its own transaction, committing on success.
func run(t *testing.T, s *ledger.Store, signer string, c Call) ([]OpaqueCall, error) {
	t.Helper()
	tx := s.Begin()
	n, err := tx.AccountNonce(pair(signer).AccountId())
	require.NoError(t, err)
	signed, err := NewTrustedCall(c).Sign(pair(signer), n, mrenclave, shard)
	require.NoError(t, err)
	var calls []OpaqueCall
	if err := signed.Execute(tx, testEnv(), &calls); err != nil {
		tx.Discard()
		return nil, err
	}
	require.NoError(t, tx.Commit())
	return calls, nil
}

// proofOf is a proof signed by attendee that prover may use its attendance.
func proofOf(prover, attendee string, cindex types.CeremonyIndex) types.ProofOfAttendance {
	p := types.ProofOfAttendance{
		ProverPublic:        acc(prover),
		CommunityIdentifier: testCid,
		CeremonyIndex:       cindex,
		AttendeePublic:      acc(attendee),
	}
	p.AttendeeSignature = pair(attendee).Sign(p.SigningPayload())
	return p
}

func view(t *testing.T, s *ledger.Store) *ledger.View {
	t.Helper()
	v, err := s.View()
	require.NoError(t, err)
	t.Cleanup(v.Release)
	return v
}

func TestRegistryComplete(t *testing.T) {
	calls := Calls()
	require.Len(t, calls, 22)
	for i, spec := range calls {
		assert.Equal(t, uint8(i), spec.Index, spec.Name)
		assert.NotEmpty(t, spec.Name)
		assert.NotNil(t, spec.Variant, spec.Name)
		assert.NotNil(t, spec.Dispatch, spec.Name)
	}
	trusted := TrustedGetters()
	require.Len(t, trusted, 17)
	for i, spec := range trusted {
		assert.Equal(t, uint8(i), spec.Index, spec.Name)
		assert.Equal(t, i >= 4, spec.Confidential, spec.Name)
	}
	public := PublicGetters()
	require.Len(t, public, 11)
	for _, spec := range public {
		assert.False(t, spec.Confidential, spec.Name)
	}
	assert.Panics(t, func() {
		RegisterCall(CallSpec{Index: 1, Name: "dup", Variant: struct{ BalanceTransfer }{}, Dispatch: calls[1].Dispatch})
	})
}

func TestCallEnvelope(t *testing.T) {
	c := NewTrustedCall(BalanceTransfer{From: acc("alice"), To: acc("bob"), Value: common.NewBalance(5)})
	signed, err := c.Sign(pair("alice"), 3, mrenclave, shard)
	require.NoError(t, err)
	assert.True(t, signed.VerifySignature(mrenclave, shard))
	assert.False(t, signed.VerifySignature(common.MrEnclave{}, shard))
	assert.False(t, signed.VerifySignature(mrenclave, common.Hash{}))

	tampered := signed
	tampered.Nonce = 4
	assert.False(t, tampered.VerifySignature(mrenclave, shard))

	// any change to the call content or the signature bytes breaks it too
	content := signed
	content.Call = NewTrustedCall(BalanceTransfer{From: acc("alice"), To: acc("bob"), Value: common.NewBalance(6)})
	assert.False(t, content.VerifySignature(mrenclave, shard))
	for i := range signed.Signature.Bytes {
		flipped := signed
		flipped.Signature.Bytes = append([]byte{}, signed.Signature.Bytes...)
		flipped.Signature.Bytes[i] ^= 0x01
		require.False(t, flipped.VerifySignature(mrenclave, shard), "byte %d", i)
	}
	assert.True(t, signed.VerifySignature(mrenclave, shard))

	// signed by someone other than the call's signer
	forged, err := c.Sign(pair("mallory"), 3, mrenclave, shard)
	require.NoError(t, err)
	assert.False(t, forged.VerifySignature(mrenclave, shard))

	payload, err := c.SigningPayload(3, mrenclave, shard)
	require.NoError(t, err)
	enc := codec.MustMarshal(c)
	assert.Equal(t, byte(1), enc[0])
	assert.Equal(t, enc, payload[:len(enc)])
	assert.Equal(t, []byte{3, 0, 0, 0}, payload[len(enc):len(enc)+4])
	assert.Equal(t, mrenclave[:], payload[len(enc)+4:len(enc)+36])
	assert.Equal(t, shard[:], payload[len(enc)+36:])

	raw, err := codec.Marshal(signed)
	require.NoError(t, err)
	var decoded TrustedCallSigned
	require.NoError(t, codec.UnmarshalExact(raw, &decoded))
	assert.Equal(t, signed, decoded)
	assert.True(t, decoded.VerifySignature(mrenclave, shard))
	assert.Equal(t, "balance_transfer", decoded.Call.Name())

	_, err = codec.Marshal(NewTrustedCall(nil))
	assert.Error(t, err)
	err = codec.Unmarshal([]byte{200}, &decoded)
	assert.ErrorIs(t, err, codec.ErrUnknownVaryingDataTypeValue)
}

func TestNonce(t *testing.T) {
	s := newStore(t)
	transfer := BalanceTransfer{From: acc("alice"), To: acc("bob"), Value: common.NewBalance(10)}

	tx := s.Begin()
	signed, err := NewTrustedCall(transfer).Sign(pair("alice"), 1, mrenclave, shard)
	require.NoError(t, err)
	err = signed.Execute(tx, testEnv(), nil)
	var nonceErr *InvalidNonceError
	require.ErrorAs(t, err, &nonceErr)
	assert.Equal(t, uint32(0), nonceErr.Expected)
	assert.Equal(t, uint32(1), nonceErr.Got)
	assert.ErrorIs(t, err, ErrInvalidNonce)
	tx.Discard()

	_, err = run(t, s, "alice", transfer)
	require.NoError(t, err)
	n, err := view(t, s).AccountNonce(acc("alice"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)

	// replaying the same envelope fails
	tx = s.Begin()
	replay, err := NewTrustedCall(transfer).Sign(pair("alice"), 0, mrenclave, shard)
	require.NoError(t, err)
	assert.ErrorIs(t, replay.Execute(tx, testEnv(), nil), ErrInvalidNonce)
	tx.Discard()

	// a failed dispatch does not consume the nonce
	_, err = run(t, s, "alice", BalanceTransfer{From: acc("alice"), To: acc("bob"), Value: common.NewBalance(1000)})
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "Balance Transfer error: InsufficientBalance", dispatchErr.Cause)
	assert.ErrorIs(t, err, ErrDispatch)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	n, err = view(t, s).AccountNonce(acc("alice"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)
}

func TestPhaseGate(t *testing.T) {
	register := CeremoniesRegisterParticipant{Who: acc("alice"), Cid: testCid}
	attest := CeremoniesAttestAttendees{Who: acc("alice"), Cid: testCid, NumberOfParticipantsVote: 3}
	claims := CeremoniesAttestClaims{Who: acc("alice")}
	offset := CeremoniesSetMeetupTimeOffset{Who: acc("master"), Offset: -60}
	rewards := CeremoniesClaimRewards{Who: acc("alice"), Cid: testCid}
	upgrade := CeremoniesUpgradeRegistration{Who: acc("alice"), Cid: testCid, Proof: proofOf("alice", "alice", 0)}
	tests := []struct {
		name  string
		phase types.CeremonyPhase
		who   string
		call  Call
		msg   string
	}{
		{"register in assigning", types.Assigning, "alice", register, msgRegisterPhase},
		{"upgrade in assigning", types.Assigning, "alice", upgrade, msgUpgradePhase},
		{"unregister in assigning", types.Assigning, "alice", CeremoniesUnregisterParticipant{Who: acc("alice"), Cid: testCid}, msgUnregisterPhase},
		{"attest attendees in registering", types.Registering, "alice", attest, msgAttendeesPhase},
		{"attest attendees in assigning", types.Assigning, "alice", attest, msgAttendeesPhase},
		{"attest claims in registering", types.Registering, "alice", claims, msgClaimsPhase},
		{"claim rewards in assigning", types.Assigning, "alice", rewards, msgRewardsPhase},
		{"meetup time offset in registering", types.Registering, "master", offset, msgTimeOffsetPhase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			setPhase(t, s, tt.phase)
			_, err := run(t, s, tt.who, tt.call)
			var dispatchErr *DispatchError
			require.ErrorAs(t, err, &dispatchErr)
			assert.Equal(t, tt.msg, dispatchErr.Cause)
			n, err := view(t, s).AccountNonce(acc(tt.who))
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}

	s := newStore(t)
	setPhase(t, s, types.Attesting)
	_, err := run(t, s, "master", offset)
	require.NoError(t, err)
	v, err := view(t, s).MeetupTimeOffset()
	require.NoError(t, err)
	assert.Equal(t, int32(-60), v)
}

func TestPrivileges(t *testing.T) {
	s := newStore(t)
	setBalance := BalanceSetBalance{Root: acc("alice"), Who: acc("alice"), Free: common.NewBalance(1_000_000)}
	_, err := run(t, s, "alice", setBalance)
	var privErr *MissingPrivilegesError
	require.ErrorAs(t, err, &privErr)
	assert.Equal(t, acc("alice"), privErr.Account)
	assert.Equal(t, "MissingPrivileges", GetErrorName(err))
	assert.Equal(t, "S2", GetErrorCode(err))

	setBalance.Root = acc("root")
	_, err = run(t, s, "root", setBalance)
	require.NoError(t, err)

	_, err = run(t, s, "alice", BalanceShield{Enclave: acc("alice"), Who: acc("alice"), Value: common.NewBalance(1)})
	assert.ErrorIs(t, err, ErrRequireEnclaveSignerAccount)

	_, err = run(t, s, "bob", CeremoniesSetReputationLifetime{Who: acc("bob"), Lifetime: 9})
	assert.ErrorIs(t, err, ErrMissingPrivileges)
	_, err = run(t, s, "master", CeremoniesSetReputationLifetime{Who: acc("master"), Lifetime: 9})
	require.NoError(t, err)
	// the sudo key passes the ceremony master policy too
	_, err = run(t, s, "root", CeremoniesSetLocationTolerance{Who: acc("root"), Tolerance: 500})
	require.NoError(t, err)

	v := view(t, s)
	lifetime, err := v.ReputationLifetime()
	require.NoError(t, err)
	assert.Equal(t, uint32(9), lifetime)
	tol, err := v.LocationTolerance()
	require.NoError(t, err)
	assert.Equal(t, uint32(500), tol)
	free, err := v.FreeBalance(acc("alice"))
	require.NoError(t, err)
	assert.Equal(t, common.NewBalance(1_000_000), free)
}

func TestShieldUnshield(t *testing.T) {
	s := newStore(t)
	_, err := run(t, s, "enclave", BalanceShield{Enclave: acc("enclave"), Who: acc("bob"), Value: common.NewBalance(50)})
	require.NoError(t, err)

	unshield := BalanceUnshield{Incognito: acc("bob"), Beneficiary: acc("bob-l1"), Value: common.NewBalance(51), Shard: shard}
	calls, err := run(t, s, "bob", unshield)
	assert.ErrorIs(t, err, ErrMissingFunds)
	assert.Empty(t, calls)

	unshield.Value = common.NewBalance(20)
	tx := s.Begin()
	signed, err := NewTrustedCall(unshield).Sign(pair("bob"), 0, mrenclave, shard)
	require.NoError(t, err)
	var out []OpaqueCall
	require.NoError(t, signed.Execute(tx, testEnv(), &out))
	require.NoError(t, tx.Commit())

	require.Len(t, out, 1)
	hash, err := signed.Call.Hash()
	require.NoError(t, err)
	want := codec.MustMarshal(unshieldCall{
		Fn:          [2]byte{7, 1},
		Beneficiary: acc("bob-l1"),
		Value:       common.NewBalance(20),
		Shard:       shard,
		CallHash:    hash,
	})
	assert.Equal(t, OpaqueCall(want), out[0])
	assert.Len(t, out[0], 2+32+16+32+32)

	free, err := view(t, s).FreeBalance(acc("bob"))
	require.NoError(t, err)
	assert.Equal(t, common.NewBalance(30), free)

	// unshielding exactly the free balance empties the account
	unshield.Value = common.NewBalance(30)
	calls, err = run(t, s, "bob", unshield)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	free, err = view(t, s).FreeBalance(acc("bob"))
	require.NoError(t, err)
	assert.True(t, free.IsZero())
}

func TestCeremonyDispatch(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"alice", "bob", "charlie"} {
		_, err := run(t, s, name, CeremoniesRegisterParticipant{Who: acc(name), Cid: testCid})
		require.NoError(t, err, name)
	}
	_, err := run(t, s, "alice", CeremoniesRegisterParticipant{Who: acc("alice"), Cid: testCid})
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "Ceremonies register participant error: ParticipantAlreadyRegistered", dispatchErr.Cause)

	_, err = run(t, s, "alice", CeremoniesEndorseNewcomer{Who: acc("alice"), Cid: testCid, Newbie: acc("dave")})
	require.NoError(t, err)
	_, err = run(t, s, "dave", CeremoniesRegisterParticipant{Who: acc("dave"), Cid: testCid})
	require.NoError(t, err)

	cc := types.CommunityCeremony{Cid: testCid, Index: 1}
	v := view(t, s)
	typ, ok, err := v.Registered(cc, acc("dave"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.Endorsee, typ)

	_, err = run(t, s, "erin", CeremoniesRegisterParticipant{Who: acc("erin"), Cid: types.CommunityIdentifier{}})
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "Ceremonies register participant error: InexistentCommunity", dispatchErr.Cause)
}

func TestCallChangeSets(t *testing.T) {
	sign := func(c Call) TrustedCallSigned {
		s, err := NewTrustedCall(c).Sign(pair("alice"), 0, mrenclave, shard)
		require.NoError(t, err)
		return s
	}
	ceremony := [][]byte{ledger.KeyCurrentPhase, ledger.KeyCurrentCeremonyIndex, ledger.KeyCommunityIdentifiers}
	assert.Equal(t, ceremony, sign(CeremoniesRegisterParticipant{}).StorageHashesToUpdate())
	assert.Equal(t, ceremony, sign(CeremoniesAttestClaims{}).StorageHashesToUpdate())
	assert.Equal(t, [][]byte{ledger.KeyCurrentPhase, ledger.KeyCommunityIdentifiers},
		sign(CeremoniesClaimRewards{}).StorageHashesToUpdate())
	assert.Equal(t, [][]byte{ledger.KeyCurrentPhase}, sign(CeremoniesSetMeetupTimeOffset{}).StorageHashesToUpdate())
	endorse := sign(CeremoniesEndorseNewcomer{}).StorageHashesToUpdate()
	require.Len(t, endorse, 4)
	assert.Equal(t, common.StorageValueKey("EncointerCommunities", "Bootstrappers"), endorse[3])
	assert.Empty(t, sign(BalanceTransfer{}).StorageHashesToUpdate())
	assert.Empty(t, sign(CeremoniesPurgeCommunityCeremony{}).StorageHashesToUpdate())

	// callers may mutate the returned keys
	endorse[0][0] ^= 0xff
	assert.Equal(t, ledger.KeyCurrentPhase, sign(CeremoniesEndorseNewcomer{}).StorageHashesToUpdate()[0])
}

func TestErrorNames(t *testing.T) {
	assert.Equal(t, "No Error", GetErrorName(nil))
	assert.Equal(t, "InvalidNonce", GetErrorName(ErrInvalidNonce))
	err := &DispatchError{Cause: "x", Err: ledger.ErrBalanceTooLow}
	assert.True(t, errors.Is(err, ledger.ErrBalanceTooLow))
	assert.Equal(t, "S4", GetErrorCode(err))
}
