package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedArithmetic(t *testing.T) {
	a := FixedFromFloat(1.5)
	b := FixedFromFloat(2.25)
	sum, overflow := a.Add(b)
	require.False(t, overflow)
	assert.Equal(t, 3.75, sum.Float64())

	diff, overflow := a.Sub(b)
	require.False(t, overflow)
	assert.Equal(t, -0.75, diff.Float64())
	assert.True(t, diff.IsNegative())
	assert.Equal(t, -1, diff.Cmp(a))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(FixedFromFloat(1.5)))

	_, overflow = FixedFromInt(math.MaxInt64).Add(FixedFromInt(1))
	assert.True(t, overflow)
	_, overflow = FixedFromInt(math.MinInt64).Sub(FixedFromInt(1))
	assert.True(t, overflow)
}

func TestFixedEncoding(t *testing.T) {
	f := FixedFromInt(1)
	b := codec.MustMarshal(f)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, b)

	var back Fixed
	require.NoError(t, codec.UnmarshalExact(codec.MustMarshal(FixedFromFloat(-3.5)), &back))
	assert.Equal(t, -3.5, back.Float64())

	j, err := json.Marshal(FixedFromFloat(12.5))
	require.NoError(t, err)
	assert.Equal(t, `"12.5"`, string(j))
	require.NoError(t, json.Unmarshal(j, &back))
	assert.Equal(t, 12.5, back.Float64())
}

func TestCommunityIdentifier(t *testing.T) {
	cid := CommunityIdentifier{Geohash: [5]byte{'g', 'b', 's', 'u', 'v'}, Digest: [4]byte{1, 2, 3, 4}}
	s := cid.String()
	assert.Equal(t, "gbsuv", s[:5])

	parsed, err := ParseCommunityIdentifier(s)
	require.NoError(t, err)
	assert.Equal(t, cid, parsed)

	_, err = ParseCommunityIdentifier("gbsu")
	assert.Error(t, err)
	_, err = ParseCommunityIdentifier("gbsuv0OIl")
	assert.Error(t, err)

	j, err := json.Marshal(cid)
	require.NoError(t, err)
	var back CommunityIdentifier
	require.NoError(t, json.Unmarshal(j, &back))
	assert.Equal(t, cid, back)

	assert.Len(t, codec.MustMarshal(cid), 9)
}

func TestCeremonyPhase(t *testing.T) {
	assert.Equal(t, Assigning, Registering.Next())
	assert.Equal(t, Attesting, Assigning.Next())
	assert.Equal(t, Registering, Attesting.Next())
	p, err := ParseCeremonyPhase("ATTESTING")
	require.NoError(t, err)
	assert.Equal(t, Attesting, p)
	_, err = ParseCeremonyPhase("voting")
	assert.Error(t, err)
}

func TestClaimSigningPayloadExcludesSignature(t *testing.T) {
	pair := crypto.DevPair("alice")
	claim := ClaimOfAttendance{
		ClaimantPublic:                pair.AccountId(),
		CeremonyIndex:                 3,
		MeetupIndex:                   1,
		Location:                      Location{Lat: FixedFromFloat(47.3), Lon: FixedFromFloat(8.5)},
		Timestamp:                     1_700_000_000_000,
		NumberOfParticipantsConfirmed: 3,
	}
	payload := claim.SigningPayload()
	sig := pair.Sign(payload)
	claim.ClaimantSignature = &sig
	assert.Equal(t, payload, claim.SigningPayload())
	assert.True(t, crypto.Verify(*claim.ClaimantSignature, claim.SigningPayload(), claim.ClaimantPublic))

	// the payload ends in a None signature; the signed claim carries Some(sig)
	require.Equal(t, byte(0x00), payload[len(payload)-1])
	enc := codec.MustMarshal(claim)
	want := append(append([]byte{}, payload[:len(payload)-1]...), 0x01, byte(crypto.Ed25519))
	assert.Equal(t, append(want, sig.Bytes...), enc)

	var back ClaimOfAttendance
	require.NoError(t, codec.UnmarshalExact(enc, &back))
	assert.Equal(t, claim, back)

	back.ClaimantSignature = nil
	require.NoError(t, codec.UnmarshalExact(codec.MustMarshal(back), &back))
	assert.Nil(t, back.ClaimantSignature)
}

func TestProofOfAttendancePayload(t *testing.T) {
	p := ProofOfAttendance{ProverPublic: common.AccountId{7}, CeremonyIndex: 9}
	payload := p.SigningPayload()
	require.Len(t, payload, 36)
	assert.Equal(t, byte(7), payload[0])
	assert.Equal(t, byte(9), payload[32])
}

func TestApplyDemurrage(t *testing.T) {
	e := BalanceEntry{Principal: FixedFromInt(100), LastUpdate: 10}
	same := e.ApplyDemurrage(FixedFromFloat(0.01), 5)
	assert.Equal(t, e, same)

	decayed := e.ApplyDemurrage(FixedFromFloat(0.01), 110)
	assert.Equal(t, BlockNumber(110), decayed.LastUpdate)
	assert.InDelta(t, 100*math.Exp(-1), decayed.Principal.Float64(), 1e-9)

	none := e.ApplyDemurrage(Fixed{}, 110)
	assert.Equal(t, e.Principal, none.Principal)
}

func TestAggregatedAccountDataJSON(t *testing.T) {
	idx := MeetupIndex(2)
	data := AggregatedAccountData{
		Global:   GlobalMeetupData{CeremonyPhase: Attesting, CeremonyIndex: 4},
		Personal: &PersonalMeetupData{ParticipantType: Newbie, MeetupIndex: &idx},
	}
	b, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"meetup_index":2`)

	var back AggregatedAccountData
	require.NoError(t, codec.UnmarshalExact(codec.MustMarshal(data), &back))
	assert.Equal(t, data, back)
}
