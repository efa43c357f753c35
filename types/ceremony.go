// Package types holds the community-currency and ceremony data model shared by
// the ledger and the state transition function.
package types

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
)

type (
	CeremonyIndex    = uint32
	ParticipantIndex = uint64
	MeetupIndex      = uint64
	AttestationIndex = uint64
	Moment           = uint64
	BlockNumber      = uint32
)

// CeremonyPhase is the scheduler phase of the current ceremony cycle.
type CeremonyPhase uint8

const (
	Registering CeremonyPhase = iota
	Assigning
	Attesting
)

func (p CeremonyPhase) String() string {
	switch p {
	case Registering:
		return "Registering"
	case Assigning:
		return "Assigning"
	case Attesting:
		return "Attesting"
	}
	return fmt.Sprintf("CeremonyPhase(%d)", uint8(p))
}

func ParseCeremonyPhase(s string) (CeremonyPhase, error) {
	switch strings.ToLower(s) {
	case "registering":
		return Registering, nil
	case "assigning":
		return Assigning, nil
	case "attesting":
		return Attesting, nil
	}
	return 0, fmt.Errorf("unknown ceremony phase %q", s)
}

// Next returns the phase that follows p in the cycle.
func (p CeremonyPhase) Next() CeremonyPhase {
	return (p + 1) % 3
}

// CommunityCeremony names one ceremony of one community.
type CommunityCeremony struct {
	Cid   CommunityIdentifier
	Index CeremonyIndex
}

func (cc CommunityCeremony) String() string {
	return fmt.Sprintf("%s#%d", cc.Cid, cc.Index)
}

type ParticipantType uint8

const (
	Bootstrapper ParticipantType = iota
	Reputable
	Endorsee
	Newbie
)

func (t ParticipantType) String() string {
	switch t {
	case Bootstrapper:
		return "Bootstrapper"
	case Reputable:
		return "Reputable"
	case Endorsee:
		return "Endorsee"
	case Newbie:
		return "Newbie"
	}
	return fmt.Sprintf("ParticipantType(%d)", uint8(t))
}

// Reputation is what a participant earned at a past ceremony.
type Reputation uint8

const (
	Unverified Reputation = iota
	UnverifiedReputable
	VerifiedUnlinked
	VerifiedLinked
)

func (r Reputation) IsVerified() bool {
	return r == VerifiedUnlinked || r == VerifiedLinked
}

// ProofOfAttendance shows that AttendeePublic attended a past ceremony and
// that ProverPublic may use it.
type ProofOfAttendance struct {
	ProverPublic        common.AccountId
	CommunityIdentifier CommunityIdentifier
	CeremonyIndex       CeremonyIndex
	AttendeePublic      common.AccountId
	AttendeeSignature   crypto.MultiSignature
}

// SigningPayload is what the attendee signs: (prover, ceremony index).
func (p ProofOfAttendance) SigningPayload() []byte {
	out := make([]byte, 0, 36)
	out = append(out, p.ProverPublic.Bytes()...)
	return append(out, common.Uint32ToBytes(p.CeremonyIndex)...)
}

// ClaimOfAttendance is a participant's claim to have met at a meetup.
type ClaimOfAttendance struct {
	ClaimantPublic                common.AccountId
	CeremonyIndex                 CeremonyIndex
	CommunityIdentifier           CommunityIdentifier
	MeetupIndex                   MeetupIndex
	Location                      Location
	Timestamp                     Moment
	NumberOfParticipantsConfirmed uint32
	ClaimantSignature             *crypto.MultiSignature
}

// SigningPayload is the claim encoded without its signature.
func (c ClaimOfAttendance) SigningPayload() []byte {
	unsigned := c
	unsigned.ClaimantSignature = nil
	return codec.MustMarshal(unsigned)
}

// AssignmentParams are the coprime parameters of one meetup assignment function.
type AssignmentParams struct {
	M  uint64
	S1 uint64
	S2 uint64
}

// Assignment holds the assignment functions of a ceremony.
type Assignment struct {
	BootstrappersReputables AssignmentParams
	Endorsees               AssignmentParams
	Newbies                 AssignmentParams
	Locations               AssignmentParams
}

// AssignmentCount is how many participants of each type were assigned.
type AssignmentCount struct {
	Bootstrappers uint64
	Reputables    uint64
	Endorsees     uint64
	Newbies       uint64
}

func (a AssignmentCount) Total() uint64 {
	return a.Bootstrappers + a.Reputables + a.Endorsees + a.Newbies
}

// MeetupAssignment is where and when a participant meets, as produced by
// the assignment algorithm.
type MeetupAssignment struct {
	Index         MeetupIndex
	LocationIndex uint64
	Time          Moment
}

type GlobalMeetupData struct {
	CeremonyPhase CeremonyPhase `json:"ceremony_phase"`
	CeremonyIndex CeremonyIndex `json:"ceremony_index"`
}

type PersonalMeetupData struct {
	ParticipantType     ParticipantType     `json:"participant_type"`
	MeetupIndex         *MeetupIndex        `json:"meetup_index"`
	MeetupLocationIndex *uint64             `json:"meetup_location_index"`
	MeetupTime          *Moment             `json:"meetup_time"`
	MeetupRegistry      *[]common.AccountId `json:"meetup_registry"`
}

// AggregatedAccountData is the one-shot view a wallet needs of a participant.
type AggregatedAccountData struct {
	Global   GlobalMeetupData    `json:"global"`
	Personal *PersonalMeetupData `json:"personal"`
}
