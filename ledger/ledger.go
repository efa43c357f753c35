package ledger

import (
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/types"
)

// Reader is the read side of the ledger used by getters and call validation.
type Reader interface {
	Raw(key []byte) ([]byte, bool, error)

	AccountInfo(who common.AccountId) (AccountInfo, error)
	AccountNonce(who common.AccountId) (uint32, error)
	FreeBalance(who common.AccountId) (common.Balance, error)
	ReservedBalance(who common.AccountId) (common.Balance, error)
	TotalIssuance() (common.Balance, error)
	SudoKey() (common.AccountId, bool, error)
	BlockNumber() (uint32, error)

	CommunityBalance(cid types.CommunityIdentifier, who common.AccountId) (types.BalanceType, error)
	CommunityTotalIssuance(cid types.CommunityIdentifier) (types.BalanceType, error)
	DemurragePerBlock(cid types.CommunityIdentifier) (types.Demurrage, error)
	FeeConversionFactor() (common.Balance, error)

	CurrentPhase() (types.CeremonyPhase, error)
	CurrentCeremonyIndex() (types.CeremonyIndex, error)
	PhaseDuration(p types.CeremonyPhase) (types.Moment, error)
	NextPhaseTimestamp() (types.Moment, error)
	CommunityIdentifiers() ([]types.CommunityIdentifier, error)
	Bootstrappers(cid types.CommunityIdentifier) ([]common.AccountId, error)
	NominalIncome(cid types.CommunityIdentifier) (types.BalanceType, error)
	Locations(cid types.CommunityIdentifier) ([]types.Location, error)

	RegistryCount(t types.ParticipantType, cc types.CommunityCeremony) (types.ParticipantIndex, error)
	RegistryEntry(t types.ParticipantType, cc types.CommunityCeremony, idx types.ParticipantIndex) (common.AccountId, bool, error)
	RegistryIndex(t types.ParticipantType, cc types.CommunityCeremony, who common.AccountId) (types.ParticipantIndex, bool, error)
	Registered(cc types.CommunityCeremony, who common.AccountId) (types.ParticipantType, bool, error)
	Participants(cc types.CommunityCeremony) ([]common.AccountId, error)
	Reputation(cc types.CommunityCeremony, who common.AccountId) (types.Reputation, error)
	MeetupAssignment(cc types.CommunityCeremony, who common.AccountId) (types.MeetupAssignment, bool, error)
	MeetupParticipants(cc types.CommunityCeremony, m types.MeetupIndex) ([]common.AccountId, error)
	AssignmentCounts(cc types.CommunityCeremony) (types.AssignmentCount, error)
	Assignments(cc types.CommunityCeremony) (types.Assignment, error)
	MeetupCount(cc types.CommunityCeremony) (types.MeetupIndex, error)
	AttestationCount(cc types.CommunityCeremony) (types.AttestationIndex, error)
	Attestees(cc types.CommunityCeremony, idx types.AttestationIndex) ([]common.AccountId, bool, error)
	AttestationIndex(cc types.CommunityCeremony, who common.AccountId) (types.AttestationIndex, bool, error)
	MeetupParticipantCountVote(cc types.CommunityCeremony, who common.AccountId) (uint32, bool, error)
	AggregatedAccountData(cid types.CommunityIdentifier, who common.AccountId) (types.AggregatedAccountData, error)

	InactivityTimeout() (uint32, error)
	EndorsementTicketsPerBootstrapper() (uint8, error)
	EndorsementTicketsPerReputable() (uint8, error)
	ReputationLifetime() (uint32, error)
	MeetupTimeOffset() (int32, error)
	TimeTolerance() (uint64, error)
	LocationTolerance() (uint32, error)

	EvmCode(addr common.Address) ([]byte, bool, error)
	EvmStorage(addr common.Address, slot common.Hash) (common.Hash, bool, error)
}

// Writer is the mutating side used by call dispatch.
type Writer interface {
	Reader

	IncAccountNonce(who common.AccountId) error
	SetBalance(who common.AccountId, free, reserved common.Balance) error
	Transfer(from, to common.AccountId, value common.Balance) error
	Deposit(who common.AccountId, value common.Balance) error

	TransferCommunity(cid types.CommunityIdentifier, from, to common.AccountId, amount types.BalanceType) error
	TransferAllCommunity(cid types.CommunityIdentifier, from, to common.AccountId) error
	SetFeeConversionFactor(f common.Balance) error

	RegisterParticipant(cid types.CommunityIdentifier, who common.AccountId, proof *types.ProofOfAttendance) (types.ParticipantType, error)
	UpgradeRegistration(cid types.CommunityIdentifier, who common.AccountId, proof types.ProofOfAttendance) error
	UnregisterParticipant(cid types.CommunityIdentifier, who common.AccountId, linked *types.CommunityCeremony) error
	AttestAttendees(cid types.CommunityIdentifier, who common.AccountId, vote uint32, attestees []common.AccountId) (int, error)
	AttestClaims(who common.AccountId, claims []types.ClaimOfAttendance) (int, error)
	EndorseNewcomer(cid types.CommunityIdentifier, who, newbie common.AccountId) error
	ClaimRewards(cid types.CommunityIdentifier, who common.AccountId, meetup *types.MeetupIndex) (int, error)
	PurgeCommunityCeremony(cc types.CommunityCeremony) error

	SetInactivityTimeout(v uint32) error
	SetEndorsementTicketsPerBootstrapper(v uint8) error
	SetEndorsementTicketsPerReputable(v uint8) error
	SetReputationLifetime(v uint32) error
	SetMeetupTimeOffset(v int32) error
	SetTimeTolerance(v uint64) error
	SetLocationTolerance(v uint32) error

	SetEvmCode(addr common.Address, code []byte) error
	SetEvmStorage(addr common.Address, slot, value common.Hash) error
}

var (
	_ Reader = (*State)(nil)
	_ Writer = (*State)(nil)
)
