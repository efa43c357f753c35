package ledger

import (
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/types"
)

const (
	palletSystem     = "System"
	palletSudo       = "Sudo"
	palletBalances   = "Balances"
	palletBalancesCC = "EncointerBalances"
	palletScheduler  = "EncointerScheduler"
	palletCommunity  = "EncointerCommunities"
	palletCeremonies = "EncointerCeremonies"
	palletEvm        = "Evm"
)

// Storage items as read by the state diff machinery. Names must match the
// runtime so change sets can be computed without touching the ledger.
var (
	KeyBlockNumber          = common.StorageValueKey(palletSystem, "Number")
	KeySudo                 = common.StorageValueKey(palletSudo, "Key")
	KeyTotalIssuance        = common.StorageValueKey(palletBalances, "TotalIssuance")
	KeyFeeConversionFactor  = common.StorageValueKey(palletBalancesCC, "FeeConversionFactor")
	KeyCurrentPhase         = common.StorageValueKey(palletScheduler, "CurrentPhase")
	KeyCurrentCeremonyIndex = common.StorageValueKey(palletScheduler, "CurrentCeremonyIndex")
	KeyNextPhaseTimestamp   = common.StorageValueKey(palletScheduler, "NextPhaseTimestamp")
	KeyCommunityIdentifiers = common.StorageValueKey(palletCommunity, "CommunityIdentifiers")

	KeyInactivityTimeout      = common.StorageValueKey(palletCeremonies, "InactivityTimeout")
	KeyTicketsPerBootstrapper = common.StorageValueKey(palletCeremonies, "EndorsementTicketsPerBootstrapper")
	KeyTicketsPerReputable    = common.StorageValueKey(palletCeremonies, "EndorsementTicketsPerReputable")
	KeyReputationLifetime     = common.StorageValueKey(palletCeremonies, "ReputationLifetime")
	KeyMeetupTimeOffset       = common.StorageValueKey(palletCeremonies, "MeetupTimeOffset")
	KeyTimeTolerance          = common.StorageValueKey(palletCeremonies, "TimeTolerance")
	KeyLocationTolerance      = common.StorageValueKey(palletCeremonies, "LocationTolerance")
)

const bc = common.Blake2_128ConcatHasher

func AccountKey(who common.AccountId) []byte {
	return common.StorageMapKey(palletSystem, "Account", who, bc)
}

func PhaseDurationsKey(phase types.CeremonyPhase) []byte {
	return common.StorageMapKey(palletScheduler, "PhaseDurations", phase, bc)
}

func BootstrappersKey(cid types.CommunityIdentifier) []byte {
	return common.StorageMapKey(palletCommunity, "Bootstrappers", cid, bc)
}

func NominalIncomeKey(cid types.CommunityIdentifier) []byte {
	return common.StorageMapKey(palletCommunity, "NominalIncome", cid, bc)
}

func LocationsKey(cid types.CommunityIdentifier) []byte {
	return common.StorageMapKey(palletCommunity, "Locations", cid, bc)
}

func DemurragePerBlockKey(cid types.CommunityIdentifier) []byte {
	return common.StorageMapKey(palletBalancesCC, "DemurragePerBlock", cid, bc)
}

func CommunityIssuanceKey(cid types.CommunityIdentifier) []byte {
	return common.StorageMapKey(palletBalancesCC, "TotalIssuance", cid, bc)
}

func CommunityBalanceKey(cid types.CommunityIdentifier, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletBalancesCC, "Balance", cid, bc, who, bc)
}

// registry names one of the four participant registries.
type registry struct {
	Type  types.ParticipantType
	Items string
	Index string
	Count string
}

var registries = [...]registry{
	types.Bootstrapper: {types.Bootstrapper, "BootstrapperRegistry", "BootstrapperIndex", "BootstrapperCount"},
	types.Reputable:    {types.Reputable, "ReputableRegistry", "ReputableIndex", "ReputableCount"},
	types.Endorsee:     {types.Endorsee, "EndorseeRegistry", "EndorseeIndex", "EndorseeCount"},
	types.Newbie:       {types.Newbie, "NewbieRegistry", "NewbieIndex", "NewbieCount"},
}

func RegistryKey(t types.ParticipantType, cc types.CommunityCeremony, idx types.ParticipantIndex) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, registries[t].Items, cc, bc, idx, bc)
}

func RegistryIndexKey(t types.ParticipantType, cc types.CommunityCeremony, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, registries[t].Index, cc, bc, who, bc)
}

func RegistryCountKey(t types.ParticipantType, cc types.CommunityCeremony) []byte {
	return common.StorageMapKey(palletCeremonies, registries[t].Count, cc, bc)
}

func AssignmentCountsKey(cc types.CommunityCeremony) []byte {
	return common.StorageMapKey(palletCeremonies, "AssignmentCounts", cc, bc)
}

func AssignmentsKey(cc types.CommunityCeremony) []byte {
	return common.StorageMapKey(palletCeremonies, "Assignments", cc, bc)
}

func MeetupCountKey(cc types.CommunityCeremony) []byte {
	return common.StorageMapKey(palletCeremonies, "MeetupCount", cc, bc)
}

// MeetupAssignmentKey stores the output of the assignment algorithm per participant.
func MeetupAssignmentKey(cc types.CommunityCeremony, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "MeetupAssignment", cc, bc, who, bc)
}

func AttestationRegistryKey(cc types.CommunityCeremony, idx types.AttestationIndex) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "AttestationRegistry", cc, bc, idx, bc)
}

func AttestationIndexKey(cc types.CommunityCeremony, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "AttestationIndex", cc, bc, who, bc)
}

func AttestationCountKey(cc types.CommunityCeremony) []byte {
	return common.StorageMapKey(palletCeremonies, "AttestationCount", cc, bc)
}

func MeetupParticipantCountVoteKey(cc types.CommunityCeremony, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "MeetupParticipantCountVote", cc, bc, who, bc)
}

func ParticipantReputationKey(cc types.CommunityCeremony, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "ParticipantReputation", cc, bc, who, bc)
}

func EndorseesKey(cc types.CommunityCeremony, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "Endorsees", cc, bc, who, bc)
}

func EndorseesCountKey(cc types.CommunityCeremony) []byte {
	return common.StorageMapKey(palletCeremonies, "EndorseesCount", cc, bc)
}

func BurnedBootstrapperTicketsKey(cid types.CommunityIdentifier, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "BurnedBootstrapperNewbieTickets", cid, bc, who, bc)
}

func BurnedReputableTicketsKey(cc types.CommunityCeremony, who common.AccountId) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "BurnedReputableNewbieTickets", cc, bc, who, bc)
}

func IssuedRewardsKey(cc types.CommunityCeremony, m types.MeetupIndex) []byte {
	return common.StorageDoubleMapKey(palletCeremonies, "IssuedRewards", cc, bc, m, bc)
}

func EvmAccountCodesKey(addr common.Address) []byte {
	return common.StorageMapKey(palletEvm, "AccountCodes", addr, bc)
}

func EvmAccountStoragesKey(addr common.Address, slot common.Hash) []byte {
	return common.StorageDoubleMapKey(palletEvm, "AccountStorages", addr, bc, slot, bc)
}
