package stf

import (
	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/types"
)

// Public getter variants.
type (
	SomeValue struct{}

	EncointerTotalIssuance struct {
		Cid types.CommunityIdentifier
	}

	// CeremonyQuery addresses one community ceremony.
	CeremonyQuery struct {
		Cid    types.CommunityIdentifier
		Cindex types.CeremonyIndex
	}

	CeremoniesAssignmentCounts             struct{ CeremonyQuery }
	CeremoniesAttestationCount             struct{ CeremonyQuery }
	CeremoniesMeetupCount                  struct{ CeremonyQuery }
	CeremoniesMeetupTimeOffset             struct{}
	CeremoniesRegisteredBootstrappersCount struct{ CeremonyQuery }
	CeremoniesRegisteredEndorseesCount     struct{ CeremonyQuery }
	CeremoniesRegisteredNewbiesCount       struct{ CeremonyQuery }
	CeremoniesRegisteredReputablesCount    struct{ CeremonyQuery }

	CeremoniesReward struct {
		Cid types.CommunityIdentifier
	}
)

func (q CeremonyQuery) cc() types.CommunityCeremony {
	return types.CommunityCeremony{Cid: q.Cid, Index: q.Cindex}
}

// Trusted getter variants. Who is the signer.
type (
	FreeBalance struct {
		Who common.AccountId
	}

	ReservedBalance struct {
		Who common.AccountId
	}

	Nonce struct {
		Who common.AccountId
	}

	EncointerBalance struct {
		Who common.AccountId
		Cid types.CommunityIdentifier
	}

	CeremoniesAggregatedAccountData struct {
		Who     common.AccountId
		Cid     types.CommunityIdentifier
		Account common.AccountId
	}

	// RegistryQuery addresses a whole ceremony on behalf of Who.
	RegistryQuery struct {
		Who    common.AccountId
		Cid    types.CommunityIdentifier
		Cindex types.CeremonyIndex
	}

	// ParticipantQuery addresses one participant of a ceremony.
	ParticipantQuery struct {
		Who     common.AccountId
		Cid     types.CommunityIdentifier
		Cindex  types.CeremonyIndex
		Account common.AccountId
	}

	// RegistrySlot addresses one registry index of a ceremony.
	RegistrySlot struct {
		Who    common.AccountId
		Cid    types.CommunityIdentifier
		Cindex types.CeremonyIndex
		Index  uint64
	}

	CeremoniesAssignments                  struct{ RegistryQuery }
	CeremoniesMeetupParticipantCountVote   struct{ ParticipantQuery }
	CeremoniesParticipantAttestees         struct{ RegistrySlot }
	CeremoniesParticipantAttestationIndex  struct{ ParticipantQuery }
	CeremoniesRegisteredBootstrapper       struct{ RegistrySlot }
	CeremoniesRegisteredBootstrappers      struct{ RegistryQuery }
	CeremoniesRegisteredReputable          struct{ RegistrySlot }
	CeremoniesRegisteredReputables         struct{ RegistryQuery }
	CeremoniesRegisteredEndorsee           struct{ RegistrySlot }
	CeremoniesRegisteredEndorsees          struct{ RegistryQuery }
	CeremoniesRegisteredNewbie             struct{ RegistrySlot }
	CeremoniesRegisteredNewbies            struct{ RegistryQuery }
)

func (q FreeBalance) Signer() common.AccountId                     { return q.Who }
func (q ReservedBalance) Signer() common.AccountId                 { return q.Who }
func (q Nonce) Signer() common.AccountId                           { return q.Who }
func (q EncointerBalance) Signer() common.AccountId                { return q.Who }
func (q CeremoniesAggregatedAccountData) Signer() common.AccountId { return q.Who }
func (q RegistryQuery) Signer() common.AccountId                   { return q.Who }
func (q ParticipantQuery) Signer() common.AccountId                { return q.Who }
func (q RegistrySlot) Signer() common.AccountId                    { return q.Who }

func (q RegistryQuery) registry() RegistryQuery { return q }
func (q RegistrySlot) slot() RegistrySlot       { return q }

func (q RegistryQuery) cc() types.CommunityCeremony {
	return types.CommunityCeremony{Cid: q.Cid, Index: q.Cindex}
}

func (q ParticipantQuery) cc() types.CommunityCeremony {
	return types.CommunityCeremony{Cid: q.Cid, Index: q.Cindex}
}

func (q RegistrySlot) cc() types.CommunityCeremony {
	return types.CommunityCeremony{Cid: q.Cid, Index: q.Cindex}
}

func init() {
	RegisterPublicGetter(GetterSpec{Index: 0, Name: "some_value", Variant: SomeValue{},
		Execute: HandleGetter(someValue)})
	RegisterPublicGetter(GetterSpec{Index: 1, Name: "encointer_total_issuance", Variant: EncointerTotalIssuance{},
		Execute: HandleGetter(totalIssuance)})
	RegisterPublicGetter(GetterSpec{Index: 2, Name: "ceremonies_assignment_counts", Variant: CeremoniesAssignmentCounts{},
		Execute: HandleGetter(assignmentCounts)})
	RegisterPublicGetter(GetterSpec{Index: 3, Name: "ceremonies_attestation_count", Variant: CeremoniesAttestationCount{},
		Execute: HandleGetter(attestationCount)})
	RegisterPublicGetter(GetterSpec{Index: 4, Name: "ceremonies_meetup_count", Variant: CeremoniesMeetupCount{},
		Execute: HandleGetter(meetupCount)})
	RegisterPublicGetter(GetterSpec{Index: 5, Name: "ceremonies_meetup_time_offset", Variant: CeremoniesMeetupTimeOffset{},
		Execute: HandleGetter(meetupTimeOffset)})
	RegisterPublicGetter(GetterSpec{Index: 6, Name: "ceremonies_registered_bootstrappers_count", Variant: CeremoniesRegisteredBootstrappersCount{},
		Execute: registeredCount(types.Bootstrapper)})
	RegisterPublicGetter(GetterSpec{Index: 7, Name: "ceremonies_registered_endorsees_count", Variant: CeremoniesRegisteredEndorseesCount{},
		Execute: registeredCount(types.Endorsee)})
	RegisterPublicGetter(GetterSpec{Index: 8, Name: "ceremonies_registered_newbies_count", Variant: CeremoniesRegisteredNewbiesCount{},
		Execute: registeredCount(types.Newbie)})
	RegisterPublicGetter(GetterSpec{Index: 9, Name: "ceremonies_registered_reputables_count", Variant: CeremoniesRegisteredReputablesCount{},
		Execute: registeredCount(types.Reputable)})
	RegisterPublicGetter(GetterSpec{Index: 10, Name: "ceremonies_reward", Variant: CeremoniesReward{},
		Execute: HandleGetter(reward), StorageKeys: GetterKeys(rewardKeys)})

	RegisterTrustedGetter(GetterSpec{Index: 0, Name: "free_balance", Variant: FreeBalance{},
		Execute: HandleGetter(freeBalance)})
	RegisterTrustedGetter(GetterSpec{Index: 1, Name: "reserved_balance", Variant: ReservedBalance{},
		Execute: HandleGetter(reservedBalance)})
	RegisterTrustedGetter(GetterSpec{Index: 2, Name: "nonce", Variant: Nonce{},
		Execute: HandleGetter(nonce)})
	RegisterTrustedGetter(GetterSpec{Index: 3, Name: "encointer_balance", Variant: EncointerBalance{},
		Execute: HandleGetter(encointerBalance), StorageKeys: GetterKeys(encointerBalanceKeys)})
	RegisterTrustedGetter(GetterSpec{Index: 4, Name: "ceremonies_aggregated_account_data", Variant: CeremoniesAggregatedAccountData{},
		Confidential: true, Execute: HandleGetter(aggregatedAccountData), StorageKeys: GetterKeys(aggregatedAccountDataKeys)})
	RegisterTrustedGetter(GetterSpec{Index: 5, Name: "ceremonies_assignments", Variant: CeremoniesAssignments{},
		Confidential: true, Execute: HandleGetter(assignments)})
	RegisterTrustedGetter(GetterSpec{Index: 6, Name: "ceremonies_meetup_participant_count_vote", Variant: CeremoniesMeetupParticipantCountVote{},
		Confidential: true, Execute: HandleGetter(participantCountVote)})
	RegisterTrustedGetter(GetterSpec{Index: 7, Name: "ceremonies_participant_attestees", Variant: CeremoniesParticipantAttestees{},
		Confidential: true, Execute: HandleGetter(participantAttestees)})
	RegisterTrustedGetter(GetterSpec{Index: 8, Name: "ceremonies_participant_attestation_index", Variant: CeremoniesParticipantAttestationIndex{},
		Confidential: true, Execute: HandleGetter(participantAttestationIndex)})
	RegisterTrustedGetter(GetterSpec{Index: 9, Name: "ceremonies_registered_bootstrapper", Variant: CeremoniesRegisteredBootstrapper{},
		Confidential: true, Execute: registeredAt(types.Bootstrapper)})
	RegisterTrustedGetter(GetterSpec{Index: 10, Name: "ceremonies_registered_bootstrappers", Variant: CeremoniesRegisteredBootstrappers{},
		Confidential: true, Execute: registeredAll(types.Bootstrapper)})
	RegisterTrustedGetter(GetterSpec{Index: 11, Name: "ceremonies_registered_reputable", Variant: CeremoniesRegisteredReputable{},
		Confidential: true, Execute: registeredAt(types.Reputable)})
	RegisterTrustedGetter(GetterSpec{Index: 12, Name: "ceremonies_registered_reputables", Variant: CeremoniesRegisteredReputables{},
		Confidential: true, Execute: registeredAll(types.Reputable)})
	RegisterTrustedGetter(GetterSpec{Index: 13, Name: "ceremonies_registered_endorsee", Variant: CeremoniesRegisteredEndorsee{},
		Confidential: true, Execute: registeredAt(types.Endorsee)})
	RegisterTrustedGetter(GetterSpec{Index: 14, Name: "ceremonies_registered_endorsees", Variant: CeremoniesRegisteredEndorsees{},
		Confidential: true, Execute: registeredAll(types.Endorsee)})
	RegisterTrustedGetter(GetterSpec{Index: 15, Name: "ceremonies_registered_newbie", Variant: CeremoniesRegisteredNewbie{},
		Confidential: true, Execute: registeredAt(types.Newbie)})
	RegisterTrustedGetter(GetterSpec{Index: 16, Name: "ceremonies_registered_newbies", Variant: CeremoniesRegisteredNewbies{},
		Confidential: true, Execute: registeredAll(types.Newbie)})
}

// EncodeResult returns the SCALE encoding of v as a getter result.
func EncodeResult(v interface{}) ([]byte, bool, error) {
	enc, err := codec.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	return enc, true, nil
}

func someValue(ledger.Reader, SomeValue) ([]byte, bool, error) {
	return EncodeResult(uint32(42))
}

func totalIssuance(r ledger.Reader, q EncointerTotalIssuance) ([]byte, bool, error) {
	v, err := r.CommunityTotalIssuance(q.Cid)
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func assignmentCounts(r ledger.Reader, q CeremoniesAssignmentCounts) ([]byte, bool, error) {
	v, err := r.AssignmentCounts(q.cc())
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func attestationCount(r ledger.Reader, q CeremoniesAttestationCount) ([]byte, bool, error) {
	v, err := r.AttestationCount(q.cc())
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func meetupCount(r ledger.Reader, q CeremoniesMeetupCount) ([]byte, bool, error) {
	v, err := r.MeetupCount(q.cc())
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func meetupTimeOffset(r ledger.Reader, _ CeremoniesMeetupTimeOffset) ([]byte, bool, error) {
	v, err := r.MeetupTimeOffset()
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func registeredCount(t types.ParticipantType) func(ledger.Reader, interface{}) ([]byte, bool, error) {
	return func(r ledger.Reader, q interface{}) ([]byte, bool, error) {
		cq := q.(interface{ cc() types.CommunityCeremony })
		v, err := r.RegistryCount(t, cq.cc())
		if err != nil {
			return nil, false, err
		}
		return EncodeResult(v)
	}
}

func reward(r ledger.Reader, q CeremoniesReward) ([]byte, bool, error) {
	v, err := r.NominalIncome(q.Cid)
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func rewardKeys(_ ledger.Reader, q CeremoniesReward) ([][]byte, error) {
	return keys(ledger.NominalIncomeKey(q.Cid)), nil
}

func freeBalance(r ledger.Reader, q FreeBalance) ([]byte, bool, error) {
	v, err := r.FreeBalance(q.Who)
	if err != nil {
		return nil, false, err
	}
	log.Debug(log.GetterMonitoring, "free_balance", "who", q.Who.Short(), "free", v)
	return EncodeResult(v)
}

func reservedBalance(r ledger.Reader, q ReservedBalance) ([]byte, bool, error) {
	v, err := r.ReservedBalance(q.Who)
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func nonce(r ledger.Reader, q Nonce) ([]byte, bool, error) {
	v, err := r.AccountNonce(q.Who)
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func encointerBalance(r ledger.Reader, q EncointerBalance) ([]byte, bool, error) {
	v, err := r.CommunityBalance(q.Cid, q.Who)
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func encointerBalanceKeys(_ ledger.Reader, q EncointerBalance) ([][]byte, error) {
	return keys(ledger.DemurragePerBlockKey(q.Cid)), nil
}

func aggregatedAccountData(r ledger.Reader, q CeremoniesAggregatedAccountData) ([]byte, bool, error) {
	v, err := r.AggregatedAccountData(q.Cid, q.Account)
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func aggregatedAccountDataKeys(r ledger.Reader, _ CeremoniesAggregatedAccountData) ([][]byte, error) {
	phase, err := r.CurrentPhase()
	if err != nil {
		return nil, err
	}
	return keys(ledger.KeyCurrentPhase, ledger.KeyCurrentCeremonyIndex, ledger.PhaseDurationsKey(phase), ledger.KeyNextPhaseTimestamp), nil
}

func assignments(r ledger.Reader, q CeremoniesAssignments) ([]byte, bool, error) {
	v, err := r.Assignments(q.cc())
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func participantCountVote(r ledger.Reader, q CeremoniesMeetupParticipantCountVote) ([]byte, bool, error) {
	v, _, err := r.MeetupParticipantCountVote(q.cc(), q.Account)
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func participantAttestees(r ledger.Reader, q CeremoniesParticipantAttestees) ([]byte, bool, error) {
	v, ok, err := r.Attestees(q.cc(), q.Index)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		log.Warn(log.GetterMonitoring, "no attestees", "cid", q.Cid, "cindex", q.Cindex, "index", q.Index)
		return nil, false, nil
	}
	return EncodeResult(v)
}

func participantAttestationIndex(r ledger.Reader, q CeremoniesParticipantAttestationIndex) ([]byte, bool, error) {
	v, _, err := r.AttestationIndex(q.cc(), q.Account)
	if err != nil {
		return nil, false, err
	}
	return EncodeResult(v)
}

func registeredAt(t types.ParticipantType) func(ledger.Reader, interface{}) ([]byte, bool, error) {
	return func(r ledger.Reader, q interface{}) ([]byte, bool, error) {
		s := q.(interface{ slot() RegistrySlot }).slot()
		who, ok, err := r.RegistryEntry(t, s.cc(), s.Index)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			log.Warn(log.GetterMonitoring, "no "+t.String(), "cid", s.Cid, "cindex", s.Cindex, "index", s.Index)
			return nil, false, nil
		}
		return EncodeResult(who)
	}
}

// maxListPrealloc caps the capacity reserved from a count read out of state.
const maxListPrealloc = 1024

// registeredAll collects registry slots 1..=count, skipping empty ones.
func registeredAll(t types.ParticipantType) func(ledger.Reader, interface{}) ([]byte, bool, error) {
	return func(r ledger.Reader, q interface{}) ([]byte, bool, error) {
		rq := q.(interface{ registry() RegistryQuery }).registry()
		cc := rq.cc()
		count, err := r.RegistryCount(t, cc)
		if err != nil {
			return nil, false, err
		}
		log.Debug(log.GetterMonitoring, "registered participants", "type", t, "cc", cc, "count", count)
		participants := make([]common.AccountId, 0, min(count, maxListPrealloc))
		for i := uint64(1); i <= count; i++ {
			who, ok, err := r.RegistryEntry(t, cc, i)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				log.Warn(log.GetterMonitoring, "no "+t.String(), "cid", rq.Cid, "cindex", rq.Cindex, "index", i)
				continue
			}
			participants = append(participants, who)
		}
		return EncodeResult(participants)
	}
}
