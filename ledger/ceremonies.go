package ledger

import (
	"fmt"
	"math"
	"slices"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/types"
)

type unit struct{}

var participantTypes = []types.ParticipantType{types.Bootstrapper, types.Reputable, types.Endorsee, types.Newbie}

func (s *State) RegistryCount(t types.ParticipantType, cc types.CommunityCeremony) (types.ParticipantIndex, error) {
	return getOrDefault[types.ParticipantIndex](s, RegistryCountKey(t, cc))
}

// RegistryEntry returns the participant at 1-based index idx.
func (s *State) RegistryEntry(t types.ParticipantType, cc types.CommunityCeremony, idx types.ParticipantIndex) (common.AccountId, bool, error) {
	return get[common.AccountId](s, RegistryKey(t, cc, idx))
}

func (s *State) RegistryIndex(t types.ParticipantType, cc types.CommunityCeremony, who common.AccountId) (types.ParticipantIndex, bool, error) {
	return get[types.ParticipantIndex](s, RegistryIndexKey(t, cc, who))
}

// Registered returns the registry who is in for cc, if any.
func (s *State) Registered(cc types.CommunityCeremony, who common.AccountId) (types.ParticipantType, bool, error) {
	for _, t := range participantTypes {
		ok, err := has(s, RegistryIndexKey(t, cc, who))
		if err != nil {
			return 0, false, err
		}
		if ok {
			return t, true, nil
		}
	}
	return 0, false, nil
}

// Participants lists every registered participant of cc, bootstrappers first.
func (s *State) Participants(cc types.CommunityCeremony) ([]common.AccountId, error) {
	var out []common.AccountId
	for _, t := range participantTypes {
		n, err := s.RegistryCount(t, cc)
		if err != nil {
			return nil, err
		}
		for i := types.ParticipantIndex(1); i <= n; i++ {
			who, ok, err := s.RegistryEntry(t, cc, i)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, who)
			}
		}
	}
	return out, nil
}

func (s *State) addToRegistry(t types.ParticipantType, cc types.CommunityCeremony, who common.AccountId) (types.ParticipantIndex, error) {
	n, err := s.RegistryCount(t, cc)
	if err != nil {
		return 0, err
	}
	n++
	if err := s.put(RegistryKey(t, cc, n), who); err != nil {
		return 0, err
	}
	if err := s.put(RegistryIndexKey(t, cc, who), n); err != nil {
		return 0, err
	}
	return n, s.put(RegistryCountKey(t, cc), n)
}

// removeFromRegistry moves the last participant into the freed slot.
func (s *State) removeFromRegistry(t types.ParticipantType, cc types.CommunityCeremony, who common.AccountId) error {
	idx, ok, err := s.RegistryIndex(t, cc, who)
	if err != nil {
		return err
	}
	if !ok {
		return ErrParticipantIsNotRegistered
	}
	last, err := s.RegistryCount(t, cc)
	if err != nil {
		return err
	}
	if idx != last {
		moved, ok, err := s.RegistryEntry(t, cc, last)
		if err != nil {
			return err
		}
		if ok {
			if err := s.put(RegistryKey(t, cc, idx), moved); err != nil {
				return err
			}
			if err := s.put(RegistryIndexKey(t, cc, moved), idx); err != nil {
				return err
			}
		}
	}
	if err := s.del(RegistryKey(t, cc, last)); err != nil {
		return err
	}
	if err := s.del(RegistryIndexKey(t, cc, who)); err != nil {
		return err
	}
	return s.put(RegistryCountKey(t, cc), last-1)
}

// registrationCeremony is the ceremony new registrations go to: during
// Attesting that is already the next one.
func (s *State) registrationCeremony(cid types.CommunityIdentifier) (types.CommunityCeremony, error) {
	phase, err := s.CurrentPhase()
	if err != nil {
		return types.CommunityCeremony{}, err
	}
	cindex, err := s.CurrentCeremonyIndex()
	if err != nil {
		return types.CommunityCeremony{}, err
	}
	if phase == types.Attesting {
		cindex++
	}
	return types.CommunityCeremony{Cid: cid, Index: cindex}, nil
}

func (s *State) currentCeremony(cid types.CommunityIdentifier) (types.CommunityCeremony, error) {
	cindex, err := s.CurrentCeremonyIndex()
	return types.CommunityCeremony{Cid: cid, Index: cindex}, err
}

func (s *State) Reputation(cc types.CommunityCeremony, who common.AccountId) (types.Reputation, error) {
	return getOrDefault[types.Reputation](s, ParticipantReputationKey(cc, who))
}

func (s *State) SetReputation(cc types.CommunityCeremony, who common.AccountId, r types.Reputation) error {
	return s.put(ParticipantReputationKey(cc, who), r)
}

// validateProof checks that proof lets who register as reputable at cc.
func (s *State) validateProof(cc types.CommunityCeremony, who common.AccountId, proof types.ProofOfAttendance) error {
	if proof.ProverPublic != who {
		return ErrWrongProofSubject
	}
	if proof.CeremonyIndex >= cc.Index {
		return ErrProofAcausal
	}
	lifetime, err := s.ReputationLifetime()
	if err != nil {
		return err
	}
	if cc.Index > lifetime && proof.CeremonyIndex < cc.Index-lifetime {
		return ErrProofOutdated
	}
	if !crypto.Verify(proof.AttendeeSignature, proof.SigningPayload(), proof.AttendeePublic) {
		return ErrBadProofOfAttendanceSignature
	}
	attended := types.CommunityCeremony{Cid: proof.CommunityIdentifier, Index: proof.CeremonyIndex}
	rep, err := s.Reputation(attended, proof.AttendeePublic)
	if err != nil {
		return err
	}
	if rep != types.VerifiedUnlinked {
		return ErrAttendanceUnverifiedOrUsed
	}
	return nil
}

// linkProof consumes the reputation proven by proof for cc.
func (s *State) linkProof(cc types.CommunityCeremony, who common.AccountId, proof types.ProofOfAttendance) error {
	attended := types.CommunityCeremony{Cid: proof.CommunityIdentifier, Index: proof.CeremonyIndex}
	if err := s.SetReputation(attended, proof.AttendeePublic, types.VerifiedLinked); err != nil {
		return err
	}
	return s.SetReputation(cc, who, types.UnverifiedReputable)
}

// RegisterParticipant registers who for the next meetup of cid and returns
// the registry chosen: bootstrapper, reputable (with proof), endorsee or newbie.
func (s *State) RegisterParticipant(cid types.CommunityIdentifier, who common.AccountId, proof *types.ProofOfAttendance) (types.ParticipantType, error) {
	if err := s.communityExists(cid); err != nil {
		return 0, err
	}
	cc, err := s.registrationCeremony(cid)
	if err != nil {
		return 0, err
	}
	if _, ok, err := s.Registered(cc, who); err != nil {
		return 0, err
	} else if ok {
		return 0, ErrParticipantAlreadyRegistered
	}

	bootstrappers, err := s.Bootstrappers(cid)
	if err != nil {
		return 0, err
	}
	t := types.Newbie
	switch {
	case slices.Contains(bootstrappers, who):
		t = types.Bootstrapper
	case proof != nil:
		if err := s.validateProof(cc, who, *proof); err != nil {
			return 0, err
		}
		if err := s.linkProof(cc, who, *proof); err != nil {
			return 0, err
		}
		t = types.Reputable
	default:
		endorsed, err := has(s, EndorseesKey(cc, who))
		if err != nil {
			return 0, err
		}
		if endorsed {
			t = types.Endorsee
		}
	}
	idx, err := s.addToRegistry(t, cc, who)
	if err != nil {
		return 0, err
	}
	log.Debug(log.LedgerMonitoring, "RegisterParticipant", "cc", cc, "who", who.Short(), "type", t, "index", idx)
	return t, nil
}

// UpgradeRegistration turns a newbie registration into a reputable one.
func (s *State) UpgradeRegistration(cid types.CommunityIdentifier, who common.AccountId, proof types.ProofOfAttendance) error {
	if err := s.communityExists(cid); err != nil {
		return err
	}
	cc, err := s.registrationCeremony(cid)
	if err != nil {
		return err
	}
	t, ok, err := s.Registered(cc, who)
	if err != nil {
		return err
	}
	if !ok || t != types.Newbie {
		return ErrMustBeNewbieToUpgrade
	}
	if err := s.validateProof(cc, who, proof); err != nil {
		return err
	}
	if err := s.removeFromRegistry(types.Newbie, cc, who); err != nil {
		return err
	}
	if err := s.linkProof(cc, who, proof); err != nil {
		return err
	}
	_, err = s.addToRegistry(types.Reputable, cc, who)
	return err
}

// UnregisterParticipant removes who from the upcoming ceremony. A reputable
// participant may name the ceremony whose reputation it linked, which is
// released again.
func (s *State) UnregisterParticipant(cid types.CommunityIdentifier, who common.AccountId, linked *types.CommunityCeremony) error {
	if err := s.communityExists(cid); err != nil {
		return err
	}
	cc, err := s.registrationCeremony(cid)
	if err != nil {
		return err
	}
	t, ok, err := s.Registered(cc, who)
	if err != nil {
		return err
	}
	if !ok {
		return ErrParticipantIsNotRegistered
	}
	if err := s.removeFromRegistry(t, cc, who); err != nil {
		return err
	}
	if t == types.Reputable {
		if err := s.del(ParticipantReputationKey(cc, who)); err != nil {
			return err
		}
		if linked != nil {
			rep, err := s.Reputation(*linked, who)
			if err != nil {
				return err
			}
			if rep == types.VerifiedLinked {
				return s.SetReputation(*linked, who, types.VerifiedUnlinked)
			}
		}
	}
	return nil
}

func (s *State) MeetupAssignment(cc types.CommunityCeremony, who common.AccountId) (types.MeetupAssignment, bool, error) {
	return get[types.MeetupAssignment](s, MeetupAssignmentKey(cc, who))
}

// AssignMeetup records the assignment algorithm's output for who.
func (s *State) AssignMeetup(cc types.CommunityCeremony, who common.AccountId, m types.MeetupAssignment) error {
	return s.put(MeetupAssignmentKey(cc, who), m)
}

func (s *State) AssignmentCounts(cc types.CommunityCeremony) (types.AssignmentCount, error) {
	return getOrDefault[types.AssignmentCount](s, AssignmentCountsKey(cc))
}

func (s *State) SetAssignmentCounts(cc types.CommunityCeremony, c types.AssignmentCount) error {
	return s.put(AssignmentCountsKey(cc), c)
}

func (s *State) Assignments(cc types.CommunityCeremony) (types.Assignment, error) {
	return getOrDefault[types.Assignment](s, AssignmentsKey(cc))
}

func (s *State) SetAssignments(cc types.CommunityCeremony, a types.Assignment) error {
	return s.put(AssignmentsKey(cc), a)
}

func (s *State) MeetupCount(cc types.CommunityCeremony) (types.MeetupIndex, error) {
	return getOrDefault[types.MeetupIndex](s, MeetupCountKey(cc))
}

func (s *State) SetMeetupCount(cc types.CommunityCeremony, n types.MeetupIndex) error {
	return s.put(MeetupCountKey(cc), n)
}

// MeetupParticipants lists the registered participants assigned to meetup m.
func (s *State) MeetupParticipants(cc types.CommunityCeremony, m types.MeetupIndex) ([]common.AccountId, error) {
	all, err := s.Participants(cc)
	if err != nil {
		return nil, err
	}
	var out []common.AccountId
	for _, who := range all {
		a, ok, err := s.MeetupAssignment(cc, who)
		if err != nil {
			return nil, err
		}
		if ok && a.Index == m {
			out = append(out, who)
		}
	}
	return out, nil
}

func (s *State) AttestationCount(cc types.CommunityCeremony) (types.AttestationIndex, error) {
	return getOrDefault[types.AttestationIndex](s, AttestationCountKey(cc))
}

// Attestees returns the accounts attested at 1-based slot idx.
func (s *State) Attestees(cc types.CommunityCeremony, idx types.AttestationIndex) ([]common.AccountId, bool, error) {
	return get[[]common.AccountId](s, AttestationRegistryKey(cc, idx))
}

func (s *State) AttestationIndex(cc types.CommunityCeremony, who common.AccountId) (types.AttestationIndex, bool, error) {
	return get[types.AttestationIndex](s, AttestationIndexKey(cc, who))
}

func (s *State) MeetupParticipantCountVote(cc types.CommunityCeremony, who common.AccountId) (uint32, bool, error) {
	return get[uint32](s, MeetupParticipantCountVoteKey(cc, who))
}

func (s *State) storeAttestations(cc types.CommunityCeremony, who common.AccountId, attestees []common.AccountId, vote uint32) error {
	idx, ok, err := s.AttestationIndex(cc, who)
	if err != nil {
		return err
	}
	if !ok {
		n, err := s.AttestationCount(cc)
		if err != nil {
			return err
		}
		idx = n + 1
		if err := s.put(AttestationCountKey(cc), idx); err != nil {
			return err
		}
		if err := s.put(AttestationIndexKey(cc, who), idx); err != nil {
			return err
		}
	}
	if err := s.put(AttestationRegistryKey(cc, idx), attestees); err != nil {
		return err
	}
	return s.put(MeetupParticipantCountVoteKey(cc, who), vote)
}

// assigned returns who's meetup in cc, failing when who is not registered
// or not assigned.
func (s *State) assigned(cc types.CommunityCeremony, who common.AccountId) (types.MeetupAssignment, error) {
	if _, ok, err := s.Registered(cc, who); err != nil {
		return types.MeetupAssignment{}, err
	} else if !ok {
		return types.MeetupAssignment{}, ErrParticipantIsNotRegistered
	}
	a, ok, err := s.MeetupAssignment(cc, who)
	if err != nil {
		return a, err
	}
	if !ok {
		return a, ErrParticipantNotAssigned
	}
	return a, nil
}

// AttestAttendees records whom who met and how many people who counted.
// Attestees outside who's meetup are dropped. Returns the number kept.
func (s *State) AttestAttendees(cid types.CommunityIdentifier, who common.AccountId, vote uint32, attestees []common.AccountId) (int, error) {
	if err := s.communityExists(cid); err != nil {
		return 0, err
	}
	cc, err := s.currentCeremony(cid)
	if err != nil {
		return 0, err
	}
	mine, err := s.assigned(cc, who)
	if err != nil {
		return 0, err
	}
	var valid []common.AccountId
	for _, a := range attestees {
		if a == who || slices.Contains(valid, a) {
			continue
		}
		theirs, err := s.assigned(cc, a)
		if err != nil || theirs.Index != mine.Index {
			log.Debug(log.LedgerMonitoring, "AttestAttendees: skipping attestee", "who", a.Short(), "err", err)
			continue
		}
		valid = append(valid, a)
	}
	if len(valid) == 0 {
		return 0, ErrNoValidAttestations
	}
	return len(valid), s.storeAttestations(cc, who, valid, vote)
}

// AttestClaims records the claimants whose signed claims match who's meetup.
func (s *State) AttestClaims(who common.AccountId, claims []types.ClaimOfAttendance) (int, error) {
	if len(claims) == 0 {
		return 0, ErrNoValidClaims
	}
	cid := claims[0].CommunityIdentifier
	if err := s.communityExists(cid); err != nil {
		return 0, err
	}
	cc, err := s.currentCeremony(cid)
	if err != nil {
		return 0, err
	}
	mine, err := s.assigned(cc, who)
	if err != nil {
		return 0, err
	}
	timeTolerance, err := s.TimeTolerance()
	if err != nil {
		return 0, err
	}
	locationTolerance, err := s.LocationTolerance()
	if err != nil {
		return 0, err
	}
	locations, err := s.Locations(cid)
	if err != nil {
		return 0, err
	}

	var valid []common.AccountId
	var vote uint32
	for i, c := range claims {
		reason := ""
		switch {
		case c.CommunityIdentifier != cid || c.CeremonyIndex != cc.Index:
			reason = "wrong ceremony"
		case c.ClaimantPublic == who || slices.Contains(valid, c.ClaimantPublic):
			reason = "duplicate"
		case c.MeetupIndex != mine.Index:
			reason = "wrong meetup"
		case c.ClaimantSignature == nil || !crypto.Verify(*c.ClaimantSignature, c.SigningPayload(), c.ClaimantPublic):
			reason = "bad signature"
		case mine.Time != 0 && absDiff(c.Timestamp, mine.Time) > timeTolerance:
			reason = "timestamp out of tolerance"
		case mine.LocationIndex < uint64(len(locations)) && distanceMeters(c.Location, locations[mine.LocationIndex]) > float64(locationTolerance):
			reason = "location out of tolerance"
		}
		if reason == "" {
			if theirs, err := s.assigned(cc, c.ClaimantPublic); err != nil || theirs.Index != mine.Index {
				reason = "claimant not in meetup"
			}
		}
		if reason != "" {
			log.Debug(log.LedgerMonitoring, "AttestClaims: skipping claim", "i", i, "claimant", c.ClaimantPublic.Short(), "reason", reason)
			continue
		}
		if len(valid) == 0 {
			vote = c.NumberOfParticipantsConfirmed
		}
		valid = append(valid, c.ClaimantPublic)
	}
	if len(valid) == 0 {
		return 0, ErrNoValidClaims
	}
	return len(valid), s.storeAttestations(cc, who, valid, vote)
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

const earthRadiusMeters = 6_371_000.0

// distanceMeters is the haversine distance between two locations.
func distanceMeters(a, b types.Location) float64 {
	rad := func(d types.Degree) float64 { return d.Float64() * math.Pi / 180 }
	dLat := rad(b.Lat) - rad(a.Lat)
	dLon := rad(b.Lon) - rad(a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// isReputableAt reports whether who holds verified reputation in cid within
// the reputation lifetime before cindex.
func (s *State) isReputableAt(cid types.CommunityIdentifier, cindex types.CeremonyIndex, who common.AccountId) (bool, error) {
	lifetime, err := s.ReputationLifetime()
	if err != nil {
		return false, err
	}
	for back := types.CeremonyIndex(1); back <= lifetime && back <= cindex; back++ {
		rep, err := s.Reputation(types.CommunityCeremony{Cid: cid, Index: cindex - back}, who)
		if err != nil {
			return false, err
		}
		if rep.IsVerified() {
			return true, nil
		}
	}
	return false, nil
}

// EndorseNewcomer spends one of who's endorsement tickets on newbie.
func (s *State) EndorseNewcomer(cid types.CommunityIdentifier, who, newbie common.AccountId) error {
	if err := s.communityExists(cid); err != nil {
		return err
	}
	cc, err := s.registrationCeremony(cid)
	if err != nil {
		return err
	}
	if endorsed, err := has(s, EndorseesKey(cc, newbie)); err != nil {
		return err
	} else if endorsed {
		return ErrAlreadyEndorsed
	}

	bootstrappers, err := s.Bootstrappers(cid)
	if err != nil {
		return err
	}
	if slices.Contains(bootstrappers, who) {
		limit, err := s.EndorsementTicketsPerBootstrapper()
		if err != nil {
			return err
		}
		key := BurnedBootstrapperTicketsKey(cid, who)
		burned, err := getOrDefault[uint8](s, key)
		if err != nil {
			return err
		}
		if burned >= limit {
			return ErrNoMoreNewbieTickets
		}
		if err := s.put(key, burned+1); err != nil {
			return err
		}
	} else {
		reputable, err := s.isReputableAt(cid, cc.Index, who)
		if err != nil {
			return err
		}
		if !reputable {
			return ErrAuthorizationRequired
		}
		limit, err := s.EndorsementTicketsPerReputable()
		if err != nil {
			return err
		}
		key := BurnedReputableTicketsKey(cc, who)
		burned, err := getOrDefault[uint8](s, key)
		if err != nil {
			return err
		}
		if burned >= limit {
			return ErrNoMoreNewbieTickets
		}
		if err := s.put(key, burned+1); err != nil {
			return err
		}
	}

	if err := s.put(EndorseesKey(cc, newbie), unit{}); err != nil {
		return err
	}
	n, err := getOrDefault[uint64](s, EndorseesCountKey(cc))
	if err != nil {
		return err
	}
	if err := s.put(EndorseesCountKey(cc), n+1); err != nil {
		return err
	}
	// an already registered newbie moves up to the endorsee registry
	if _, ok, err := s.RegistryIndex(types.Newbie, cc, newbie); err != nil {
		return err
	} else if ok {
		if err := s.removeFromRegistry(types.Newbie, cc, newbie); err != nil {
			return err
		}
		if _, err := s.addToRegistry(types.Endorsee, cc, newbie); err != nil {
			return err
		}
	}
	return nil
}

// ClaimRewards pays the nominal income to every participant of a meetup that
// voted with the majority and was attested by someone else. During
// Registering it settles the ceremony that just ended. Returns the number of
// participants rewarded.
func (s *State) ClaimRewards(cid types.CommunityIdentifier, who common.AccountId, meetup *types.MeetupIndex) (int, error) {
	if err := s.communityExists(cid); err != nil {
		return 0, err
	}
	cc, err := s.currentCeremony(cid)
	if err != nil {
		return 0, err
	}
	phase, err := s.CurrentPhase()
	if err != nil {
		return 0, err
	}
	if phase == types.Registering {
		if cc.Index == 0 {
			return 0, ErrParticipantIsNotRegistered
		}
		cc.Index--
	}

	var m types.MeetupIndex
	if meetup != nil {
		m = *meetup
	} else {
		a, err := s.assigned(cc, who)
		if err != nil {
			return 0, err
		}
		m = a.Index
	}
	if issued, err := has(s, IssuedRewardsKey(cc, m)); err != nil {
		return 0, err
	} else if issued {
		return 0, ErrRewardsAlreadyIssued
	}

	participants, err := s.MeetupParticipants(cc, m)
	if err != nil {
		return 0, err
	}
	votes := map[uint32]int{}
	var voters int
	for _, p := range participants {
		v, ok, err := s.MeetupParticipantCountVote(cc, p)
		if err != nil {
			return 0, err
		}
		if ok {
			votes[v]++
			voters++
		}
	}
	var majority uint32
	best := 0
	for v, n := range votes {
		if n > best || (n == best && v > majority) {
			majority, best = v, n
		}
	}
	if voters == 0 || best*2 <= voters {
		return 0, fmt.Errorf("%w: %d of %d votes agree", ErrVotesNotDependable, best, voters)
	}

	attested := map[common.AccountId]int{}
	for _, p := range participants {
		idx, ok, err := s.AttestationIndex(cc, p)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		attestees, _, err := s.Attestees(cc, idx)
		if err != nil {
			return 0, err
		}
		for _, a := range attestees {
			attested[a]++
		}
	}

	income, err := s.NominalIncome(cid)
	if err != nil {
		return 0, err
	}
	rewarded := 0
	for _, p := range participants {
		v, ok, err := s.MeetupParticipantCountVote(cc, p)
		if err != nil {
			return 0, err
		}
		if !ok || v != majority || attested[p] == 0 {
			continue
		}
		if err := s.IssueCommunity(cid, p, income); err != nil {
			return 0, err
		}
		if err := s.SetReputation(cc, p, types.VerifiedUnlinked); err != nil {
			return 0, err
		}
		rewarded++
	}
	log.Debug(log.LedgerMonitoring, "ClaimRewards", "cc", cc, "meetup", m, "participants", len(participants), "rewarded", rewarded)
	return rewarded, s.put(IssuedRewardsKey(cc, m), unit{})
}

// PurgeCommunityCeremony deletes every registry, assignment and attestation of cc.
func (s *State) PurgeCommunityCeremony(cc types.CommunityCeremony) error {
	for _, t := range participantTypes {
		n, err := s.RegistryCount(t, cc)
		if err != nil {
			return err
		}
		for i := types.ParticipantIndex(1); i <= n; i++ {
			who, ok, err := s.RegistryEntry(t, cc, i)
			if err != nil {
				return err
			}
			if ok {
				for _, k := range [][]byte{
					RegistryIndexKey(t, cc, who),
					MeetupAssignmentKey(cc, who),
					MeetupParticipantCountVoteKey(cc, who),
					AttestationIndexKey(cc, who),
					EndorseesKey(cc, who),
				} {
					if err := s.del(k); err != nil {
						return err
					}
				}
			}
			if err := s.del(RegistryKey(t, cc, i)); err != nil {
				return err
			}
		}
		if err := s.del(RegistryCountKey(t, cc)); err != nil {
			return err
		}
	}
	n, err := s.AttestationCount(cc)
	if err != nil {
		return err
	}
	for i := types.AttestationIndex(1); i <= n; i++ {
		if err := s.del(AttestationRegistryKey(cc, i)); err != nil {
			return err
		}
	}
	for _, k := range [][]byte{AttestationCountKey(cc), AssignmentCountsKey(cc), AssignmentsKey(cc), MeetupCountKey(cc), EndorseesCountKey(cc)} {
		if err := s.del(k); err != nil {
			return err
		}
	}
	log.Info(log.LedgerMonitoring, "purged community ceremony", "cc", cc)
	return nil
}
