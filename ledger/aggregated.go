package ledger

import (
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/types"
)

// AggregatedAccountData collects the scheduler state and, when who takes part
// in the current ceremony of cid, its registration and meetup.
func (s *State) AggregatedAccountData(cid types.CommunityIdentifier, who common.AccountId) (types.AggregatedAccountData, error) {
	var out types.AggregatedAccountData
	phase, err := s.CurrentPhase()
	if err != nil {
		return out, err
	}
	cindex, err := s.CurrentCeremonyIndex()
	if err != nil {
		return out, err
	}
	out.Global = types.GlobalMeetupData{CeremonyPhase: phase, CeremonyIndex: cindex}

	cc := types.CommunityCeremony{Cid: cid, Index: cindex}
	t, ok, err := s.Registered(cc, who)
	if err != nil || !ok {
		return out, err
	}
	personal := &types.PersonalMeetupData{ParticipantType: t}
	a, assigned, err := s.MeetupAssignment(cc, who)
	if err != nil {
		return out, err
	}
	if assigned {
		personal.MeetupIndex = &a.Index
		personal.MeetupLocationIndex = &a.LocationIndex
		personal.MeetupTime = &a.Time
		registry, err := s.MeetupParticipants(cc, a.Index)
		if err != nil {
			return out, err
		}
		personal.MeetupRegistry = &registry
	}
	out.Personal = personal
	return out, nil
}
