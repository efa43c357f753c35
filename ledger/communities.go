package ledger

import (
	"fmt"
	"slices"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/types"
)

func (s *State) CurrentPhase() (types.CeremonyPhase, error) {
	return getOrDefault[types.CeremonyPhase](s, KeyCurrentPhase)
}

func (s *State) SetCurrentPhase(p types.CeremonyPhase) error {
	return s.put(KeyCurrentPhase, p)
}

func (s *State) CurrentCeremonyIndex() (types.CeremonyIndex, error) {
	return getOrDefault[types.CeremonyIndex](s, KeyCurrentCeremonyIndex)
}

func (s *State) SetCurrentCeremonyIndex(idx types.CeremonyIndex) error {
	return s.put(KeyCurrentCeremonyIndex, idx)
}

func (s *State) PhaseDuration(p types.CeremonyPhase) (types.Moment, error) {
	return getOrDefault[types.Moment](s, PhaseDurationsKey(p))
}

func (s *State) SetPhaseDuration(p types.CeremonyPhase, d types.Moment) error {
	return s.put(PhaseDurationsKey(p), d)
}

func (s *State) NextPhaseTimestamp() (types.Moment, error) {
	return getOrDefault[types.Moment](s, KeyNextPhaseTimestamp)
}

func (s *State) SetNextPhaseTimestamp(t types.Moment) error {
	return s.put(KeyNextPhaseTimestamp, t)
}

// NextPhase advances the scheduler. Entering Registering starts a new
// ceremony index.
func (s *State) NextPhase() (types.CeremonyPhase, error) {
	p, err := s.CurrentPhase()
	if err != nil {
		return 0, err
	}
	next := p.Next()
	if next == types.Registering {
		idx, err := s.CurrentCeremonyIndex()
		if err != nil {
			return 0, err
		}
		if err := s.SetCurrentCeremonyIndex(idx + 1); err != nil {
			return 0, err
		}
	}
	log.Info(log.LedgerMonitoring, "NextPhase", "from", p, "to", next)
	return next, s.SetCurrentPhase(next)
}

func (s *State) CommunityIdentifiers() ([]types.CommunityIdentifier, error) {
	return getOrDefault[[]types.CommunityIdentifier](s, KeyCommunityIdentifiers)
}

func (s *State) communityExists(cid types.CommunityIdentifier) error {
	cids, err := s.CommunityIdentifiers()
	if err != nil {
		return err
	}
	if !slices.Contains(cids, cid) {
		return fmt.Errorf("%w: %s", ErrInexistentCommunity, cid)
	}
	return nil
}

func (s *State) Bootstrappers(cid types.CommunityIdentifier) ([]common.AccountId, error) {
	return getOrDefault[[]common.AccountId](s, BootstrappersKey(cid))
}

func (s *State) NominalIncome(cid types.CommunityIdentifier) (types.BalanceType, error) {
	return getOrDefault[types.BalanceType](s, NominalIncomeKey(cid))
}

func (s *State) Locations(cid types.CommunityIdentifier) ([]types.Location, error) {
	return getOrDefault[[]types.Location](s, LocationsKey(cid))
}

// Community is the genesis description of a community.
type Community struct {
	Cid           types.CommunityIdentifier `json:"cid"`
	Bootstrappers []common.AccountId        `json:"bootstrappers"`
	Locations     []types.Location          `json:"locations"`
	NominalIncome types.BalanceType         `json:"nominal_income"`
	Demurrage     types.Demurrage           `json:"demurrage"`
}

// AddCommunity registers a community with its bootstrappers and economics.
func (s *State) AddCommunity(c Community) error {
	cids, err := s.CommunityIdentifiers()
	if err != nil {
		return err
	}
	if !slices.Contains(cids, c.Cid) {
		cids = append(cids, c.Cid)
		if err := s.put(KeyCommunityIdentifiers, cids); err != nil {
			return err
		}
	}
	if err := s.put(BootstrappersKey(c.Cid), c.Bootstrappers); err != nil {
		return err
	}
	if err := s.put(LocationsKey(c.Cid), c.Locations); err != nil {
		return err
	}
	if err := s.put(NominalIncomeKey(c.Cid), c.NominalIncome); err != nil {
		return err
	}
	return s.put(DemurragePerBlockKey(c.Cid), c.Demurrage)
}
