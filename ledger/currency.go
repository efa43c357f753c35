package ledger

import (
	"fmt"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/types"
)

func (s *State) DemurragePerBlock(cid types.CommunityIdentifier) (types.Demurrage, error) {
	return getOrDefault[types.Demurrage](s, DemurragePerBlockKey(cid))
}

func (s *State) FeeConversionFactor() (common.Balance, error) {
	return getOrDefault[common.Balance](s, KeyFeeConversionFactor)
}

func (s *State) SetFeeConversionFactor(f common.Balance) error {
	return s.put(KeyFeeConversionFactor, f)
}

// balanceEntry returns the holding of who decayed to the current block.
func (s *State) balanceEntry(cid types.CommunityIdentifier, who common.AccountId) (types.BalanceEntry, error) {
	entry, err := getOrDefault[types.BalanceEntry](s, CommunityBalanceKey(cid, who))
	if err != nil {
		return entry, err
	}
	return s.decay(cid, entry)
}

func (s *State) decay(cid types.CommunityIdentifier, entry types.BalanceEntry) (types.BalanceEntry, error) {
	demurrage, err := s.DemurragePerBlock(cid)
	if err != nil {
		return entry, err
	}
	now, err := s.BlockNumber()
	if err != nil {
		return entry, err
	}
	return entry.ApplyDemurrage(demurrage, now), nil
}

// CommunityBalance is the demurrage-adjusted balance of who in cid.
func (s *State) CommunityBalance(cid types.CommunityIdentifier, who common.AccountId) (types.BalanceType, error) {
	entry, err := s.balanceEntry(cid, who)
	return entry.Principal, err
}

// CommunityTotalIssuance is the demurrage-adjusted issuance of cid.
func (s *State) CommunityTotalIssuance(cid types.CommunityIdentifier) (types.BalanceType, error) {
	entry, err := getOrDefault[types.BalanceEntry](s, CommunityIssuanceKey(cid))
	if err != nil {
		return types.BalanceType{}, err
	}
	entry, err = s.decay(cid, entry)
	return entry.Principal, err
}

// TransferCommunity moves amount of cid from one account to another.
func (s *State) TransferCommunity(cid types.CommunityIdentifier, from, to common.AccountId, amount types.BalanceType) error {
	if err := s.communityExists(cid); err != nil {
		return err
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	src, err := s.balanceEntry(cid, from)
	if err != nil {
		return err
	}
	if src.Principal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrBalanceTooLow, src.Principal, amount)
	}
	if from == to {
		return nil
	}
	dst, err := s.balanceEntry(cid, to)
	if err != nil {
		return err
	}
	src.Principal, _ = src.Principal.Sub(amount)
	var over bool
	dst.Principal, over = dst.Principal.Add(amount)
	if over {
		return ErrBalanceOverflow
	}
	if err := s.put(CommunityBalanceKey(cid, from), src); err != nil {
		return err
	}
	log.Debug(log.LedgerMonitoring, "TransferCommunity", "cid", cid, "from", from.Short(), "to", to.Short(), "amount", amount)
	return s.put(CommunityBalanceKey(cid, to), dst)
}

// TransferAllCommunity moves the whole cid balance of from to to.
func (s *State) TransferAllCommunity(cid types.CommunityIdentifier, from, to common.AccountId) error {
	balance, err := s.CommunityBalance(cid, from)
	if err != nil {
		return err
	}
	return s.TransferCommunity(cid, from, to, balance)
}

// IssueCommunity mints amount of cid to who.
func (s *State) IssueCommunity(cid types.CommunityIdentifier, who common.AccountId, amount types.BalanceType) error {
	entry, err := s.balanceEntry(cid, who)
	if err != nil {
		return err
	}
	var over bool
	if entry.Principal, over = entry.Principal.Add(amount); over {
		return ErrBalanceOverflow
	}
	total, err := getOrDefault[types.BalanceEntry](s, CommunityIssuanceKey(cid))
	if err != nil {
		return err
	}
	if total, err = s.decay(cid, total); err != nil {
		return err
	}
	if total.Principal, over = total.Principal.Add(amount); over {
		return ErrBalanceOverflow
	}
	if err := s.put(CommunityIssuanceKey(cid), total); err != nil {
		return err
	}
	return s.put(CommunityBalanceKey(cid, who), entry)
}
