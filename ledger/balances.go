package ledger

import (
	"fmt"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/log"
)

// AccountData is the native token holding of an account.
type AccountData struct {
	Free       common.Balance `json:"free"`
	Reserved   common.Balance `json:"reserved"`
	MiscFrozen common.Balance `json:"misc_frozen"`
	FeeFrozen  common.Balance `json:"fee_frozen"`
}

// AccountInfo is the System.Account record.
type AccountInfo struct {
	Nonce       uint32      `json:"nonce"`
	Consumers   uint32      `json:"consumers"`
	Providers   uint32      `json:"providers"`
	Sufficients uint32      `json:"sufficients"`
	Data        AccountData `json:"data"`
}

func (s *State) AccountInfo(who common.AccountId) (AccountInfo, error) {
	return getOrDefault[AccountInfo](s, AccountKey(who))
}

func (s *State) AccountNonce(who common.AccountId) (uint32, error) {
	info, err := s.AccountInfo(who)
	return info.Nonce, err
}

func (s *State) FreeBalance(who common.AccountId) (common.Balance, error) {
	info, err := s.AccountInfo(who)
	return info.Data.Free, err
}

func (s *State) ReservedBalance(who common.AccountId) (common.Balance, error) {
	info, err := s.AccountInfo(who)
	return info.Data.Reserved, err
}

func (s *State) TotalIssuance() (common.Balance, error) {
	return getOrDefault[common.Balance](s, KeyTotalIssuance)
}

// SudoKey returns the root account, if one is set.
func (s *State) SudoKey() (common.AccountId, bool, error) {
	return get[common.AccountId](s, KeySudo)
}

func (s *State) SetSudoKey(who common.AccountId) error {
	return s.put(KeySudo, who)
}

func (s *State) BlockNumber() (uint32, error) {
	return getOrDefault[uint32](s, KeyBlockNumber)
}

func (s *State) SetBlockNumber(n uint32) error {
	return s.put(KeyBlockNumber, n)
}

func (s *State) putAccount(who common.AccountId, info AccountInfo) error {
	return s.put(AccountKey(who), info)
}

func (s *State) IncAccountNonce(who common.AccountId) error {
	info, err := s.AccountInfo(who)
	if err != nil {
		return err
	}
	info.Nonce++
	return s.putAccount(who, info)
}

// adjustIssuance replaces prev with next in the total issuance.
func (s *State) adjustIssuance(prev, next common.Balance) error {
	total, err := s.TotalIssuance()
	if err != nil {
		return err
	}
	total, under := total.Sub(prev)
	if under {
		total = common.Balance{}
	}
	total, over := total.Add(next)
	if over {
		return ErrBalanceOverflow
	}
	return s.put(KeyTotalIssuance, total)
}

// SetBalance overwrites the free and reserved balance of who, adjusting
// total issuance by the difference.
func (s *State) SetBalance(who common.AccountId, free, reserved common.Balance) error {
	info, err := s.AccountInfo(who)
	if err != nil {
		return err
	}
	oldTotal, over := info.Data.Free.Add(info.Data.Reserved)
	if over {
		return ErrBalanceOverflow
	}
	newTotal, over := free.Add(reserved)
	if over {
		return ErrBalanceOverflow
	}
	if err := s.adjustIssuance(oldTotal, newTotal); err != nil {
		return err
	}
	info.Data.Free = free
	info.Data.Reserved = reserved
	log.Debug(log.LedgerMonitoring, "SetBalance", "who", who.Short(), "free", free, "reserved", reserved)
	return s.putAccount(who, info)
}

// Transfer moves value of free balance from one account to another.
func (s *State) Transfer(from, to common.AccountId, value common.Balance) error {
	src, err := s.AccountInfo(from)
	if err != nil {
		return err
	}
	if src.Data.Free.Lt(value) {
		return fmt.Errorf("%w: free %s < %s", ErrInsufficientBalance, src.Data.Free, value)
	}
	if from == to {
		return nil
	}
	dst, err := s.AccountInfo(to)
	if err != nil {
		return err
	}
	credited, over := dst.Data.Free.Add(value)
	if over {
		return ErrBalanceOverflow
	}
	src.Data.Free, _ = src.Data.Free.Sub(value)
	dst.Data.Free = credited
	if err := s.putAccount(from, src); err != nil {
		return err
	}
	return s.putAccount(to, dst)
}

// Deposit mints value into the free balance of who.
func (s *State) Deposit(who common.AccountId, value common.Balance) error {
	info, err := s.AccountInfo(who)
	if err != nil {
		return err
	}
	free, over := info.Data.Free.Add(value)
	if over {
		return ErrBalanceOverflow
	}
	return s.SetBalance(who, free, info.Data.Reserved)
}
