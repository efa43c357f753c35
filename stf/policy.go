package stf

import (
	"slices"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/log"
)

// Policy decides whether an account may read confidential ceremony data or
// change ceremony parameters.
type Policy func(r ledger.Reader, who common.AccountId) bool

// CeremonyMasterPolicy admits the ceremony master and the sudo key.
func CeremonyMasterPolicy(master common.AccountId) Policy {
	return func(r ledger.Reader, who common.AccountId) bool {
		if who == master || holdsSudo(r, who) {
			return true
		}
		log.Error(log.GetterMonitoring, "bad origin: Confidential data can only be requested by the ceremony master", "who", who.Short())
		return false
	}
}

// RootPolicy admits the sudo key only.
func RootPolicy(r ledger.Reader, who common.AccountId) bool {
	if holdsSudo(r, who) {
		return true
	}
	log.Error(log.GetterMonitoring, "bad origin: Confidential data can only be requested by root", "who", who.Short())
	return false
}

func holdsSudo(r ledger.Reader, who common.AccountId) bool {
	if r == nil {
		return false
	}
	ok, err := isRoot(r, who)
	return err == nil && ok
}

// DenyAll admits nobody. It is the policy of an Env without one.
func DenyAll(ledger.Reader, common.AccountId) bool { return false }

func (p Policy) allows(r ledger.Reader, who common.AccountId) bool {
	if p == nil {
		return DenyAll(r, who)
	}
	return p(r, who)
}

// Env is the per-shard context a call executes in.
type Env struct {
	Shard           common.ShardIdentifier
	MrEnclave       common.MrEnclave
	EnclaveSigner   common.AccountId
	UnshieldFundsFn [2]byte
	Policy          Policy
	// Modules lists the optional modules whose variants may run.
	Modules []string
}

// Enabled reports whether variants of module may run. Core variants always may.
func (e Env) Enabled(module string) bool {
	return module == "" || slices.Contains(e.Modules, module)
}

// isRoot reports whether who holds the sudo key.
func isRoot(r ledger.Reader, who common.AccountId) (bool, error) {
	sudo, ok, err := r.SudoKey()
	if err != nil {
		return false, err
	}
	return ok && sudo == who, nil
}
