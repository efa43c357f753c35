package types

import "math"

// BalanceEntry is a community currency holding as of LastUpdate.
type BalanceEntry struct {
	Principal  BalanceType
	LastUpdate BlockNumber
}

// ApplyDemurrage decays the entry to block now at the given per-block rate.
// Entries dated after now are returned unchanged.
func (e BalanceEntry) ApplyDemurrage(demurrage Demurrage, now BlockNumber) BalanceEntry {
	if now <= e.LastUpdate || e.Principal.IsZero() || demurrage.IsZero() {
		return BalanceEntry{Principal: e.Principal, LastUpdate: max(now, e.LastUpdate)}
	}
	elapsed := float64(now - e.LastUpdate)
	decayed := e.Principal.Float64() * math.Exp(-demurrage.Float64()*elapsed)
	return BalanceEntry{Principal: FixedFromFloat(decayed), LastUpdate: now}
}
