package stf

import (
	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/log"
	"github.com/colorfulnotion/sidechain/types"
)

// OpaqueCall is an encoded parentchain extrinsic queued by a call.
type OpaqueCall []byte

// Context is what a dispatch handler sees.
type Context struct {
	State    ledger.Writer
	Env      Env
	CallHash common.Hash
	calls    *[]OpaqueCall
}

// Push queues a parentchain call. It is only delivered if the call succeeds.
func (ctx *Context) Push(c OpaqueCall) {
	if ctx.calls != nil {
		*ctx.calls = append(*ctx.calls, c)
	}
}

const (
	msgRegisterPhase   = "registering participants can only be done during registering or attesting phase"
	msgUpgradePhase    = "upgrading registration can only be done during registering or attesting phase"
	msgUnregisterPhase = "unregistering participant can only be done during registering or attesting phase"
	msgAttendeesPhase  = "attendees attestation can only be done during attesting phase"
	msgClaimsPhase     = "claims attestation can only be done during attesting phase"
	msgRewardsPhase    = "claiming rewards can not be done during assigning phase"
	msgTimeOffsetPhase = "setting meetup time offset can not be done during registering phase"
)

var (
	ceremonyKeys = keys(ledger.KeyCurrentPhase, ledger.KeyCurrentCeremonyIndex, ledger.KeyCommunityIdentifiers)
	attestKeys   = keys(ledger.KeyCurrentPhase, ledger.KeyCommunityIdentifiers)
	endorseKeys  = keys(ledger.KeyCurrentPhase, ledger.KeyCurrentCeremonyIndex, ledger.KeyCommunityIdentifiers,
		common.StorageValueKey("EncointerCommunities", "Bootstrappers"))
)

func init() {
	RegisterCall(CallSpec{Index: 0, Name: "balance_set_balance", Variant: BalanceSetBalance{},
		Privilege: SudoOnly, Dispatch: HandleCall(setBalance)})
	RegisterCall(CallSpec{Index: 1, Name: "balance_transfer", Variant: BalanceTransfer{},
		Dispatch: HandleCall(transfer)})
	RegisterCall(CallSpec{Index: 2, Name: "balance_unshield", Variant: BalanceUnshield{},
		Dispatch: HandleCall(unshield)})
	RegisterCall(CallSpec{Index: 3, Name: "balance_shield", Variant: BalanceShield{},
		Privilege: EnclaveSignerOnly, Dispatch: HandleCall(shield)})
	RegisterCall(CallSpec{Index: 4, Name: "encointer_balance_transfer", Variant: EncointerBalanceTransfer{},
		Dispatch: HandleCall(encointerTransfer)})
	RegisterCall(CallSpec{Index: 5, Name: "encointer_set_fee_conversion_factor", Variant: EncointerSetFeeConversionFactor{},
		Privilege: PolicyOnly, Dispatch: HandleCall(setFeeConversionFactor)})
	RegisterCall(CallSpec{Index: 6, Name: "encointer_transfer_all", Variant: EncointerTransferAll{},
		Dispatch: HandleCall(encointerTransferAll)})
	RegisterCall(CallSpec{Index: 7, Name: "ceremonies_register_participant", Variant: CeremoniesRegisterParticipant{},
		Phase: rejectIn(msgRegisterPhase, types.Assigning), Dispatch: HandleCall(registerParticipant), StorageKeys: ceremonyKeys})
	RegisterCall(CallSpec{Index: 8, Name: "ceremonies_upgrade_registration", Variant: CeremoniesUpgradeRegistration{},
		Phase: rejectIn(msgUpgradePhase, types.Assigning), Dispatch: HandleCall(upgradeRegistration), StorageKeys: ceremonyKeys})
	RegisterCall(CallSpec{Index: 9, Name: "ceremonies_unregister_participant", Variant: CeremoniesUnregisterParticipant{},
		Phase: rejectIn(msgUnregisterPhase, types.Assigning), Dispatch: HandleCall(unregisterParticipant), StorageKeys: ceremonyKeys})
	RegisterCall(CallSpec{Index: 10, Name: "ceremonies_attest_attendees", Variant: CeremoniesAttestAttendees{},
		Phase: onlyIn(types.Attesting, msgAttendeesPhase), Dispatch: HandleCall(attestAttendees), StorageKeys: attestKeys})
	RegisterCall(CallSpec{Index: 11, Name: "ceremonies_attest_claims", Variant: CeremoniesAttestClaims{},
		Phase: onlyIn(types.Attesting, msgClaimsPhase), Dispatch: HandleCall(attestClaims), StorageKeys: ceremonyKeys})
	RegisterCall(CallSpec{Index: 12, Name: "ceremonies_endorse_newcomer", Variant: CeremoniesEndorseNewcomer{},
		Dispatch: HandleCall(endorseNewcomer), StorageKeys: endorseKeys})
	RegisterCall(CallSpec{Index: 13, Name: "ceremonies_claim_rewards", Variant: CeremoniesClaimRewards{},
		Phase: rejectIn(msgRewardsPhase, types.Assigning), Dispatch: HandleCall(claimRewards), StorageKeys: attestKeys})
	RegisterCall(CallSpec{Index: 14, Name: "ceremonies_set_inactivity_timeout", Variant: CeremoniesSetInactivityTimeout{},
		Privilege: PolicyOnly, Dispatch: HandleCall(setInactivityTimeout)})
	RegisterCall(CallSpec{Index: 15, Name: "ceremonies_set_endorsement_tickets_per_bootstrapper", Variant: CeremoniesSetEndorsementTicketsPerBootstrapper{},
		Privilege: PolicyOnly, Dispatch: HandleCall(setTicketsPerBootstrapper)})
	RegisterCall(CallSpec{Index: 16, Name: "ceremonies_set_endorsement_tickets_per_reputable", Variant: CeremoniesSetEndorsementTicketsPerReputable{},
		Privilege: PolicyOnly, Dispatch: HandleCall(setTicketsPerReputable)})
	RegisterCall(CallSpec{Index: 17, Name: "ceremonies_set_reputation_lifetime", Variant: CeremoniesSetReputationLifetime{},
		Privilege: PolicyOnly, Dispatch: HandleCall(setReputationLifetime)})
	RegisterCall(CallSpec{Index: 18, Name: "ceremonies_set_meetup_time_offset", Variant: CeremoniesSetMeetupTimeOffset{},
		Phase: rejectIn(msgTimeOffsetPhase, types.Registering), Privilege: PolicyOnly,
		Dispatch: HandleCall(setMeetupTimeOffset), StorageKeys: keys(ledger.KeyCurrentPhase)})
	RegisterCall(CallSpec{Index: 19, Name: "ceremonies_set_time_tolerance", Variant: CeremoniesSetTimeTolerance{},
		Privilege: PolicyOnly, Dispatch: HandleCall(setTimeTolerance)})
	RegisterCall(CallSpec{Index: 20, Name: "ceremonies_set_location_tolerance", Variant: CeremoniesSetLocationTolerance{},
		Privilege: PolicyOnly, Dispatch: HandleCall(setLocationTolerance)})
	RegisterCall(CallSpec{Index: 21, Name: "ceremonies_purge_community_ceremony", Variant: CeremoniesPurgeCommunityCeremony{},
		Privilege: PolicyOnly, Dispatch: HandleCall(purgeCommunityCeremony)})
}

func setBalance(ctx *Context, c BalanceSetBalance) error {
	log.Debug(log.StfMonitoring, "balance_set_balance", "who", c.Who.Short(), "free", c.Free, "reserved", c.Reserved)
	return Failed("Balance Set Balance", ctx.State.SetBalance(c.Who, c.Free, c.Reserved))
}

func transfer(ctx *Context, c BalanceTransfer) error {
	log.Debug(log.StfMonitoring, "balance_transfer", "from", c.From.Short(), "to", c.To.Short(), "value", c.Value)
	return Failed("Balance Transfer", ctx.State.Transfer(c.From, c.To, c.Value))
}

// unshieldCall is the parentchain extrinsic releasing unshielded funds.
type unshieldCall struct {
	Fn          [2]byte
	Beneficiary common.AccountId
	Value       common.Balance
	Shard       common.ShardIdentifier
	CallHash    common.Hash
}

func unshield(ctx *Context, c BalanceUnshield) error {
	log.Debug(log.StfMonitoring, "balance_unshield", "incognito", c.Incognito.Short(), "beneficiary", c.Beneficiary.Short(), "value", c.Value, "shard", c.Shard)
	info, err := ctx.State.AccountInfo(c.Incognito)
	if err != nil {
		return err
	}
	free, underflow := info.Data.Free.Sub(c.Value)
	if underflow {
		return ErrMissingFunds
	}
	if err := ctx.State.SetBalance(c.Incognito, free, info.Data.Reserved); err != nil {
		return Failed("Unshield funds", err)
	}
	oc, err := codec.Marshal(unshieldCall{
		Fn:          ctx.Env.UnshieldFundsFn,
		Beneficiary: c.Beneficiary,
		Value:       c.Value,
		Shard:       c.Shard,
		CallHash:    ctx.CallHash,
	})
	if err != nil {
		return err
	}
	ctx.Push(oc)
	return nil
}

func shield(ctx *Context, c BalanceShield) error {
	log.Debug(log.StfMonitoring, "balance_shield", "who", c.Who.Short(), "value", c.Value, "call_hash", ctx.CallHash)
	return Failed("Shield funds", ctx.State.Deposit(c.Who, c.Value))
}

func encointerTransfer(ctx *Context, c EncointerBalanceTransfer) error {
	log.Debug(log.StfMonitoring, "encointer_balance_transfer", "from", c.From.Short(), "to", c.To.Short(), "cid", c.Cid, "amount", c.Amount)
	return Failed("Encointer Balance Transfer", ctx.State.TransferCommunity(c.Cid, c.From, c.To, c.Amount))
}

func setFeeConversionFactor(ctx *Context, c EncointerSetFeeConversionFactor) error {
	log.Debug(log.StfMonitoring, "encointer_set_fee_conversion_factor", "who", c.Who.Short(), "factor", c.Factor)
	return Failed("Encointer Balance set fee conversion", ctx.State.SetFeeConversionFactor(c.Factor))
}

func encointerTransferAll(ctx *Context, c EncointerTransferAll) error {
	log.Debug(log.StfMonitoring, "encointer_transfer_all", "from", c.From.Short(), "to", c.To.Short(), "cid", c.Cid)
	return Failed("Encointer Balance transfer all", ctx.State.TransferAllCommunity(c.Cid, c.From, c.To))
}

func registerParticipant(ctx *Context, c CeremoniesRegisterParticipant) error {
	t, err := ctx.State.RegisterParticipant(c.Cid, c.Who, c.Proof)
	if err != nil {
		return Failed("Ceremonies register participant", err)
	}
	log.Debug(log.StfMonitoring, "ceremonies_register_participant", "who", c.Who.Short(), "cid", c.Cid, "as", t)
	return nil
}

func upgradeRegistration(ctx *Context, c CeremoniesUpgradeRegistration) error {
	return Failed("Ceremonies upgrade registration", ctx.State.UpgradeRegistration(c.Cid, c.Who, c.Proof))
}

func unregisterParticipant(ctx *Context, c CeremoniesUnregisterParticipant) error {
	return Failed("Ceremonies unregister participant", ctx.State.UnregisterParticipant(c.Cid, c.Who, c.Linked))
}

func attestAttendees(ctx *Context, c CeremoniesAttestAttendees) error {
	n, err := ctx.State.AttestAttendees(c.Cid, c.Who, c.NumberOfParticipantsVote, c.Attestations)
	if err != nil {
		return Failed("Ceremonies attendees attestation", err)
	}
	log.Debug(log.StfMonitoring, "ceremonies_attest_attendees", "who", c.Who.Short(), "kept", n, "submitted", len(c.Attestations))
	return nil
}

func attestClaims(ctx *Context, c CeremoniesAttestClaims) error {
	n, err := ctx.State.AttestClaims(c.Who, c.Claims)
	if err != nil {
		return Failed("Ceremonies claims attestation", err)
	}
	log.Debug(log.StfMonitoring, "ceremonies_attest_claims", "who", c.Who.Short(), "kept", n, "submitted", len(c.Claims))
	return nil
}

func endorseNewcomer(ctx *Context, c CeremoniesEndorseNewcomer) error {
	return Failed("Ceremonies endorse newcomer", ctx.State.EndorseNewcomer(c.Cid, c.Who, c.Newbie))
}

func claimRewards(ctx *Context, c CeremoniesClaimRewards) error {
	n, err := ctx.State.ClaimRewards(c.Cid, c.Who, c.MeetupIndex)
	if err != nil {
		return Failed("Ceremonies claim rewards", err)
	}
	log.Debug(log.StfMonitoring, "ceremonies_claim_rewards", "who", c.Who.Short(), "cid", c.Cid, "rewarded", n)
	return nil
}

func setInactivityTimeout(ctx *Context, c CeremoniesSetInactivityTimeout) error {
	return Failed("Ceremonies set inactivity timeout", ctx.State.SetInactivityTimeout(c.Timeout))
}

func setTicketsPerBootstrapper(ctx *Context, c CeremoniesSetEndorsementTicketsPerBootstrapper) error {
	return Failed("Ceremonies set endorsement ticket per bootstrapper", ctx.State.SetEndorsementTicketsPerBootstrapper(c.Tickets))
}

func setTicketsPerReputable(ctx *Context, c CeremoniesSetEndorsementTicketsPerReputable) error {
	return Failed("Ceremonies set endorsement ticket per reputable", ctx.State.SetEndorsementTicketsPerReputable(c.Tickets))
}

func setReputationLifetime(ctx *Context, c CeremoniesSetReputationLifetime) error {
	return Failed("Ceremonies set reputation lifetime", ctx.State.SetReputationLifetime(c.Lifetime))
}

func setMeetupTimeOffset(ctx *Context, c CeremoniesSetMeetupTimeOffset) error {
	return Failed("Ceremonies set meetup time offset", ctx.State.SetMeetupTimeOffset(c.Offset))
}

func setTimeTolerance(ctx *Context, c CeremoniesSetTimeTolerance) error {
	return Failed("Ceremonies set time tolerance", ctx.State.SetTimeTolerance(c.Tolerance))
}

func setLocationTolerance(ctx *Context, c CeremoniesSetLocationTolerance) error {
	return Failed("Ceremonies set location tolerance", ctx.State.SetLocationTolerance(c.Tolerance))
}

func purgeCommunityCeremony(ctx *Context, c CeremoniesPurgeCommunityCeremony) error {
	log.Debug(log.StfMonitoring, "ceremonies_purge_community_ceremony", "cc", c.CommunityCeremony)
	return Failed("Ceremonies purge community ceremony", ctx.State.PurgeCommunityCeremony(c.CommunityCeremony))
}
