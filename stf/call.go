package stf

import (
	"fmt"

	"github.com/colorfulnotion/sidechain/codec"
	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/crypto"
	"github.com/colorfulnotion/sidechain/types"
)

// Call is one TrustedCall variant. Every variant names the account that must
// sign it.
type Call interface {
	Signer() common.AccountId
}

type BalanceSetBalance struct {
	Root     common.AccountId
	Who      common.AccountId
	Free     common.Balance
	Reserved common.Balance
}

type BalanceTransfer struct {
	From  common.AccountId
	To    common.AccountId
	Value common.Balance
}

// BalanceUnshield moves funds out of the sidechain to Beneficiary on the
// parentchain.
type BalanceUnshield struct {
	Incognito   common.AccountId
	Beneficiary common.AccountId
	Value       common.Balance
	Shard       common.ShardIdentifier
}

// BalanceShield credits funds observed on the parentchain. Only the enclave
// signer may submit it.
type BalanceShield struct {
	Enclave common.AccountId
	Who     common.AccountId
	Value   common.Balance
}

type EncointerBalanceTransfer struct {
	From   common.AccountId
	To     common.AccountId
	Cid    types.CommunityIdentifier
	Amount types.BalanceType
}

type EncointerSetFeeConversionFactor struct {
	Who    common.AccountId
	Factor common.Balance
}

type EncointerTransferAll struct {
	From common.AccountId
	To   common.AccountId
	Cid  types.CommunityIdentifier
}

type CeremoniesRegisterParticipant struct {
	Who   common.AccountId
	Cid   types.CommunityIdentifier
	Proof *types.ProofOfAttendance
}

type CeremoniesUpgradeRegistration struct {
	Who   common.AccountId
	Cid   types.CommunityIdentifier
	Proof types.ProofOfAttendance
}

type CeremoniesUnregisterParticipant struct {
	Who    common.AccountId
	Cid    types.CommunityIdentifier
	Linked *types.CommunityCeremony
}

type CeremoniesAttestAttendees struct {
	Who                      common.AccountId
	Cid                      types.CommunityIdentifier
	NumberOfParticipantsVote uint32
	Attestations             []common.AccountId
}

type CeremoniesAttestClaims struct {
	Who    common.AccountId
	Claims []types.ClaimOfAttendance
}

type CeremoniesEndorseNewcomer struct {
	Who    common.AccountId
	Cid    types.CommunityIdentifier
	Newbie common.AccountId
}

type CeremoniesClaimRewards struct {
	Who         common.AccountId
	Cid         types.CommunityIdentifier
	MeetupIndex *types.MeetupIndex
}

type CeremoniesSetInactivityTimeout struct {
	Who     common.AccountId
	Timeout uint32
}

type CeremoniesSetEndorsementTicketsPerBootstrapper struct {
	Who     common.AccountId
	Tickets uint8
}

type CeremoniesSetEndorsementTicketsPerReputable struct {
	Who     common.AccountId
	Tickets uint8
}

type CeremoniesSetReputationLifetime struct {
	Who      common.AccountId
	Lifetime uint32
}

type CeremoniesSetMeetupTimeOffset struct {
	Who    common.AccountId
	Offset int32
}

type CeremoniesSetTimeTolerance struct {
	Who       common.AccountId
	Tolerance types.Moment
}

type CeremoniesSetLocationTolerance struct {
	Who       common.AccountId
	Tolerance uint32
}

type CeremoniesPurgeCommunityCeremony struct {
	Who               common.AccountId
	CommunityCeremony types.CommunityCeremony
}

func (c BalanceSetBalance) Signer() common.AccountId                { return c.Root }
func (c BalanceTransfer) Signer() common.AccountId                  { return c.From }
func (c BalanceUnshield) Signer() common.AccountId                  { return c.Incognito }
func (c BalanceShield) Signer() common.AccountId                    { return c.Enclave }
func (c EncointerBalanceTransfer) Signer() common.AccountId         { return c.From }
func (c EncointerSetFeeConversionFactor) Signer() common.AccountId  { return c.Who }
func (c EncointerTransferAll) Signer() common.AccountId             { return c.From }
func (c CeremoniesRegisterParticipant) Signer() common.AccountId    { return c.Who }
func (c CeremoniesUpgradeRegistration) Signer() common.AccountId    { return c.Who }
func (c CeremoniesUnregisterParticipant) Signer() common.AccountId  { return c.Who }
func (c CeremoniesAttestAttendees) Signer() common.AccountId        { return c.Who }
func (c CeremoniesAttestClaims) Signer() common.AccountId           { return c.Who }
func (c CeremoniesEndorseNewcomer) Signer() common.AccountId        { return c.Who }
func (c CeremoniesClaimRewards) Signer() common.AccountId           { return c.Who }
func (c CeremoniesSetInactivityTimeout) Signer() common.AccountId   { return c.Who }
func (c CeremoniesSetReputationLifetime) Signer() common.AccountId  { return c.Who }
func (c CeremoniesSetMeetupTimeOffset) Signer() common.AccountId    { return c.Who }
func (c CeremoniesSetTimeTolerance) Signer() common.AccountId       { return c.Who }
func (c CeremoniesSetLocationTolerance) Signer() common.AccountId   { return c.Who }
func (c CeremoniesPurgeCommunityCeremony) Signer() common.AccountId { return c.Who }

func (c CeremoniesSetEndorsementTicketsPerBootstrapper) Signer() common.AccountId { return c.Who }
func (c CeremoniesSetEndorsementTicketsPerReputable) Signer() common.AccountId    { return c.Who }

// TrustedCall is the SCALE enum over every registered Call variant.
type TrustedCall struct {
	Call
}

func NewTrustedCall(c Call) TrustedCall {
	return TrustedCall{Call: c}
}

func (c TrustedCall) IndexValue() (int, interface{}, error) {
	spec, err := lookupCall(c.Call)
	if err != nil {
		return 0, nil, err
	}
	return int(spec.Index), c.Call, nil
}

func (c *TrustedCall) ValueAt(index uint) (interface{}, error) {
	spec, ok := callByIndex(index)
	if !ok {
		return nil, fmt.Errorf("%w: call %d", ErrUnknownVariant, index)
	}
	return spec.Variant, nil
}

func (c *TrustedCall) SetValue(v interface{}) error {
	call, ok := v.(Call)
	if !ok {
		return fmt.Errorf("%w: %T is not a call", ErrUnknownVariant, v)
	}
	c.Call = call
	return nil
}

// Name is the wire name of the variant, e.g. "balance_transfer".
func (c TrustedCall) Name() string {
	spec, err := lookupCall(c.Call)
	if err != nil {
		return fmt.Sprintf("%T", c.Call)
	}
	return spec.Name
}

// Hash is blake2_256 over the encoded call, reported back to the parentchain.
func (c TrustedCall) Hash() (common.Hash, error) {
	enc, err := codec.Marshal(c)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2Hash(enc), nil
}

// SigningPayload is encode(call) ++ nonce ++ mrenclave ++ shard.
func (c TrustedCall) SigningPayload(nonce uint32, mrenclave common.MrEnclave, shard common.ShardIdentifier) ([]byte, error) {
	enc, err := codec.Marshal(c)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 0, len(enc)+4+64)
	payload = append(payload, enc...)
	payload = append(payload, common.Uint32ToBytes(nonce)...)
	payload = append(payload, mrenclave[:]...)
	return append(payload, shard[:]...), nil
}

func (c TrustedCall) Sign(pair crypto.Pair, nonce uint32, mrenclave common.MrEnclave, shard common.ShardIdentifier) (TrustedCallSigned, error) {
	payload, err := c.SigningPayload(nonce, mrenclave, shard)
	if err != nil {
		return TrustedCallSigned{}, err
	}
	return TrustedCallSigned{Call: c, Nonce: nonce, Signature: pair.Sign(payload)}, nil
}

// TrustedCallSigned is the envelope submitted to the engine.
type TrustedCallSigned struct {
	Call      TrustedCall
	Nonce     uint32
	Signature crypto.MultiSignature
}

// Sender is the account whose nonce guards the call.
func (s TrustedCallSigned) Sender() common.AccountId {
	return s.Call.Signer()
}

// VerifySignature checks the signature against the call's signer, bound to
// the enclave and shard the call was signed for.
func (s TrustedCallSigned) VerifySignature(mrenclave common.MrEnclave, shard common.ShardIdentifier) bool {
	if s.Call.Call == nil {
		return false
	}
	payload, err := s.Call.SigningPayload(s.Nonce, mrenclave, shard)
	if err != nil {
		return false
	}
	return crypto.Verify(s.Signature, payload, s.Sender())
}
