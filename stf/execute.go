package stf

import (
	"fmt"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/ledger"
	"github.com/colorfulnotion/sidechain/log"
)

// Execute applies the call to w. The caller owns atomicity: on error every
// write made to w must be discarded, including any queued OpaqueCall.
//
// Checks run in order: nonce, ceremony phase, privilege, dispatch. The
// sender's nonce is incremented only once dispatch has succeeded.
func (s TrustedCallSigned) Execute(w ledger.Writer, env Env, calls *[]OpaqueCall) error {
	spec, err := lookupCall(s.Call.Call)
	if err != nil {
		return err
	}
	if !env.Enabled(spec.Module) {
		return fmt.Errorf("%w: call %s, module %s is not enabled", ErrUnknownVariant, spec.Name, spec.Module)
	}
	sender := s.Sender()
	callHash, err := s.Call.Hash()
	if err != nil {
		return err
	}

	expected, err := w.AccountNonce(sender)
	if err != nil {
		return err
	}
	if s.Nonce != expected {
		log.Debug(log.StfMonitoring, "Execute: invalid nonce", "call", spec.Name, "sender", sender.Short(), "expected", expected, "got", s.Nonce)
		return &InvalidNonceError{Expected: expected, Got: s.Nonce}
	}

	if spec.Phase != nil {
		phase, err := w.CurrentPhase()
		if err != nil {
			return err
		}
		if !spec.Phase.Allows(phase) {
			return &DispatchError{Cause: spec.Phase.Message}
		}
	}

	if err := checkPrivilege(w, env, spec.Privilege, sender); err != nil {
		return err
	}

	ctx := &Context{State: w, Env: env, CallHash: callHash, calls: calls}
	if err := spec.Dispatch(ctx, s.Call.Call); err != nil {
		log.Debug(log.StfMonitoring, "Execute: dispatch failed", "call", spec.Name, "sender", sender.Short(), "err", err)
		return err
	}
	return w.IncAccountNonce(sender)
}

func checkPrivilege(r ledger.Reader, env Env, p Privilege, who common.AccountId) error {
	switch p {
	case SudoOnly:
		ok, err := isRoot(r, who)
		if err != nil {
			return err
		}
		if !ok {
			return &MissingPrivilegesError{Account: who}
		}
	case EnclaveSignerOnly:
		if who != env.EnclaveSigner {
			return ErrRequireEnclaveSignerAccount
		}
	case PolicyOnly:
		if !env.Policy.allows(r, who) {
			return &MissingPrivilegesError{Account: who}
		}
	}
	return nil
}

// StorageHashesToUpdate lists the storage keys the host must refresh after
// the call. The set depends on the variant only.
func (s TrustedCallSigned) StorageHashesToUpdate() [][]byte {
	spec, err := lookupCall(s.Call.Call)
	if err != nil || len(spec.StorageKeys) == 0 {
		return nil
	}
	out := make([][]byte, len(spec.StorageKeys))
	for i, k := range spec.StorageKeys {
		out[i] = append([]byte(nil), k...)
	}
	return out
}
