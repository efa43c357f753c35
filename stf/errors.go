package stf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/ledger"
)

// State transition errors
var (
	ErrInvalidNonce                = errors.New("S1|InvalidNonce: Call nonce does not match the account nonce.")
	ErrMissingPrivileges           = errors.New("S2|MissingPrivileges: Signer is not allowed to perform this operation.")
	ErrMissingFunds                = errors.New("S3|MissingFunds: Free balance is lower than the requested amount.")
	ErrDispatch                    = errors.New("S4|Dispatch: Call was rejected by the runtime.")
	ErrRequireEnclaveSignerAccount = errors.New("S5|RequireEnclaveSignerAccount: Only the enclave signer may shield funds.")
	ErrInvalidSignature            = errors.New("S6|InvalidSignature: Signature does not verify against the payload.")
	ErrUnknownVariant              = errors.New("S7|UnknownVariant: No operation is registered under this index.")
)

// InvalidNonceError carries the nonce the account expected.
type InvalidNonceError struct {
	Expected uint32
	Got      uint32
}

func (e *InvalidNonceError) Error() string {
	return fmt.Sprintf("%v (expected %d, got %d)", ErrInvalidNonce, e.Expected, e.Got)
}

func (e *InvalidNonceError) Unwrap() error { return ErrInvalidNonce }

// MissingPrivilegesError names the account that lacked privileges.
type MissingPrivilegesError struct {
	Account common.AccountId
}

func (e *MissingPrivilegesError) Error() string {
	return fmt.Sprintf("%v (%s)", ErrMissingPrivileges, e.Account)
}

func (e *MissingPrivilegesError) Unwrap() error { return ErrMissingPrivileges }

// DispatchError wraps a runtime failure with the "<Operation> error: <cause>"
// message reported to the caller.
type DispatchError struct {
	Cause string
	Err   error
}

func (e *DispatchError) Error() string {
	return "S4|Dispatch: " + e.Cause
}

func (e *DispatchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDispatch}
	}
	return []error{ErrDispatch, e.Err}
}

// Failed wraps a runtime error as the dispatch failure "<op> error: <name>".
// A nil err stays nil.
func Failed(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DispatchError{Cause: fmt.Sprintf("%s error: %s", op, ledger.ErrorName(err)), Err: err}
}

// GetErrorName returns the name part of a "CODE|Name: description" error.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	nameDesc := strings.SplitN(errStr, "|", 2)[1]
	return strings.TrimSpace(strings.SplitN(nameDesc, ":", 2)[0])
}

// GetErrorCode returns the code part of a "CODE|Name: description" error.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(errStr, "|", 2)[0])
}
