package ledger

import "errors"

// Business rule failures. Dispatch reports them by name.
var (
	ErrReadOnly                      = errors.New("ReadOnly")
	ErrInsufficientBalance           = errors.New("InsufficientBalance")
	ErrBalanceOverflow               = errors.New("Overflow")
	ErrBalanceTooLow                 = errors.New("BalanceTooLow")
	ErrInvalidAmount                 = errors.New("InvalidAmount")
	ErrInexistentCommunity           = errors.New("InexistentCommunity")
	ErrParticipantAlreadyRegistered  = errors.New("ParticipantAlreadyRegistered")
	ErrParticipantIsNotRegistered    = errors.New("ParticipantIsNotRegistered")
	ErrMustBeNewbieToUpgrade         = errors.New("MustBeNewbieToUpgradeRegistration")
	ErrAttendanceUnverifiedOrUsed    = errors.New("AttendanceUnverifiedOrAlreadyUsed")
	ErrBadProofOfAttendanceSignature = errors.New("BadProofOfAttendanceSignature")
	ErrProofAcausal                  = errors.New("ProofAcausal")
	ErrProofOutdated                 = errors.New("ProofOutdated")
	ErrWrongProofSubject             = errors.New("WrongProofSubject")
	ErrParticipantNotAssigned        = errors.New("ParticipantIsNotAssigned")
	ErrNoValidAttestations           = errors.New("NoValidAttestations")
	ErrNoValidClaims                 = errors.New("NoValidClaims")
	ErrAlreadyEndorsed               = errors.New("AlreadyEndorsed")
	ErrNoMoreNewbieTickets           = errors.New("NoMoreNewbieTickets")
	ErrAuthorizationRequired         = errors.New("AuthorizationRequired")
	ErrRewardsAlreadyIssued          = errors.New("RewardsAlreadyIssued")
	ErrVotesNotDependable            = errors.New("VotesNotDependable")
)

// ErrorName returns the bare name of a ledger error, or err.Error() for others.
func ErrorName(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		for _, known := range all {
			if e == known {
				return known.Error()
			}
		}
	}
	return err.Error()
}

var all = []error{
	ErrReadOnly, ErrInsufficientBalance, ErrBalanceOverflow, ErrBalanceTooLow, ErrInvalidAmount,
	ErrInexistentCommunity, ErrParticipantAlreadyRegistered, ErrParticipantIsNotRegistered,
	ErrMustBeNewbieToUpgrade, ErrAttendanceUnverifiedOrUsed, ErrBadProofOfAttendanceSignature,
	ErrProofAcausal, ErrProofOutdated, ErrWrongProofSubject, ErrParticipantNotAssigned,
	ErrNoValidAttestations, ErrNoValidClaims, ErrAlreadyEndorsed, ErrNoMoreNewbieTickets,
	ErrAuthorizationRequired, ErrRewardsAlreadyIssued,
	ErrVotesNotDependable,
}
