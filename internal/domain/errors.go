package domain

import "errors"

// Sentinel errors for every rejected transition. Handlers translate these to
// HTTP responses via their status maps; ErrorCode supplies the stable
// machine-readable name clients switch on.
var (
	ErrPolicyDisabled        = errors.New("This product is disabled for the collection")
	ErrFeeOutOfRange         = errors.New("Fee basis points out of range")
	ErrPolicyInUse           = errors.New("Collection has open positions")
	ErrInvalidState          = errors.New("Invalid state")
	ErrAlreadyActive         = errors.New("Already active")
	ErrProductNotActive      = errors.New("Product not active")
	ErrNotOverdue            = errors.New("This loan is not overdue")
	ErrOptionExpired         = errors.New("Option expired")
	ErrOptionNotExpired      = errors.New("Option not expired")
	ErrNotExpired            = errors.New("Rental not expired")
	ErrInvalidExpiry         = errors.New("Invalid expiry")
	ErrUnauthorized          = errors.New("Unauthorized")
	ErrRequireKeysEqViolated = errors.New("Caller does not match required signer")
	ErrInvalidParameters     = errors.New("Invalid parameters")
	ErrInsufficientFunds     = errors.New("Insufficient lamports")
	ErrAccountFrozen         = errors.New("Token account is frozen")
	ErrInvalidDelegate       = errors.New("Invalid delegate")
	ErrInvalidCollection     = errors.New("Mint does not belong to collection")
	ErrNotFound              = errors.New("Not found")
	ErrNumericalOverflow     = errors.New("Numerical overflow")
)

var errorCodes = map[error]string{
	ErrPolicyDisabled:        "PolicyDisabled",
	ErrFeeOutOfRange:         "FeeOutOfRange",
	ErrPolicyInUse:           "PolicyInUse",
	ErrInvalidState:          "InvalidState",
	ErrAlreadyActive:         "AlreadyActive",
	ErrProductNotActive:      "ProductNotActive",
	ErrNotOverdue:            "NotOverdue",
	ErrOptionExpired:         "OptionExpired",
	ErrOptionNotExpired:      "OptionNotExpired",
	ErrNotExpired:            "NotExpired",
	ErrInvalidExpiry:         "InvalidExpiry",
	ErrUnauthorized:          "Unauthorized",
	ErrRequireKeysEqViolated: "RequireKeysEqViolated",
	ErrInvalidParameters:     "InvalidParameters",
	ErrInsufficientFunds:     "InsufficientFunds",
	ErrAccountFrozen:         "AccountFrozen",
	ErrInvalidDelegate:       "InvalidDelegate",
	ErrInvalidCollection:     "InvalidCollection",
	ErrNotFound:              "NotFound",
	ErrNumericalOverflow:     "NumericalOverflow",
}

// ErrorCode returns the stable code for a sentinel error, or "Internal" for
// anything else (DB failures etc. are never exposed by name).
func ErrorCode(err error) string {
	for sentinel, code := range errorCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "Internal"
}
