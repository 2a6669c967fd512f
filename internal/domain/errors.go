package domain

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrInvalidUsername   = errors.New("username must be 3-20 characters long and contain only letters, numbers, and underscores")
	ErrInvalidWallet     = errors.New("invalid wallet address format")
	ErrInvalidPhone      = errors.New("invalid phone number format")
	ErrConsentRequired   = errors.New("consent is required")
	ErrLivenessRequired  = errors.New("liveness check has not passed")
	ErrDuplicateIdentity = errors.New("a record with this information already exists")
	ErrNotFound          = errors.New("not found")
	ErrCodeInvalid       = errors.New("invalid code")
	ErrCodeExpired       = errors.New("code expired, request a new code")
	ErrAlreadyRewarded   = errors.New("already rewarded")
	ErrRewardPending     = errors.New("verified but reward pending")
	ErrMalformedDocument = errors.New("malformed source document")
	ErrElementOrphaned   = errors.New("element page exceeds document page count")
	ErrMailDelivery      = errors.New("mail delivery failed")
	ErrUnauthorized      = errors.New("unauthorized")
)
