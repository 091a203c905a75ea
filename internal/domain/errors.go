package domain

import "errors"

var (
	ErrDocumentNotFound      = errors.New("document not found")
	ErrSignatureNotFound     = errors.New("signature not found")
	ErrKeyNotFound           = errors.New("signing key not found")
	ErrKeyProvisioningFailed = errors.New("key provisioning failed")
	ErrKeyExpired            = errors.New("signing key expired")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrUnavailable           = errors.New("infrastructure unavailable")
	ErrInvalidInput          = errors.New("invalid input")
)
