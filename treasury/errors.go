package treasury

import "errors"

var (
	// ErrDNSLookupFailed indicates a TXT lookup failed or returned nothing.
	ErrDNSLookupFailed = errors.New("treasury: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream did not authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("treasury: DNSSEC validation failed")

	// ErrNoTreasuryRecord indicates no TXT record carries the treasury= prefix.
	ErrNoTreasuryRecord = errors.New("treasury: no treasury record")

	// ErrInvalidTreasury indicates the published or supplied key is malformed.
	ErrInvalidTreasury = errors.New("treasury: invalid treasury key")
)
