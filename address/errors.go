package address

import "errors"

var (
	// ErrNoBump indicates no valid off-curve address exists for the seeds.
	ErrNoBump = errors.New("address: no valid bump seed found")

	// ErrZeroIdentity indicates an all-zero identity was supplied as a seed.
	ErrZeroIdentity = errors.New("address: identity must not be the zero key")
)
