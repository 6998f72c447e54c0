// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidBackend indicates the ledger backend name is not recognized.
	ErrInvalidBackend = errors.New("config: invalid backend (must be \"bolt\", \"leveldb\", \"pebble\", or \"memory\")")

	// ErrInvalidProgramID indicates the program id is not a base58 public key.
	ErrInvalidProgramID = errors.New("config: invalid program id")

	// ErrInvalidMetricsAddr indicates the metrics listen address is malformed.
	ErrInvalidMetricsAddr = errors.New("config: invalid metrics address")

	// ErrInvalidDNSUpstream indicates the DNS upstream is not host:port.
	ErrInvalidDNSUpstream = errors.New("config: invalid DNS upstream")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidCacheSize indicates a negative cache size.
	ErrInvalidCacheSize = errors.New("config: cache size must not be negative")

	// ErrInvalidPrizeTotal indicates a required prize total above 100 percent.
	ErrInvalidPrizeTotal = errors.New("config: prize total must be between 0 and 100")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigFile indicates the configuration file could not be parsed.
	ErrInvalidConfigFile = errors.New("config: invalid configuration file")
)
