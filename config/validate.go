// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/bitfsorg/poolescrow-go/ledger"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !slices.Contains(ledger.Backends, strings.ToLower(cfg.Backend)) {
		return ErrInvalidBackend
	}

	if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProgramID, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.MetricsAddr != "" {
		if err := validateAddr(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMetricsAddr, err)
		}
	}

	if cfg.CacheSize < 0 {
		return ErrInvalidCacheSize
	}

	if cfg.PrizeTotal > 100 {
		return ErrInvalidPrizeTotal
	}

	if cfg.DNSUpstream != "" {
		if err := validateAddr(cfg.DNSUpstream); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDNSUpstream, err)
		}
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
