// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the poolctl configuration file.
//
// Values are resolved in priority order: environment variables with the
// POOLESCROW_ prefix, then the TOML file, then DefaultConfig.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/bitfsorg/poolescrow-go/address"
	"github.com/bitfsorg/poolescrow-go/ledger"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. POOLESCROW_LOG_LEVEL.
	EnvPrefix = "POOLESCROW"

	// FileName is the configuration file name inside the data directory.
	FileName = "config.toml"

	// KeystoreFileName is the default keystore file name inside the data directory.
	KeystoreFileName = "keystore.json"
)

// Config holds operator settings.
//
// CacheSize enables an in-process account cache in front of the ledger. Leave
// it at 0 unless this process is the only writer of the ledger files: poolctl
// opens the ledger per command, so a cache there would never be reused, and
// a long-lived cache would miss writes made by other processes.
type Config struct {
	DataDir     string `mapstructure:"data_dir" toml:"data_dir" json:"data_dir"`
	Backend     string `mapstructure:"backend" toml:"backend" json:"backend"`
	ProgramID   string `mapstructure:"program_id" toml:"program_id" json:"program_id"`
	Keystore    string `mapstructure:"keystore" toml:"keystore" json:"keystore"`
	LogLevel    string `mapstructure:"log_level" toml:"log_level" json:"log_level"`
	LogFile     string `mapstructure:"log_file" toml:"log_file" json:"log_file"`
	MetricsAddr string `mapstructure:"metrics_addr" toml:"metrics_addr" json:"metrics_addr"`
	CacheSize   int    `mapstructure:"cache_size" toml:"cache_size" json:"cache_size"`
	PrizeTotal  uint   `mapstructure:"prize_total" toml:"prize_total" json:"prize_total"`
	RentExempt  bool   `mapstructure:"rent_exempt" toml:"rent_exempt" json:"rent_exempt"`
	DNSSEC      bool   `mapstructure:"dnssec" toml:"dnssec" json:"dnssec"`
	DNSUpstream string `mapstructure:"dns_upstream" toml:"dns_upstream" json:"dns_upstream"`
}

// DefaultDataDir returns ~/.poolescrow, or .poolescrow when the home
// directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".poolescrow"
	}
	return filepath.Join(home, ".poolescrow")
}

// ConfigPath returns the configuration file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		DataDir:     DefaultDataDir(),
		Backend:     ledger.BackendBolt,
		ProgramID:   address.DefaultProgramID.String(),
		LogLevel:    "info",
		MetricsAddr: "127.0.0.1:9464",
		CacheSize:   0,
		RentExempt:  true,
	}
}

// KeystorePath returns the configured keystore path, defaulting to a file in
// the data directory.
func (c Config) KeystorePath() string {
	if c.Keystore != "" {
		return c.Keystore
	}
	return filepath.Join(c.DataDir, KeystoreFileName)
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("program_id", d.ProgramID)
	v.SetDefault("keystore", d.Keystore)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("prize_total", d.PrizeTotal)
	v.SetDefault("rent_exempt", d.RentExempt)
	v.SetDefault("dnssec", d.DNSSEC)
	v.SetDefault("dns_upstream", d.DNSUpstream)
}

// LoadConfig reads the TOML file at path, applies environment overrides and
// validates the result. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "# poolctl configuration"); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return f.Close()
}
