package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SyncMode selects the playlist synchronization driver.
type SyncMode string

const (
	SyncModeWS      SyncMode = "WS"
	SyncModePolling SyncMode = "POLLING"
)

// Config holds the engine configuration.
type Config struct {
	SyncMode               SyncMode
	KeepAliveIntervalSec   int
	Nickname               string
	LogLevel               string
	ProxyPort              int
	SSDPTimeoutMs          int
	SoapTimeoutMs          int
	WSConnectTimeoutMs     int
	ResolverTimeoutMs      int
	PollingIntervalMs      int
	HeartbeatWarmupFetch   bool
	ReconnectDelaySec      int
	AutoAdvanceCooldownSec int
}

// fileConfig is the YAML shape of an optional config file named by KTV_CONFIG.
// Environment variables override file values.
type fileConfig struct {
	SyncMode          string `yaml:"sync_mode"`
	KeepAliveInterval int    `yaml:"keep_alive_interval"`
	Nickname          string `yaml:"nickname"`
	LogLevel          string `yaml:"log_level"`
	ProxyPort         int    `yaml:"proxy_port"`
}

// Load reads configuration from the optional YAML file and environment
// variables with defaults.
func Load() (Config, error) {
	cfg := Config{
		SyncMode:               SyncModeWS,
		KeepAliveIntervalSec:   30,
		LogLevel:               "info",
		ProxyPort:              8080,
		SSDPTimeoutMs:          3000,
		SoapTimeoutMs:          5000,
		WSConnectTimeoutMs:     10000,
		ResolverTimeoutMs:      10000,
		PollingIntervalMs:      300,
		HeartbeatWarmupFetch:   true,
		ReconnectDelaySec:      3,
		AutoAdvanceCooldownSec: 5,
	}

	if path := os.Getenv("KTV_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if fc.SyncMode != "" {
			cfg.SyncMode = parseSyncMode(fc.SyncMode)
		}
		if fc.KeepAliveInterval > 0 {
			cfg.KeepAliveIntervalSec = fc.KeepAliveInterval
		}
		if fc.Nickname != "" {
			cfg.Nickname = fc.Nickname
		}
		if fc.LogLevel != "" {
			cfg.LogLevel = fc.LogLevel
		}
		if fc.ProxyPort > 0 {
			cfg.ProxyPort = fc.ProxyPort
		}
	}

	if v := os.Getenv("KTV_SYNC_MODE"); v != "" {
		cfg.SyncMode = parseSyncMode(v)
	}
	cfg.KeepAliveIntervalSec = envInt("KEEP_ALIVE_INTERVAL", cfg.KeepAliveIntervalSec)
	cfg.Nickname = envString("KTV_NICKNAME", cfg.Nickname)
	cfg.LogLevel = envString("KTV_LOG_LEVEL", cfg.LogLevel)
	cfg.ProxyPort = envInt("KTV_PROXY_PORT", cfg.ProxyPort)
	cfg.SSDPTimeoutMs = envInt("SSDP_DISCOVERY_TIMEOUT_MS", cfg.SSDPTimeoutMs)
	cfg.SoapTimeoutMs = envInt("SOAP_TIMEOUT_MS", cfg.SoapTimeoutMs)
	cfg.WSConnectTimeoutMs = envInt("WS_CONNECT_TIMEOUT_MS", cfg.WSConnectTimeoutMs)
	cfg.ResolverTimeoutMs = envInt("RESOLVER_TIMEOUT_MS", cfg.ResolverTimeoutMs)

	if cfg.ProxyPort < 1 || cfg.ProxyPort > 65535 {
		return Config{}, fmt.Errorf("KTV_PROXY_PORT out of range: %d", cfg.ProxyPort)
	}

	return cfg, nil
}

func parseSyncMode(raw string) SyncMode {
	if strings.EqualFold(strings.TrimSpace(raw), "POLLING") {
		return SyncModePolling
	}
	return SyncModeWS
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
