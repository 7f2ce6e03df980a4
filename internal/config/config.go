package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/chatrelay/internal/store"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	MaxUsers          int           `mapstructure:"max_users" yaml:"max_users"`
	MaxFrameBytes     int           `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
	OutboundQueue     int           `mapstructure:"outbound_queue" yaml:"outbound_queue"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	HistoryDriver     string        `mapstructure:"history_driver" yaml:"history_driver"`
	HistoryDSN        string        `mapstructure:"history_dsn" yaml:"history_dsn"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              "127.0.0.1:18000",
		HTTPAddr:          ":8080",
		MaxUsers:          3,
		MaxFrameBytes:     64 << 10,
		OutboundQueue:     64,
		LogLevel:          "info",
		HistoryDriver:     store.DriverMemory,
		HistoryDSN:        ":memory:",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.MaxUsers != 0 {
		c.MaxUsers = other.MaxUsers
	}
	if other.MaxFrameBytes != 0 {
		c.MaxFrameBytes = other.MaxFrameBytes
	}
	if other.OutboundQueue != 0 {
		c.OutboundQueue = other.OutboundQueue
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.HistoryDriver != "" {
		c.HistoryDriver = other.HistoryDriver
	}
	if other.HistoryDSN != "" {
		c.HistoryDSN = other.HistoryDSN
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks limits and the history driver.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalid)
	}
	if c.MaxUsers <= 0 {
		return fmt.Errorf("%w: max_users must be positive, got %d", ErrInvalid, c.MaxUsers)
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("%w: max_frame_bytes must be positive, got %d", ErrInvalid, c.MaxFrameBytes)
	}
	if c.OutboundQueue <= 0 {
		return fmt.Errorf("%w: outbound_queue must be positive, got %d", ErrInvalid, c.OutboundQueue)
	}
	switch c.HistoryDriver {
	case store.DriverMemory, store.DriverSQLite:
	default:
		return fmt.Errorf("%w: unknown history_driver %q", ErrInvalid, c.HistoryDriver)
	}
	return nil
}
