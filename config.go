package txio

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gobeaver/beaver-kit/config"

	"github.com/gobeaver/txio/internal/logging"
)

type Config struct {
	// Rollback tolerance in milliseconds, subtracted from the registration
	// time when deciding what a rollback removes
	RollbackToleranceMS int `env:"TXIO_ROLLBACK_TOLERANCE_MS,default:50"`

	// Default copy options
	BufferSize       int    `env:"TXIO_BUFFER_SIZE,default:0"` // 0 copies the whole file at once
	DefaultOverwrite bool   `env:"TXIO_DEFAULT_OVERWRITE,default:false"`
	MaxConcurrency   int    `env:"TXIO_MAX_CONCURRENCY,default:0"` // 0 is unbounded
	VerifyChecksum   string `env:"TXIO_VERIFY_CHECKSUM"`           // md5, sha1, sha256, sha512, crc32, xxhash

	// Codec settings
	JSONIndent bool   `env:"TXIO_JSON_INDENT,default:true"`
	CSVComma   string `env:"TXIO_CSV_COMMA"` // single character, empty means ','

	// Logging
	LogLevel       string `env:"TXIO_LOG_LEVEL,default:info"`
	LogDevelopment bool   `env:"TXIO_LOG_DEVELOPMENT,default:false"`

	// Prometheus counters for transactions and undo actions
	MetricsEnabled bool `env:"TXIO_METRICS_ENABLED,default:false"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the values GetConfig yields with an empty environment
func DefaultConfig() *Config {
	return &Config{
		RollbackToleranceMS: 50,
		JSONIndent:          true,
		LogLevel:            "info",
	}
}

// Tolerance returns the rollback tolerance as a duration
func (c *Config) Tolerance() time.Duration {
	return time.Duration(c.RollbackToleranceMS) * time.Millisecond
}

// Comma returns the CSV delimiter, defaulting to ','
func (c *Config) Comma() rune {
	if c.CSVComma == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.CSVComma)
	return r
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.RollbackToleranceMS < 0 {
		return fmt.Errorf("rollback tolerance must not be negative: %d", cfg.RollbackToleranceMS)
	}
	if cfg.BufferSize < 0 {
		return fmt.Errorf("buffer size must not be negative: %d", cfg.BufferSize)
	}
	if cfg.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency must not be negative: %d", cfg.MaxConcurrency)
	}
	if cfg.VerifyChecksum != "" {
		if _, err := NewHasher(ChecksumAlgorithm(cfg.VerifyChecksum)); err != nil {
			return err
		}
	}
	if cfg.CSVComma != "" {
		if utf8.RuneCountInString(cfg.CSVComma) != 1 {
			return fmt.Errorf("csv comma must be a single character: %q", cfg.CSVComma)
		}
		switch cfg.Comma() {
		case '"', '\r', '\n', utf8.RuneError:
			return fmt.Errorf("invalid csv comma: %q", cfg.CSVComma)
		}
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// defaultOptions turns configured defaults into operation options that run
// before any caller-supplied ones
func defaultOptions(cfg *Config) []Option {
	var options []Option

	if cfg.DefaultOverwrite {
		options = append(options, WithOverwrite(true))
	}
	if cfg.BufferSize > 0 {
		options = append(options, WithBufferSize(cfg.BufferSize))
	}
	if cfg.MaxConcurrency > 0 {
		options = append(options, WithConcurrency(cfg.MaxConcurrency))
	}
	if cfg.VerifyChecksum != "" {
		options = append(options, WithVerify(ChecksumAlgorithm(cfg.VerifyChecksum)))
	}

	return options
}
