package txio

import (
	"testing"
	"time"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    Config
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			want:    *DefaultConfig(),
		},
		{
			name: "copy defaults",
			envVars: map[string]string{
				"BEAVER_TXIO_BUFFER_SIZE":       "65536",
				"BEAVER_TXIO_DEFAULT_OVERWRITE": "true",
				"BEAVER_TXIO_MAX_CONCURRENCY":   "4",
				"BEAVER_TXIO_VERIFY_CHECKSUM":   "xxhash",
			},
			want: Config{
				RollbackToleranceMS: 50,
				BufferSize:          65536,
				DefaultOverwrite:    true,
				MaxConcurrency:      4,
				VerifyChecksum:      "xxhash",
				JSONIndent:          true,
				LogLevel:            "info",
			},
		},
		{
			name: "codec, logging and metrics",
			envVars: map[string]string{
				"BEAVER_TXIO_ROLLBACK_TOLERANCE_MS": "200",
				"BEAVER_TXIO_JSON_INDENT":           "false",
				"BEAVER_TXIO_CSV_COMMA":             ";",
				"BEAVER_TXIO_LOG_LEVEL":             "debug",
				"BEAVER_TXIO_LOG_DEVELOPMENT":       "true",
				"BEAVER_TXIO_METRICS_ENABLED":       "true",
			},
			want: Config{
				RollbackToleranceMS: 200,
				CSVComma:            ";",
				LogLevel:            "debug",
				LogDevelopment:      true,
				MetricsEnabled:      true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := GetConfig()
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}
			if *cfg != tt.want {
				t.Errorf("GetConfig() = %+v, want %+v", *cfg, tt.want)
			}
		})
	}
}

func TestBuilderPrefix(t *testing.T) {
	t.Setenv("APP_TXIO_ROLLBACK_TOLERANCE_MS", "10")
	t.Setenv("APP_TXIO_LOG_LEVEL", "error")

	x, err := WithPrefix("APP_").New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := x.Manager().Tolerance(); got != 10*time.Millisecond {
		t.Errorf("Tolerance = %v, want 10ms", got)
	}
	if got := x.Config().LogLevel; got != "error" {
		t.Errorf("LogLevel = %q, want error", got)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative tolerance", func(c *Config) { c.RollbackToleranceMS = -1 }, true},
		{"negative buffer", func(c *Config) { c.BufferSize = -4 }, true},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, true},
		{"known checksum", func(c *Config) { c.VerifyChecksum = "sha256" }, false},
		{"unknown checksum", func(c *Config) { c.VerifyChecksum = "md4" }, true},
		{"tab comma", func(c *Config) { c.CSVComma = "\t" }, false},
		{"multi-char comma", func(c *Config) { c.CSVComma = ";;" }, true},
		{"quote comma", func(c *Config) { c.CSVComma = `"` }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := validateConfig(nil); err == nil {
		t.Error("validateConfig(nil) should fail")
	}
}

func TestDefaultOptions(t *testing.T) {
	cfg := DefaultConfig()
	if got := defaultOptions(cfg); len(got) != 0 {
		t.Errorf("default config produced %d options, want 0", len(got))
	}

	cfg.DefaultOverwrite = true
	cfg.BufferSize = 512
	cfg.MaxConcurrency = 3
	cfg.VerifyChecksum = "crc32"

	o := buildOptions(defaultOptions(cfg), []Option{WithOverwrite(false)})
	if o.Overwrite {
		t.Error("caller options must override configured defaults")
	}
	if !o.BufferSet || o.BufferSize != 512 {
		t.Errorf("BufferSize = %d (set %v), want 512", o.BufferSize, o.BufferSet)
	}
	if o.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", o.Concurrency)
	}
	if o.Verify != ChecksumCRC32 {
		t.Errorf("Verify = %q, want crc32", o.Verify)
	}
}

func TestConfigComma(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Comma() != ',' {
		t.Errorf("Comma() = %q, want ','", cfg.Comma())
	}
	cfg.CSVComma = "|"
	if cfg.Comma() != '|' {
		t.Errorf("Comma() = %q, want '|'", cfg.Comma())
	}
}
