// Package config provides application configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Data     DataConfig
	Server   ServerConfig
	Log      LogConfig
	Vault    VaultConfig
	Autofill AutofillConfig
}

// DataConfig holds filesystem locations.
type DataConfig struct {
	Dir string
}

// ServerConfig holds host API server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// VaultConfig holds vault policy settings.
type VaultConfig struct {
	MaxFailedAttempts uint32
	KDFTime           uint32
	KDFMemoryKiB      uint32
	KDFThreads        uint8
}

// AutofillConfig holds probe and coordinator timing.
type AutofillConfig struct {
	TitleRestoreDelay time.Duration
	MutationDebounce  time.Duration
	PollInterval      time.Duration
	ClickFlushDelay   time.Duration
	SavePromptTimeout time.Duration
}

// Load reads configuration from environment variables (AXION_ prefix).
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("axion")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Data: DataConfig{
			Dir: v.GetString("data.dir"),
		},
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Vault: VaultConfig{
			MaxFailedAttempts: v.GetUint32("vault.max_failed_attempts"),
			KDFTime:           v.GetUint32("vault.kdf_time"),
			KDFMemoryKiB:      v.GetUint32("vault.kdf_memory_kib"),
			KDFThreads:        uint8(v.GetUint("vault.kdf_threads")),
		},
		Autofill: AutofillConfig{
			TitleRestoreDelay: v.GetDuration("autofill.title_restore_delay"),
			MutationDebounce:  v.GetDuration("autofill.mutation_debounce"),
			PollInterval:      v.GetDuration("autofill.poll_interval"),
			ClickFlushDelay:   v.GetDuration("autofill.click_flush_delay"),
			SavePromptTimeout: v.GetDuration("autofill.save_prompt_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", defaultDataDir())

	// Host API defaults. Loopback only: the API carries plaintext
	// credentials to the shell UI.
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7765)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("vault.max_failed_attempts", 15)
	v.SetDefault("vault.kdf_time", 3)
	v.SetDefault("vault.kdf_memory_kib", 64*1024)
	v.SetDefault("vault.kdf_threads", 4)

	v.SetDefault("autofill.title_restore_delay", 50*time.Millisecond)
	v.SetDefault("autofill.mutation_debounce", 100*time.Millisecond)
	v.SetDefault("autofill.poll_interval", 2*time.Second)
	v.SetDefault("autofill.click_flush_delay", 50*time.Millisecond)
	v.SetDefault("autofill.save_prompt_timeout", 30*time.Second)
}

// ServerAddr returns the host:port the API server binds to.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Vault.MaxFailedAttempts == 0 {
		return fmt.Errorf("vault.max_failed_attempts must be positive")
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".axion"
	}
	return filepath.Join(home, ".axion")
}
