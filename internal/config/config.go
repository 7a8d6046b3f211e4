// Package config handles process-wide static configuration loading using
// viper.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// GlobalConfig is the top-level static configuration, mapped from the
// `registrar:` root key in YAML.
type GlobalConfig struct {
	Node      NodeConfig      `mapstructure:"node"`
	SIP       SIPConfig       `mapstructure:"sip"`
	Registrar RegistrarConfig `mapstructure:"registrar"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// NodeConfig identifies this registrar instance.
type NodeConfig struct {
	Hostname string `mapstructure:"hostname"` // empty = os.Hostname()
	Domain   string `mapstructure:"domain"`   // GB28181 domain this core services
}

// SIPConfig configures the SIP transport binding.
type SIPConfig struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	Protocol    string `mapstructure:"protocol"` // udp | tcp
	ServerAgent string `mapstructure:"server_agent"`
}

// RegistrarConfig configures the registration state machine's tunables.
type RegistrarConfig struct {
	MinimumExpirySeconds  int    `mapstructure:"minimum_expiry_seconds"`
	QueueCapacity         int    `mapstructure:"queue_capacity"`
	AuthenticationEnabled bool   `mapstructure:"authentication_enabled"`
	Realm                 string `mapstructure:"realm"`
}

// PolicyConfig points at the per-user-agent XML policy file, plus any
// loosely-typed fallback-default overrides (decoded downstream by
// registrar.DecodePolicyOverrides).
type PolicyConfig struct {
	File      string                 `mapstructure:"file"`
	Overrides map[string]interface{} `mapstructure:"overrides"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level   string         `mapstructure:"level"`
	Pattern string         `mapstructure:"pattern"`
	Time    string         `mapstructure:"time"`
	File    *FileLogConfig `mapstructure:"file,omitempty"`
}

// FileLogConfig enables rotated file logging alongside stdout.
type FileLogConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

type configRoot struct {
	Registrar GlobalConfig `mapstructure:"registrar"`
}

// Load reads, defaults, and validates the YAML configuration at path.
// Environment variables override file values under the REGISTRAR_ prefix
// (e.g. REGISTRAR_SIP_LISTEN_ADDR), matching the key-replacer convention.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg := root.Registrar

	if err := cfg.validateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registrar.sip.listen_addr", ":5060")
	v.SetDefault("registrar.sip.protocol", "udp")
	v.SetDefault("registrar.sip.server_agent", "gb28181registrar")

	v.SetDefault("registrar.registrar.minimum_expiry_seconds", 60)
	v.SetDefault("registrar.registrar.queue_capacity", 1000)
	v.SetDefault("registrar.registrar.authentication_enabled", true)
	v.SetDefault("registrar.registrar.realm", "gb28181registrar")

	v.SetDefault("registrar.metrics.enabled", true)
	v.SetDefault("registrar.metrics.listen", ":9091")
	v.SetDefault("registrar.metrics.path", "/metrics")

	v.SetDefault("registrar.log.level", "info")
	v.SetDefault("registrar.log.pattern", "%time [%level] %caller: %msg")
	v.SetDefault("registrar.log.time", "2006-01-02 15:04:05")
}

func (cfg *GlobalConfig) validateAndApplyDefaults() error {
	if cfg.Node.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("resolve hostname: %w", err)
		}
		cfg.Node.Hostname = hostname
	}

	if cfg.Node.Domain == "" {
		return fmt.Errorf("node.domain is required")
	}

	if cfg.SIP.Protocol != "udp" && cfg.SIP.Protocol != "tcp" {
		return fmt.Errorf("invalid sip.protocol: %s (must be udp/tcp)", cfg.SIP.Protocol)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log.level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}

	if cfg.Registrar.MinimumExpirySeconds <= 0 {
		return fmt.Errorf("registrar.minimum_expiry_seconds must be positive")
	}
	if cfg.Registrar.QueueCapacity <= 0 {
		return fmt.Errorf("registrar.queue_capacity must be positive")
	}

	return nil
}
