// Package config handles kadmin client configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order. An explicit
// path (from -config flag) is checked first by FindConfig. Then:
// ./kadmin.yaml, ~/.config/kadmin/kadmin.yaml, /etc/kadmin/kadmin.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"kadmin.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "kadmin", "kadmin.yaml"))
	}

	paths = append(paths, "/etc/kadmin/kadmin.yaml")
	return paths
}

// searchPathsFunc is a seam for tests; production code always calls
// DefaultSearchPaths.
var searchPathsFunc = DefaultSearchPaths

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches searchPathsFunc() and returns the first
// path that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range searchPathsFunc() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPathsFunc())
}

// Config holds kadmin client configuration.
type Config struct {
	Brokers  []string       `yaml:"brokers"`
	ClientID string         `yaml:"client_id"`
	Kerberos KerberosConfig `yaml:"kerberos"`
	TLS      TLSConfig      `yaml:"tls"`
	Defaults DefaultsConfig `yaml:"defaults"`
	LogLevel string         `yaml:"log_level"`
}

// KerberosConfig configures SASL/GSSAPI auth, exercised via sarama's
// jcmturner/gokrb5 dependency chain.
type KerberosConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ServiceName     string `yaml:"service_name"`
	Realm           string `yaml:"realm"`
	Username        string `yaml:"username"`
	KeyTabPath      string `yaml:"keytab_path"`
	KrbConfigPath   string `yaml:"krb5_config_path"`
	DisablePAFXFAST bool   `yaml:"disable_pafxfast"`
}

// TLSConfig configures the broker connection's transport security.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// DefaultsConfig carries the client-wide option defaults §6 names as
// "client-configured default" for request_timeout and 0 for the rest.
type DefaultsConfig struct {
	RequestTimeoutMS int `yaml:"request_timeout_ms"`
	WorkQueueSize    int `yaml:"work_queue_size"`
}

// RequestTimeout is DefaultsConfig.RequestTimeoutMS as a time.Duration.
func (d DefaultsConfig) RequestTimeout() time.Duration {
	return time.Duration(d.RequestTimeoutMS) * time.Millisecond
}

// Configured reports whether Kerberos auth has enough fields set to
// attempt a login.
func (k KerberosConfig) Configured() bool {
	return k.Enabled && k.ServiceName != "" && k.Realm != ""
}

// Load reads configuration from a YAML file, expands environment
// variables, applies defaults for any unset fields, and validates the
// result. After Load returns successfully, all fields are usable without
// additional nil/empty checks.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
// Called automatically by Load.
func (c *Config) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "kadmin"
	}
	if c.Defaults.RequestTimeoutMS == 0 {
		c.Defaults.RequestTimeoutMS = 30_000
	}
	if c.Defaults.WorkQueueSize == 0 {
		c.Defaults.WorkQueueSize = 256
	}
}

// Validate checks that the configuration is internally consistent. It
// runs after applyDefaults, so it can assume defaults are populated.
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers must not be empty")
	}
	if c.Defaults.RequestTimeoutMS < 0 || c.Defaults.RequestTimeoutMS > 3_600_000 {
		return fmt.Errorf("defaults.request_timeout_ms %d out of range (0-3600000)", c.Defaults.RequestTimeoutMS)
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.Kerberos.Enabled && c.Kerberos.ServiceName == "" {
		return fmt.Errorf("kerberos.service_name must be set when kerberos.enabled is true")
	}
	return nil
}

// Default returns a default configuration pointed at a local broker. All
// defaults are already applied.
func Default() *Config {
	cfg := &Config{
		Brokers: []string{"localhost:9092"},
	}
	cfg.applyDefaults()
	return cfg
}
