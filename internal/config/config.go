// Package config loads the warchest YAML configuration: upstream API
// settings, the scopes to synchronize, and the classification policy.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/source"
)

// Duration wraps time.Duration with YAML string parsing ("5m", "10s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// APIConfig describes the upstream record source endpoint.
type APIConfig struct {
	Host    string   `yaml:"host"`
	Timeout Duration `yaml:"timeout"`
}

// AllianceConfig is one alliance scope.
type AllianceConfig struct {
	ID     int64  `yaml:"id"`
	APIKey string `yaml:"api_key"`

	// TaxIDs is the allow-list of tax bracket identifiers treated as tax
	// revenue. Empty means "trust any positive marker on a nation-sent
	// record".
	TaxIDs []int64 `yaml:"tax_ids"`
}

// OffshoreConfig is one offshore pair scope: the net holding the offshore
// alliance keeps on behalf of the owner.
type OffshoreConfig struct {
	Owner    int64  `yaml:"owner"`
	Offshore int64  `yaml:"offshore"`
	APIKey   string `yaml:"api_key"`
}

// Config is the full warchest configuration.
type Config struct {
	Database    string           `yaml:"database"`
	API         APIConfig        `yaml:"api"`
	Interval    Duration         `yaml:"interval"`
	TransferTag string           `yaml:"transfer_tag"`
	Alliances   []AllianceConfig `yaml:"alliances"`
	Offshores   []OffshoreConfig `yaml:"offshores"`
}

// Load reads and validates a configuration file, applying defaults for
// omitted fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = "warchest.db"
	}
	if c.Interval == 0 {
		c.Interval = Duration(5 * time.Minute)
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = Duration(10 * time.Second)
	}
}

func (c *Config) validate() error {
	if c.API.Host == "" {
		return fmt.Errorf("config: api.host is required")
	}
	if len(c.Alliances) == 0 && len(c.Offshores) == 0 {
		return fmt.Errorf("config: at least one alliance or offshore scope is required")
	}
	for _, a := range c.Alliances {
		if a.ID <= 0 {
			return fmt.Errorf("config: alliance id must be positive, got %d", a.ID)
		}
	}
	for _, o := range c.Offshores {
		if o.Owner <= 0 || o.Offshore <= 0 {
			return fmt.Errorf("config: offshore pair ids must be positive, got %d/%d", o.Owner, o.Offshore)
		}
		if o.Owner == o.Offshore {
			return fmt.Errorf("config: offshore pair cannot reference the same alliance %d", o.Owner)
		}
	}
	return nil
}

// Scopes returns every configured synchronization scope, alliances first.
func (c *Config) Scopes() []record.Scope {
	scopes := make([]record.Scope, 0, len(c.Alliances)+len(c.Offshores))
	for _, a := range c.Alliances {
		scopes = append(scopes, record.AllianceScope(a.ID))
	}
	for _, o := range c.Offshores {
		scopes = append(scopes, record.OffshoreScope(o.Owner, o.Offshore))
	}
	return scopes
}

// Rules returns the classification policy derived from the config.
func (c *Config) Rules() record.Rules {
	taxIDs := make(map[int64][]int64)
	for _, a := range c.Alliances {
		if len(a.TaxIDs) > 0 {
			taxIDs[a.ID] = append([]int64(nil), a.TaxIDs...)
		}
	}
	return record.Rules{
		TransferTag: c.TransferTag,
		TaxIDs:      taxIDs,
	}
}

// Credentials returns the per-scope credential provider. Keys stay
// in-process; nothing downstream persists or logs them.
func (c *Config) Credentials() source.CredentialProvider {
	creds := source.StaticCredentials{}
	for _, a := range c.Alliances {
		creds[record.AllianceScope(a.ID).Key()] = a.APIKey
	}
	for _, o := range c.Offshores {
		creds[record.OffshoreScope(o.Owner, o.Offshore).Key()] = o.APIKey
	}
	return creds
}
