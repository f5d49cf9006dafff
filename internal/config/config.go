// Package config holds the siteup runtime settings: where the site bundle
// comes from, where content, certificates and webserver configuration land,
// and the thresholds governing certificate reuse.
//
// Sensible defaults are built in; operators can override individual values by
// dropping a YAML file at /etc/siteup/config.yaml. A missing file is not an
// error.
//
// Path conventions are fixed: web content lives at <web_root_base>/<domain>
// with no html subdirectory, and certificates install flat under
// <cert_dir>/<domain>/{fullchain.pem,privkey.pem}.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// BundleURL is the fixed URL of the latest published site archive.
	BundleURL string `yaml:"bundle_url"`

	// WebRootBase is the directory under which per-domain webroots are created.
	WebRootBase string `yaml:"web_root_base"`

	// CertDir is the directory under which per-domain certificates install.
	CertDir string `yaml:"cert_dir"`

	// AcmeHome is the acme.sh installation directory.
	AcmeHome string `yaml:"acme_home"`

	// RenewalSchedule is the cron expression for the monthly renewal check.
	RenewalSchedule string `yaml:"renewal_schedule"`

	// FreshnessDays is the certificate age below which issuance is skipped.
	FreshnessDays int `yaml:"freshness_days"`

	// PromptTimeout bounds the optional force-reissue prompt.
	PromptTimeout time.Duration `yaml:"prompt_timeout"`

	// DownloadTimeout bounds the bundle download.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// configPath is the optional operator override file.
const configPath = "/etc/siteup/config.yaml"

// New creates a new Config with default values
func New() *Config {
	return &Config{
		BundleURL:       "https://releases.example-cdn.net/site/latest.tar.gz",
		WebRootBase:     "/var/www",
		CertDir:         "/etc/ssl/sites",
		AcmeHome:        "/root/.acme.sh",
		RenewalSchedule: "0 1 1 * *",
		FreshnessDays:   3,
		PromptTimeout:   30 * time.Second,
		DownloadTimeout: 5 * time.Minute,
	}
}

// Load returns the defaults merged with the override file, if present.
func Load() (*Config, error) {
	return LoadFrom(configPath)
}

// LoadFrom reads the config from an explicit path. A missing file yields the
// defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// WebRoot returns the webroot path for a domain.
func (c *Config) WebRoot(domain string) string {
	return filepath.Join(c.WebRootBase, domain)
}

// CertPath returns the installed certificate path for a domain.
func (c *Config) CertPath(domain string) string {
	return filepath.Join(c.CertDir, domain, "fullchain.pem")
}

// KeyPath returns the installed private key path for a domain.
func (c *Config) KeyPath(domain string) string {
	return filepath.Join(c.CertDir, domain, "privkey.pem")
}

// AcmeScript returns the path of the acme.sh entry script.
func (c *Config) AcmeScript() string {
	return filepath.Join(c.AcmeHome, "acme.sh")
}
