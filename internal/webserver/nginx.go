// Package webserver writes, activates and reloads the nginx virtual host
// configuration for the provisioned site.
package webserver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/platform"
)

// Paths contains the nginx config directory paths
type Paths struct {
	Available string // config available directory
	Enabled   string // config enabled directory
}

// Nginx manages the nginx configuration for one host.
type Nginx struct {
	paths Paths
	exec  executor.CommandExecutor
}

// NewNginx creates an Nginx manager with the conventional paths for the
// detected OS family. RHEL-like systems use a flat conf.d directory with no
// separate enabled mechanism.
func NewNginx(exec executor.CommandExecutor, family platform.Family) *Nginx {
	if family == platform.FamilyRHEL {
		return &Nginx{
			paths: Paths{
				Available: "/etc/nginx/conf.d",
				Enabled:   "/etc/nginx/conf.d",
			},
			exec: exec,
		}
	}
	return &Nginx{
		paths: Paths{
			Available: "/etc/nginx/sites-available",
			Enabled:   "/etc/nginx/sites-enabled",
		},
		exec: exec,
	}
}

// NewNginxWithPaths creates an Nginx manager with custom paths (for testing)
func NewNginxWithPaths(exec executor.CommandExecutor, available, enabled string) *Nginx {
	return &Nginx{
		paths: Paths{Available: available, Enabled: enabled},
		exec:  exec,
	}
}

// Paths returns the config paths
func (n *Nginx) Paths() Paths {
	return n.paths
}

// ConfigPath returns the available-config file path for a domain.
func (n *Nginx) ConfigPath(domain string) string {
	return filepath.Join(n.paths.Available, domain+".conf")
}

// EnabledPath returns the enabled reference path for a domain.
func (n *Nginx) EnabledPath(domain string) string {
	return filepath.Join(n.paths.Enabled, domain+".conf")
}

// WriteSite writes (always overwriting) the config for a domain into the
// available directory.
func (n *Nginx) WriteSite(domain, content string) error {
	if err := os.MkdirAll(n.paths.Available, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, "failed to create config directory", err)
	}

	if err := os.WriteFile(n.ConfigPath(domain), []byte(content), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, "failed to write config file", err)
	}

	return nil
}

// Enable activates a domain's config. Any stale enabled reference is removed
// first so the symlink always points at the current config. On layouts where
// available and enabled are the same directory this is a no-op.
func (n *Nginx) Enable(domain string) error {
	if n.paths.Available == n.paths.Enabled {
		return nil
	}

	if err := os.MkdirAll(n.paths.Enabled, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, "failed to create enabled directory", err)
	}

	source := n.ConfigPath(domain)
	target := n.EnabledPath(domain)

	if _, err := os.Stat(source); os.IsNotExist(err) {
		return errors.WrapDomain(errors.ErrCodeConfig, domain, "config not found in sites-available", err)
	}

	// Remove stale reference first; re-runs regenerate the link.
	if _, err := os.Lstat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return errors.Wrap(errors.ErrCodeConfig, "failed to remove stale enabled link", err)
		}
	}

	if err := os.Symlink(source, target); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, "failed to enable site", err)
	}

	return nil
}

// Remove deletes a domain's config and its enabled reference.
func (n *Nginx) Remove(domain string) error {
	if n.paths.Available != n.paths.Enabled {
		if err := os.Remove(n.EnabledPath(domain)); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeConfig, "failed to remove enabled link", err)
		}
	}
	if err := os.Remove(n.ConfigPath(domain)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeConfig, "failed to remove config file", err)
	}
	return nil
}

// Test validates the nginx config syntax. The caller must not reload on
// failure.
func (n *Nginx) Test() error {
	output, err := n.exec.Execute("nginx", "-t")
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, fmt.Sprintf("nginx config test failed: %s", string(output)), err)
	}
	return nil
}

// Reload reloads nginx to apply changes
func (n *Nginx) Reload() error {
	output, err := n.exec.Execute("systemctl", "reload", "nginx")
	if err != nil {
		// Try nginx -s reload as fallback
		output, err = n.exec.Execute("nginx", "-s", "reload")
		if err != nil {
			return errors.Wrap(errors.ErrCodeConfig, fmt.Sprintf("failed to reload nginx: %s", string(output)), err)
		}
	}
	return nil
}

// TestAndReload validates the configuration and reloads only when the test
// passes, so a broken config is never served.
func (n *Nginx) TestAndReload() error {
	if err := n.Test(); err != nil {
		return err
	}
	return n.Reload()
}
