// Package acme obtains and installs Let's Encrypt certificates through the
// acme.sh client, deciding per run whether the existing certificate can be
// reused.
//
// The certificate store convention is fixed: certificates install flat under
// /etc/ssl/sites/<domain>/fullchain.pem and privkey.pem. acme.sh keeps its
// own copies and renewal state under its home directory; the installed paths
// are what nginx references.
package acme

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ksyq12/siteup/internal/config"
	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/logger"
)

// Client wraps the acme.sh command line tool.
type Client struct {
	exec executor.CommandExecutor
	cfg  *config.Config
}

// NewClient creates a Client.
func NewClient(exec executor.CommandExecutor, cfg *config.Config) *Client {
	return &Client{exec: exec, cfg: cfg}
}

// IsInstalled checks whether the acme.sh script is present.
func (c *Client) IsInstalled() bool {
	if _, err := os.Stat(c.cfg.AcmeScript()); err == nil {
		return true
	}
	_, err := c.exec.LookPath("acme.sh")
	return err == nil
}

// script returns the acme.sh invocation path, preferring the configured home.
func (c *Client) script() string {
	if _, err := os.Stat(c.cfg.AcmeScript()); err == nil {
		return c.cfg.AcmeScript()
	}
	return "acme.sh"
}

// Issue requests a certificate for the domain and its www alias in webroot
// mode. force re-issues even when acme.sh considers the certificate current.
func (c *Client) Issue(domain, email, webroot string, force bool) error {
	if !c.IsInstalled() {
		return errors.ErrACMENotInstalled
	}

	args := []string{
		"--issue",
		"-d", domain,
		"-d", "www." + domain,
		"-w", webroot,
		"--accountemail", email,
	}
	if force {
		args = append(args, "--force")
	}

	logger.InfoFields("Requesting certificate", map[string]interface{}{
		"domain": domain,
		"force":  force,
	})
	if out, err := c.exec.Execute(c.script(), args...); err != nil {
		return errors.WrapDomain(errors.ErrCodeSSL, domain, fmt.Sprintf("issuance failed: %s", string(out)), err)
	}

	return nil
}

// Install copies the issued certificate to the fixed per-domain paths and
// registers the nginx reload as the post-renewal hook, so acme.sh's own
// scheduler reloads the webserver after future renewals.
func (c *Client) Install(domain string) error {
	certPath := c.cfg.CertPath(domain)
	keyPath := c.cfg.KeyPath(domain)

	if err := os.MkdirAll(filepath.Dir(certPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeSSL, "failed to create certificate directory", err)
	}

	args := []string{
		"--install-cert",
		"-d", domain,
		"--fullchain-file", certPath,
		"--key-file", keyPath,
		"--reloadcmd", "systemctl reload nginx",
	}

	if out, err := c.exec.Execute(c.script(), args...); err != nil {
		return errors.WrapDomain(errors.ErrCodeSSL, domain, fmt.Sprintf("certificate install failed: %s", string(out)), err)
	}

	return nil
}

// RenewCheck runs the acme.sh renewal pass, the same command the monthly
// cron entry invokes.
func (c *Client) RenewCheck() error {
	if !c.IsInstalled() {
		return errors.ErrACMENotInstalled
	}
	if out, err := c.exec.Execute(c.script(), "--cron", "--home", c.cfg.AcmeHome); err != nil {
		return errors.Wrap(errors.ErrCodeSSL, fmt.Sprintf("renewal check failed: %s", string(out)), err)
	}
	return nil
}
