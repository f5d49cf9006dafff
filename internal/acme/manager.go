package acme

import (
	"net/http"
	"time"

	"github.com/ksyq12/siteup/internal/config"
	"github.com/ksyq12/siteup/internal/logger"
	"github.com/ksyq12/siteup/internal/webserver"
)

// Outcome reports how the certificate stage concluded.
type Outcome string

// Possible outcomes of Ensure.
const (
	OutcomeIssued Outcome = "issued" // new certificate obtained and installed
	OutcomeReused Outcome = "reused" // fresh certificate kept in place
)

// Manager drives the certificate decision for one provisioning run:
// absent or stale certificates are issued (after a mandatory challenge
// preflight), fresh ones are reused.
type Manager struct {
	client *Client
	ngx    *webserver.Nginx
	cfg    *config.Config

	// HTTPClient performs the preflight probe. Replaceable for testing.
	HTTPClient *http.Client

	// BaseURL overrides the probe origin (testing). Empty means the domain.
	BaseURL string

	// Now returns the current time. Replaceable for testing.
	Now func() time.Time
}

// NewManager creates a Manager.
func NewManager(client *Client, ngx *webserver.Nginx, cfg *config.Config) *Manager {
	return &Manager{
		client:     client,
		ngx:        ngx,
		cfg:        cfg,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Now:        time.Now,
	}
}

// Inspect returns the current store state for a domain.
func (m *Manager) Inspect(domain string) CertState {
	return InspectStore(m.cfg.CertPath(domain), m.cfg.FreshnessDays, m.Now())
}

// Ensure obtains a certificate for the domain unless a fresh one is already
// installed. Issuance always runs the preflight first.
func (m *Manager) Ensure(domain, email, webroot string) (Outcome, error) {
	state := m.Inspect(domain)

	if state.Fresh {
		logger.Info("Certificate for %s is %d day(s) old, reusing", domain, state.AgeDays)
		return OutcomeReused, nil
	}

	if state.Exists {
		logger.Info("Certificate for %s is %d day(s) old, reissuing", domain, state.AgeDays)
	} else {
		logger.Info("No certificate for %s, issuing", domain)
	}

	if err := m.issueAndInstall(domain, email, webroot, false); err != nil {
		return "", err
	}
	return OutcomeIssued, nil
}

// ForceReissue re-runs issuance with the force flag, used when the operator
// overrides a reuse decision.
func (m *Manager) ForceReissue(domain, email, webroot string) error {
	return m.issueAndInstall(domain, email, webroot, true)
}

func (m *Manager) issueAndInstall(domain, email, webroot string, force bool) error {
	if err := Preflight(m.ngx, m.HTTPClient, domain, webroot, m.BaseURL); err != nil {
		return err
	}
	if err := m.client.Issue(domain, email, webroot, force); err != nil {
		return err
	}
	return m.client.Install(domain)
}
