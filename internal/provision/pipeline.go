// Package provision drives the end-to-end provisioning pipeline: profile the
// host, collect input, install dependencies, open firewall ports, deploy the
// site bundle, obtain a certificate, activate the virtual host and schedule
// renewals.
//
// The pipeline is strictly sequential and fail-fast. Completed steps are not
// rolled back on a later failure; re-running the pipeline is the recovery
// path, and every stage is idempotent.
package provision

import (
	"net/http"
	"os"

	"github.com/ksyq12/siteup/internal/acme"
	"github.com/ksyq12/siteup/internal/config"
	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/firewall"
	"github.com/ksyq12/siteup/internal/input"
	"github.com/ksyq12/siteup/internal/output"
	"github.com/ksyq12/siteup/internal/pkg"
	"github.com/ksyq12/siteup/internal/platform"
	"github.com/ksyq12/siteup/internal/report"
	"github.com/ksyq12/siteup/internal/schedule"
	"github.com/ksyq12/siteup/internal/site"
	"github.com/ksyq12/siteup/internal/template"
	"github.com/ksyq12/siteup/internal/webserver"
)

// totalStages is the number of user-visible pipeline stages.
const totalStages = 9

// State carries the values produced by earlier stages into later ones. Each
// stage receives it by value and returns an updated copy.
type State struct {
	Profile *platform.Profile
	Request *input.SiteRequest
	WebRoot string
	Outcome acme.Outcome
}

// Pipeline wires the stages with their dependencies. The zero value is not
// usable; construct with New.
type Pipeline struct {
	Exec   executor.CommandExecutor
	Reader input.Reader
	Cfg    *config.Config

	// RequireRoot checks invocation privileges. Replaceable for testing.
	RequireRoot func() error

	// OSReleasePath overrides the os-release location (testing).
	OSReleasePath string

	// Nginx overrides the webserver manager (testing). When nil it is
	// built from the detected profile.
	Nginx *webserver.Nginx

	// HTTPClient and ProbeBaseURL override the certificate preflight
	// transport (testing).
	HTTPClient   *http.Client
	ProbeBaseURL string

	// BundleClient overrides the bundle download client (testing).
	BundleClient *http.Client
}

// New creates a Pipeline with production defaults.
func New(exec executor.CommandExecutor, reader input.Reader, cfg *config.Config) *Pipeline {
	return &Pipeline{
		Exec:   exec,
		Reader: reader,
		Cfg:    cfg,
		RequireRoot: func() error {
			if os.Geteuid() != 0 {
				return errors.ErrRootRequired
			}
			return nil
		},
	}
}

// Run executes the full pipeline and returns the final report.
func (p *Pipeline) Run() (*report.Report, error) {
	if err := p.RequireRoot(); err != nil {
		return nil, err
	}

	st, err := p.profileHost(State{})
	if err != nil {
		return nil, err
	}

	st, err = p.collectInput(st)
	if err != nil {
		return nil, err
	}

	if err := p.installDependencies(st); err != nil {
		return nil, err
	}

	p.openFirewall(st)

	if err := p.deploySite(st); err != nil {
		return nil, err
	}

	st, err = p.ensureCertificate(st)
	if err != nil {
		return nil, err
	}

	if err := p.configureSite(st); err != nil {
		return nil, err
	}

	if err := p.scheduleRenewal(st); err != nil {
		return nil, err
	}

	if st.Outcome == acme.OutcomeReused {
		if err := p.offerForcedReissue(st); err != nil {
			return nil, err
		}
	}

	rep := p.report(st)
	return rep, nil
}

func (p *Pipeline) profileHost(st State) (State, error) {
	output.Step(1, totalStages, "Detecting operating system")

	var profile *platform.Profile
	var err error
	if p.OSReleasePath != "" {
		profile, err = platform.DetectFromFile(p.Exec, p.OSReleasePath)
	} else {
		profile, err = platform.Detect(p.Exec)
	}
	if err != nil {
		return st, errors.Wrap(errors.ErrCodePlatform, "host detection failed", err)
	}

	output.Info("Detected %s", profile)
	st.Profile = profile
	return st, nil
}

func (p *Pipeline) collectInput(st State) (State, error) {
	output.Step(2, totalStages, "Collecting site parameters")

	req, err := input.Collect(p.Reader)
	if err != nil {
		return st, err
	}

	st.Request = req
	st.WebRoot = p.Cfg.WebRoot(req.Domain)
	return st, nil
}

func (p *Pipeline) installDependencies(st State) error {
	output.Step(3, totalStages, "Installing dependencies")
	return pkg.NewInstaller(p.Exec, st.Profile).EnsureDependencies()
}

func (p *Pipeline) openFirewall(st State) {
	output.Step(4, totalStages, "Opening firewall ports")
	tool := firewall.NewOpener(p.Exec).OpenPorts()
	if tool != firewall.ToolNone {
		output.Info("Opened ports 80 and 443 via %s", tool)
	}
}

func (p *Pipeline) deploySite(st State) error {
	output.Step(5, totalStages, "Deploying site bundle to %s", st.WebRoot)

	var d *site.Deployer
	if p.BundleClient != nil {
		d = site.NewDeployerWithClient(p.BundleClient, p.Exec, st.Profile.WebUser)
	} else {
		d = site.NewDeployer(p.Exec, st.Profile.WebUser, p.Cfg.DownloadTimeout)
	}
	return d.Deploy(p.Cfg.BundleURL, st.WebRoot)
}

// nginx returns the webserver manager, honoring the test override.
func (p *Pipeline) nginx(st State) *webserver.Nginx {
	if p.Nginx != nil {
		return p.Nginx
	}
	return webserver.NewNginx(p.Exec, st.Profile.Family)
}

// certManager builds the certificate manager, honoring test overrides.
func (p *Pipeline) certManager(st State) *acme.Manager {
	m := acme.NewManager(acme.NewClient(p.Exec, p.Cfg), p.nginx(st), p.Cfg)
	if p.HTTPClient != nil {
		m.HTTPClient = p.HTTPClient
	}
	if p.ProbeBaseURL != "" {
		m.BaseURL = p.ProbeBaseURL
	}
	return m
}

func (p *Pipeline) ensureCertificate(st State) (State, error) {
	output.Step(6, totalStages, "Obtaining certificate for %s", st.Request.Domain)

	outcome, err := p.certManager(st).Ensure(st.Request.Domain, st.Request.Email, st.WebRoot)
	if err != nil {
		return st, err
	}

	st.Outcome = outcome
	return st, nil
}

// configureSite regenerates and activates the final virtual host. Always
// overwrites: the config is derived entirely from the current state.
func (p *Pipeline) configureSite(st State) error {
	output.Step(7, totalStages, "Writing nginx configuration")

	domain := st.Request.Domain
	conf, err := template.Render(template.Site, template.Data{
		Domain:   domain,
		WebRoot:  st.WebRoot,
		CertPath: p.Cfg.CertPath(domain),
		KeyPath:  p.Cfg.KeyPath(domain),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, "failed to render site config", err)
	}

	ngx := p.nginx(st)
	if err := ngx.WriteSite(domain, conf); err != nil {
		return err
	}
	if err := ngx.Enable(domain); err != nil {
		return err
	}
	return ngx.TestAndReload()
}

func (p *Pipeline) scheduleRenewal(st State) error {
	output.Step(8, totalStages, "Scheduling monthly renewal")
	return schedule.NewScheduler(p.Exec, p.Cfg).EnsureRenewalJob()
}

// offerForcedReissue gives the operator a bounded chance to override a reuse
// decision. Declining or timing out keeps the current certificate. The
// preflight run by a forced reissue replaces the site config with the
// challenge-only one, so the final config is regenerated afterwards.
func (p *Pipeline) offerForcedReissue(st State) error {
	if !input.ConfirmTimeout(p.Reader, "Certificate was reused. Force reissue anyway?", p.Cfg.PromptTimeout) {
		return nil
	}

	if err := p.certManager(st).ForceReissue(st.Request.Domain, st.Request.Email, st.WebRoot); err != nil {
		return err
	}
	return p.configureSite(st)
}

func (p *Pipeline) report(st State) *report.Report {
	output.Step(9, totalStages, "Provisioning complete")
	return report.NewReporter(p.Exec, p.Cfg, p.nginx(st)).Collect(st.Request.Domain)
}
