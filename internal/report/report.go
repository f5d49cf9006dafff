// Package report summarizes the state of a provisioned site for operator
// verification. Reporting is informational only and never fails a run.
package report

import (
	"os"

	"github.com/ksyq12/siteup/internal/config"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/firewall"
	"github.com/ksyq12/siteup/internal/output"
	"github.com/ksyq12/siteup/internal/schedule"
	"github.com/ksyq12/siteup/internal/webserver"
)

// Report contains everything the post-run summary shows.
type Report struct {
	Domain       string                `json:"domain"`
	WebRoot      string                `json:"web_root"`
	ConfigPath   string                `json:"config_path"`
	EnabledPath  string                `json:"enabled_path,omitempty"`
	CertPath     string                `json:"cert_path"`
	KeyPath      string                `json:"key_path"`
	CertPresent  bool                  `json:"cert_present"`
	FirewallTool string                `json:"firewall_tool"`
	Ports        []firewall.PortStatus `json:"ports"`
	RenewalJob   bool                  `json:"renewal_job"`
}

// Reporter inspects the final state of the host.
type Reporter struct {
	exec      executor.CommandExecutor
	cfg       *config.Config
	ngx       *webserver.Nginx
	fw        *firewall.Opener
	scheduler *schedule.Scheduler
}

// NewReporter creates a Reporter.
func NewReporter(exec executor.CommandExecutor, cfg *config.Config, ngx *webserver.Nginx) *Reporter {
	return &Reporter{
		exec:      exec,
		cfg:       cfg,
		ngx:       ngx,
		fw:        firewall.NewOpener(exec),
		scheduler: schedule.NewScheduler(exec, cfg),
	}
}

// Collect gathers the report for a domain. Individual probes that fail are
// reported as-is rather than aborting.
func (r *Reporter) Collect(domain string) *Report {
	tool, ports := r.fw.Status()

	rep := &Report{
		Domain:       domain,
		WebRoot:      r.cfg.WebRoot(domain),
		ConfigPath:   r.ngx.ConfigPath(domain),
		CertPath:     r.cfg.CertPath(domain),
		KeyPath:      r.cfg.KeyPath(domain),
		FirewallTool: string(tool),
		Ports:        ports,
	}

	if r.ngx.Paths().Available != r.ngx.Paths().Enabled {
		rep.EnabledPath = r.ngx.EnabledPath(domain)
	}

	if _, err := os.Stat(rep.CertPath); err == nil {
		rep.CertPresent = true
	}

	if has, err := r.scheduler.HasRenewalJob(); err == nil {
		rep.RenewalJob = has
	}

	return rep
}

// Print writes the human-readable summary to stdout.
func (r *Report) Print() {
	output.Print("")
	output.Print("Provisioning summary for %s", r.Domain)

	rows := [][]string{
		{"Web root", r.WebRoot},
		{"Nginx config", r.ConfigPath},
	}
	if r.EnabledPath != "" {
		rows = append(rows, []string{"Enabled link", r.EnabledPath})
	}
	rows = append(rows,
		[]string{"Certificate", r.CertPath},
		[]string{"Private key", r.KeyPath},
	)
	output.Table([]string{"PATH", "LOCATION"}, rows)

	output.Print("")
	if r.FirewallTool == string(firewall.ToolNone) {
		output.Warn("No local firewall detected; ports assumed managed externally")
	} else {
		output.Print("Firewall: %s", r.FirewallTool)
	}
	for _, p := range r.Ports {
		if p.Open {
			output.Success("Port %s open", p.Port)
		} else {
			output.Warn("Port %s does not appear open", p.Port)
		}
	}

	if r.CertPresent {
		output.Success("Certificate installed")
	} else {
		output.Warn("Certificate file not found")
	}
	if r.RenewalJob {
		output.Success("Monthly renewal scheduled")
	} else {
		output.Warn("Renewal cron entry not found")
	}
}
