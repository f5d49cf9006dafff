// Package firewall opens the HTTP and HTTPS ports through whichever local
// firewall tool is active. Everything here is best-effort: local firewall
// rules are often superseded by cloud security groups, so failures warn
// instead of aborting the run.
package firewall

import (
	"strings"

	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/logger"
)

// Tool identifies the firewall implementation that was selected.
type Tool string

// Known firewall tools in detection priority order.
const (
	ToolUFW       Tool = "ufw"
	ToolFirewalld Tool = "firewalld"
	ToolIptables  Tool = "iptables"
	ToolNone      Tool = "none"
)

// ports opened for every site: HTTP for the ACME challenge and redirect,
// HTTPS for the site itself.
var ports = []string{"80", "443"}

// Opener exposes the required ports through at most one firewall tool.
type Opener struct {
	exec executor.CommandExecutor
}

// NewOpener creates an Opener.
func NewOpener(exec executor.CommandExecutor) *Opener {
	return &Opener{exec: exec}
}

// Detect returns the first available tool in priority order: an active ufw,
// a running firewalld, then a present iptables. Exactly one tool is ever
// used, so rules never end up split across conflicting layers.
func (o *Opener) Detect() Tool {
	if _, err := o.exec.LookPath("ufw"); err == nil {
		out, err := o.exec.Execute("ufw", "status")
		if err == nil && strings.Contains(string(out), "Status: active") {
			return ToolUFW
		}
	}

	if _, err := o.exec.LookPath("firewall-cmd"); err == nil {
		out, err := o.exec.Execute("firewall-cmd", "--state")
		if err == nil && strings.Contains(string(out), "running") {
			return ToolFirewalld
		}
	}

	if _, err := o.exec.LookPath("iptables"); err == nil {
		return ToolIptables
	}

	return ToolNone
}

// OpenPorts opens 80 and 443 through the detected tool. Never returns an
// error; failures are logged as warnings.
func (o *Opener) OpenPorts() Tool {
	tool := o.Detect()

	switch tool {
	case ToolUFW:
		for _, port := range ports {
			if out, err := o.exec.Execute("ufw", "allow", port+"/tcp"); err != nil {
				logger.Warn("ufw allow %s failed: %s", port, strings.TrimSpace(string(out)))
			}
		}
	case ToolFirewalld:
		for _, port := range ports {
			if out, err := o.exec.Execute("firewall-cmd", "--permanent", "--add-port="+port+"/tcp"); err != nil {
				logger.Warn("firewall-cmd add-port %s failed: %s", port, strings.TrimSpace(string(out)))
			}
		}
		if out, err := o.exec.Execute("firewall-cmd", "--reload"); err != nil {
			logger.Warn("firewall-cmd reload failed: %s", strings.TrimSpace(string(out)))
		}
	case ToolIptables:
		for _, port := range ports {
			if out, err := o.exec.Execute("iptables", "-I", "INPUT", "-p", "tcp", "--dport", port, "-j", "ACCEPT"); err != nil {
				logger.Warn("iptables rule for port %s failed: %s", port, strings.TrimSpace(string(out)))
			}
		}
	case ToolNone:
		logger.Warn("No firewall tool found, assuming ports are managed externally")
	}

	return tool
}

// PortStatus describes how a single port looks to the active tool.
type PortStatus struct {
	Port string `json:"port"`
	Open bool   `json:"open"`
}

// Status reports the active tool and whether the required ports appear open.
// Used by the diagnostics reporter; never fails.
func (o *Opener) Status() (Tool, []PortStatus) {
	tool := o.Detect()
	statuses := make([]PortStatus, 0, len(ports))

	for _, port := range ports {
		statuses = append(statuses, PortStatus{Port: port, Open: o.portOpen(tool, port)})
	}
	return tool, statuses
}

func (o *Opener) portOpen(tool Tool, port string) bool {
	switch tool {
	case ToolUFW:
		out, err := o.exec.Execute("ufw", "status")
		return err == nil && strings.Contains(string(out), port+"/tcp")
	case ToolFirewalld:
		out, err := o.exec.Execute("firewall-cmd", "--list-ports")
		return err == nil && strings.Contains(string(out), port+"/tcp")
	case ToolIptables:
		out, err := o.exec.Execute("iptables", "-L", "INPUT", "-n")
		return err == nil && strings.Contains(string(out), "dpt:"+port)
	default:
		// No local firewall means nothing is blocked locally.
		return true
	}
}
