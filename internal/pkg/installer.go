// Package pkg installs the system dependencies of a provisioning run through
// the OS package manager and brings the required services up.
package pkg

import (
	"fmt"

	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/logger"
	"github.com/ksyq12/siteup/internal/platform"
)

// Installer ensures the webserver and supporting tools are present.
type Installer struct {
	exec    executor.CommandExecutor
	profile *platform.Profile
}

// NewInstaller creates an Installer for the detected host.
func NewInstaller(exec executor.CommandExecutor, profile *platform.Profile) *Installer {
	return &Installer{exec: exec, profile: profile}
}

// toolPackages are the supporting packages common to both families.
var toolPackages = []string{"curl", "tar", "git", "socat"}

// cronPackage returns the scheduler package name for the family.
func cronPackage(family platform.Family) string {
	if family == platform.FamilyRHEL {
		return "cronie"
	}
	return "cron"
}

// cronService returns the scheduler service name for the family.
func cronService(family platform.Family) string {
	if family == platform.FamilyRHEL {
		return "crond"
	}
	return "cron"
}

// NginxInstalled reports whether the nginx binary is already on the PATH.
// This is the primary idempotency guard: a present webserver means the run is
// adding a site to an existing server, not provisioning from scratch.
func (i *Installer) NginxInstalled() bool {
	_, err := i.exec.LookPath("nginx")
	return err == nil
}

// EnsureDependencies installs the missing packages and enables the webserver
// and scheduler services. Package manager failures are fatal; there is no
// retry.
func (i *Installer) EnsureDependencies() error {
	packages := make([]string, 0, len(toolPackages)+2)

	if i.NginxInstalled() {
		logger.Info("nginx already installed, skipping webserver package")
	} else {
		packages = append(packages, "nginx")
	}
	packages = append(packages, toolPackages...)
	packages = append(packages, cronPackage(i.profile.Family))

	if err := i.install(packages); err != nil {
		return err
	}

	// Services are enabled and started even when nothing was just installed,
	// so a re-run repairs a stopped webserver.
	for _, svc := range []string{"nginx", cronService(i.profile.Family)} {
		if err := i.enableService(svc); err != nil {
			return err
		}
	}

	return nil
}

// install runs one package-manager transaction for all packages.
func (i *Installer) install(packages []string) error {
	pm := i.profile.PackageManager

	if pm == "apt-get" {
		logger.Debug("Refreshing apt package lists")
		if out, err := i.exec.Execute("apt-get", "update", "-qq"); err != nil {
			return errors.Wrap(errors.ErrCodeInstall, fmt.Sprintf("apt-get update failed: %s", string(out)), err)
		}
	}

	args := append([]string{"install", "-y"}, packages...)
	logger.InfoFields("Installing packages", map[string]interface{}{
		"manager":  pm,
		"packages": len(packages),
	})
	if out, err := i.exec.Execute(pm, args...); err != nil {
		return errors.Wrap(errors.ErrCodeInstall, fmt.Sprintf("%s install failed: %s", pm, string(out)), err)
	}

	return nil
}

// enableService enables and starts a systemd unit.
func (i *Installer) enableService(name string) error {
	if out, err := i.exec.Execute("systemctl", "enable", "--now", name); err != nil {
		return errors.Wrap(errors.ErrCodeInstall, fmt.Sprintf("failed to enable %s: %s", name, string(out)), err)
	}
	return nil
}
