// Package schedule maintains the monthly certificate renewal entry in the
// root crontab.
package schedule

import (
	"fmt"
	"strings"

	"github.com/ksyq12/siteup/internal/config"
	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/logger"
)

// renewMarker identifies the renewal entry in the crontab. Duplicate
// prevention is a substring search on it.
const renewMarker = "acme.sh --cron"

// Scheduler manages the renewal cron entry.
type Scheduler struct {
	exec executor.CommandExecutor
	cfg  *config.Config
}

// NewScheduler creates a Scheduler.
func NewScheduler(exec executor.CommandExecutor, cfg *config.Config) *Scheduler {
	return &Scheduler{exec: exec, cfg: cfg}
}

// renewLine builds the crontab line for the monthly renewal check.
func (s *Scheduler) renewLine() string {
	return fmt.Sprintf("%s %s --cron --home %s", s.cfg.RenewalSchedule, s.cfg.AcmeScript(), s.cfg.AcmeHome)
}

// EnsureRenewalJob appends the renewal entry to the crontab unless one is
// already present. Running the pipeline any number of times leaves exactly
// one entry.
func (s *Scheduler) EnsureRenewalJob() error {
	current, err := s.currentCrontab()
	if err != nil {
		return err
	}

	if strings.Contains(current, renewMarker) {
		logger.Info("Renewal cron entry already present, skipping")
		return nil
	}

	updated := current
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += s.renewLine() + "\n"

	if out, err := s.exec.ExecuteInput(updated, "crontab", "-"); err != nil {
		return errors.Wrap(errors.ErrCodeSchedule, fmt.Sprintf("failed to install crontab: %s", string(out)), err)
	}

	logger.Info("Installed monthly renewal cron entry")
	return nil
}

// HasRenewalJob reports whether the renewal entry is installed.
func (s *Scheduler) HasRenewalJob() (bool, error) {
	current, err := s.currentCrontab()
	if err != nil {
		return false, err
	}
	return strings.Contains(current, renewMarker), nil
}

// currentCrontab returns the crontab content. A missing table ("no crontab
// for root") is treated as empty, not as an error.
func (s *Scheduler) currentCrontab() (string, error) {
	out, err := s.exec.Execute("crontab", "-l")
	if err != nil {
		if strings.Contains(string(out), "no crontab") {
			return "", nil
		}
		return "", errors.Wrap(errors.ErrCodeSchedule, fmt.Sprintf("failed to read crontab: %s", string(out)), err)
	}
	return string(out), nil
}
