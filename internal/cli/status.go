package cli

import (
	"github.com/ksyq12/siteup/internal/config"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/output"
	"github.com/ksyq12/siteup/internal/platform"
	"github.com/ksyq12/siteup/internal/report"
	"github.com/ksyq12/siteup/internal/webserver"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <domain>",
	Short: "Show the provisioning state of a domain",
	Long: `Report the current state of a provisioned domain without changing
anything: webroot and config paths, certificate presence, firewall
ports and the renewal cron entry.

Examples:
  siteup status example.com
  siteup status example.com --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	exec := executor.NewSystemExecutor()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	profile, err := platform.Detect(exec)
	if err != nil {
		return err
	}

	ngx := webserver.NewNginx(exec, profile.Family)
	rep := report.NewReporter(exec, cfg, ngx).Collect(args[0])

	if jsonOutput {
		return output.JSON(rep)
	}
	rep.Print()
	return nil
}
