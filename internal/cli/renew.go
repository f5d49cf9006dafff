package cli

import (
	"os"

	"github.com/ksyq12/siteup/internal/acme"
	"github.com/ksyq12/siteup/internal/config"
	"github.com/ksyq12/siteup/internal/errors"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/output"
	"github.com/spf13/cobra"
)

var renewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Run the certificate renewal check now",
	Long: `Run the acme.sh renewal pass immediately instead of waiting for the
monthly cron entry. Certificates close to expiry are renewed and nginx
is reloaded through the registered reload hook.

Examples:
  siteup renew`,
	RunE: runRenew,
}

func init() {
	rootCmd.AddCommand(renewCmd)
}

func runRenew(cmd *cobra.Command, args []string) error {
	if os.Geteuid() != 0 {
		return errors.ErrRootRequired
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := acme.NewClient(executor.NewSystemExecutor(), cfg)
	if err := client.RenewCheck(); err != nil {
		return err
	}

	output.Success("Renewal check completed")
	return nil
}
