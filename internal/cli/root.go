package cli

import (
	"os"

	"github.com/ksyq12/siteup/internal/config"
	"github.com/ksyq12/siteup/internal/executor"
	"github.com/ksyq12/siteup/internal/input"
	"github.com/ksyq12/siteup/internal/logger"
	"github.com/ksyq12/siteup/internal/output"
	"github.com/ksyq12/siteup/internal/provision"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	verbose    bool
	version    = "dev"
)

// rootCmd provisions the site end to end. The tool is one-shot: running it
// again on the same host repeats the pipeline idempotently.
var rootCmd = &cobra.Command{
	Use:   "siteup",
	Short: "Provision a static site behind nginx with Let's Encrypt",
	Long: `siteup sets up a single Linux host to serve the published static site
over HTTPS: it installs nginx and acme.sh dependencies, opens firewall
ports, deploys the site bundle, obtains a Let's Encrypt certificate and
schedules monthly renewals.

The run is interactive (domain and contact email are prompted) and
idempotent: re-running repairs a partially provisioned host.`,
	SilenceUsage: true,
	RunE:         runProvision,
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	reader, err := input.NewTerminalReader()
	if err != nil {
		return err
	}
	defer reader.Close()

	pipe := provision.New(executor.NewSystemExecutor(), reader, cfg)
	rep, err := pipe.Run()
	if err != nil {
		output.Error("Provisioning failed: %v", err)
		return err
	}

	if jsonOutput {
		return output.JSON(rep)
	}
	rep.Print()
	output.Success("Site is live at https://%s", rep.Domain)
	return nil
}

// Execute runs the root command
func Execute() {
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
}
