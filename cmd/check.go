// File: cmd/check.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/webpilot-cli/internal/browser/driver"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify a usable browser executable and print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer observability.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			path, err := driver.LocateExecutable(cfg.Browser.ExecPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "browser:   %s\n", path)
			fmt.Fprintf(out, "headless:  %v\n", cfg.Browser.Headless)
			fmt.Fprintf(out, "window:    %dx%d\n", cfg.Browser.WindowWidth, cfg.Browser.WindowHeight)
			fmt.Fprintf(out, "server:    %s\n", cfg.Server.Addr)
			fmt.Fprintf(out, "log level: %s\n", cfg.Logger.Level)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newCheckCmd())
}
