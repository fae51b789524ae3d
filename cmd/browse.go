// File: cmd/browse.go
package cmd

import (
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser"
	"github.com/xkilldash9x/webpilot-cli/internal/browser/driver"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

func newBrowseCmd() *cobra.Command {
	var (
		identity   string
		asJSON     bool
		screenshot string
	)

	browseCmd := &cobra.Command{
		Use:   "browse <url>",
		Short: "Open a page once and print its interactive elements",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer observability.Sync()
			logger := observability.GetLogger()
			url := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			manager := browser.NewManager(cfg, func(ctx context.Context) (schemas.Driver, error) {
				return driver.New(ctx, cfg.Browser)
			})
			defer func() {
				if err := manager.CloseAll(context.Background()); err != nil {
					logger.Warn("failed to close sessions", zap.Error(err))
				}
			}()

			sess, err := manager.GetOrCreate(cmd.Context(), identity)
			if err != nil {
				return fmt.Errorf("starting browser: %w", err)
			}

			if res := sess.Navigate(cmd.Context(), url); res.Failed() {
				return fmt.Errorf("%s", res.Message)
			}
			state := sess.UpdateState(cmd.Context())
			if state.Status == schemas.StatusError {
				return fmt.Errorf("%s", state.Message)
			}

			if screenshot != "" && len(state.Screenshot) > 0 {
				if err := os.WriteFile(screenshot, state.Screenshot, 0o644); err != nil {
					logger.Warn("failed to write screenshot", zap.String("path", screenshot), zap.Error(err))
				} else {
					logger.Info("screenshot written", zap.String("path", screenshot))
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				// Strip the raw bytes from the JSON view; the file flag is
				// the way to get the image.
				state.Screenshot = nil
				enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}

			fmt.Fprintf(out, "%s  (%s)\n", state.Title, state.URL)
			fmt.Fprintf(out, "%d interactive elements:\n", len(state.Elements))
			for _, el := range state.Elements {
				label := el.Text
				if label == "" {
					label = el.Attributes["aria-label"]
				}
				fmt.Fprintf(out, "  [%3d] <%s> %s\n", el.ID, el.TagName, label)
			}
			return nil
		},
	}

	browseCmd.Flags().StringVar(&identity, "identity", "", "session identity (default session when empty)")
	browseCmd.Flags().BoolVar(&asJSON, "json", false, "print the page state as JSON")
	browseCmd.Flags().StringVar(&screenshot, "screenshot", "", "write a PNG screenshot to this path")
	browseCmd.Flags().Bool("headless", true, "run the browser headless")
	return browseCmd
}

func init() {
	rootCmd.AddCommand(newBrowseCmd())
}
