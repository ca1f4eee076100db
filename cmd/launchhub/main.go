package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dikkadev/launchhub/pkg/logging"
)

// version is set at build time
var version = "dev"

var (
	rootFlag     string
	verbose      bool
	logLevelFlag string
	noHistory    bool

	rootCmd = &cobra.Command{
		Use:           "launchhub",
		Short:         "Launch, update and remove companion applications",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `launchhub manages a catalog of locally installed companion applications.

The catalog lives in <root>/config/apps-registry.json. Each application is
installed below the installation root in a directory named after its id, and
its releases are published on GitHub.

Commands:
  list         Show the catalog with live install state
  launch       Start an installed application
  check        Check one application for updates
  check-all    Check every installed application for updates
  install      Open the latest release of an application in the browser
  uninstall    Remove an installed application
  size         Show the disk usage of an installed application
  clear-all    Remove every installed application
  serve        Serve the catalog operations over HTTP
  watch        Check for updates periodically
  config       Show and change settings`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevelFlag)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevelFlag, err)
			}
			if verbose {
				level = logrus.DebugLevel
			}
			logging.SetLevel(level)
			return nil
		},
	}
)

var log = logging.GetLogger("cli")

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "data directory (default ~/launchhub, or $LAUNCHHUB_ROOT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "do not record update checks")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

// run executes the command tree. A panic is logged and reported as an error.
func run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Unexpected failure")
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}
