package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dikkadev/launchhub/pkg/api"
	"github.com/dikkadev/launchhub/pkg/hub"
)

var (
	serveAddr     string
	serveWatch    bool
	watchInterval time.Duration
	watchDelay    time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog operations over HTTP",
	Long: `Serve the catalog operations as JSON on a local address.

Routes:
  GET    /apps                 catalog with live install state (?q=, ?category=, ?fuzzy=)
  POST   /apps/{id}/launch     start an application
  GET    /apps/{id}/update     check one application for updates
  GET    /apps/{id}/size       disk usage of an application
  GET    /apps/{id}/releases   published releases
  DELETE /apps/{id}            uninstall an application
  DELETE /apps?confirm=true    remove every installed application
  GET    /updates              check every installed application
  GET    /history              recorded update checks (?app=, ?limit=)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			if serveWatch {
				go func() {
					err := a.service.Watch(ctx, hub.WatchOptions{
						Interval:     watchInterval,
						StartupDelay: watchDelay,
					})
					log.WithError(err).Debug("Update watcher stopped")
				}()
			}

			fmt.Printf("Serving on http://%s\n", serveAddr)
			return api.Serve(ctx, serveAddr, a.service)
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check for updates periodically",
	Long: `Check every installed application for updates after a startup delay and
then on every interval, while autoUpdate is enabled in the settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			fmt.Printf("Checking every %s, last check %s\n", watchInterval, relativeTime(a.settings.LastUpdateCheck))

			err := a.service.Watch(ctx, hub.WatchOptions{
				Interval:     watchInterval,
				StartupDelay: watchDelay,
				OnUpdates: func(updates []hub.AppUpdate) {
					fmt.Printf("%s: %d update(s) available\n", time.Now().Format(time.Kitchen), len(updates))
					for _, u := range updates {
						printUpdate(u.AppName, u.Result)
					}
				},
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:7420", "listen address")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "run periodic update checks while serving")

	for _, c := range []*cobra.Command{serveCmd, watchCmd} {
		c.Flags().DurationVar(&watchInterval, "interval", hub.DefaultWatchInterval, "time between update checks")
		c.Flags().DurationVar(&watchDelay, "delay", hub.DefaultStartupDelay, "delay before the first update check")
	}

	rootCmd.AddCommand(serveCmd, watchCmd)
}
