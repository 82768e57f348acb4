// Package cli implements the ariata command line interface. Commands
// drive the core services directly; the HTTP server is just another
// driving adapter started by the serve command.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/ports/driving"
	"github.com/ariata/ariata/internal/core/services"
	"github.com/ariata/ariata/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services holds the wired core services the commands operate on.
type Services struct {
	Engine     *services.Engine
	Router     driving.IngestionRouter
	Catalog    driving.Catalog
	Sources    *services.SourceService
	Scheduler  *services.Scheduler
	Activities driven.ActivityStore
	Config     driven.ConfigStore
}

// svc is the current service wiring, injected by main before Execute.
var svc *Services

// SetServices injects the wired services.
func SetServices(s *Services) {
	svc = s
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "ariata",
	Short: "Personal data aggregation server",
	Long: `Ariata pulls your data from cloud services and receives pushes
from your devices, storing everything locally under your control.

Start the server with "ariata serve", connect sources with
"ariata sources add", and trigger syncs with "ariata sync".`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
