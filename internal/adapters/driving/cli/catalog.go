package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List available connector types",
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}

	for _, descriptor := range svc.Catalog.List() {
		cmd.Printf("%s (%s, auth: %s)\n", descriptor.DisplayName, descriptor.Type, descriptor.Auth)
		for _, stream := range descriptor.Streams {
			var modes []string
			if stream.SupportsIncremental {
				modes = append(modes, "incremental")
			}
			if stream.SupportsFullRefresh {
				modes = append(modes, "full_refresh")
			}
			if stream.PushOnly {
				modes = append(modes, "push-only")
			}
			cmd.Printf("  %s: %s [%s]\n", stream.Name, stream.Description, strings.Join(modes, ", "))
		}
	}
	return nil
}
