package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariata/ariata/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <batch-file>",
	Short: "Ingest a JSON batch file",
	Long: `Feeds one batch file through the ingestion pipeline, the same path
the HTTP API and the spool watcher use. Useful for testing device
payloads and for manual backfills.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read batch file: %w", err)
	}

	var req driving.IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse batch file: %w", err)
	}

	resp, err := svc.Router.Ingest(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	cmd.Printf("Accepted %d, rejected %d (activity %s)\n", resp.Accepted, resp.Rejected, resp.ActivityID)
	return nil
}
