package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariata/ariata/internal/core/domain"
)

var (
	syncFullRefresh bool
	syncNoWait      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <source-id> <stream>",
	Short: "Trigger a sync for a stream",
	Long: `Triggers a sync job for the given source and stream and waits for
it to finish. Use --full to refetch everything instead of resuming
from the stored checkpoint.`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncFullRefresh, "full", false, "full refresh instead of incremental")
	syncCmd.Flags().BoolVar(&syncNoWait, "no-wait", false, "return immediately after admission")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}
	sourceID, streamName := args[0], args[1]

	var requested *domain.SyncMode
	if syncFullRefresh {
		mode := domain.FullRefresh()
		requested = &mode
	}

	ctx := cmd.Context()
	job, err := svc.Engine.TriggerSync(ctx, sourceID, streamName, requested)
	if err != nil {
		if errors.Is(err, domain.ErrSyncConflict) {
			return fmt.Errorf("%s/%s already has an active sync", sourceID, streamName)
		}
		return fmt.Errorf("trigger sync: %w", err)
	}
	cmd.Printf("Sync job %s admitted (%s)\n", job.ID, job.Mode.Type)

	if syncNoWait {
		return nil
	}
	return waitForJob(ctx, cmd, job.ID)
}

// waitForJob polls the job until it reaches a terminal state.
func waitForJob(ctx context.Context, cmd *cobra.Command, jobID string) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		job, err := svc.Engine.Job(ctx, jobID)
		if err != nil {
			return fmt.Errorf("poll job: %w", err)
		}
		if !job.Status.IsTerminal() {
			continue
		}

		switch job.Status {
		case domain.JobCompleted:
			cmd.Printf("Completed: %d fetched, %d written in %s\n",
				job.RecordsFetched, job.RecordsWritten, job.Duration().Round(time.Millisecond))
			return nil
		case domain.JobCancelled:
			cmd.Println("Cancelled")
			return nil
		default:
			return fmt.Errorf("sync failed: %s", job.Error)
		}
	}
}
