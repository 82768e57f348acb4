package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariata/ariata/internal/core/domain"
)

var (
	jobsSourceID string
	jobsStatus   string
	jobsLimit    int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List sync jobs",
	Long:  `Lists sync jobs from the ledger, most recent first.`,
	RunE:  runJobsList,
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a sync job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsCancel,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsSourceID, "source", "", "filter by source ID")
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 0, "maximum number of jobs")
	jobsCmd.AddCommand(jobsCancelCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}

	filter := domain.JobFilter{SourceID: jobsSourceID, Limit: jobsLimit}
	if jobsStatus != "" {
		filter.Statuses = []domain.JobStatus{domain.JobStatus(jobsStatus)}
	}

	jobs, err := svc.Engine.QueryJobs(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("query jobs: %w", err)
	}
	if len(jobs) == 0 {
		cmd.Println("No jobs found.")
		return nil
	}

	cmd.Printf("%-36s  %-20s  %-12s  %-10s  %s\n", "ID", "STREAM", "MODE", "STATUS", "REQUESTED")
	for i := range jobs {
		job := &jobs[i]
		cmd.Printf("%-36s  %-20s  %-12s  %-10s  %s\n",
			job.ID,
			job.SourceID+"/"+job.StreamName,
			job.Mode.Type,
			job.Status,
			job.RequestedAt.Local().Format(time.DateTime),
		)
		if job.Error != "" {
			cmd.Printf("    error: %s\n", job.Error)
		}
	}
	return nil
}

func runJobsCancel(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}

	err := svc.Engine.Cancel(cmd.Context(), args[0])
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		return fmt.Errorf("no job with ID %s", args[0])
	case errors.Is(err, domain.ErrJobAlreadyDone):
		return errors.New("job already finished")
	case err != nil:
		return fmt.Errorf("cancel job: %w", err)
	}

	cmd.Println("Cancellation requested.")
	return nil
}
