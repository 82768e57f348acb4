package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	sourceName     string
	sourceDeviceID string
	streamCron     string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage data sources",
	RunE:  runSourcesList,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <type>",
	Short: "Register a new source",
	Long: `Registers a new source of a known connector type. Device sources
should pass --device-id; cloud sources need credentials configured
separately.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesAdd,
}

var sourcesPauseCmd = &cobra.Command{
	Use:   "pause <source-id>",
	Short: "Pause a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesPause,
}

var sourcesResumeCmd = &cobra.Command{
	Use:   "resume <source-id>",
	Short: "Resume a paused source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesResume,
}

var sourcesDeleteCmd = &cobra.Command{
	Use:   "delete <source-id>",
	Short: "Delete a source and all its sync state",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesDelete,
}

var streamsEnableCmd = &cobra.Command{
	Use:   "enable <source-id> <stream>",
	Short: "Enable a stream on a source",
	Args:  cobra.ExactArgs(2),
	RunE:  runStreamsEnable,
}

var streamsDisableCmd = &cobra.Command{
	Use:   "disable <source-id> <stream>",
	Short: "Disable a stream",
	Args:  cobra.ExactArgs(2),
	RunE:  runStreamsDisable,
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceName, "name", "", "human-readable source name")
	sourcesAddCmd.Flags().StringVar(&sourceDeviceID, "device-id", "", "device identifier for push sources")
	streamsEnableCmd.Flags().StringVar(&streamCron, "cron", "", "cron schedule for automatic syncs")

	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesPauseCmd)
	sourcesCmd.AddCommand(sourcesResumeCmd)
	sourcesCmd.AddCommand(sourcesDeleteCmd)
	sourcesCmd.AddCommand(streamsEnableCmd)
	sourcesCmd.AddCommand(streamsDisableCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}

	sources, err := svc.Sources.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		cmd.Println("No sources configured. Add one with \"ariata sources add\".")
		return nil
	}

	cmd.Printf("%-36s  %-8s  %-20s  %s\n", "ID", "TYPE", "NAME", "STATUS")
	for i := range sources {
		source := &sources[i]
		status := "active"
		if !source.Active {
			status = "paused"
		}
		cmd.Printf("%-36s  %-8s  %-20s  %s\n", source.ID, source.Type, source.Name, status)
		if source.LastError != "" {
			cmd.Printf("    last error: %s\n", source.LastError)
		}

		streams, err := svc.Sources.ListStreams(cmd.Context(), source.ID)
		if err != nil {
			continue
		}
		for j := range streams {
			stream := &streams[j]
			state := "disabled"
			if stream.Enabled {
				state = "enabled"
			}
			cmd.Printf("    %s (%s)", stream.Name, state)
			if stream.CronSchedule != "" {
				cmd.Printf(" cron=%q", stream.CronSchedule)
			}
			cmd.Println()
		}
	}
	return nil
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}

	name := sourceName
	if name == "" {
		name = args[0]
	}
	source, err := svc.Sources.Create(cmd.Context(), args[0], name, sourceDeviceID)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}
	cmd.Printf("Created source %s (%s)\n", source.ID, source.Type)
	return nil
}

func runSourcesPause(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}
	if err := svc.Sources.Pause(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("pause source: %w", err)
	}
	cmd.Println("Source paused.")
	return nil
}

func runSourcesResume(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}
	if err := svc.Sources.Resume(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("resume source: %w", err)
	}
	cmd.Println("Source resumed.")
	return nil
}

func runSourcesDelete(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}
	if err := svc.Sources.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	cmd.Println("Source deleted.")
	return nil
}

func runStreamsEnable(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}

	sourceID, streamName := args[0], args[1]
	stream, err := svc.Sources.EnableStream(cmd.Context(), sourceID, streamName, nil)
	if err != nil {
		return fmt.Errorf("enable stream: %w", err)
	}
	if streamCron != "" {
		if err := svc.Sources.UpdateStreamSchedule(cmd.Context(), sourceID, streamName, streamCron); err != nil {
			return fmt.Errorf("set schedule: %w", err)
		}
	}
	cmd.Printf("Stream %s/%s enabled (records go to %s)\n", sourceID, stream.Name, stream.TargetTable)
	return nil
}

func runStreamsDisable(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}
	if err := svc.Sources.DisableStream(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("disable stream: %w", err)
	}
	cmd.Println("Stream disabled. The checkpoint is kept.")
	return nil
}
