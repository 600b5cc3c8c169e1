// Package cli implements the timeroll command line interface.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timeroll/internal/config"
	"timeroll/internal/duration"
	"timeroll/internal/httpapi"
	"timeroll/internal/rollup"
	"timeroll/internal/service"
)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd          *cobra.Command
	service      service.Service
	config       *config.Config
	errorHandler *ErrorHandler
}

// NewRootCommand creates the root cobra command with all subcommands
func NewRootCommand(svc service.Service, cfg *config.Config) *RootCommand {
	root := &RootCommand{
		service:      svc,
		config:       cfg,
		errorHandler: NewErrorHandler(),
	}

	root.cmd = &cobra.Command{
		Use:   "timeroll",
		Short: "Track time against tasks and projects with hierarchical rollups",
		Long: `Timeroll tracks time spent on tasks and projects. Each task or project
can have at most one running timer; starting a new timer on an entity
replaces the one already running. Summaries roll settled time up the
task and project trees.

EXAMPLES:
  timeroll start task t1 -d "parser work"  # Start a timer on task t1
  timeroll stop task t1                    # Stop the running timer
  timeroll running                         # Show all running timers
  timeroll stop-all                        # Stop every running timer
  timeroll add task t1 2024-03-01T09:00:00Z --duration 1h30m
  timeroll summary project p1              # Rolled-up totals for p1
  timeroll serve                           # Serve the REST API

CONFIGURATION:
  TR_DATABASE_DIR        Database directory (default: ~/.timeroll)
  TR_DATABASE_FILENAME   Database filename (default: timeroll.db)
  TR_SERVER_HOST         HTTP listen host (default: 127.0.0.1)
  TR_SERVER_PORT         HTTP listen port (default: 8080)
  TR_CONFIG              Path to a YAML config file
  TR_DEBUG               Enable debug logging`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.addSubcommands()

	return root
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// Command exposes the underlying cobra command for tests.
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

func (r *RootCommand) addSubcommands() {
	r.cmd.AddCommand(
		r.newServeCommand(),
		r.newStartCommand(),
		r.newStopCommand(),
		r.newRunningCommand(),
		r.newStopAllCommand(),
		r.newAddCommand(),
		r.newSummaryCommand(),
	)
}

// commandContext returns a context bounded by the configured application
// timeout.
func (r *RootCommand) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.config.Application.Timeout)
}

func (r *RootCommand) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := httpapi.NewServer(r.service)
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", r.config.GetServerAddr())
			return server.Run(r.config.GetServerAddr())
		},
	}
}

func (r *RootCommand) newStartCommand() *cobra.Command {
	var description string
	var personID string

	cmd := &cobra.Command{
		Use:   "start <entity-type> <entity-id>",
		Short: "Start a timer on a task or project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext()
			defer cancel()

			outcome, err := r.service.StartTimer(ctx, args[0], args[1], optional(personID), optional(description))
			if err != nil {
				return r.errorHandler.Handle("start timer", err)
			}

			if outcome.Replaced != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Stopped previous timer (%s)\n", duration.Format(*outcome.Replaced.DurationUs))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started timer on %s %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Description for the entry")
	cmd.Flags().StringVarP(&personID, "person", "p", "", "Person the entry is attributed to")
	return cmd
}

func (r *RootCommand) newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <entity-type> <entity-id>",
		Short: "Stop the running timer on a task or project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext()
			defer cancel()

			entry, err := r.service.StopTimer(ctx, args[0], args[1])
			if err != nil {
				return r.errorHandler.Handle("stop timer", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stopped timer on %s %s after %s\n", args[0], args[1], duration.Format(*entry.DurationUs))
			return nil
		},
	}
}

func (r *RootCommand) newRunningCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "running",
		Short: "List all running timers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext()
			defer cancel()

			timers, err := r.service.ListRunningTimers(ctx)
			if err != nil {
				return r.errorHandler.Handle("list running timers", err)
			}

			if len(timers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No running timers")
				return nil
			}

			for _, t := range timers {
				desc := ""
				if t.Entry.Description != nil {
					desc = " " + *t.Entry.Description
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s%s\n", t.Entry.EntityType, t.Entry.EntityID, t.ElapsedHuman, desc)
			}
			return nil
		},
	}
}

func (r *RootCommand) newStopAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all",
		Short: "Stop every running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext()
			defer cancel()

			result, err := r.service.StopAllTimers(ctx)
			if err != nil {
				return r.errorHandler.Handle("stop all timers", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stopped %d timer(s)\n", result.StoppedCount)
			return nil
		},
	}
}

func (r *RootCommand) newAddCommand() *cobra.Command {
	var endTime string
	var durationText string
	var description string
	var personID string

	cmd := &cobra.Command{
		Use:   "add <entity-type> <entity-id> <start-time>",
		Short: "Record a completed entry after the fact",
		Long: `Record a completed time entry. The start time is an RFC3339 timestamp.
Provide either --end (RFC3339) or --duration (e.g. "1h30m", "2w3d").`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext()
			defer cancel()

			req := service.ManualEntryRequest{
				EntityType:  args[0],
				EntityID:    args[1],
				PersonID:    optional(personID),
				Description: optional(description),
			}

			start, err := time.Parse(time.RFC3339, args[2])
			if err != nil {
				return fmt.Errorf("invalid start time %q: must be RFC3339", args[2])
			}
			req.StartTime = start

			if endTime != "" {
				end, err := time.Parse(time.RFC3339, endTime)
				if err != nil {
					return fmt.Errorf("invalid end time %q: must be RFC3339", endTime)
				}
				req.EndTime = &end
			}
			if durationText != "" {
				durationUs, err := duration.Parse(durationText)
				if err != nil {
					return r.errorHandler.HandleSimple(err)
				}
				req.DurationUs = &durationUs
			}

			entry, err := r.service.AddManualEntry(ctx, req)
			if err != nil {
				return r.errorHandler.Handle("add entry", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s %s\n", duration.Format(*entry.DurationUs), args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&endTime, "end", "", "End time (RFC3339)")
	cmd.Flags().StringVar(&durationText, "duration", "", "Duration (e.g. 1h30m)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description for the entry")
	cmd.Flags().StringVarP(&personID, "person", "p", "", "Person the entry is attributed to")
	return cmd
}

func (r *RootCommand) newSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <entity-type> <entity-id>",
		Short: "Show rolled-up totals for a task or project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext()
			defer cancel()

			summary, err := r.service.GetSummary(ctx, args[0], args[1])
			if err != nil {
				return r.errorHandler.Handle("compute summary", err)
			}

			printSummary(cmd, summary)
			return nil
		},
	}
}

func printSummary(cmd *cobra.Command, summary *rollup.Summary) {
	out := cmd.OutOrStdout()

	name := summary.Name
	if name == "" {
		name = summary.EntityID
	}
	fmt.Fprintf(out, "%s (%s %s)\n", name, summary.EntityType, summary.EntityID)
	fmt.Fprintf(out, "  Total:    %s\n", duration.Format(summary.TotalUs))
	fmt.Fprintf(out, "  Direct:   %s\n", duration.Format(summary.DirectUs))
	fmt.Fprintf(out, "  Children: %s\n", duration.Format(summary.ChildrenUs))
	if summary.HasRunningTimer {
		fmt.Fprintf(out, "  Running:  %s (not included in totals)\n", duration.Format(summary.CurrentSessionUs))
	}

	if len(summary.ChildrenBreakdown) > 0 {
		fmt.Fprintln(out, "  Breakdown:")
		for _, item := range summary.ChildrenBreakdown {
			label := item.Name
			if label == "" {
				label = item.EntityID
			}
			fmt.Fprintf(out, "    %-10s %-20s %s\n", item.EntityType, label, duration.Format(item.TotalUs))
		}
	}
}

// optional maps an empty flag value to a nil pointer.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
