package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"studylog/internal/bootstrap"
	insightsin "studylog/internal/modules/insights/adapter/in"
	"studylog/internal/modules/tracker/dto"
	"studylog/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("STUDYLOG_DATA"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studylog"
	}
	return filepath.Join(home, ".studylog")
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "studylog",
		Short:         "Study time tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", defaultDataDir(), "data directory")

	root.AddCommand(newSubjectCmd(&dataDir))
	root.AddCommand(newStartCmd(&dataDir))
	root.AddCommand(newPauseCmd(&dataDir))
	root.AddCommand(newResetCmd(&dataDir))
	root.AddCommand(newSwitchCmd(&dataDir))
	root.AddCommand(newSessionCmd(&dataDir))
	root.AddCommand(newQuestionCmd(&dataDir))
	root.AddCommand(newStatusCmd(&dataDir))
	root.AddCommand(newStatsCmd(&dataDir))
	root.AddCommand(newExportCmd(&dataDir))
	return root
}

// withApp loads the app for one command and always flushes pending
// writes before exiting.
func withApp(dataDir string, run func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := context.Background()
	cfg, err := config.New(dataDir)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := run(ctx, app)
	closeErr := app.Close(ctx)
	if runErr != nil {
		return runErr
	}
	return closeErr
}

func printTimer(cmd *cobra.Command, out dto.TimerOutput) {
	if !out.Changed {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no change: %s\n", out.Reason)
		return
	}
	state := "paused"
	if out.Running {
		state = "running"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s, %s today\n", state, formatMS(out.ElapsedTodayMS))
}

func formatMS(ms int64) string {
	d := (time.Duration(ms) * time.Millisecond).Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func newSubjectCmd(dataDir *string) *cobra.Command {
	subject := &cobra.Command{Use: "subject", Short: "Manage subjects"}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.CreateSubject(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", out.Name, out.ID)
				return nil
			})
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a subject",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.RenameSubject(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "renamed to %s\n", out.Name)
				return nil
			})
		},
	}

	archiveCmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.ArchiveSubject(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "archived %s\n", out.Name)
				return nil
			})
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder <id> <position>",
		Short: "Move a subject to a 1-based position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("position must be a number: %w", err)
			}
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.ReorderSubject(ctx, args[0], position)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now #%d\n", out.Name, out.Order)
				return nil
			})
		},
	}

	var includeArchived bool
	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List subjects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				subjects, err := app.TrackerCLI.ListSubjects(ctx, includeArchived)
				if err != nil {
					return err
				}
				for _, s := range subjects {
					marker := ""
					if s.Archived {
						marker = " (archived)"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d. %s %s%s\n", s.Order, s.Name, s.ID, marker)
				}
				return nil
			})
		},
	}
	lsCmd.Flags().BoolVar(&includeArchived, "all", false, "include archived subjects")

	subject.AddCommand(addCmd, renameCmd, archiveCmd, reorderCmd, lsCmd)
	return subject
}

func newStartCmd(dataDir *string) *cobra.Command {
	var subjectID string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the study stopwatch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if subjectID != "" {
					if _, err := app.TrackerCLI.Switch(ctx, subjectID); err != nil {
						return err
					}
				}
				out, err := app.TrackerCLI.Start(ctx)
				if err != nil {
					return err
				}
				printTimer(cmd, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subjectID, "subject", "", "select this subject first")
	return cmd
}

func newPauseCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the study stopwatch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.Pause(ctx)
				if err != nil {
					return err
				}
				printTimer(cmd, out)
				return nil
			})
		},
	}
}

func newResetCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset today's stopwatch and close open work",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.Reset(ctx)
				if err != nil {
					return err
				}
				printTimer(cmd, out)
				return nil
			})
		},
	}
}

func newSwitchCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <subject-id>",
		Short: "Switch the active subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.Switch(ctx, args[0])
				if err != nil {
					return err
				}
				printTimer(cmd, out)
				return nil
			})
		},
	}
}

func newSessionCmd(dataDir *string) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Manage sessions"}

	var mode, title string
	var timeLimitSec, targetQuestions int
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start an explicit session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.StartSession(ctx, mode, title, timeLimitSec, targetQuestions)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "started %s session %s\n", out.Mode, out.SessionID)
				return nil
			})
		},
	}
	startCmd.Flags().StringVar(&mode, "mode", "problem-solving", "session mode: problem-solving|mock-exam")
	startCmd.Flags().StringVar(&title, "title", "", "session title")
	startCmd.Flags().IntVar(&timeLimitSec, "time-limit", 0, "time limit in seconds (mock exams)")
	startCmd.Flags().IntVar(&targetQuestions, "target", 0, "target question count (mock exams)")

	endCmd := &cobra.Command{
		Use:   "end",
		Short: "End the open session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.EndSession(ctx)
				if err != nil {
					return err
				}
				if !out.Changed {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no change: %s\n", out.Reason)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ended session %s\n", out.SessionID)
				return nil
			})
		},
	}

	session.AddCommand(startCmd, endCmd)
	return session
}

func newQuestionCmd(dataDir *string) *cobra.Command {
	question := &cobra.Command{Use: "question", Short: "Record questions"}

	var durationMS int64
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a question against the active segment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.AddQuestion(ctx, durationMS)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "question #%d (%s)\n", out.QuestionNo, formatMS(out.DurationMS))
				return nil
			})
		},
	}
	addCmd.Flags().Int64Var(&durationMS, "duration", 0, "question duration in milliseconds")

	var segmentID string
	undoCmd := &cobra.Command{
		Use:   "undo",
		Short: "Remove the latest question of a segment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.UndoQuestion(ctx, segmentID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed question #%d\n", out.QuestionNo)
				return nil
			})
		},
	}
	undoCmd.Flags().StringVar(&segmentID, "segment", "", "segment id (defaults to the active segment)")

	question.AddCommand(addCmd, undoCmd)
	return question
}

func newStatusCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.Status(ctx)
				if err != nil {
					return err
				}
				state := "paused"
				if out.Running {
					state = "running"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s today (%s)\n", out.StudyDate, formatMS(out.ElapsedTodayMS), state)
				if out.ActiveSubject != nil {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "subject: %s\n", out.ActiveSubject.Name)
				}
				if out.SessionID != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session: %s segment: %s\n", out.SessionID, out.SegmentID)
				}
				return nil
			})
		},
	}
}

func newStatsCmd(dataDir *string) *cobra.Command {
	var days int
	var project bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show study statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if project {
					out, err := app.InsightsCLI.Project(ctx)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "projected %d days, %d sessions\n", out.Days, out.Sessions)
				}
				stats, err := app.InsightsCLI.Stats(ctx, days)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), insightsin.RenderStats(stats))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "rolling window in study days")
	cmd.Flags().BoolVar(&project, "project", false, "rebuild the sqlite stats projection first")
	return cmd
}

func newExportCmd(dataDir *string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a daily markdown note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.InsightsCLI.Export(ctx, date)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "study-day key (YYYY-MM-DD), defaults to today")
	return cmd
}
