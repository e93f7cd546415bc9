package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studydesk/internal/httpapi"
	"studydesk/internal/task"
	"studydesk/internal/view"
)

var (
	bold      = color.New(color.Bold).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
	boldCyan  = color.New(color.Bold, color.FgCyan).SprintFunc()
	green     = color.New(color.FgGreen).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	boldRed   = color.New(color.Bold, color.FgRed).SprintFunc()
	magenta   = color.New(color.FgMagenta).SprintFunc()
	priorityC = map[task.Priority]func(a ...interface{}) string{
		task.PriorityLow:    dim,
		task.PriorityNormal: fmt.Sprint,
		task.PriorityHigh:   yellow,
		task.PriorityUrgent: boldRed,
	}
)

func listCmd() *cobra.Command {
	var (
		flagView      string
		flagPriority  string
		flagCompleted string
		flagDueAfter  string
		flagDueBefore string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one task view",
		Long: `Print the inbox, today, upcoming, completed or filtered view. Any of the
filter flags selects the filtered view.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := initLogging(cfg, path, "studydesk-cli", true); err != nil {
				return err
			}

			name := flagView
			if name == "" {
				name = cfg.DefaultView
			}
			kind, err := view.ParseKind(name)
			if err != nil {
				return err
			}

			params := url.Values{}
			for key, v := range map[string]string{
				"priority":  flagPriority,
				"completed": flagCompleted,
				"dueAfter":  flagDueAfter,
				"dueBefore": flagDueBefore,
			} {
				if v != "" {
					params.Set(key, v)
				}
			}
			filter, err := httpapi.ParseListQuery(params)
			if err != nil {
				return err
			}
			if !filter.IsZero() {
				kind = view.Filtered
			}

			backend, release, err := openBackend(cfg)
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := context.WithTimeout(cmd.Context(), clientTimeout(cfg)+5*time.Second)
			defer cancel()
			tasks, err := backend.List(ctx)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}

			printView(cmd.OutOrStdout(), view.Derive(kind, tasks, time.Now(), filter), time.Local)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagView, "view", "", "inbox, today, upcoming, completed or filtered (default from config)")
	cmd.Flags().StringVar(&flagPriority, "priority", "", "Filter by priority (low, normal, high, urgent)")
	cmd.Flags().StringVar(&flagCompleted, "completed", "", "Filter by completion (true or false)")
	cmd.Flags().StringVar(&flagDueAfter, "due-after", "", "Filter tasks due at or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flagDueBefore, "due-before", "", "Filter tasks due at or before this date (YYYY-MM-DD)")
	return cmd
}

func printView(w io.Writer, res view.Result, loc *time.Location) {
	fmt.Fprintf(w, "%s %s\n", boldCyan(strings.ToUpper(res.Kind.String())), dim(fmt.Sprintf("(%d)", len(res.Tasks))))
	if len(res.Tasks) == 0 {
		fmt.Fprintln(w, dim("  nothing here"))
		return
	}
	if res.Kind == view.Upcoming {
		for _, g := range res.Groups {
			fmt.Fprintf(w, "%s\n", bold(g.Day.Format("Mon Jan 2")))
			for _, t := range g.Tasks {
				printTask(w, t, loc)
			}
		}
		return
	}
	for _, t := range res.Tasks {
		printTask(w, t, loc)
	}
}

func printTask(w io.Writer, t task.Task, loc *time.Location) {
	check := "[ ]"
	if t.Completed {
		check = green("[x]")
	}
	paint, ok := priorityC[t.Priority]
	if !ok {
		paint = fmt.Sprint
	}
	line := fmt.Sprintf("  %s %s %s", check, t.Title, paint(strings.ToLower(string(t.Priority))))
	if t.Due != nil {
		line += dim(" due " + t.Due.In(loc).Format("2006-01-02 15:04"))
	}
	if len(t.Tags) > 0 {
		line += " " + magenta("#"+strings.Join(t.Tags, " #"))
	}
	fmt.Fprintf(w, "%s  %s\n", line, dim(t.ID))
}
