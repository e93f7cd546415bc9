package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studydesk/internal/client"
	"studydesk/internal/infer"
	"studydesk/internal/logging"
	"studydesk/internal/store"
)

func generateCmd() *cobra.Command {
	var flagSave bool

	cmd := &cobra.Command{
		Use:   "generate <title>",
		Short: "Draft a task from a title, optionally saving it",
		Example: `  studydesk generate "Urgent meeting tomorrow"
  studydesk generate --save "Report due 3/15/2025"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := initLogging(cfg, path, "studydesk-cli", true); err != nil {
				return err
			}
			log := logging.Logger

			res, err := infer.New(cfg.Inference.FallbackDueDays, nil).Infer(strings.Join(args, " "))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*clientTimeout(cfg)+5*time.Second)
			defer cancel()

			describer := client.NewDescriber(cfg.Client.DescribeURL, cfg.Client.Token, clientTimeout(cfg), log)
			res.Draft.Description = describer.Describe(ctx, res.CleanedTitle)

			out := cmd.OutOrStdout()
			printDraft(out, res, time.Local)
			if !flagSave {
				return nil
			}

			backend, release, err := openBackend(cfg)
			if err != nil {
				return err
			}
			defer release()

			created, err := store.New(backend, log).Create(ctx, res.Draft)
			if err != nil && created.ID == "" {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", green("saved"), dim(created.ID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagSave, "save", false, "Create the task instead of only printing it")
	return cmd
}

func printDraft(w io.Writer, res infer.Result, loc *time.Location) {
	d := res.Draft
	due := "-"
	if d.Due != nil {
		due = d.Due.In(loc).Format("Mon 2006-01-02 15:04")
		if !res.DateFound {
			due += dim(" (default)")
		}
	}
	fmt.Fprintf(w, "%s %s\n", bold("Title:      "), d.Title)
	fmt.Fprintf(w, "%s %s\n", bold("Due:        "), due)
	fmt.Fprintf(w, "%s %s\n", bold("Priority:   "), priorityC[d.Priority](strings.ToLower(string(d.Priority))))
	fmt.Fprintf(w, "%s %s\n", bold("Category:   "), d.Category)
	fmt.Fprintf(w, "%s %s\n", bold("Tags:       "), magenta(d.Tags.String()))
	fmt.Fprintf(w, "%s %d min\n", bold("Estimate:   "), d.EstimatedMinutes)
	fmt.Fprintf(w, "%s %s\n", bold("Description:"), d.Description)
}
