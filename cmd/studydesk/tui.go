package main

import (
	"github.com/spf13/cobra"

	"studydesk/internal/client"
	"studydesk/internal/infer"
	"studydesk/internal/logging"
	"studydesk/internal/store"
	"studydesk/internal/ui"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal task views",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := initLogging(cfg, path, "studydesk-tui", true); err != nil {
				return err
			}
			backend, release, err := openBackend(cfg)
			if err != nil {
				return err
			}
			defer release()

			log := logging.Logger
			return ui.Run(ui.Options{
				Store:     store.New(backend, log),
				Generator: infer.New(cfg.Inference.FallbackDueDays, nil),
				Describer: client.NewDescriber(cfg.Client.DescribeURL, cfg.Client.Token, clientTimeout(cfg), log),
				Config:    cfg,
				Logger:    log,
			})
		},
	}
}
