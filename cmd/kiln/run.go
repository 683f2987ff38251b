package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"kiln/internal/inference"
	"kiln/internal/logger"
)

func runCmd() *cli.Command {
	var prompt string

	return &cli.Command{
		Name:      "run",
		Usage:     "Generate greedily from a prompt",
		ArgsUsage: "[prompt]",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "prompt text",
				Destination: &prompt,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if prompt == "" {
				prompt = cmd.Args().First()
			}
			if prompt == "" {
				return fmt.Errorf("a prompt is required (flag or argument)")
			}

			log := newLogger()
			applyFileConfig(cmd, loadFileConfig(log))
			ctx = logger.WithContext(ctx, log)

			engine, err := buildEngine(log)
			if err != nil {
				return err
			}

			resp, err := engine.Generate(ctx, &inference.Request{Prompt: prompt})
			if err != nil {
				return err
			}

			fmt.Println(resp.Texts[0])
			log.Info("done",
				"prompt_tokens", resp.InputLength,
				"generated", resp.Stats.TokensGenerated,
				"tps", fmt.Sprintf("%.1f", resp.Stats.TPS),
			)
			return nil
		},
	}
}
