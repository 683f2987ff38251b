package main

import "github.com/urfave/cli/v3"

var (
	modelConfigDir string
	maxNewTokens   int64
	maxLength      int64
	minNewTokens   int64
	seed           int64
	hiddenSize     int64
	logLevel       string
	logFormat      string
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model-config",
			Aliases:     []string{"m"},
			Usage:       "model directory holding config.json / generation_config.json",
			Destination: &modelConfigDir,
		},
		&cli.Int64Flag{
			Name:        "max-new-tokens",
			Aliases:     []string{"n"},
			Usage:       "number of tokens to generate past the prompt",
			Destination: &maxNewTokens,
		},
		&cli.Int64Flag{
			Name:        "max-length",
			Usage:       "total output length (mutually exclusive with max-new-tokens)",
			Destination: &maxLength,
		},
		&cli.Int64Flag{
			Name:        "min-new-tokens",
			Usage:       "minimum tokens before end-of-sequence is allowed",
			Destination: &minNewTokens,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "toy model weight seed",
			Value:       42,
			Destination: &seed,
		},
		&cli.Int64Flag{
			Name:        "hidden",
			Usage:       "toy model hidden size",
			Value:       64,
			Destination: &hiddenSize,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, text, json)",
			Value:       "pretty",
			Destination: &logFormat,
		},
	}
}
