package main

import (
	"fmt"
	"log/slog"
	"os"

	"kiln/internal/decode"
	"kiln/internal/genconfig"
	"kiln/internal/inference"
	"kiln/internal/logger"
	"kiln/internal/tokenizer"
	"kiln/internal/toy"
)

// newLogger builds the process logger from the log flags.
func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	default:
		return logger.Pretty(os.Stderr, level)
	}
}

// buildEngine assembles the generation engine: model defaults from the
// model config directory when given, byte-level tokenizer defaults
// otherwise, with CLI flags taking precedence over both.
func buildEngine(log logger.Logger) (*inference.Engine, error) {
	defaults := decode.NewOptions()
	defaults.PadTokenID = tokenizer.PadID
	defaults.EOSTokenID = tokenizer.EOSID
	defaults.BOSTokenID = tokenizer.BOSID
	defaults.MaxNewTokens = 32
	vocab := tokenizer.VocabSize

	if modelConfigDir != "" {
		mc, err := genconfig.Load(modelConfigDir)
		if err != nil {
			return nil, fmt.Errorf("loading model config: %w", err)
		}
		defaults = mc.Defaults
		if mc.VocabSize > 0 {
			vocab = mc.VocabSize
		}
		if defaults.MaxLength == 0 && defaults.MaxNewTokens == 0 {
			defaults.MaxNewTokens = 32
		}
		log.Info("model config loaded", "path", modelConfigDir, "model_type", mc.ModelType, "vocab", vocab)
	}

	if maxNewTokens > 0 {
		defaults.MaxNewTokens = int(maxNewTokens)
		defaults.MaxLength = 0
	}
	if maxLength > 0 {
		defaults.MaxLength = int(maxLength)
		defaults.MaxNewTokens = 0
	}
	if minNewTokens > 0 {
		defaults.MinNewTokens = int(minNewTokens)
		defaults.MinLength = 0
	}

	m := toy.New(vocab, int(hiddenSize), seed)
	return inference.New(m, defaults, log), nil
}
