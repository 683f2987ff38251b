// Package genconfig loads generation defaults from a model directory
// laid out the Hugging Face way: config.json for model-level token ids
// and is_encoder_decoder, generation_config.json for generation
// settings. Values from generation_config.json take precedence. The
// result is a decode.Options ready to merge with per-request overrides.
package genconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"kiln/internal/decode"
)

// rawConfig mirrors the config.json fields the decode core cares
// about. eos_token_id can be an int or a list; pad_token_id can be an
// int or null.
type rawConfig struct {
	ModelType        string `json:"model_type"`
	IsEncoderDecoder bool   `json:"is_encoder_decoder"`
	VocabSize        int    `json:"vocab_size"`

	EOSTokenID          any    `json:"eos_token_id"`
	BOSTokenID          *int32 `json:"bos_token_id"`
	PadTokenID          any    `json:"pad_token_id"`
	DecoderStartTokenID *int32 `json:"decoder_start_token_id"`
	ForcedBOSTokenID    *int32 `json:"forced_bos_token_id"`
	ForcedEOSTokenID    *int32 `json:"forced_eos_token_id"`

	MaxLength int `json:"max_length"`
}

// rawGenerationConfig mirrors generation_config.json.
type rawGenerationConfig struct {
	MaxLength    int `json:"max_length"`
	MaxNewTokens int `json:"max_new_tokens"`
	MinLength    int `json:"min_length"`
	MinNewTokens int `json:"min_new_tokens"`

	EOSTokenID          any    `json:"eos_token_id"`
	BOSTokenID          *int32 `json:"bos_token_id"`
	PadTokenID          any    `json:"pad_token_id"`
	DecoderStartTokenID *int32 `json:"decoder_start_token_id"`
	ForcedBOSTokenID    *int32 `json:"forced_bos_token_id"`
	ForcedEOSTokenID    *int32 `json:"forced_eos_token_id"`
}

// ModelConfig is the merged view of a model directory's generation
// defaults.
type ModelConfig struct {
	ModelType        string
	IsEncoderDecoder bool
	VocabSize        int
	Defaults         decode.Options
}

// Load reads config.json (required) and generation_config.json
// (optional) from dir.
func Load(dir string) (*ModelConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("reading config.json: %w", err)
	}
	var cfg rawConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config.json: %w", err)
	}

	opts := decode.NewOptions()
	opts.MaxLength = cfg.MaxLength
	setToken(&opts.EOSTokenID, tokenID(cfg.EOSTokenID))
	setToken(&opts.PadTokenID, tokenID(cfg.PadTokenID))
	setToken(&opts.BOSTokenID, cfg.BOSTokenID)
	setToken(&opts.DecoderStartTokenID, cfg.DecoderStartTokenID)
	setToken(&opts.ForcedBOSTokenID, cfg.ForcedBOSTokenID)
	setToken(&opts.ForcedEOSTokenID, cfg.ForcedEOSTokenID)

	if gen := loadGenerationConfig(dir); gen != nil {
		if gen.MaxLength > 0 {
			opts.MaxLength = gen.MaxLength
		}
		if gen.MaxNewTokens > 0 {
			opts.MaxNewTokens = gen.MaxNewTokens
			opts.MaxLength = 0
		}
		if gen.MinLength > 0 {
			opts.MinLength = gen.MinLength
		}
		if gen.MinNewTokens > 0 {
			opts.MinNewTokens = gen.MinNewTokens
			opts.MinLength = 0
		}
		setToken(&opts.EOSTokenID, tokenID(gen.EOSTokenID))
		setToken(&opts.PadTokenID, tokenID(gen.PadTokenID))
		setToken(&opts.BOSTokenID, gen.BOSTokenID)
		setToken(&opts.DecoderStartTokenID, gen.DecoderStartTokenID)
		setToken(&opts.ForcedBOSTokenID, gen.ForcedBOSTokenID)
		setToken(&opts.ForcedEOSTokenID, gen.ForcedEOSTokenID)
	}

	return &ModelConfig{
		ModelType:        cfg.ModelType,
		IsEncoderDecoder: cfg.IsEncoderDecoder,
		VocabSize:        cfg.VocabSize,
		Defaults:         opts,
	}, nil
}

// loadGenerationConfig reads generation_config.json if present. A
// missing or unparseable file is not an error; config.json stands
// alone.
func loadGenerationConfig(dir string) *rawGenerationConfig {
	data, err := os.ReadFile(filepath.Join(dir, "generation_config.json"))
	if err != nil {
		return nil
	}
	var gen rawGenerationConfig
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil
	}
	return &gen
}

// tokenID coerces a JSON token-id value that may be a number, a list of
// numbers (first entry wins) or null.
func tokenID(v any) *int32 {
	switch t := v.(type) {
	case float64:
		id := int32(t)
		return &id
	case []any:
		if len(t) > 0 {
			if f, ok := t[0].(float64); ok {
				id := int32(f)
				return &id
			}
		}
	}
	return nil
}

func setToken(dst *int32, v *int32) {
	if v != nil {
		*dst = *v
	}
}

// Overrides are per-request option overrides. Pointer fields
// distinguish "not set" from zero, matching how the serving layer
// resolves requests against model defaults.
type Overrides struct {
	MaxLength    *int
	MaxNewTokens *int
	MinLength    *int
	MinNewTokens *int

	EOSTokenID          *int32
	PadTokenID          *int32
	DecoderStartTokenID *int32
	ForcedBOSTokenID    *int32
	ForcedEOSTokenID    *int32
}

// Apply merges overrides over base defaults. Setting one side of a
// paired length option clears the other so a request can switch rule,
// e.g. from a model-default max_length to a request max_new_tokens.
func Apply(base decode.Options, o Overrides) decode.Options {
	out := base
	if o.MaxLength != nil {
		out.MaxLength = *o.MaxLength
		out.MaxNewTokens = 0
	}
	if o.MaxNewTokens != nil {
		out.MaxNewTokens = *o.MaxNewTokens
		out.MaxLength = 0
	}
	if o.MinLength != nil {
		out.MinLength = *o.MinLength
		out.MinNewTokens = 0
	}
	if o.MinNewTokens != nil {
		out.MinNewTokens = *o.MinNewTokens
		out.MinLength = 0
	}
	if o.EOSTokenID != nil {
		out.EOSTokenID = *o.EOSTokenID
	}
	if o.PadTokenID != nil {
		out.PadTokenID = *o.PadTokenID
	}
	if o.DecoderStartTokenID != nil {
		out.DecoderStartTokenID = *o.DecoderStartTokenID
	}
	if o.ForcedBOSTokenID != nil {
		out.ForcedBOSTokenID = *o.ForcedBOSTokenID
	}
	if o.ForcedEOSTokenID != nil {
		out.ForcedEOSTokenID = *o.ForcedEOSTokenID
	}
	return out
}
