package decode

import (
	"fmt"

	"kiln/internal/logits"
)

// Unset marks an optional token id that was not configured.
const Unset int32 = -1

// Options are the caller-supplied generation options. Length fields use
// zero for "not set"; token-id fields use Unset. Exactly one of
// MaxLength and MaxNewTokens must be given, and at most one of
// MinLength and MinNewTokens.
type Options struct {
	MaxLength    int
	MaxNewTokens int
	MinLength    int
	MinNewTokens int

	PadTokenID          int32
	EOSTokenID          int32
	BOSTokenID          int32
	DecoderStartTokenID int32
	ForcedBOSTokenID    int32
	ForcedEOSTokenID    int32
}

// NewOptions returns Options with every token id unset.
func NewOptions() Options {
	return Options{
		PadTokenID:          Unset,
		EOSTokenID:          Unset,
		BOSTokenID:          Unset,
		DecoderStartTokenID: Unset,
		ForcedBOSTokenID:    Unset,
		ForcedEOSTokenID:    Unset,
	}
}

// Config is the validated, read-only form of Options. It is resolved
// once before the loop starts; the length closures capture the
// max-length and min-length rules so the loop never re-derives them.
type Config struct {
	opts   Options
	maxLen func(promptLen int) int
	minLen func(promptLen int) int // nil when no minimum is enforced
}

// Resolve validates opts and builds the length rules.
func Resolve(opts Options) (*Config, error) {
	cfg := &Config{opts: opts}

	switch {
	case opts.MaxLength > 0 && opts.MaxNewTokens > 0:
		return nil, fmt.Errorf("%w: both max_length and max_new_tokens given", ErrConfig)
	case opts.MaxLength > 0:
		cfg.maxLen = func(int) int { return opts.MaxLength }
	case opts.MaxNewTokens > 0:
		cfg.maxLen = func(promptLen int) int { return promptLen + opts.MaxNewTokens }
	default:
		return nil, fmt.Errorf("%w: neither max_length nor max_new_tokens given", ErrConfig)
	}

	switch {
	case opts.MinLength > 0 && opts.MinNewTokens > 0:
		return nil, fmt.Errorf("%w: both min_length and min_new_tokens given", ErrConfig)
	case opts.MinLength > 0:
		cfg.minLen = func(int) int { return opts.MinLength }
	case opts.MinNewTokens > 0:
		cfg.minLen = func(promptLen int) int { return promptLen + opts.MinNewTokens }
	}

	// Padding is what finished rows keep emitting, so the loop cannot
	// run without it. Fall back to EOS the way serving stacks usually
	// configure pad-less models.
	if cfg.opts.PadTokenID < 0 {
		if cfg.opts.EOSTokenID < 0 {
			return nil, fmt.Errorf("%w: pad_token_id required (no eos_token_id to fall back on)", ErrConfig)
		}
		cfg.opts.PadTokenID = cfg.opts.EOSTokenID
	}

	return cfg, nil
}

// Options returns the resolved options.
func (c *Config) Options() Options { return c.opts }

// MaxLength applies the max-length rule to a prompt length.
func (c *Config) MaxLength(promptLen int) int { return c.maxLen(promptLen) }

// pipeline assembles the logits processors active for this call.
// maxLength is the resolved buffer length, needed by the forced-EOS
// trigger.
func (c *Config) pipeline(maxLength int) logits.Pipeline {
	var p logits.Pipeline
	if c.minLen != nil && c.opts.EOSTokenID >= 0 {
		p = append(p, logits.MinLength(c.minLen, c.opts.EOSTokenID))
	}
	if c.opts.ForcedBOSTokenID >= 0 {
		p = append(p, logits.ForcedBOS(c.opts.ForcedBOSTokenID))
	}
	if c.opts.ForcedEOSTokenID >= 0 {
		p = append(p, logits.ForcedEOS(c.opts.ForcedEOSTokenID, maxLength))
	}
	return p
}
