// Package decode implements a greedy autoregressive decode loop over a
// fixed-shape execution plan: the sequence buffer, cache and iteration
// bound are all sized before the first step, and nothing grows while
// the loop runs. Rows that finish early are masked and keep emitting
// padding until the whole batch is done or the buffer is full.
package decode

import (
	"context"
	"fmt"
	"time"

	"kiln/internal/logits"
	"kiln/internal/model"
	"kiln/internal/tensor"
)

// Stats summarises one generation call.
type Stats struct {
	TokensGenerated int
	Duration        time.Duration
	TPS             float64
}

// Result is the outcome of a completed generation call. Trailing
// columns past each row's stop stay at the pad token.
type Result struct {
	// Sequences is the [batch, length] output buffer, prompt included.
	Sequences *tensor.IntMat
	// Finished reports, per row, whether generation stopped on an
	// end-of-sequence token rather than by filling the buffer.
	Finished []bool
	// PromptLength is the number of leading columns holding the
	// initial tokens.
	PromptLength int
	// Length is the number of filled columns.
	Length int

	Stats Stats
}

// Loop drives step-by-step token prediction against one model. The
// input-preparation strategy is fixed at construction; each Generate
// call owns its buffers exclusively, so one Loop may serve sequential
// calls but a call is never shared.
type Loop struct {
	m    model.Model
	cfg  *Config
	prep preparer
}

// New builds a loop for m. Encoder-decoder models are detected once,
// here, by interface.
func New(m model.Model, cfg *Config) *Loop {
	l := &Loop{m: m, cfg: cfg}
	if ed, ok := m.(model.EncoderDecoder); ok {
		l.prep = encoderDecoder{m: ed, cfg: cfg}
	} else {
		l.prep = decoderOnly{m: m, cfg: cfg}
	}
	return l
}

// Generate runs the decode loop to completion. attentionMask may be nil
// for unpadded input. All validation failures surface before the first
// step; once iterating, the only failure path is a forward-pass error,
// which aborts the whole batch.
func (l *Loop) Generate(ctx context.Context, inputIDs, attentionMask *tensor.IntMat) (*Result, error) {
	prep, err := l.prep.prepare(ctx, inputIDs, attentionMask)
	if err != nil {
		return nil, err
	}

	batch := prep.initTokens.R
	promptLen := prep.initTokens.C
	maxLen := prep.maxLength
	if promptLen > maxLen {
		return nil, fmt.Errorf("%w: prompt length %d, max length %d", ErrInputTooLong, promptLen, maxLen)
	}

	pad := l.cfg.opts.PadTokenID
	eos := l.cfg.opts.EOSTokenID
	pipeline := l.cfg.pipeline(maxLen)

	seq := tensor.Full(batch, maxLen, pad)
	for i := 0; i < batch; i++ {
		copy(seq.Row(i)[:promptLen], prep.initTokens.Row(i))
	}

	finished := make([]bool, batch)
	inputs := prep.inputs
	curLen := promptLen

	var stats Stats
	start := time.Now()

	step := func() error {
		out, err := l.m.Forward(ctx, inputs)
		if err != nil {
			return fmt.Errorf("forward pass: %w", err)
		}

		stepLogits := out.Logits.LastStep()
		pipeline.Apply(stepLogits, logits.Context{
			Sequences:   seq,
			Length:      curLen,
			InputLength: promptLen,
		})

		next := make([]int32, batch)
		for i := range next {
			if finished[i] {
				next[i] = pad
				continue
			}
			next[i] = logits.Argmax(stepLogits.Row(i))
		}
		if eos >= 0 {
			for i, tok := range next {
				if tok == eos {
					finished[i] = true
				}
			}
		}

		seq.SetCol(curLen, next)
		curLen++
		stats.TokensGenerated++
		inputs = updateInputs(inputs, out, next)
		return nil
	}

	// Prefill: a multi-token prompt is consumed in one unconditional
	// step that populates the cache for every prefix position and
	// emits the first new token.
	if promptLen > 1 && curLen < maxLen {
		if err := step(); err != nil {
			return nil, err
		}
	}

	for !all(finished) && curLen < maxLen {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step(); err != nil {
			return nil, err
		}
	}

	stats.Duration = time.Since(start)
	if stats.Duration.Seconds() > 0 {
		stats.TPS = float64(stats.TokensGenerated) / stats.Duration.Seconds()
	}

	return &Result{
		Sequences:    seq,
		Finished:     finished,
		PromptLength: promptLen,
		Length:       curLen,
		Stats:        stats,
	}, nil
}

func all(mask []bool) bool {
	for _, m := range mask {
		if !m {
			return false
		}
	}
	return true
}
