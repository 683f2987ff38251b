// Package inference sits between a transport (CLI, HTTP) and the
// decode loop: it resolves per-request options against model defaults,
// left-pads ragged batches into the fixed-shape matrices the loop
// expects, and decodes the generated ids back to text.
package inference

import (
	"context"
	"fmt"

	"kiln/internal/decode"
	"kiln/internal/genconfig"
	"kiln/internal/logger"
	"kiln/internal/model"
	"kiln/internal/tensor"
	"kiln/internal/tokenizer"
)

// Request is one generation call. Exactly one of Prompt and InputIDs
// must be supplied; Prompt is tokenized byte-level.
type Request struct {
	Prompt   string
	InputIDs [][]int32

	Overrides genconfig.Overrides
}

// Response carries the full output buffers plus the decoded generated
// text per row.
type Response struct {
	Sequences    [][]int32
	Texts        []string
	Finished     []bool
	InputLength  int
	Length       int
	Stats        decode.Stats
}

// Engine serves sequential generation calls against one model. Each
// call owns its buffers; an Engine itself holds no per-call state, so
// callers may share one across goroutines.
type Engine struct {
	m        model.Model
	defaults decode.Options
	log      logger.Logger
}

// New builds an engine over m with the given model-default options.
func New(m model.Model, defaults decode.Options, log logger.Logger) *Engine {
	if log == nil {
		log = logger.Default()
	}
	return &Engine{m: m, defaults: defaults, log: log}
}

// Generate resolves the request and runs the decode loop to completion.
func (e *Engine) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if req.Prompt != "" && len(req.InputIDs) > 0 {
		return nil, fmt.Errorf("%w: both prompt and input_ids given", decode.ErrConfig)
	}

	opts := genconfig.Apply(e.defaults, req.Overrides)
	cfg, err := decode.Resolve(opts)
	if err != nil {
		return nil, err
	}

	rows := req.InputIDs
	if len(rows) == 0 {
		if req.Prompt == "" {
			return nil, fmt.Errorf("%w: neither prompt nor input_ids given", decode.ErrConfig)
		}
		rows = [][]int32{tokenizer.Encode(req.Prompt)}
	}

	ids, mask, err := leftPad(rows, cfg.Options().PadTokenID)
	if err != nil {
		return nil, err
	}

	res, err := decode.New(e.m, cfg).Generate(ctx, ids, mask)
	if err != nil {
		return nil, err
	}

	e.log.Info("generation complete",
		"batch", ids.R,
		"prompt_length", res.PromptLength,
		"length", res.Length,
		"tokens", res.Stats.TokensGenerated,
		"tps", res.Stats.TPS,
	)

	out := &Response{
		Sequences:   make([][]int32, ids.R),
		Texts:       make([]string, ids.R),
		Finished:    res.Finished,
		InputLength: res.PromptLength,
		Length:      res.Length,
		Stats:       res.Stats,
	}
	for i := 0; i < ids.R; i++ {
		row := res.Sequences.Row(i)
		out.Sequences[i] = append([]int32(nil), row[:res.Length]...)
		out.Texts[i] = tokenizer.Decode(row[res.PromptLength:res.Length])
	}
	return out, nil
}

// leftPad packs ragged rows into a [batch, maxRowLen] matrix, padding
// on the left so every prompt ends at the same column, with a matching
// attention mask.
func leftPad(rows [][]int32, padID int32) (*tensor.IntMat, *tensor.IntMat, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("empty batch")
	}
	width := 0
	for _, r := range rows {
		if len(r) == 0 {
			return nil, nil, fmt.Errorf("empty row in batch")
		}
		if len(r) > width {
			width = len(r)
		}
	}

	ids := tensor.Full(len(rows), width, padID)
	mask := tensor.NewIntMat(len(rows), width)
	for i, r := range rows {
		offset := width - len(r)
		copy(ids.Row(i)[offset:], r)
		m := mask.Row(i)
		for j := offset; j < width; j++ {
			m[j] = 1
		}
	}
	return ids, mask, nil
}
