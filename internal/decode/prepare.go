package decode

import (
	"context"
	"fmt"

	"kiln/internal/model"
	"kiln/internal/tensor"
)

// prepared bundles everything the loop needs before the first step.
type prepared struct {
	inputs model.Inputs
	// initTokens are the tokens the output buffer starts with: the
	// prompt for decoder-only models, a single start-token column for
	// encoder-decoder models.
	initTokens *tensor.IntMat
	maxLength  int
}

// A preparer builds the initial model inputs. The variant is chosen
// once at loop construction, never per iteration.
type preparer interface {
	prepare(ctx context.Context, inputIDs, attentionMask *tensor.IntMat) (prepared, error)
}

// decoderOnly feeds the prompt straight into the single input stream.
type decoderOnly struct {
	m   model.Model
	cfg *Config
}

func (p decoderOnly) prepare(ctx context.Context, inputIDs, attentionMask *tensor.IntMat) (prepared, error) {
	batch := inputIDs.R
	maxLength := p.cfg.MaxLength(inputIDs.C)

	if attentionMask == nil {
		attentionMask = tensor.Ones(batch, inputIDs.C)
	}

	return prepared{
		inputs: model.Inputs{
			InputIDs:      inputIDs,
			AttentionMask: attentionMask,
			PositionIDs:   positionIDs(attentionMask),
			Cache:         p.m.NewCache(batch, maxLength),
		},
		initTokens: inputIDs,
		maxLength:  maxLength,
	}, nil
}

// encoderDecoder runs the encoder once up front; decoding starts from a
// single start token, so the max-length rule sees a prompt of one.
type encoderDecoder struct {
	m   model.EncoderDecoder
	cfg *Config
}

func (p encoderDecoder) prepare(ctx context.Context, inputIDs, attentionMask *tensor.IntMat) (prepared, error) {
	batch := inputIDs.R
	if attentionMask == nil {
		attentionMask = tensor.Ones(batch, inputIDs.C)
	}

	encoded, err := p.m.Encode(ctx, inputIDs, attentionMask)
	if err != nil {
		return prepared{}, fmt.Errorf("encoder pass: %w", err)
	}

	start := p.cfg.opts.DecoderStartTokenID
	if start < 0 {
		start = p.m.StartTokenID()
	}

	maxLength := p.cfg.MaxLength(1)
	decoderIDs := tensor.Full(batch, 1, start)
	decoderMask := tensor.Ones(batch, 1)

	return prepared{
		inputs: model.Inputs{
			InputIDs:      decoderIDs,
			AttentionMask: decoderMask,
			PositionIDs:   positionIDs(decoderMask),
			Cache:         p.m.NewCache(batch, maxLength),
			EncoderState:  encoded,
			EncoderMask:   attentionMask,
		},
		initTokens: decoderIDs,
		maxLength:  maxLength,
	}, nil
}

// positionIDs derives position ids from an attention mask: the running
// count of attended positions minus one, so left padding keeps real
// tokens at the right positions.
func positionIDs(mask *tensor.IntMat) *tensor.IntMat {
	pos := tensor.CumSumRows(mask)
	for i := range pos.Data {
		pos.Data[i]--
	}
	return pos
}
