package inference

import (
	"context"
	"errors"
	"testing"

	"kiln/internal/decode"
	"kiln/internal/genconfig"
	"kiln/internal/model"
	"kiln/internal/tensor"
)

// echoModel always favors the token one above the last input token,
// wrapping inside the vocabulary, so outputs are easy to predict.
type echoModel struct {
	vocab int
}

func (m echoModel) NewCache(batch, maxLen int) model.Cache { return struct{}{} }
func (m echoModel) VocabSize() int                         { return m.vocab }

func (m echoModel) Forward(ctx context.Context, in model.Inputs) (model.Output, error) {
	batch := in.InputIDs.R
	seqLen := in.InputIDs.C
	out := tensor.NewMat3(batch, seqLen, m.vocab)
	for i := 0; i < batch; i++ {
		last := int(in.InputIDs.At(i, seqLen-1))
		out.Row(i, seqLen-1)[(last+1)%m.vocab] = 1.0
	}
	return model.Output{Logits: out, Cache: in.Cache}, nil
}

func defaults() decode.Options {
	opts := decode.NewOptions()
	opts.MaxNewTokens = 3
	opts.PadTokenID = 0
	return opts
}

func TestGenerateFromIDs(t *testing.T) {
	e := New(echoModel{vocab: 16}, defaults(), nil)
	resp, err := e.Generate(context.Background(), &Request{
		InputIDs: [][]int32{{4, 5}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []int32{4, 5, 6, 7, 8}
	if len(resp.Sequences) != 1 {
		t.Fatalf("batch size: %d", len(resp.Sequences))
	}
	for i, w := range want {
		if resp.Sequences[0][i] != w {
			t.Fatalf("sequence: got %v, want %v", resp.Sequences[0], want)
		}
	}
	if resp.InputLength != 2 || resp.Length != 5 {
		t.Fatalf("lengths: input=%d total=%d", resp.InputLength, resp.Length)
	}
}

func TestGenerateRaggedBatchLeftPads(t *testing.T) {
	e := New(echoModel{vocab: 16}, defaults(), nil)
	resp, err := e.Generate(context.Background(), &Request{
		InputIDs: [][]int32{{7}, {4, 5, 6}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Row 0 is left-padded to width 3; both rows generate 3 tokens.
	if got := resp.Sequences[0]; got[0] != 0 || got[1] != 0 || got[2] != 7 {
		t.Fatalf("row 0 padding: %v", got)
	}
	if resp.Length != 6 {
		t.Fatalf("length: %d", resp.Length)
	}
}

func TestGenerateRejectsAmbiguousInput(t *testing.T) {
	e := New(echoModel{vocab: 16}, defaults(), nil)

	_, err := e.Generate(context.Background(), &Request{Prompt: "hi", InputIDs: [][]int32{{1}}})
	if !errors.Is(err, decode.ErrConfig) {
		t.Fatalf("both inputs: expected ErrConfig, got %v", err)
	}

	_, err = e.Generate(context.Background(), &Request{})
	if !errors.Is(err, decode.ErrConfig) {
		t.Fatalf("no inputs: expected ErrConfig, got %v", err)
	}
}

func TestGenerateAppliesOverrides(t *testing.T) {
	e := New(echoModel{vocab: 16}, defaults(), nil)
	one := 1
	resp, err := e.Generate(context.Background(), &Request{
		InputIDs:  [][]int32{{4}},
		Overrides: genconfig.Overrides{MaxNewTokens: &one},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Length != 2 {
		t.Fatalf("override ignored: length=%d", resp.Length)
	}
}

func TestLeftPadMask(t *testing.T) {
	ids, mask, err := leftPad([][]int32{{9}, {1, 2}}, 0)
	if err != nil {
		t.Fatalf("leftPad: %v", err)
	}
	if ids.At(0, 0) != 0 || ids.At(0, 1) != 9 {
		t.Fatalf("ids row 0: %v", ids.Row(0))
	}
	if mask.At(0, 0) != 0 || mask.At(0, 1) != 1 || mask.At(1, 0) != 1 {
		t.Fatalf("mask: %v %v", mask.Row(0), mask.Row(1))
	}
}
