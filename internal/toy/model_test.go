package toy

import (
	"context"
	"strings"
	"testing"

	"kiln/internal/decode"
	"kiln/internal/model"
	"kiln/internal/tensor"
)

func singleStep(t *testing.T, m *LM, tok int32) []float32 {
	t.Helper()
	in := model.Inputs{
		InputIDs:      tensor.NewIntMatFromData(1, 1, []int32{tok}),
		AttentionMask: tensor.Ones(1, 1),
		PositionIDs:   tensor.NewIntMat(1, 1),
		Cache:         m.NewCache(1, 4),
	}
	out, err := m.Forward(context.Background(), in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	return out.Logits.Row(0, 0)
}

func TestSeededModelsAgree(t *testing.T) {
	a := New(16, 8, 42)
	b := New(16, 8, 42)
	la := singleStep(t, a, 5)
	lb := singleStep(t, b, 5)
	for i := range la {
		if la[i] != lb[i] {
			t.Fatalf("seeded models diverged at %d: %v vs %v", i, la[i], lb[i])
		}
	}
}

func TestCacheCapacityEnforced(t *testing.T) {
	m := New(8, 4, 1)
	cache := m.NewCache(1, 2)
	in := model.Inputs{
		InputIDs:      tensor.NewIntMatFromData(1, 3, []int32{1, 2, 3}),
		AttentionMask: tensor.Ones(1, 3),
		PositionIDs:   tensor.NewIntMatFromData(1, 3, []int32{0, 1, 2}),
		Cache:         cache,
	}
	_, err := m.Forward(context.Background(), in)
	if err == nil || !strings.Contains(err.Error(), "capacity") {
		t.Fatalf("expected capacity error, got %v", err)
	}
}

func TestTokenOutOfVocabulary(t *testing.T) {
	m := New(8, 4, 1)
	in := model.Inputs{
		InputIDs:      tensor.NewIntMatFromData(1, 1, []int32{99}),
		AttentionMask: tensor.Ones(1, 1),
		PositionIDs:   tensor.NewIntMat(1, 1),
		Cache:         m.NewCache(1, 4),
	}
	if _, err := m.Forward(context.Background(), in); err == nil {
		t.Fatalf("expected vocabulary error")
	}
}

// TestDecodeLoopRoundTrip drives a full greedy generation against the
// toy model twice and checks bit-identical output.
func TestDecodeLoopRoundTrip(t *testing.T) {
	cfg, err := decode.Resolve(decode.Options{
		MaxNewTokens:        6,
		PadTokenID:          0,
		EOSTokenID:          decode.Unset,
		BOSTokenID:          decode.Unset,
		DecoderStartTokenID: decode.Unset,
		ForcedBOSTokenID:    decode.Unset,
		ForcedEOSTokenID:    decode.Unset,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	run := func() []int32 {
		m := New(32, 16, 7)
		res, err := decode.New(m, cfg).Generate(context.Background(),
			tensor.NewIntMatFromData(1, 3, []int32{4, 9, 2}), nil)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		return res.Sequences.Row(0)
	}

	first := run()
	second := run()
	if len(first) != 9 {
		t.Fatalf("length: got %d, want 9", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("runs diverged: %v vs %v", first, second)
		}
	}
}
