// Package toy provides a minimal deterministic language model for
// testing and benchmarking the decode loop. It consists of an embedding
// matrix and a projection back to vocabulary logits, seeded so that two
// models built alike predict alike. It is deliberately simplistic and
// has no notion of attention; the point is exercising the loop's
// contract, including fixed-capacity cache threading.
package toy

import (
	"context"
	"fmt"

	"kiln/internal/model"
	"kiln/internal/tensor"
)

// LM is a toy decoder-only model.
type LM struct {
	vocab  int
	hidden int
	emb    *tensor.Mat // [vocab x hidden]
	w      *tensor.Mat // [hidden x vocab]
}

// New constructs a model with the given vocabulary and hidden size,
// deterministically initialised from seed.
func New(vocab, hidden int, seed int64) *LM {
	m := &LM{
		vocab:  vocab,
		hidden: hidden,
		emb:    tensor.NewMat(vocab, hidden),
		w:      tensor.NewMat(hidden, vocab),
	}
	tensor.FillRand(m.emb, seed+11)
	tensor.FillRand(m.w, seed+23)
	return m
}

// kvCache stands in for real key/value state: a fixed capacity and a
// count of consumed positions. The decode loop must thread it through
// without looking inside.
type kvCache struct {
	capacity  int
	positions int
}

// NewCache allocates state for decoding up to maxLen positions.
func (m *LM) NewCache(batch, maxLen int) model.Cache {
	return &kvCache{capacity: maxLen}
}

// VocabSize reports the logits width.
func (m *LM) VocabSize() int { return m.vocab }

// Forward computes logits for every input position. Each position's
// hidden state is its token embedding scaled by a position-dependent
// factor, projected back to the vocabulary, so predictions vary along
// the sequence but stay bit-reproducible.
func (m *LM) Forward(ctx context.Context, in model.Inputs) (model.Output, error) {
	c, ok := in.Cache.(*kvCache)
	if !ok {
		return model.Output{}, fmt.Errorf("toy: unexpected cache type %T", in.Cache)
	}

	batch := in.InputIDs.R
	seqLen := in.InputIDs.C
	if c.positions+seqLen > c.capacity {
		return model.Output{}, fmt.Errorf("toy: cache capacity %d exceeded at position %d", c.capacity, c.positions+seqLen)
	}

	h := make([]float32, m.hidden)
	out := tensor.NewMat3(batch, seqLen, m.vocab)
	for i := 0; i < batch; i++ {
		for j := 0; j < seqLen; j++ {
			tok := int(in.InputIDs.At(i, j))
			if tok < 0 || tok >= m.vocab {
				return model.Output{}, fmt.Errorf("toy: token %d outside vocabulary %d", tok, m.vocab)
			}
			scale := 1 + 0.01*float32(in.PositionIDs.At(i, j))
			embRow := m.emb.Row(tok)
			for k := range h {
				h[k] = embRow[k] * scale
			}
			logits := out.Row(i, j)
			for v := 0; v < m.vocab; v++ {
				var sum float32
				for k := 0; k < m.hidden; k++ {
					sum += h[k] * m.w.At(k, v)
				}
				logits[v] = sum
			}
		}
	}

	return model.Output{
		Logits: out,
		Cache:  &kvCache{capacity: c.capacity, positions: c.positions + seqLen},
	}, nil
}
