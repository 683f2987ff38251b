// Package logits rewrites per-step logits before greedy selection.
// Processors are pure with respect to everything except the logits
// matrix they are handed: each one reads the generation context and
// adjusts scores in place, and a pipeline folds them left to right.
package logits

import (
	"math"

	"kiln/internal/tensor"
)

var negInf = float32(math.Inf(-1))

// Context is the read-only view of the generation state a processor
// sees at one step. Length is the number of filled columns in
// Sequences; InputLength is the prompt length.
type Context struct {
	Sequences   *tensor.IntMat
	Length      int
	InputLength int
}

// Processor adjusts a [batch, vocab] logits matrix in place.
type Processor func(logits *tensor.Mat, ctx Context)

// Pipeline composes processors in application order.
type Pipeline []Processor

// Apply runs every processor over the same logits matrix, left to
// right.
func (p Pipeline) Apply(logits *tensor.Mat, ctx Context) {
	for _, proc := range p {
		proc(logits, ctx)
	}
}

// MinLength suppresses the end-of-sequence column while the sequence is
// shorter than the resolved minimum length. minLen maps prompt length
// to minimum total length.
func MinLength(minLen func(inputLength int) int, eosID int32) Processor {
	return func(logits *tensor.Mat, ctx Context) {
		if ctx.Length >= minLen(ctx.InputLength) {
			return
		}
		for i := 0; i < logits.R; i++ {
			logits.Row(i)[eosID] = negInf
		}
	}
}

// ForcedBOS forces the first generated token, the step immediately
// after the single start token.
func ForcedBOS(id int32) Processor {
	return func(logits *tensor.Mat, ctx Context) {
		if ctx.Length != 1 {
			return
		}
		force(logits, id)
	}
}

// ForcedEOS forces the end-of-sequence token on the last step before
// the buffer fills.
func ForcedEOS(id int32, maxLength int) Processor {
	return func(logits *tensor.Mat, ctx Context) {
		if ctx.Length != maxLength-1 {
			return
		}
		force(logits, id)
	}
}

// force guarantees selection of column id: every other score becomes
// -inf and the target becomes zero. Columns are overwritten, never
// removed, so the logits shape stays fixed.
func force(logits *tensor.Mat, id int32) {
	for i := 0; i < logits.R; i++ {
		row := logits.Row(i)
		for j := range row {
			row[j] = negInf
		}
		row[id] = 0
	}
}

// Argmax returns the index of the maximum value in the slice, lowest
// index winning ties. If the slice is empty it panics.
func Argmax(x []float32) int32 {
	if len(x) == 0 {
		panic("argmax: empty slice")
	}
	bestI := 0
	bestV := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > bestV {
			bestV = x[i]
			bestI = i
		}
	}
	return int32(bestI)
}
