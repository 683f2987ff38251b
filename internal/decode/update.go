package decode

import (
	"kiln/internal/model"
	"kiln/internal/tensor"
)

// updateInputs produces the next step's inputs from the previous step's
// inputs, the forward output and the freshly chosen tokens: a single
// new token column, an all-ones mask for that position, position ids
// advanced by one from the last position, and the cache returned by the
// forward pass. Encoder-side fields pass through untouched.
func updateInputs(prev model.Inputs, out model.Output, next []int32) model.Inputs {
	batch := len(next)

	ids := tensor.NewIntMat(batch, 1)
	copy(ids.Data, next)

	pos := tensor.NewIntMat(batch, 1)
	lastCol := prev.PositionIDs.C - 1
	for i := 0; i < batch; i++ {
		pos.Set(i, 0, prev.PositionIDs.At(i, lastCol)+1)
	}

	return model.Inputs{
		InputIDs:      ids,
		AttentionMask: tensor.Ones(batch, 1),
		PositionIDs:   pos,
		Cache:         out.Cache,
		EncoderState:  prev.EncoderState,
		EncoderMask:   prev.EncoderMask,
	}
}
