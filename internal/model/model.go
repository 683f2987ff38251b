// Package model defines the contract between the decode loop and the
// forward-prediction collaborator. The loop drives a Model purely
// through this interface: it hands over fixed-shape input tensors and
// an opaque cache, and receives logits plus the replacement cache. It
// never looks inside either the model or the cache.
package model

import (
	"context"

	"kiln/internal/tensor"
)

// Cache is the model's key/value state threaded through successive
// forward calls. The decode loop treats it as a sealed value: it only
// ever replaces it with the cache returned by the latest call, and the
// model must accept any cache it previously returned.
type Cache any

// EncoderState is the encoder output of an encoder-decoder model,
// computed once before decoding starts and reused every step. Opaque
// for the same reason Cache is.
type EncoderState any

// Inputs carries one step's worth of model inputs. For a prefill step
// the matrices span the whole prompt; for every later step they are a
// single column.
type Inputs struct {
	InputIDs      *tensor.IntMat
	AttentionMask *tensor.IntMat
	PositionIDs   *tensor.IntMat
	Cache         Cache

	// Encoder-decoder models additionally receive the fixed encoder
	// output and the encoder-side attention mask; nil otherwise.
	EncoderState EncoderState
	EncoderMask  *tensor.IntMat
}

// Output is the result of one forward call.
type Output struct {
	// Logits has shape [batch, seq, vocab]; only the last position
	// carries next-token scores.
	Logits *tensor.Mat3
	Cache  Cache
}

// Model is a decoder-only sequence model.
type Model interface {
	// Forward runs one prediction step. It must accept the cache value
	// it returned from the previous call.
	Forward(ctx context.Context, in Inputs) (Output, error)

	// NewCache allocates key/value state sized for a batch decoding up
	// to maxLen positions. The capacity is fixed for the whole call;
	// the loop never resizes it.
	NewCache(batch, maxLen int) Cache

	// VocabSize reports the width of the logits dimension.
	VocabSize() int
}

// EncoderDecoder is a sequence-to-sequence model. The encoder runs once
// up front; decoding then starts from a single start token.
type EncoderDecoder interface {
	Model

	// Encode runs the encoder over the prompt and returns its hidden
	// state for reuse on every decoder step.
	Encode(ctx context.Context, inputIDs, mask *tensor.IntMat) (EncoderState, error)

	// StartTokenID is the token the decoder stream begins with.
	StartTokenID() int32
}
