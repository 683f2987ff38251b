// Package tokenizer provides a byte-level tokenizer: one token id per
// byte value plus pad/bos/eos specials. Real deployments swap in a
// proper subword tokenizer behind the same two calls; this one exists
// so the CLI and the API can round-trip text through the decode core
// without external model assets.
package tokenizer

import "strings"

const (
	// PadID through EOSID sit directly above the 256 byte tokens.
	PadID int32 = 256 + iota
	BOSID
	EOSID

	// VocabSize is the byte range plus the specials.
	VocabSize = 259
)

// Encode converts text to token ids, one per byte.
func Encode(s string) []int32 {
	ids := make([]int32, len(s))
	for i := 0; i < len(s); i++ {
		ids[i] = int32(s[i])
	}
	return ids
}

// Decode converts token ids back to text. Special tokens and
// out-of-range ids are dropped.
func Decode(ids []int32) string {
	var sb strings.Builder
	for _, id := range ids {
		if id < 0 || id > 255 {
			continue
		}
		sb.WriteByte(byte(id))
	}
	return sb.String()
}
