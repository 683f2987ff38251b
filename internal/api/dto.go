package api

import "kiln/internal/decode"

// GenerateRequest is the wire form of one generation call. Exactly one
// of prompt and input_ids must be present. Pointer fields distinguish
// "not sent" from zero.
type GenerateRequest struct {
	Prompt   string    `json:"prompt,omitempty"`
	InputIDs [][]int32 `json:"input_ids,omitempty"`

	MaxLength    *int `json:"max_length,omitempty"`
	MaxNewTokens *int `json:"max_new_tokens,omitempty"`
	MinLength    *int `json:"min_length,omitempty"`
	MinNewTokens *int `json:"min_new_tokens,omitempty"`

	EOSTokenID          *int32 `json:"eos_token_id,omitempty"`
	PadTokenID          *int32 `json:"pad_token_id,omitempty"`
	DecoderStartTokenID *int32 `json:"decoder_start_token_id,omitempty"`
	ForcedBOSTokenID    *int32 `json:"forced_bos_token_id,omitempty"`
	ForcedEOSTokenID    *int32 `json:"forced_eos_token_id,omitempty"`
}

// GenerateResponse mirrors inference.Response plus a request id.
type GenerateResponse struct {
	ID          string    `json:"id"`
	Sequences   [][]int32 `json:"sequences"`
	Texts       []string  `json:"texts"`
	Finished    []bool    `json:"finished"`
	InputLength int       `json:"input_length"`
	Length      int       `json:"length"`
	Stats       StatsDTO  `json:"stats"`
}

// StatsDTO is the wire form of decode.Stats.
type StatsDTO struct {
	TokensGenerated int     `json:"tokens_generated"`
	DurationMS      float64 `json:"duration_ms"`
	TPS             float64 `json:"tps"`
}

func statsDTO(s decode.Stats) StatsDTO {
	return StatsDTO{
		TokensGenerated: s.TokensGenerated,
		DurationMS:      float64(s.Duration.Microseconds()) / 1000.0,
		TPS:             s.TPS,
	}
}
