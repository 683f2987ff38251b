package genconfig

import (
	"os"
	"path/filepath"
	"testing"

	"kiln/internal/decode"
)

func writeModelDir(t *testing.T, config, generation string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(config), 0o644); err != nil {
		t.Fatalf("write config.json: %v", err)
	}
	if generation != "" {
		if err := os.WriteFile(filepath.Join(dir, "generation_config.json"), []byte(generation), 0o644); err != nil {
			t.Fatalf("write generation_config.json: %v", err)
		}
	}
	return dir
}

func TestLoadConfigOnly(t *testing.T) {
	dir := writeModelDir(t, `{
		"model_type": "gpt2",
		"vocab_size": 50257,
		"eos_token_id": 50256,
		"bos_token_id": 50256,
		"max_length": 1024
	}`, "")

	mc, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mc.ModelType != "gpt2" || mc.IsEncoderDecoder {
		t.Fatalf("model identity: %+v", mc)
	}
	if mc.Defaults.EOSTokenID != 50256 || mc.Defaults.BOSTokenID != 50256 {
		t.Fatalf("token ids: %+v", mc.Defaults)
	}
	if mc.Defaults.MaxLength != 1024 {
		t.Fatalf("max length: %d", mc.Defaults.MaxLength)
	}
	// pad_token_id absent stays unset; decode.Resolve handles fallback.
	if mc.Defaults.PadTokenID != decode.Unset {
		t.Fatalf("pad should be unset, got %d", mc.Defaults.PadTokenID)
	}
}

func TestGenerationConfigOverrides(t *testing.T) {
	dir := writeModelDir(t, `{
		"model_type": "bart",
		"is_encoder_decoder": true,
		"eos_token_id": 2,
		"pad_token_id": 1,
		"decoder_start_token_id": 2,
		"forced_bos_token_id": 0,
		"forced_eos_token_id": 2,
		"max_length": 20
	}`, `{
		"max_new_tokens": 64,
		"min_length": 8,
		"eos_token_id": [2, 4]
	}`)

	mc, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !mc.IsEncoderDecoder {
		t.Fatalf("is_encoder_decoder lost")
	}
	d := mc.Defaults
	// max_new_tokens supersedes the model-level max_length.
	if d.MaxNewTokens != 64 || d.MaxLength != 0 {
		t.Fatalf("length rule: %+v", d)
	}
	if d.MinLength != 8 {
		t.Fatalf("min length: %d", d.MinLength)
	}
	// List-valued eos takes the first entry.
	if d.EOSTokenID != 2 {
		t.Fatalf("eos: %d", d.EOSTokenID)
	}
	if d.ForcedBOSTokenID != 0 || d.ForcedEOSTokenID != 2 {
		t.Fatalf("forced ids: %+v", d)
	}
	if d.DecoderStartTokenID != 2 {
		t.Fatalf("decoder start: %d", d.DecoderStartTokenID)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing config.json")
	}
}

func TestApplyOverrides(t *testing.T) {
	base := decode.NewOptions()
	base.MaxLength = 100
	base.EOSTokenID = 2
	base.PadTokenID = 1

	newTokens := 16
	eos := int32(9)
	got := Apply(base, Overrides{MaxNewTokens: &newTokens, EOSTokenID: &eos})

	// Switching length rule clears the other side of the pair.
	if got.MaxNewTokens != 16 || got.MaxLength != 0 {
		t.Fatalf("length rule: %+v", got)
	}
	if got.EOSTokenID != 9 {
		t.Fatalf("eos override: %d", got.EOSTokenID)
	}
	if got.PadTokenID != 1 {
		t.Fatalf("untouched field changed: %d", got.PadTokenID)
	}
	// Resolved result must validate.
	if _, err := decode.Resolve(got); err != nil {
		t.Fatalf("Resolve after Apply: %v", err)
	}
}
