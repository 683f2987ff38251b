package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"kiln/internal/decode"
	"kiln/internal/inference"
)

type testEngine struct {
	resp *inference.Response
	err  error
	got  *inference.Request
}

func (e *testEngine) Generate(ctx context.Context, req *inference.Request) (*inference.Response, error) {
	e.got = req
	if e.err != nil {
		return nil, e.err
	}
	return e.resp, nil
}

func newTestEcho(engine Generator) *echo.Echo {
	e := echo.New()
	NewServer(engine, 0).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	t.Parallel()

	engine := &testEngine{
		resp: &inference.Response{
			Sequences:   [][]int32{{5, 6, 7}},
			Texts:       []string{"x"},
			Finished:    []bool{true},
			InputLength: 2,
			Length:      3,
		},
	}
	e := newTestEcho(engine)

	rec := doJSON(t, e, http.MethodPost, "/v1/generate",
		`{"input_ids":[[5,6]],"max_new_tokens":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "gen-") {
		t.Fatalf("expected request id, got %q", resp.ID)
	}
	if resp.Length != 3 || len(resp.Sequences) != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	if engine.got == nil || engine.got.Overrides.MaxNewTokens == nil || *engine.got.Overrides.MaxNewTokens != 1 {
		t.Fatalf("override not forwarded: %+v", engine.got)
	}
}

func TestGenerateValidation(t *testing.T) {
	t.Parallel()

	e := newTestEcho(&testEngine{})
	cases := []struct {
		name string
		body string
	}{
		{"empty", `{}`},
		{"both inputs", `{"prompt":"hi","input_ids":[[1]]}`},
		{"empty row", `{"input_ids":[[]]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/v1/generate", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGenerateConfigErrorMapsTo400(t *testing.T) {
	t.Parallel()

	e := newTestEcho(&testEngine{err: decode.ErrConfig})
	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"prompt":"hi"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	engine := &testEngine{resp: &inference.Response{}}
	e := echo.New()
	// 1 rps with burst 2: the third immediate request must be rejected.
	NewServer(engine, 1).Register(e)

	var last int
	for i := 0; i < 3; i++ {
		rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"prompt":"hi"}`)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on burst exhaustion, got %d", last)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestEcho(&testEngine{})
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
}
