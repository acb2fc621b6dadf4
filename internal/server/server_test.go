package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ironsheep/telemetry-ocr/internal/extract"
	"github.com/ironsheep/telemetry-ocr/internal/ocr"
	"github.com/ironsheep/telemetry-ocr/internal/pipeline"
	"github.com/ironsheep/telemetry-ocr/internal/resilience"
)

// scriptedRecognizer returns fixed fragments or a fixed error.
type scriptedRecognizer struct {
	fragments []ocr.Fragment
	err       error
}

func (s *scriptedRecognizer) Name() string { return "scripted" }

func (s *scriptedRecognizer) Recognize(ctx context.Context, img image.Image) ([]ocr.Fragment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fragments, nil
}

func newTestServer(t *testing.T, rec ocr.Recognizer, opts ...pipeline.Option) *Server {
	t.Helper()
	m := extract.Mapping{}
	if err := m.Add("平均速度(rpm)", []string{"average_speed"}); err != nil {
		t.Fatal(err)
	}
	ex := extract.NewExtractor(extract.MaxFirst, extract.Normalizer{}, nil)
	proc := pipeline.New(rec, ex, m, opts...)
	return New(":0", proc, nil)
}

func frameBase64(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// doRequest runs one request against the server and decodes the envelope.
func doRequest(t *testing.T, s *Server, method, path, body string) (int, Envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rr.Body.String())
	}
	return rr.Code, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &scriptedRecognizer{})

	code, env := doRequest(t, s, http.MethodGet, "/health", "")
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	if env.Status != "success" || env.RequestID == "" {
		t.Errorf("envelope: %+v", env)
	}
	data := env.Data.(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("health status: got %v", data["status"])
	}
}

func TestExtract(t *testing.T) {
	rec := &scriptedRecognizer{fragments: []ocr.Fragment{
		{Text: "平均速度(rpm): 606.537", Confidence: 0.9, Index: 0},
	}}
	s := newTestServer(t, rec)

	body := `{"image": "` + frameBase64(t) + `"}`
	code, env := doRequest(t, s, http.MethodPost, "/extract", body)
	if code != http.StatusOK {
		t.Fatalf("status: got %d (%+v)", code, env)
	}
	data := env.Data.(map[string]any)
	fields := data["fields"].(map[string]any)
	if fields["average_speed"] != "606.537" {
		t.Errorf("average_speed: got %v", fields["average_speed"])
	}
	if data["engine"] != "scripted" {
		t.Errorf("engine: got %v", data["engine"])
	}
}

func TestExtract_BadRequests(t *testing.T) {
	s := newTestServer(t, &scriptedRecognizer{})

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"missing image", `{}`},
		{"invalid base64", `{"image": "!!!"}`},
		{"region outside frame", `{"image": "` + frameBase64(t) + `", "region": {"x": 900, "y": 900, "width": 5, "height": 5}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := doRequest(t, s, http.MethodPost, "/extract", tc.body)
			if code != http.StatusBadRequest {
				t.Errorf("status: got %d", code)
			}
			if env.Status != "error" || env.Error == "" {
				t.Errorf("envelope: %+v", env)
			}
		})
	}
}

func TestExtract_EngineFailure(t *testing.T) {
	rec := &scriptedRecognizer{err: &ocr.EngineError{Engine: "scripted", Err: errors.New("crashed")}}
	s := newTestServer(t, rec)

	body := `{"image": "` + frameBase64(t) + `"}`
	code, _ := doRequest(t, s, http.MethodPost, "/extract", body)
	if code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", code)
	}
}

func TestExtract_OpenBreaker(t *testing.T) {
	rec := &scriptedRecognizer{err: errors.New("down")}
	b := resilience.NewBreaker("ocr", resilience.WithBreakerThreshold(1))
	s := newTestServer(t, rec, pipeline.WithBreaker(b))

	body := `{"image": "` + frameBase64(t) + `"}`
	doRequest(t, s, http.MethodPost, "/extract", body) // trips the breaker

	code, env := doRequest(t, s, http.MethodPost, "/extract", body)
	if code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503 (%+v)", code, env)
	}
}

func TestMappings_GetAndPut(t *testing.T) {
	s := newTestServer(t, &scriptedRecognizer{})

	code, env := doRequest(t, s, http.MethodGet, "/config/mappings", "")
	if code != http.StatusOK {
		t.Fatalf("GET status: got %d", code)
	}
	fields := env.Data.(map[string]any)["fields"].([]any)
	if len(fields) != 1 {
		t.Fatalf("initial fields: got %d", len(fields))
	}

	put := `{
		"最高速度(rpm)": "max_speed",
		"最低速度(rpm)": ["min_speed", "lowest_speed"],
		"平均速度(rpm)": "average_speed"
	}`
	code, env = doRequest(t, s, http.MethodPut, "/config/mappings", put)
	if code != http.StatusOK {
		t.Fatalf("PUT status: got %d (%+v)", code, env)
	}

	_, env = doRequest(t, s, http.MethodGet, "/config/mappings", "")
	fields = env.Data.(map[string]any)["fields"].([]any)
	if len(fields) != 3 {
		t.Fatalf("fields after PUT: got %d", len(fields))
	}
	// Document order survives the round trip.
	first := fields[0].(map[string]any)
	if first["label"] != "最高速度(rpm)" {
		t.Errorf("first label: got %v", first["label"])
	}
	second := fields[1].(map[string]any)
	keys := second["keys"].([]any)
	if len(keys) != 2 || keys[1] != "lowest_speed" {
		t.Errorf("fan-out keys: got %v", keys)
	}
}

func TestMappings_PutRejectsInvalid(t *testing.T) {
	s := newTestServer(t, &scriptedRecognizer{})

	cases := []struct {
		name string
		body string
	}{
		{"not an object", `["a", "b"]`},
		{"empty object", `{}`},
		{"numeric value", `{"标签": 42}`},
		{"empty key list", `{"标签": []}`},
		{"duplicate label", `{"标签": "a", "标签": "b"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := doRequest(t, s, http.MethodPut, "/config/mappings", tc.body)
			if code != http.StatusBadRequest {
				t.Errorf("status: got %d (%+v)", code, env)
			}
		})
	}

	// A rejected update must not disturb the active mapping.
	_, env := doRequest(t, s, http.MethodGet, "/config/mappings", "")
	fields := env.Data.(map[string]any)["fields"].([]any)
	if len(fields) != 1 {
		t.Errorf("mapping changed by rejected update: %d fields", len(fields))
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t, &scriptedRecognizer{})

	code, env := doRequest(t, s, http.MethodGet, "/stats", "")
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	data := env.Data.(map[string]any)
	if _, ok := data["ocr"]; !ok {
		t.Errorf("stats missing ocr section: %v", data)
	}
	if _, ok := data["breaker"]; !ok {
		t.Errorf("stats missing breaker section: %v", data)
	}
}

func TestCacheClear(t *testing.T) {
	s := newTestServer(t, &scriptedRecognizer{})

	code, env := doRequest(t, s, http.MethodPost, "/cache/clear", "")
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	if env.Message != "cache cleared" {
		t.Errorf("message: got %q", env.Message)
	}
}
