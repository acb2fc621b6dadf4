package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ironsheep/telemetry-ocr/internal/extract"
	"github.com/ironsheep/telemetry-ocr/internal/imaging"
	"github.com/ironsheep/telemetry-ocr/internal/ocr"
	"github.com/ironsheep/telemetry-ocr/internal/resilience"
)

// extractRequest is the POST /extract body.
type extractRequest struct {
	Image  string          `json:"image"` // base64-encoded frame
	Region *imaging.Region `json:"region,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.proc.Health()
	status := "healthy"
	if !h.Healthy {
		status = "degraded"
	}
	s.writeSuccess(w, http.StatusOK, map[string]any{
		"status": status,
		"issues": h.Issues,
	}, "")
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Image == "" {
		s.writeError(w, http.StatusBadRequest, "missing image data")
		return
	}

	img, err := imaging.DecodeBase64(req.Image)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	region := imaging.Region{}
	if req.Region != nil {
		region = *req.Region
	}

	result, err := s.proc.Process(r.Context(), img, region)
	if err != nil {
		code, msg := classifyProcessError(err)
		s.writeError(w, code, msg)
		return
	}
	s.writeSuccess(w, http.StatusOK, result, "")
}

// classifyProcessError maps pipeline failures to HTTP status codes.
func classifyProcessError(err error) (int, string) {
	var open *resilience.CircuitOpenError
	if errors.As(err, &open) {
		return http.StatusServiceUnavailable, "recognition temporarily unavailable: " + err.Error()
	}
	var timeout *resilience.TimeoutError
	if errors.As(err, &timeout) {
		return http.StatusGatewayTimeout, err.Error()
	}
	var engine *ocr.EngineError
	if errors.As(err, &engine) {
		return http.StatusBadGateway, err.Error()
	}
	// Remaining failures are request-shaped: bad region, undecodable frame.
	return http.StatusBadRequest, err.Error()
}

func (s *Server) handleGetMappings(w http.ResponseWriter, r *http.Request) {
	m := s.proc.Mapping()
	s.writeSuccess(w, http.StatusOK, map[string]any{"fields": m.Fields}, "")
}

func (s *Server) handlePutMappings(w http.ResponseWriter, r *http.Request) {
	m, err := parseMappingBody(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.proc.SetMapping(*m)
	s.log.Info("field mappings replaced", "fields", len(m.Fields))
	s.writeSuccess(w, http.StatusOK, map[string]any{"fields": m.Fields}, "field mappings updated")
}

// parseMappingBody reads a JSON object of label -> key (or key list)
// entries, preserving the document's label order. Standard unmarshaling
// into a map would lose the order, and resolution between competing
// labels follows it, so entries are walked token by token instead.
func parseMappingBody(body io.Reader) (*extract.Mapping, error) {
	dec := json.NewDecoder(body)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid mapping body: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("mapping body must be a JSON object")
	}

	m := &extract.Mapping{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid mapping body: %w", err)
		}
		label, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid mapping label %v", keyTok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid value for label %q: %w", label, err)
		}
		keys, err := extract.KeysFromValue(raw)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}
		if err := m.Add(label, keys); err != nil {
			return nil, err
		}
	}
	if len(m.Fields) == 0 {
		return nil, fmt.Errorf("mapping body contains no fields")
	}
	return m, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeSuccess(w, http.StatusOK, s.proc.Stats(), "")
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.proc.ClearCache(); err != nil {
		s.writeError(w, http.StatusInternalServerError, "cache clear failed: "+err.Error())
		return
	}
	s.writeSuccess(w, http.StatusOK, nil, "cache cleared")
}
