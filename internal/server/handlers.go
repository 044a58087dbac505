package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/example/intentspec/internal/generator"
	"github.com/example/intentspec/internal/render"
)

// WarningsHeader carries the number of extraction warnings.
const WarningsHeader = "X-Intentspec-Warnings"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type extractRequest struct {
	Source string `json:"source"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	source := string(body)
	if isJSON(r) {
		var req extractRequest
		if err := json.Unmarshal(body, &req); err != nil {
			jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
			return
		}
		source = req.Source
	}
	if strings.TrimSpace(source) == "" {
		jsonError(w, "source is required", http.StatusBadRequest)
		return
	}

	ex, err := s.gen.Generate(source)
	if err != nil {
		reason, ok := generator.ReasonOf(err)
		if !ok {
			s.log.Error("extraction failed", "error", err)
			jsonError(w, "extraction failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  err.Error(),
			"reason": string(reason),
		})
		return
	}

	out, err := render.Marshal(ex.Spec, format)
	if err != nil {
		s.log.Error("render failed", "format", format, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}

	for _, warn := range ex.Warnings {
		s.log.Debug(warn.Message, "line", warn.Line, "contract", ex.Spec.Contract.Name)
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set(WarningsHeader, strconv.Itoa(len(ex.Warnings)))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

type selectorRequest struct {
	Name   string `json:"name"`
	Params string `json:"params"`
}

type selectorResponse struct {
	Signature string `json:"signature"`
	Selector  string `json:"selector"`
}

func (s *Server) handleSelector(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req selectorRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, "name is required", http.StatusBadRequest)
		return
	}

	sig, err := generator.CanonicalSignature(req.Name, req.Params)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	sel, err := generator.ComputeSelector(req.Name, req.Params)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, selectorResponse{Signature: sig, Selector: sel.Hex()})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func isJSON(r *http.Request) bool {
	ct := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	return strings.HasPrefix(ct, "application/json")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
