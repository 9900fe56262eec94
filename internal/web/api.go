package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/spigell/careercraft/internal/flow"
	"github.com/spigell/careercraft/internal/logger"
	"github.com/spigell/careercraft/internal/resume"

	"go.uber.org/zap"
)

const maxBodySize = resume.MaxSize + 1<<20

type apiError struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type apiField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Default  string   `json:"default,omitempty"`
}

type apiFlow struct {
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Fields      []apiField `json:"fields"`
}

func (s *Server) listFlows(w http.ResponseWriter, _ *http.Request) {
	infos := s.registry.List()
	out := make([]apiFlow, 0, len(infos))
	for _, info := range infos {
		f := apiFlow{Name: info.Name, Title: info.Title, Description: info.Description, Fields: []apiField{}}
		for _, field := range info.Fields {
			f.Fields = append(f.Fields, apiField{
				Name:     field.Name,
				Label:    field.Label,
				Kind:     string(field.Kind),
				Required: field.Required,
				Options:  field.Options,
				Default:  field.Default,
			})
		}
		out = append(out, f)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"flows": out})
}

func (s *Server) runFlow(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("flow")
	runner, ok := s.registry.Get(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, apiError{Kind: "not_found", Message: "unknown flow " + name})
		return
	}

	log := s.logger.With(logger.FlowFields(name, RequestID(r.Context()))...)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, apiError{Kind: string(flow.KindInvalidInput), Message: "request body is too large"})
			return
		}
		s.writeError(w, http.StatusBadRequest, apiError{Kind: string(flow.KindInvalidInput), Message: "could not read request body"})
		return
	}

	if !s.allow() {
		s.writeError(w, http.StatusTooManyRequests, apiError{Kind: "rate_limited", Message: "too many requests"})
		return
	}

	ctx, cancel := s.flowContext(r.Context())
	defer cancel()

	out, err := runner.RunJSON(ctx, body)
	if err != nil {
		log.Warn("api flow run failed", zap.Error(err))
		s.writeError(w, statusFor(err), errorBody(err))
		return
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func errorBody(err error) apiError {
	var fe *flow.Error
	if errors.As(err, &fe) {
		return apiError{Kind: string(fe.Kind), Message: fe.UserMessage(), Details: fe.Details}
	}
	return apiError{Kind: string(flow.KindServiceFailure), Message: userMessage(err)}
}

func (s *Server) writeError(w http.ResponseWriter, code int, e apiError) {
	s.writeJSON(w, code, map[string]apiError{"error": e})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("writing json response", zap.Error(err))
	}
}
