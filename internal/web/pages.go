package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/careercraft/internal/flow"
	"github.com/spigell/careercraft/internal/logger"
	"github.com/spigell/careercraft/internal/resume"

	"go.uber.org/zap"
)

const (
	formMemory   = resume.MaxSize + 1<<20
	sniffLen     = 512
	uploadSuffix = "File"
)

// formError is shown to the user as is.
type formError string

func (e formError) Error() string { return string(e) }

type pageData struct {
	Title  string
	Flows  []flow.Info
	Flow   flow.Info
	Values map[string]string
	State  State
	Notice string
	Result []resultField
}

func (s *Server) index(_ *http.Request) *ComponentResponse {
	return &ComponentResponse{
		Component: page("index", pageData{Title: "Home", Flows: s.registry.List()}),
	}
}

func (s *Server) notFound() *ComponentResponse {
	return &ComponentResponse{
		Code:      http.StatusNotFound,
		Component: page("notfound", pageData{Title: "Not found", Flows: s.registry.List()}),
	}
}

func (s *Server) form(r *http.Request) *ComponentResponse {
	runner, ok := s.registry.Get(r.PathValue("flow"))
	if !ok {
		return s.notFound()
	}
	info := runner.Info()

	values := make(map[string]string, len(info.Fields))
	for _, f := range info.Fields {
		values[f.Name] = f.Default
	}

	return &ComponentResponse{Component: page("flow", s.flowPage(info, values, StateIdle))}
}

func (s *Server) submit(r *http.Request) *ComponentResponse {
	runner, ok := s.registry.Get(r.PathValue("flow"))
	if !ok {
		return s.notFound()
	}
	info := runner.Info()
	log := s.logger.With(logger.FlowFields(info.Name, RequestID(r.Context()))...)

	sub := NewSubmission()
	values, err := readForm(r, info)
	if err != nil {
		return s.notice(info, values, sub, http.StatusBadRequest, err.Error())
	}

	if msg := precondition(info, values); msg != "" {
		return s.notice(info, values, sub, http.StatusBadRequest, msg)
	}

	if err := sub.Begin(); err != nil {
		return s.notice(info, values, sub, http.StatusConflict, err.Error())
	}

	input := formInput(info, values)
	if err := runner.ValidateValues(input); err != nil {
		_ = sub.Fail()
		return s.notice(info, values, sub, statusFor(err), userMessage(err))
	}

	if !s.allow() {
		_ = sub.Fail()
		return s.notice(info, values, sub, http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.")
	}

	ctx, cancel := s.flowContext(r.Context())
	defer cancel()

	out, err := runner.RunValues(ctx, input)
	if err != nil {
		_ = sub.Fail()
		log.Warn("flow submission failed", zap.Error(err))
		return s.notice(info, values, sub, statusFor(err), userMessage(err))
	}

	view, err := resultView(out)
	if err != nil {
		_ = sub.Fail()
		log.Error("rendering flow result", zap.Error(err))
		return s.notice(info, values, sub, http.StatusInternalServerError, "The result could not be displayed.")
	}

	_ = sub.Succeed()
	data := s.flowPage(info, values, sub.State())
	data.Result = view

	return &ComponentResponse{Component: page("flow", data)}
}

func (s *Server) notice(info flow.Info, values map[string]string, sub *Submission, code int, msg string) *ComponentResponse {
	data := s.flowPage(info, values, sub.State())
	data.Notice = msg
	return &ComponentResponse{Code: code, Component: page("flow", data)}
}

func (s *Server) flowPage(info flow.Info, values map[string]string, state State) pageData {
	if values == nil {
		values = map[string]string{}
	}
	return pageData{
		Title:  info.Title,
		Flows:  s.registry.List(),
		Flow:   info,
		Values: values,
		State:  state,
	}
}

func (s *Server) allow() bool {
	if s.limiter.Allow() {
		return true
	}
	if s.metrics != nil {
		s.metrics.RateLimited.Inc()
	}
	return false
}

// readForm collects the submitted field values. An uploaded resume file
// replaces the pasted text of its field.
func readForm(r *http.Request, info flow.Info) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, formMemory)
	if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, formError("The form could not be read. Uploads are limited to 5 MiB.")
	}

	values := make(map[string]string, len(info.Fields))
	for _, f := range info.Fields {
		values[f.Name] = r.FormValue(f.Name)
		if !f.Upload {
			continue
		}

		text, err := readUpload(r, f.Name+uploadSuffix)
		if err != nil {
			return values, err
		}
		if text != "" {
			values[f.Name] = text
		}
	}

	return values, nil
}

func readUpload(r *http.Request, name string) (string, error) {
	file, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", formError("Could not read the uploaded file.")
	}
	defer file.Close()

	if header.Size == 0 {
		return "", nil
	}

	data, err := io.ReadAll(io.LimitReader(file, resume.MaxSize+1))
	if err != nil {
		return "", formError("Could not read the uploaded file.")
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	text, err := resume.ExtractText(resume.DetectMIME(header.Filename, head), data)
	if err != nil {
		return "", formError(fmt.Sprintf("Could not extract text from %s: %v.", header.Filename, err))
	}

	return text, nil
}

// precondition checks the form before the flow is consulted and returns the
// notification text of the first failure.
func precondition(info flow.Info, values map[string]string) string {
	for _, f := range info.Fields {
		v := strings.TrimSpace(values[f.Name])
		name := strings.ToLower(f.Label)

		switch {
		case f.Required && v == "" && f.Kind == flow.FieldSelect:
			return fmt.Sprintf("Please select a %s.", name)
		case f.Required && v == "":
			return fmt.Sprintf("Please provide a %s.", name)
		case f.MinLength > 0 && utf8.RuneCountInString(v) < f.MinLength:
			return fmt.Sprintf("Please provide a %s with at least %d characters.", name, f.MinLength)
		case f.Kind == flow.FieldNumber && v != "":
			if n, err := strconv.Atoi(v); err != nil || n <= 0 {
				return fmt.Sprintf("%s must be a positive number.", f.Label)
			}
		}
	}
	return ""
}

// formInput drops blank optional values so flow defaults apply.
func formInput(info flow.Info, values map[string]string) map[string]any {
	input := make(map[string]any, len(values))
	for _, f := range info.Fields {
		v := values[f.Name]
		if strings.TrimSpace(v) == "" && (!f.Required || f.Kind == flow.FieldNumber) {
			continue
		}
		if f.Kind == flow.FieldNumber {
			v = strings.TrimSpace(v)
		}
		input[f.Name] = v
	}
	return input
}

func userMessage(err error) string {
	var fe *flow.Error
	if errors.As(err, &fe) {
		return fe.UserMessage()
	}
	return "An error occurred during analysis. Please try again."
}
