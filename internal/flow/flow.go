package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/logger"

	"go.uber.org/zap"
)

const responseContract = `

Respond with a single JSON object and nothing else. It must conform to this JSON Schema:
` + "```json\n%s\n```\n"

// Definition describes one structured-prompt operation.
type Definition[In, Out any] struct {
	Name        string
	Title       string
	Description string
	// System is sent as the system instruction.
	System string
	// Template is a text/template rendered with the input value.
	Template     string
	InputSchema  string
	OutputSchema string
	// Fields describes the HTML form collecting In.
	Fields []Field
}

// Defaulter is implemented by inputs that fill optional fields before
// validation.
type Defaulter interface {
	ApplyDefaults()
}

// Observer receives one call per finished Run. outcome is "success" or the
// failure Kind.
type Observer interface {
	ObserveFlow(flow, outcome string, elapsed time.Duration)
}

type Option func(*options)

type options struct {
	observer Observer
	logger   *zap.Logger
}

func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(opts *options) { opts.logger = l }
}

// Flow validates input, composes a prompt, calls the completer once and
// coerces the answer into Out.
type Flow[In, Out any] struct {
	info      Info
	system    string
	tmpl      *template.Template
	input     *Schema
	output    *Schema
	completer ai.Completer
	observer  Observer
	logger    *zap.Logger
}

// New compiles def. The completer is shared and must be safe for concurrent use.
func New[In, Out any](def Definition[In, Out], completer ai.Completer, opts ...Option) (*Flow[In, Out], error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, errors.New("flow name is required")
	}
	if completer == nil {
		return nil, fmt.Errorf("flow %s: completer is required", def.Name)
	}

	tmpl, err := template.New(def.Name).Option("missingkey=error").Parse(def.Template)
	if err != nil {
		return nil, fmt.Errorf("flow %s: parse template: %w", def.Name, err)
	}

	input, err := CompileSchema(def.Name+" input", def.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", def.Name, err)
	}

	output, err := CompileSchema(def.Name+" output", def.OutputSchema)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", def.Name, err)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return &Flow[In, Out]{
		info: Info{
			Name:        def.Name,
			Title:       def.Title,
			Description: def.Description,
			Fields:      def.Fields,
		},
		system:    def.System,
		tmpl:      tmpl,
		input:     input,
		output:    output,
		completer: completer,
		observer:  o.observer,
		logger:    logger.WithFields(o.logger, zap.String(logger.FieldFlow, def.Name)),
	}, nil
}

func (f *Flow[In, Out]) Info() Info { return f.info }

// Validate applies defaults to in and checks it against the input schema.
func (f *Flow[In, Out]) Validate(in *In) error {
	if in == nil {
		return invalidInput(f.info.Name, []string{"(root): input is required"}, nil)
	}

	if d, ok := any(in).(Defaulter); ok {
		d.ApplyDefaults()
	}

	details, err := f.input.Validate(in)
	if err != nil {
		return invalidInput(f.info.Name, nil, err)
	}
	if len(details) > 0 {
		return invalidInput(f.info.Name, details, nil)
	}

	return nil
}

// Prompt renders the prompt for an already validated input.
func (f *Flow[In, Out]) Prompt(in In) (string, error) {
	var b strings.Builder
	if err := f.tmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	fmt.Fprintf(&b, responseContract, f.output.String())
	return b.String(), nil
}

// Run executes the flow. Every failure is a *Error.
func (f *Flow[In, Out]) Run(ctx context.Context, in In) (*Out, error) {
	started := time.Now()

	out, err := f.run(ctx, &in)

	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		f.logger.Warn("flow failed",
			zap.String("kind", outcome),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
	} else {
		f.logger.Info("flow completed", zap.Duration("elapsed", time.Since(started)))
	}

	if f.observer != nil {
		f.observer.ObserveFlow(f.info.Name, outcome, time.Since(started))
	}

	return out, err
}

func (f *Flow[In, Out]) run(ctx context.Context, in *In) (*Out, error) {
	if err := f.Validate(in); err != nil {
		return nil, err
	}

	prompt, err := f.Prompt(*in)
	if err != nil {
		return nil, invalidInput(f.info.Name, nil, err)
	}

	raw, err := f.completer.Complete(ctx, ai.Request{
		Flow:   f.info.Name,
		System: f.system,
		Prompt: prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, serviceFailure(f.info.Name, err)
	}

	return f.coerce(raw)
}

func (f *Flow[In, Out]) coerce(raw string) (*Out, error) {
	data, err := parseObject(raw)
	if err != nil {
		return nil, schemaViolation(f.info.Name, nil, err)
	}

	details, err := f.output.Validate(data)
	if err != nil {
		return nil, schemaViolation(f.info.Name, nil, err)
	}
	if len(details) > 0 {
		return nil, schemaViolation(f.info.Name, details, nil)
	}

	var out Out
	if err := decode(data, &out, false); err != nil {
		return nil, schemaViolation(f.info.Name, nil, err)
	}

	return &out, nil
}

// DecodeInput builds In from loosely typed values such as HTML form fields.
func (f *Flow[In, Out]) DecodeInput(values map[string]any) (*In, error) {
	var in In
	if err := decode(values, &in, true); err != nil {
		return nil, invalidInput(f.info.Name, nil, err)
	}
	return &in, nil
}

// RunValues implements Runner.
func (f *Flow[In, Out]) RunValues(ctx context.Context, values map[string]any) (any, error) {
	in, err := f.DecodeInput(values)
	if err != nil {
		return nil, err
	}
	return f.result(f.Run(ctx, *in))
}

// ValidateValues implements Runner.
func (f *Flow[In, Out]) ValidateValues(values map[string]any) error {
	in, err := f.DecodeInput(values)
	if err != nil {
		return err
	}
	return f.Validate(in)
}

// RunJSON implements Runner.
func (f *Flow[In, Out]) RunJSON(ctx context.Context, data []byte) (any, error) {
	var in In
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, invalidInput(f.info.Name, nil, fmt.Errorf("decode request body: %w", err))
	}
	return f.result(f.Run(ctx, in))
}

func (f *Flow[In, Out]) result(out *Out, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return out, nil
}
