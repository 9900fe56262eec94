// Package flows holds the catalogue of career coaching flows: typed inputs and
// outputs, prompt templates and JSON schemas.
package flows

import (
	"embed"
	"fmt"

	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

//go:embed prompts/*.tmpl schemas/*.json
var assets embed.FS

// Professions are the target roles offered by the forms.
var Professions = []string{
	"Software Engineer",
	"Frontend Developer",
	"Backend Developer",
	"Full Stack Developer",
	"DevOps Engineer",
	"Data Scientist",
	"Data Engineer",
	"Machine Learning Engineer",
	"Cloud Architect",
	"Site Reliability Engineer",
	"QA Engineer",
	"Product Manager",
	"UI/UX Designer",
	"Cybersecurity Analyst",
	"Mobile Developer",
}

func asset(name string) string {
	data, err := assets.ReadFile(name)
	if err != nil {
		// assets are embedded at build time.
		panic(fmt.Sprintf("flows: missing asset %s: %v", name, err))
	}
	return string(data)
}

func define[In, Out any](name, title, description, system string, fields []flow.Field) flow.Definition[In, Out] {
	return flow.Definition[In, Out]{
		Name:         name,
		Title:        title,
		Description:  description,
		System:       system,
		Template:     asset("prompts/" + name + ".tmpl"),
		InputSchema:  asset("schemas/" + name + ".input.json"),
		OutputSchema: asset("schemas/" + name + ".output.json"),
		Fields:       fields,
	}
}

// Register builds every flow around completer and adds it to reg.
func Register(reg *flow.Registry, completer ai.Completer, opts ...flow.Option) error {
	builders := []func(ai.Completer, ...flow.Option) (flow.Runner, error){
		runner(NewDashboardSummary),
		runner(NewHistoricalQuestions),
		runner(NewRoadmap),
		runner(NewStudyPlan),
		runner(NewJobMatch),
		runner(NewSkillGap),
		runner(NewATSAnalysis),
		runner(NewInterviewQuestions),
		runner(NewInterviewFeedback),
		runner(NewTechQuestions),
	}

	for _, build := range builders {
		r, err := build(completer, opts...)
		if err != nil {
			return err
		}
		if err := reg.Register(r); err != nil {
			return err
		}
	}

	return nil
}

func runner[In, Out any](build func(ai.Completer, ...flow.Option) (*flow.Flow[In, Out], error)) func(ai.Completer, ...flow.Option) (flow.Runner, error) {
	return func(c ai.Completer, opts ...flow.Option) (flow.Runner, error) {
		f, err := build(c, opts...)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

func resumeField() flow.Field {
	return flow.Field{
		Name:        "resumeText",
		Label:       "Resume",
		Kind:        flow.FieldTextarea,
		Placeholder: "Paste the full text of your resume here...",
		Required:    true,
		Upload:      true,
	}
}

func jobDescriptionField(required bool) flow.Field {
	return flow.Field{
		Name:        "jobDescription",
		Label:       "Job description",
		Kind:        flow.FieldTextarea,
		Placeholder: "Paste the job description here...",
		Required:    required,
	}
}

func professionField() flow.Field {
	return flow.Field{
		Name:     "profession",
		Label:    "Target role",
		Kind:     flow.FieldSelect,
		Required: true,
		Options:  Professions,
		Default:  Professions[0],
	}
}

func technologyField() flow.Field {
	return flow.Field{
		Name:        "technology",
		Label:       "Technology",
		Kind:        flow.FieldText,
		Placeholder: "e.g., Terraform, React, SQL",
		Required:    true,
	}
}
