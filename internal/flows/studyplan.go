package flows

import (
	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

const StudyPlanName = "study-plan"

type StudyPlanInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	Days           int    `json:"days"`
}

type StudyPlan struct {
	// StudyPlan is Markdown.
	StudyPlan           string `json:"studyPlan"`
	SuggestedProfession string `json:"suggestedProfession"`
}

func NewStudyPlan(c ai.Completer, opts ...flow.Option) (*flow.Flow[StudyPlanInput, StudyPlan], error) {
	def := define[StudyPlanInput, StudyPlan](
		StudyPlanName,
		"Personalized Study Plan",
		"A day-by-day plan built from your resume and a target job description.",
		"You are an expert career coach and technical mentor.",
		[]flow.Field{
			resumeField(),
			jobDescriptionField(true),
			{
				Name:     "days",
				Label:    "Days to prepare",
				Kind:     flow.FieldNumber,
				Required: true,
				Default:  "7",
			},
		},
	)

	return flow.New(def, c, opts...)
}
