package flows

import (
	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

const JobMatchName = "job-match"

type JobMatchInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

type JobMatch struct {
	MatchScore       int      `json:"matchScore"`
	StrongAreas      []string `json:"strongAreas"`
	ImprovementAreas []string `json:"improvementAreas"`
	// TargetedStudyPlan is Markdown.
	TargetedStudyPlan string `json:"targetedStudyPlan"`
}

func NewJobMatch(c ai.Completer, opts ...flow.Option) (*flow.Flow[JobMatchInput, JobMatch], error) {
	def := define[JobMatchInput, JobMatch](
		JobMatchName,
		"Job Matcher",
		"See how your resume stacks up against a specific job description.",
		"You are an expert career coach and technical recruiter.",
		[]flow.Field{resumeField(), jobDescriptionField(true)},
	)

	return flow.New(def, c, opts...)
}
