package flows

import (
	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

const SkillGapName = "skill-gap"

type SkillGapInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

type SkillGap struct {
	MatchingSkills  []string `json:"matchingSkills"`
	MissingSkills   []string `json:"missingSkills"`
	Recommendations []string `json:"recommendations"`
}

func NewSkillGap(c ai.Completer, opts ...flow.Option) (*flow.Flow[SkillGapInput, SkillGap], error) {
	def := define[SkillGapInput, SkillGap](
		SkillGapName,
		"Skill Gap",
		"Which skills a job asks for that your resume does not show yet.",
		"You are an experienced technical recruiter who maps candidate skills to job requirements.",
		[]flow.Field{resumeField(), jobDescriptionField(true)},
	)

	return flow.New(def, c, opts...)
}
