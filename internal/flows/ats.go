package flows

import (
	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

const ATSAnalysisName = "ats-analysis"

type ATSAnalysisInput struct {
	ResumeText string `json:"resumeText"`
	// JobDescription is optional.
	JobDescription string `json:"jobDescription"`
}

type ATSAnalysis struct {
	ATSScore         int      `json:"atsScore"`
	Summary          string   `json:"summary"`
	KeywordsFound    []string `json:"keywordsFound"`
	KeywordsMissing  []string `json:"keywordsMissing"`
	FormattingIssues []string `json:"formattingIssues"`
	Suggestions      []string `json:"suggestions"`
}

func NewATSAnalysis(c ai.Completer, opts ...flow.Option) (*flow.Flow[ATSAnalysisInput, ATSAnalysis], error) {
	def := define[ATSAnalysisInput, ATSAnalysis](
		ATSAnalysisName,
		"Resume Analyzer",
		"How an applicant tracking system is likely to read your resume.",
		"You are an applicant tracking system expert and professional resume writer.",
		[]flow.Field{resumeField(), jobDescriptionField(false)},
	)

	return flow.New(def, c, opts...)
}
