package flows

import (
	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

const DashboardSummaryName = "dashboard-summary"

// MinDashboardResumeLength is the shortest resume the dashboard form accepts.
const MinDashboardResumeLength = 50

type DashboardSummaryInput struct {
	ResumeText string `json:"resumeText"`
	Profession string `json:"profession"`
}

type DashboardSummary struct {
	TargetRole            string   `json:"targetRole"`
	ReadinessScore        int      `json:"readinessScore"`
	SkillsCoverage        int      `json:"skillsCoverage"`
	StrongAreas           []string `json:"strongAreas"`
	WeakAreas             []string `json:"weakAreas"`
	InterviewsTaken       int      `json:"interviewsTaken"`
	AverageInterviewScore float64  `json:"averageInterviewScore"`
}

func NewDashboardSummary(c ai.Completer, opts ...flow.Option) (*flow.Flow[DashboardSummaryInput, DashboardSummary], error) {
	resume := resumeField()
	resume.MinLength = MinDashboardResumeLength

	def := define[DashboardSummaryInput, DashboardSummary](
		DashboardSummaryName,
		"Dashboard",
		"A snapshot of your readiness for a target role.",
		"You are an expert career analyst and dashboard generator for the CareerCraft platform.",
		[]flow.Field{resume, professionField()},
	)

	return flow.New(def, c, opts...)
}
