package flows

import (
	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

const (
	InterviewQuestionsName = "interview-questions"
	InterviewFeedbackName  = "interview-feedback"

	defaultQuestionCount = 5
)

type InterviewQuestionsInput struct {
	Profession string `json:"profession"`
	// ResumeText is optional.
	ResumeText string `json:"resumeText"`
	Count      int    `json:"count"`
}

func (in *InterviewQuestionsInput) ApplyDefaults() {
	if in.Count == 0 {
		in.Count = defaultQuestionCount
	}
}

type InterviewQuestion struct {
	Question   string `json:"question"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type InterviewQuestions struct {
	Questions []InterviewQuestion `json:"questions"`
}

func NewInterviewQuestions(c ai.Completer, opts ...flow.Option) (*flow.Flow[InterviewQuestionsInput, InterviewQuestions], error) {
	resume := resumeField()
	resume.Required = false
	resume.Placeholder = "Optionally paste your resume to tailor the questions..."

	def := define[InterviewQuestionsInput, InterviewQuestions](
		InterviewQuestionsName,
		"Mock Interview",
		"Practice with questions a hiring panel would ask for your role.",
		"You are a seasoned hiring manager who runs structured interviews.",
		[]flow.Field{
			professionField(),
			resume,
			{Name: "count", Label: "Number of questions", Kind: flow.FieldNumber, Default: "5"},
		},
	)

	return flow.New(def, c, opts...)
}

type InterviewFeedbackInput struct {
	Profession string `json:"profession"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

type InterviewFeedback struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	// SampleAnswer is Markdown.
	SampleAnswer string `json:"sampleAnswer"`
}

func NewInterviewFeedback(c ai.Completer, opts ...flow.Option) (*flow.Flow[InterviewFeedbackInput, InterviewFeedback], error) {
	def := define[InterviewFeedbackInput, InterviewFeedback](
		InterviewFeedbackName,
		"Mock Interview Feedback",
		"Feedback and a model answer for your interview response.",
		"You are a supportive but demanding interview coach.",
		[]flow.Field{
			professionField(),
			{Name: "question", Label: "Question", Kind: flow.FieldText, Required: true},
			{Name: "answer", Label: "Your answer", Kind: flow.FieldTextarea, Required: true},
		},
	)

	return flow.New(def, c, opts...)
}
