package flows

import (
	"strings"

	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

var techLevels = []string{"beginner", "intermediate", "advanced"}

const TechQuestionsName = "tech-questions"

type TechQuestionsInput struct {
	Technology string `json:"technology"`
	Level      string `json:"level"`
}

func (in *TechQuestionsInput) ApplyDefaults() {
	in.Level = strings.ToLower(strings.TrimSpace(in.Level))
	if in.Level == "" {
		in.Level = "intermediate"
	}
}

type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type TechQuestions struct {
	Theoretical []QuestionAnswer `json:"theoretical"`
	Practical   []QuestionAnswer `json:"practical"`
}

func NewTechQuestions(c ai.Completer, opts ...flow.Option) (*flow.Flow[TechQuestionsInput, TechQuestions], error) {
	def := define[TechQuestionsInput, TechQuestions](
		TechQuestionsName,
		"Technical Questions",
		"Theoretical and practical questions for a technology to test your knowledge.",
		"You are a principal engineer who writes technical interview loops.",
		[]flow.Field{
			technologyField(),
			{Name: "level", Label: "Level", Kind: flow.FieldSelect, Options: techLevels, Default: "intermediate"},
		},
	)

	return flow.New(def, c, opts...)
}
