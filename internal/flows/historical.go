package flows

import (
	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

const HistoricalQuestionsName = "historical-questions"

type HistoricalQuestionsInput struct {
	Technology string `json:"technology"`
}

type TopicQuestion struct {
	Question string `json:"question"`
	Topic    string `json:"topic"`
}

type HistoricalQuestions struct {
	Questions []TopicQuestion `json:"questions"`
}

func NewHistoricalQuestions(c ai.Completer, opts ...flow.Option) (*flow.Flow[HistoricalQuestionsInput, HistoricalQuestions], error) {
	def := define[HistoricalQuestionsInput, HistoricalQuestions](
		HistoricalQuestionsName,
		"Past Interview Questions",
		"The most frequently asked questions for any technology over the last decade.",
		"You are an expert technical historian and senior hiring manager for the tech industry.",
		[]flow.Field{technologyField()},
	)

	return flow.New(def, c, opts...)
}
