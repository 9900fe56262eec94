package flows

import (
	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/flow"
)

const RoadmapName = "roadmap"

type RoadmapInput struct {
	Profession string `json:"profession"`
}

type Roadmap struct {
	// Roadmap is Markdown.
	Roadmap string `json:"roadmap"`
}

func NewRoadmap(c ai.Completer, opts ...flow.Option) (*flow.Flow[RoadmapInput, Roadmap], error) {
	def := define[RoadmapInput, Roadmap](
		RoadmapName,
		"Career Roadmaps",
		"A comprehensive learning roadmap for a profession, from beginner to pro.",
		"You are an expert career mentor and senior engineer who specializes in learning roadmaps for beginners.",
		[]flow.Field{professionField()},
	)

	return flow.New(def, c, opts...)
}
