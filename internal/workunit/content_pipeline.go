package workunit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ContentPipelineName is the unit registered by default when no unit is named
// on job creation.
const ContentPipelineName = "content_pipeline"

// Emitter receives phase progress events while a unit runs. The broadcast hub
// implements it.
type Emitter interface {
	Emit(agent, task, output string)
}

type noopEmitter struct{}

func (noopEmitter) Emit(string, string, string) {}

type phase struct {
	agent string
	task  string
}

var contentPhases = []phase{
	{agent: "Research Agent", task: "Researching"},
	{agent: "Writer Agent", task: "Writing"},
	{agent: "Editor Agent", task: "Editing"},
}

// NewContentPipeline returns the built-in three-phase content unit. It is a
// stand-in for the real content generation crew: it walks the research, write
// and edit phases, reports progress through the emitter, and produces a draft.
// The first pass for a topic returns needs_approval so a human can review the
// draft; a retry carrying feedback completes with the feedback folded in.
func NewContentPipeline(emitter Emitter) Func {
	if emitter == nil {
		emitter = noopEmitter{}
	}

	return func(ctx context.Context, input map[string]any) (Result, error) {
		topic, _ := input["topic"].(string)
		if topic == "" {
			return nil, NewError("InvalidInput", errors.New("input is missing the topic field"))
		}
		feedback, _ := input["feedback"].(string)

		zap.S().Named("content_pipeline").Infow("starting content creation", "topic", topic, "has_feedback", feedback != "")
		emitter.Emit("System", "Starting", fmt.Sprintf("Beginning content creation for topic: %s", topic))

		for _, p := range contentPhases {
			if err := ctx.Err(); err != nil {
				return nil, NewError("Canceled", err)
			}
			emitter.Emit(p.agent, p.task, fmt.Sprintf("Starting %s task", p.task))
			emitter.Emit(p.agent, "Completed", fmt.Sprintf("%s phase completed", p.task))
		}

		content := draftContent(topic, feedback)
		emitter.Emit("System", "Completed", "Content creation process finished successfully")

		result := Result{
			"content":   content,
			"length":    len(content),
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if feedback == "" {
			result["status"] = StatusNeedsApproval
		} else {
			result["status"] = StatusSuccess
			result["feedback_incorporated"] = true
		}
		return result, nil
	}
}

func draftContent(topic, feedback string) string {
	if feedback == "" {
		return fmt.Sprintf("Draft article on %q, pending review.", topic)
	}
	return fmt.Sprintf("Revised article on %q, incorporating feedback: %s", topic, feedback)
}
