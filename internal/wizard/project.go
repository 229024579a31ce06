package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/trackr/internal/db"
	"github.com/randalmurphal/trackr/internal/roadmap"
	"github.com/randalmurphal/trackr/internal/task"
)

// State keys written by the project wizard.
const (
	KeyTitle       = "title"
	KeyDescription = "description"
	KeyPriority    = "priority"
	KeyRoadmap     = "roadmap_path"
	KeyConfirm     = "confirm"
)

// NewProjectWizard builds the interactive flow for creating a project.
// The roadmap step lists candidates plus "none" and is skipped when there
// are no candidates.
func NewProjectWizard(candidates []roadmap.Candidate) *Wizard {
	return New(ProjectSteps(candidates)...)
}

// ProjectSteps returns the steps of the project wizard.
func ProjectSteps(candidates []roadmap.Candidate) []Step {
	priorities := make([]SelectOption, 0, 3)
	for _, p := range task.ValidPriorities() {
		priorities = append(priorities, SelectOption{Value: string(p), Label: string(p)})
	}

	roadmaps := make([]SelectOption, 0, len(candidates)+1)
	for _, c := range candidates {
		roadmaps = append(roadmaps, SelectOption{
			Value:       c.Path,
			Label:       c.Path,
			Description: fmt.Sprintf("score %d", c.Score),
		})
	}
	roadmaps = append(roadmaps, SelectOption{Value: "", Label: "none", Description: "set a roadmap later"})

	return []Step{
		NewInputStep(KeyTitle, "Project title").
			WithPlaceholder("My project").
			WithValidation(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}),
		NewInputStep(KeyDescription, "Description").
			WithDescription("Optional; press enter to skip"),
		NewSelectStep(KeyPriority, "Priority", priorities).
			WithDefault(string(task.PriorityMedium)),
		NewSelectStep(KeyRoadmap, "Roadmap file", roadmaps).
			WithDescription("Best match first").
			WithSkipFunc(func(State) bool { return len(candidates) == 0 }),
		NewConfirmStep(KeyConfirm, "Create this project?").
			WithSummary(projectSummary),
	}
}

// ProjectFromState converts completed wizard state into a project. The
// second return is false when the user declined the confirmation.
func ProjectFromState(state State) (*db.Project, bool) {
	if !state.Bool(KeyConfirm) {
		return nil, false
	}
	p := &db.Project{
		Title:       state.String(KeyTitle),
		Description: state.String(KeyDescription),
		Priority:    task.Priority(state.String(KeyPriority)),
		RoadmapPath: state.String(KeyRoadmap),
	}
	return p, true
}

func projectSummary(state State) string {
	roadmapPath := state.String(KeyRoadmap)
	if roadmapPath == "" {
		roadmapPath = "none"
	}
	return fmt.Sprintf("Title:    %s\nPriority: %s\nRoadmap:  %s",
		state.String(KeyTitle), state.String(KeyPriority), roadmapPath)
}
