package skills

import (
	"context"
	"strings"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

// TasksSkill serves the task-template surface: how to add, list and complete
// tasks. Templates are static data; actual task storage is a collaborator
// concern outside the routing engine.
type TasksSkill struct{}

func NewTasksSkill() *TasksSkill {
	return &TasksSkill{}
}

func (s *TasksSkill) Process(_ context.Context, q domain.NormalizedQuery, _ *conversation.View) (domain.Response, error) {
	text := strings.Join([]string{
		"Here's how I can help with tasks:",
		"• \"Add task: <description>\" creates a task",
		"• \"Show tasks\" lists what's pending",
		"• \"Complete task <n>\" marks one done",
	}, "\n")

	if hasToken(q, "add") || phraseIn(q, "new task") {
		text = "To create a task, say \"Add task:\" followed by the description. You can add \"high priority\" or a due date."
	} else if hasToken(q, "show") || hasToken(q, "list") {
		text = "Your task list lives with your task provider. Ask for \"pending tasks\", \"completed tasks\" or a category like \"work\"."
	}

	return domain.Response{Text: text, Source: "tasks"}, nil
}

func phraseIn(q domain.NormalizedQuery, phrase string) bool {
	return strings.Contains(" "+q.Text+" ", " "+phrase+" ")
}
