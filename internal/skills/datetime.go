package skills

import (
	"context"
	"fmt"
	"time"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

// DateTimeSkill answers time, date and day questions from the wall clock.
type DateTimeSkill struct {
	now func() time.Time
}

func NewDateTimeSkill() *DateTimeSkill {
	return &DateTimeSkill{now: time.Now}
}

func (s *DateTimeSkill) Process(_ context.Context, q domain.NormalizedQuery, _ *conversation.View) (domain.Response, error) {
	now := s.now()

	var text string
	switch {
	case hasToken(q, "time"):
		text = fmt.Sprintf("It's %s.", now.Format("3:04 PM"))
	case hasToken(q, "day") || hasToken(q, "tomorrow"):
		if hasToken(q, "tomorrow") {
			text = fmt.Sprintf("Tomorrow is %s.", now.AddDate(0, 0, 1).Format("Monday, January 2"))
		} else {
			text = fmt.Sprintf("Today is %s.", now.Format("Monday"))
		}
	case hasToken(q, "month"):
		text = fmt.Sprintf("It's %s.", now.Format("January 2006"))
	case hasToken(q, "year"):
		text = fmt.Sprintf("It's %d.", now.Year())
	default:
		text = fmt.Sprintf("It's %s.", now.Format("Monday, January 2, 2006"))
	}

	return domain.Response{Text: text, Source: "datetime"}, nil
}

func hasToken(q domain.NormalizedQuery, want string) bool {
	for _, tok := range q.Tokens {
		if tok == want {
			return true
		}
	}
	return false
}
