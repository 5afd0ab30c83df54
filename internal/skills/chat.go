package skills

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

const chatHistoryTurns = 5

// ParamGetter supplies configuration values (persona prompt, model name).
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// LLMClient is the chat-completion collaborator behind the smalltalk skill.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// SmalltalkSkill handles open-ended conversation. Common exchanges
// (greetings, thanks, farewells, identity) get canned answers; everything
// else goes to the LLM with the persona prompt and recent session history.
type SmalltalkSkill struct {
	params      ParamGetter
	llm         LLMClient
	paramPrefix string

	cacheMu     sync.RWMutex
	cacheLoaded bool
	persona     string
	model       string
}

func NewSmalltalkSkill(params ParamGetter, llm LLMClient, paramPrefix string) (*SmalltalkSkill, error) {
	if params == nil {
		return nil, errors.New("skills: param getter must not be nil")
	}
	if llm == nil {
		return nil, errors.New("skills: llm client must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("skills: parameter prefix must not be empty")
	}
	return &SmalltalkSkill{params: params, llm: llm, paramPrefix: paramPrefix}, nil
}

type cannedCategory struct {
	triggers []string
	reply    string
}

// Canned exchanges are matched on token boundaries against the normalized
// text, most specific first.
var cannedCategories = []cannedCategory{
	{
		triggers: []string{"who are you", "what are you", "your name", "introduce yourself"},
		reply:    "I'm BUDDY, your assistant. I can help with weather, jokes, quotes, tasks, dates and general conversation.",
	},
	{
		triggers: []string{"how are you", "how r u", "hows it going"},
		reply:    "I'm doing great, thanks for asking! How can I help you today?",
	},
	{
		triggers: []string{"thank you", "thanks"},
		reply:    "You're welcome! If you need anything else, just ask.",
	},
	{
		triggers: []string{"bye", "goodbye", "see you"},
		reply:    "Goodbye! Have a great day!",
	},
	{
		triggers: []string{"help", "what can you do"},
		reply:    "You can ask me for the weather, a forecast, a joke, a quote, the time or date, or your tasks. Or we can just chat!",
	},
	{
		triggers: []string{"hi", "hello", "hey", "good morning", "good evening"},
		reply:    "Hello! How can I help you today?",
	},
}

func (s *SmalltalkSkill) Process(ctx context.Context, q domain.NormalizedQuery, view *conversation.View) (domain.Response, error) {
	for _, cat := range cannedCategories {
		for _, trigger := range cat.triggers {
			if phraseIn(q, trigger) {
				return domain.Response{Text: cat.reply, Source: "smalltalk"}, nil
			}
		}
	}

	if err := s.ensureConfig(ctx); err != nil {
		return domain.Response{}, fmt.Errorf("skills: smalltalk config: %w", err)
	}

	answer, err := s.llm.Chat(ctx, s.model, s.buildMessages(q, view))
	if err != nil {
		return domain.Response{}, fmt.Errorf("skills: smalltalk completion: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return domain.Response{}, errors.New("skills: smalltalk completion empty")
	}

	return domain.Response{Text: answer, Source: "smalltalk"}, nil
}

func (s *SmalltalkSkill) buildMessages(q domain.NormalizedQuery, view *conversation.View) []domain.ChatMessage {
	messages := []domain.ChatMessage{
		{Role: "system", Content: s.persona},
	}
	for _, turn := range view.History(chatHistoryTurns) {
		if strings.TrimSpace(turn.Utterance) == "" || strings.TrimSpace(turn.Summary) == "" {
			continue
		}
		messages = append(messages,
			domain.ChatMessage{Role: "user", Content: turn.Utterance},
			domain.ChatMessage{Role: "assistant", Content: turn.Summary},
		)
	}
	return append(messages, domain.ChatMessage{Role: "user", Content: q.Raw})
}

// ensureConfig loads the persona prompt and model name once per process and
// reuses the cached values on every later call.
func (s *SmalltalkSkill) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	persona, err := s.params.GetParameter(ctx, s.paramPrefix+"/persona_prompt")
	if err != nil {
		return fmt.Errorf("load persona prompt: %w", err)
	}
	model, err := s.params.GetParameter(ctx, s.paramPrefix+"/config/chat_model")
	if err != nil {
		return fmt.Errorf("load chat model: %w", err)
	}

	s.persona = strings.TrimSpace(persona)
	s.model = strings.TrimSpace(model)
	s.cacheLoaded = true
	return nil
}
