package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"buddy-agent/handler"
	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
	"buddy-agent/internal/engine"
	"buddy-agent/internal/integrations/openai"
	"buddy-agent/internal/integrations/paramstore"
	"buddy-agent/internal/integrations/weather"
	"buddy-agent/internal/lexicon"
	"buddy-agent/internal/repository"
	"buddy-agent/internal/skills"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	maxContextTurns := envInt("MAX_CONTEXT_TURNS", 10)
	handlerTimeoutMs := envInt("HANDLER_TIMEOUT_MS", 8000)
	forecastDays := envInt("FORECAST_DAYS", 3)
	threshold := envFloat("SCORE_THRESHOLD", 0.05)
	protected := envList("PROTECTED_INTENTS", []string{"weather", "forecast", "joke", "quote", "datetime", "tasks"})

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	turnLog, err := repository.New(awsdynamodb.NewFromConfig(cfg), stateTable)
	if err != nil {
		slog.Error("failed to create repository client", "err", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}
	weatherClient := weather.New()

	// ---- Engine ----
	usage := engine.NewUsage()
	contexts := conversation.NewManager(maxContextTurns)

	eng, err := engine.New(
		engine.Config{
			Threshold:      threshold,
			Protected:      protected,
			HandlerTimeout: time.Duration(handlerTimeoutMs) * time.Millisecond,
		},
		lexicon.Default(),
		contexts,
		usage,
		skills.NewFallbackSkill(usage),
		turnLog,
		slog.Default(),
	)
	if err != nil {
		slog.Error("failed to create engine", "err", err)
		os.Exit(1)
	}

	if err := registerSkills(eng, weatherClient, forecastDays, ssmClient, openaiClient, paramPrefix); err != nil {
		slog.Error("failed to register skills", "err", err)
		os.Exit(1)
	}

	seedUsage(ctx, eng, turnLog)

	// ---- Handler ----
	h, err := handler.NewHandler(eng)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

// registerSkills wires every stock skill. The default lexicon already carries
// the vocabulary, so no extra terms are passed here.
func registerSkills(eng *engine.Engine, provider skills.WeatherProvider, forecastDays int, params skills.ParamGetter, llm skills.LLMClient, paramPrefix string) error {
	weatherSkill, err := skills.NewWeatherSkill(provider)
	if err != nil {
		return err
	}
	forecastSkill, err := skills.NewForecastSkill(provider, forecastDays)
	if err != nil {
		return err
	}
	smalltalk, err := skills.NewSmalltalkSkill(params, llm, paramPrefix)
	if err != nil {
		return err
	}

	type registration struct {
		desc domain.SkillDescriptor
		h    engine.Handler
	}
	for _, r := range []registration{
		{domain.SkillDescriptor{Intent: "weather", Name: "weather", Description: "Current conditions for a city"}, weatherSkill},
		{domain.SkillDescriptor{Intent: "forecast", Name: "forecast", Description: "Multi-day weather outlook"}, forecastSkill},
		{domain.SkillDescriptor{Intent: "joke", Name: "joke", Description: "Tells a joke"}, skills.NewJokeSkill()},
		{domain.SkillDescriptor{Intent: "quote", Name: "quote", Description: "Shares an inspirational quote"}, skills.NewQuoteSkill()},
		{domain.SkillDescriptor{Intent: "datetime", Name: "date and time", Description: "Answers time and date questions"}, skills.NewDateTimeSkill()},
		{domain.SkillDescriptor{Intent: "tasks", Name: "tasks", Description: "Task management templates"}, skills.NewTasksSkill()},
		{domain.SkillDescriptor{Intent: "smalltalk", Name: "conversation", Description: "Open-ended conversation"}, smalltalk},
	} {
		if err := eng.Register(r.desc, r.h); err != nil {
			return err
		}
	}
	return nil
}

// seedUsage restores persisted usage counts into the in-memory aggregate so
// ranking survives cold starts. Failures degrade to empty counters.
func seedUsage(ctx context.Context, eng *engine.Engine, repo *repository.Client) {
	seedCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	counts := make(map[string]int64)
	for _, desc := range eng.Skills() {
		n, err := repo.UsageCount(seedCtx, desc.Intent)
		if err != nil {
			slog.Warn("usage seed failed", "intent", desc.Intent, "err", err)
			continue
		}
		counts[desc.Intent] = n
	}
	eng.Usage().Seed(counts)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
