// Package handler adapts API Gateway proxy events to the routing engine.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"buddy-agent/internal/engine"
)

// Router is the engine surface the handler depends on.
type Router interface {
	ResolveAndDispatch(ctx context.Context, in engine.Input) engine.Output
}

type Handler struct {
	router Router
}

func NewHandler(router Router) (*Handler, error) {
	if router == nil {
		return nil, errors.New("handler: router must not be nil")
	}
	return &Handler{router: router}, nil
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
	Intent    string `json:"intent"`
	Degraded  bool   `json:"degraded,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handle processes one chat turn. The engine converts every request-time
// failure into a valid response, so the only client errors are a malformed
// body and an empty message.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := resolveCorrelationID(event.Headers)

	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{
			Error:  string(engine.ErrorEmptyInput),
			Reason: "malformed_body",
		}, correlationID), nil
	}
	if strings.TrimSpace(req.Message) == "" {
		return jsonResponse(http.StatusBadRequest, errorResponse{
			Error:  string(engine.ErrorEmptyInput),
			Reason: "empty_message",
		}, correlationID), nil
	}

	out := h.router.ResolveAndDispatch(ctx, engine.Input{
		SessionID: req.SessionID,
		Text:      req.Message,
	})

	return jsonResponse(http.StatusOK, chatResponse{
		Reply:     out.Response.Text,
		SessionID: out.SessionID,
		Intent:    out.Response.Source,
		Degraded:  out.Response.Degraded,
	}, correlationID), nil
}

func resolveCorrelationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "X-Correlation-Id") && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return newUUID()
}

func jsonResponse(status int, payload any, correlationID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		// Marshalling plain structs of strings and bools cannot fail; keep the
		// contract total anyway.
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": correlationID,
		},
		Body: string(body),
	}
}

var newUUID = func() string {
	return uuid.NewString()
}
