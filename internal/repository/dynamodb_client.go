package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"buddy-agent/internal/domain"
)

const (
	pkPrefixConv  = "CONV#"
	pkPrefixUsage = "USAGE#"
	skPrefixMsg   = "MSG#"
	skPrefixTS    = "TS#"
	ttlDuration   = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps a single DynamoDB table holding the conversation log and the
// append-only usage log. Writes are fire-and-forget from the engine's side;
// the engine logs and swallows any error returned here.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// convPK returns the partition key for a session's conversation log.
func convPK(sessionID string) string {
	return pkPrefixConv + sessionID
}

// usagePK returns the partition key for an intent's usage log.
func usagePK(intent string) string {
	return pkPrefixUsage + intent
}

// tsSK returns a timestamp-ordered sort key.
func tsSK(prefix string, ts time.Time) string {
	return prefix + ts.UTC().Format(time.RFC3339Nano)
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// LogConversation appends one completed turn to the session's conversation
// log.
func (c *Client) LogConversation(ctx context.Context, sessionID, utterance, intent, summary string, latency time.Duration, success bool) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("repository: LogConversation: session id is required")
	}
	row := NewConversationRow(sessionID, utterance, intent, summary, latency, success)

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                conversationItem(row),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: LogConversation: %w", err)
	}
	return nil
}

// LogUsage appends one dispatch record to the intent's usage log. Rows are
// never updated or deleted before their TTL.
func (c *Client) LogUsage(ctx context.Context, intent, sessionID string, at time.Time, success bool, latency time.Duration) error {
	if strings.TrimSpace(intent) == "" {
		return errors.New("repository: LogUsage: intent id is required")
	}
	row := NewUsageRow(intent, sessionID, at, success, latency)

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      usageItem(row),
	})
	if err != nil {
		return fmt.Errorf("repository: LogUsage: %w", err)
	}
	return nil
}

// UsageCount returns the number of persisted usage rows for an intent,
// within the TTL window. Used to seed in-memory ranking counters at cold
// start; approximate counts are acceptable.
func (c *Client) UsageCount(ctx context.Context, intent string) (int64, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: usagePK(intent)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixTS},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, fmt.Errorf("repository: UsageCount query: %w", err)
	}
	return int64(out.Count), nil
}

// NewConversationRow constructs a ConversationRow with PK/SK/TTL set from the
// session id and current time.
func NewConversationRow(sessionID, utterance, intent, summary string, latency time.Duration, success bool) domain.ConversationRow {
	now := time.Now().UTC()
	return domain.ConversationRow{
		PK:            convPK(sessionID),
		SK:            tsSK(skPrefixMsg, now),
		SessionID:     sessionID,
		Utterance:     utterance,
		Intent:        intent,
		Summary:       summary,
		LatencyMillis: latency.Milliseconds(),
		Success:       success,
		TTL:           ttlValue(),
	}
}

// NewUsageRow constructs a UsageRow keyed by intent and timestamp.
func NewUsageRow(intent, sessionID string, at time.Time, success bool, latency time.Duration) domain.UsageRow {
	return domain.UsageRow{
		PK:            usagePK(intent),
		SK:            tsSK(skPrefixTS, at),
		Intent:        intent,
		SessionID:     sessionID,
		Timestamp:     at.UTC().Format(time.RFC3339),
		LatencyMillis: latency.Milliseconds(),
		Success:       success,
		TTL:           ttlValue(),
	}
}

func conversationItem(row domain.ConversationRow) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: row.PK},
		"SK":        &types.AttributeValueMemberS{Value: row.SK},
		"sessionId": &types.AttributeValueMemberS{Value: row.SessionID},
		"utterance": &types.AttributeValueMemberS{Value: row.Utterance},
		"intent":    &types.AttributeValueMemberS{Value: row.Intent},
		"summary":   &types.AttributeValueMemberS{Value: row.Summary},
		"latencyMs": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", row.LatencyMillis)},
		"success":   &types.AttributeValueMemberBOOL{Value: row.Success},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", row.TTL)},
	}
}

func usageItem(row domain.UsageRow) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: row.PK},
		"SK":        &types.AttributeValueMemberS{Value: row.SK},
		"intent":    &types.AttributeValueMemberS{Value: row.Intent},
		"sessionId": &types.AttributeValueMemberS{Value: row.SessionID},
		"timestamp": &types.AttributeValueMemberS{Value: row.Timestamp},
		"latencyMs": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", row.LatencyMillis)},
		"success":   &types.AttributeValueMemberBOOL{Value: row.Success},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", row.TTL)},
	}
}
