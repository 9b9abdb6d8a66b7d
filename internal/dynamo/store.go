// Package dynamo provides a DynamoDB-backed conversation turn store.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/farmchain/assistant-platform/internal/model"
	"github.com/farmchain/assistant-platform/internal/store"
)

const (
	pkPrefix     = "USER#"
	skPrefixTurn = "TURN#"

	batchDeleteSize = 25
)

// dynamodbAPI is the minimal DynamoDB interface required by TurnStore.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// TurnStore wraps a DynamoDB table holding conversation turns. Turns live
// under PK USER#<user> with a timestamp-ordered sort key; the table's TTL
// attribute enforces the retention period.
type TurnStore struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new TurnStore.
func New(api dynamodbAPI, tableName string) (*TurnStore, error) {
	if api == nil {
		return nil, errors.New("dynamo: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamo: table name must not be empty")
	}
	return &TurnStore{api: api, tableName: tableName}, nil
}

// userPK returns the partition key for a user.
func userPK(userID string) string {
	return pkPrefix + userID
}

// turnSK returns the sort key for a turn. The ID suffix keeps keys unique
// for turns created in the same nanosecond.
func turnSK(ts time.Time, id string) string {
	return skPrefixTurn + ts.UTC().Format(time.RFC3339Nano) + "#" + id
}

// ttlValue returns the Unix timestamp at which the turn expires.
func ttlValue(createdAt time.Time) int64 {
	return createdAt.Add(store.RetentionPeriod).Unix()
}

// CreateTurn persists a new turn.
func (s *TurnStore) CreateTurn(ctx context.Context, turn *model.ConversationTurn) (*model.ConversationTurn, error) {
	stored := *turn
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if stored.Category == "" {
		stored.Category = model.CategoryGeneral
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                turnItem(&stored),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: CreateTurn: %w", err)
	}
	return &stored, nil
}

// FindRecentTurns returns up to limit turns for the session, newest first.
func (s *TurnStore) FindRecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationTurn, error) {
	var turns []model.ConversationTurn

	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			FilterExpression:       aws.String("sessionId = :sid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
				":prefix": &types.AttributeValueMemberS{Value: skPrefixTurn},
				":sid":    &types.AttributeValueMemberS{Value: sessionID},
			},
			// Read newest first so the limit keeps the most recent turns.
			ScanIndexForward:  aws.Bool(false),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamo: FindRecentTurns query: %w", err)
		}

		for _, item := range out.Items {
			turn, err := itemToTurn(item)
			if err != nil {
				return nil, fmt.Errorf("dynamo: FindRecentTurns unmarshal: %w", err)
			}
			turns = append(turns, turn)
			if len(turns) == limit {
				return turns, nil
			}
		}

		if len(out.LastEvaluatedKey) == 0 {
			return turns, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// FindTurnsPaged returns one page of the user's turns, newest first.
func (s *TurnStore) FindTurnsPaged(ctx context.Context, userID string, page, limit int) ([]model.ConversationTurn, int, error) {
	all, err := s.queryAll(ctx, userID, nil)
	if err != nil {
		return nil, 0, err
	}

	var turns []model.ConversationTurn
	for _, item := range all {
		turn, err := itemToTurn(item)
		if err != nil {
			return nil, 0, fmt.Errorf("dynamo: FindTurnsPaged unmarshal: %w", err)
		}
		turns = append(turns, turn)
	}

	total := len(turns)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return turns[start:end], total, nil
}

// CountTurns returns the number of stored turns for the user.
func (s *TurnStore) CountTurns(ctx context.Context, userID string) (int, error) {
	count := 0

	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
				":prefix": &types.AttributeValueMemberS{Value: skPrefixTurn},
			},
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("dynamo: CountTurns query: %w", err)
		}

		count += int(out.Count)

		if len(out.LastEvaluatedKey) == 0 {
			return count, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// DeleteAllTurns removes every turn for the user in batches.
func (s *TurnStore) DeleteAllTurns(ctx context.Context, userID string) (int, error) {
	keys, err := s.queryAll(ctx, userID, aws.String("PK, SK"))
	if err != nil {
		return 0, err
	}

	deleted := 0
	for start := 0; start < len(keys); start += batchDeleteSize {
		end := start + batchDeleteSize
		if end > len(keys) {
			end = len(keys)
		}

		writes := make([]types.WriteRequest, 0, end-start)
		for _, item := range keys[start:end] {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": item["PK"],
						"SK": item["SK"],
					},
				},
			})
		}

		_, err := s.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: writes,
			},
		})
		if err != nil {
			return deleted, fmt.Errorf("dynamo: DeleteAllTurns batch write: %w", err)
		}
		deleted += len(writes)
	}

	return deleted, nil
}

// queryAll reads all of a user's turn items newest first, following
// pagination.
func (s *TurnStore) queryAll(ctx context.Context, userID string, projection *string) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue

	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
				":prefix": &types.AttributeValueMemberS{Value: skPrefixTurn},
			},
			ProjectionExpression: projection,
			ScanIndexForward:     aws.Bool(false),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamo: query: %w", err)
		}

		items = append(items, out.Items...)

		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func turnItem(turn *model.ConversationTurn) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: userPK(turn.UserID)},
		"SK":             &types.AttributeValueMemberS{Value: turnSK(turn.CreatedAt, turn.ID)},
		"id":             &types.AttributeValueMemberS{Value: turn.ID},
		"sessionId":      &types.AttributeValueMemberS{Value: turn.SessionID},
		"userMessage":    &types.AttributeValueMemberS{Value: turn.UserMessage},
		"botResponse":    &types.AttributeValueMemberS{Value: turn.BotResponse},
		"category":       &types.AttributeValueMemberS{Value: string(turn.Category)},
		"sentiment":      &types.AttributeValueMemberS{Value: string(turn.Sentiment)},
		"userAgent":      &types.AttributeValueMemberS{Value: turn.Metadata.UserAgent},
		"remoteAddr":     &types.AttributeValueMemberS{Value: turn.Metadata.RemoteAddr},
		"responseTimeMs": &types.AttributeValueMemberN{Value: strconv.FormatInt(turn.Metadata.ResponseTimeMs, 10)},
		"createdAt":      &types.AttributeValueMemberS{Value: turn.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(ttlValue(turn.CreatedAt), 10)},
	}
	if turn.Helpful != nil {
		item["helpful"] = &types.AttributeValueMemberBOOL{Value: *turn.Helpful}
	}
	return item
}

func itemToTurn(item map[string]types.AttributeValue) (model.ConversationTurn, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return model.ConversationTurn{}, err
	}
	id, err := strAttr(item, "id")
	if err != nil {
		return model.ConversationTurn{}, err
	}
	sessionID, err := strAttr(item, "sessionId")
	if err != nil {
		return model.ConversationTurn{}, err
	}
	userMessage, err := strAttr(item, "userMessage")
	if err != nil {
		return model.ConversationTurn{}, err
	}
	botResponse, err := strAttr(item, "botResponse")
	if err != nil {
		return model.ConversationTurn{}, err
	}
	category, _ := strAttr(item, "category")   // allow empty
	sentiment, _ := strAttr(item, "sentiment") // allow empty
	userAgent, _ := strAttr(item, "userAgent")
	remoteAddr, _ := strAttr(item, "remoteAddr")

	turn := model.ConversationTurn{
		ID:          id,
		UserID:      strings.TrimPrefix(pk, pkPrefix),
		SessionID:   sessionID,
		UserMessage: userMessage,
		BotResponse: botResponse,
		Category:    model.Category(category),
		Sentiment:   model.SentimentLabel(sentiment),
		Metadata: model.TurnMetadata{
			UserAgent:  userAgent,
			RemoteAddr: remoteAddr,
		},
	}

	if v, ok := item["responseTimeMs"].(*types.AttributeValueMemberN); ok {
		if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			turn.Metadata.ResponseTimeMs = n
		}
	}
	if v, ok := item["helpful"].(*types.AttributeValueMemberBOOL); ok {
		helpful := v.Value
		turn.Helpful = &helpful
	}
	if created, err := strAttr(item, "createdAt"); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			turn.CreatedAt = ts
		}
	}

	return turn, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("dynamo: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamo: attribute %q is not a string", key)
	}
	return s.Value, nil
}
