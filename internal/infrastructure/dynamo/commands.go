package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taptone-api/internal/domain"
)

// CommandRepo provides typed DynamoDB operations for the per-device command
// queue. PK device_id, SK command_id (ULID), so an ascending Query is the
// FIFO poll.
type CommandRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCommandRepo(client *dynamodb.Client, tableName string) *CommandRepo {
	return &CommandRepo{client: client, tableName: tableName}
}

func (r *CommandRepo) Put(ctx context.Context, c *domain.Command) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListPending returns the device's pending commands oldest-first. The read
// is non-destructive; rows stay pending until acked.
func (r *CommandRepo) ListPending(ctx context.Context, deviceID string) ([]domain.Command, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("device_id = :d"),
		FilterExpression:       aws.String("#st = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d":       &types.AttributeValueMemberS{Value: deviceID},
			":pending": &types.AttributeValueMemberS{Value: domain.CommandStatusPending},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	var cmds []domain.Command
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

// Get looks a command up by id alone via the command_id-index GSI.
func (r *CommandRepo) Get(ctx context.Context, commandID string) (*domain.Command, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("command_id-index"),
		KeyConditionExpression: aws.String("command_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: commandID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("command not found: %w", domain.ErrNotFound)
	}
	var c domain.Command
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkAcked flips the command's status to acked. The pending→acked change is
// the only mutation a command row ever sees.
func (r *CommandRepo) MarkAcked(ctx context.Context, deviceID, commandID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              compositeKey("device_id", deviceID, "command_id", commandID),
		UpdateExpression: aws.String("SET #st = :acked"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":acked": &types.AttributeValueMemberS{Value: domain.CommandStatusAcked},
		},
	})
	return err
}

// DeleteByDevice removes every command row for a device in batches of 25
// (the BatchWriteItem limit). Used only by the device-removal cascade.
func (r *CommandRepo) DeleteByDevice(ctx context.Context, deviceID string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("device_id = :d"),
		ProjectionExpression:   aws.String("device_id, command_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberS{Value: deviceID},
		},
	})
	if err != nil {
		return err
	}
	for start := 0; start < len(out.Items); start += 25 {
		end := start + 25
		if end > len(out.Items) {
			end = len(out.Items)
		}
		writes := make([]types.WriteRequest, 0, end-start)
		for _, item := range out.Items[start:end] {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: item},
			})
		}
		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: writes},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
