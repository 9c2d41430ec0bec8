package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taptone-api/internal/domain"
)

// TagRepo provides typed DynamoDB operations for the NFC tags table.
// tag_uid is the partition key, so uniqueness is global across accounts.
type TagRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTagRepo(client *dynamodb.Client, tableName string) *TagRepo {
	return &TagRepo{client: client, tableName: tableName}
}

// Create inserts the tag only if the UID is not registered yet, by anyone.
func (r *TagRepo) Create(ctx context.Context, t *domain.NFCTag) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal tag: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(tag_uid)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("tag already registered: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *TagRepo) Get(ctx context.Context, tagUID string) (*domain.NFCTag, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("tag_uid", tagUID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("tag not found: %w", domain.ErrNotFound)
	}
	var t domain.NFCTag
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagRepo) ListByUser(ctx context.Context, userID string) ([]domain.NFCTag, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var tags []domain.NFCTag
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepo) Update(ctx context.Context, tagUID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("tag_uid", tagUID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *TagRepo) Delete(ctx context.Context, tagUID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("tag_uid", tagUID),
	})
	return err
}
