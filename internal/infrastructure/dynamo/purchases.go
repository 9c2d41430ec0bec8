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

// PurchaseRepo records user/song ownership. PK: user_id, SK: song_id, so a
// repeat purchase simply rewrites the same row, which makes purchases
// idempotent for free.
type PurchaseRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPurchaseRepo(client *dynamodb.Client, tableName string) *PurchaseRepo {
	return &PurchaseRepo{client: client, tableName: tableName}
}

func (r *PurchaseRepo) Put(ctx context.Context, p *domain.Purchase) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal purchase: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PurchaseRepo) Exists(ctx context.Context, userID, songID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "song_id", songID),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

func (r *PurchaseRepo) ListByUser(ctx context.Context, userID string) ([]domain.Purchase, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var purchases []domain.Purchase
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}
