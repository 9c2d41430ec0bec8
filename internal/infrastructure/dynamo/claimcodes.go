package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taptone-api/internal/domain"
)

// ClaimCodeRepo manages device pairing codes. The table is keyed by
// device_id, so a Put replaces whatever code the device had before — issuing
// a new code implicitly invalidates the old one.
type ClaimCodeRepo struct {
	client       *dynamodb.Client
	tableName    string
	devicesTable string // for the cross-table claim transaction
}

func NewClaimCodeRepo(client *dynamodb.Client, tableName, devicesTable string) *ClaimCodeRepo {
	return &ClaimCodeRepo{client: client, tableName: tableName, devicesTable: devicesTable}
}

func (r *ClaimCodeRepo) Put(ctx context.Context, c *domain.ClaimCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal claim code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetLiveByCode finds an unexpired code via the code-index GSI. The query
// matches every row holding the code value: expired rows linger until the
// table TTL reaps them, and an expired row on another device must not
// shadow a live one, so expiry is checked over the full match set.
func (r *ClaimCodeRepo) GetLiveByCode(ctx context.Context, code string, nowUnix int64) (*domain.ClaimCode, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("code-index"),
		KeyConditionExpression: aws.String("code = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
	})
	if err != nil {
		return nil, err
	}
	var matches []domain.ClaimCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &matches); err != nil {
		return nil, err
	}
	if c := liveCode(matches, nowUnix); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("claim code not found: %w", domain.ErrNotFound)
}

// liveCode picks the unexpired row out of a code-match set.
func liveCode(matches []domain.ClaimCode, nowUnix int64) *domain.ClaimCode {
	for i := range matches {
		if matches[i].ExpiresAt > nowUnix {
			return &matches[i]
		}
	}
	return nil
}

// ConsumeAndClaim deletes the code and assigns device ownership in a single
// DynamoDB transaction. The delete is conditional on the row still holding
// this exact unexpired code, so of two verifiers racing on the same code
// exactly one commits; the other gets domain.ErrNotFound. The condition also
// protects against consuming a newer code that replaced the one looked up.
func (r *ClaimCodeRepo) ConsumeAndClaim(ctx context.Context, deviceID, code, userID string, nowUnix int64) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName:           aws.String(r.tableName),
					Key:                 strKey("device_id", deviceID),
					ConditionExpression: aws.String("code = :c AND expires_at > :now"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":c":   &types.AttributeValueMemberS{Value: code},
						":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(nowUnix, 10)},
					},
				},
			},
			{
				Update: &types.Update{
					TableName:           aws.String(r.devicesTable),
					Key:                 strKey("device_id", deviceID),
					ConditionExpression: aws.String("attribute_exists(device_id)"),
					UpdateExpression:    aws.String("SET user_id = :uid"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":uid": &types.AttributeValueMemberS{Value: userID},
					},
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("claim transaction cancelled: %w", domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// Delete removes a device's claim code, if any. Used by the device-removal
// cascade; deleting an absent row is not an error.
func (r *ClaimCodeRepo) Delete(ctx context.Context, deviceID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("device_id", deviceID),
	})
	return err
}
