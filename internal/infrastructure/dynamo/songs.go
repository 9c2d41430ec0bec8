package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taptone-api/internal/domain"
)

// SongRepo provides typed DynamoDB operations for the song catalog table.
type SongRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSongRepo(client *dynamodb.Client, tableName string) *SongRepo {
	return &SongRepo{client: client, tableName: tableName}
}

func (r *SongRepo) Put(ctx context.Context, s *domain.Song) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal song: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SongRepo) Get(ctx context.Context, songID string) (*domain.Song, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("song_id", songID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("song not found: %w", domain.ErrNotFound)
	}
	var s domain.Song
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Scan returns the whole enabled catalog. The store is small enough that a
// filtered scan is acceptable, same trade-off as any reference-data table.
func (r *SongRepo) Scan(ctx context.Context) ([]domain.Song, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#en = :t"),
		ExpressionAttributeNames: map[string]string{
			"#en": "enable",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var songs []domain.Song
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// BatchGet fetches up to 100 songs by id, preserving the order of ids where
// possible is the caller's concern; DynamoDB returns them unordered.
func (r *SongRepo) BatchGet(ctx context.Context, songIDs []string) ([]domain.Song, error) {
	if len(songIDs) == 0 {
		return nil, nil
	}
	var songs []domain.Song
	for start := 0; start < len(songIDs); start += 100 {
		end := start + 100
		if end > len(songIDs) {
			end = len(songIDs)
		}
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range songIDs[start:end] {
			keys = append(keys, strKey("song_id", id))
		}
		out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				r.tableName: {Keys: keys},
			},
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Song
		if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.tableName], &page); err != nil {
			return nil, err
		}
		songs = append(songs, page...)
	}
	return songs, nil
}

func (r *SongRepo) Update(ctx context.Context, songID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("song_id", songID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *SongRepo) Delete(ctx context.Context, songID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("song_id", songID),
	})
	return err
}
