package docs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "smartdocs-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	docKeyPrefix = "DOC#"
	metadataSK   = "METADATA"
	counterPK    = "COUNTER#documents"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ddbDocument is the item layout of a document.
type ddbDocument struct {
	PK          string   `dynamodbav:"PK"`
	SK          string   `dynamodbav:"SK"`
	ID          string   `dynamodbav:"DocID"`
	Title       string   `dynamodbav:"Title"`
	Content     string   `dynamodbav:"Content"`
	ContentType string   `dynamodbav:"ContentType"`
	Language    string   `dynamodbav:"Language"`
	Tags        []string `dynamodbav:"Tags"`
	Author      string   `dynamodbav:"Author"`
	Version     string   `dynamodbav:"Version"`
	Status      string   `dynamodbav:"Status"`
	CreatedAt   string   `dynamodbav:"CreatedAt"`
	UpdatedAt   string   `dynamodbav:"UpdatedAt"`
}

func toItem(doc *Document) ddbDocument {
	return ddbDocument{
		PK:          docKeyPrefix + doc.ID,
		SK:          metadataSK,
		ID:          doc.ID,
		Title:       doc.Title,
		Content:     doc.Content,
		ContentType: doc.ContentType,
		Language:    doc.Language,
		Tags:        nonNil(doc.Tags),
		Author:      doc.Author,
		Version:     doc.Version,
		Status:      doc.Status,
		CreatedAt:   formatTime(doc.CreatedAt),
		UpdatedAt:   formatTime(doc.UpdatedAt),
	}
}

func (item ddbDocument) toDocument() *Document {
	doc := &Document{
		ID:          item.ID,
		Title:       item.Title,
		Content:     item.Content,
		ContentType: item.ContentType,
		Language:    item.Language,
		Tags:        nonNil(item.Tags),
		Author:      item.Author,
		Version:     item.Version,
		Status:      item.Status,
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, item.CreatedAt)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return doc
}

// DynamoStore persists documents in a single DynamoDB table keyed PK/SK.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
}

// NewDynamoStore creates a DynamoDB-backed store.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func docKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: docKeyPrefix + id},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

func (s *DynamoStore) NextID(ctx context.Context) (string, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: counterPK},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
		UpdateExpression:          aws.String("ADD #v :one"),
		ExpressionAttributeNames:  map[string]string{"#v": "Value"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return "", appErrors.Wrap(err, "failed to allocate document id")
	}

	n, ok := out.Attributes["Value"].(*types.AttributeValueMemberN)
	if !ok {
		return "", appErrors.NewInternal("counter returned no value", nil)
	}
	value, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return "", appErrors.Wrap(err, "failed to parse document counter")
	}
	return fmt.Sprintf("doc_%d", value), nil
}

func (s *DynamoStore) put(ctx context.Context, doc *Document, condition string) error {
	itemMap, err := attributevalue.MarshalMap(toItem(doc))
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal document")
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                itemMap,
		ConditionExpression: aws.String(condition),
	})
	return err
}

func (s *DynamoStore) Create(ctx context.Context, doc *Document) error {
	err := s.put(ctx, doc, "attribute_not_exists(PK)")
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return appErrors.NewConflict("document already exists: " + doc.ID)
	}
	if err != nil {
		return appErrors.Wrap(err, "failed to store document")
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, id string) (*Document, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       docKey(id),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to get document")
	}
	if result.Item == nil {
		return nil, appErrors.NewNotFound("Document not found")
	}

	var item ddbDocument
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal document")
	}
	return item.toDocument(), nil
}

func (s *DynamoStore) Update(ctx context.Context, doc *Document) error {
	err := s.put(ctx, doc, "attribute_exists(PK)")
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return appErrors.NewNotFound("Document not found")
	}
	if err != nil {
		return appErrors.Wrap(err, "failed to update document")
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 docKey(id),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return appErrors.NewNotFound("Document not found")
	}
	if err != nil {
		return appErrors.Wrap(err, "failed to delete document")
	}
	return nil
}

// List scans every document item, following pagination.
func (s *DynamoStore) List(ctx context.Context) ([]*Document, error) {
	var (
		out      []*Document
		startKey map[string]types.AttributeValue
	)
	for {
		page, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          aws.String("begins_with(PK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{":prefix": &types.AttributeValueMemberS{Value: docKeyPrefix}},
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, "failed to scan documents")
		}

		var items []ddbDocument
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, appErrors.Wrap(err, "failed to unmarshal documents")
		}
		for _, item := range items {
			if strings.HasPrefix(item.PK, docKeyPrefix) {
				out = append(out, item.toDocument())
			}
		}

		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		startKey = page.LastEvaluatedKey
	}
}

func (s *DynamoStore) Count(ctx context.Context) (int, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *DynamoStore) Close() error { return nil }
