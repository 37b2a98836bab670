package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// ErrConflict is returned by PutIfNotExists when the item already exists.
var ErrConflict = errors.New("item already exists")

// Row is one wide-column row as raw attribute values.
type Row = map[string]types.AttributeValue

// Table is the narrow surface the repositories need from one wide-column
// table. The production implementation wraps a DynamoDB table; MemTable
// implements the same contract in memory for tests and local runs.
type Table interface {
	Put(ctx context.Context, item Row) error
	// PutIfNotExists inserts the item only when no row with the same key
	// exists yet, the create-guard applied at entity-creation time.
	PutIfNotExists(ctx context.Context, item Row) error
	// Get returns the row for the key, or nil when it does not exist.
	Get(ctx context.Context, key Row) (Row, error)
	// Query returns every row in one partition.
	Query(ctx context.Context, pkAttr, pkValue string) ([]Row, error)
	Delete(ctx context.Context, key Row) error
}

// NewAWSConfig loads the shared AWS configuration, with static credentials
// when provided.
func NewAWSConfig(ctx context.Context, region, accessKey, secretKey string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewClient creates a DynamoDB client, optionally pointed at a custom
// endpoint (local DynamoDB).
func NewClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// DynamoTable is the DynamoDB-backed Table implementation.
type DynamoTable struct {
	client *dynamodb.Client
	name   string
	pkAttr string
	skAttr string
}

// NewDynamoTable wraps one DynamoDB table. skAttr is empty for tables keyed
// by a single partition key.
func NewDynamoTable(client *dynamodb.Client, name, pkAttr, skAttr string) *DynamoTable {
	return &DynamoTable{client: client, name: name, pkAttr: pkAttr, skAttr: skAttr}
}

func (t *DynamoTable) Put(ctx context.Context, item Row) error {
	_, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item into %s: %w", t.name, err)
	}
	return nil
}

func (t *DynamoTable) PutIfNotExists(ctx context.Context, item Row) error {
	_, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(t.name),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": t.pkAttr,
		},
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return ErrConflict
		}
		return fmt.Errorf("failed to put item into %s: %w", t.name, err)
	}
	return nil
}

func (t *DynamoTable) Get(ctx context.Context, key Row) (Row, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from %s: %w", t.name, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

func (t *DynamoTable) Query(ctx context.Context, pkAttr, pkValue string) ([]Row, error) {
	var rows []Row
	var startKey Row
	for {
		out, err := t.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(t.name),
			KeyConditionExpression: aws.String("#pk = :pk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": pkAttr,
			},
			ExpressionAttributeValues: Row{
				":pk": &types.AttributeValueMemberS{Value: pkValue},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
		}
		rows = append(rows, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return rows, nil
}

func (t *DynamoTable) Delete(ctx context.Context, key Row) error {
	_, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from %s: %w", t.name, err)
	}
	return nil
}

// EnsureTable creates the table when it does not exist yet.
func EnsureTable(ctx context.Context, client *dynamodb.Client, name, pkAttr, skAttr string) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", name, err)
	}

	attrs := []types.AttributeDefinition{
		{AttributeName: aws.String(pkAttr), AttributeType: types.ScalarAttributeTypeS},
	}
	schema := []types.KeySchemaElement{
		{AttributeName: aws.String(pkAttr), KeyType: types.KeyTypeHash},
	}
	if skAttr != "" {
		attrs = append(attrs, types.AttributeDefinition{
			AttributeName: aws.String(skAttr), AttributeType: types.ScalarAttributeTypeS,
		})
		schema = append(schema, types.KeySchemaElement{
			AttributeName: aws.String(skAttr), KeyType: types.KeyTypeRange,
		})
	}
	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(name),
		AttributeDefinitions: attrs,
		KeySchema:            schema,
		BillingMode:          types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	log.Info().Str("table", name).Msg("DynamoDB table created")
	return nil
}

// Key builds a single-attribute key.
func Key(pkAttr, pkValue string) Row {
	return Row{pkAttr: &types.AttributeValueMemberS{Value: pkValue}}
}

// CompositeKey builds a partition+sort key.
func CompositeKey(pkAttr, pkValue, skValue string) Row {
	return Row{
		pkAttr: &types.AttributeValueMemberS{Value: pkValue},
		"sk":   &types.AttributeValueMemberS{Value: skValue},
	}
}

// SortKeyValue composes the range key of projection rows from the row's
// create time and item id, yielding time-ordered unique keys.
func SortKeyValue(createTime int64, itemID string) string {
	return fmt.Sprintf("%013d#%s", createTime, itemID)
}

// WithSortKey attaches the composed range key to a marshaled item.
func WithSortKey(item Row, createTime int64, itemID string) Row {
	item["sk"] = &types.AttributeValueMemberS{Value: SortKeyValue(createTime, itemID)}
	return item
}

// WithPlainSortKey attaches a plain range key to a marshaled item, for
// tables clustered by item id alone.
func WithPlainSortKey(item Row, skValue string) Row {
	item["sk"] = &types.AttributeValueMemberS{Value: skValue}
	return item
}
