package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by the backend.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Dynamo is a Backend storing each logical table in its own DynamoDB table.
type Dynamo struct {
	client DynamoAPI
	config Config
	logger *slog.Logger
}

// NewDynamo creates a DynamoDB backend.
func NewDynamo(client DynamoAPI, config Config, logger *slog.Logger) *Dynamo {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Dynamo{
		client: client,
		config: config,
		logger: logger,
	}
}

// Table returns a handle to the named logical table.
func (d *Dynamo) Table(name string) Table {
	return &dynamoTable{
		backend:  d,
		name:     name,
		physical: d.config.TablePrefix + name,
	}
}

// EnsureTables creates missing tables and waits for them to become active.
// Tables that already exist are left untouched.
func (d *Dynamo) EnsureTables(ctx context.Context, names ...string) error {
	waiter := dynamodb.NewTableExistsWaiter(d.client)
	for _, name := range names {
		physical := d.config.TablePrefix + name
		input := &dynamodb.CreateTableInput{
			TableName: aws.String(physical),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(PartitionKeyField), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String(RowKeyField), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(PartitionKeyField), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(RowKeyField), KeyType: types.KeyTypeRange},
			},
			BillingMode: types.BillingModePayPerRequest,
		}
		if d.config.streamed(name) {
			input.StreamSpecification = &types.StreamSpecification{
				StreamEnabled:  aws.Bool(true),
				StreamViewType: types.StreamViewTypeNewImage,
			}
		}
		_, err := d.client.CreateTable(ctx, input)
		if err != nil {
			var inUse *types.ResourceInUseException
			if !errors.As(err, &inUse) {
				return fmt.Errorf("create table %s: %w", physical, err)
			}
		} else {
			d.logger.Info("created table", "table", physical)
		}

		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(physical),
		}, d.config.CreateTimeout); err != nil {
			return fmt.Errorf("wait for table %s: %w", physical, err)
		}
	}
	return nil
}

// Ping describes the named table.
func (d *Dynamo) Ping(ctx context.Context, name string) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.config.TablePrefix + name),
	})
	return err
}

type dynamoTable struct {
	backend  *Dynamo
	name     string
	physical string
}

func (t *dynamoTable) Name() string { return t.name }

func (t *dynamoTable) Get(ctx context.Context, partitionKey, rowKey string) (Row, error) {
	key, err := marshalKey(partitionKey, rowKey)
	if err != nil {
		return Row{}, err
	}
	result, err := t.backend.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.physical),
		Key:            key,
		ConsistentRead: aws.Bool(t.backend.config.ConsistentRead),
	})
	if err != nil {
		return Row{}, err
	}
	if result.Item == nil {
		return Row{}, ErrNotFound
	}
	return unmarshalRow(result.Item), nil
}

func (t *dynamoTable) Query(ctx context.Context, input QueryInput) ([]Row, error) {
	queryInput, err := buildQueryInput(t.physical, input, t.backend.config.ConsistentRead)
	if err != nil {
		return nil, err
	}

	var rows []Row
	paginator := dynamodb.NewQueryPaginator(t.backend.client, queryInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			rows = append(rows, unmarshalRow(raw))
			if input.Limit > 0 && len(rows) >= input.Limit {
				return rows, nil
			}
		}
	}
	return rows, nil
}

func (t *dynamoTable) Upsert(ctx context.Context, row Row) error {
	item, err := marshalRow(row)
	if err != nil {
		return err
	}
	_, err = t.backend.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.physical),
		Item:      item,
	})
	return err
}

func (t *dynamoTable) Insert(ctx context.Context, row Row) error {
	item, err := marshalRow(row)
	if err != nil {
		return err
	}
	_, err = t.backend.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(t.physical),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": PartitionKeyField,
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (t *dynamoTable) Delete(ctx context.Context, partitionKey, rowKey string) error {
	key, err := marshalKey(partitionKey, rowKey)
	if err != nil {
		return err
	}
	// DeleteItem on a missing key succeeds.
	_, err = t.backend.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.physical),
		Key:       key,
	})
	return err
}

// buildQueryInput translates a Filter into placeholder-based key condition and
// filter expressions. Conditions on the row key go into the key condition
// because DynamoDB rejects key attributes in filter expressions.
func buildQueryInput(physical string, input QueryInput, consistent bool) (*dynamodb.QueryInput, error) {
	keyCond := "#pk = :pk"
	exprNames := map[string]string{"#pk": PartitionKeyField}
	exprValues := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: input.Filter.PartitionKey()},
	}

	var filterClauses []string
	rowKeySeen := false
	for i, c := range input.Filter.Conditions() {
		if c.Op != OpEq {
			return nil, fmt.Errorf("%w: operator %q", ErrUnsupportedFilter, c.Op)
		}
		switch c.Field {
		case PartitionKeyField:
			return nil, fmt.Errorf("%w: repeated partition key condition", ErrUnsupportedFilter)
		case RowKeyField:
			if rowKeySeen {
				return nil, fmt.Errorf("%w: repeated row key condition", ErrUnsupportedFilter)
			}
			rowKeySeen = true
			keyCond += " AND #rk = :rk"
			exprNames["#rk"] = RowKeyField
			exprValues[":rk"] = &types.AttributeValueMemberS{Value: c.Value}
		default:
			nameKey := fmt.Sprintf("#f%d", i)
			valueKey := fmt.Sprintf(":v%d", i)
			exprNames[nameKey] = c.Field
			exprValues[valueKey] = &types.AttributeValueMemberS{Value: c.Value}
			filterClauses = append(filterClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		}
	}

	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(physical),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
		ConsistentRead:            aws.Bool(consistent),
	}
	if len(filterClauses) > 0 {
		queryInput.FilterExpression = aws.String(strings.Join(filterClauses, " AND "))
	}
	// DynamoDB applies Limit to the rows it reads before the filter runs, so a
	// page size on a filtered query only multiplies round trips.
	if input.PageSize > 0 && len(filterClauses) == 0 {
		queryInput.Limit = aws.Int32(input.PageSize)
	}
	return queryInput, nil
}

func marshalKey(partitionKey, rowKey string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		PartitionKeyField: partitionKey,
		RowKeyField:       rowKey,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

// marshalRow converts a Row to a DynamoDB item.
func marshalRow(row Row) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(row.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}
	item[PartitionKeyField] = &types.AttributeValueMemberS{Value: row.PartitionKey}
	item[RowKeyField] = &types.AttributeValueMemberS{Value: row.RowKey}
	return item, nil
}

// unmarshalRow converts a DynamoDB item to a Row. NULL reads back as "",
// numbers keep their textual form and other types are dropped.
func unmarshalRow(raw map[string]types.AttributeValue) Row {
	row := Row{Fields: make(map[string]string, len(raw))}
	for k, v := range raw {
		var s string
		switch av := v.(type) {
		case *types.AttributeValueMemberS:
			s = av.Value
		case *types.AttributeValueMemberN:
			s = av.Value
		case *types.AttributeValueMemberNULL:
		default:
			continue
		}
		switch k {
		case PartitionKeyField:
			row.PartitionKey = s
		case RowKeyField:
			row.RowKey = s
		default:
			row.Fields[k] = s
		}
	}
	return row
}
