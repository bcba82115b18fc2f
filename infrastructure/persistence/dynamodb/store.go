// Package dynamodb implements the single-table store contract and the entity
// repositories on top of it.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/infrastructure/persistence/schema"
)

// DynamoAPI is the slice of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *awsdynamodb.UpdateItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *awsdynamodb.QueryInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *awsdynamodb.TransactWriteItemsInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.TransactWriteItemsOutput, error)
}

// Store implements ports.Store against a DynamoDB table.
type Store struct {
	client    DynamoAPI
	tableName string
	logger    *zap.Logger
}

// NewStore creates a Store bound to tableName.
func NewStore(client DynamoAPI, tableName string, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func keyAttributes(key schema.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		schema.AttrPK: &types.AttributeValueMemberS{Value: key.PK},
		schema.AttrSK: &types.AttributeValueMemberS{Value: key.SK},
	}
}

// buildCondition lowers a port condition to an expression builder condition.
// The second return is false for the unconditional case.
func buildCondition(cond ports.Condition) (expression.ConditionBuilder, bool) {
	var (
		builder expression.ConditionBuilder
		set     bool
	)

	and := func(c expression.ConditionBuilder) {
		if set {
			builder = builder.And(c)
			return
		}
		builder = c
		set = true
	}

	if cond.NotExists {
		and(expression.AttributeNotExists(expression.Name(schema.AttrPK)))
	}
	if cond.Exists {
		and(expression.AttributeExists(expression.Name(schema.AttrPK)))
	}
	for name, value := range cond.Equals {
		and(expression.Name(name).Equal(expression.Value(value)))
	}

	return builder, set
}

func buildUpdate(patch ports.Patch) expression.UpdateBuilder {
	var update expression.UpdateBuilder
	for name, value := range patch.Set {
		update = update.Set(expression.Name(name), expression.Value(value))
	}
	for name, delta := range patch.Add {
		update = update.Add(expression.Name(name), expression.Value(delta))
	}
	for _, name := range patch.Remove {
		update = update.Remove(expression.Name(name))
	}
	return update
}

// Get returns the item at key, or nil when absent.
func (s *Store) Get(ctx context.Context, key schema.Key) (ports.Item, error) {
	out, err := s.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       keyAttributes(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s/%s: %w", key.PK, key.SK, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// Put writes an item, evaluating cond atomically with the write.
func (s *Store) Put(ctx context.Context, item ports.Item, cond ports.Condition) error {
	input := &awsdynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}

	if condition, ok := buildCondition(cond); ok {
		expr, err := expression.NewBuilder().WithCondition(condition).Build()
		if err != nil {
			return fmt.Errorf("failed to build put condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		return translateError(err, "put item")
	}
	return nil
}

// Update applies patch to the item at key under cond.
func (s *Store) Update(ctx context.Context, key schema.Key, patch ports.Patch, cond ports.Condition) error {
	builder := expression.NewBuilder().WithUpdate(buildUpdate(patch))
	if condition, ok := buildCondition(cond); ok {
		builder = builder.WithCondition(condition)
	}
	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       keyAttributes(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return translateError(err, "update item")
	}
	return nil
}

// Delete removes the item at key under cond.
func (s *Store) Delete(ctx context.Context, key schema.Key, cond ports.Condition) error {
	input := &awsdynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       keyAttributes(key),
	}

	if condition, ok := buildCondition(cond); ok {
		expr, err := expression.NewBuilder().WithCondition(condition).Build()
		if err != nil {
			return fmt.Errorf("failed to build delete condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		return translateError(err, "delete item")
	}
	return nil
}

// Query reads one page from an index, newest-first unless q.Ascending.
func (s *Store) Query(ctx context.Context, q ports.Query) (ports.QueryResult, error) {
	pkAttr, skAttr := schema.IndexKeyAttrs(q.Index)

	keyCond := expression.Key(pkAttr).Equal(expression.Value(q.Partition))
	if q.SortPrefix != "" {
		keyCond = keyCond.And(expression.Key(skAttr).BeginsWith(q.SortPrefix))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if q.ExcludeStatus != "" {
		builder = builder.WithFilter(
			expression.Name(schema.AttrStatus).NotEqual(expression.Value(q.ExcludeStatus)),
		)
	}

	expr, err := builder.Build()
	if err != nil {
		return ports.QueryResult{}, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &awsdynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(q.Ascending),
	}
	if q.Index != "" {
		input.IndexName = aws.String(q.Index)
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(q.Limit)
	}
	if len(q.StartKey) > 0 {
		input.ExclusiveStartKey = q.StartKey
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return ports.QueryResult{}, fmt.Errorf("failed to query %s: %w", q.Index, err)
	}

	return ports.QueryResult{Items: out.Items, LastKey: out.LastEvaluatedKey}, nil
}

// TransactWrite applies all items or none.
func (s *Store) TransactWrite(ctx context.Context, items []ports.TransactItem) error {
	transactItems := make([]types.TransactWriteItem, 0, len(items))

	for _, item := range items {
		switch {
		case item.Put != nil:
			put := &types.Put{
				TableName: aws.String(s.tableName),
				Item:      item.Put.Item,
			}
			if condition, ok := buildCondition(item.Put.Condition); ok {
				expr, err := expression.NewBuilder().WithCondition(condition).Build()
				if err != nil {
					return fmt.Errorf("failed to build transact put condition: %w", err)
				}
				put.ConditionExpression = expr.Condition()
				put.ExpressionAttributeNames = expr.Names()
				put.ExpressionAttributeValues = expr.Values()
			}
			transactItems = append(transactItems, types.TransactWriteItem{Put: put})

		case item.Update != nil:
			builder := expression.NewBuilder().WithUpdate(buildUpdate(item.Update.Patch))
			if condition, ok := buildCondition(item.Update.Condition); ok {
				builder = builder.WithCondition(condition)
			}
			expr, err := builder.Build()
			if err != nil {
				return fmt.Errorf("failed to build transact update expression: %w", err)
			}
			transactItems = append(transactItems, types.TransactWriteItem{
				Update: &types.Update{
					TableName:                 aws.String(s.tableName),
					Key:                       keyAttributes(item.Update.Key),
					UpdateExpression:          expr.Update(),
					ConditionExpression:       expr.Condition(),
					ExpressionAttributeNames:  expr.Names(),
					ExpressionAttributeValues: expr.Values(),
				},
			})

		case item.Delete != nil:
			del := &types.Delete{
				TableName: aws.String(s.tableName),
				Key:       keyAttributes(item.Delete.Key),
			}
			if condition, ok := buildCondition(item.Delete.Condition); ok {
				expr, err := expression.NewBuilder().WithCondition(condition).Build()
				if err != nil {
					return fmt.Errorf("failed to build transact delete condition: %w", err)
				}
				del.ConditionExpression = expr.Condition()
				del.ExpressionAttributeNames = expr.Names()
				del.ExpressionAttributeValues = expr.Values()
			}
			transactItems = append(transactItems, types.TransactWriteItem{Delete: del})

		default:
			return fmt.Errorf("empty transact item")
		}
	}

	if _, err := s.client.TransactWriteItems(ctx, &awsdynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	}); err != nil {
		return translateError(err, "transact write")
	}
	return nil
}

// translateError maps the provider's expected failure modes onto the port's
// sentinels; everything else propagates wrapped.
func translateError(err error, operation string) error {
	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		return ports.ErrConditionFailed
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ports.ErrTransactionCanceled
			}
		}
		return ports.ErrTransactionCanceled
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
