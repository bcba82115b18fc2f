package ports

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"schemstory-backend/infrastructure/persistence/schema"
)

// Item is a raw single-table item as the store sees it.
type Item = map[string]types.AttributeValue

// Sentinel errors the store implementations translate provider failures into.
// Repositories resolve these to domain-level outcomes; they never escape to
// handlers.
var (
	// ErrConditionFailed reports a conditional put/update/delete whose
	// predicate did not hold.
	ErrConditionFailed = errors.New("store: condition failed")

	// ErrTransactionCanceled reports an all-or-nothing transaction that was
	// rolled back because one branch's condition failed.
	ErrTransactionCanceled = errors.New("store: transaction canceled")
)

// Condition guards a single write. Zero value means unconditional.
type Condition struct {
	// NotExists requires that no item exists at the key yet.
	NotExists bool
	// Exists requires that an item already exists at the key.
	Exists bool
	// Equals requires each named attribute to equal the given plain Go value.
	Equals map[string]any
}

// IsZero reports whether the condition is unconditional.
func (c Condition) IsZero() bool {
	return !c.NotExists && !c.Exists && len(c.Equals) == 0
}

// Patch is a partial item update.
type Patch struct {
	// Set assigns plain Go values to attributes.
	Set map[string]any
	// Add applies atomic numeric deltas, creating the attribute at the delta
	// if absent.
	Add map[string]int
	// Remove deletes attributes.
	Remove []string
}

// Query describes an index read: partition match, optional sort-key prefix,
// page limit, scan direction, continuation key, and the post-index
// soft-delete filter.
type Query struct {
	// Index names the secondary index, or "" for the primary key.
	Index string
	// Partition is the partition-key value to match.
	Partition string
	// SortPrefix, when non-empty, restricts to sort keys with this prefix.
	SortPrefix string
	// Limit bounds the page size before filtering; 0 means provider default.
	Limit int32
	// Ascending scans oldest-first when true. The default (false) yields
	// newest-first because sort keys embed a leading sortable timestamp.
	Ascending bool
	// StartKey resumes a previous page.
	StartKey Item
	// ExcludeStatus drops items whose status attribute equals the value,
	// after the index fetch (pages may come back short).
	ExcludeStatus string
}

// QueryResult is one page of items plus the continuation key, nil when the
// scan is exhausted.
type QueryResult struct {
	Items   []Item
	LastKey Item
}

// TransactPut, TransactUpdate and TransactDelete are the branches of a
// transactional write.
type TransactPut struct {
	Item      Item
	Condition Condition
}

type TransactUpdate struct {
	Key       schema.Key
	Patch     Patch
	Condition Condition
}

type TransactDelete struct {
	Key       schema.Key
	Condition Condition
}

// TransactItem holds exactly one branch.
type TransactItem struct {
	Put    *TransactPut
	Update *TransactUpdate
	Delete *TransactDelete
}

// Store is the narrow keyspace contract the repositories are written against.
// The production implementation sits on DynamoDB; tests substitute an
// in-memory fake with the same semantics.
type Store interface {
	// Get returns the item at key, or nil when absent.
	Get(ctx context.Context, key schema.Key) (Item, error)

	// Put writes item, evaluating cond atomically with the write.
	Put(ctx context.Context, item Item, cond Condition) error

	// Update applies patch to the item at key under cond. The item is
	// created when absent and the condition allows it.
	Update(ctx context.Context, key schema.Key, patch Patch, cond Condition) error

	// Delete removes the item at key under cond.
	Delete(ctx context.Context, key schema.Key, cond Condition) error

	// Query reads one page from an index.
	Query(ctx context.Context, q Query) (QueryResult, error)

	// TransactWrite applies all items or none; any failed branch condition
	// yields ErrTransactionCanceled.
	TransactWrite(ctx context.Context, items []TransactItem) error
}
