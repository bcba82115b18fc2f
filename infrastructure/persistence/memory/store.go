// Package memory provides an in-memory implementation of the store contract
// with the same condition, query, and transaction semantics as the DynamoDB
// implementation. Tests substitute it for the real table.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"schemstory-backend/application/ports"
	"schemstory-backend/infrastructure/persistence/schema"
)

// Store is a mutex-guarded single-table keyspace.
type Store struct {
	mu    sync.Mutex
	items map[string]ports.Item
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{items: make(map[string]ports.Item)}
}

func itemKey(pk, sk string) string {
	return pk + "\x00" + sk
}

func primaryKeyOf(item ports.Item) (string, string, bool) {
	pk, okPK := stringAttr(item, schema.AttrPK)
	sk, okSK := stringAttr(item, schema.AttrSK)
	return pk, sk, okPK && okSK
}

func stringAttr(item ports.Item, name string) (string, bool) {
	if item == nil {
		return "", false
	}
	s, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func copyItem(item ports.Item) ports.Item {
	if item == nil {
		return nil
	}
	out := make(ports.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// attrEqual compares a stored attribute against a plain Go value by
// marshaling the expectation through the same codec the repositories use.
func attrEqual(stored types.AttributeValue, expected any) bool {
	want, err := attributevalue.Marshal(expected)
	if err != nil {
		return false
	}
	switch w := want.(type) {
	case *types.AttributeValueMemberS:
		s, ok := stored.(*types.AttributeValueMemberS)
		return ok && s.Value == w.Value
	case *types.AttributeValueMemberN:
		n, ok := stored.(*types.AttributeValueMemberN)
		return ok && n.Value == w.Value
	case *types.AttributeValueMemberBOOL:
		b, ok := stored.(*types.AttributeValueMemberBOOL)
		return ok && b.Value == w.Value
	default:
		return false
	}
}

// checkCondition evaluates cond against the current item (nil when absent).
func checkCondition(current ports.Item, cond ports.Condition) bool {
	if cond.NotExists && current != nil {
		return false
	}
	if cond.Exists && current == nil {
		return false
	}
	for name, expected := range cond.Equals {
		if current == nil {
			return false
		}
		stored, ok := current[name]
		if !ok || !attrEqual(stored, expected) {
			return false
		}
	}
	return true
}

func applyPatch(current ports.Item, key schema.Key, patch ports.Patch) (ports.Item, error) {
	item := copyItem(current)
	if item == nil {
		item = ports.Item{
			schema.AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			schema.AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		}
	}

	for name, value := range patch.Set {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		item[name] = av
	}

	for name, delta := range patch.Add {
		var current int
		if n, ok := item[name].(*types.AttributeValueMemberN); ok {
			parsed, err := strconv.Atoi(n.Value)
			if err != nil {
				return nil, fmt.Errorf("attribute %s is not numeric", name)
			}
			current = parsed
		}
		item[name] = &types.AttributeValueMemberN{Value: strconv.Itoa(current + delta)}
	}

	for _, name := range patch.Remove {
		delete(item, name)
	}

	return item, nil
}

// Get returns the item at key, or nil when absent.
func (s *Store) Get(_ context.Context, key schema.Key) (ports.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItem(s.items[itemKey(key.PK, key.SK)]), nil
}

// Put writes item under cond.
func (s *Store) Put(_ context.Context, item ports.Item, cond ports.Condition) error {
	pk, sk, ok := primaryKeyOf(item)
	if !ok {
		return fmt.Errorf("item missing primary key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !checkCondition(s.items[itemKey(pk, sk)], cond) {
		return ports.ErrConditionFailed
	}
	s.items[itemKey(pk, sk)] = copyItem(item)
	return nil
}

// Update applies patch under cond, creating the item when absent.
func (s *Store) Update(_ context.Context, key schema.Key, patch ports.Patch, cond ports.Condition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.items[itemKey(key.PK, key.SK)]
	if !checkCondition(current, cond) {
		return ports.ErrConditionFailed
	}

	updated, err := applyPatch(current, key, patch)
	if err != nil {
		return err
	}
	s.items[itemKey(key.PK, key.SK)] = updated
	return nil
}

// Delete removes the item at key under cond.
func (s *Store) Delete(_ context.Context, key schema.Key, cond ports.Condition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !checkCondition(s.items[itemKey(key.PK, key.SK)], cond) {
		return ports.ErrConditionFailed
	}
	delete(s.items, itemKey(key.PK, key.SK))
	return nil
}

// Query reads one page, mirroring the provider's order of operations: key
// match, sort, limit, then the status post-filter (pages may come back
// short of the limit).
func (s *Store) Query(_ context.Context, q ports.Query) (ports.QueryResult, error) {
	pkAttr, skAttr := schema.IndexKeyAttrs(q.Index)

	s.mu.Lock()
	candidates := make([]ports.Item, 0)
	for _, item := range s.items {
		partition, ok := stringAttr(item, pkAttr)
		if !ok || partition != q.Partition {
			continue
		}
		sortValue, ok := stringAttr(item, skAttr)
		if !ok {
			continue
		}
		if q.SortPrefix != "" && !strings.HasPrefix(sortValue, q.SortPrefix) {
			continue
		}
		candidates = append(candidates, copyItem(item))
	}
	s.mu.Unlock()

	sort.Slice(candidates, func(i, j int) bool {
		si, _ := stringAttr(candidates[i], skAttr)
		sj, _ := stringAttr(candidates[j], skAttr)
		if si != sj {
			if q.Ascending {
				return si < sj
			}
			return si > sj
		}
		pi, ski, _ := primaryKeyOf(candidates[i])
		pj, skj, _ := primaryKeyOf(candidates[j])
		return pi+ski < pj+skj
	})

	start := 0
	if len(q.StartKey) > 0 {
		wantPK, _ := stringAttr(q.StartKey, schema.AttrPK)
		wantSK, _ := stringAttr(q.StartKey, schema.AttrSK)
		for i, item := range candidates {
			pk, sk, _ := primaryKeyOf(item)
			if pk == wantPK && sk == wantSK {
				start = i + 1
				break
			}
		}
	}

	end := len(candidates)
	if q.Limit > 0 && start+int(q.Limit) < end {
		end = start + int(q.Limit)
	}
	page := candidates[start:end]

	var lastKey ports.Item
	if end < len(candidates) && len(page) > 0 {
		last := page[len(page)-1]
		lastKey = ports.Item{
			schema.AttrPK: last[schema.AttrPK],
			schema.AttrSK: last[schema.AttrSK],
		}
		if q.Index != "" {
			lastKey[pkAttr] = last[pkAttr]
			lastKey[skAttr] = last[skAttr]
		}
	}

	if q.ExcludeStatus != "" {
		filtered := make([]ports.Item, 0, len(page))
		for _, item := range page {
			if status, ok := stringAttr(item, schema.AttrStatus); ok && status == q.ExcludeStatus {
				continue
			}
			filtered = append(filtered, item)
		}
		page = filtered
	}

	return ports.QueryResult{Items: page, LastKey: lastKey}, nil
}

// TransactWrite checks every branch condition against the current state and
// applies all writes only if every one holds.
func (s *Store) TransactWrite(_ context.Context, items []ports.TransactItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		switch {
		case item.Put != nil:
			pk, sk, ok := primaryKeyOf(item.Put.Item)
			if !ok {
				return fmt.Errorf("transact put missing primary key")
			}
			if !checkCondition(s.items[itemKey(pk, sk)], item.Put.Condition) {
				return ports.ErrTransactionCanceled
			}
		case item.Update != nil:
			key := item.Update.Key
			if !checkCondition(s.items[itemKey(key.PK, key.SK)], item.Update.Condition) {
				return ports.ErrTransactionCanceled
			}
		case item.Delete != nil:
			key := item.Delete.Key
			if !checkCondition(s.items[itemKey(key.PK, key.SK)], item.Delete.Condition) {
				return ports.ErrTransactionCanceled
			}
		default:
			return fmt.Errorf("empty transact item")
		}
	}

	for _, item := range items {
		switch {
		case item.Put != nil:
			pk, sk, _ := primaryKeyOf(item.Put.Item)
			s.items[itemKey(pk, sk)] = copyItem(item.Put.Item)
		case item.Update != nil:
			key := item.Update.Key
			updated, err := applyPatch(s.items[itemKey(key.PK, key.SK)], key, item.Update.Patch)
			if err != nil {
				return err
			}
			s.items[itemKey(key.PK, key.SK)] = updated
		case item.Delete != nil:
			key := item.Delete.Key
			delete(s.items, itemKey(key.PK, key.SK))
		}
	}

	return nil
}

// Len reports how many items the table holds. Test helper.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
