package store

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MemTable is an in-memory Table used by tests and local runs. It mirrors
// the DynamoTable contract: rows keyed by partition key plus optional "sk"
// range key, full-partition queries.
type MemTable struct {
	mu         sync.RWMutex
	pkAttr     string
	hasSortKey bool
	partitions map[string]map[string]Row
}

// NewMemTable creates an in-memory table. hasSortKey selects the composite
// (pk, sk) key layout used by projection tables.
func NewMemTable(pkAttr string, hasSortKey bool) *MemTable {
	return &MemTable{
		pkAttr:     pkAttr,
		hasSortKey: hasSortKey,
		partitions: make(map[string]map[string]Row),
	}
}

func attrString(row Row, name string) string {
	if row == nil {
		return ""
	}
	if s, ok := row[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (t *MemTable) rowKey(item Row) (pk, sk string) {
	pk = attrString(item, t.pkAttr)
	if t.hasSortKey {
		sk = attrString(item, "sk")
	}
	return pk, sk
}

func copyRow(row Row) Row {
	cp := make(Row, len(row))
	for k, v := range row {
		cp[k] = v
	}
	return cp
}

func (t *MemTable) Put(_ context.Context, item Row) error {
	pk, sk := t.rowKey(item)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.partitions[pk] == nil {
		t.partitions[pk] = make(map[string]Row)
	}
	t.partitions[pk][sk] = copyRow(item)
	return nil
}

func (t *MemTable) PutIfNotExists(ctx context.Context, item Row) error {
	pk, sk := t.rowKey(item)
	t.mu.Lock()
	if _, ok := t.partitions[pk][sk]; ok {
		t.mu.Unlock()
		return ErrConflict
	}
	t.mu.Unlock()
	return t.Put(ctx, item)
}

func (t *MemTable) Get(_ context.Context, key Row) (Row, error) {
	pk, sk := t.rowKey(key)
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.partitions[pk][sk]
	if !ok {
		return nil, nil
	}
	return copyRow(row), nil
}

func (t *MemTable) Query(_ context.Context, _ string, pkValue string) ([]Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]Row, 0, len(t.partitions[pkValue]))
	for _, row := range t.partitions[pkValue] {
		rows = append(rows, copyRow(row))
	}
	return rows, nil
}

func (t *MemTable) Delete(_ context.Context, key Row) error {
	pk, sk := t.rowKey(key)
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.partitions[pk], sk)
	return nil
}
