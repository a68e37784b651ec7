package core

import (
	"fmt"
	"sort"
	"sync"
)

// TableDefinition describes one store table the pipeline touches: its
// canonical column order for inserts, the column ordered scans use, and
// how a domain value becomes an insert row.
type TableDefinition struct {
	// Key is the table name in the store.
	Key string

	// Columns is the insert column order.
	Columns []string

	// OrderColumn is the column ScanOrdered sorts by. Empty for tables the
	// pipeline only writes.
	OrderColumn string

	// BuildRow converts a domain value (Record or Payment) to insert
	// values matching Columns. Nil for read-only tables.
	BuildRow func(v any) []any
}

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// RegisterTable adds a table definition to the registry. Panics if the key
// is already registered.
func RegisterTable(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Key))
	}
	registry[def.Key] = def
}

// GetTable returns a table definition by key.
func GetTable(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// AllTables returns all registered table definitions sorted by key.
func AllTables() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// ClearTables removes all registered tables. Primarily useful for testing.
func ClearTables() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}

// mustTable fetches a registered table or panics; the pipeline depends on
// the tables package having been imported for side effects.
func mustTable(key string) TableDefinition {
	def, ok := GetTable(key)
	if !ok {
		panic(fmt.Sprintf("table not registered: %s (import internal/core/tables)", key))
	}
	return def
}

// Store table keys.
const (
	TableDelivery = "delivery_success"
	TablePayments = "pagamento_delivery"
	TablePricing  = "valores_meli"
)
