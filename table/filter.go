package table

import "strings"

const (
	// PartitionKeyField is the logical name of the partition key.
	PartitionKeyField = "PartitionKey"

	// RowKeyField is the logical name of the row key.
	RowKeyField = "RowKey"
)

// OpEq is the only supported comparison operator.
const OpEq = "eq"

// Condition is a single field/operator/value triple.
type Condition struct {
	Field string
	Op    string
	Value string
}

// Filter is an equality conjunction scoped to one partition.
// The zero value matches nothing; build filters with Partition.
type Filter struct {
	partition  string
	conditions []Condition
}

// Partition starts a filter that selects every row in the partition.
func Partition(partitionKey string) Filter {
	return Filter{partition: partitionKey}
}

// And returns a copy of the filter with an additional equality condition.
func (f Filter) And(field, value string) Filter {
	conds := make([]Condition, len(f.conditions), len(f.conditions)+1)
	copy(conds, f.conditions)
	return Filter{
		partition:  f.partition,
		conditions: append(conds, Condition{Field: field, Op: OpEq, Value: value}),
	}
}

// PartitionKey returns the partition the filter is scoped to.
func (f Filter) PartitionKey() string {
	return f.partition
}

// Conditions returns the non-partition conditions in the order they were added.
func (f Filter) Conditions() []Condition {
	out := make([]Condition, len(f.conditions))
	copy(out, f.conditions)
	return out
}

// Matches reports whether the row satisfies every condition of the filter.
func (f Filter) Matches(r Row) bool {
	if r.PartitionKey != f.partition {
		return false
	}
	for _, c := range f.conditions {
		if r.Get(c.Field) != c.Value {
			return false
		}
	}
	return true
}

// String renders the filter in the "Field eq 'value'" predicate grammar.
func (f Filter) String() string {
	var b strings.Builder
	b.WriteString(PartitionKeyField + " eq '" + EscapeValue(f.partition) + "'")
	for _, c := range f.conditions {
		b.WriteString(" and " + c.Field + " " + c.Op + " '" + EscapeValue(c.Value) + "'")
	}
	return b.String()
}

// EscapeValue doubles embedded single quotes.
func EscapeValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
