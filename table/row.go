package table

// Row is a flat table row. All field values are strings.
type Row struct {
	PartitionKey string
	RowKey       string
	Fields       map[string]string
}

// NewRow creates a row with an empty field set.
func NewRow(partitionKey, rowKey string) Row {
	return Row{
		PartitionKey: partitionKey,
		RowKey:       rowKey,
		Fields:       make(map[string]string),
	}
}

// Get returns the named field, or "" when absent.
func (r Row) Get(field string) string {
	switch field {
	case PartitionKeyField:
		return r.PartitionKey
	case RowKeyField:
		return r.RowKey
	}
	return r.Fields[field]
}

// Set sets a field and returns the row for chaining.
func (r Row) Set(field, value string) Row {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[field] = value
	return r
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := Row{PartitionKey: r.PartitionKey, RowKey: r.RowKey, Fields: make(map[string]string, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}
