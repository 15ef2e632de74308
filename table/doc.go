// Package table provides the partitioned key-value table adapter the knowledge
// graph is stored in.
//
// Every row is addressed by a partition key and a row key. A [Table] supports
// point lookups, filtered scans within one partition, full-replace upserts,
// create-if-absent inserts and idempotent deletes. Two backends are provided:
//
//   - [Dynamo], backed by Amazon DynamoDB (one DynamoDB table per logical table,
//     hash key "PartitionKey", range key "RowKey")
//   - [Memory], a process-local map used by tests and the development server
//
// # Filters
//
// Scans are described with a [Filter], a conjunction of equality conditions
// built from explicit field/value pairs:
//
//	f := table.Partition("proj1").And("Name", "O'Brien")
//	f.String() // PartitionKey eq 'proj1' and Name eq 'O''Brien'
//
// Values are never interpolated into backend expressions. The rendered form is
// the only place quote escaping happens and exists for logs and diagnostics.
//
// # Page size
//
// [QueryInput.PageSize] bounds how many rows the backend evaluates per request
// and [QueryInput.Limit] bounds how many matching rows are returned. A unique
// lookup by a non-key field uses Limit=1 alone; the backend keeps paging until
// a match is found or the partition is exhausted. DynamoDB counts its Limit
// before FilterExpression, so the Dynamo backend drops PageSize on queries with
// non-key conditions and reads full pages instead.
package table
