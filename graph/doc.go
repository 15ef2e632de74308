// Package graph stores a multi-tenant knowledge graph of entities and typed
// relations on top of a partitioned table backend.
//
// Every workspace is one partition. Entities are identified by name within a
// workspace and relations by their (source, target, type) triple; both carry
// an opaque identifier that is assigned on first upsert and reused by every
// later upsert of the same natural key.
//
// # Identity
//
// Upserts build an immutable candidate ([EntityCandidate], [RelationCandidate]),
// resolve its identifier, and write the resulting [Entity] or [Relation]. With
// [Config.ClaimNaturalKeys] enabled (the default), the identifier is claimed in
// the natural-key table with a create-if-absent write keyed by a hash of the
// natural key. Concurrent upserts of one natural key therefore agree on one
// identifier and write one row; the last writer's fields win.
//
// With ClaimNaturalKeys disabled, resolution is a filtered lookup followed by an
// unconditional write. Two concurrent first upserts of one natural key can then
// both mint identifiers and leave two rows.
//
// # Reads
//
// [Service.ReadGraph] runs the entity scan and the relation scan concurrently.
// The scans are independent and may observe different points in time.
// Relations whose endpoints do not resolve to an entity are returned as-is.
package graph
