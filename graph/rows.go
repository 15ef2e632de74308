package graph

import (
	"strings"
	"time"

	"github.com/jacentio/trellis-memory/internal/keys"
	"github.com/jacentio/trellis-memory/table"
)

// ObservationSeparator joins observations into the single stored field.
const ObservationSeparator = "||"

// Row field names.
const (
	fieldID            = "Id"
	fieldWorkspaceName = "WorkspaceName"
	fieldName          = "Name"
	fieldEntityType    = "EntityType"
	fieldObservations  = "Observations"
	fieldMetadata      = "Metadata"
	fieldFromEntityID  = "FromEntityId"
	fieldToEntityID    = "ToEntityId"
	fieldRelationType  = "RelationType"
	fieldDescription   = "Description"
	fieldCreatedAt     = "CreatedAt"
	fieldKind          = "Kind"
)

func entityToRow(e Entity) table.Row {
	return table.NewRow(e.WorkspaceName, e.ID).
		Set(fieldID, e.ID).
		Set(fieldWorkspaceName, e.WorkspaceName).
		Set(fieldName, e.Name).
		Set(fieldEntityType, e.EntityType).
		Set(fieldObservations, joinObservations(e.Observations)).
		Set(fieldMetadata, e.Metadata)
}

// entityFromRow reconstructs an entity. The workspace comes from the
// partition key; the identifier falls back to the row key when the Id field
// is missing or malformed.
func entityFromRow(r table.Row) Entity {
	return Entity{
		ID:            rowID(r),
		WorkspaceName: r.PartitionKey,
		Name:          r.Get(fieldName),
		EntityType:    r.Get(fieldEntityType),
		Observations:  splitObservations(r.Get(fieldObservations)),
		Metadata:      r.Get(fieldMetadata),
	}
}

func relationToRow(rel Relation) table.Row {
	return table.NewRow(rel.WorkspaceName, rel.ID).
		Set(fieldID, rel.ID).
		Set(fieldWorkspaceName, rel.WorkspaceName).
		Set(fieldFromEntityID, rel.FromEntityID).
		Set(fieldToEntityID, rel.ToEntityID).
		Set(fieldRelationType, rel.RelationType).
		Set(fieldMetadata, rel.Metadata)
}

func relationFromRow(r table.Row) Relation {
	return Relation{
		ID:            rowID(r),
		WorkspaceName: r.PartitionKey,
		FromEntityID:  r.Get(fieldFromEntityID),
		ToEntityID:    r.Get(fieldToEntityID),
		RelationType:  r.Get(fieldRelationType),
		Metadata:      r.Get(fieldMetadata),
	}
}

func workspaceToRow(w Workspace) table.Row {
	row := table.NewRow(keys.WorkspacesPartition, keys.WorkspaceRowKey(w.Name)).
		Set(fieldID, w.ID).
		Set(fieldName, w.Name).
		Set(fieldDescription, w.Description)
	if w.CreatedAt != nil {
		row = row.Set(fieldCreatedAt, w.CreatedAt.UTC().Format(time.RFC3339))
	}
	return row
}

func workspaceFromRow(r table.Row) Workspace {
	w := Workspace{
		ID:          r.Get(fieldID),
		Name:        r.Get(fieldName),
		Description: r.Get(fieldDescription),
	}
	if w.Name == "" {
		w.Name = r.RowKey
	}
	if ts, err := time.Parse(time.RFC3339, r.Get(fieldCreatedAt)); err == nil {
		w.CreatedAt = &ts
	}
	return w
}

func rowID(r table.Row) string {
	if id, ok, err := keys.ParseID(r.Get(fieldID)); err == nil && ok {
		return id
	}
	return r.RowKey
}

func joinObservations(obs []string) string {
	return strings.Join(obs, ObservationSeparator)
}

// splitObservations splits the stored field back into a list, dropping the
// empty items produced by an empty field or trailing separators.
func splitObservations(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ObservationSeparator) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
