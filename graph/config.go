package graph

// Config holds configuration for the graph stores.
type Config struct {
	// EntitiesTable is the name of the entities table.
	// Default: "entities"
	EntitiesTable string

	// RelationsTable is the name of the relations table.
	// Default: "relations"
	RelationsTable string

	// WorkspacesTable is the name of the workspaces table.
	// Default: "workspaces"
	WorkspacesTable string

	// NaturalKeysTable is the name of the natural-key claim table.
	// Default: "natural_keys"
	NaturalKeysTable string

	// ClaimNaturalKeys serialises identity assignment through claim rows.
	// When false, upserts fall back to lookup-then-write.
	// Default: true
	ClaimNaturalKeys bool
}

// DefaultConfig returns the default table names with natural-key claims enabled.
func DefaultConfig() Config {
	return Config{
		EntitiesTable:    "entities",
		RelationsTable:   "relations",
		WorkspacesTable:  "workspaces",
		NaturalKeysTable: "natural_keys",
		ClaimNaturalKeys: true,
	}
}

// Tables returns every table name the stores use.
func (c Config) Tables() []string {
	return []string{c.EntitiesTable, c.RelationsTable, c.WorkspacesTable, c.NaturalKeysTable}
}

// validate fills in missing table names.
func (c *Config) validate() {
	if c.EntitiesTable == "" {
		c.EntitiesTable = "entities"
	}
	if c.RelationsTable == "" {
		c.RelationsTable = "relations"
	}
	if c.WorkspacesTable == "" {
		c.WorkspacesTable = "workspaces"
	}
	if c.NaturalKeysTable == "" {
		c.NaturalKeysTable = "natural_keys"
	}
}
