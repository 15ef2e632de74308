// Package stream provides DynamoDB Streams handlers that keep the workspace
// registry in step with the graph tables.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/trellis-memory/graph"
	"github.com/jacentio/trellis-memory/table"
)

// Registrar registers workspaces by name.
type Registrar interface {
	EnsureWorkspace(ctx context.Context, name string) (graph.Workspace, bool, error)
}

// Handler processes stream events from the entities and relations tables.
type Handler struct {
	workspaces Registrar
	logger     *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(workspaces Registrar, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		workspaces: workspaces,
		logger:     logger,
	}
}

// HandleWorkspaceRegistration registers the workspace of every row written
// to a graph table. Each workspace is registered at most once per batch.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleWorkspaceRegistration(ctx context.Context, event events.DynamoDBEvent) error {
	seen := make(map[string]bool)
	for _, record := range event.Records {
		workspace := recordWorkspace(record)
		if workspace == "" || seen[workspace] {
			continue
		}
		seen[workspace] = true

		if err := h.register(ctx, workspace); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"workspace", workspace,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

func (h *Handler) register(ctx context.Context, workspace string) error {
	ws, created, err := h.workspaces.EnsureWorkspace(ctx, workspace)
	if err != nil {
		return fmt.Errorf("register workspace %q: %w", workspace, err)
	}
	if created {
		h.logger.Info("workspace registered from stream",
			"workspace", ws.Name,
			"id", ws.ID,
		)
	}
	return nil
}

// recordWorkspace returns the workspace a record belongs to, or "" when the
// record should be skipped. Removals never register a workspace.
func recordWorkspace(record events.DynamoDBEventRecord) string {
	if record.EventName != "INSERT" && record.EventName != "MODIFY" {
		return ""
	}
	if ws := getStringAttr(record.Change.NewImage, "WorkspaceName"); ws != "" {
		return ws
	}
	partitionKey, _ := ConvertStreamKey(record.Change.Keys)
	return partitionKey
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// ConvertStreamKey extracts the partition and row keys from a stream record
// key. Missing or non-string key attributes yield "".
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) (partitionKey, rowKey string) {
	return getStringAttr(streamKey, table.PartitionKeyField), getStringAttr(streamKey, table.RowKeyField)
}
