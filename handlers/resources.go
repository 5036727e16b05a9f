// ABOUTME: MCP resource handlers exposing postman data read-only
// ABOUTME: Serves postman://postmen, postman://postmen/{id} and postman://pipeline
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
)

const resourceScheme = "postman://"

type ResourceHandlers struct {
	db     *sql.DB
	userID uuid.UUID
}

func NewResourceHandlers(database *sql.DB, userID uuid.UUID) *ResourceHandlers {
	return &ResourceHandlers{db: database, userID: userID}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "postmen":
		if len(parts) == 1 || parts[1] == "" {
			return h.readAllPostmen(ctx, uri)
		}
		return h.readPostman(ctx, uri, parts[1])
	case "pipeline":
		return h.readPipeline(ctx, uri)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func (h *ResourceHandlers) readAllPostmen(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	postmen, err := db.ListPostmen(ctx, h.db, db.PostmanFilter{UserID: h.userID, Order: db.OrderName})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch postmen: %w", err)
	}
	out := make([]PostmanOutput, len(postmen))
	for i := range postmen {
		out[i] = postmanToOutput(&postmen[i])
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readPostman(ctx context.Context, uri, rawID string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid postman id: %w", err)
	}
	p, err := db.GetPostman(ctx, h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch postman: %w", err)
	}
	if p == nil || p.UserID != h.userID {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return jsonResource(uri, postmanToOutput(p))
}

func (h *ResourceHandlers) readPipeline(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	postmen, err := db.ListPostmen(ctx, h.db, db.PostmanFilter{UserID: h.userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch postmen: %w", err)
	}
	stages := make([]models.Stage, len(postmen))
	for i, p := range postmen {
		stages[i] = p.Stage
	}
	return jsonResource(uri, metrics.StageDistribution(stages))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
