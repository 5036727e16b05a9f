// ABOUTME: Interaction MCP tool handlers
// ABOUTME: Implements log_interaction and delete_interaction; counters move with each call
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

type InteractionHandlers struct {
	db     *sql.DB
	userID uuid.UUID
}

func NewInteractionHandlers(database *sql.DB, userID uuid.UUID) *InteractionHandlers {
	return &InteractionHandlers{db: database, userID: userID}
}

type LogInteractionInput struct {
	PostmanID   string `json:"postman_id" jsonschema:"Postman ID (required)"`
	Type        string `json:"type" jsonschema:"GIVE when you helped them, TAKE when they helped you"`
	Category    string `json:"category" jsonschema:"What kind of help, e.g. 소개, 정보, 선물"`
	Description string `json:"description" jsonschema:"What happened"`
	Date        string `json:"date,omitempty" jsonschema:"Date in YYYY-MM-DD format (defaults to now)"`
}

type InteractionOutput struct {
	ID          string `json:"id"`
	PostmanID   string `json:"postman_id"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
	GiveScore   int    `json:"give_score"`
	TakeScore   int    `json:"take_score"`
}

func (h *InteractionHandlers) LogInteraction(ctx context.Context, _ *mcp.CallToolRequest, input LogInteractionInput) (*mcp.CallToolResult, InteractionOutput, error) {
	postmanID, err := uuid.Parse(input.PostmanID)
	if err != nil {
		return nil, InteractionOutput{}, fmt.Errorf("invalid postman_id: %w", err)
	}

	in := &models.Interaction{
		UserID:      h.userID,
		PostmanID:   postmanID,
		Type:        models.InteractionType(input.Type),
		Category:    input.Category,
		Description: input.Description,
	}
	if input.Date != "" {
		d, err := db.ParseDate(input.Date)
		if err != nil {
			return nil, InteractionOutput{}, err
		}
		in.Date = d
	}

	if err := db.CreateInteraction(ctx, h.db, in); err != nil {
		return nil, InteractionOutput{}, fmt.Errorf("failed to log interaction: %w", err)
	}

	p, err := db.GetPostman(ctx, h.db, postmanID)
	if err != nil {
		return nil, InteractionOutput{}, err
	}
	out := InteractionOutput{
		ID:          in.ID.String(),
		PostmanID:   postmanID.String(),
		Type:        string(in.Type),
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date.Format(time.RFC3339),
	}
	if p != nil {
		out.GiveScore, out.TakeScore = p.GiveScore, p.TakeScore
	}
	return nil, out, nil
}

type DeleteInteractionInput struct {
	ID string `json:"id" jsonschema:"Interaction ID (required)"`
}

type DeleteInteractionOutput struct {
	Deleted bool `json:"deleted"`
}

func (h *InteractionHandlers) DeleteInteraction(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInteractionInput) (*mcp.CallToolResult, DeleteInteractionOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, DeleteInteractionOutput{}, fmt.Errorf("invalid id: %w", err)
	}
	if err := db.DeleteInteraction(ctx, h.db, id, h.userID); err != nil {
		return nil, DeleteInteractionOutput{}, fmt.Errorf("failed to delete interaction: %w", err)
	}
	return nil, DeleteInteractionOutput{Deleted: true}, nil
}
