// ABOUTME: MCP prompt handlers that package postman context for an agent
// ABOUTME: Provides relationship-review and weekly-reflection prompts
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

const promptHistoryLimit = 10

type PromptHandlers struct {
	db     *sql.DB
	userID uuid.UUID
}

func NewPromptHandlers(database *sql.DB, userID uuid.UUID) *PromptHandlers {
	return &PromptHandlers{db: database, userID: userID}
}

func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "relationship-review":
		return h.relationshipReview(ctx, request.Params.Arguments)
	case "weekly-reflection":
		return h.weeklyReflection(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) relationshipReview(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	rawID, ok := args["postman_id"]
	if !ok {
		return nil, fmt.Errorf("postman_id is required")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid postman_id: %w", err)
	}

	scored, err := viz.ScorePostman(ctx, h.db, h.userID, id, time.Now())
	if err != nil {
		return nil, err
	}
	p := scored.Postman
	history, err := db.ListInteractions(ctx, h.db, db.InteractionFilter{
		UserID:    h.userID,
		PostmanID: id,
		Limit:     promptHistoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}

	var b strings.Builder
	b.WriteString("Review my relationship with this person:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	if p.Company != "" {
		fmt.Fprintf(&b, "Company: %s %s\n", p.Company, p.Position)
	}
	fmt.Fprintf(&b, "Stage: %s\n", p.Stage.Label())
	fmt.Fprintf(&b, "Give/Take: %d/%d\n", p.GiveScore, p.TakeScore)
	fmt.Fprintf(&b, "Relationship score: %d (frequency %d, recency %d, balance %d, profile %d)\n",
		scored.Total, scored.Breakdown.Frequency, scored.Breakdown.Recency, scored.Breakdown.Balance, scored.Breakdown.Profile)
	if p.LastContact != nil {
		fmt.Fprintf(&b, "Last contact: %s\n", p.LastContact.Format(models.DateLayout))
	}
	if p.Interests != "" {
		fmt.Fprintf(&b, "Interests: %s\n", p.Interests)
	}
	if p.Goals != "" {
		fmt.Fprintf(&b, "Their goals: %s\n", p.Goals)
	}
	if len(history) > 0 {
		b.WriteString("\nRecent interactions:\n")
		for _, in := range history {
			fmt.Fprintf(&b, "- %s [%s] %s: %s\n", in.Date.Format(models.DateLayout), in.Type, in.Category, in.Description)
		}
	}

	b.WriteString("\nPlease suggest:")
	b.WriteString("\n1. Whether the give/take balance needs attention")
	b.WriteString("\n2. A concrete way to give value to them this week")
	b.WriteString("\n3. Whether they are ready to move to the next stage")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Relationship review for %s", p.Name),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: b.String()}},
		},
	}, nil
}

func (h *PromptHandlers) weeklyReflection(ctx context.Context) (*mcp.GetPromptResult, error) {
	d, err := viz.GenerateUserDashboard(ctx, h.db, h.userID, time.Now())
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Here is my relationship dashboard for this week:\n\n")
	b.WriteString(viz.RenderDashboard(d))
	b.WriteString("\nHelp me reflect on the week and pick three people to reach out to next.")

	return &mcp.GetPromptResult{
		Description: "Weekly relationship reflection",
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: b.String()}},
		},
	}, nil
}
