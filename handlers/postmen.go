// ABOUTME: Postman MCP tool handlers
// ABOUTME: Implements add_postman, find_postmen and get_relationship_score tools
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
	"github.com/relationcraft/postman/viz"
)

const defaultFindLimit = 10

type PostmanHandlers struct {
	db     *sql.DB
	userID uuid.UUID
}

func NewPostmanHandlers(database *sql.DB, userID uuid.UUID) *PostmanHandlers {
	return &PostmanHandlers{db: database, userID: userID}
}

type AddPostmanInput struct {
	Name     string `json:"name" jsonschema:"Postman name (required)"`
	Company  string `json:"company,omitempty" jsonschema:"Company the person works at"`
	Position string `json:"position,omitempty" jsonschema:"Job title"`
	Phone    string `json:"phone,omitempty" jsonschema:"Phone number"`
	Email    string `json:"email,omitempty" jsonschema:"Email address"`
	Category string `json:"category,omitempty" jsonschema:"포스트맨 (default) or 포스트맨PLUS"`
	Stage    string `json:"stage,omitempty" jsonschema:"Pipeline stage key or Korean label (default first_meeting)"`
	Notes    string `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type PostmanOutput struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Company     string  `json:"company,omitempty"`
	Position    string  `json:"position,omitempty"`
	Email       string  `json:"email,omitempty"`
	Category    string  `json:"category"`
	Stage       string  `json:"stage"`
	StageLabel  string  `json:"stage_label"`
	GiveScore   int     `json:"give_score"`
	TakeScore   int     `json:"take_score"`
	LastContact *string `json:"last_contact,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

func (h *PostmanHandlers) AddPostman(ctx context.Context, _ *mcp.CallToolRequest, input AddPostmanInput) (*mcp.CallToolResult, PostmanOutput, error) {
	if input.Name == "" {
		return nil, PostmanOutput{}, fmt.Errorf("name is required")
	}

	p := &models.Postman{
		UserID:   h.userID,
		Name:     input.Name,
		Company:  input.Company,
		Position: input.Position,
		Phone:    input.Phone,
		Email:    input.Email,
		Notes:    input.Notes,
	}
	if input.Category != "" {
		c, err := models.ParseCategory(input.Category)
		if err != nil {
			return nil, PostmanOutput{}, err
		}
		p.Category = c
	}
	if input.Stage != "" {
		st, err := models.ParseStage(input.Stage)
		if err != nil {
			return nil, PostmanOutput{}, err
		}
		p.Stage = st
	}

	if err := db.CreatePostman(ctx, h.db, p); err != nil {
		return nil, PostmanOutput{}, fmt.Errorf("failed to create postman: %w", err)
	}
	return nil, postmanToOutput(p), nil
}

type FindPostmenInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search query (matches name, company and email)"`
	Stage string `json:"stage,omitempty" jsonschema:"Filter by pipeline stage"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindPostmenOutput struct {
	Postmen []PostmanOutput `json:"postmen"`
}

func (h *PostmanHandlers) FindPostmen(ctx context.Context, _ *mcp.CallToolRequest, input FindPostmenInput) (*mcp.CallToolResult, FindPostmenOutput, error) {
	filter := db.PostmanFilter{UserID: h.userID, Query: input.Query, Limit: input.Limit}
	if filter.Limit == 0 {
		filter.Limit = defaultFindLimit
	}
	if input.Stage != "" {
		st, err := models.ParseStage(input.Stage)
		if err != nil {
			return nil, FindPostmenOutput{}, err
		}
		filter.Stage = st
	}

	postmen, err := db.ListPostmen(ctx, h.db, filter)
	if err != nil {
		return nil, FindPostmenOutput{}, fmt.Errorf("failed to find postmen: %w", err)
	}

	result := make([]PostmanOutput, len(postmen))
	for i := range postmen {
		result[i] = postmanToOutput(&postmen[i])
	}
	return nil, FindPostmenOutput{Postmen: result}, nil
}

type GetScoreInput struct {
	PostmanID string `json:"postman_id" jsonschema:"Postman ID (required)"`
}

type ScoreOutput struct {
	PostmanID string `json:"postman_id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Frequency int    `json:"frequency"`
	Recency   int    `json:"recency"`
	Balance   int    `json:"balance"`
	Profile   int    `json:"profile"`
}

func (h *PostmanHandlers) GetRelationshipScore(ctx context.Context, _ *mcp.CallToolRequest, input GetScoreInput) (*mcp.CallToolResult, ScoreOutput, error) {
	id, err := uuid.Parse(input.PostmanID)
	if err != nil {
		return nil, ScoreOutput{}, fmt.Errorf("invalid postman_id: %w", err)
	}

	scored, err := viz.ScorePostman(ctx, h.db, h.userID, id, time.Now())
	if err != nil {
		return nil, ScoreOutput{}, err
	}
	return nil, scoreToOutput(scored), nil
}

func scoreToOutput(s *viz.ScoredPostman) ScoreOutput {
	return ScoreOutput{
		PostmanID: s.Postman.ID.String(),
		Name:      s.Postman.Name,
		Score:     s.Total,
		Frequency: s.Breakdown.Frequency,
		Recency:   s.Breakdown.Recency,
		Balance:   s.Breakdown.Balance,
		Profile:   s.Breakdown.Profile,
	}
}

func postmanToOutput(p *models.Postman) PostmanOutput {
	out := PostmanOutput{
		ID:         p.ID.String(),
		Name:       p.Name,
		Company:    p.Company,
		Position:   p.Position,
		Email:      p.Email,
		Category:   string(p.Category),
		Stage:      string(p.Stage),
		StageLabel: p.Stage.Label(),
		GiveScore:  p.GiveScore,
		TakeScore:  p.TakeScore,
		Notes:      p.Notes,
	}
	if p.LastContact != nil {
		s := p.LastContact.Format(time.RFC3339)
		out.LastContact = &s
	}
	return out
}
