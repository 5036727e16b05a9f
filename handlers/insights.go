// ABOUTME: Dashboard and graph MCP tool handlers
// ABOUTME: Implements get_dashboard and generate_graph for agents
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/relationcraft/postman/viz"
)

type InsightHandlers struct {
	db     *sql.DB
	userID uuid.UUID
}

func NewInsightHandlers(database *sql.DB, userID uuid.UUID) *InsightHandlers {
	return &InsightHandlers{db: database, userID: userID}
}

type GetDashboardInput struct{}

type NeglectedOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DaysSince int    `json:"days_since"`
}

type DashboardOutput struct {
	TotalPostmen      int               `json:"total_postmen"`
	TotalGive         int               `json:"total_give"`
	TotalTake         int               `json:"total_take"`
	TotalInteractions int               `json:"total_interactions"`
	GivePct           int               `json:"give_pct"`
	TakePct           int               `json:"take_pct"`
	CurrentStreak     int               `json:"current_streak"`
	MaxStreak         int               `json:"max_streak"`
	WeekGoalsDone     int               `json:"week_goals_done"`
	WeekGoalsTotal    int               `json:"week_goals_total"`
	TopScored         []ScoreOutput     `json:"top_scored"`
	Neglected         []NeglectedOutput `json:"neglected"`
	Report            string            `json:"report"`
}

func (h *InsightHandlers) GetDashboard(ctx context.Context, _ *mcp.CallToolRequest, _ GetDashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	d, err := viz.GenerateUserDashboard(ctx, h.db, h.userID, time.Now())
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to build dashboard: %w", err)
	}

	out := DashboardOutput{
		TotalPostmen:      d.Summary.TotalPostmen,
		TotalGive:         d.Summary.TotalGive,
		TotalTake:         d.Summary.TotalTake,
		TotalInteractions: d.Summary.TotalInteractions,
		GivePct:           d.Summary.GivePct,
		TakePct:           d.Summary.TakePct,
		CurrentStreak:     d.Streak.CurrentStreak,
		MaxStreak:         d.Streak.MaxStreak,
		TopScored:         make([]ScoreOutput, len(d.TopScored)),
		Neglected:         make([]NeglectedOutput, len(d.Neglected)),
		Report:            viz.RenderDashboard(d),
	}
	if d.WeekPlan != nil {
		out.WeekGoalsDone = d.WeekPlan.DoneCount
		out.WeekGoalsTotal = d.WeekPlan.TotalCount
	}
	for i := range d.TopScored {
		out.TopScored[i] = scoreToOutput(&d.TopScored[i])
	}
	for i, n := range d.Neglected {
		out.Neglected[i] = NeglectedOutput{ID: n.ID.String(), Name: n.Name, DaysSince: n.DaysSince}
	}
	return nil, out, nil
}

type GenerateGraphInput struct {
	Type      string `json:"type" jsonschema:"Graph type: pipeline or postman"`
	PostmanID string `json:"postman_id,omitempty" jsonschema:"Postman ID (required for postman graphs)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *InsightHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	generator := viz.NewGraphGenerator(h.db)
	var dot string
	var err error

	switch input.Type {
	case "pipeline", "":
		input.Type = "pipeline"
		dot, err = generator.GeneratePipelineGraph(ctx, h.userID)
	case "postman":
		var id uuid.UUID
		id, err = uuid.Parse(input.PostmanID)
		if err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("invalid postman_id: %w", err)
		}
		dot, err = generator.GeneratePostmanGraph(ctx, h.userID, id)
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, postman)", input.Type)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	nodes, edges := countGraph(dot)
	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodes,
		EdgeCount: edges,
	}, nil
}

// countGraph tallies statements in DOT source as written by graphviz: one
// statement per tab-indented line, with continuations indented twice.
func countGraph(dot string) (nodes, edges int) {
	for _, line := range strings.Split(dot, "\n") {
		if !strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "\t\t") {
			continue
		}
		stmt := strings.TrimSpace(line)
		switch {
		case strings.Contains(stmt, "->"):
			edges++
		case strings.HasPrefix(stmt, "graph"), strings.HasPrefix(stmt, "node"), strings.HasPrefix(stmt, "edge"),
			strings.HasPrefix(stmt, "}"):
		default:
			nodes++
		}
	}
	return nodes, edges
}
