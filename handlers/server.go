// ABOUTME: Builds the MCP server with every postman tool, resource and prompt registered
// ABOUTME: All handlers act on behalf of a single user
package handlers

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func NewServer(database *sql.DB, userID uuid.UUID, version string) *mcp.Server {
	postmen := NewPostmanHandlers(database, userID)
	interactions := NewInteractionHandlers(database, userID)
	journal := NewJournalHandlers(database, userID)
	insights := NewInsightHandlers(database, userID)
	resources := NewResourceHandlers(database, userID)
	prompts := NewPromptHandlers(database, userID)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "postman",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_postman",
		Description: "Add a new postman (a person you are building a relationship with)",
	}, postmen.AddPostman)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_postmen",
		Description: "Search postmen by name, company or email, optionally filtered by stage",
	}, postmen.FindPostmen)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_relationship_score",
		Description: "Get the 0-100 relationship score of a postman with its frequency, recency, balance and profile breakdown",
	}, postmen.GetRelationshipScore)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_interaction",
		Description: "Record a GIVE or TAKE interaction with a postman and update their counters",
	}, interactions.LogInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_interaction",
		Description: "Delete an interaction and roll back the postman's counter",
	}, interactions.DeleteInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "write_daily_log",
		Description: "Write or replace the daily journal entry for a date",
	}, journal.WriteDailyLog)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_streak",
		Description: "Get the current and longest daily log streaks",
	}, journal.GetStreak)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Get the relationship dashboard: totals, streaks, top scored and neglected postmen",
	}, insights.GetDashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the stage pipeline or of one postman's interactions",
	}, insights.GenerateGraph)

	server.AddResource(&mcp.Resource{
		URI:         "postman://postmen",
		Name:        "postmen",
		Description: "Every postman, ordered by name",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "postman://postmen/{id}",
		Name:        "postman",
		Description: "One postman by id",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "postman://pipeline",
		Name:        "pipeline",
		Description: "Postman counts per relationship stage",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "relationship-review",
		Description: "Review one relationship and suggest next steps",
		Arguments: []*mcp.PromptArgument{
			{Name: "postman_id", Description: "Postman ID", Required: true},
		},
	}, prompts.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "weekly-reflection",
		Description: "Reflect on the week using the dashboard",
	}, prompts.GetPrompt)

	return server
}
