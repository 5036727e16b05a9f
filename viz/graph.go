// ABOUTME: Graphviz renderings of the relationship pipeline and a postman's interaction history
// ABOUTME: Returns DOT source so callers can pipe it to dot or serve it over HTTP
package viz

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/google/uuid"
	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
)

var categoryColors = map[models.Category]string{
	models.CategoryDefault: "lightblue",
	models.CategoryPlus:    "gold",
}

type GraphGenerator struct {
	db *sql.DB
}

func NewGraphGenerator(database *sql.DB) *GraphGenerator {
	return &GraphGenerator{db: database}
}

func newGraph(ctx context.Context) (*graphviz.Graphviz, *cgraph.Graph, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	graph, err := gv.Graph()
	if err != nil {
		gv.Close()
		return nil, nil, fmt.Errorf("failed to create graph: %w", err)
	}
	return gv, graph, nil
}

func render(ctx context.Context, gv *graphviz.Graphviz, graph *cgraph.Graph) (string, error) {
	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// GeneratePipelineGraph lays a user's postmen out along the five relationship
// stages, left to right. Each postman hangs off its stage node.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context, userID uuid.UUID) (string, error) {
	postmen, err := db.ListPostmen(ctx, g.db, db.PostmanFilter{UserID: userID, Order: db.OrderName})
	if err != nil {
		return "", fmt.Errorf("failed to fetch postmen: %w", err)
	}

	gv, graph, err := newGraph(ctx)
	if err != nil {
		return "", err
	}
	defer gv.Close()
	defer graph.Close()

	graph.SetLabel("Relationship Pipeline")
	graph.SetRankDir(cgraph.LRRank)

	stages := make([]models.Stage, len(postmen))
	for i, p := range postmen {
		stages[i] = p.Stage
	}

	stageNodes := make(map[models.Stage]*cgraph.Node, len(models.Stages))
	var prev *cgraph.Node
	for _, sc := range metrics.StageDistribution(stages) {
		node, err := graph.CreateNodeByName("stage_" + string(sc.Stage))
		if err != nil {
			return "", fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(%d)", sc.Label, sc.Count))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor("lightgray")
		stageNodes[sc.Stage] = node

		if prev != nil {
			if _, err := graph.CreateEdgeByName("", prev, node); err != nil {
				return "", fmt.Errorf("failed to link stages: %w", err)
			}
		}
		prev = node
	}

	for _, p := range postmen {
		node, err := graph.CreateNodeByName("postman_" + p.ID.String()[:8])
		if err != nil {
			return "", fmt.Errorf("failed to create postman node: %w", err)
		}
		label := p.Name
		if p.Company != "" {
			label += "\n" + p.Company
		}
		node.SetLabel(label)
		node.SetShape("ellipse")
		node.SetStyle("filled")
		node.SetFillColor(categoryColors[p.Category])

		if _, err := graph.CreateEdgeByName("", stageNodes[p.Stage], node); err != nil {
			return "", fmt.Errorf("failed to link postman: %w", err)
		}
	}

	return render(ctx, gv, graph)
}

// GeneratePostmanGraph draws one postman with an edge per interaction category,
// labeled with give and take counts.
func (g *GraphGenerator) GeneratePostmanGraph(ctx context.Context, userID, postmanID uuid.UUID) (string, error) {
	p, err := db.GetPostman(ctx, g.db, postmanID)
	if err != nil {
		return "", err
	}
	if p == nil || p.UserID != userID {
		return "", apperr.NotFoundf("postman %s not found", postmanID)
	}

	history, err := db.ListInteractions(ctx, g.db, db.InteractionFilter{UserID: userID, PostmanID: postmanID})
	if err != nil {
		return "", fmt.Errorf("failed to fetch interactions: %w", err)
	}

	type tally struct{ give, take int }
	var order []string
	tallies := make(map[string]*tally)
	for _, in := range history {
		t, ok := tallies[in.Category]
		if !ok {
			t = &tally{}
			tallies[in.Category] = t
			order = append(order, in.Category)
		}
		if in.Type == models.InteractionGive {
			t.give++
		} else {
			t.take++
		}
	}

	gv, graph, err := newGraph(ctx)
	if err != nil {
		return "", err
	}
	defer gv.Close()
	defer graph.Close()

	graph.SetLayout("neato")

	center, err := graph.CreateNodeByName("postman")
	if err != nil {
		return "", fmt.Errorf("failed to create postman node: %w", err)
	}
	center.SetLabel(fmt.Sprintf("%s\nGive %d / Take %d", p.Name, p.GiveScore, p.TakeScore))
	center.SetShape("doublecircle")
	center.SetStyle("filled")
	center.SetFillColor(categoryColors[p.Category])

	for i, category := range order {
		node, err := graph.CreateNodeByName(fmt.Sprintf("category_%d", i))
		if err != nil {
			return "", fmt.Errorf("failed to create category node: %w", err)
		}
		node.SetLabel(category)
		node.SetShape("box")

		edge, err := graph.CreateEdgeByName("", center, node)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		t := tallies[category]
		edge.SetLabel(fmt.Sprintf("G%d T%d", t.give, t.take))
	}

	return render(ctx, gv, graph)
}
