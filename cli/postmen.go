// ABOUTME: Postman CLI commands
// ABOUTME: Add, list, show, update, delete, score and CSV transfer of postmen
package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/transfer"
	"github.com/relationcraft/postman/viz"
)

// AddPostmanCommand adds a new postman.
func AddPostmanCommand(env *Env, args []string) error {
	fs := newFlagSet("postman add")
	name := fs.String("name", "", "Postman name (required)")
	company := fs.String("company", "", "Company")
	position := fs.String("position", "", "Job title")
	phone := fs.String("phone", "", "Phone number")
	email := fs.String("email", "", "Email address")
	category := fs.String("category", "", "포스트맨 or 포스트맨PLUS (plus)")
	stage := fs.String("stage", "", "Pipeline stage (default first_meeting)")
	notes := fs.String("notes", "", "Notes")
	birthday := fs.String("birthday", "", "Birthday (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	p := &models.Postman{
		UserID:   env.User.ID,
		Name:     *name,
		Company:  *company,
		Position: *position,
		Phone:    *phone,
		Email:    *email,
		Category: models.Category(*category),
		Stage:    models.Stage(*stage),
		Notes:    *notes,
	}
	if *birthday != "" {
		b, err := db.ParseDate(*birthday)
		if err != nil {
			return err
		}
		p.Birthday = &b
	}

	if err := db.CreatePostman(context.Background(), env.DB, p); err != nil {
		return fmt.Errorf("failed to create postman: %w", err)
	}

	env.printf("✓ Postman created: %s (ID: %s)\n", p.Name, p.ID)
	if p.Company != "" {
		env.printf("  Company: %s\n", p.Company)
	}
	env.printf("  Stage: %s\n", p.Stage.Label())
	return nil
}

// ListPostmenCommand lists postmen.
func ListPostmenCommand(env *Env, args []string) error {
	fs := newFlagSet("postman list")
	query := fs.String("query", "", "Search by name, company or email")
	stage := fs.String("stage", "", "Filter by stage")
	byName := fs.Bool("by-name", false, "Sort by name instead of most recently contacted")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := db.PostmanFilter{UserID: env.User.ID, Query: *query, Limit: *limit}
	if *stage != "" {
		st, err := models.ParseStage(*stage)
		if err != nil {
			return err
		}
		filter.Stage = st
	}
	if *byName {
		filter.Order = db.OrderName
	}

	postmen, err := db.ListPostmen(context.Background(), env.DB, filter)
	if err != nil {
		return fmt.Errorf("failed to list postmen: %w", err)
	}
	if len(postmen) == 0 {
		env.println("No postmen found")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCOMPANY\tSTAGE\tGIVE\tTAKE\tLAST CONTACT\tID")
	_, _ = fmt.Fprintln(w, "----\t-------\t-----\t----\t----\t------------\t--")
	for _, p := range postmen {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			p.Name, orDash(p.Company), p.Stage.Label(), p.GiveScore, p.TakeScore, formatDay(p.LastContact), shortID(p.ID))
	}
	_ = w.Flush()

	env.printf("\nTotal: %d postman(s)\n", len(postmen))
	return nil
}

// ShowPostmanCommand prints one postman with its score and recent history.
func ShowPostmanCommand(env *Env, args []string) error {
	fs := newFlagSet("postman show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx := context.Background()
	p, err := env.resolvePostman(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	scored, err := viz.ScorePostman(ctx, env.DB, env.User.ID, p.ID, env.Now())
	if err != nil {
		return err
	}
	history, err := db.ListInteractions(ctx, env.DB, db.InteractionFilter{UserID: env.User.ID, PostmanID: p.ID, Limit: 10})
	if err != nil {
		return err
	}

	env.printf("%s (%s)\n", p.Name, p.ID)
	env.printf("  Company:   %s %s\n", orDash(p.Company), p.Position)
	env.printf("  Contact:   %s / %s\n", orDash(p.Phone), orDash(p.Email))
	env.printf("  Category:  %s\n", p.Category)
	env.printf("  Stage:     %s\n", p.Stage.Label())
	env.printf("  Give/Take: %d / %d\n", p.GiveScore, p.TakeScore)
	env.printf("  Last:      %s\n", formatDay(p.LastContact))
	env.printf("  Score:     %d/%d (frequency %d, recency %d, balance %d, profile %d)\n",
		scored.Total, metrics.MaxScore, scored.Breakdown.Frequency, scored.Breakdown.Recency,
		scored.Breakdown.Balance, scored.Breakdown.Profile)
	if p.Notes != "" {
		env.printf("  Notes:     %s\n", p.Notes)
	}

	if len(history) > 0 {
		env.println("\nRecent interactions:")
		for _, in := range history {
			env.printf("  %s  %-4s  %s: %s\n", in.Date.Local().Format(models.DateLayout), in.Type, in.Category, in.Description)
		}
	}
	return nil
}

// UpdatePostmanCommand updates an existing postman. Flags must come before the id.
func UpdatePostmanCommand(env *Env, args []string) error {
	fs := newFlagSet("postman update")
	var upd db.PostmanUpdate
	strFlag := func(name, usage string, dst **string) {
		fs.Func(name, usage, func(v string) error {
			*dst = &v
			return nil
		})
	}
	strFlag("name", "Postman name", &upd.Name)
	strFlag("company", "Company", &upd.Company)
	strFlag("position", "Job title", &upd.Position)
	strFlag("phone", "Phone number", &upd.Phone)
	strFlag("email", "Email address", &upd.Email)
	strFlag("notes", "Notes", &upd.Notes)
	strFlag("interests", "Interests", &upd.Interests)
	strFlag("goals", "Their goals", &upd.Goals)
	fs.Func("stage", "Pipeline stage", func(v string) error {
		st, err := models.ParseStage(v)
		if err != nil {
			return err
		}
		upd.Stage = &st
		return nil
	})
	fs.Func("category", "포스트맨 or 포스트맨PLUS (plus)", func(v string) error {
		c, err := models.ParseCategory(v)
		if err != nil {
			return err
		}
		upd.Category = &c
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	p, err := env.resolvePostman(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	updated, err := db.UpdatePostman(ctx, env.DB, p.ID, upd)
	if err != nil {
		return fmt.Errorf("failed to update postman: %w", err)
	}
	env.printf("✓ Postman updated: %s (%s)\n", updated.Name, updated.Stage.Label())
	return nil
}

// DeletePostmanCommand deletes a postman and its interactions.
func DeletePostmanCommand(env *Env, args []string) error {
	fs := newFlagSet("postman delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx := context.Background()
	p, err := env.resolvePostman(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := db.DeletePostman(ctx, env.DB, p.ID); err != nil {
		return fmt.Errorf("failed to delete postman: %w", err)
	}
	env.printf("✓ Postman deleted: %s\n", p.Name)
	return nil
}

// ScoresCommand ranks postmen by relationship score.
func ScoresCommand(env *Env, args []string) error {
	fs := newFlagSet("postman scores")
	limit := fs.Int("limit", 20, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	scored, err := viz.ScorePostmen(context.Background(), env.DB, env.User.ID, env.Now())
	if err != nil {
		return err
	}
	if *limit > 0 && len(scored) > *limit {
		scored = scored[:*limit]
	}
	if len(scored) == 0 {
		env.println("No postmen found")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSCORE\tFREQ\tRECENCY\tBALANCE\tPROFILE")
	for _, s := range scored {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", s.Postman.Name, s.Total,
			s.Breakdown.Frequency, s.Breakdown.Recency, s.Breakdown.Balance, s.Breakdown.Profile)
	}
	return w.Flush()
}

// ExportCommand writes the user's postmen as CSV.
func ExportCommand(env *Env, args []string) error {
	fs := newFlagSet("postman export")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out := env.Out
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	n, err := transfer.Export(context.Background(), env.DB, out, env.User.ID)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if *output != "" {
		env.printf("✓ Exported %d postman(s) to %s\n", n, *output)
	}
	return nil
}

// ImportCommand reads postmen from a CSV file.
func ImportCommand(env *Env, args []string) error {
	fs := newFlagSet("postman import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("CSV file path is required")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := transfer.Import(context.Background(), env.DB, f, env.User.ID)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	env.printf("✓ Imported %d postman(s), %d failed\n", res.SuccessCount, res.FailCount)
	for _, msg := range res.Errors {
		env.printf("  %s\n", msg)
	}
	return nil
}
