// ABOUTME: Interaction CLI commands
// ABOUTME: Records and removes give/take interactions; counters follow along
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

// AddInteractionCommand logs a GIVE or TAKE with a postman.
func AddInteractionCommand(env *Env, args []string) error {
	fs := newFlagSet("interaction add")
	postman := fs.String("postman", "", "Postman id, id prefix or name (required)")
	typ := fs.String("type", "", "GIVE or TAKE (required)")
	category := fs.String("category", "", "Kind of help, e.g. 소개 (required)")
	desc := fs.String("desc", "", "What happened (required)")
	date := fs.String("date", "", "Date (YYYY-MM-DD, default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	p, err := env.resolvePostman(ctx, *postman)
	if err != nil {
		return err
	}

	in := &models.Interaction{
		UserID:      env.User.ID,
		PostmanID:   p.ID,
		Type:        models.InteractionType(*typ),
		Category:    *category,
		Description: *desc,
	}
	if *date != "" {
		d, err := db.ParseDate(*date)
		if err != nil {
			return err
		}
		in.Date = d
	}

	if err := db.CreateInteraction(ctx, env.DB, in); err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}

	updated, err := db.GetPostman(ctx, env.DB, p.ID)
	if err != nil {
		return err
	}
	env.printf("✓ %s logged with %s (ID: %s)\n", in.Type, p.Name, in.ID)
	if updated != nil {
		env.printf("  Give/Take: %d / %d\n", updated.GiveScore, updated.TakeScore)
	}
	return nil
}

// ListInteractionsCommand lists recent interactions.
func ListInteractionsCommand(env *Env, args []string) error {
	fs := newFlagSet("interaction list")
	postman := fs.String("postman", "", "Only this postman")
	typ := fs.String("type", "", "Only GIVE or TAKE")
	limit := fs.Int("limit", 20, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	filter := db.InteractionFilter{UserID: env.User.ID, Limit: *limit}
	if *postman != "" {
		p, err := env.resolvePostman(ctx, *postman)
		if err != nil {
			return err
		}
		filter.PostmanID = p.ID
	}
	if *typ != "" {
		t, err := models.ParseInteractionType(*typ)
		if err != nil {
			return err
		}
		filter.Type = t
	}

	interactions, err := db.ListInteractions(ctx, env.DB, filter)
	if err != nil {
		return fmt.Errorf("failed to list interactions: %w", err)
	}
	if len(interactions) == 0 {
		env.println("No interactions found")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tTYPE\tPOSTMAN\tCATEGORY\tDESCRIPTION\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-------\t--------\t-----------\t--")
	for _, in := range interactions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			in.Date.Local().Format(models.DateLayout), in.Type, in.PostmanName, in.Category, in.Description, shortID(in.ID))
	}
	return w.Flush()
}

// DeleteInteractionCommand deletes an interaction by full id.
func DeleteInteractionCommand(env *Env, args []string) error {
	fs := newFlagSet("interaction delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("interaction ID is required")
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid interaction ID: %w", err)
	}

	if err := db.DeleteInteraction(context.Background(), env.DB, id, env.User.ID); err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}
	env.printf("✓ Interaction deleted: %s\n", id)
	return nil
}
