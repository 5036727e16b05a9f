// ABOUTME: Dashboard and visualization CLI commands
// ABOUTME: Renders the dashboard, calendar feed and graphviz graphs
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/viz"
)

// DashboardCommand prints the dashboard: styled on a terminal, JSON otherwise.
func DashboardCommand(env *Env, args []string) error {
	fs := newFlagSet("dashboard")
	asJSON := fs.Bool("json", false, "Print JSON even on a terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := viz.GenerateUserDashboard(context.Background(), env.DB, env.User.ID, env.Now())
	if err != nil {
		return err
	}
	if *asJSON || !env.interactive() {
		return env.printJSON(d)
	}
	env.printf("%s", viz.RenderDashboard(d))
	return nil
}

// VizGraphPipelineCommand generates the stage pipeline graph.
func VizGraphPipelineCommand(env *Env, args []string) error {
	fs := newFlagSet("viz graph pipeline")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dot, err := viz.NewGraphGenerator(env.DB).GeneratePipelineGraph(context.Background(), env.User.ID)
	if err != nil {
		return err
	}
	return env.writeOutput(*output, dot)
}

// VizGraphPostmanCommand generates one postman's interaction graph.
func VizGraphPostmanCommand(env *Env, args []string) error {
	fs := newFlagSet("viz graph postman")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	p, err := env.resolvePostman(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	dot, err := viz.NewGraphGenerator(env.DB).GeneratePostmanGraph(ctx, env.User.ID, p.ID)
	if err != nil {
		return err
	}
	return env.writeOutput(*output, dot)
}

// CalendarCommand lists interactions and daily logs in a date range.
func CalendarCommand(env *Env, args []string) error {
	fs := newFlagSet("viz calendar")
	start := fs.String("start", "", "First date (YYYY-MM-DD, default 30 days ago)")
	end := fs.String("end", "", "Last date (YYYY-MM-DD, default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	from := env.Now().AddDate(0, 0, -30)
	to := env.Now()
	var err error
	if *start != "" {
		if from, err = db.ParseDate(*start); err != nil {
			return err
		}
	}
	if *end != "" {
		if to, err = db.ParseDate(*end); err != nil {
			return err
		}
	}
	if to.Before(from) {
		return fmt.Errorf("--end is before --start")
	}

	events, err := viz.CalendarEvents(context.Background(), env.DB, env.User.ID, from, to)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		env.printf("No events between %s and %s\n", from.Format(time.DateOnly), to.Format(time.DateOnly))
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tTYPE\tTITLE")
	for _, ev := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", ev.Date, ev.Type, ev.Title)
	}
	return w.Flush()
}
