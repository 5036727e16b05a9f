// ABOUTME: Entry point for the postman CLI, HTTP API, MCP server and TUI
// ABOUTME: Loads configuration, opens the database and routes to subcommands
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relationcraft/postman/cli"
	"github.com/relationcraft/postman/config"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/logger"
)

const version = "0.2.0"

type command func(env *cli.Env, args []string) error

var groups = map[string]map[string]command{
	"user": {
		"add":  cli.AddUserCommand,
		"list": cli.ListUsersCommand,
		"set":  cli.SetUserCommand,
	},
	"postman": {
		"add":    cli.AddPostmanCommand,
		"list":   cli.ListPostmenCommand,
		"show":   cli.ShowPostmanCommand,
		"update": cli.UpdatePostmanCommand,
		"delete": cli.DeletePostmanCommand,
		"scores": cli.ScoresCommand,
		"export": cli.ExportCommand,
		"import": cli.ImportCommand,
	},
	"interaction": {
		"add":    cli.AddInteractionCommand,
		"list":   cli.ListInteractionsCommand,
		"delete": cli.DeleteInteractionCommand,
	},
	"log": {
		"write":  cli.WriteLogCommand,
		"show":   cli.ShowLogCommand,
		"list":   cli.ListLogsCommand,
		"streak": cli.StreakCommand,
	},
	"plan": {
		"set":  cli.SetPlanCommand,
		"show": cli.ShowPlanCommand,
		"list": cli.ListPlansCommand,
	},
	"viz": {
		"calendar": cli.CalendarCommand,
	},
	"admin": {
		"overview":  cli.AdminOverviewCommand,
		"analytics": cli.AdminAnalyticsCommand,
		"users":     cli.AdminUsersCommand,
		"user":      cli.AdminUserCommand,
		"system":    cli.AdminSystemCommand,
		"backup":    cli.AdminBackupCommand,
		"logs":      cli.AdminLogsCommand,
	},
}

var graphCommands = map[string]command{
	"pipeline": cli.VizGraphPipelineCommand,
	"postman":  cli.VizGraphPostmanCommand,
}

var noticeCommands = map[string]command{
	"add":    cli.AdminNoticeAddCommand,
	"list":   cli.AdminNoticeListCommand,
	"set":    cli.AdminNoticeSetCommand,
	"delete": cli.AdminNoticeDeleteCommand,
}

func main() {
	startedAt := time.Now()
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/postman/config.toml)")
	envFile := flag.String("env-file", ".env", "Dotenv file with POSTMAN_* overrides")
	dbPath := flag.String("db-path", "", "Database path (overrides config)")
	userEmail := flag.String("user", "", "Act as this user (default: config default_user_email)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("postman version %s\n", version)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fatal(err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *userEmail != "" {
		cfg.DefaultUserEmail = *userEmail
	}

	log := logger.New(logger.Config{
		Format: cfg.Log.Format,
		Level:  logger.ParseLevel(cfg.Log.Level),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		fatal(fmt.Errorf("failed to open database: %w", err))
	}
	defer database.Close()
	log.Debug("Opened database", "path", cfg.DatabasePath)

	user, err := db.EnsureUser(ctx, database, cfg.DefaultUserEmail, "")
	if err != nil {
		fatal(fmt.Errorf("failed to load user %s: %w", cfg.DefaultUserEmail, err))
	}
	env := cli.NewEnv(database, user, cfg, log)
	env.StartedAt = startedAt

	if err := run(ctx, env, args[0], args[1:]); err != nil {
		database.Close()
		fatal(err)
	}
}

func run(ctx context.Context, env *cli.Env, name string, args []string) error {
	switch name {
	case "serve":
		return cli.ServeCommand(ctx, env, args)
	case "mcp":
		return cli.MCPCommand(ctx, env, version)
	case "tui":
		return cli.TUICommand(ctx, env)
	case "dashboard":
		return cli.DashboardCommand(env, args)
	}

	group, ok := groups[name]
	if !ok {
		return usageError("unknown command: %s", name)
	}
	if len(args) == 0 {
		return usageError("%s requires a subcommand", name)
	}
	sub, rest := args[0], args[1:]

	switch {
	case name == "viz" && sub == "graph":
		if len(rest) == 0 {
			return usageError("viz graph requires a type (pipeline or postman)")
		}
		return dispatch(graphCommands, "viz graph", rest[0], env, rest[1:])
	case name == "admin" && sub == "notice":
		if len(rest) == 0 {
			return usageError("admin notice requires a subcommand")
		}
		return dispatch(noticeCommands, "admin notice", rest[0], env, rest[1:])
	}
	return dispatch(group, name, sub, env, rest)
}

func dispatch(cmds map[string]command, group, sub string, env *cli.Env, args []string) error {
	cmd, ok := cmds[sub]
	if !ok {
		return usageError("unknown %s command: %s", group, sub)
	}
	return cmd(env, args)
}

type usageErr struct{ msg string }

func (e usageErr) Error() string { return e.msg }

func usageError(format string, args ...any) error {
	return usageErr{msg: fmt.Sprintf(format, args...)}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue usageErr
	if errors.As(err, &ue) {
		fmt.Fprintln(os.Stderr)
		printUsage()
	}
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `postman v%s - personal relationship CRM

USAGE:
  postman [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/postman/config.toml)
  --env-file <path>      Dotenv file with POSTMAN_* overrides (default: .env)
  --db-path <path>       Database path (default: ~/.local/share/postman/postman.db)
  --user <email>         Act as this user (default: me@localhost)

COMMANDS:
  serve                  Start the JSON HTTP API
    --addr <host:port>     Listen address (default: 127.0.0.1:8080)
  mcp                    Start the MCP server on stdio
  tui                    Open the interactive terminal UI
  dashboard [--json]     Show the personal dashboard

USER COMMANDS:
  postman user add --email <email> [--name <name>] [--password <pw>] [--admin]
  postman user list
  postman user set <id|email> [--role user|admin] [--active true|false]

POSTMAN COMMANDS:
  postman postman add       Add a postman
    --name <name>             Name (required)
    --company, --position, --phone, --email, --notes
    --category <c>            포스트맨 or 포스트맨PLUS (plus)
    --stage <stage>           first_meeting, relationship_building, trust_building, plus, vip
    --birthday <YYYY-MM-DD>
  postman postman list      List postmen
    --query <text>            Search by name, company or email
    --stage <stage>           Filter by stage
    --by-name                 Sort by name
    --limit <n>               Max results (default: 50)
  postman postman show <id|prefix|name>
  postman postman update [flags] <id|prefix|name>
    Note: flags must come before the postman
  postman postman delete <id|prefix|name>
  postman postman scores [--limit <n>]
  postman postman export [--output <file>]
  postman postman import <file.csv>

INTERACTION COMMANDS:
  postman interaction add   Record a give or take
    --postman <ref>           Postman (required)
    --type GIVE|TAKE          Direction (required)
    --category <c>            Kind of help (required)
    --desc <text>             What happened (required)
    --date <YYYY-MM-DD>       Date (default: now)
  postman interaction list [--postman <ref>] [--type GIVE|TAKE] [--limit <n>]
  postman interaction delete <id>

JOURNAL COMMANDS:
  postman log write --content <text> [--date <d>] [--goals <g>] [--achievements <a>]
                    [--letters <n>] [--calls <n>] [--social <n>] [--gifts <n>]
  postman log show [date]
  postman log list [--limit <n>]
  postman log streak
  postman plan set [--week <d>] [--goal "text|STATUS"]... [--meet <name>]...
  postman plan show [date]
  postman plan list [--limit <n>]

VIZ COMMANDS:
  postman viz graph pipeline [--output <file>]
  postman viz graph postman [--output <file>] <ref>
  postman viz calendar [--start <d>] [--end <d>]

ADMIN COMMANDS (admin role required):
  postman admin overview | analytics | users | system | backup
  postman admin user <id>
  postman admin logs [--limit <n>]
  postman admin notice add --title <t> --content <c> [--inactive]
  postman admin notice list
  postman admin notice set [--title <t>] [--content <c>] [--active true|false] <id>
  postman admin notice delete <id>

EXAMPLES:
  postman postman add --name "김철수" --company "Acme" --stage trust_building
  postman interaction add --postman 김철수 --type GIVE --category 소개 --desc "Introduced to an investor"
  postman log write --content "Wrote three thank-you notes" --letters 3
  postman viz graph pipeline | dot -Tpng > pipeline.png

`, version)
}
