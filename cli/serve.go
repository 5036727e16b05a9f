// ABOUTME: HTTP API subcommand
// ABOUTME: Runs the JSON API until interrupted
package cli

import (
	"context"

	"github.com/relationcraft/postman/web"
)

// ServeCommand runs the web server until ctx is cancelled.
func ServeCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("serve")
	addr := fs.String("addr", env.Config.Server.Addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	env.Config.Server.Addr = *addr

	return web.NewServer(env.DB, env.Config, env.Logger).ListenAndServe(ctx)
}
