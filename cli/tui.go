// ABOUTME: Interactive terminal UI subcommand
// ABOUTME: Opens the full-screen postman browser for the current user
package cli

import (
	"context"
	"errors"

	"github.com/relationcraft/postman/tui"
)

func TUICommand(ctx context.Context, env *Env) error {
	if !env.interactive() {
		return errors.New("tui requires a terminal")
	}
	return tui.Run(ctx, env.DB, env.User.ID)
}
