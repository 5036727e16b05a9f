// ABOUTME: Account CLI commands
// ABOUTME: Creates, lists and updates users of a shared database
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

// AddUserCommand creates an account.
func AddUserCommand(env *Env, args []string) error {
	fs := newFlagSet("user add")
	email := fs.String("email", "", "Email (required)")
	name := fs.String("name", "", "Display name")
	password := fs.String("password", "", "Password (optional for local accounts)")
	admin := fs.Bool("admin", false, "Grant the admin role")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u := &models.User{Email: *email, Name: *name}
	if *admin {
		u.Role = models.RoleAdmin
	}
	if err := db.CreateUser(context.Background(), env.DB, u, *password); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	env.printf("✓ User created: %s (ID: %s, role %s)\n", u.Email, u.ID, u.Role)
	return nil
}

// ListUsersCommand lists every account.
func ListUsersCommand(env *Env, _ []string) error {
	users, err := db.ListUsers(context.Background(), env.DB)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tACTIVE\tCREATED\tID")
	_, _ = fmt.Fprintln(w, "-----\t----\t----\t------\t-------\t--")
	for _, u := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			u.Email, orDash(u.Name), u.Role, u.IsActive, u.CreatedAt.Local().Format(models.DateLayout), u.ID)
	}
	return w.Flush()
}

// SetUserCommand changes an account's role or active flag. Flags come before the email or id.
func SetUserCommand(env *Env, args []string) error {
	fs := newFlagSet("user set")
	var role *models.Role
	var active *bool
	fs.Func("role", "user or admin", func(v string) error {
		r := models.Role(v)
		role = &r
		return nil
	})
	fs.Func("active", "true or false", func(v string) error {
		b := v == "true" || v == "1" || v == "yes"
		active = &b
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}
	if role == nil && active == nil {
		return fmt.Errorf("nothing to change: pass --role or --active")
	}

	ctx := context.Background()
	u, err := env.findUser(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	updated, err := db.UpdateUser(ctx, env.DB, u.ID, role, active)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	env.printf("✓ User updated: %s (role %s, active %t)\n", updated.Email, updated.Role, updated.IsActive)
	return nil
}

func (e *Env) findUser(ctx context.Context, ref string) (*models.User, error) {
	if ref == "" {
		return nil, fmt.Errorf("user email or ID is required")
	}
	var u *models.User
	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		u, err = db.GetUser(ctx, e.DB, id)
	} else {
		u, err = db.GetUserByEmail(ctx, e.DB, ref)
	}
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFoundf("user %s not found", ref)
	}
	return u, nil
}
