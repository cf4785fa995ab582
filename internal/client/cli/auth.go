package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Login prompts for an identifier (username or email) and a password and
// opens a session. The password byte slice is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return err
	}
	return a.login(ctx, identifier)
}

func (a *App) login(ctx context.Context, identifier string) error {
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.auth.Login(ctx, identifier, password)
	if err != nil {
		a.log.Warn(ctx, "login unsuccessful", "identifier", identifier, "error", err)
		return err
	}

	a.println(fmt.Sprintf("Logged in as %s (%s).", user.Username, user.Role.Label()))
	return nil
}

// Logout drops the session and everything cached for it.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in.")
		return nil
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out.")
	return nil
}

// WhoAmI prints the current identity.
func (a *App) WhoAmI(ctx context.Context) error {
	s := a.store.Get()
	if a.jsonOut {
		return a.outputJSON(s.User)
	}
	if !s.IsAuthenticated {
		a.println("Not logged in.")
		return nil
	}
	u := s.User
	return a.table([]string{"FIELD", "VALUE"}, [][]string{
		{"ID", u.ID},
		{"Name", u.Name},
		{"Username", u.Username},
		{"Email", u.Email},
		{"Role", u.Role.Label()},
		{"Status", u.Status.Label()},
	})
}

// CreateUser prompts for the new account's fields, validates them locally
// and creates the user. Field errors are printed one per line.
func (a *App) CreateUser(ctx context.Context) error {
	var form models.CreateUserForm

	prompts := []struct {
		prompt string
		dst    *string
	}{
		{"Enter full name", &form.Name},
		{"Enter email", &form.Email},
		{"Enter username", &form.Username},
		{"Enter custom id (optional)", &form.CustomID},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.prompt, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	role, err := getSimpleText(a.reader, "Enter role ("+roleChoices()+")", a.out)
	if err != nil {
		return err
	}
	form.Role = models.Role(strings.ToUpper(role))

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	form.Password = string(password)

	return a.createUser(ctx, form)
}

func (a *App) createUser(ctx context.Context, form models.CreateUserForm) error {
	if res := form.Validate(); !res.OK() {
		for _, fe := range res.Errors {
			a.println(fmt.Sprintf("  %s: %s", fe.Field, fe.Message))
		}
		return res.Err()
	}

	u, err := a.users.Create(ctx, form)
	if err != nil {
		return err
	}
	if u == nil {
		a.println(fmt.Sprintf("User %s created.", form.Username))
		return nil
	}
	if a.jsonOut {
		return a.outputJSON(u)
	}
	a.println(fmt.Sprintf("User %s created with id %s.", u.Username, u.ID))
	return nil
}

func roleChoices() string {
	names := make([]string, 0, len(models.Roles))
	for _, r := range models.Roles {
		names = append(names, string(r))
	}
	return strings.Join(names, "/")
}
