package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/loandesk/internal/buildinfo"
	"github.com/dmitrijs2005/loandesk/internal/client/config"
	"github.com/dmitrijs2005/loandesk/internal/client/guard"
	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/common"
	"github.com/dmitrijs2005/loandesk/internal/logging"
	"github.com/spf13/cobra"
)

// runner owns the App for one command execution.
type runner struct {
	app     *App
	jsonOut bool
	logOut  io.Writer
}

// NewRootCmd builds the loandesk command tree. Without a subcommand the
// interactive REPL starts.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd(os.Stderr)
	return root
}

func newRootCmd(logOut io.Writer) (*cobra.Command, *runner) {
	r := &runner{logOut: logOut}

	root := &cobra.Command{
		Use:   "loandesk",
		Short: "loandesk - loan contract desk client",
		Long: `loandesk is a command-line client for the loan contract API.
It keeps your session between runs, caches reads, and checks every screen
against your role before showing it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.open,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Run(cmd.Context())
		},
	}

	config.BindFlags(root)
	root.PersistentFlags().BoolVar(&r.jsonOut, "json", false, "output in JSON format")

	root.AddCommand(
		r.loginCmd(),
		r.simpleCmd("logout", "Log out and forget the session", func(ctx context.Context, a *App, _ []string) error {
			return a.Logout(ctx)
		}),
		r.simpleCmd("whoami", "Show the logged-in user", func(ctx context.Context, a *App, _ []string) error {
			return a.WhoAmI(ctx)
		}),
		r.contractsCmd(),
		r.contractCmd(),
		r.simpleCmd("clients", "List clients", r.navigate(guard.PathClients)),
		r.usersCmd(),
		r.simpleCmd("dashboard", "Show the portfolio summary", r.navigate(guard.PathDashboard)),
		versionCmd(),
	)
	return root, r
}

// Execute runs the root command and returns the process exit code: 2 when
// the command needs a session, 1 for any other error.
func Execute(ctx context.Context) int {
	root, r := newRootCmd(os.Stderr)
	err := root.ExecuteContext(ctx)
	r.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, common.ErrNotLoggedIn) || errors.Is(err, common.ErrUnauthorized) {
			return 2
		}
		return 1
	}
	return 0
}

// open loads configuration and builds the App before any command runs.
func (r *runner) open(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations["skipApp"] == "true" {
		return nil
	}

	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, r.logOut)
	app, err := NewApp(cmd.Context(), cfg, log, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	app.jsonOut = r.jsonOut
	r.app = app

	// One-shot commands log out an expired session before using it.
	if cmd != cmd.Root() {
		app.expireSession(cmd.Context())
	}
	return nil
}

func (r *runner) close() {
	if r.app != nil {
		_ = r.app.Close()
		r.app = nil
	}
}

func (r *runner) simpleCmd(use, short string, fn func(ctx context.Context, a *App, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fn(cmd.Context(), r.app, args)
		},
	}
}

func (r *runner) navigate(location string) func(ctx context.Context, a *App, _ []string) error {
	return func(ctx context.Context, a *App, _ []string) error {
		return a.Navigate(ctx, location)
	}
}

func (r *runner) loginCmd() *cobra.Command {
	var identifier string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if identifier == "" {
				return r.app.Login(cmd.Context())
			}
			return r.app.login(cmd.Context(), identifier)
		},
	}
	cmd.Flags().StringVarP(&identifier, "user", "u", "", "username or email (prompted when empty)")
	return cmd
}

func (r *runner) contractsCmd() *cobra.Command {
	var (
		page   int
		limit  int
		search string
	)
	cmd := &cobra.Command{
		Use:     "contracts",
		Aliases: []string{"ls"},
		Short:   "List contracts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("%w: page must be positive", common.ErrValidation)
			}
			return r.app.Navigate(cmd.Context(), contractsLocation(page, limit, search))
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "contracts per page (default from config)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search by contract number or client")
	return cmd
}

func (r *runner) contractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contract <id>",
		Short: "Show one contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Navigate(cmd.Context(), contractLocation(args[0]))
		},
	}
}

func (r *runner) usersCmd() *cobra.Command {
	cmd := r.simpleCmd("users", "List users", r.navigate(guard.PathUsers))

	var form models.CreateUserForm
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user (password is prompted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			if _, d, _ := a.guard.Check(guard.PathUserNew); d.Verdict != guard.Render {
				if d.Verdict == guard.RedirectToLogin {
					return fmt.Errorf("%w: run 'loandesk login' first", common.ErrNotLoggedIn)
				}
				return fmt.Errorf("%w: creating users needs an admin role", common.ErrForbidden)
			}

			password, err := getPassword(a.reader, a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			form.Role = models.Role(strings.ToUpper(role))
			form.Password = string(password)
			return a.createUser(cmd.Context(), form)
		},
	}
	create.Flags().StringVar(&form.Name, "name", "", "full name")
	create.Flags().StringVar(&form.Email, "email", "", "email address")
	create.Flags().StringVar(&form.Username, "username", "", "login name")
	create.Flags().StringVar(&form.CustomID, "custom-id", "", "external client id")
	create.Flags().StringVar(&role, "role", string(models.RoleClient), "one of "+roleChoices())

	cmd.AddCommand(create)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipApp": "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}
