package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/config"
	"github.com/aretw0/concierge/internal/presentation/tui"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/muesli/termenv"
)

// Env carries what every command needs.
type Env struct {
	Config config.Config
	In     io.Reader
	Out    io.Writer
	JSON   bool // machine-readable output
	Debug  bool
}

func (e Env) profile() termenv.Profile {
	if e.JSON {
		return termenv.Ascii
	}
	return termenv.NewOutput(e.Out).Profile
}

// LoginOptions are the login command inputs. Missing values are prompted for.
type LoginOptions struct {
	Username string
	Password string
}

// RunLogin authenticates and establishes the session.
func RunLogin(ctx context.Context, env Env, opts LoginOptions) error {
	p := NewPrompter(env.In, env.Out)
	if err := p.Fill(&opts.Username, "Username", false); err != nil {
		return err
	}
	if err := p.Fill(&opts.Password, "Password", true); err != nil {
		return err
	}

	return establish(ctx, env, func(ctx context.Context, c lifecycle) (*domain.Identity, error) {
		return c.Login(ctx, opts.Username, opts.Password)
	})
}

// RunRegisterClient creates a guest account. Missing username and password are prompted for.
func RunRegisterClient(ctx context.Context, env Env, reg domain.ClientRegistration) error {
	p := NewPrompter(env.In, env.Out)
	if err := p.Fill(&reg.Username, "Username", false); err != nil {
		return err
	}
	if err := p.Fill(&reg.Password, "Password", true); err != nil {
		return err
	}

	return establish(ctx, env, func(ctx context.Context, c lifecycle) (*domain.Identity, error) {
		return c.RegisterClient(ctx, reg)
	})
}

// RunRegisterStaff creates a staff account with an invitation code.
func RunRegisterStaff(ctx context.Context, env Env, reg domain.StaffRegistration) error {
	p := NewPrompter(env.In, env.Out)
	if err := p.Fill(&reg.Username, "Username", false); err != nil {
		return err
	}
	if err := p.Fill(&reg.Password, "Password", true); err != nil {
		return err
	}
	if err := p.Fill(&reg.Code, "Invitation code", true); err != nil {
		return err
	}

	return establish(ctx, env, func(ctx context.Context, c lifecycle) (*domain.Identity, error) {
		return c.RegisterStaff(ctx, reg)
	})
}

// lifecycle is the part of concierge.Client the establishing commands call.
type lifecycle interface {
	Login(ctx context.Context, username, password string) (*domain.Identity, error)
	RegisterClient(ctx context.Context, req domain.ClientRegistration) (*domain.Identity, error)
	RegisterStaff(ctx context.Context, req domain.StaffRegistration) (*domain.Identity, error)
	Status() domain.Status
}

func establish(ctx context.Context, env Env, run func(context.Context, lifecycle) (*domain.Identity, error)) error {
	logger := createLogger(env.Config, env.Debug)
	client, err := openClient(ctx, env.Config, logger, hooksFor(env, logger)...)
	if err != nil {
		return err
	}
	defer client.Close()

	id, err := run(ctx, client)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityLookup) {
			// The credential stays committed without a role.
			printSystemMessage(env.Out, "Logged in, but the account could not be loaded. Log in again to finish.")
		}
		return err
	}

	if env.JSON {
		return printJSON(env.Out, id)
	}
	printSystemMessage(env.Out, "Logged in as %s (%s). Home: %s", id.Username, id.Role, id.Role.HomePath())
	return nil
}

// RunLogout ends the session. It succeeds even when the server cannot be reached.
func RunLogout(ctx context.Context, env Env) error {
	logger := createLogger(env.Config, env.Debug)
	client, err := openClient(ctx, env.Config, logger, hooksFor(env, logger)...)
	if err != nil {
		return err
	}
	defer client.Close()

	wasIn := client.Status().Authenticated
	if err := client.Logout(ctx); err != nil {
		return err
	}
	if env.JSON {
		return printJSON(env.Out, client.Status())
	}
	if wasIn {
		printSystemMessage(env.Out, "Logged out.")
	} else {
		printSystemMessage(env.Out, "Not logged in.")
	}
	return nil
}

// RunStatus prints the local session status without contacting the server.
func RunStatus(ctx context.Context, env Env) error {
	logger := createLogger(env.Config, env.Debug)
	client, err := openClient(ctx, env.Config, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	st := client.Status()
	if env.JSON {
		return printJSON(env.Out, st)
	}
	fmt.Fprintln(env.Out, tui.FormatStatus(env.profile(), st))
	return nil
}

// RunWhoAmI fetches the identity bound to the current credential.
func RunWhoAmI(ctx context.Context, env Env) error {
	logger := createLogger(env.Config, env.Debug)
	client, err := openClient(ctx, env.Config, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if !client.Status().Authenticated {
		return errors.New("not logged in")
	}

	id, err := client.Identity(ctx)
	if err != nil {
		return err
	}
	if env.JSON {
		return printJSON(env.Out, id)
	}

	md := tui.IdentityMarkdown(id)
	if env.profile() == termenv.Ascii {
		fmt.Fprint(env.Out, md)
		return nil
	}
	out, err := tui.NewRenderer()(md)
	if err != nil {
		fmt.Fprint(env.Out, md)
		return nil
	}
	fmt.Fprint(env.Out, out)
	return nil
}

func hooksFor(env Env, logger *slog.Logger) []concierge.Option {
	if !env.Debug {
		return nil
	}
	return []concierge.Option{concierge.WithLifecycleHooks(createDebugHooks(logger))}
}
