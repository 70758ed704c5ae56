// Package admin implements the operator command line: account creation,
// listing, activation and a one-shot connection probe.
package admin

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/dmitrijs2005/webportal/internal/cryptox"
	"github.com/dmitrijs2005/webportal/internal/logging"
	"github.com/dmitrijs2005/webportal/internal/server/config"
	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/dmitrijs2005/webportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/webportal/internal/server/resolver"
	"github.com/dmitrijs2005/webportal/internal/server/services"
	"github.com/dmitrijs2005/webportal/internal/server/sessions"
)

var ErrUsage = errors.New("usage error")

const usage = `Usage: webportal-admin [flags] <command> [args]

Commands:
  create-user                    create an account (prompts for details)
  list-users                     list accounts
  set-active <username> <bool>   enable or disable an account
  probe                          try the configured connection candidates
  help                           show this message`

type accountAdmin interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	SetActive(ctx context.Context, username string, active bool) error
}

type prober interface {
	Resolve(ctx context.Context) *resolver.Report
}

type App struct {
	accounts    accountAdmin
	resolver    prober
	repomanager repomanager.RepositoryManager
	in          *bufio.Reader
	out         io.Writer
}

// NewApp opens the account store named by cfg. Without a DSN the accounts
// live only as long as the process, which is only useful for probe.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	var rm repomanager.RepositoryManager
	if cfg.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, account commands act on an empty in-memory store")
		rm = repomanager.NewInMemoryRepositoryManager()
	} else {
		pm, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := pm.RunMigrations(ctx); err != nil {
			_ = pm.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		rm = pm
	}

	hasher, err := cryptox.NewHasher(cryptox.DefaultParams)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	svc := services.NewAccountService(rm, sessions.NewMemoryStore(), hasher, cfg, logger, nil)
	res := resolver.New(cfg.Candidates, logger)

	return &App{
		accounts:    svc,
		resolver:    res,
		repomanager: rm,
		in:          bufio.NewReader(in),
		out:         out,
	}, nil
}

func (a *App) Close() error {
	if a.repomanager == nil {
		return nil
	}
	return a.repomanager.Close()
}

// Run executes the command found in args. Server flags that precede it are
// skipped.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := SplitCommand(args)

	switch cmd {
	case "create-user":
		return a.createUser(ctx)
	case "list-users":
		return a.listUsers(ctx)
	case "set-active":
		return a.setActive(ctx, rest)
	case "probe":
		return a.probe(ctx)
	case "", "help":
		fmt.Fprintln(a.out, usage)
		if cmd == "" {
			return ErrUsage
		}
		return nil
	default:
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// SplitCommand returns the first positional argument and everything after
// it. A flag written as "-x value" consumes the following token.
func SplitCommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return arg, args[i+1:]
		}
		if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return "", nil
}

func (a *App) createUser(ctx context.Context) error {
	username, err := GetSimpleText(a.in, "Username", a.out)
	if err != nil {
		return err
	}
	fullName, err := GetSimpleText(a.in, "Full name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.in, "Email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		return fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}

	account, err := a.accounts.Register(ctx, services.RegisterInput{
		Username: username,
		Password: string(password),
		FullName: fullName,
		Email:    email,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "account %s created (id %s)\n", account.Username, account.ID)
	return nil
}

func (a *App) listUsers(ctx context.Context) error {
	list, err := a.accounts.ListAccounts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tFULL NAME\tEMAIL\tROLE\tACTIVE\tLAST LOGIN")
	for _, acc := range list {
		last := "never"
		if acc.LastLogin != nil {
			last = acc.LastLogin.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", acc.Username, acc.FullName, acc.Email, acc.Role, acc.IsActive, last)
	}
	return tw.Flush()
}

func (a *App) setActive(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: set-active <username> <true|false>", ErrUsage)
	}
	active, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("%w: %q is not a boolean", ErrUsage, args[1])
	}

	if err := a.accounts.SetActive(ctx, args[0], active); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("account %q not found", args[0])
		}
		return err
	}

	fmt.Fprintf(a.out, "account %s active=%t\n", args[0], active)
	return nil
}

// probe prints the resolver report as JSON and fails when no candidate
// connected.
func (a *App) probe(ctx context.Context) error {
	report := a.resolver.Resolve(ctx)

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if !report.Success {
		return errors.New("no connection candidate succeeded")
	}
	return nil
}
