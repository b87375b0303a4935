package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/internal/bootstrap"
	"github.com/fastygo/library/internal/config"
	pgInfra "github.com/fastygo/library/internal/infrastructure/postgres"
	"github.com/fastygo/library/internal/seed"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/pkg/logger"
	"github.com/fastygo/library/repository"
	"github.com/fastygo/library/usecase/catalog"
	"github.com/fastygo/library/usecase/ledger"
	"github.com/fastygo/library/usecase/membership"
)

// cli carries the state shared by every subcommand.
type cli struct {
	in     io.Reader
	out    io.Writer
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Administrative tasks for the library backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	root.AddCommand(
		c.migrateCmd(),
		c.seedCmd(),
		c.sweepCmd(),
		c.createAdminCmd(),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: "console",
		Service:  "libctl",
		Output:   os.Stderr,
	})
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = log
	return nil
}

func (c *cli) withStore(ctx context.Context, fn func(store repository.Store) error) error {
	store, err := bootstrap.OpenStore(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back PostgreSQL schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePostgres(); err != nil {
				return err
			}
			if err := pgInfra.MigrateUp(c.cfg.Database, c.cfg.Migrations.Path, c.logger); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePostgres(); err != nil {
				return err
			}
			if err := pgInfra.MigrateDown(c.cfg.Database, c.cfg.Migrations.Path, steps, c.logger); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func (c *cli) requirePostgres() error {
	if c.cfg.Storage.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations only apply to the %q driver, current driver is %q", config.DriverPostgres, c.cfg.Storage.Driver)
	}
	return nil
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo accounts and sample books",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store repository.Store) error {
				clk := clock.System{}
				seeder := seed.New(store,
					membership.New(store, clk, c.logger),
					catalog.New(store, clk, c.logger),
					c.logger,
				)
				result, err := seeder.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "seeded %d user(s) and %d book(s)\n", result.Users, result.Books)
				return nil
			})
		},
	}
}

func (c *cli) sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark active loans past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store repository.Store) error {
				count, err := ledger.New(store, clock.System{}, c.logger).SweepOverdue(ctx, domain.SystemActor)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "marked %d loan(s) overdue\n", count)
				return nil
			})
		},
	}
}

func (c *cli) createAdminCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := c.readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			ctx := cmd.Context()
			return c.withStore(ctx, func(store repository.Store) error {
				user, err := membership.New(store, clock.System{}, c.logger).Register(ctx, membership.NewMember{
					Name:     name,
					Email:    email,
					Password: password,
					Role:     domain.RoleAdmin,
					Status:   domain.UserActive,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "created admin %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword masks input on a terminal and reads one line otherwise.
func (c *cli) readPassword(prompt string) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.out, prompt)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
