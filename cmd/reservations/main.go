// Command reservations is the operator CLI: it applies the schema, manages
// nightly room stock and works the waitlist.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/app"
	"github.com/KenzieRafa/TST-Reservation-API/internal/clock"
	"github.com/KenzieRafa/TST-Reservation-API/internal/config"
	"github.com/KenzieRafa/TST-Reservation-API/internal/logger"
	"github.com/KenzieRafa/TST-Reservation-API/internal/storage/postgres"
	"github.com/KenzieRafa/TST-Reservation-API/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const startupTimeout = 5 * time.Second

const usage = `usage: reservations <command> [flags]

commands:
  migrate [status]                 apply pending schema migrations, or list them
  availability setup               configure stock for a range of nights
  availability query               print remaining stock for a range of nights
  availability block               hold units of one night out of sale
  availability unblock             return blocked units of one night to sale
  waitlist expire-overdue          expire waitlist entries past their expiry
  waitlist convert                 book a waitlist entry's stay
  waitlist extend                  push back a waitlist entry's expiry
  waitlist reminders [--mark]      list guests due a waitlist reminder
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "reservations: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	envPath, envErr := config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	switch {
	case envErr != nil:
		log.Warn("failed to load .env", zap.Error(envErr))
	case envPath == "":
		log.Debug(".env not found in current or parent directories")
	default:
		log.Debug("loaded env", zap.String("path", envPath))
	}

	cmd, err := parseCommand(args, stderr)
	if err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(startupCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	env := &environment{
		cfg:    cfg,
		log:    log,
		pool:   pool,
		store:  postgres.NewStore(pool),
		clock:  clock.NewSystem(),
		stdout: stdout,
	}
	return cmd(ctx, env)
}

type environment struct {
	cfg    config.Config
	log    *zap.Logger
	pool   *pgxpool.Pool
	store  *postgres.Store
	clock  clock.Clock
	stdout io.Writer
}

func (e *environment) options() []app.Option {
	return []app.Option{
		app.WithLogger(e.log),
		app.WithRefundPolicy(e.cfg.RefundPolicy()),
		app.WithWaitlistTTL(e.cfg.WaitlistTTL()),
	}
}

type command func(ctx context.Context, env *environment) error

func runMigrate(ctx context.Context, env *environment) error {
	applied, err := migrations.Apply(ctx, env.pool)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, name := range applied {
		fmt.Fprintf(env.stdout, "applied %s\n", name)
	}
	env.log.Info("migrations applied", zap.Int("count", len(applied)))
	return nil
}

func runMigrateStatus(ctx context.Context, env *environment) error {
	pending, err := migrations.Pending(ctx, env.pool)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(env.stdout, "schema is up to date")
		return nil
	}
	for _, name := range pending {
		fmt.Fprintf(env.stdout, "pending %s\n", name)
	}
	return nil
}
