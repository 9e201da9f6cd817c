package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/identifier"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
)

var cli struct {
	LogLevel string `name:"log-level" env:"LOG_LEVEL" default:"warn"`

	Generate generateCmd `cmd:"" help:"Print fresh ride codes."`
	Token    tokenCmd    `cmd:"" help:"Issue an access token for local testing."`
}

type generateCmd struct {
	Prefix      string `name:"prefix" env:"IDENTIFIER_RIDE_PREFIX" default:"RIDE-" help:"Prefix prepended to every identifier."`
	Length      int    `name:"length" env:"IDENTIFIER_LENGTH" default:"8" help:"Number of random characters."`
	MaxAttempts int    `name:"max-attempts" env:"IDENTIFIER_MAX_ATTEMPTS" default:"10" help:"Candidates tried before giving up."`
	Count       int    `name:"count" short:"n" default:"1" help:"How many identifiers to print."`

	DatabaseURL string `name:"database-url" env:"DATABASE_URL" help:"Check candidates against this database when set."`
	Table       string `name:"table" default:"rides" help:"Table holding existing identifiers."`
	Column      string `name:"column" default:"code" help:"Column holding existing identifiers."`
}

func (c *generateCmd) Run(ctx context.Context, log *logger.Logger) error {
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive")
	}

	var stored identifier.Checker
	if c.DatabaseURL != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close()
		stored = identifier.NewSQLChecker(db, c.Table, c.Column)
	}

	// codes printed by this run count as taken too
	issued := make(map[string]struct{}, c.Count)
	checker := identifier.CheckerFunc(func(ctx context.Context, id string) (bool, error) {
		if _, ok := issued[id]; ok {
			return true, nil
		}
		if stored == nil {
			return false, nil
		}
		return stored.Exists(ctx, id)
	})

	gen := identifier.NewGenerator(
		identifier.Config{Length: c.Length, MaxAttempts: c.MaxAttempts},
		checker,
		identifier.WithLogger(log),
	)

	for i := 0; i < c.Count; i++ {
		id, err := gen.Generate(ctx, c.Prefix)
		if err != nil {
			return err
		}
		issued[id] = struct{}{}
		fmt.Println(id)
	}
	return nil
}

type tokenCmd struct {
	Secret   string        `name:"secret" env:"JWT_SECRET" required:"" help:"HS256 signing key."`
	Issuer   string        `name:"issuer" env:"JWT_ISSUER" default:"ride-hailing"`
	TTL      time.Duration `name:"ttl" default:"1h"`
	UserID   string        `name:"user-id" required:"" help:"Subject of the token."`
	Username string        `name:"username"`
	Admin    bool          `name:"admin"`
}

func (c *tokenCmd) Run() error {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return fmt.Errorf("user-id: %w", err)
	}

	tokens, err := auth.NewTokenManager(c.Secret, c.Issuer, c.TTL)
	if err != nil {
		return err
	}
	token, err := tokens.Issue(auth.Principal{UserID: userID, Username: c.Username, IsAdmin: c.Admin})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	kctx := kong.Parse(&cli,
		kong.Name("idgen"),
		kong.Description("Ride kernel operator tools."),
		kong.UsageOnError(),
	)

	appLogger, err := logger.New(logger.Config{Level: cli.LogLevel, Format: "console", Output: "stderr"})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(appLogger); err != nil {
		appLogger.Error("Command failed", logger.Err(err))
		os.Exit(1)
	}
}
