package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"bloglist/internal/app"
	"bloglist/internal/auth"
	"bloglist/internal/config"
	"bloglist/internal/repository"
	"bloglist/internal/service"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

func main() {
	cliApp := &cli.App{
		Name:  "blogctl",
		Usage: "Administer a bloglist database",
		Commands: []*cli.Command{
			{
				Name:  "seed",
				Usage: "Create a root author and insert the initial blogs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "username",
						Value: "root",
						Usage: "Username of the seeded author",
					},
					&cli.StringFlag{
						Name:  "name",
						Value: "Superuser",
						Usage: "Display name of the seeded author",
					},
					&cli.StringFlag{
						Name:    "password",
						Value:   "sekret",
						Usage:   "Password of the seeded author",
						EnvVars: []string{"BLOGLIST_SEED_PASSWORD"},
					},
				},
				Action: seedCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print the ranking summary",
				Action: statsCommand,
			},
			{
				Name:   "users",
				Usage:  "List authors",
				Action: usersCommand,
			},
			{
				Name:   "export",
				Usage:  "Write a snapshot to object storage",
				Action: exportCommand,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

type env struct {
	cfg    config.Config
	logger *logrus.Logger
	store  repository.Store
	closer io.Closer
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg)
	logger.SetOutput(os.Stderr)

	store, closer, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: store, closer: closer}, nil
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func seedCommand(c *cli.Context) error {
	e, err := openEnv(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer e.closer.Close()

	statsCache, cacheCloser, err := app.BuildCache(c.Context, e.cfg, e.logger)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer cacheCloser.Close()
	// clears the summary a running server may have cached
	statsService := service.NewStatsService(e.store.Entries, statsCache, e.cfg.CacheTTL(), e.logger)

	users := service.NewUserService(e.store.Authors, auth.NewBcryptCredentials(e.cfg.Auth.BcryptCost), nil)
	result, err := seed(c.Context, e.store, users, statsService, service.RegisterInput{
		Username: c.String("username"),
		Name:     c.String("name"),
		Password: c.String("password"),
	}, initialEntries)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to seed: %v", err), ExitDataError)
	}
	return outputJSON(result)
}

func statsCommand(c *cli.Context) error {
	e, err := openEnv(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer e.closer.Close()

	sum, err := service.NewStatsService(e.store.Entries, nil, 0, e.logger).Summary(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to compute stats: %v", err), ExitDataError)
	}
	return outputJSON(sum)
}

func usersCommand(c *cli.Context) error {
	e, err := openEnv(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer e.closer.Close()

	authors, err := service.NewUserService(e.store.Authors, auth.NewBcryptCredentials(e.cfg.Auth.BcryptCost), nil).List(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to list users: %v", err), ExitDataError)
	}
	return outputJSON(authors)
}

func exportCommand(c *cli.Context) error {
	e, err := openEnv(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer e.closer.Close()

	store, err := app.BuildStorage(c.Context, e.cfg, e.logger)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	exports := service.NewExportService(e.store.Entries, store, service.ExportOptions{
		Bucket:    e.cfg.Storage.Bucket,
		KeyPrefix: e.cfg.Storage.KeyPrefix,
		Keep:      e.cfg.Storage.Keep,
	}, e.logger)

	res, err := exports.Export(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to export: %v", err), ExitDataError)
	}
	return outputJSON(res)
}
