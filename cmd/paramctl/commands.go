package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"compliance-backend/internal/params"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/storage/db"
)

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List parameters",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only this category"},
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Match value or category"},
		&cli.BoolFlag{Name: "reveal", Usage: "Print secret values unmasked"},
	},
	Action: func(c *cli.Context) error {
		return withService(c.Context, func(svc *params.Service) error {
			items, _, err := svc.List(c.Context, params.ListFilter{
				Page:     1,
				Limit:    100,
				Category: c.String("category"),
				Search:   c.String("search"),
			})
			if err != nil {
				return err
			}
			return printParams(c.App.Writer, items, c.Bool("reveal"))
		})
	},
}

var getCommand = &cli.Command{
	Name:      "get",
	Usage:     "Print one parameter value",
	ArgsUsage: "KEY",
	Action: func(c *cli.Context) error {
		key, err := keyArg(c, 1)
		if err != nil {
			return err
		}
		return withService(c.Context, func(svc *params.Service) error {
			p, err := svc.Get(c.Context, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, p.Value)
			return nil
		})
	},
}

var setCommand = &cli.Command{
	Name:      "set",
	Usage:     "Replace a parameter value",
	ArgsUsage: "KEY VALUE",
	Action: func(c *cli.Context) error {
		key, err := keyArg(c, 2)
		if err != nil {
			return err
		}
		value := c.Args().Get(1)
		return withService(c.Context, func(svc *params.Service) error {
			p, err := svc.Set(c.Context, key, value)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s updated\n", p.Key)
			return nil
		})
	},
}

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Create missing default parameters",
	Action: func(c *cli.Context) error {
		return withService(c.Context, func(svc *params.Service) error {
			created, err := svc.Seed(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%d parameters created\n", created)
			return nil
		})
	},
}

func keyArg(c *cli.Context, want int) (params.Key, error) {
	if c.NArg() != want {
		return "", fmt.Errorf("expected %d argument(s), got %d", want, c.NArg())
	}
	key, ok := params.ParseKey(c.Args().First())
	if !ok {
		return "", fmt.Errorf("unknown parameter key %q", c.Args().First())
	}
	return key, nil
}

// openService is replaced in tests.
var openService = func(ctx context.Context) (*params.Service, func() error, error) {
	cfg := config.Load()
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return params.NewService(&params.PGRepo{DB: sqlDB}), sqlDB.Close, nil
}

func withService(ctx context.Context, fn func(svc *params.Service) error) error {
	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}

func printParams(w io.Writer, items []params.Parameter, reveal bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tCATEGORY\tUPDATED")
	for _, p := range items {
		value := p.Value
		if !reveal && p.Category == params.CategoryAIServices {
			value = mask(value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Key, value, p.Category, p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// mask keeps the last four characters of a secret.
func mask(v string) string {
	if v == "" {
		return "(unset)"
	}
	if len(v) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + v[len(v)-4:]
}
