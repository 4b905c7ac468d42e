package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/dailymenu/db"
	"github.com/xenking/dailymenu/internal/domain/auth"
	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/food"
	"github.com/xenking/dailymenu/internal/storage/postgres"
)

type foodJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
}

type options struct {
	databaseURL  string
	foodsFile    string
	apiKey       string
	apiKeyPepper string
	menuQuantity int
	timezone     string
}

func main() {
	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.foodsFile, "foods-file", "", "path to foods JSON file (default: embedded list)")
	flag.StringVar(&opts.apiKey, "api-key", "", "admin API key to seed (or DAILYMENU_SEED_API_KEY env)")
	flag.StringVar(&opts.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or DAILYMENU_AUTH_API_KEY_PEPPER env)")
	flag.IntVar(&opts.menuQuantity, "menu-quantity", 0, "put every food on today's menu with this quantity (0 skips)")
	flag.StringVar(&opts.timezone, "timezone", "Local", "time zone that defines today")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.apiKey == "" {
		opts.apiKey = os.Getenv("DAILYMENU_SEED_API_KEY")
	}
	if opts.apiKey == "" {
		slog.Error("API key is required: set --api-key or DAILYMENU_SEED_API_KEY")
		os.Exit(1)
	}
	if opts.apiKeyPepper == "" {
		opts.apiKeyPepper = os.Getenv("DAILYMENU_AUTH_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, opts options) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	store := postgres.New(pool)

	if err := seedFoods(ctx, store.Foods, opts.foodsFile); err != nil {
		return errors.Wrap(err, "seed foods")
	}

	if err := seedAPIKey(ctx, store.APIKeys, opts.apiKey, opts.apiKeyPepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	if opts.menuQuantity > 0 {
		loc, err := time.LoadLocation(opts.timezone)
		if err != nil {
			return errors.Wrap(err, "load time zone")
		}
		menu := catalog.NewService(store.Catalog, store.Foods, loc)
		if err := seedMenu(ctx, menu, store.Foods, opts.menuQuantity); err != nil {
			return errors.Wrap(err, "seed menu")
		}
	}

	return nil
}

func seedFoods(ctx context.Context, repo food.Repository, path string) error {
	data := db.Foods
	if path != "" {
		slog.Info("reading foods file", slog.String("path", path))

		var err error
		if data, err = os.ReadFile(path); err != nil {
			return errors.Wrap(err, "read foods file")
		}
	}

	var foods []foodJSON
	if err := json.Unmarshal(data, &foods); err != nil {
		return errors.Wrap(err, "parse foods JSON")
	}

	slog.Info("upserting foods", slog.Int("count", len(foods)))

	for _, f := range foods {
		if err := repo.Upsert(ctx, food.Food{
			ID:          f.ID,
			Name:        f.Name,
			Price:       f.Price,
			Description: f.Description,
			Image:       f.Image,
			Category:    f.Category,
		}); err != nil {
			return errors.Wrapf(err, "upsert food %s", f.ID)
		}

		slog.Info("upserted food", slog.String("id", f.ID), slog.String("name", f.Name))
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo auth.Repository, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	return repo.Upsert(ctx, &auth.APIKeyInfo{
		ID:      uuid.NewString(),
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "seed-admin",
		Scopes:  []string{auth.ScopeAdmin},
	})
}

// seedMenu puts every master food on today's menu unless today already has
// entries.
func seedMenu(ctx context.Context, menu *catalog.Service, foods food.Repository, quantity int) error {
	existing, err := menu.ListToday(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("today's menu already exists, skipping", slog.Int("items", len(existing)))
		return nil
	}

	all, err := foods.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list foods")
	}
	for _, f := range all {
		item, err := menu.Add(ctx, catalog.AddRequest{FoodID: f.ID, Quantity: quantity})
		if err != nil {
			return errors.Wrapf(err, "add %s", f.ID)
		}
		slog.Info("added to menu",
			slog.String("food", f.ID),
			slog.String("day", item.Day.String()),
			slog.Int("quantity", quantity),
		)
	}
	return nil
}
