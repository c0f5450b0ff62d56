// Command seed-db loads a catalog fixture into PostgreSQL and provisions
// users with auth tokens. Fixtures may be plain JSON or gzip-compressed;
// token keys are printed exactly once, only their HMAC hash is stored.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/storefront-api/storefront/internal/domain/catalog"
	"github.com/storefront-api/storefront/internal/httpapi"
	"github.com/storefront-api/storefront/internal/repository"
)

type categoryJSON struct {
	Title         string            `json:"title"`
	Subcategories []subcategoryJSON `json:"subcategories"`
}

type subcategoryJSON struct {
	Title    string        `json:"title"`
	Products []productJSON `json:"products"`
}

type productJSON struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       struct {
		Original  string `json:"original"`
		Thumbnail string `json:"thumbnail"`
		Preview   string `json:"preview"`
	} `json:"image"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
		users       string
		tokenPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture", "db/seed/catalog.json", "path to catalog fixture (JSON, optionally .gz)")
	flag.StringVar(&users, "users", "", "comma-separated usernames to provision with auth tokens")
	flag.StringVar(&tokenPepper, "token-pepper", "", "HMAC pepper for token hashing (or STOREFRONT_TOKEN_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if tokenPepper == "" {
		tokenPepper = os.Getenv("STOREFRONT_TOKEN_PEPPER")
	}
	if users != "" && tokenPepper == "" {
		slog.Error("token pepper is required when provisioning users: set --token-pepper or STOREFRONT_TOKEN_PEPPER")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile, users, tokenPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile, users, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, fixtureFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if users != "" {
		if err := seedUsers(ctx, pool, strings.Split(users, ","), pepper); err != nil {
			return errors.Wrap(err, "seed users")
		}
	}

	return nil
}

func readFixture(path string) ([]categoryJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open fixture")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		r = gz
	}

	var categories []categoryJSON
	if err := json.NewDecoder(r).Decode(&categories); err != nil {
		return nil, errors.Wrap(err, "parse fixture JSON")
	}
	return categories, nil
}

const (
	upsertCategorySQL = `
INSERT INTO product_categories (title, slug) VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title
RETURNING id`

	upsertSubcategorySQL = `
INSERT INTO product_subcategories (category_id, title, slug) VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title, category_id = EXCLUDED.category_id
RETURNING id`

	upsertProductSQL = `
INSERT INTO products (category_id, subcategory_id, title, slug, description, price, image, image_thumbnail, image_preview)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (slug) DO UPDATE SET
    category_id     = EXCLUDED.category_id,
    subcategory_id  = EXCLUDED.subcategory_id,
    title           = EXCLUDED.title,
    description     = EXCLUDED.description,
    price           = EXCLUDED.price,
    image           = EXCLUDED.image,
    image_thumbnail = EXCLUDED.image_thumbnail,
    image_preview   = EXCLUDED.image_preview`

	upsertUserSQL = `
INSERT INTO users (username) VALUES ($1)
ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
RETURNING id`

	insertTokenSQL = `
INSERT INTO auth_tokens (key_hash, user_id, active) VALUES ($1, $2, TRUE)`
)

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, fixtureFile string) error {
	slog.Info("reading fixture", slog.String("path", fixtureFile))

	categories, err := readFixture(fixtureFile)
	if err != nil {
		return err
	}

	slog.Info("upserting catalog", slog.Int("categories", len(categories)))

	// Categories are independent of each other, so each gets its own worker.
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range categories {
		g.Go(func() error {
			return seedCategory(gctx, pool, c)
		})
	}
	return g.Wait()
}

func seedCategory(ctx context.Context, pool *pgxpool.Pool, c categoryJSON) error {
	var categoryID string
	err := pool.QueryRow(ctx, upsertCategorySQL, c.Title, catalog.Slugify(c.Title)).Scan(&categoryID)
	if err != nil {
		return errors.Wrapf(err, "upsert category %s", c.Title)
	}

	products := 0
	for _, sub := range c.Subcategories {
		var subID string
		err := pool.QueryRow(ctx, upsertSubcategorySQL, categoryID, sub.Title, catalog.Slugify(sub.Title)).Scan(&subID)
		if err != nil {
			return errors.Wrapf(err, "upsert subcategory %s", sub.Title)
		}

		for _, p := range sub.Products {
			_, err := pool.Exec(ctx, upsertProductSQL,
				categoryID, subID, p.Title, catalog.Slugify(p.Title), p.Description, p.Price,
				p.Image.Original, p.Image.Thumbnail, p.Image.Preview,
			)
			if err != nil {
				return errors.Wrapf(err, "upsert product %s", p.Title)
			}
			products++
		}
	}

	slog.Info("upserted category",
		slog.String("title", c.Title),
		slog.Int("subcategories", len(c.Subcategories)),
		slog.Int("products", products),
	)
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, usernames []string, pepper string) error {
	for _, username := range usernames {
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}

		var userID string
		if err := pool.QueryRow(ctx, upsertUserSQL, username).Scan(&userID); err != nil {
			return errors.Wrapf(err, "upsert user %s", username)
		}

		key := uuid.New().String()
		if _, err := pool.Exec(ctx, insertTokenSQL, httpapi.HashToken([]byte(pepper), key), userID); err != nil {
			return errors.Wrapf(err, "insert token for %s", username)
		}

		// The plaintext key exists only in this output; save it now.
		fmt.Printf("user=%s token=%s\n", username, key)
	}
	return nil
}
