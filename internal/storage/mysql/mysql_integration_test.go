//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"spot_explorer/internal/domain"
	mysqlrepo "spot_explorer/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string { return &s }

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=spots",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "spots")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------
func TestRepo_MySQL_CatalogueRoundTrip(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// seed rows
	sensoji, err := repo.GetSpot(ctx, "2")
	if err != nil {
		t.Fatalf("GetSpot: %v", err)
	}
	if sensoji.Name != "Senso-ji Temple" || sensoji.NameJa != "浅草寺" || len(sensoji.FeaturesJa) != 3 {
		t.Fatalf("unexpected seed spot: %+v", sensoji)
	}
	if sensoji.Phone != nil || sensoji.PriceJa == nil || *sensoji.PriceJa != "無料" {
		t.Fatalf("nullable columns mapped wrong: %+v", sensoji)
	}

	if _, err := repo.GetSpot(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	// bounding box + circle filter: Senso-ji is ~7.8 km from Tokyo Tower
	near, err := repo.ListNear(ctx, domain.NearQuery{Lat: 35.6586, Lng: 139.7454, RadiusKm: 5, Limit: 10})
	if err != nil {
		t.Fatalf("ListNear: %v", err)
	}
	if len(near) != 1 || near[0].ID != "1" {
		t.Fatalf("5 km around Tokyo Tower: %+v", near)
	}
	near, err = repo.ListNear(ctx, domain.NearQuery{Lat: 35.6586, Lng: 139.7454, RadiusKm: 10, Limit: 10})
	if err != nil {
		t.Fatalf("ListNear: %v", err)
	}
	if len(near) != 2 || near[0].ID != "1" || near[1].ID != "2" {
		t.Fatalf("10 km around Tokyo Tower: %+v", near)
	}

	// upsert a spot known in one language only
	meiji := domain.TouristSpot{
		ID:               "meiji",
		NameJa:           "明治神宮",
		DescriptionJa:    "明治天皇を祀る神社",
		HistoricalInfoJa: "【概要】\n西暦1920年に創建された。",
		Category:         domain.CategoryCulture,
		Coordinates:      domain.Coordinates{Latitude: 35.6764, Longitude: 139.6993},
		Images:           []string{"https://example.com/meiji.jpg"},
		Rating:           4.6,
		Website:          pstr("https://www.meijijingu.or.jp"),
		Features:         []string{"place_of_worship"},
	}
	if err := repo.UpsertSpot(ctx, meiji); err != nil {
		t.Fatalf("UpsertSpot: %v", err)
	}
	meiji.Rating = 4.7
	meiji.HistoricalInfoJa = ""
	if err := repo.UpsertSpot(ctx, meiji); err != nil {
		t.Fatalf("UpsertSpot again: %v", err)
	}

	got, err := repo.GetSpot(ctx, "meiji")
	if err != nil {
		t.Fatalf("GetSpot: %v", err)
	}
	if got.Rating != 4.7 || got.Name != "明治神宮" || got.NameJa != "明治神宮" {
		t.Fatalf("unexpected upserted spot: %+v", got)
	}
	if got.HistoricalInfoJa != "【概要】\n西暦1920年に創建された。" {
		t.Fatalf("empty historical info must not overwrite: %q", got.HistoricalInfoJa)
	}
	if got.FeaturesJa == nil || len(got.FeaturesJa) != 0 {
		t.Fatalf("features_ja should round-trip as empty list: %#v", got.FeaturesJa)
	}

	// misses are idempotent per key
	for i := 0; i < 2; i++ {
		if err := repo.LogMiss(ctx, "area:35.6586,139.7454,3000", 403, "forbidden"); err != nil {
			t.Fatalf("LogMiss: %v", err)
		}
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ingest_misses").Scan(&n); err != nil || n != 1 {
		t.Fatalf("ingest_misses count = %d, %v", n, err)
	}
}
