package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizlive-client/internal/domain"
	"quizlive-client/internal/infra/postgres"
	"quizlive-client/internal/infra/postgres/migrations"
)

func TestArchiveEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	runMigrations(t, ctx, dsn)

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	archive := postgres.NewArchive(pool)

	first := domain.GameSummary{
		GameID: "ABC123",
		Topic:  "History",
		Players: []domain.Player{
			{UID: "u1", DisplayName: "Alice", Score: 30},
			{UID: "u2", DisplayName: "Bob", Score: 10},
		},
		FinishedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := archive.SaveSummary(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := archive.GetSummary(ctx, "ABC123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Topic != "History" || len(got.Players) != 2 || got.Players[0].Score != 30 {
		t.Fatalf("summary did not round-trip: %+v", got)
	}

	// A gameFinished replay for the same id overwrites, no duplicate row.
	first.Players[1].Score = 20
	if err := archive.SaveSummary(ctx, first); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	second := domain.GameSummary{
		GameID:     "XYZ789",
		Topic:      "Science",
		Players:    []domain.Player{{UID: "u1", DisplayName: "Alice", Score: 50}},
		FinishedAt: first.FinishedAt.Add(time.Minute),
	}
	if err := archive.SaveSummary(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	recent, err := archive.RecentSummaries(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(recent))
	}
	if recent[0].GameID != "XYZ789" {
		t.Fatalf("expected newest first, got %+v", recent)
	}
	if recent[1].Players[1].Score != 20 {
		t.Fatalf("expected overwritten score 20, got %+v", recent[1].Players)
	}

	if _, err := archive.GetSummary(ctx, "NOPE"); !errors.Is(err, domain.ErrSummaryNotFound) {
		t.Fatalf("expected ErrSummaryNotFound, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
