//go:build e2e
// +build e2e

// Package e2e provides end-to-end tests for the gallery server. They spin up
// a real PostgreSQL container, run the embedded migrations, seed a small
// exhibition, and exercise the HTTP API the way a visitor device would.
package e2e

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"gallery-twin/internal/handler"
	"gallery-twin/internal/middleware"
	"gallery-twin/internal/migrations"
	"gallery-twin/internal/repository/postgres"
	"gallery-twin/internal/security"
	"gallery-twin/internal/service"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	adminUser     = "admin"
	adminPassword = "e2e-admin-password"
)

var (
	testServer *http.Server
	testDB     *sql.DB
	baseURL    string
)

// TestMain sets up the E2E test environment
func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cleanup, err := setupTestEnvironment(ctx)
	if err != nil {
		log.Fatalf("failed to setup test environment: %v", err)
	}

	code := m.Run()

	cleanup()
	os.Exit(code)
}

// setupTestEnvironment starts PostgreSQL and the gallery server
func setupTestEnvironment(ctx context.Context) (func(), error) {
	var cleanups []func()

	pgContainer, pgCleanup, connStr, err := startPostgres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL: %w", err)
	}
	cleanups = append(cleanups, pgCleanup)
	_ = pgContainer

	testDB, err = sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanups = append(cleanups, func() { testDB.Close() })

	if err := migrations.Run(testDB); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := seedExhibition(testDB); err != nil {
		return nil, fmt.Errorf("failed to seed exhibition: %w", err)
	}

	serverCleanup, err := setupGalleryServer(testDB)
	if err != nil {
		return nil, fmt.Errorf("failed to setup gallery server: %w", err)
	}
	cleanups = append(cleanups, serverCleanup)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return cleanup, nil
}

// streamContainerLogs starts a goroutine that streams container logs to stdout with a prefix
func streamContainerLogs(ctx context.Context, container testcontainers.Container, prefix string) {
	go func() {
		reader, err := container.Logs(ctx)
		if err != nil {
			log.Printf("[%s] failed to get logs: %v", prefix, err)
			return
		}
		defer reader.Close()

		scanner := bufio.NewScanner(reader)
		for scanner.Scan() {
			log.Printf("[%s] %s", prefix, scanner.Text())
		}

		if err := scanner.Err(); err != nil && err != io.EOF {
			log.Printf("[%s] log reader error: %v", prefix, err)
		}
	}()
}

// startPostgres starts a PostgreSQL container for testing
func startPostgres(ctx context.Context) (testcontainers.Container, func(), string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, nil, "", err
	}

	streamContainerLogs(ctx, container, "PostgreSQL")

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, nil, "", err
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		container.Terminate(ctx)
		return nil, nil, "", err
	}

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	// Wait for PostgreSQL to be fully ready
	time.Sleep(2 * time.Second)

	cleanup := func() {
		container.Terminate(ctx)
	}

	return container, cleanup, connStr, nil
}

// seedExhibition inserts a three-exhibit tour with per-exhibit questions plus
// the two global questionnaires. IDs are fixed so tests can reference them.
func seedExhibition(db *sql.DB) error {
	seed := `
		INSERT INTO exhibits (id, slug, title, order_index) VALUES
			(1, 'sunrise-hall', 'Sunrise Hall', 1),
			(2, 'midnight-garden', 'Midnight Garden', 2),
			(3, 'echo-chamber', 'Echo Chamber', 3);

		INSERT INTO questions (id, exhibit_id, category, text, type, options, required, sort_order) VALUES
			(11, 1, 'exhibit', 'What caught your attention first?', 'text', NULL, TRUE, 1),
			(12, 1, 'exhibit', 'How engaging was this piece?', 'likert',
				'["1","2","3","4","5"]', FALSE, 2),
			(21, 2, 'exhibit', 'Which elements stood out?', 'multi',
				'["light","sound","texture","scale"]', TRUE, 1),
			(31, 3, 'exhibit', 'Would you revisit this room?', 'single',
				'["yes","no","maybe"]', TRUE, 1),
			(41, NULL, 'selfeval', 'How often do you visit galleries?', 'single',
				'["rarely","monthly","weekly"]', FALSE, 1),
			(51, NULL, 'feedback', 'What should we improve?', 'multi',
				'["signage","audio","lighting","seating"]', FALSE, 1);

		SELECT setval('exhibits_id_seq', 100);
		SELECT setval('questions_id_seq', 100);
	`
	_, err := db.Exec(seed)
	return err
}

// setupGalleryServer wires the real router and starts it on a local port
func setupGalleryServer(db *sql.DB) (func(), error) {
	sessionRepo, err := postgres.NewSessionRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create session repository: %w", err)
	}
	eventRepo, err := postgres.NewEventRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create event repository: %w", err)
	}
	answerRepo, err := postgres.NewAnswerRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer repository: %w", err)
	}
	exhibitRepo, err := postgres.NewExhibitRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create exhibit repository: %w", err)
	}
	questionRepo, err := postgres.NewQuestionRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create question repository: %w", err)
	}
	statsRepo := postgres.NewStatsRepository(db)

	sessionService := service.NewSessionService(sessionRepo, 30*24*time.Hour)
	eventService := service.NewEventService(eventRepo)
	analyticsService := service.NewAnalyticsService(statsRepo, exhibitRepo)
	answerService := service.NewAnswerService(answerRepo, questionRepo, exhibitRepo, sessionService)

	tokens, err := security.NewTokenManager([]byte("e2e-secret-key-32-characters-min!"), time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	sessionHandler := handler.NewSessionHandler(tokens)
	eventHandler := handler.NewEventHandler(eventService)
	exhibitHandler := handler.NewExhibitHandler(exhibitRepo, questionRepo)
	answerHandler := handler.NewAnswerHandler(answerService)
	adminHandler := handler.NewAdminHandler(analyticsService, statsRepo)

	r := chi.NewRouter()

	r.Use(middleware.CORS([]string{"*"}))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessionService))
			r.Use(middleware.CSRF(tokens))

			r.Get("/session", sessionHandler.Get)
			r.Get("/exhibits", exhibitHandler.List)
			r.Get("/exhibits/{slug}", exhibitHandler.Get)
			r.Post("/events", eventHandler.Record)
			r.Post("/exhibits/{slug}/answers", answerHandler.SubmitExhibit)
			r.Post("/survey/{category}", answerHandler.SubmitGlobal)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(adminUser, adminPassword, ""))

			r.Get("/admin/dashboard", adminHandler.Dashboard)
			r.Get("/admin/responses", adminHandler.Responses)
		})
	})

	testPort := 18080
	baseURL = fmt.Sprintf("http://localhost:%d", testPort)

	testServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", testPort),
		Handler: r,
	}

	go func() {
		if err := testServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	// Wait until the health endpoint answers
	maxRetries := 20
	for i := 0; i < maxRetries; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		if i == maxRetries-1 {
			return nil, fmt.Errorf("server did not start in time after %d attempts", maxRetries)
		}
		time.Sleep(500 * time.Millisecond)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		testServer.Shutdown(ctx)
	}

	return cleanup, nil
}
