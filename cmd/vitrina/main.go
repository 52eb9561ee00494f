package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vitrina/internal/api"
	"github.com/erazemk/vitrina/internal/blob"
	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/config"
	"github.com/erazemk/vitrina/internal/db"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/orders"
	"github.com/erazemk/vitrina/internal/pgcatalog"
	"github.com/erazemk/vitrina/internal/postgrest"
	"github.com/erazemk/vitrina/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// flags holds command-line overrides; empty values keep the configuration.
type flags struct {
	envFile   string
	dbPath    string
	addr      string
	adminUser string
	logPath   string
	seed      bool
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("vitrina", flag.ContinueOnError)
	f := &flags{}

	fs.StringVar(&f.envFile, "env", ".env", "")
	fs.StringVar(&f.envFile, "e", ".env", "")
	fs.StringVar(&f.dbPath, "db", "", "")
	fs.StringVar(&f.dbPath, "d", "", "")
	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")
	fs.StringVar(&f.adminUser, "user", "", "")
	fs.StringVar(&f.adminUser, "u", "", "")
	fs.StringVar(&f.logPath, "log", "", "")
	fs.StringVar(&f.logPath, "l", "", "")
	fs.BoolVar(&f.seed, "seed", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: vitrina [flags]

Flags:
  -e, -env <path>         environment file to load (default: .env)
  -d, -db <path>          SQLite database path (default: $VITRINA_DB or vitrina.sqlite3)
  -a, -addr <host:port>   listen address (default: $VITRINA_ADDR or :8080)
  -u, -user <name>        admin username on first run (default: $VITRINA_ADMIN_USER or admin)
  -l, -log <path>         log file path (default: $VITRINA_LOG, stdout/stderr only)
      -seed               add sample products to empty sectors before serving
  -h, -help               show this help and exit

Catalog and photo storage backends are configured through the environment
(CATALOG_BACKEND, BLOB_BACKEND and their settings).
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return f, nil
}

// apply overrides cfg with the flags that were given.
func (f *flags) apply(cfg *config.Config) {
	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.adminUser != "" {
		cfg.AdminUser = f.adminUser
	}
	if f.logPath != "" {
		cfg.LogPath = f.logPath
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg, f.seed); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, seed bool) error {
	ctx := context.Background()

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	if n, err := store.PurgeRevokedTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to purge revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged expired token revocations", "count", n)
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	products, lookup, closeCatalog, err := openCatalog(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closeCatalog()

	blobs, err := openBlobs(cfg, database)
	if err != nil {
		return err
	}

	if seed {
		if err := seedSampleData(ctx, database, products); err != nil {
			return fmt.Errorf("seeding sample data: %w", err)
		}
	}

	router := api.NewRouter(api.Config{
		DB:        database,
		JWTSecret: jwtSecret,
		Catalog:   products,
		Blobs:     blobs,
		Orders:    &orders.Service{DB: database, Lookup: lookup},
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", router)
	handler := api.LoggingMiddleware(mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "catalog", cfg.CatalogBackend, "blobs", cfg.BlobBackend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// openCatalog connects the configured catalog backend. The returned lookup is
// nil for the local catalog so order lines resolve inside the order
// transaction.
func openCatalog(ctx context.Context, cfg config.Config, database *sql.DB) (catalog.Store, store.ProductLookup, func(), error) {
	switch cfg.CatalogBackend {
	case config.CatalogPostgREST:
		client, err := postgrest.New(postgrest.Config{
			BaseURL:   cfg.SupabaseURL,
			APIKey:    cfg.SupabaseKey,
			Table:     cfg.SupabaseTable,
			RateLimit: cfg.CatalogRateLimit,
			Timeout:   15 * time.Second,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("using postgrest catalog", "url", cfg.SupabaseURL, "table", cfg.SupabaseTable)
		return client, orders.CatalogLookup(client), func() {}, nil

	case config.CatalogPostgres:
		pool, err := pgcatalog.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		c := &pgcatalog.Catalog{DB: pool}
		if err := c.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		slog.Info("using postgres catalog")
		return c, orders.CatalogLookup(c), pool.Close, nil
	}

	return &store.Products{DB: database}, nil, func() {}, nil
}

func openBlobs(cfg config.Config, database *sql.DB) (blob.Store, error) {
	if cfg.BlobBackend == config.BlobS3 {
		s3, err := blob.NewS3(blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("using s3 photo storage", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return s3, nil
	}
	return &blob.DB{DB: database}, nil
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("ensuring schema: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	ctx := context.Background()
	_, err = store.CreateUser(ctx, database, adminUsername, string(hash), model.RoleAdmin)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
