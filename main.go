package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jadwalku/internal/api"
	"jadwalku/internal/auth"
	"jadwalku/internal/config"
	"jadwalku/internal/redis"
	"jadwalku/internal/service/ai"
	"jadwalku/internal/service/schedule"
	"jadwalku/internal/storage"
	"jadwalku/internal/worker"
)

var (
	cfgPath string
	dbType  string
)

func main() {
	root := &cobra.Command{
		Use:          "jadwalku",
		Short:        "Natural-language schedule tracker",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv(config.EnvConfigPath), "path to a JSON or YAML config file")
	root.PersistentFlags().StringVar(&dbType, "db", os.Getenv(config.EnvDatabase), "database driver (sqlite3 or mysql)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the web server",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database tables",
			Args:  cobra.NoArgs,
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every stored entry",
			Args:  cobra.NoArgs,
			RunE:  runList,
		},
		&cobra.Command{
			Use:   "add [text]",
			Short: "Extract entries from text (or piped stdin) and store them",
			Args:  cobra.ArbitraryArgs,
			RunE:  runAdd,
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an entry by id",
			Args:  cobra.ExactArgs(1),
			RunE:  runDelete,
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the dependencies shared by every command.
type app struct {
	cfg      *config.Config
	db       *sql.DB
	rdb      *redis.Client
	schedule *schedule.Service
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	driver := dbType
	if driver == "" {
		driver = "sqlite3"
	}
	log.Printf("dbType: %s\n", driver)
	db, err := storage.Open(driver, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Create necessary tables: jadwal, login_sessions
	if err := storage.Migrate(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = redis.NewRedisClient(cfg)
		if err != nil {
			log.Printf("redis unavailable, continuing without cache: %v", err)
			rdb = nil
		}
	}
	return &app{
		cfg:      cfg,
		db:       db,
		rdb:      rdb,
		schedule: schedule.NewService(db, rdb, cfg.Location()),
	}, nil
}

func (a *app) Close() {
	a.rdb.Close()
	a.db.Close()
}

func (a *app) newExtractor(ctx context.Context) (*ai.Extractor, error) {
	chatModel, err := ai.NewChatModel(ctx, a.cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return ai.NewExtractor(chatModel), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor, err := a.newExtractor(ctx)
	if err != nil {
		return err
	}
	basic := a.cfg.BasicConfig
	dispatcher := worker.NewDispatcher(extractor, worker.DispatcherConfig{
		MinWorkers:        basic.MinWorkers,
		MaxWorkers:        basic.MaxWorkers,
		QueueSize:         basic.QueueSize,
		WorkerIdleTimeout: a.cfg.WorkerIdleTimeout(),
		JobTimeout:        a.cfg.ExtractTimeout(),
	})
	defer dispatcher.Close()

	authService := auth.NewService(a.db, a.rdb, basic.AppPassword, a.cfg.SessionTTL())
	if err := authService.StartSessionCleaner(ctx, basic.SessionCleanupCron); err != nil {
		return err
	}

	handlers := api.NewHandler(a.schedule, authService, dispatcher)
	router := gin.Default()
	handlers.RegisterRoutes(router)

	srv := &http.Server{Addr: basic.ServerAddress, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", basic.ServerAddress)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.schedule.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "Belum ada jadwal")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%d\t%s %s\t%s\n", e.ID, e.Tanggal, e.Jam, e.Judul)
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.ExtractTimeout())
	defer cancel()
	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	extractor, err := a.newExtractor(ctx)
	if err != nil {
		return err
	}
	today := a.schedule.Today()
	items, err := extractor.Extract(ctx, text, today)
	if err != nil {
		return err
	}
	saved, err := a.schedule.Record(ctx, items, today)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, it := range saved {
		fmt.Fprintf(out, "%d\t%s %s\t%s\n", it.ID, it.Tanggal, it.Jam, it.Judul)
	}
	return nil
}

// readText joins args, or reads piped stdin when no args are given.
func readText(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no text given; pass it as arguments or pipe it on stdin")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("no text given")
	}
	return text, nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 0 {
		return fmt.Errorf("invalid id %q", args[0])
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.schedule.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
	return nil
}
