package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cppdeck/cppdeck/internal/bank"
	"github.com/cppdeck/cppdeck/internal/deck"
	"github.com/cppdeck/cppdeck/internal/handler"
	"github.com/cppdeck/cppdeck/internal/model"
	"github.com/cppdeck/cppdeck/internal/progress"
	"github.com/cppdeck/cppdeck/internal/quiz"
	"github.com/cppdeck/cppdeck/internal/report"
	"github.com/cppdeck/cppdeck/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cppdeck",
		Short: "CPP exam flashcard and quiz server",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), resetCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `cppdeck --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the study server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "cppdeck.db", "SQLite database path")
	f.StringP("bank", "b", "questions/cpp_questions.json", "Path to the question bank JSON file")
	f.IntP("quiz-size", "n", quiz.DefaultSize, "Default number of questions per quiz")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a progress report",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "cppdeck.db", "SQLite database path")
	f.StringP("bank", "b", "questions/cpp_questions.json", "Path to the question bank JSON file")
	f.StringP("format", "f", "json", "Output format (json, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout, json only)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset all saved study progress",
		RunE:  runReset,
	}
	f := cmd.Flags()
	f.String("db", "cppdeck.db", "SQLite database path")
	f.StringP("bank", "b", "questions/cpp_questions.json", "Path to the question bank JSON file")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("CPPDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("cppdeck")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/cppdeck")
	v.AddConfigPath("/etc/cppdeck")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// loadPool loads the question bank, degrading to an empty pool on a missing
// or malformed file. An empty pool is a valid state: the app stays usable
// with zero quizzes available.
func loadPool(path string) []model.Question {
	pool, err := bank.Load(path)
	if err != nil {
		slog.Warn("question bank unavailable, starting with empty pool", "path", path, "error", err)
		return nil
	}
	slog.Info("loaded question bank", "path", path, "questions", len(pool))
	return pool
}

// openProgress opens the store, builds the default deck from the pool and
// rehydrates any persisted state onto it.
func openProgress(db *store.Store, pool []model.Question) *progress.Store {
	chapters := deck.Build(pool)
	states, err := db.LoadProgress()
	if err != nil {
		slog.Warn("loading saved progress failed, starting fresh", "error", err)
		states = nil
	}
	progress.Apply(chapters, states)
	return progress.New(chapters, db)
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pool := loadPool(v.GetString("bank"))
	prog := openProgress(db, pool)

	cfg := model.ServerConfig{
		Addr:     v.GetString("addr"),
		BankPath: v.GetString("bank"),
		QuizSize: v.GetInt("quiz-size"),
	}

	h := handler.New(prog, db, quiz.New(nil), pool, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	slog.Info("starting server",
		"addr", cfg.Addr,
		"bank", cfg.BankPath,
		"questions", len(pool),
		"quiz_size", cfg.QuizSize,
	)
	return http.ListenAndServe(cfg.Addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pool := loadPool(v.GetString("bank"))
	prog := openProgress(db, pool)
	chapters := prog.Chapters()
	export := report.Build(chapters, len(pool))

	outPath := v.GetString("output")
	format := strings.ToLower(v.GetString("format"))

	var w io.Writer
	if outPath == "" || outPath == "-" {
		if format == "xlsx" {
			return fmt.Errorf("xlsx output requires --output with a file path")
		}
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return report.WriteJSON(w, export)
	case "xlsx":
		return report.WriteXLSX(w, export, chapters)
	default:
		return fmt.Errorf("unknown format %q (want json or xlsx)", format)
	}
}

func runReset(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pool := loadPool(v.GetString("bank"))
	prog := openProgress(db, pool)
	prog.Reset()

	slog.Info("progress reset")
	return nil
}
