package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eduai/lkpd/internal/handler"
	appI18n "github.com/eduai/lkpd/internal/i18n"
	"github.com/eduai/lkpd/internal/llm"
	"github.com/eduai/lkpd/internal/llm/prompts"
	"github.com/eduai/lkpd/internal/recap"
	"github.com/eduai/lkpd/internal/scoring"
	"github.com/eduai/lkpd/internal/store"
	"github.com/eduai/lkpd/internal/submission"
	"github.com/eduai/lkpd/internal/worksheet"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lkpd",
		Short: "LKPD worksheet generator and grader",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), idsCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// commonFlags registers the storage, language and logging flags shared by all commands.
func commonFlags(f *pflag.FlagSet) {
	f.String("worksheets-dir", "data/lkpd_outputs", "Directory of worksheet documents (fs store)")
	f.String("answers-dir", "data/answers", "Directory of answer logs (fs store)")
	f.String("store", string(store.BackendFS), "Document store backend (fs, sqlite)")
	f.String("db", "data/lkpd.db", "SQLite database path (sqlite store)")
	f.StringP("lang", "l", "id", "Language for prompts, labels and messages (id, en)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8000", "HTTP listen address")
	f.String("llm-url", "https://generativelanguage.googleapis.com/v1beta/openai/", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the text model")
	f.String("llm-model", "gemini-2.0-flash", "Text model name")
	f.Duration("llm-timeout", 60*time.Second, "Timeout of a single text model request")
	f.Int("llm-max-attempts", 3, "Attempts per text model call")
	f.Duration("llm-base-delay", 2*time.Second, "Base wait between attempts")
	f.Duration("llm-jitter", time.Second, "Upper bound of random extra wait between attempts")
	f.StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")
	f.String("web-dir", "web", "Static front-end directory (served at / when present)")
	commonFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the score recap of a worksheet as CSV or XLSX",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("id", "", "Worksheet ID (required)")
	f.String("format", "csv", "Output format (csv, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	commonFlags(f)

	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func idsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ids",
		Short: "List stored worksheet IDs",
		RunE:  runIDs,
	}
	commonFlags(cmd.Flags())
	return cmd
}

func setupLogging(v *viper.Viper) {
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

// viperForCmd binds a command's flags and LKPD_* environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LKPD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("lkpd")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/lkpd")
	v.AddConfigPath("/etc/lkpd")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// setup prepares logging, translations and the store for any command.
func setup(cmd *cobra.Command) (*viper.Viper, *store.Store, error) {
	v := viperForCmd(cmd)
	setupLogging(v)

	lang := strings.ToLower(v.GetString("lang"))
	if !prompts.IsValidLanguage(lang) {
		slog.Warn("unsupported language, using id", "lang", lang)
		lang = string(prompts.LangIndonesian)
		v.Set("lang", lang)
	}
	if err := appI18n.Init(lang); err != nil {
		return nil, nil, fmt.Errorf("init i18n: %w", err)
	}

	s, err := store.New(store.Config{
		WorksheetsPath: v.GetString("worksheets-dir"),
		AnswersPath:    v.GetString("answers-dir"),
		Backend:        store.Backend(v.GetString("store")),
		DBPath:         v.GetString("db"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return v, s, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v, s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	lang := prompts.Language(v.GetString("lang"))
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(string(lang)))

	var (
		gen    *llm.Client
		models handler.ModelLister
	)
	if v.GetString("llm-key") == "" {
		slog.Warn("no llm-key configured; generation will fail and feedback will use the fallback sentence")
	} else {
		gen = llm.New(
			v.GetString("llm-url"),
			v.GetString("llm-key"),
			v.GetString("llm-model"),
			v.GetDuration("llm-timeout"),
			llm.WithRetry(llm.RetryPolicy{
				MaxAttempts: v.GetInt("llm-max-attempts"),
				BaseDelay:   v.GetDuration("llm-base-delay"),
				Jitter:      v.GetDuration("llm-jitter"),
			}),
		)
		models = gen
	}

	var textGen scoring.TextGenerator
	if gen != nil {
		textGen = gen
	}
	engine := scoring.New(textGen,
		scoring.WithLanguage(lang),
		scoring.WithFallbackFeedback(appI18n.T(ctx, "FallbackFeedback")),
	)

	h := handler.New(
		worksheet.New(textGen, s, lang),
		submission.New(s, engine),
		recap.NewProjector(s),
		models,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: v.GetStringSlice("allowed-origins"),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	r.Route("/api", h.Routes)

	webDir := v.GetString("web-dir")
	if fi, err := os.Stat(webDir); err == nil && fi.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(webDir)))
		slog.Info("serving static front-end", "dir", webDir)
	}

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"store", v.GetString("store"),
			"model", v.GetString("llm-model"),
			"llm_url", v.GetString("llm-url"),
			"lang", lang,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	v, s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(v.GetString("lang")))
	id := strings.TrimSpace(v.GetString("id"))
	labels := recap.LocalizedLabels(appI18n.Translator(ctx))
	rows := recap.NewProjector(s).Project(id, labels)
	if len(rows) == 0 {
		return errors.New(appI18n.T(ctx, "ErrNoSubmissions"))
	}

	write := recap.WriteCSV
	switch format := strings.ToLower(v.GetString("format")); format {
	case "csv":
	case "xlsx":
		write = recap.WriteXLSX
	default:
		return fmt.Errorf("unknown export format %q (want csv or xlsx)", format)
	}

	outPath := v.GetString("output")
	err = writeOutput(outPath, func(w io.Writer) error { return write(w, rows, labels) })
	if err != nil {
		return fmt.Errorf("write recap: %w", err)
	}
	if outPath != "" && outPath != "-" {
		slog.Info(appI18n.Td(ctx, "ExportWritten", map[string]any{"ID": id, "Path": outPath}), "rows", len(rows))
	}
	return nil
}

// writeOutput runs write against stdout ("" or "-") or a new file at path.
// A file that could not be fully written or closed is removed.
func writeOutput(path string, write func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	if err = write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func runIDs(cmd *cobra.Command, _ []string) error {
	v, s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ids, err := worksheet.New(nil, s, prompts.Language(v.GetString("lang"))).IDs()
	if err != nil {
		return fmt.Errorf("list worksheets: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(v.GetString("lang")))
	fmt.Fprintln(cmd.ErrOrStderr(), appI18n.Tp(ctx, "WorksheetsStored", len(ids)))
	return nil
}
