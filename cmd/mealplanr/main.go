package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mealplanr/internal/app"
	"mealplanr/internal/auth"
	"mealplanr/internal/catalog"
	"mealplanr/internal/clock"
	"mealplanr/internal/config"
	"mealplanr/internal/database"
	"mealplanr/internal/ghost"
	apihttp "mealplanr/internal/http"
	httpH "mealplanr/internal/http/handlers"
	httpMW "mealplanr/internal/http/middleware"
	"mealplanr/internal/importer"
	"mealplanr/internal/llm"
	"mealplanr/internal/logger"
	"mealplanr/internal/metrics"
	"mealplanr/internal/planner"
	"mealplanr/internal/telegram"
	"mealplanr/internal/user"
)

// env is what every subcommand needs: configuration, a logger and an open database.
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
}

func setup() (*env, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	e.db.Close()
	e.log.Sync()
}

func main() {
	root := &cobra.Command{
		Use:           "mealplanr",
		Short:         "Weekly meal planning and shopping list service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), importCmd(), importGhostCmd(), metricsCleanupCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the Telegram webhook when configured)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()
			return serve(ctx, e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	clk := &clock.RealClock{}
	users := user.NewRepository(e.db.SQL)
	catalogRepo := catalog.NewRepository(e.db.SQL)
	usageStore := metrics.NewStore(e.db.SQL)

	if n, err := catalogRepo.Count(ctx); err != nil {
		return err
	} else if n == 0 {
		e.log.Warn("meal catalog is empty, run `mealplanr seed` before generating plans")
	}

	authService := auth.NewService(users, e.cfg.JWTSecretKey, e.cfg.AccessTokenTTL, clk, e.log)
	seed := uint64(time.Now().UnixNano())
	plans := planner.NewService(catalogRepo, planner.NewPlanRepository(e.db.SQL), clk, rand.New(rand.NewPCG(seed, seed>>1)), e.log)

	routes := apihttp.RouterConfig{
		Log:            e.log,
		AllowedOrigins: e.cfg.CORSAllowedOrigins,
		AuthHandler:    httpH.NewAuthHandler(authService, users),
		AuthMiddleware: httpMW.NewAuthMiddleware(e.log, authService),
		PlanHandler:    httpH.NewPlanHandler(plans),
		MealHandler:    httpH.NewMealHandler(catalogRepo),
		HealthHandler:  httpH.NewHealthHandler(e.db),
	}

	if e.cfg.TelegramEnabled() {
		api, err := telegram.Connect(e.cfg.TelegramBotToken, e.cfg.TelegramWebhookURL, e.cfg.TelegramWebhookSecret, e.log)
		if err != nil {
			return err
		}
		imp, closeGen := newImporter(ctx, e, catalogRepo, usageStore)
		defer closeGen()
		routes.TelegramWebhook = telegram.NewBot(api, plans, users, imp, usageStore, telegram.Options{
			AllowUserID:   e.cfg.TelegramAllowUserID,
			UserEmail:     e.cfg.TelegramUserEmail,
			DataPath:      filepath.Dir(e.cfg.DatabasePath),
			WebhookSecret: e.cfg.TelegramWebhookSecret,
		}, clk, e.log)
	}

	server := apihttp.NewServer(routes, ":"+e.cfg.Port)
	return server.Run(ctx)
}

// newImporter builds an Importer backed by the configured LLM provider, or the heuristic parser without one.
func newImporter(ctx context.Context, e *env, store importer.MealStore, usage importer.UsageRecorder) (*importer.Importer, func()) {
	gen, err := llm.New(ctx, e.cfg)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			e.log.Warn("LLM provider unavailable, using heuristic ingredient parsing", "error", err)
		}
		return importer.New(store, nil, usage, e.log), func() {}
	}
	closeGen := func() {}
	if c, ok := gen.(llm.Closer); ok {
		closeGen = func() { c.Close() }
	}
	return importer.New(store, gen, usage, e.log), closeGen
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()
			e.log.Info("database is up to date", "path", e.cfg.DatabasePath)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the meal catalog with the bundled seed or a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			var meals []catalog.Meal
			if file == "" {
				meals, err = catalog.LoadSeed()
			} else {
				var data []byte
				if data, err = os.ReadFile(file); err == nil {
					meals, err = catalog.ParseMeals(data)
				}
			}
			if err != nil {
				return fmt.Errorf("failed to load meals: %w", err)
			}

			if err := catalog.NewRepository(e.db.SQL).ReplaceAll(cmd.Context(), meals); err != nil {
				return err
			}
			e.log.Info("catalog seeded", "meals", len(meals))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file of meals (defaults to the bundled catalog)")
	return cmd
}

func importCmd() *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "import-meal <url>",
		Short: "Import a recipe page into the meal catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			imp, closeGen := newImporter(cmd.Context(), e, catalog.NewRepository(e.db.SQL), metrics.NewStore(e.db.SQL))
			defer closeGen()

			meal, err := imp.ImportURL(cmd.Context(), args[0], tags)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %q (%s) with %d ingredients\n", meal.Name, meal.ID, len(meal.Ingredients))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "dietary tag to attach (repeatable)")
	return cmd
}

func importGhostCmd() *cobra.Command {
	var filterTag string
	var tags []string
	cmd := &cobra.Command{
		Use:   "import-ghost",
		Short: "Import recipe posts from a Ghost blog into the meal catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			if e.cfg.GhostURL == "" || e.cfg.GhostContentKey == "" {
				return errors.New("GHOST_URL and GHOST_CONTENT_KEY must be set")
			}
			catalogRepo := catalog.NewRepository(e.db.SQL)
			imp, closeGen := newImporter(cmd.Context(), e, catalogRepo, metrics.NewStore(e.db.SQL))
			defer closeGen()

			client := ghost.NewClient(e.cfg.GhostURL, e.cfg.GhostContentKey)
			res, err := app.IngestRecipes(cmd.Context(), client, catalogRepo, imp, filterTag, tags, e.log)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d, already present %d, skipped %d, failed %d\n", res.Imported, res.Existing, res.Skipped, res.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&filterTag, "filter-tag", "", "only import posts carrying this Ghost tag")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "dietary tag to attach to every imported meal (repeatable)")
	return cmd
}

func metricsCleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old LLM usage records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			affected, err := metrics.NewStore(e.db.SQL).Cleanup(cmd.Context(), time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			fmt.Printf("Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "keep records for the last N days")
	return cmd
}
