package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"door_shop_backend/internal/config"
	"door_shop_backend/internal/database"
	"door_shop_backend/internal/metrics"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/internal/router"
	"door_shop_backend/internal/seed"
	"door_shop_backend/internal/services"
	"door_shop_backend/pkg/utils"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "door-shop",
		Short:         "Door shop POS and inventory backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", utils.Getenv("POS_CONFIG", ""), "Config file path (YAML)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		migrateCmd(&configPath),
		recomputeCmd(&configPath),
		seedCmd(&configPath),
	)
	return cmd
}

// bootstrap loads configuration, initializes logging and JWT, and opens the database.
func bootstrap(configPath string) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Format)
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func serve(ctx context.Context, configPath string) error {
	cfg, db, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := database.NewMigrator(db)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			return err
		}
	}

	m := metrics.New()
	engine := router.NewEngine(cfg, m)
	if err := router.Setup(engine, db, cfg, m); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.App.Port, "env": cfg.App.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(action func(*database.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()
			migrator, err := database.NewMigrator(db)
			if err != nil {
				return err
			}
			return action(migrator)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run((*database.Migrator).Up)},
		&cobra.Command{Use: "down", Short: "Roll back all migrations", RunE: run((*database.Migrator).Down)},
		&cobra.Command{Use: "version", Short: "Print the applied migration version", RunE: run(func(mg *database.Migrator) error {
			version, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
			return nil
		})},
	)
	return cmd
}

func recomputeCmd(configPath *string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "recompute-summary",
		Short: "Rebuild the daily summary of one date from its sales",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			day, err := utils.ParseDate(date, cfg.Location())
			if err != nil {
				return err
			}
			summaries := services.NewDailySummaryService(db, repositories.NewDailySummaryRepository(db), cfg.Location(),
				services.ProfitCostBasis(cfg.Inventory.ProfitCostBasis), nil)
			summary, err := summaries.Recompute(cmd.Context(), day)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d sales, total %s, profit %s\n", date, summary.SaleCount, summary.TotalSales, summary.TotalProfit)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format(utils.DateLayout), "Date to recompute (YYYY-MM-DD)")
	return cmd
}

func seedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, categories, suppliers and products from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()
			doc, err := seed.Parse(fh)
			if err != nil {
				return err
			}

			productRepo := repositories.NewProductRepository(db)
			ledger := services.NewStockLedger(productRepo, repositories.NewStockMovementRepository(db), nil)
			seeder := seed.NewSeeder(
				services.NewAuthService(repositories.NewAuthRepository(db), db),
				services.NewCatalogService(db, repositories.NewCategoryRepository(db), productRepo, ledger),
				services.NewSupplierService(db, repositories.NewSupplierRepository(db)),
			)
			res, err := seeder.Apply(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d users, %d categories, %d suppliers, %d products (%d skipped) into %s\n",
				res.Users, res.Categories, res.Suppliers, res.Products, res.Skipped, cfg.Database.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "Seed file")
	return cmd
}
