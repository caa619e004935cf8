package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"go-restaurant-ordering/cache"
	"go-restaurant-ordering/config"
	"go-restaurant-ordering/controllers"
	"go-restaurant-ordering/database"
	"go-restaurant-ordering/helpers"
	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/routes"
	"go-restaurant-ordering/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if flag.Arg(0) == "token" {
		if err := issueToken(cfg, flag.Args()[1:]); err != nil {
			log.Fatalf("token: %v", err)
		}
		return
	}

	l := logging.Init(logging.Options{Component: cfg.App.Name, Level: cfg.App.LogLevel, FilePath: cfg.App.LogFile})
	if err := run(cfg); err != nil {
		l.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	l := logging.New("main")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			l.Warn("close store", "error", err)
		}
	}()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var idem services.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		idem = cache.NewRedisIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		l.Info("idempotent checkout enabled", "redis", cfg.Redis.Addr)
	}

	gin.SetMode(gin.ReleaseMode)
	h := controllers.New(
		services.NewCheckoutService(store, idem),
		services.NewStockService(store),
		services.NewOrderService(store),
		services.NewCatalogService(store),
		cfg.App.RequestTimeout,
	)
	router := routes.NewRouter(routes.Options{
		SecretKey:   cfg.Security.SecretKey,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      logging.New("http"),
	}, h)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info("listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// issueToken prints a signed token for local use, e.g.
// go run . token -uid admin-1 -role ADMIN
func issueToken(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	uid := fs.String("uid", "", "user id (required)")
	role := fs.String("role", "", "user role, e.g. ADMIN")
	email := fs.String("email", "", "email claim")
	name := fs.String("name", "", "name claim")
	ttl := fs.Duration("ttl", cfg.Security.TokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uid == "" {
		return errors.New("-uid is required")
	}
	token, _, err := helpers.GenerateAllTokens(cfg.Security.SecretKey, *ttl, *email, *name, *uid, *role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
