package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/aquadrop/api/controllers"
	"github.com/angelmondragon/aquadrop/api/routes"
	"github.com/angelmondragon/aquadrop/internal/cart"
	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/internal/discovery"
	"github.com/angelmondragon/aquadrop/internal/identity"
	"github.com/angelmondragon/aquadrop/internal/location"
	"github.com/angelmondragon/aquadrop/internal/orders"
	"github.com/angelmondragon/aquadrop/pkg/config"
	"github.com/angelmondragon/aquadrop/pkg/db"
	"github.com/angelmondragon/aquadrop/pkg/firestore"
	"github.com/angelmondragon/aquadrop/pkg/logger"
	"github.com/angelmondragon/aquadrop/pkg/maps"
	"github.com/angelmondragon/aquadrop/pkg/metrics"
	"github.com/angelmondragon/aquadrop/pkg/pubsub"
	"github.com/angelmondragon/aquadrop/pkg/redis"
	"github.com/angelmondragon/aquadrop/pkg/retry"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		NoColor:     cfg.App.LogNoColor,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	fsClient, err := firestore.New(ctx, cfg.GCP, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, fsClient.Close()) }()

	localStore, err := db.New(ctx, cfg.LocalStore, logg, &cart.LocalEntry{})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, localStore.Close()) }()

	deps := []controllers.Dependency{
		{Name: "firestore", Pinger: fsClient},
		{Name: "local_store", Pinger: localStore},
	}

	var cache catalog.Cache
	if cfg.Redis.Enabled() {
		redisClient, rerr := redis.New(ctx, cfg.Redis, logg)
		if rerr != nil {
			return rerr
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		cache = redisClient
		deps = append(deps, controllers.Dependency{Name: "redis", Pinger: redisClient})
	} else {
		logg.Warn(ctx, "redis not configured, catalog cache disabled")
	}

	var publisher orders.Publisher
	if cfg.PubSub.Enabled() {
		psClient, perr := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if perr != nil {
			return perr
		}
		defer func() { err = multierr.Append(err, psClient.Close()) }()
		publisher = psClient
		deps = append(deps, controllers.Dependency{Name: "pubsub", Pinger: psClient})
	} else {
		logg.Warn(ctx, "pubsub topic not configured, order events disabled")
	}

	var geocoder location.Geocoder
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, merr := maps.NewClient(cfg.GoogleMaps.APIKey, maps.WithRegionCodes(cfg.GoogleMaps.RegionCodes...))
		if merr != nil {
			return merr
		}
		geocoder = mapsClient
	} else {
		logg.Warn(ctx, "google maps key not configured, address lookup disabled")
	}

	policy := retry.Policy{Attempts: cfg.Firestore.RetryAttempts, BaseDelay: cfg.Firestore.RetryBaseDelay}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Repo:    catalog.NewFirestoreRepository(fsClient.Firestore, cfg.Firestore),
		Cache:   cache,
		TTL:     cfg.Catalog.CacheTTL,
		Logger:  logg,
		Metrics: metrics.NewCacheMetrics(registry),
	})
	if err != nil {
		return err
	}

	resolver, err := identity.NewResolver(
		fsClient.Auth,
		identity.FirestoreProfiles{Client: fsClient.Firestore},
		cfg.Firestore.ProfileCollections,
		logg,
	)
	if err != nil {
		return err
	}

	events := identity.NewBroadcaster()
	cancelLog := events.Subscribe(identity.LogChanges(logg))
	defer cancelLog()
	transitions, stopTransitions := events.Channel(64)
	defer stopTransitions()
	go identity.CountTransitions(transitions, metrics.NewIdentityMetrics(registry))

	carts, err := cart.NewRegistry(cart.RegistryParams{
		Local:          cart.NewLocalRepository(localStore.DB()),
		Remote:         cart.NewFirestoreRepository(fsClient.Firestore, cfg.Firestore.CartsCollection, policy),
		Policy:         cart.ParsePolicy(cfg.Cart.IdentityPolicy),
		PersistTimeout: cfg.Cart.PersistTimeout,
		Logger:         logg,
		Metrics:        metrics.NewCartMetrics(registry),
		Events:         events,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		err = multierr.Append(err, carts.Close(closeCtx))
	}()

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewFirestoreRepository(fsClient.Firestore, cfg.Firestore.OrdersCollection, policy),
		Publisher: publisher,
		Products:  catalogSvc,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	discoverySvc := discovery.NewService(catalogSvc, location.NewResolver(geocoder, cfg.GoogleMaps.Timeout, logg))

	go sweepSessions(ctx, carts, cfg.Cart.SessionIdleTimeout, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"identity_policy": cfg.Cart.IdentityPolicy,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:       cfg,
			Logger:       logg,
			Identities:   resolver,
			Carts:        carts,
			Catalog:      catalogSvc,
			Discovery:    discoverySvc,
			Orders:       ordersSvc,
			Gatherer:     registry,
			Dependencies: deps,
			CORSOrigins:  cfg.App.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepSessions evicts carts idle past the timeout, flushing their pending writes.
func sweepSessions(ctx context.Context, carts *cart.Registry, idle time.Duration, logg *logger.Logger) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := carts.Sweep(ctx, idle)
			if err != nil {
				logg.Error(ctx, "cart.sweep.failed", err)
			}
			if evicted > 0 {
				logg.Info(logg.WithField(ctx, "evicted", evicted), "cart.sweep")
			}
		}
	}
}
