package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/drblury/specweaver/config"
	"github.com/drblury/specweaver/generator"
	"github.com/drblury/specweaver/info"
	"github.com/drblury/specweaver/probe"
	"github.com/drblury/specweaver/render"
	"github.com/drblury/specweaver/responder"
	"github.com/drblury/specweaver/router"
	"github.com/drblury/specweaver/speccache"
	"github.com/drblury/specweaver/specserve"
	"github.com/drblury/specweaver/version"
)

// app is the wired server. Close releases the watcher and any probe clients.
type app struct {
	Handler http.Handler
	Cache   *speccache.Cache[uint64]
	closers []func(context.Context) error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](context.Background()))
	}
	return errors.Join(errs...)
}

// newApp builds the pipeline. The file watcher runs until ctx is done.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	gen, err := generator.NewFileGenerator(cfg.Docs.Files)
	if err != nil {
		return nil, err
	}

	watcher, err := version.NewFileWatcher(gen.Files(), version.WithWatcherLogger(logger))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return watcher.Close() })
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("spec file watcher stopped", "error", err)
		}
	}()

	renderer, contentType := render.JSON(), specserve.DefaultContentType
	if cfg.Docs.Format == "yaml" {
		renderer, contentType = render.YAML(), render.YAMLContentType
	}

	cacheOpts := []speccache.Option{
		speccache.WithExceptionTTL(cfg.Docs.ExceptionCacheTTL),
		speccache.WithLogger(logger),
	}
	if !cfg.Docs.SingleFlight {
		cacheOpts = append(cacheOpts, speccache.WithoutSingleFlight())
	}
	if cfg.Metrics.Enabled && reg != nil {
		metrics, err := speccache.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		cacheOpts = append(cacheOpts, speccache.WithMetrics(metrics))
	}

	cache, err := speccache.New[uint64](watcher, gen, renderer, cacheOpts...)
	if err != nil {
		return nil, err
	}
	a.Cache = cache

	resp := responder.NewResponder(responder.WithLogger(logger))
	interceptor, err := specserve.New(cache, specserve.Config{
		Path:                  cfg.Docs.Path,
		DocumentName:          cfg.Docs.DocumentName,
		MountPath:             cfg.Docs.MountPath,
		ContentType:           contentType,
		TrustForwardedHeaders: cfg.Docs.TrustForwardedHeaders,
	}, specserve.WithResponder(resp), specserve.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	readiness := []probe.Func{probe.NewDocumentProbe(cache, cfg.Docs.DocumentName)}
	for _, target := range cfg.Probes.HTTP {
		readiness = append(readiness, probe.NewHTTPProbe("http "+target, target, nil))
	}
	if cfg.Probes.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Probes.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo probe: %w", err)
		}
		a.closers = append(a.closers, client.Disconnect)
		readiness = append(readiness, probe.NewMongoPingProbe(client, nil))
	}

	infoHandler := info.NewHandler(
		info.WithResponder(resp),
		info.WithTitle(cfg.Info.Title),
		info.WithSpecURL(cfg.Docs.Path),
		info.WithViewer(info.Viewer(cfg.Docs.UI)),
		info.WithProbeTimeout(cfg.Probes.Timeout),
		info.WithReadinessChecks(readiness...),
	)

	mux := http.NewServeMux()
	infoHandler.Mount(mux, cfg.Info.Prefix)
	infoPrefix := strings.TrimSuffix("/"+strings.Trim(cfg.Info.Prefix, "/"), "/")
	var skipValidation []string
	for _, route := range []string{"/status", "/healthz", "/readyz", "/version", "/docs"} {
		skipValidation = append(skipValidation, infoPrefix+route)
	}
	if cfg.Metrics.Enabled {
		if gatherer, isGatherer := reg.(prometheus.Gatherer); isGatherer {
			mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
			skipValidation = append(skipValidation, cfg.Metrics.Path)
		}
	}

	routerOpts := []router.Option{
		router.WithLogger(logger),
		router.WithInterceptors(interceptor.Middleware),
		router.WithConfig(router.Config{
			Timeout: cfg.Server.Timeout,
			CORS: router.CORSConfig{
				Origins:          cfg.CORS.Origins,
				Methods:          cfg.CORS.Methods,
				Headers:          cfg.CORS.Headers,
				AllowCredentials: cfg.CORS.AllowCredentials,
			},
			QuietRoutes:    []string{infoPrefix + "/healthz", infoPrefix + "/readyz", cfg.Metrics.Path},
			HideHeaders:    cfg.Log.HideHeaders,
			SkipValidation: skipValidation,
		}),
	}
	if cfg.Docs.ValidateRequests {
		doc, err := gen.Generate(ctx, cfg.Docs.DocumentName)
		if err != nil {
			return nil, fmt.Errorf("load document for request validation: %w", err)
		}
		routerOpts = append(routerOpts, router.WithSwagger(doc))
	}

	a.Handler = router.New(mux, routerOpts...)
	ok = true
	return a, nil
}
