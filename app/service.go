package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/tripstats/api/compute"
	"github.com/kilianp07/tripstats/config"
	"github.com/kilianp07/tripstats/core/analytics"
	coremetrics "github.com/kilianp07/tripstats/core/metrics"
	coremon "github.com/kilianp07/tripstats/core/monitoring"
	"github.com/kilianp07/tripstats/core/worker"
	"github.com/kilianp07/tripstats/infra/computelog"
	"github.com/kilianp07/tripstats/infra/logger"
	"github.com/kilianp07/tripstats/infra/metrics"
	"github.com/kilianp07/tripstats/infra/monitoring"
	"github.com/kilianp07/tripstats/infra/mqtt"
)

// Service wires the analytics engine to its worker pool and transports.
type Service struct {
	Engine *analytics.Engine
	Pool   *worker.Pool

	cfg  *config.Config
	log  logger.Logger
	sink coremetrics.MetricsSink
	mqtt *mqtt.Server
	api  *compute.Handler
	logs computelog.Store
	// attached is closed once the compute log recorder has drained.
	attached <-chan struct{}

	closeOnce sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	loc, err := cfg.Engine.Location()
	if err != nil {
		return nil, fmt.Errorf("engine location: %w", err)
	}
	engine := analytics.NewEngine(logger.New("engine"), sink)
	engine.Location = loc
	engine.Defaults = cfg.Engine.Settings
	if engine.Defaults.Locale == "" {
		engine.Defaults.Locale = cfg.Engine.Locale
	}

	pool := worker.New(cfg.Worker, engine, logger.New("worker"), sink)
	svc := &Service{Engine: engine, Pool: pool, cfg: cfg, log: logg, sink: sink}

	if cfg.ComputeLog.Enabled {
		store, err := computelog.New(cfg.ComputeLog)
		if err != nil {
			return nil, fmt.Errorf("compute log: %w", err)
		}
		svc.logs = store
	}

	if cfg.MQTT.Enabled() {
		srv, err := mqtt.NewServer(cfg.MQTT, pool)
		if err != nil {
			svc.closeStore()
			return nil, fmt.Errorf("mqtt server: %w", err)
		}
		svc.mqtt = srv
	}

	svc.api = compute.NewHandler(pool, logger.New("http"), engine.Defaults)
	svc.api.Logs = svc.logs
	svc.api.Token = cfg.HTTP.Token
	return svc, nil
}

// Handler returns the HTTP router of the service.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	s.api.RegisterRoutes(r)
	return r
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.Pool.Start(ctx)
	metrics.StartResponseCollector(ctx, s.Pool, s.sink)
	if s.logs != nil {
		s.attached = computelog.Attach(ctx, s.Pool, s.logs, logger.New("computelog"))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	start := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				s.log.Errorf("%s: %v", name, err)
				errs <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	if s.mqtt != nil {
		start("mqtt", func() error { return s.mqtt.Run(ctx) })
	}
	if s.cfg.HTTP.Enabled {
		start("http", func() error { return s.serveHTTP(ctx) })
	}
	if s.cfg.Metrics.PrometheusPort != "" {
		start("prometheus", func() error { return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort) })
	}

	s.log.Infof("service started")
	var err error
	select {
	case <-ctx.Done():
	case err = <-errs:
		cancel()
	}
	wg.Wait()
	return err
}

func (s *Service) serveHTTP(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.HTTP.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("serving API on %s", s.cfg.HTTP.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) closeStore() error {
	if s.logs == nil {
		return nil
	}
	return s.logs.Close()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.mqtt != nil {
			s.mqtt.Disconnect()
		}
		poolErr := s.Pool.Close()
		if s.attached != nil {
			select {
			case <-s.attached:
			case <-time.After(5 * time.Second):
				s.log.Warnf("compute log recorder did not drain")
			}
		}
		err = errors.Join(poolErr, s.closeStore())
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
		coremon.Flush(2 * time.Second)
	})
	return err
}
