// Command reeferd runs the reefer shipping platform: the domain actors and
// the booking, scheduling and voyage projection services in front of them.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/booking"
	"github.com/Qalifah/reefer/config"
	"github.com/Qalifah/reefer/events"
	"github.com/Qalifah/reefer/projection"
	"github.com/Qalifah/reefer/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var logger log.Logger
	{
		if cfg.LogFormat == "json" {
			logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		} else {
			logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		}
		logger = level.NewFilter(logger, allowed(cfg.LogLevel))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	}

	if err := run(cfg, logger); err != nil {
		level.Error(logger).Log("err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger log.Logger) error {
	routes, err := cfg.Routes()
	if err != nil {
		return err
	}
	start, err := cfg.Start()
	if err != nil {
		return err
	}

	var store actor.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		store = actor.NewRedisStore(client, cfg.RedisPrefix)
		level.Info(logger).Log("store", "redis", "addr", cfg.RedisAddr)
	} else {
		store = actor.NewMemoryStore()
		level.Warn(logger).Log("store", "memory", "msg", "actor state will not survive a restart")
	}

	var zipkinTracer *stdzipkin.Tracer
	if cfg.ZipkinURL != "" {
		reporter := zipkinhttp.NewReporter(cfg.ZipkinURL)
		defer reporter.Close()
		ep, _ := stdzipkin.NewEndpoint("reeferd", cfg.HTTPAddr)
		zipkinTracer, err = stdzipkin.NewTracer(reporter, stdzipkin.WithLocalEndpoint(ep))
		if err != nil {
			return err
		}
		level.Info(logger).Log("tracer", "zipkin", "url", cfg.ZipkinURL)
	}
	otTracer := stdopentracing.GlobalTracer()

	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log.With(logger, "component", "amqp"))
		if err != nil {
			return err
		}
		publisher = p
	} else {
		publisher = events.NewNopPublisher()
	}
	publisher = events.NewLoggingPublisher(log.With(logger, "component", "events"), publisher)
	defer publisher.Close()

	fieldKeys := []string{"method"}
	duration := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: "reefer",
		Subsystem: "endpoint",
		Name:      "request_duration_seconds",
		Help:      "Request duration in seconds.",
	}, []string{"method", "success"})

	sys := actor.NewSystem(store,
		actor.WithLogger(log.With(logger, "component", "actor")),
		actor.WithCallTimeout(cfg.CallTimeout),
		actor.WithIdleTimeout(cfg.IdleTimeout),
		actor.WithMetrics(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "reefer",
				Subsystem: "actor",
				Name:      "turns_total",
				Help:      "Number of actor turns run.",
			}, []string{"type", "method", "error"}),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "reefer",
				Subsystem: "actor",
				Name:      "turn_latency_seconds",
				Help:      "Duration of actor turns in seconds.",
			}, []string{"type", "method", "error"}),
		),
	)
	client := actors.NewClient(sys)

	var ps projection.Service
	if cfg.ProjectionURL != "" {
		ps, err = projection.NewHTTPClient(cfg.ProjectionURL, otTracer, zipkinTracer, log.With(logger, "component", "projection"))
		if err != nil {
			return err
		}
	} else {
		ps = projection.NewService(client, publisher)
		ps = projection.NewLoggingService(log.With(logger, "component", "projection"), ps)
		ps = projection.NewInstrumentingService(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "reefer",
				Subsystem: "projection_service",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, fieldKeys),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "reefer",
				Subsystem: "projection_service",
				Name:      "request_latency_microseconds",
				Help:      "Total duration of requests in microseconds.",
			}, fieldKeys),
			ps,
		)
	}

	if err := actors.Register(sys, actors.Config{
		Routes:          routes,
		Start:           start,
		InventorySize:   cfg.InventorySize,
		MaintenanceDays: cfg.MaintenanceDays,
		Projection:      ps,
	}); err != nil {
		return err
	}

	var bs booking.Service
	bs = booking.NewService(client)
	bs = booking.NewLoggingService(log.With(logger, "component", "booking"), bs)
	bs = booking.NewInstrumentingService(
		kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "reefer",
			Subsystem: "booking_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys),
		kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "reefer",
			Subsystem: "booking_service",
			Name:      "request_latency_microseconds",
			Help:      "Total duration of requests in microseconds.",
		}, fieldKeys),
		kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "reefer",
			Subsystem: "booking_service",
			Name:      "reefers_booked_total",
			Help:      "Number of reefers allocated to new orders.",
		}, []string{}),
		bs,
	)

	var ss scheduling.Service
	ss = scheduling.NewService(client)
	ss = scheduling.NewLoggingService(log.With(logger, "component", "scheduling"), ss)
	ss = scheduling.NewInstrumentingService(
		kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "reefer",
			Subsystem: "scheduling_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys),
		kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "reefer",
			Subsystem: "scheduling_service",
			Name:      "request_latency_microseconds",
			Help:      "Total duration of requests in microseconds.",
		}, fieldKeys),
		kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: "reefer",
			Subsystem: "scheduling_service",
			Name:      "active_voyages",
			Help:      "Number of voyages at sea.",
		}, []string{}),
		ss,
	)

	httpLogger := log.With(logger, "component", "http")

	mux := http.NewServeMux()
	bookingHandler := booking.MakeHandler(booking.NewSet(bs, httpLogger, duration, otTracer, zipkinTracer), otTracer, zipkinTracer, httpLogger)
	schedulingHandler := scheduling.MakeHandler(scheduling.NewSet(ss, httpLogger, duration, otTracer, zipkinTracer), otTracer, zipkinTracer, httpLogger)
	mux.Handle("/orders", bookingHandler)
	mux.Handle("/orders/", bookingHandler)
	mux.Handle("/reefers/", bookingHandler)
	mux.Handle("/time/", schedulingHandler)
	mux.Handle("/voyage/", schedulingHandler)
	if cfg.ProjectionURL == "" {
		projectionHandler := projection.MakeHandler(projection.NewSet(ps, httpLogger, duration, otTracer, zipkinTracer), otTracer, zipkinTracer, httpLogger)
		mux.Handle("/voyage/info/", projectionHandler)
		mux.Handle("/voyage/update/", projectionHandler)
		mux.Handle("/voyage/track/", projectionHandler)
	}
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: accessControl(mux)}
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}

	errs := make(chan error, 2)
	go func() {
		level.Info(logger).Log("transport", "http", "address", cfg.HTTPAddr, "msg", "listening")
		errs <- srv.Serve(ln)
	}()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	reason := <-errs
	level.Info(logger).Log("terminated", reason)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		level.Error(logger).Log("transport", "http", "err", err)
	}
	return sys.Shutdown(ctx)
}

func allowed(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	}
	return level.AllowInfo()
}

func accessControl(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")

		if r.Method == "OPTIONS" {
			return
		}

		h.ServeHTTP(w, r)
	})
}
