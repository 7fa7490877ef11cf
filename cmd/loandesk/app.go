package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/totegamma/loandesk/internal/config"
	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/infra/database"
	"github.com/totegamma/loandesk/internal/infra/localstore"
	"github.com/totegamma/loandesk/internal/infra/remote"
	"github.com/totegamma/loandesk/internal/infra/report"
	"github.com/totegamma/loandesk/internal/present/rest"
	"github.com/totegamma/loandesk/internal/service"
	"github.com/totegamma/loandesk/internal/usecase"
)

// app holds every wired component of one process.
type app struct {
	cfg        config.Config
	registry   *localstore.Registry
	sync       *usecase.SyncUsecase
	dispatcher *usecase.Dispatcher
	scheduler  *usecase.Scheduler
	records    rest.Records
	loan       *usecase.LoanUsecase
	signal     *service.SignalService
	redis      *redis.Client
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func setupTraceProvider(ctx context.Context, endpoint, serviceName, serviceVersion string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trace exporter")
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.1))),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// newApp connects the configured backends. Missing remote settings leave the
// sync layer inert rather than failing startup.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	var (
		remoteStore usecase.RemoteStore
		reports     usecase.ReportStore
		events      usecase.EventSink
	)

	switch {
	case cfg.Server.PostgresDsn != "":
		db, err := database.NewPostgres(cfg.Server.PostgresDsn)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect database")
		}
		if err := database.MigratePostgres(db); err != nil {
			return nil, errors.Wrap(err, "failed to migrate database")
		}
		remoteStore = remote.NewPostgresStore(db)
		reports = report.NewPostgresStore(db)
	case cfg.Server.SupabaseURL != "" && cfg.Server.SupabaseKey != "":
		remoteStore = remote.NewRestStore(cfg.Server.SupabaseURL, cfg.Server.SupabaseKey)
	default:
		slog.WarnContext(
			ctx, "no remote store configured; records stay local",
			slog.String("module", "main"),
		)
	}

	if cfg.Server.RedisAddr != "" {
		rdb := database.NewRedis(cfg.Server.RedisAddr, "", cfg.Server.RedisDB)
		if err := database.PingRedis(ctx, rdb); err != nil {
			slog.WarnContext(
				ctx, "redis unavailable; live stream disabled",
				slog.String("addr", cfg.Server.RedisAddr),
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
			rdb.Close()
		} else {
			a.redis = rdb
			a.signal = service.NewSignalService(rdb)
			events = a.signal
			if reports == nil {
				reports = report.NewRedisStore(rdb)
			}
		}
	}
	if reports == nil {
		reports = report.NewMemoryStore()
	}

	gate := service.NewEnvironmentGate(cfg.Environment)
	slog.InfoContext(
		ctx, "sync gate evaluated",
		slog.Bool("enabled", gate.Enabled()),
		slog.String("environment", gate.Environment()),
		slog.String("module", "main"),
	)

	a.registry = localstore.NewRegistry(cfg.Server.DataDir)
	a.sync = usecase.NewSyncUsecase(gate, remoteStore, a.registry, reports, events, usecase.SyncOptions{
		RecordDelay:    cfg.Sync.RecordDelay.Std(),
		DuplicateCheck: cfg.Sync.DuplicateCheck,
	})
	a.dispatcher = usecase.NewDispatcher(a.sync, a.registry, cfg.Sync.QueueSize)
	a.scheduler = usecase.NewScheduler(a.sync, cfg.Sync.Interval.Std())

	a.records = rest.Records{
		Enquiries:           usecase.NewRecordUsecase[domain.Enquiry](a.registry.Enquiries, a.dispatcher),
		Documents:           usecase.NewRecordUsecase[domain.Document](a.registry.Documents, a.dispatcher),
		Shortlists:          usecase.NewRecordUsecase[domain.Shortlist](a.registry.Shortlists, a.dispatcher),
		Staff:               usecase.NewRecordUsecase[domain.Staff](a.registry.Staff, a.dispatcher),
		Transactions:        usecase.NewRecordUsecase[domain.Transaction](a.registry.Transactions, a.dispatcher),
		PaymentApplications: usecase.NewRecordUsecase[domain.PaymentApplication](a.registry.PaymentApplications, a.dispatcher),
	}
	a.loan = usecase.NewLoanUsecase(a.records.Enquiries, a.records.Shortlists, a.records.Documents, a.records.PaymentApplications)

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	setupLogger(strings.ToLower(cfg.Server.LogLevel))
	return cfg, nil
}
