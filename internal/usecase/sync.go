package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/totegamma/loandesk/internal/domain"
)

var tracer = otel.Tracer("sync")

var errNoRemote = errors.New("remote store not configured")

type SyncOptions struct {
	// RecordDelay is the pause between records of one batch.
	RecordDelay time.Duration
	// DuplicateCheck probes the primary enquiry table before upserting.
	DuplicateCheck bool
}

// SyncUsecase pushes local records to the remote store. It holds no state
// between calls; a record that fails is only retried by a later bulk run.
type SyncUsecase struct {
	gate     Gate
	remote   RemoteStore
	source   SnapshotSource
	reports  ReportStore
	events   EventSink
	mappings map[domain.EntityType]Mapping
	opts     SyncOptions
	now      func() time.Time
}

// NewSyncUsecase wires the orchestrator. remote, source, reports and events
// may be nil.
func NewSyncUsecase(
	gate Gate,
	remote RemoteStore,
	source SnapshotSource,
	reports ReportStore,
	events EventSink,
	opts SyncOptions,
) *SyncUsecase {
	return &SyncUsecase{
		gate:     gate,
		remote:   remote,
		source:   source,
		reports:  reports,
		events:   events,
		mappings: DefaultMappings(),
		opts:     opts,
		now:      time.Now,
	}
}

func (uc *SyncUsecase) active() bool {
	return uc.remote != nil && uc.gate != nil && uc.gate.Enabled()
}

// SyncOne submits a single record. It returns true only when some destination
// accepted the row; gating and configuration skips return false silently.
func (uc *SyncUsecase) SyncOne(ctx context.Context, t domain.EntityType, record domain.Record) bool {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.SyncOne")
	defer span.End()
	span.SetAttributes(attribute.String("type", t.String()))

	outcome, table, err := uc.syncRecord(ctx, t, record)
	if err != nil {
		span.RecordError(err)
	}
	uc.observe(ctx, t, record, outcome, table, err)
	return outcome == domain.OutcomeSynced
}

func (uc *SyncUsecase) syncRecord(ctx context.Context, t domain.EntityType, record domain.Record) (outcome domain.SyncOutcome, table string, err error) {
	if !uc.active() {
		return domain.OutcomeSkipped, "", nil
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = domain.OutcomeFailed
			table = ""
			err = fmt.Errorf("sync panicked: %v", r)
		}
	}()

	mapping, ok := uc.mappings[t]
	if !ok {
		return domain.OutcomeFailed, "", domain.UnknownEntityTypeError{Name: string(t)}
	}
	if record == nil {
		return domain.OutcomeFailed, "", domain.ErrRecordType
	}

	row, err := mapping.Map(record, uc.now().UTC())
	if err != nil {
		return domain.OutcomeFailed, "", errors.Wrapf(err, "map %s", t)
	}

	if uc.opts.DuplicateCheck && t == domain.EntityEnquiry && len(mapping.Destinations) > 0 {
		primary := mapping.Destinations[0]
		exists, err := uc.remote.Exists(ctx, primary.Table, primary.ConflictKey, row[primary.ConflictKey])
		if err != nil {
			slog.WarnContext(
				ctx, "duplicate probe failed, submitting anyway",
				slog.String("table", primary.Table),
				slog.String("error", err.Error()),
				slog.String("module", "sync"),
			)
		} else if exists {
			return domain.OutcomeDuplicate, primary.Table, nil
		}
	}

	var errs []error
	for _, dest := range mapping.Destinations {
		_, err := uc.remote.Upsert(ctx, dest.Table, row, dest.ConflictKey)
		if err == nil {
			return domain.OutcomeSynced, dest.Table, nil
		}
		errs = append(errs, errors.Wrapf(err, "upsert %s", dest.Table))
	}
	return domain.OutcomeFailed, "", stderrors.Join(errs...)
}

func (uc *SyncUsecase) observe(ctx context.Context, t domain.EntityType, record domain.Record, outcome domain.SyncOutcome, table string, err error) {
	id := recordID(record)

	switch outcome {
	case domain.OutcomeSkipped:
		return
	case domain.OutcomeFailed:
		slog.ErrorContext(
			ctx, "record sync failed",
			slog.String("type", t.String()),
			slog.String("id", id),
			slog.String("error", err.Error()),
			slog.String("module", "sync"),
		)
	case domain.OutcomeDuplicate:
		slog.InfoContext(
			ctx, "duplicate record not synced",
			slog.String("type", t.String()),
			slog.String("id", id),
			slog.String("table", table),
			slog.String("module", "sync"),
		)
	default:
		slog.DebugContext(
			ctx, "record synced",
			slog.String("type", t.String()),
			slog.String("id", id),
			slog.String("table", table),
			slog.String("module", "sync"),
		)
	}

	event := domain.SyncEvent{
		Kind:     "record",
		Type:     t,
		RecordID: id,
		Outcome:  outcome,
		Table:    table,
		At:       uc.now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	uc.emit(ctx, event)
}

// recordID tolerates nil pointers wrapped in a Record.
func recordID(record domain.Record) (id string) {
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if record == nil {
		return ""
	}
	return record.RecordID()
}

func (uc *SyncUsecase) emit(ctx context.Context, event domain.SyncEvent) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		slog.DebugContext(
			ctx, "sync event not published",
			slog.String("error", err.Error()),
			slog.String("module", "sync"),
		)
	}
}

// SyncMany submits records one at a time, pacing them by RecordDelay.
// Every record is counted exactly once.
func (uc *SyncUsecase) SyncMany(ctx context.Context, t domain.EntityType, records []domain.Record) domain.SyncCounts {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.SyncMany")
	defer span.End()
	span.SetAttributes(attribute.String("type", t.String()), attribute.Int("records", len(records)))

	var counts domain.SyncCounts
	if !uc.active() {
		counts.Skipped = len(records)
		return counts
	}

	var limiter *rate.Limiter
	if uc.opts.RecordDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(uc.opts.RecordDelay), 1)
	}

	for i, record := range records {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				counts.Skipped += len(records) - i
				span.RecordError(errors.Wrap(err, "batch interrupted"))
				slog.WarnContext(
					ctx, "batch interrupted",
					slog.String("type", t.String()),
					slog.Int("remaining", len(records)-i),
					slog.String("module", "sync"),
				)
				break
			}
		}

		outcome, table, err := uc.syncRecord(ctx, t, record)
		uc.observe(ctx, t, record, outcome, table, err)
		counts.Add(outcome)
	}

	slog.InfoContext(
		ctx, "batch synced",
		slog.String("type", t.String()),
		slog.Int("success", counts.Success),
		slog.Int("failed", counts.Failed),
		slog.Int("duplicate", counts.Duplicate),
		slog.Int("skipped", counts.Skipped),
		slog.String("module", "sync"),
	)
	return counts
}

// SyncSnapshots runs SyncMany for every known entity type over the given
// snapshots. Types missing from the map report zero counts.
func (uc *SyncUsecase) SyncSnapshots(ctx context.Context, trigger string, snapshots map[domain.EntityType][]domain.Record) domain.SyncReport {
	return uc.run(ctx, trigger, snapshots, nil)
}

// SyncAll reads every local collection and submits it.
func (uc *SyncUsecase) SyncAll(ctx context.Context, trigger string) (domain.SyncReport, error) {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.SyncAll")
	defer span.End()

	if uc.source == nil {
		err := errors.New("no local snapshot source")
		span.RecordError(err)
		return domain.SyncReport{}, err
	}

	snapshots := make(map[domain.EntityType][]domain.Record, len(domain.EntityTypes))
	failures := make(map[domain.EntityType]error)
	for _, t := range domain.EntityTypes {
		records, err := uc.source.Snapshot(ctx, t)
		if err != nil {
			span.RecordError(errors.Wrapf(err, "snapshot %s", t))
			failures[t] = err
			continue
		}
		snapshots[t] = records
	}

	return uc.run(ctx, trigger, snapshots, failures), nil
}

func (uc *SyncUsecase) run(ctx context.Context, trigger string, snapshots map[domain.EntityType][]domain.Record, failures map[domain.EntityType]error) domain.SyncReport {
	report := domain.SyncReport{
		StartedAt: uc.now().UTC(),
		Trigger:   trigger,
		Types:     make([]domain.TypeReport, 0, len(domain.EntityTypes)),
	}

	for _, t := range domain.EntityTypes {
		tr := domain.TypeReport{Type: t}
		if err, ok := failures[t]; ok {
			tr.Error = err.Error()
			report.Types = append(report.Types, tr)
			continue
		}

		records := snapshots[t]
		tr.Digest = digest(records)
		tr.Counts = uc.SyncMany(ctx, t, records)
		report.Totals.Merge(tr.Counts)
		report.Types = append(report.Types, tr)
	}
	report.FinishedAt = uc.now().UTC()

	if uc.reports != nil {
		if err := uc.reports.Save(ctx, report); err != nil {
			slog.WarnContext(
				ctx, "failed to save sync report",
				slog.String("error", err.Error()),
				slog.String("module", "sync"),
			)
		}
	}

	totals := report.Totals
	uc.emit(ctx, domain.SyncEvent{
		Kind:   "run",
		Totals: &totals,
		At:     report.FinishedAt,
	})

	slog.InfoContext(
		ctx, "bulk sync finished",
		slog.String("trigger", trigger),
		slog.Int("success", totals.Success),
		slog.Int("failed", totals.Failed),
		slog.Int("duplicate", totals.Duplicate),
		slog.Int("skipped", totals.Skipped),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
		slog.String("module", "sync"),
	)
	return report
}

// digest fingerprints a snapshot so operators can tell whether two runs saw
// the same local data.
func digest(records []domain.Record) string {
	b, err := json.Marshal(records)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxh3.Hash(b))
}

// Status reports gating and remote reachability. A failing probe is reported
// as unreachable, never returned.
func (uc *SyncUsecase) Status(ctx context.Context) domain.SyncStatus {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.Status")
	defer span.End()

	status := domain.SyncStatus{
		Backend: "none",
	}
	if uc.gate != nil {
		status.Enabled = uc.gate.Enabled()
		status.Environment = uc.gate.Environment()
	}
	if uc.remote == nil {
		return status
	}
	status.Backend = uc.remote.Name()

	probe := uc.mappings[domain.EntityEnquiry].Destinations[0].Table
	if _, err := uc.remote.Count(ctx, probe); err != nil {
		span.RecordError(errors.Wrapf(err, "probe %s", probe))
		slog.WarnContext(
			ctx, "remote store unreachable",
			slog.String("table", probe),
			slog.String("error", err.Error()),
			slog.String("module", "sync"),
		)
		return status
	}
	status.RemoteReachable = true
	return status
}

// TestConnection counts rows in every destination table.
func (uc *SyncUsecase) TestConnection(ctx context.Context) []domain.TableProbe {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.TestConnection")
	defer span.End()

	var probes []domain.TableProbe
	for _, t := range domain.EntityTypes {
		for _, dest := range uc.mappings[t].Destinations {
			probe := domain.TableProbe{Type: t, Table: dest.Table}
			if uc.remote == nil {
				probe.Error = errNoRemote.Error()
				probes = append(probes, probe)
				continue
			}
			n, err := uc.remote.Count(ctx, dest.Table)
			if err != nil {
				probe.Error = err.Error()
			} else {
				probe.Rows = n
			}
			probes = append(probes, probe)
		}
	}
	return probes
}

// Report collects everything the operator report shows.
func (uc *SyncUsecase) Report(ctx context.Context) domain.SyncDiagnostics {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.Report")
	defer span.End()

	diag := domain.SyncDiagnostics{
		Status: uc.Status(ctx),
		Local:  make(map[domain.EntityType]int, len(domain.EntityTypes)),
		Remote: make(map[domain.EntityType]int64, len(domain.EntityTypes)),
	}

	if uc.reports != nil {
		last, err := uc.reports.Latest(ctx)
		if err != nil && !stderrors.Is(err, domain.ErrNotFound) {
			span.RecordError(err)
		}
		diag.LastRun = last
	}

	for _, t := range domain.EntityTypes {
		if uc.source != nil {
			if n, err := uc.source.Count(ctx, t); err == nil {
				diag.Local[t] = n
			}
		}
		if uc.remote == nil || !diag.Status.RemoteReachable {
			continue
		}
		for _, dest := range uc.mappings[t].Destinations {
			if n, err := uc.remote.Count(ctx, dest.Table); err == nil {
				diag.Remote[t] = n
				break
			}
		}
	}
	return diag
}
