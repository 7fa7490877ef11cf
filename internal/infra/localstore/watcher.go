package localstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/usecase"
)

// Watcher notices collection files edited outside this process and asks for
// the whole collection to be re-synced. Writes made by the stores themselves
// are recognised by their fingerprint and ignored.
type Watcher struct {
	registry  *Registry
	publisher usecase.ChangePublisher
	watcher   *fsnotify.Watcher
	seen      map[string]uint64
}

func NewWatcher(registry *Registry, publisher usecase.ChangePublisher) (*Watcher, error) {
	if err := os.MkdirAll(registry.Dir(), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", registry.Dir())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := watcher.Add(registry.Dir()); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", registry.Dir())
	}

	return &Watcher{
		registry:  registry,
		publisher: publisher,
		watcher:   watcher,
		seen:      map[string]uint64{},
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(
				ctx, "file watcher error",
				slog.String("error", err.Error()),
				slog.String("module", "watcher"),
			)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := filepath.Clean(event.Name)
	c, ok := w.registry.lookup(path)
	if !ok {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// the file may be mid-replace
		return
	}
	sum := xxh3.Hash(data)
	if sum == c.Fingerprint() || sum == w.seen[path] {
		return
	}
	w.seen[path] = sum

	slog.InfoContext(
		ctx, "collection changed on disk",
		slog.String("type", c.Type().String()),
		slog.String("path", path),
		slog.String("module", "watcher"),
	)
	if !w.publisher.Publish(domain.ChangeEvent{Type: c.Type()}) {
		slog.WarnContext(
			ctx, "sync queue full, collection change not queued",
			slog.String("type", c.Type().String()),
			slog.String("module", "watcher"),
		)
	}
}
