// Package tagservice coordinates the tag registry, the shelf and the query
// engine for the request layers.
package tagservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/ebi/internal/apperr"
	"github.com/starford/ebi/internal/query"
	"github.com/starford/ebi/internal/shelf"
	"github.com/starford/ebi/internal/tag"
)

// Event kinds emitted after a mutation changed the shelf.
const (
	EventTagAttached    = "tag.attached"
	EventTagDetached    = "tag.detached"
	EventDirAttached    = "dtag.attached"
	EventDirDetached    = "dtag.detached"
	EventTagCreated     = "tag.created"
	EventTagDeleted     = "tag.deleted"
	EventShelfRefreshed = "shelf.refreshed"
)

// Event describes one change. Path is empty for shelf-wide changes.
type Event struct {
	Kind string
	Tag  string
	Path string
}

// EventCallback receives change events. It runs on the mutating goroutine and
// must not block.
type EventCallback func(Event)

// FileItem is the representation of one result file.
type FileItem struct {
	Path      string     `json:"path"`
	Name      string     `json:"name"`
	Size      int64      `json:"size"`
	ReadOnly  bool       `json:"read_only"`
	Modified  *time.Time `json:"modified,omitempty"`
	Accessed  *time.Time `json:"accessed,omitempty"`
	Created   *time.Time `json:"created,omitempty"`
	Tags      []string   `json:"tags"`
	Inherited []string   `json:"inherited"`
}

// Stats summarises the service state.
type Stats struct {
	shelf.Stats
	Tags int `json:"tags"`
}

// Options tunes a Service.
type Options struct {
	// MaxDepth bounds the nesting depth of query formulas.
	MaxDepth int
	// Timeout bounds how long a caller waits for one operation. Zero means
	// only the caller's context applies.
	Timeout      time.Duration
	DefaultOrder query.Order
}

// Service is safe for concurrent use.
type Service struct {
	// mu is held shared by mutations that resolve a tag name and
	// exclusively by DeleteTag, so a tag is never attached after its purge.
	mu      sync.RWMutex
	reg     *tag.Registry
	shelf   *shelf.Shelf
	opts    Options
	logger  *slog.Logger
	onEvent EventCallback
}

// NewService creates a service over reg and sh.
func NewService(reg *tag.Registry, sh *shelf.Shelf, opts Options, logger *slog.Logger) *Service {
	return &Service{reg: reg, shelf: sh, opts: opts, logger: logger}
}

// OnEvent installs the change callback. Call it before serving requests.
func (s *Service) OnEvent(cb EventCallback) {
	s.onEvent = cb
}

// DefaultOrder is the ordering used when a request names none.
func (s *Service) DefaultOrder() query.Order {
	return s.opts.DefaultOrder
}

// Root returns the absolute shelf root.
func (s *Service) Root() string {
	return s.shelf.Root()
}

func (s *Service) emit(kind, tagName, path string) {
	if s.onEvent != nil {
		s.onEvent(Event{Kind: kind, Tag: tagName, Path: path})
	}
}

// await runs fn on its own goroutine and waits for it at most until ctx or
// the configured timeout expires. fn is never interrupted: a mutation that
// has started completes even if the caller stopped waiting.
func await[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v: v, err: err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *Service) resolve(name string) (tag.Tag, error) {
	t, ok := s.reg.Lookup(name)
	if !ok {
		return tag.Tag{}, fmt.Errorf("tagservice: %w: %q", apperr.ErrKey, name)
	}
	return t, nil
}

// CreateTag registers a new tag. parent may be empty.
func (s *Service) CreateTag(ctx context.Context, name string, priority uint64, parent string) (tag.Tag, error) {
	return await(ctx, s.opts.Timeout, func() (tag.Tag, error) {
		var pid tag.ID
		if parent != "" {
			p, err := s.resolve(parent)
			if err != nil {
				return tag.Tag{}, err
			}
			pid = p.ID
		}
		t, err := s.reg.Create(name, priority, pid)
		if err != nil {
			return tag.Tag{}, err
		}
		s.emit(EventTagCreated, t.Name, "")
		return t, nil
	})
}

// ListTags returns every tag in priority order.
func (s *Service) ListTags(_ context.Context) []tag.Tag {
	return s.reg.List()
}

// DeleteTag removes every use of the tag from the shelf, then the tag itself.
func (s *Service) DeleteTag(ctx context.Context, name string) error {
	_, err := await(ctx, s.opts.Timeout, func() (struct{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		t, ok := s.reg.Lookup(name)
		if !ok {
			return struct{}{}, fmt.Errorf("tagservice: tag %q: %w", name, apperr.ErrNotFound)
		}
		s.shelf.Purge(t.ID)
		if err := s.reg.Delete(t.ID); err != nil {
			return struct{}{}, err
		}
		s.emit(EventTagDeleted, t.Name, "")
		return struct{}{}, nil
	})
	return err
}

// Attach tags the file at path. It reports whether the association is new.
func (s *Service) Attach(ctx context.Context, path, tagName string) (bool, error) {
	return await(ctx, s.opts.Timeout, func() (bool, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		t, err := s.resolve(tagName)
		if err != nil {
			return false, err
		}
		changed, err := s.shelf.Attach(path, t.ID)
		if changed {
			s.emit(EventTagAttached, t.Name, path)
		}
		return changed, err
	})
}

// Detach removes a direct tag from the file at path, or from every file
// when path is empty.
func (s *Service) Detach(ctx context.Context, path, tagName string) (bool, error) {
	return await(ctx, s.opts.Timeout, func() (bool, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		t, err := s.resolve(tagName)
		if err != nil {
			return false, err
		}
		var changed bool
		if path == "" {
			changed = s.shelf.DetachAll(t.ID)
		} else if changed, err = s.shelf.Detach(path, t.ID); err != nil {
			return false, err
		}
		if changed {
			s.emit(EventTagDetached, t.Name, path)
		}
		return changed, nil
	})
}

// AttachDir declares a directory tag at path.
func (s *Service) AttachDir(ctx context.Context, path, tagName string) (bool, error) {
	return await(ctx, s.opts.Timeout, func() (bool, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		t, err := s.resolve(tagName)
		if err != nil {
			return false, err
		}
		changed, err := s.shelf.AttachDir(path, t.ID)
		if changed {
			s.emit(EventDirAttached, t.Name, path)
		}
		return changed, err
	})
}

// DetachDir withdraws a directory tag declaration at path, or every
// declaration of the tag when path is empty.
func (s *Service) DetachDir(ctx context.Context, path, tagName string) (bool, error) {
	return await(ctx, s.opts.Timeout, func() (bool, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		t, err := s.resolve(tagName)
		if err != nil {
			return false, err
		}
		var changed bool
		if path == "" {
			changed = s.shelf.DetachDirAll(t.ID)
		} else if changed, err = s.shelf.DetachDir(path, t.ID); err != nil {
			return false, err
		}
		if changed {
			s.emit(EventDirDetached, t.Name, path)
		}
		return changed, nil
	})
}

// Retrieve returns every file carrying the tag, directly or by cascade.
func (s *Service) Retrieve(ctx context.Context, tagName string, order query.Order) ([]FileItem, error) {
	return await(ctx, s.opts.Timeout, func() ([]FileItem, error) {
		t, err := s.resolve(tagName)
		if err != nil {
			return nil, err
		}
		var items []FileItem
		err = s.shelf.View(func(v shelf.View) error {
			files := query.Materialize(v.Files(v.Retrieve(t.ID)), order)
			items = s.items(files)
			return nil
		})
		return items, err
	})
}

// Query evaluates a boolean tag expression.
func (s *Service) Query(ctx context.Context, text string, order query.Order) ([]FileItem, error) {
	return await(ctx, s.opts.Timeout, func() ([]FileItem, error) {
		var items []FileItem
		err := s.shelf.View(func(v shelf.View) error {
			files, err := query.Run(text, s.lookupID, v, order, s.opts.MaxDepth)
			if err != nil {
				return err
			}
			items = s.items(files)
			return nil
		})
		return items, err
	})
}

func (s *Service) lookupID(name string) (tag.ID, bool) {
	t, ok := s.reg.Lookup(name)
	return t.ID, ok
}

// Refresh reconciles the shelf with the filesystem.
func (s *Service) Refresh(ctx context.Context) (shelf.RefreshStats, error) {
	return await(ctx, s.opts.Timeout, func() (shelf.RefreshStats, error) {
		st, err := s.shelf.Refresh(s.logger)
		if err != nil {
			return st, err
		}
		s.emit(EventShelfRefreshed, "", "")
		return st, nil
	})
}

// Stats returns shelf and registry counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return await(ctx, s.opts.Timeout, func() (Stats, error) {
		return Stats{Stats: s.shelf.Stats(), Tags: len(s.reg.List())}, nil
	})
}

func (s *Service) items(files []*shelf.File) []FileItem {
	out := make([]FileItem, len(files))
	for i, f := range files {
		m := f.Metadata()
		out[i] = FileItem{
			Path:      f.Path(),
			Name:      f.Name(),
			Size:      m.Size,
			ReadOnly:  m.ReadOnly,
			Modified:  m.Modified,
			Accessed:  m.Accessed,
			Created:   m.Created,
			Tags:      s.names(f.Tags()),
			Inherited: s.names(f.InheritedTags()),
		}
	}
	return out
}

func (s *Service) names(ids []tag.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.reg.Get(id); ok {
			out = append(out, t.Name)
		}
	}
	return out
}
