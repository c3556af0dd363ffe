package content

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// Service runs content screens against a repository.
type Service struct {
	repo       Repository
	scope      Scope
	opts       ViewOptions
	pageSize   int
	dispatcher *Dispatcher
	validator  *Validator
}

// NewService builds a service with the built-in action handlers registered.
func NewService(repo Repository, scope Scope, opts ViewOptions, pageSize int) *Service {
	svc := &Service{
		repo:       repo,
		scope:      scope,
		opts:       opts,
		pageSize:   pageSize,
		dispatcher: NewDispatcher(),
		validator:  NewValidator(),
	}
	svc.dispatcher.Handle(ActionView, svc.handleView)
	svc.dispatcher.Handle(ActionCreate, svc.handleCreate)
	svc.dispatcher.Handle(ActionEdit, svc.handleEdit)
	svc.dispatcher.Handle(ActionDelete, svc.handleDelete)
	svc.dispatcher.Handle(ActionRefresh, svc.handleRefresh)
	svc.dispatcher.Handle("publish", svc.setStatus("published"))
	svc.dispatcher.Handle("archive", svc.setStatus("archived"))
	return svc
}

// Scope returns the academic-year scope the service was built with.
func (s *Service) Scope() Scope { return s.scope }

// Dispatcher exposes the dispatcher so callers can register custom actions.
func (s *Service) Dispatcher() *Dispatcher { return s.dispatcher }

// Validator returns the request validator.
func (s *Service) Validator() *Validator { return s.validator }

// View loads the screen's rows and returns a view restored to state, with
// selection as the controlled selection.
func (s *Service) View(ctx context.Context, screen Screen, state dataview.ViewState, selection []string) (*dataview.View[dataview.Record], error) {
	rows, err := s.repo.Fetch(ctx, screen, s.scope)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", screen.Key, err)
	}
	v := dataview.NewView(screen.Config(s.opts), rows, s.pageSize)
	v.SetState(state)
	v.SetSelection(selection)
	return v, nil
}

// DefaultState returns the screen's initial view state.
func (s *Service) DefaultState(screen Screen) dataview.ViewState {
	return screen.DefaultState(s.pageSize)
}

// Options returns the options of one filter of the screen.
func (s *Service) Options(ctx context.Context, screen Screen, field string) ([]dataview.Option, error) {
	v, err := s.View(ctx, screen, s.DefaultState(screen), nil)
	if err != nil {
		return nil, err
	}
	opts, ok := v.Options(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, field)
	}
	return opts, nil
}

// Dispatch validates and runs cmd within the service's scope.
func (s *Service) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	cmd.Scope = s.scope
	return s.dispatcher.Dispatch(ctx, cmd)
}

// ScreenCount is one dashboard entry.
type ScreenCount struct {
	Screen Screen
	Rows   int
	Err    error
}

// Counts returns row counts for every registered screen. A failing screen
// reports its error without hiding the others.
func (s *Service) Counts(ctx context.Context) []ScreenCount {
	screens := All()
	out := make([]ScreenCount, 0, len(screens))
	for _, sc := range screens {
		n, err := s.repo.Count(ctx, sc, s.scope)
		out = append(out, ScreenCount{Screen: sc, Rows: n, Err: err})
	}
	return out
}

func (s *Service) handleView(ctx context.Context, screen Screen, cmd Command) (Outcome, error) {
	if cmd.Key == "" {
		return Outcome{}, ErrNoTarget
	}
	row, err := s.repo.Get(ctx, screen, cmd.Scope, cmd.Key)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Row: row, Affected: 1}, nil
}

func (s *Service) handleCreate(ctx context.Context, screen Screen, cmd Command) (Outcome, error) {
	fields, err := s.validator.Fields(screen, cmd.Fields, false)
	if err != nil {
		return Outcome{}, err
	}
	row, err := s.repo.Insert(ctx, screen, cmd.Scope, fields)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Row: row, Affected: 1, Refresh: true, Message: screen.Label + ": item created"}, nil
}

func (s *Service) handleEdit(ctx context.Context, screen Screen, cmd Command) (Outcome, error) {
	if cmd.Key == "" {
		return Outcome{}, ErrNoTarget
	}
	fields, err := s.validator.Fields(screen, cmd.Fields, true)
	if err != nil {
		return Outcome{}, err
	}
	row, err := s.repo.Update(ctx, screen, cmd.Scope, cmd.Key, fields)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Row: row, Affected: 1, Refresh: true, Message: screen.Label + ": item updated"}, nil
}

func (s *Service) handleDelete(ctx context.Context, screen Screen, cmd Command) (Outcome, error) {
	keys := cmd.Targets()
	if len(keys) == 0 {
		return Outcome{}, ErrNoTarget
	}
	n, err := s.repo.Delete(ctx, screen, cmd.Scope, keys)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Affected: n,
		Removed:  keys,
		Refresh:  true,
		Message:  fmt.Sprintf("%s: %d deleted", screen.Label, n),
	}, nil
}

func (s *Service) handleRefresh(_ context.Context, screen Screen, cmd Command) (Outcome, error) {
	s.repo.Invalidate(screen, cmd.Scope)
	return Outcome{Refresh: true}, nil
}

func (s *Service) setStatus(status string) Handler {
	return func(ctx context.Context, screen Screen, cmd Command) (Outcome, error) {
		if _, ok := screen.Field("status"); !ok {
			return Outcome{}, fmt.Errorf("%w: %s has no status", ErrUnsupportedAction, screen.Key)
		}
		keys := cmd.Targets()
		if len(keys) == 0 {
			return Outcome{}, ErrNoTarget
		}
		n, err := s.repo.UpdateMany(ctx, screen, cmd.Scope, keys, map[string]any{"status": status})
		if err != nil {
			return Outcome{}, err
		}
		out := Outcome{Affected: n}
		if len(keys) == 1 {
			if out.Row, err = s.repo.Get(ctx, screen, cmd.Scope, keys[0]); err != nil {
				return Outcome{}, err
			}
		}
		out.Refresh = true
		return out, nil
	}
}
