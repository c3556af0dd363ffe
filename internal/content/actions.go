package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/eduadmin/internal/dataview"
	"github.com/JonMunkholm/eduadmin/internal/logging"
)

// ActionTag names an action. The built-in tags cover CRUD and refresh;
// screens may offer further custom tags such as "publish".
type ActionTag string

const (
	ActionCreate  ActionTag = "create"
	ActionEdit    ActionTag = "edit"
	ActionDelete  ActionTag = "delete"
	ActionView    ActionTag = "view"
	ActionRefresh ActionTag = "refresh"
)

var (
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrUnknownScreen     = errors.New("unknown screen")
	ErrNotFound          = errors.New("record not found")
	ErrNoTarget          = errors.New("action requires a key")
	ErrUnknownFilter     = errors.New("filter not found")
	ErrInvalidQuery      = errors.New("invalid query")
)

// Command is one action request, carried explicitly from the view to its
// handler instead of bubbling through the page.
type Command struct {
	ID     uuid.UUID
	Tag    ActionTag
	Screen string
	Key    string          // Target row, for row actions
	Keys   []string        // Target rows, for bulk actions on a selection
	Row    dataview.Record // Row payload as displayed, when the client sends it
	Fields map[string]any  // Values for create and edit
	Scope  Scope
	Issued time.Time
}

// NewCommand stamps a command with a fresh ID.
func NewCommand(tag ActionTag, screen string) Command {
	return Command{ID: uuid.New(), Tag: tag, Screen: screen, Issued: time.Now()}
}

// Targets returns the keys the command applies to: Keys when present,
// otherwise the single Key.
func (c Command) Targets() []string {
	if len(c.Keys) > 0 {
		return c.Keys
	}
	if c.Key != "" {
		return []string{c.Key}
	}
	return nil
}

// Outcome reports what a command did.
type Outcome struct {
	CommandID uuid.UUID       `json:"command_id"`
	Tag       ActionTag       `json:"action"`
	Screen    string          `json:"screen"`
	Row       dataview.Record `json:"row,omitempty"`
	Affected  int64           `json:"affected"`
	Removed   []string        `json:"removed,omitempty"` // Keys to drop from the selection
	Refresh   bool            `json:"refresh"`           // Client should reload rows
	Message   string          `json:"message,omitempty"`
}

// Handler executes one command for a screen.
type Handler func(ctx context.Context, s Screen, cmd Command) (Outcome, error)

// Dispatcher routes commands to handlers by tag.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[ActionTag]Handler
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[ActionTag]Handler)}
}

// Handle registers h for tag, replacing any previous handler.
func (d *Dispatcher) Handle(tag ActionTag, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[tag] = h
}

// Tags returns the registered tags in sorted order.
func (d *Dispatcher) Tags() []ActionTag {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tags := make([]ActionTag, 0, len(d.handlers))
	for t := range d.handlers {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// Dispatch runs cmd. The screen must exist and offer the action, and a
// handler must be registered for its tag.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	s, err := Lookup(cmd.Screen)
	if err != nil {
		return Outcome{}, err
	}
	if !s.HasAction(cmd.Tag) {
		return Outcome{}, fmt.Errorf("%w: %q on %s", ErrUnsupportedAction, cmd.Tag, s.Key)
	}

	d.mu.RLock()
	h, ok := d.handlers[cmd.Tag]
	d.mu.RUnlock()
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnsupportedAction, cmd.Tag)
	}
	if cmd.ID == uuid.Nil {
		cmd.ID = uuid.New()
	}

	log := logging.FromContext(ctx).With(
		slog.String("command_id", cmd.ID.String()),
		slog.String("action", string(cmd.Tag)),
		slog.String("screen", s.Key),
	)
	if ip := ClientIPFromContext(ctx); ip != "" {
		log = log.With(slog.String("client_ip", ip))
	}
	if ua := UserAgentFromContext(ctx); ua != "" {
		log = log.With(slog.String("user_agent", ua))
	}

	start := time.Now()
	out, err := h(ctx, s, cmd)
	if err != nil {
		log.Warn("action failed", slog.Any("error", err))
		return Outcome{}, err
	}

	out.CommandID = cmd.ID
	out.Tag = cmd.Tag
	out.Screen = s.Key
	log.Info("action completed",
		slog.Int64("affected", out.Affected),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}
