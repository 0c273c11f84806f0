// Package app is the ordering core's entry surface: one entry point per
// command, a decoded action dispatcher, and free-text dialogue handling.
// Every call returns a View for the chat collaborator to render.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/platform/requestctx"
	"github.com/louisbranch/restobot/internal/platform/telemetry/metrics"
	"github.com/louisbranch/restobot/internal/platform/timeouts"
	"github.com/louisbranch/restobot/internal/services/ordering/checkout"
	"github.com/louisbranch/restobot/internal/services/ordering/lifecycle"
	"github.com/louisbranch/restobot/internal/services/ordering/menu"
	"github.com/louisbranch/restobot/internal/services/ordering/notify"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/session"
	"github.com/louisbranch/restobot/internal/services/ordering/storage"
)

const tracerName = "github.com/louisbranch/restobot/internal/services/ordering/app"

// Caller identifies the sender of an update.
type Caller struct {
	ID          string
	DisplayName string
}

// Update is one inbound unit of work. Exactly one of Command, Callback, or
// Text is expected; Command wins, then Callback.
type Update struct {
	Caller   Caller
	Command  string
	Callback string
	Text     string
}

// Kind returns "command", "callback", or "text".
func (u Update) Kind() string {
	switch {
	case strings.TrimSpace(u.Command) != "":
		return "command"
	case strings.TrimSpace(u.Callback) != "":
		return "callback"
	default:
		return "text"
	}
}

// Config wires a Service.
type Config struct {
	AdminIDs []string
	Catalog  *menu.Catalog
	Sessions session.Store
	Orders   storage.OrderStore
	Notifier notify.Notifier
	Metrics  metrics.Recorder
	// Location decides what "today" means for stats.
	Location *time.Location
	Clock    func() time.Time
	NewID    func(time.Time) string
}

// Service owns the ordering core for one restaurant.
type Service struct {
	admins    map[string]struct{}
	catalog   *menu.Catalog
	sessions  session.Store
	orders    storage.OrderStore
	checkout  *checkout.Machine
	lifecycle *lifecycle.Manager
	notifier  notify.Notifier
	metrics   metrics.Recorder
	loc       *time.Location
	clock     func() time.Time
	tracer    trace.Tracer
	locks     *keyedMutex

	cursorMu sync.Mutex
	cursors  map[string]adminCursor
}

// NewService validates cfg and builds the service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Orders == nil {
		return nil, errors.New("order store is required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = menu.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	admins := make(map[string]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}

	machineOpts := []checkout.Option{checkout.WithClock(cfg.Clock)}
	if cfg.NewID != nil {
		machineOpts = append(machineOpts, checkout.WithIDGenerator(cfg.NewID))
	}

	return &Service{
		admins:    admins,
		catalog:   cfg.Catalog,
		sessions:  cfg.Sessions,
		orders:    cfg.Orders,
		checkout:  checkout.NewMachine(cfg.Sessions, cfg.Orders, machineOpts...),
		lifecycle: lifecycle.NewManager(cfg.Orders, cfg.Notifier),
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		loc:       cfg.Location,
		clock:     cfg.Clock,
		tracer:    otel.Tracer(tracerName),
		locks:     newKeyedMutex(),
		cursors:   make(map[string]adminCursor),
	}, nil
}

// IsAdmin reports whether id is on the staff allow-list.
func (s *Service) IsAdmin(id string) bool {
	_, ok := s.admins[id]
	return ok
}

// Handle routes one update to its entry point. Updates from the same caller
// run one at a time.
func (s *Service) Handle(ctx context.Context, upd Update) (View, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Update)
	defer cancel()
	ctx = requestctx.WithUserID(ctx, upd.Caller.ID)

	kind := upd.Kind()
	name := kind
	var action Action
	var parseErr error
	switch kind {
	case "command":
		name = "command_" + normalizeCommand(upd.Command)
	case "callback":
		action, parseErr = ParseAction(upd.Callback)
		name = "callback_" + action.Kind.Name()
	}

	ctx, span := s.tracer.Start(ctx, "bot."+name, trace.WithAttributes(
		attribute.String("bot.update.kind", kind),
		attribute.String("bot.caller.id", upd.Caller.ID),
	))
	defer span.End()

	start := time.Now()
	unlock := s.locks.Lock(upd.Caller.ID)
	view, err := func() (View, error) {
		defer unlock()
		switch kind {
		case "command":
			return s.HandleCommand(ctx, upd.Caller, upd.Command)
		case "callback":
			if parseErr != nil {
				return View{}, parseErr
			}
			return s.HandleAction(ctx, upd.Caller, action)
		default:
			return s.HandleFreeText(ctx, upd.Caller, upd.Text)
		}
	}()

	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(string(apperrors.CodeOf(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	} else {
		span.SetAttributes(attribute.String("bot.view", string(view.Kind)))
	}
	s.metrics.ObserveUpdate(name, outcome, time.Since(start))
	return view, err
}

func normalizeCommand(command string) string {
	command = strings.TrimSpace(command)
	command = strings.TrimPrefix(command, "/")
	if name, _, ok := strings.Cut(command, "@"); ok {
		command = name
	}
	if name, _, ok := strings.Cut(command, " "); ok {
		command = name
	}
	return strings.ToLower(command)
}

// HandleCommand dispatches a slash command.
func (s *Service) HandleCommand(ctx context.Context, caller Caller, command string) (View, error) {
	switch normalizeCommand(command) {
	case "start":
		return s.Start(ctx, caller)
	case "menu":
		return s.Menu(ctx, caller)
	case "order":
		return s.Order(ctx, caller)
	case "status":
		return s.Status(ctx, caller)
	case "help":
		return s.Help(ctx, caller)
	case "admin":
		return s.Admin(ctx, caller)
	default:
		return View{}, apperrors.WithMetadata(
			apperrors.CodeActionInvalid,
			"unknown command",
			map[string]string{"Token": command},
		)
	}
}

// HandleAction dispatches a decoded control.
func (s *Service) HandleAction(ctx context.Context, caller Caller, action Action) (View, error) {
	if action.IsAdmin() {
		if err := s.requireAdmin(caller); err != nil {
			return View{}, err
		}
	}
	switch action.Kind {
	case ActionMainMenu:
		return s.Start(ctx, caller)
	case ActionViewMenu:
		return s.Menu(ctx, caller)
	case ActionStartOrder:
		return s.Order(ctx, caller)
	case ActionContact:
		return s.contactView(), nil
	case ActionSelectCategory:
		return s.selectCategory(action.Category)
	case ActionAddItem:
		return s.addItem(ctx, caller, action.ItemID)
	case ActionViewCart:
		return s.viewCart(ctx, caller)
	case ActionClearCart:
		return s.clearCart(ctx, caller)
	case ActionCheckout:
		return s.beginCheckout(ctx, caller)
	case ActionCancelCheckout:
		return s.cancelCheckout(ctx, caller)
	case ActionAdminDashboard:
		return s.adminDashboard(), nil
	case ActionAdminList:
		return s.adminList(ctx)
	case ActionAdminFilter:
		return s.adminFilter(ctx, caller, action.Filter)
	case ActionAdminAdvance:
		return s.adminAdvance(ctx, caller, action.OrderID, action.Status)
	case ActionAdminNavigate:
		return s.adminNavigate(ctx, caller, action.Direction)
	case ActionAdminContact:
		return s.adminContact(ctx, action.OrderID)
	case ActionAdminOrder:
		return s.adminOrder(ctx, caller, action.OrderID)
	case ActionAdminStats:
		return s.adminStats(ctx)
	default:
		return View{}, apperrors.New(apperrors.CodeActionInvalid, fmt.Sprintf("unhandled action kind %d", action.Kind))
	}
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// orderView is a copy of o suitable for ViewData.
func orderView(o order.Order) *order.Order {
	clone := o.Clone()
	return &clone
}
