package app

import (
	"context"
	"log"
	"strings"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/services/ordering/lifecycle"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/stats"
)

// adminCursor remembers which filtered list a staff member is paging.
type adminCursor struct {
	filter order.Filter
	ids    []string
	index  int
}

func (s *Service) requireAdmin(caller Caller) error {
	if s.IsAdmin(caller.ID) {
		return nil
	}
	log.Printf("admin access denied for %s", caller.ID)
	return apperrors.New(apperrors.CodeAccessDenied, "admin access denied")
}

// Admin opens the staff dashboard. Callers outside the allow-list get
// ACCESS_DENIED and nothing else.
func (s *Service) Admin(_ context.Context, caller Caller) (View, error) {
	if err := s.requireAdmin(caller); err != nil {
		return View{}, err
	}
	return s.adminDashboard(), nil
}

func (s *Service) adminDashboard() View {
	buttons := [][]Button{row(button("bot.button.admin_list", Action{Kind: ActionAdminList}))}
	for _, status := range order.Statuses {
		filter := order.FilterStatus(status)
		buttons = append(buttons, row(button(
			"bot.button.filter_"+filter.String(),
			Action{Kind: ActionAdminFilter, Filter: filter},
		)))
	}
	buttons = append(buttons, row(button("bot.button.admin_stats", Action{Kind: ActionAdminStats})))
	return View{Kind: ViewAdminDashboard, Buttons: buttons}
}

func filterButtons() [][]Button {
	filters := []order.Filter{
		order.FilterStatus(order.StatusNew),
		order.FilterStatus(order.StatusProcessing),
		order.FilterStatus(order.StatusDelivering),
		order.FilterStatus(order.StatusCompleted),
		order.FilterAll,
	}
	buttons := make([][]Button, 0, len(filters)+1)
	for _, filter := range filters {
		buttons = append(buttons, row(button(
			"bot.button.filter_"+filter.String(),
			Action{Kind: ActionAdminFilter, Filter: filter},
		)))
	}
	return append(buttons, row(button("bot.button.admin_dashboard", Action{Kind: ActionAdminDashboard})))
}

func (s *Service) adminList(ctx context.Context) (View, error) {
	summary, err := s.summarize(ctx)
	if err != nil {
		return View{}, err
	}
	return View{
		Kind:    ViewAdminOrderList,
		Data:    ViewData{Summary: &summary},
		Buttons: filterButtons(),
	}, nil
}

func (s *Service) adminFilter(ctx context.Context, caller Caller, filter order.Filter) (View, error) {
	entries, err := s.lifecycle.ListByStatus(ctx, filter)
	if err != nil {
		return View{}, err
	}
	if len(entries) == 0 {
		s.clearCursor(caller.ID)
		return View{
			Kind:    ViewAdminEmpty,
			Data:    ViewData{Filter: filter},
			Buttons: [][]Button{row(button("bot.button.back_list", Action{Kind: ActionAdminList}))},
		}, nil
	}
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	cursor := adminCursor{filter: filter, ids: ids}
	s.setCursor(caller.ID, cursor)
	return s.detailView(cursor, entries[0].Order, nil), nil
}

func (s *Service) adminNavigate(ctx context.Context, caller Caller, dir lifecycle.Direction) (View, error) {
	cursor, ok := s.cursor(caller.ID)
	if !ok {
		return s.adminFilter(ctx, caller, order.FilterAll)
	}
	cursor.index = lifecycle.Navigate(cursor.ids, cursor.index, dir)
	s.setCursor(caller.ID, cursor)
	o, err := s.lifecycle.Get(ctx, cursor.ids[cursor.index])
	if err != nil {
		return View{}, err
	}
	return s.detailView(cursor, o, nil), nil
}

func (s *Service) adminAdvance(ctx context.Context, caller Caller, orderID string, target order.Status) (View, error) {
	transition, err := s.lifecycle.Advance(ctx, orderID, target)
	if err != nil {
		return View{}, err
	}
	s.metrics.OrderTransitioned(strings.ToLower(string(transition.To)))

	previous, ok := s.cursor(caller.ID)
	if !ok {
		return s.detailView(adminCursor{}, transition.Order, &transition), nil
	}
	entries, err := s.lifecycle.ListByStatus(ctx, previous.filter)
	if err != nil {
		return View{}, err
	}
	if len(entries) == 0 {
		s.clearCursor(caller.ID)
		return View{
			Kind:    ViewAdminEmpty,
			Data:    ViewData{Filter: previous.filter, Transition: &transition},
			Buttons: [][]Button{row(button("bot.button.back_list", Action{Kind: ActionAdminList}))},
		}, nil
	}

	// The advanced order stays focused while it still matches the filter;
	// otherwise its successor in the refreshed list takes its place.
	index := previous.index
	for i, id := range previous.ids {
		if id == orderID {
			index = i
			break
		}
	}
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
		if entry.ID == orderID {
			index = i
		}
	}
	index = min(max(index, 0), len(ids)-1)
	refreshed := adminCursor{filter: previous.filter, ids: ids, index: index}
	s.setCursor(caller.ID, refreshed)
	return s.detailView(refreshed, entries[index].Order, &transition), nil
}

func (s *Service) adminOrder(ctx context.Context, caller Caller, orderID string) (View, error) {
	o, err := s.lifecycle.Get(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	return s.detailView(s.focusCursor(caller.ID, orderID), o, nil), nil
}

func (s *Service) adminContact(ctx context.Context, orderID string) (View, error) {
	o, err := s.lifecycle.Get(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	return View{
		Kind: ViewAdminContact,
		Data: ViewData{Order: orderView(o), WhatsApp: WhatsAppNumber(o.Phone)},
		Buttons: [][]Button{
			row(button("bot.button.back_order", Action{Kind: ActionAdminOrder, OrderID: o.ID})),
		},
	}, nil
}

func (s *Service) adminStats(ctx context.Context) (View, error) {
	summary, err := s.summarize(ctx)
	if err != nil {
		return View{}, err
	}
	return View{
		Kind:    ViewAdminStats,
		Data:    ViewData{Summary: &summary},
		Buttons: [][]Button{row(button("bot.button.admin_dashboard", Action{Kind: ActionAdminDashboard}))},
	}, nil
}

func (s *Service) summarize(ctx context.Context) (stats.Summary, error) {
	all, err := s.orders.LoadAll(ctx)
	if err != nil {
		return stats.Summary{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "load orders", err)
	}
	return stats.Summarize(all.Orders(), s.clock(), s.loc), nil
}

// detailView renders one order with only the legal next-status control.
func (s *Service) detailView(cursor adminCursor, o order.Order, transition *lifecycle.Transition) View {
	view := View{
		Kind: ViewAdminOrderDetail,
		Data: ViewData{
			Order:      orderView(o),
			Transition: transition,
			Filter:     cursor.filter,
			Count:      len(cursor.ids),
		},
	}
	if len(cursor.ids) > 0 {
		view.Data.Position = cursor.index + 1
	}
	if next, ok := o.Status.Next(); ok {
		view.Data.NextStatus = next
		view.Buttons = append(view.Buttons, row(buttonWith(
			"bot.button.advance_"+strings.ToLower(string(next)),
			map[string]any{"Status": next},
			Action{Kind: ActionAdminAdvance, Status: next, OrderID: o.ID},
		)))
	}
	var nav []Button
	if cursor.index > 0 {
		nav = append(nav, button("bot.button.prev", Action{Kind: ActionAdminNavigate, Direction: lifecycle.DirectionPrev}))
	}
	if cursor.index < len(cursor.ids)-1 {
		nav = append(nav, button("bot.button.next", Action{Kind: ActionAdminNavigate, Direction: lifecycle.DirectionNext}))
	}
	if len(nav) > 0 {
		view.Buttons = append(view.Buttons, nav)
	}
	view.Buttons = append(view.Buttons,
		row(button("bot.button.contact_customer", Action{Kind: ActionAdminContact, OrderID: o.ID})),
		row(button("bot.button.back_list", Action{Kind: ActionAdminList})),
	)
	return view
}

// focusCursor moves the admin's cursor to orderID. When the order is not in
// the remembered list an empty cursor is returned and the stored one is kept.
func (s *Service) focusCursor(adminID, orderID string) adminCursor {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	cursor, ok := s.cursors[adminID]
	if !ok {
		return adminCursor{}
	}
	for i, candidate := range cursor.ids {
		if candidate == orderID {
			cursor.index = i
			s.cursors[adminID] = cursor
			return cursor
		}
	}
	return adminCursor{}
}

func (s *Service) cursor(adminID string) (adminCursor, bool) {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	cursor, ok := s.cursors[adminID]
	return cursor, ok
}

func (s *Service) setCursor(adminID string, cursor adminCursor) {
	if len(cursor.ids) == 0 {
		return
	}
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	s.cursors[adminID] = cursor
}

func (s *Service) clearCursor(adminID string) {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	delete(s.cursors, adminID)
}

// WhatsAppNumber turns a local phone number into the international digits
// used by wa.me links. A leading 0 becomes the Indonesian country code 62.
func WhatsAppNumber(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()
	if strings.HasPrefix(number, "0") {
		number = "62" + strings.TrimPrefix(number, "0")
	}
	return number
}
