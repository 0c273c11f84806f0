package app

import (
	"context"
	"reflect"
	"testing"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

func TestAdminEntryPointsDenyNonMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	placed := placeOrder(t, f.svc, customer, "M001")
	before, _ := f.orders.LoadAll(ctx)

	updates := []Update{
		{Caller: customer, Command: "/admin"},
		{Caller: customer, Callback: "admin:dashboard"},
		{Caller: customer, Callback: "admin:list"},
		{Caller: customer, Callback: "admin:filter:all"},
		{Caller: customer, Callback: "admin:advance:processing:" + placed.ID},
		{Caller: customer, Callback: "admin:nav:next"},
		{Caller: customer, Callback: "admin:contact:" + placed.ID},
		{Caller: customer, Callback: "admin:order:" + placed.ID},
		{Caller: customer, Callback: "admin:stats"},
	}
	for _, upd := range updates {
		view, err := f.svc.Handle(ctx, upd)
		if apperrors.CodeOf(err) != apperrors.CodeAccessDenied {
			t.Fatalf("%+v: err = %v, want ACCESS_DENIED", upd, err)
		}
		if view.Kind != "" || view.Data.Order != nil || view.Data.Summary != nil {
			t.Fatalf("%+v: denied view disclosed data: %+v", upd, view)
		}
	}
	after, _ := f.orders.LoadAll(ctx)
	if !reflect.DeepEqual(before.Orders(), after.Orders()) {
		t.Fatal("order collection changed after denied calls")
	}
	if len(f.metrics.transitions) != 0 {
		t.Fatal("denied calls must not record transitions")
	}
}

func TestAdminDashboardAndList(t *testing.T) {
	f := newFixture(t)
	placeOrder(t, f.svc, customer, "M001", "D001")
	placeOrder(t, f.svc, Caller{ID: "43"}, "S001")

	dashboard := mustHandle(t, f.svc, Update{Caller: admin, Command: "/admin"})
	if dashboard.Kind != ViewAdminDashboard || len(dashboard.Buttons) != 6 {
		t.Fatalf("dashboard = %+v", dashboard)
	}
	var shortcuts []order.Filter
	for _, r := range dashboard.Buttons {
		if r[0].Action.Kind == ActionAdminFilter {
			shortcuts = append(shortcuts, r[0].Action.Filter)
		}
	}
	wantShortcuts := []order.Filter{
		order.FilterStatus(order.StatusNew),
		order.FilterStatus(order.StatusProcessing),
		order.FilterStatus(order.StatusDelivering),
		order.FilterStatus(order.StatusCompleted),
	}
	if !reflect.DeepEqual(shortcuts, wantShortcuts) {
		t.Fatalf("dashboard filters = %v, want %v", shortcuts, wantShortcuts)
	}
	shortcut := mustHandle(t, f.svc, Update{Caller: admin, Callback: dashboard.Buttons[1][0].Action.Token()})
	if shortcut.Kind != ViewAdminOrderDetail || shortcut.Data.Count != 2 {
		t.Fatalf("new orders shortcut = %+v", shortcut.Data)
	}
	list := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:list"})
	if list.Kind != ViewAdminOrderList || list.Data.Summary.TotalCount != 2 || list.Data.Summary.CountByStatus[order.StatusNew] != 2 {
		t.Fatalf("list = %+v", list.Data.Summary)
	}
	if len(list.Buttons) != 6 {
		t.Fatalf("filter buttons = %d, want 6", len(list.Buttons))
	}
}

func TestAdminFilterNavigateAndAdvance(t *testing.T) {
	f := newFixture(t)
	first := placeOrder(t, f.svc, customer, "M001")
	second := placeOrder(t, f.svc, Caller{ID: "43"}, "D002")

	detail := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:filter:new"})
	if detail.Kind != ViewAdminOrderDetail || detail.Data.Order.ID != first.ID {
		t.Fatalf("detail = %+v", detail)
	}
	if detail.Data.Position != 1 || detail.Data.Count != 2 || detail.Data.NextStatus != order.StatusProcessing {
		t.Fatalf("detail data = %+v", detail.Data)
	}
	advance := detail.Buttons[0][0].Action
	if advance.Kind != ActionAdminAdvance || advance.Status != order.StatusProcessing || advance.OrderID != first.ID {
		t.Fatalf("first button = %+v", advance)
	}

	next := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:nav:next"})
	if next.Data.Order.ID != second.ID || next.Data.Position != 2 {
		t.Fatalf("next = %+v", next.Data)
	}
	clamped := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:nav:next"})
	if clamped.Data.Order.ID != second.ID {
		t.Fatalf("navigation wrapped: %+v", clamped.Data)
	}

	advanced := mustHandle(t, f.svc, Update{Caller: admin, Callback: advance.Token()})
	transition := advanced.Data.Transition
	if transition == nil || transition.Order.ID != first.ID || transition.From != order.StatusNew || transition.To != order.StatusProcessing {
		t.Fatalf("advanced transition = %+v", transition)
	}
	if advanced.Data.Order.ID != second.ID || advanced.Data.Position != 1 || advanced.Data.Count != 1 {
		t.Fatalf("advanced view = %+v", advanced.Data)
	}
	if f.metrics.transitions["processing"] != 1 {
		t.Fatalf("transition metrics = %v", f.metrics.transitions)
	}

	_, err := f.svc.Handle(context.Background(), Update{Caller: admin, Callback: "admin:advance:completed:" + first.ID})
	if apperrors.CodeOf(err) != apperrors.CodeIllegalTransition {
		t.Fatalf("skip err = %v", err)
	}

	newOnly := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:filter:new"})
	if newOnly.Data.Count != 1 || newOnly.Data.Order.ID != second.ID {
		t.Fatalf("new filter after advance = %+v", newOnly.Data)
	}
	processing := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:filter:processing"})
	if processing.Data.Count != 1 || processing.Data.Order.ID != first.ID {
		t.Fatalf("processing filter = %+v", processing.Data)
	}
}

func TestAdminAdvanceRefreshesFilteredList(t *testing.T) {
	f := newFixture(t)
	first := placeOrder(t, f.svc, customer, "M001")
	second := placeOrder(t, f.svc, Caller{ID: "43"}, "D002")

	mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:filter:new"})
	advanced := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:advance:processing:" + first.ID})
	if advanced.Kind != ViewAdminOrderDetail || advanced.Data.Order.ID != second.ID || advanced.Data.Count != 1 {
		t.Fatalf("after advance = %+v", advanced.Data)
	}

	for _, callback := range []string{"admin:nav:next", "admin:nav:prev"} {
		view := mustHandle(t, f.svc, Update{Caller: admin, Callback: callback})
		if view.Data.Order.Status != order.StatusNew || view.Data.Order.ID != second.ID {
			t.Fatalf("%s showed %s (%s) under filter new", callback, view.Data.Order.ID, view.Data.Order.Status)
		}
		if view.Data.Position != 1 || view.Data.Count != 1 {
			t.Fatalf("%s position = %d/%d, want 1/1", callback, view.Data.Position, view.Data.Count)
		}
	}

	emptied := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:advance:processing:" + second.ID})
	if emptied.Kind != ViewAdminEmpty || emptied.Data.Transition == nil || emptied.Data.Transition.Order.ID != second.ID {
		t.Fatalf("after last advance = %+v", emptied)
	}
	if _, ok := f.svc.cursor(admin.ID); ok {
		t.Fatal("cursor kept for an empty filter")
	}
}

func TestAdminAdvanceKeepsFocusUnderAllFilter(t *testing.T) {
	f := newFixture(t)
	placeOrder(t, f.svc, customer, "M001")
	second := placeOrder(t, f.svc, Caller{ID: "43"}, "D002")

	mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:filter:all"})
	mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:nav:next"})
	advanced := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:advance:processing:" + second.ID})
	if advanced.Data.Order.ID != second.ID || advanced.Data.Order.Status != order.StatusProcessing {
		t.Fatalf("advanced = %+v", advanced.Data)
	}
	if advanced.Data.Position != 2 || advanced.Data.Count != 2 || advanced.Data.NextStatus != order.StatusDelivering {
		t.Fatalf("advanced position = %+v", advanced.Data)
	}
}

func TestAdminCompletedOrderHasNoAdvance(t *testing.T) {
	f := newFixture(t)
	placed := placeOrder(t, f.svc, customer, "M003")
	for _, status := range []string{"processing", "delivering", "completed"} {
		mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:advance:" + status + ":" + placed.ID})
	}
	view := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:order:" + placed.ID})
	if view.Data.NextStatus != order.StatusUnspecified {
		t.Fatalf("next status = %s", view.Data.NextStatus)
	}
	for _, r := range view.Buttons {
		for _, b := range r {
			if b.Action.Kind == ActionAdminAdvance {
				t.Fatalf("completed order offers advance: %+v", b)
			}
		}
	}
}

func TestAdminEmptyFilterAndContact(t *testing.T) {
	f := newFixture(t)
	empty := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:filter:delivering"})
	if empty.Kind != ViewAdminEmpty || empty.Data.Filter != order.FilterStatus(order.StatusDelivering) {
		t.Fatalf("empty = %+v", empty)
	}

	placed := placeOrder(t, f.svc, customer, "D003")
	contact := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:contact:" + placed.ID})
	if contact.Kind != ViewAdminContact || contact.Data.WhatsApp != "62812" {
		t.Fatalf("contact = %+v", contact.Data)
	}
	back := contact.Buttons[0][0].Action
	if back.Kind != ActionAdminOrder || back.OrderID != placed.ID {
		t.Fatalf("back = %+v", back)
	}

	if _, err := f.svc.Handle(context.Background(), Update{Caller: admin, Callback: "admin:order:ORD-missing"}); apperrors.CodeOf(err) != apperrors.CodeOrderNotFound {
		t.Fatalf("missing order err = %v", err)
	}
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	placeOrder(t, f.svc, customer, "M001", "M002")
	view := mustHandle(t, f.svc, Update{Caller: admin, Callback: "admin:stats"})
	summary := view.Data.Summary
	if view.Kind != ViewAdminStats || summary.TotalCount != 1 || summary.TotalRevenue != 45000 || summary.TodayCount != 1 {
		t.Fatalf("stats = %+v", summary)
	}
}

func TestWhatsAppNumber(t *testing.T) {
	tests := map[string]string{
		"0812-3456-789":   "628123456789",
		"+62 812 345":     "62812345",
		"":                "",
		"(021) 555 01 02": "62215550102",
	}
	for input, want := range tests {
		if got := WhatsAppNumber(input); got != want {
			t.Fatalf("WhatsAppNumber(%q) = %q, want %q", input, got, want)
		}
	}
}
