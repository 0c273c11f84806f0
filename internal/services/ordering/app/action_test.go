package app

import (
	"testing"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/services/ordering/lifecycle"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

func TestActionTokensRoundTrip(t *testing.T) {
	actions := []Action{
		{Kind: ActionMainMenu},
		{Kind: ActionViewMenu},
		{Kind: ActionStartOrder},
		{Kind: ActionContact},
		{Kind: ActionSelectCategory, Category: "makanan"},
		{Kind: ActionAddItem, ItemID: "M001"},
		{Kind: ActionViewCart},
		{Kind: ActionClearCart},
		{Kind: ActionCheckout},
		{Kind: ActionCancelCheckout},
		{Kind: ActionAdminDashboard},
		{Kind: ActionAdminList},
		{Kind: ActionAdminFilter, Filter: order.FilterAll},
		{Kind: ActionAdminFilter, Filter: order.FilterStatus(order.StatusDelivering)},
		{Kind: ActionAdminAdvance, Status: order.StatusProcessing, OrderID: "ORD20261014120000-abc123"},
		{Kind: ActionAdminNavigate, Direction: lifecycle.DirectionPrev},
		{Kind: ActionAdminNavigate, Direction: lifecycle.DirectionNext},
		{Kind: ActionAdminContact, OrderID: "ORD1"},
		{Kind: ActionAdminOrder, OrderID: "ORD1"},
		{Kind: ActionAdminStats},
	}
	for _, action := range actions {
		token := action.Token()
		parsed, err := ParseAction(token)
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", token, err)
		}
		if parsed != action {
			t.Fatalf("ParseAction(%q) = %+v, want %+v", token, parsed, action)
		}
	}
}

func TestParseActionRejectsUnknownShapes(t *testing.T) {
	tokens := []string{
		"",
		"bogus",
		"cat:",
		"add:",
		"admin:",
		"admin:filter:lost",
		"admin:advance:processing",
		"admin:advance:flying:ORD1",
		"admin:nav:up",
		"admin:contact:",
		"admin:order:",
	}
	for _, token := range tokens {
		if _, err := ParseAction(token); apperrors.CodeOf(err) != apperrors.CodeActionInvalid {
			t.Fatalf("ParseAction(%q) err = %v, want ACTION_INVALID", token, err)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	if (Action{Kind: ActionViewCart}).IsAdmin() {
		t.Fatal("cart is not an admin action")
	}
	if !(Action{Kind: ActionAdminStats}).IsAdmin() || !(Action{Kind: ActionAdminDashboard}).IsAdmin() {
		t.Fatal("expected admin actions")
	}
}
