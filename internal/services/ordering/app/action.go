package app

import (
	"strings"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/services/ordering/lifecycle"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

// ActionKind enumerates every selectable control. Tokens are decoded into an
// Action once at the transport boundary and matched exhaustively here.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionMainMenu
	ActionViewMenu
	ActionStartOrder
	ActionContact
	ActionSelectCategory
	ActionAddItem
	ActionViewCart
	ActionClearCart
	ActionCheckout
	ActionCancelCheckout
	ActionAdminDashboard
	ActionAdminList
	ActionAdminFilter
	ActionAdminAdvance
	ActionAdminNavigate
	ActionAdminContact
	ActionAdminOrder
	ActionAdminStats
)

// Action is one decoded control with its arguments. Only the fields used by
// Kind are set.
type Action struct {
	Kind      ActionKind
	Category  string
	ItemID    string
	OrderID   string
	Filter    order.Filter
	Status    order.Status
	Direction lifecycle.Direction
}

var simpleTokens = map[string]ActionKind{
	"main_menu":       ActionMainMenu,
	"view_menu":       ActionViewMenu,
	"start_order":     ActionStartOrder,
	"contact":         ActionContact,
	"cart":            ActionViewCart,
	"cart_clear":      ActionClearCart,
	"checkout":        ActionCheckout,
	"checkout_cancel": ActionCancelCheckout,
	"admin:dashboard": ActionAdminDashboard,
	"admin:list":      ActionAdminList,
	"admin:stats":     ActionAdminStats,
}

// ParseAction decodes a callback token. Unknown shapes fail with
// ACTION_INVALID.
func ParseAction(token string) (Action, error) {
	token = strings.TrimSpace(token)
	if kind, ok := simpleTokens[token]; ok {
		return Action{Kind: kind}, nil
	}
	head, rest, _ := strings.Cut(token, ":")
	switch head {
	case "cat":
		if rest != "" {
			return Action{Kind: ActionSelectCategory, Category: rest}, nil
		}
	case "add":
		if rest != "" {
			return Action{Kind: ActionAddItem, ItemID: rest}, nil
		}
	case "admin":
		if action, ok := parseAdminAction(rest); ok {
			return action, nil
		}
	}
	return Action{}, apperrors.WithMetadata(
		apperrors.CodeActionInvalid,
		"unknown action token",
		map[string]string{"Token": token},
	)
}

func parseAdminAction(rest string) (Action, bool) {
	sub, arg, _ := strings.Cut(rest, ":")
	switch sub {
	case "filter":
		filter, ok := order.ParseFilter(arg)
		if !ok {
			return Action{}, false
		}
		return Action{Kind: ActionAdminFilter, Filter: filter}, true
	case "advance":
		statusLabel, orderID, ok := strings.Cut(arg, ":")
		if !ok || orderID == "" {
			return Action{}, false
		}
		status, ok := order.ParseStatus(statusLabel)
		if !ok {
			return Action{}, false
		}
		return Action{Kind: ActionAdminAdvance, Status: status, OrderID: orderID}, true
	case "nav":
		dir, ok := lifecycle.ParseDirection(arg)
		if !ok {
			return Action{}, false
		}
		return Action{Kind: ActionAdminNavigate, Direction: dir}, true
	case "contact":
		if arg == "" {
			return Action{}, false
		}
		return Action{Kind: ActionAdminContact, OrderID: arg}, true
	case "order":
		if arg == "" {
			return Action{}, false
		}
		return Action{Kind: ActionAdminOrder, OrderID: arg}, true
	}
	return Action{}, false
}

// Token encodes the action as its callback token.
func (a Action) Token() string {
	switch a.Kind {
	case ActionMainMenu:
		return "main_menu"
	case ActionViewMenu:
		return "view_menu"
	case ActionStartOrder:
		return "start_order"
	case ActionContact:
		return "contact"
	case ActionSelectCategory:
		return "cat:" + a.Category
	case ActionAddItem:
		return "add:" + a.ItemID
	case ActionViewCart:
		return "cart"
	case ActionClearCart:
		return "cart_clear"
	case ActionCheckout:
		return "checkout"
	case ActionCancelCheckout:
		return "checkout_cancel"
	case ActionAdminDashboard:
		return "admin:dashboard"
	case ActionAdminList:
		return "admin:list"
	case ActionAdminFilter:
		return "admin:filter:" + a.Filter.String()
	case ActionAdminAdvance:
		return "admin:advance:" + strings.ToLower(string(a.Status)) + ":" + a.OrderID
	case ActionAdminNavigate:
		return "admin:nav:" + a.Direction.String()
	case ActionAdminContact:
		return "admin:contact:" + a.OrderID
	case ActionAdminOrder:
		return "admin:order:" + a.OrderID
	case ActionAdminStats:
		return "admin:stats"
	default:
		return ""
	}
}

// IsAdmin reports whether the action belongs to the staff surface.
func (a Action) IsAdmin() bool {
	return a.Kind >= ActionAdminDashboard && a.Kind <= ActionAdminStats
}

// Name is the metric and span label of the action kind.
func (k ActionKind) Name() string {
	switch k {
	case ActionMainMenu:
		return "main_menu"
	case ActionViewMenu:
		return "view_menu"
	case ActionStartOrder:
		return "start_order"
	case ActionContact:
		return "contact"
	case ActionSelectCategory:
		return "select_category"
	case ActionAddItem:
		return "add_item"
	case ActionViewCart:
		return "view_cart"
	case ActionClearCart:
		return "clear_cart"
	case ActionCheckout:
		return "checkout"
	case ActionCancelCheckout:
		return "cancel_checkout"
	case ActionAdminDashboard:
		return "admin_dashboard"
	case ActionAdminList:
		return "admin_list"
	case ActionAdminFilter:
		return "admin_filter"
	case ActionAdminAdvance:
		return "admin_advance"
	case ActionAdminNavigate:
		return "admin_navigate"
	case ActionAdminContact:
		return "admin_contact"
	case ActionAdminOrder:
		return "admin_order"
	case ActionAdminStats:
		return "admin_stats"
	default:
		return "unknown"
	}
}
