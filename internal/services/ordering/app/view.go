package app

import (
	"github.com/louisbranch/restobot/internal/services/ordering/lifecycle"
	"github.com/louisbranch/restobot/internal/services/ordering/menu"
	"github.com/louisbranch/restobot/internal/services/ordering/order"
	"github.com/louisbranch/restobot/internal/services/ordering/session"
	"github.com/louisbranch/restobot/internal/services/ordering/stats"
)

// ViewKind names the screen a collaborator should render.
type ViewKind string

const (
	ViewWelcome          ViewKind = "welcome"
	ViewMenu             ViewKind = "menu"
	ViewCategories       ViewKind = "categories"
	ViewCategory         ViewKind = "category"
	ViewItemAdded        ViewKind = "item_added"
	ViewCart             ViewKind = "cart"
	ViewAskName          ViewKind = "ask_name"
	ViewAskPhone         ViewKind = "ask_phone"
	ViewAskAddress       ViewKind = "ask_address"
	ViewOrderPlaced      ViewKind = "order_placed"
	ViewOrderStatus      ViewKind = "order_status"
	ViewNoOrders         ViewKind = "no_orders"
	ViewHelp             ViewKind = "help"
	ViewContact          ViewKind = "contact"
	ViewNotInDialogue    ViewKind = "not_in_dialogue"
	ViewAdminDashboard   ViewKind = "admin_dashboard"
	ViewAdminOrderList   ViewKind = "admin_order_list"
	ViewAdminOrderDetail ViewKind = "admin_order_detail"
	ViewAdminEmpty       ViewKind = "admin_empty"
	ViewAdminContact     ViewKind = "admin_contact"
	ViewAdminStats       ViewKind = "admin_stats"
)

// ViewKinds lists every view in declaration order.
var ViewKinds = []ViewKind{
	ViewWelcome, ViewMenu, ViewCategories, ViewCategory, ViewItemAdded, ViewCart,
	ViewAskName, ViewAskPhone, ViewAskAddress, ViewOrderPlaced, ViewOrderStatus,
	ViewNoOrders, ViewHelp, ViewContact, ViewNotInDialogue,
	ViewAdminDashboard, ViewAdminOrderList, ViewAdminOrderDetail, ViewAdminEmpty,
	ViewAdminContact, ViewAdminStats,
}

// Button is one selectable control. LabelKey names a catalog message that is
// rendered with LabelData.
type Button struct {
	LabelKey  string
	LabelData map[string]any
	Action    Action
}

// ViewData is the structured payload a view template interpolates. Only the
// fields relevant to the view kind are set.
type ViewData struct {
	CustomerName string
	Categories   []menu.Category
	Category     *menu.Category
	Item         *menu.Item
	Cart         []order.CartLine
	CartTotal    int64
	Step         session.Step
	Order        *order.Order
	NextStatus   order.Status
	Transition   *lifecycle.Transition
	Filter       order.Filter
	Position     int
	Count        int
	Summary      *stats.Summary
	WhatsApp     string
}

// View is the render instruction returned for every update.
type View struct {
	Kind    ViewKind
	Data    ViewData
	Buttons [][]Button
}

func button(labelKey string, action Action) Button {
	return Button{LabelKey: labelKey, Action: action}
}

func buttonWith(labelKey string, data map[string]any, action Action) Button {
	return Button{LabelKey: labelKey, LabelData: data, Action: action}
}

func row(buttons ...Button) []Button {
	return buttons
}
