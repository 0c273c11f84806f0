package app

import (
	"context"
	"log"

	apperrors "github.com/louisbranch/restobot/internal/platform/errors"
	"github.com/louisbranch/restobot/internal/services/ordering/notify"
	"github.com/louisbranch/restobot/internal/services/ordering/session"
)

func mainButtons() [][]Button {
	return [][]Button{
		row(button("bot.button.view_menu", Action{Kind: ActionViewMenu})),
		row(button("bot.button.start_order", Action{Kind: ActionStartOrder})),
		row(button("bot.button.contact", Action{Kind: ActionContact})),
	}
}

// Start greets the customer with the main actions.
func (s *Service) Start(_ context.Context, caller Caller) (View, error) {
	return View{
		Kind:    ViewWelcome,
		Data:    ViewData{CustomerName: caller.DisplayName},
		Buttons: mainButtons(),
	}, nil
}

// Menu lists the full catalog grouped by category.
func (s *Service) Menu(_ context.Context, _ Caller) (View, error) {
	return View{
		Kind: ViewMenu,
		Data: ViewData{Categories: s.catalog.Categories()},
		Buttons: [][]Button{
			row(button("bot.button.start_order", Action{Kind: ActionStartOrder})),
		},
	}, nil
}

// Order offers the category picker.
func (s *Service) Order(_ context.Context, _ Caller) (View, error) {
	categories := s.catalog.Categories()
	buttons := make([][]Button, 0, len(categories)+1)
	for _, category := range categories {
		buttons = append(buttons, row(buttonWith(
			"bot.button.category",
			map[string]any{"Name": category.Name},
			Action{Kind: ActionSelectCategory, Category: category.Key},
		)))
	}
	buttons = append(buttons, row(button("bot.button.view_cart", Action{Kind: ActionViewCart})))
	return View{Kind: ViewCategories, Data: ViewData{Categories: categories}, Buttons: buttons}, nil
}

// Status shows the customer's latest order.
func (s *Service) Status(ctx context.Context, caller Caller) (View, error) {
	orders, err := s.orders.FindByCustomer(ctx, caller.ID)
	if err != nil {
		return View{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "find customer orders", err)
	}
	if len(orders) == 0 {
		return View{
			Kind: ViewNoOrders,
			Buttons: [][]Button{
				row(button("bot.button.start_order", Action{Kind: ActionStartOrder})),
			},
		}, nil
	}
	latest := orders[len(orders)-1]
	return View{
		Kind:    ViewOrderStatus,
		Data:    ViewData{Order: orderView(latest)},
		Buttons: [][]Button{row(button("bot.button.main_menu", Action{Kind: ActionMainMenu}))},
	}, nil
}

// Help returns the static help view.
func (s *Service) Help(_ context.Context, _ Caller) (View, error) {
	return View{Kind: ViewHelp, Buttons: mainButtons()}, nil
}

func (s *Service) contactView() View {
	return View{
		Kind:    ViewContact,
		Buttons: [][]Button{row(button("bot.button.main_menu", Action{Kind: ActionMainMenu}))},
	}
}

func (s *Service) selectCategory(key string) (View, error) {
	category, err := s.catalog.Category(key)
	if err != nil {
		return View{}, err
	}
	buttons := make([][]Button, 0, len(category.Items)+2)
	for _, item := range category.Items {
		buttons = append(buttons, row(buttonWith(
			"bot.button.add_item",
			map[string]any{"Name": item.Name, "Price": item.Price},
			Action{Kind: ActionAddItem, ItemID: item.ID},
		)))
	}
	buttons = append(buttons,
		row(button("bot.button.view_cart", Action{Kind: ActionViewCart})),
		row(button("bot.button.back_categories", Action{Kind: ActionStartOrder})),
	)
	return View{Kind: ViewCategory, Data: ViewData{Category: &category}, Buttons: buttons}, nil
}

func (s *Service) addItem(ctx context.Context, caller Caller, itemID string) (View, error) {
	item, err := s.catalog.Item(itemID)
	if err != nil {
		return View{}, err
	}
	current, err := s.sessions.AppendToCart(ctx, caller.ID, item.Snapshot())
	if err != nil {
		return View{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "append to cart", err)
	}
	return View{
		Kind: ViewItemAdded,
		Data: ViewData{Item: &item, Cart: current.Cart, CartTotal: current.Total()},
		Buttons: [][]Button{
			row(button("bot.button.view_cart", Action{Kind: ActionViewCart})),
			row(button("bot.button.continue_order", Action{Kind: ActionStartOrder})),
		},
	}, nil
}

func (s *Service) viewCart(ctx context.Context, caller Caller) (View, error) {
	current, err := s.sessions.Get(ctx, caller.ID)
	if err != nil {
		return View{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "load session", err)
	}
	return cartView(current), nil
}

func cartView(current session.Session) View {
	view := View{
		Kind: ViewCart,
		Data: ViewData{Cart: current.Cart, CartTotal: current.Total(), Step: current.Step},
	}
	if len(current.Cart) == 0 {
		view.Buttons = [][]Button{row(button("bot.button.start_order", Action{Kind: ActionStartOrder}))}
		return view
	}
	view.Buttons = [][]Button{
		row(button("bot.button.checkout", Action{Kind: ActionCheckout})),
		row(button("bot.button.clear_cart", Action{Kind: ActionClearCart})),
		row(button("bot.button.continue_order", Action{Kind: ActionStartOrder})),
	}
	return view
}

// clearCart discards the whole session, matching a fresh /start.
func (s *Service) clearCart(ctx context.Context, caller Caller) (View, error) {
	if err := s.sessions.Reset(ctx, caller.ID); err != nil {
		return View{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "reset session", err)
	}
	return cartView(session.Fresh(caller.ID)), nil
}

func (s *Service) beginCheckout(ctx context.Context, caller Caller) (View, error) {
	current, err := s.checkout.Begin(ctx, caller.ID)
	if err != nil {
		return View{}, err
	}
	return View{
		Kind:    ViewAskName,
		Data:    ViewData{Cart: current.Cart, CartTotal: current.Total(), Step: current.Step},
		Buttons: [][]Button{row(button("bot.button.cancel_checkout", Action{Kind: ActionCancelCheckout}))},
	}, nil
}

func (s *Service) cancelCheckout(ctx context.Context, caller Caller) (View, error) {
	current, err := s.checkout.Cancel(ctx, caller.ID)
	if err != nil {
		return View{}, err
	}
	return cartView(current), nil
}

// HandleFreeText feeds plain text into the checkout dialogue. Outside a
// dialogue it returns the not-in-dialogue view and mutates nothing.
func (s *Service) HandleFreeText(ctx context.Context, caller Caller, text string) (View, error) {
	outcome, err := s.checkout.HandleText(ctx, caller.ID, text)
	if err != nil {
		return View{}, err
	}
	if !outcome.Handled {
		return View{Kind: ViewNotInDialogue}, nil
	}
	cancel := [][]Button{row(button("bot.button.cancel_checkout", Action{Kind: ActionCancelCheckout}))}
	switch {
	case outcome.Order != nil:
		placed := *outcome.Order
		s.metrics.OrderCreated()
		if err := s.notifier.Notify(ctx, notify.Created(placed)); err != nil {
			log.Printf("notify order %s created: %v", placed.ID, err)
		}
		return View{
			Kind:    ViewOrderPlaced,
			Data:    ViewData{Order: orderView(placed)},
			Buttons: [][]Button{row(button("bot.button.main_menu", Action{Kind: ActionMainMenu}))},
		}, nil
	case outcome.Step == session.StepWaitingPhone:
		return View{Kind: ViewAskPhone, Data: ViewData{CustomerName: outcome.Session.CustomerName, Step: outcome.Step}, Buttons: cancel}, nil
	case outcome.Step == session.StepWaitingAddress:
		return View{Kind: ViewAskAddress, Data: ViewData{CustomerName: outcome.Session.CustomerName, Step: outcome.Step}, Buttons: cancel}, nil
	default:
		return View{Kind: ViewNotInDialogue}, nil
	}
}
