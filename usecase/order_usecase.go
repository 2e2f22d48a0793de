package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"camgrocer/dao"
	"camgrocer/model"
	"camgrocer/pkg/auth"
	"camgrocer/pkg/metrics"
	"camgrocer/pkg/negotiation"
	"camgrocer/pkg/notify"

	"go.uber.org/zap"
)

// orderTransitions lists the statuses each status may move to.
var orderTransitions = map[string][]string{
	model.OrderPending:   {model.OrderConfirmed, model.OrderCancelled},
	model.OrderConfirmed: {model.OrderDelivered, model.OrderCancelled},
}

// PlaceOrderInput is the checkout request built from the client-side cart.
type PlaceOrderInput struct {
	Lines   []model.CartLine `json:"lines"`
	Address string           `json:"address"`
	Phone   string           `json:"phone"`
}

type OrderUsecase struct {
	orders   *dao.OrderRepository
	products *dao.ProductRepository
	stores   *dao.StoreRepository
	users    *dao.UserRepository
	deals    *auth.DealSigner
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewOrderUsecase(orders *dao.OrderRepository, products *dao.ProductRepository, stores *dao.StoreRepository, users *dao.UserRepository, deals *auth.DealSigner, notifier notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *OrderUsecase {
	return &OrderUsecase{
		orders:   orders,
		products: products,
		stores:   stores,
		users:    users,
		deals:    deals,
		notifier: notifier,
		metrics:  m,
		logger:   logger.Named("order"),
	}
}

// Place turns the cart into a pending order. A line without a unit price is
// charged the listed price; a line with one must carry the deal token signed
// when the negotiation was committed, and the price must still be one the
// engine could accept for the current listed price.
func (u *OrderUsecase) Place(ctx context.Context, actor Actor, in PlaceOrderInput) (*model.Order, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}
	address := strings.TrimSpace(in.Address)
	phone := strings.TrimSpace(in.Phone)
	if address == "" || phone == "" {
		return nil, fmt.Errorf("%w: delivery address and phone are required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:         newID(),
		CustomerID: actor.ID,
		Status:     model.OrderPending,
		Address:    address,
		Phone:      phone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	seen := make(map[string]bool, len(in.Lines))
	for _, line := range in.Lines {
		if seen[line.ProductID] {
			return nil, fmt.Errorf("%w: product %s appears twice in the cart", ErrInvalidInput, line.ProductID)
		}
		seen[line.ProductID] = true

		item, err := u.priceLine(ctx, line)
		if err != nil {
			return nil, err
		}
		item.ID = newID()
		item.OrderID = order.ID
		order.Items = append(order.Items, *item)
		order.Total += item.Subtotal
	}

	if err := u.orders.Create(ctx, order); err != nil {
		if errors.Is(err, dao.ErrOutOfStock) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, err
	}

	u.metrics.OrdersPlaced.Inc()
	u.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.Int("total", order.Total),
		zap.Int("items", len(order.Items)),
	)
	u.notifyCustomer(ctx, notify.OrderPlaced, order)
	return order, nil
}

func (u *OrderUsecase) priceLine(ctx context.Context, line model.CartLine) (*model.OrderItem, error) {
	if line.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}
	p, store, err := loadProduct(ctx, u.products, u.stores, line.ProductID)
	if err != nil {
		return nil, err
	}
	if !isPublic(p, store) {
		return nil, fmt.Errorf("product %s: %w", line.ProductID, ErrNotFound)
	}
	if line.Quantity > p.Stock {
		return nil, fmt.Errorf("%w: only %d %s of %s left", ErrConflict, p.Stock, p.Unit, p.Name)
	}

	price := p.Price
	if line.UnitPrice != 0 {
		if !p.Negotiable {
			return nil, fmt.Errorf("%w: %s has a fixed price", ErrInvalidInput, p.Name)
		}
		if line.UnitPrice < negotiation.MinAcceptablePrice(p.Price) || line.UnitPrice > p.Price {
			return nil, fmt.Errorf("%w: %d is not an agreed price for %s", ErrInvalidInput, line.UnitPrice, p.Name)
		}
		deal, err := u.deals.Verify(line.DealToken)
		if err != nil {
			return nil, fmt.Errorf("%w: no valid deal for %s: %v", ErrInvalidInput, p.Name, err)
		}
		if deal.Subject != p.ID || deal.Price != line.UnitPrice {
			return nil, fmt.Errorf("%w: the deal does not match %d for %s", ErrInvalidInput, line.UnitPrice, p.Name)
		}
		price = line.UnitPrice
	}

	return &model.OrderItem{
		ProductID:   p.ID,
		StoreID:     p.StoreID,
		ProductName: p.Name,
		Quantity:    line.Quantity,
		UnitPrice:   price,
		ListedPrice: p.Price,
		Subtotal:    price * line.Quantity,
	}, nil
}

// Get returns the order to its customer, the owners of the stores in it and
// admins.
func (u *OrderUsecase) Get(ctx context.Context, actor Actor, id string) (*model.Order, error) {
	o, err := u.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID == actor.ID || actor.IsAdmin() {
		return o, nil
	}
	ok, err := u.ownsStoreIn(ctx, actor, o)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrForbidden)
	}
	return o, nil
}

func (u *OrderUsecase) ListMine(ctx context.Context, actor Actor) ([]model.Order, error) {
	return u.orders.ListByCustomer(ctx, actor.ID)
}

func (u *OrderUsecase) ListForStore(ctx context.Context, actor Actor, storeID string) ([]model.Order, error) {
	store, err := u.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("store %s: %w", storeID, ErrNotFound)
	}
	if !canManageStore(&actor, store) {
		return nil, fmt.Errorf("store %s: %w", storeID, ErrForbidden)
	}
	return u.orders.ListByStore(ctx, storeID)
}

func (u *OrderUsecase) ListAll(ctx context.Context, status string) ([]model.Order, error) {
	return u.orders.ListAll(ctx, status)
}

// UpdateStatus moves the order along pending -> confirmed -> delivered or
// cancels it. Customers may only cancel their own pending orders.
// Cancelling puts the items back into stock.
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actor Actor, id, status string) (*model.Order, error) {
	o, err := u.get(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := actor.IsAdmin()
	if !allowed {
		if allowed, err = u.ownsStoreIn(ctx, actor, o); err != nil {
			return nil, err
		}
	}
	if !allowed && o.CustomerID == actor.ID {
		if status != model.OrderCancelled || o.Status != model.OrderPending {
			return nil, fmt.Errorf("%w: customers can only cancel pending orders", ErrForbidden)
		}
		allowed = true
	}
	if !allowed {
		return nil, fmt.Errorf("order %s: %w", id, ErrForbidden)
	}

	if !slices.Contains(orderTransitions[o.Status], status) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrConflict, o.Status, status)
	}

	if err := u.orders.UpdateStatus(ctx, o, status, status == model.OrderCancelled); err != nil {
		if errors.Is(err, dao.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, err
	}
	u.logger.Info("order status changed", zap.String("order_id", o.ID), zap.String("status", status), zap.String("by", actor.ID))
	u.notifyCustomer(ctx, notify.OrderStatusChanged, o)
	return o, nil
}

func (u *OrderUsecase) ownsStoreIn(ctx context.Context, actor Actor, o *model.Order) (bool, error) {
	if actor.Role != model.RoleStoreOwner {
		return false, nil
	}
	checked := map[string]bool{}
	for _, it := range o.Items {
		if checked[it.StoreID] {
			continue
		}
		checked[it.StoreID] = true
		store, err := u.stores.GetByID(ctx, it.StoreID)
		if err != nil {
			return false, err
		}
		if store != nil && store.OwnerID == actor.ID {
			return true, nil
		}
	}
	return false, nil
}

func (u *OrderUsecase) get(ctx context.Context, id string) (*model.Order, error) {
	o, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, nil
}

func (u *OrderUsecase) notifyCustomer(ctx context.Context, event string, o *model.Order) {
	e := notify.Event{
		Type:      event,
		SubjectID: o.ID,
		Data:      map[string]any{"status": o.Status, "total": o.Total},
	}
	if customer, err := u.users.GetByID(ctx, o.CustomerID); err == nil && customer != nil {
		e.Recipient = customer.Email
	}
	publish(ctx, u.notifier, u.logger, e)
}
