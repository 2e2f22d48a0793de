package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"camgrocer/dao"
	"camgrocer/db"
	"camgrocer/model"
	"camgrocer/pkg/auth"
	"camgrocer/pkg/metrics"
	"camgrocer/pkg/notify"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

func (n *recordingNotifier) last() notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

type testEnv struct {
	userRepo    *dao.UserRepository
	storeRepo   *dao.StoreRepository
	productRepo *dao.ProductRepository
	orderRepo   *dao.OrderRepository

	notifier *recordingNotifier
	metrics  *metrics.Metrics
	deals    *auth.DealSigner

	users        *UserUsecase
	stores       *StoreUsecase
	products     *ProductUsecase
	orders       *OrderUsecase
	negotiations *NegotiationUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, conn))
	t.Cleanup(func() { conn.Close() })

	logger := zap.NewNop()
	e := &testEnv{
		userRepo:    dao.NewUserRepository(conn),
		storeRepo:   dao.NewStoreRepository(conn),
		productRepo: dao.NewProductRepository(conn),
		orderRepo:   dao.NewOrderRepository(conn),
		notifier:    &recordingNotifier{},
		metrics:     metrics.New(),
		deals:       auth.NewDealSigner("test-secret", time.Hour),
	}
	e.users = NewUserUsecase(e.userRepo, auth.NewIssuer("test-secret", time.Hour), e.notifier, logger)
	e.stores = NewStoreUsecase(e.storeRepo, e.userRepo, e.notifier, logger)
	e.products = NewProductUsecase(e.productRepo, e.storeRepo, e.userRepo, e.notifier, logger)
	e.orders = NewOrderUsecase(e.orderRepo, e.productRepo, e.storeRepo, e.userRepo, e.deals, e.notifier, e.metrics, logger)
	e.negotiations = NewNegotiationUsecase(e.productRepo, e.storeRepo, nil, e.deals, 30*time.Minute, e.metrics, logger)
	return e
}

// seedUser inserts an account directly; the password hash is not usable.
func (e *testEnv) seedUser(t *testing.T, email, role string) Actor {
	t.Helper()
	u := &model.User{ID: newID(), Name: email, Email: email, PasswordHash: "-", Role: role, CreatedAt: time.Now().UTC()}
	require.NoError(t, e.userRepo.Insert(context.Background(), u))
	return Actor{ID: u.ID, Role: u.Role}
}

// seedShop creates an approved store owned by owner with one approved,
// negotiable product listed at price.
func (e *testEnv) seedShop(t *testing.T, owner Actor, price, stock int) (*model.Store, *model.Product) {
	t.Helper()
	ctx := context.Background()
	s, err := e.stores.Create(ctx, owner, StoreInput{Name: "Mama Ngono", Location: "Marché Mokolo, Yaoundé"})
	require.NoError(t, err)
	_, err = e.stores.Approve(ctx, s.ID)
	require.NoError(t, err)

	p, err := e.products.Create(ctx, owner, ProductInput{
		StoreID: s.ID, Name: "Tomatoes", Category: "Vegetables", Price: price, Unit: "kg", Stock: stock, Negotiable: true,
	})
	require.NoError(t, err)
	p, err = e.products.Approve(ctx, p.ID)
	require.NoError(t, err)
	return s, p
}

// dealLine is a cart line carrying a freshly signed deal at price.
func (e *testEnv) dealLine(t *testing.T, productID string, quantity, price int) model.CartLine {
	t.Helper()
	token, _, err := e.deals.Sign(productID, price)
	require.NoError(t, err)
	return model.CartLine{ProductID: productID, Quantity: quantity, UnitPrice: price, DealToken: token}
}
