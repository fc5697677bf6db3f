package shop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotur/pkg/catalog"
	"gotur/pkg/logger"
	"gotur/pkg/order"
	"gotur/pkg/order/memory"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(t *testing.T, repo order.Repository) *Service {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelDebug, "test", nil)
	if repo == nil {
		repo = memory.New()
	}
	return New(log, catalog.Sample(), nil, order.NewBuilder(), repo)
}

type failingRepo struct {
	*memory.Repository
}

func (failingRepo) Record(ctx context.Context, o order.Order) error {
	return errors.New("disk full")
}

func TestAddItemUnknownStoreOrProduct(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "404", "1")
	assert.ErrorIs(t, err, catalog.ErrStoreNotFound)

	_, err = svc.AddItem(ctx, "s1", "1", "404")
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.True(t, svc.Cart("s1").Empty)
}

func TestCartFlow(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "1", "1")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s1", "1", "1")
	require.NoError(t, err)
	sum, err := svc.AddItem(ctx, "s1", "1", "2")
	require.NoError(t, err)

	assert.Equal(t, "1", sum.StoreID)
	assert.Equal(t, "Hızlı Market", sum.StoreName)
	assert.Equal(t, 3, sum.ItemCount)
	assert.True(t, sum.Subtotal.Equal(price("19.30")))

	sum, err = svc.ApplyPromotion(ctx, "s1", "YENI20")
	assert.ErrorIs(t, err, ErrPromotionRejected)
	assert.Nil(t, sum.Promotion)

	sum, err = svc.ApplyPromotion(ctx, "s1", "HOSGELDIN10")
	require.NoError(t, err)
	require.NotNil(t, sum.Promotion)
	assert.True(t, sum.Total.Equal(price("9.30")))

	sum = svc.RemovePromotion(ctx, "s1")
	assert.Nil(t, sum.Promotion)

	sum = svc.SetNote(ctx, "s1", "Kapıya bırakabilirsiniz")
	assert.Equal(t, "Kapıya bırakabilirsiniz", sum.Note)

	sum = svc.SetQuantity(ctx, "s1", "1", 5)
	assert.Equal(t, 6, sum.ItemCount)

	sum = svc.RemoveItem(ctx, "s1", "2")
	assert.Equal(t, 5, sum.ItemCount)

	sum = svc.ClearCart(ctx, "s1")
	assert.True(t, sum.Empty)
	assert.Empty(t, sum.StoreID)
	assert.Empty(t, sum.Note)
}

func TestCheckout(t *testing.T) {
	repo := memory.New()
	svc := newService(t, repo)
	ctx := context.Background()

	for _, id := range []string{"1", "1", "2"} {
		_, err := svc.AddItem(ctx, "s1", "1", id)
		require.NoError(t, err)
	}

	o, err := svc.Checkout(ctx, "s1", "user123", "İstanbul, Kadıköy")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, o.Total.Equal(price("19.30")))
	require.Len(t, o.Items, 2)

	cart := svc.Cart("s1")
	assert.True(t, cart.Empty)
	assert.Empty(t, cart.StoreID)

	history, err := svc.Orders(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, o.ID, history[0].ID)

	_, err = svc.AddItem(ctx, "s1", "2", "4")
	require.NoError(t, err)
	second, err := svc.Checkout(ctx, "s1", "user123", "İstanbul, Kadıköy")
	require.NoError(t, err)

	history, err = svc.Orders(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest order first")
}

func TestCheckoutEmptyCartLeavesHistory(t *testing.T) {
	repo := memory.New()
	svc := newService(t, repo)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, "s1", "user123", "addr")
	assert.ErrorIs(t, err, order.ErrEmptyCart)
	assert.Equal(t, 0, repo.Len())
}

func TestCheckoutRecordFailureKeepsCart(t *testing.T) {
	svc := newService(t, failingRepo{memory.New()})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "1", "1")
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "s1", "u", "addr")
	require.Error(t, err)
	assert.Equal(t, 1, svc.Cart("s1").ItemCount)
}

func TestOrderOwnership(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "1", "1")
	require.NoError(t, err)
	o, err := svc.Checkout(ctx, "s1", "alice", "addr")
	require.NoError(t, err)

	got, err := svc.Order(ctx, "alice", o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = svc.Order(ctx, "bob", o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)

	_, err = svc.Order(ctx, "alice", "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	repo := memory.New()
	svc := newService(t, repo)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "1", "1")
	require.NoError(t, err)
	o, err := svc.Checkout(ctx, "s1", "alice", "addr")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, "alice", o.ID, order.StatusDelivered))
	require.NoError(t, svc.UpdateStatus(ctx, "alice", o.ID, order.StatusPending))
	got, err := svc.Order(ctx, "alice", o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)

	before, _ := svc.Orders(ctx, "alice")
	require.NoError(t, svc.UpdateStatus(ctx, "alice", "missing", order.StatusCancelled))
	after, _ := svc.Orders(ctx, "alice")
	assert.Equal(t, before, after)
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("s%d", i)
			for j := 0; j <= i; j++ {
				_, _ = svc.AddItem(ctx, sid, "1", "1")
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		assert.Equal(t, i+1, svc.Cart(fmt.Sprintf("s%d", i)).ItemCount)
	}
}

func TestForget(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "1", "1")
	require.NoError(t, err)
	svc.Forget("s1")

	assert.True(t, svc.Cart("s1").Empty)
}

func TestUpdateStatusOfAnotherUsersOrderIsIgnored(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "1", "1")
	require.NoError(t, err)
	o, err := svc.Checkout(ctx, "s1", "ayse", "addr")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, "mehmet", o.ID, order.StatusCancelled))

	got, err := svc.Order(ctx, "ayse", o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)
}

func TestCartReadDoesNotCreateCarts(t *testing.T) {
	svc := newService(t, nil)

	for i := 0; i < 1000; i++ {
		assert.True(t, svc.Cart(fmt.Sprintf("s%d", i)).Empty)
	}
	assert.Equal(t, 0, svc.Carts())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestIdleCartsAreEvicted(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	log := logger.New(io.Discard, logger.LevelDebug, "test", nil)
	svc := New(log, catalog.Sample(), nil, order.NewBuilder(), memory.New(),
		WithCartTTL(30*time.Minute), WithClock(clock.Now))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "idle", "1", "1")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "active", "1", "1")
	require.NoError(t, err)
	require.Equal(t, 2, svc.Carts())

	clock.Advance(20 * time.Minute)
	_, err = svc.AddItem(ctx, "active", "1", "2")
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	assert.Equal(t, 2, svc.Cart("active").ItemCount)
	assert.Equal(t, 1, svc.Carts(), "idle cart swept")
	assert.True(t, svc.Cart("idle").Empty)

	clock.Advance(time.Hour)
	assert.True(t, svc.Cart("active").Empty, "expired cart reads as empty")
	assert.Equal(t, 0, svc.Carts())

	_, err = svc.Checkout(ctx, "active", "ayse", "addr")
	assert.ErrorIs(t, err, order.ErrEmptyCart)
}
