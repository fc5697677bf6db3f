package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"gotur/pkg/order"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	first := order.Order{ID: "1", UserID: "u1", Status: order.StatusPending, Items: []order.Item{{ProductID: "p", Quantity: 2}}}
	second := order.Order{ID: "2", UserID: "u1", Status: order.StatusPending}
	other := order.Order{ID: "3", UserID: "u2", Status: order.StatusPending}
	for _, o := range []order.Order{first, second, other} {
		if err := repo.Record(ctx, o); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := repo.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", got.Items[0].Quantity)
	}

	list, err := repo.List(ctx, "u1")
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	if list[0].ID != "2" || list[1].ID != "1" {
		t.Fatalf("expected most recent first, got %s,%s", list[0].ID, list[1].ID)
	}

	if err := repo.UpdateStatus(ctx, "1", order.StatusDelivered); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.Get(ctx, "1")
	if got.Status != order.StatusDelivered {
		t.Fatalf("expected delivered, got %s", got.Status)
	}

	// Any transition is allowed, including back to pending.
	if err := repo.UpdateStatus(ctx, "1", order.StatusPending); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.Get(ctx, "1")
	if got.Status != order.StatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}

	if _, err := repo.Get(ctx, "missing"); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := order.Order{ID: "1", UserID: "u1", Status: order.StatusOnTheWay}
	if err := repo.Record(ctx, o); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := repo.UpdateStatus(ctx, "missing", order.StatusCancelled); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected 1 order, got %d", repo.Len())
	}
	got, _ := repo.Get(ctx, "1")
	if got.Status != order.StatusOnTheWay {
		t.Fatalf("status changed to %s", got.Status)
	}
}

func TestReturnedOrdersDoNotAlias(t *testing.T) {
	ctx := context.Background()
	repo := New()
	note, code, discount := "ring", "HOSGELDIN10", decimal.NewFromInt(10)
	o := order.Order{
		ID:            "1",
		UserID:        "u1",
		Items:         []order.Item{{ProductID: "p", Quantity: 1}},
		DeliveryNote:  &note,
		PromoCode:     &code,
		PromoDiscount: &discount,
	}
	_ = repo.Record(ctx, o)

	o.Items[0].Quantity = 50
	*o.DeliveryNote = "changed before read"
	got, _ := repo.Get(ctx, "1")
	got.Items[0].Quantity = 70
	*got.DeliveryNote = "tampered"
	*got.PromoCode = "YENI20"
	*got.PromoDiscount = decimal.NewFromInt(99)

	listed, _ := repo.List(ctx, "u1")
	*listed[0].DeliveryNote = "tampered via list"

	again, _ := repo.Get(ctx, "1")
	if again.Items[0].Quantity != 1 {
		t.Fatalf("stored order was mutated: %d", again.Items[0].Quantity)
	}
	if *again.DeliveryNote != "ring" {
		t.Fatalf("stored note was mutated: %q", *again.DeliveryNote)
	}
	if *again.PromoCode != "HOSGELDIN10" {
		t.Fatalf("stored promo code was mutated: %q", *again.PromoCode)
	}
	if !again.PromoDiscount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("stored promo discount was mutated: %s", again.PromoDiscount)
	}
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	repo := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("o%d", i)
			_ = repo.Record(ctx, order.Order{ID: id, UserID: "u"})
			_ = repo.UpdateStatus(ctx, id, order.StatusDelivered)
		}(i)
	}
	wg.Wait()

	list, _ := repo.List(ctx, "u")
	if len(list) != 50 {
		t.Fatalf("expected 50 orders, got %d", len(list))
	}
	for _, o := range list {
		if o.Status != order.StatusDelivered {
			t.Fatalf("order %s has status %s", o.ID, o.Status)
		}
	}
}
