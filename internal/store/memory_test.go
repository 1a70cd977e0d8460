package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/orderline/orderline/internal/store"
	"github.com/orderline/orderline/pkg/models"
)

// newTestStore creates a fresh in-memory store seeded with the cafe catalog.
func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s := store.NewMemoryStore(store.SeedCatalog())
	t.Cleanup(func() { s.Close() })
	return s
}

// ─── Catalog ─────────────────────────────────────────────────

func TestLoadCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(catalog.ItemTypes) == 0 {
		t.Error("LoadCatalog() returned no item types")
	}
	if catalog.Version == "" {
		t.Error("LoadCatalog() returned empty version")
	}

	version, err := s.CatalogVersion(ctx)
	if err != nil {
		t.Fatalf("CatalogVersion() error = %v", err)
	}
	if version != catalog.Version {
		t.Errorf("CatalogVersion() = %q, want %q", version, catalog.Version)
	}
}

func TestReplaceCatalog_DerivesVersion(t *testing.T) {
	m := store.NewMemoryStore(store.SeedCatalog())
	t.Cleanup(func() { m.Close() })
	ctx := context.Background()

	before, _ := m.CatalogVersion(ctx)

	next := store.SeedCatalog()
	next.Version = ""
	next.Store.DeliveryFee = 3.49
	m.ReplaceCatalog(next)

	after, err := m.CatalogVersion(ctx)
	if err != nil {
		t.Fatalf("CatalogVersion() error = %v", err)
	}
	if after == "" {
		t.Fatal("ReplaceCatalog() left version empty")
	}
	if after == before {
		t.Errorf("ReplaceCatalog() version unchanged: %q", after)
	}
}

// ─── Sessions ────────────────────────────────────────────────

func TestPutAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := &models.Session{
		ID: "sess-1",
		Order: &models.OrderTask{
			ID:    "ord-1",
			Phase: models.PhaseCollecting,
		},
	}
	if err := s.PutSession(ctx, session); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}

	got, err := s.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Order == nil || got.Order.Phase != models.PhaseCollecting {
		t.Errorf("GetSession() order phase = %v, want %v", got.Order, models.PhaseCollecting)
	}
	if got.UpdatedAt.IsZero() || got.CreatedAt.IsZero() {
		t.Error("GetSession() timestamps not set on put")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSession(context.Background(), "missing")
	var nf *store.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("GetSession(missing) error = %v, want *ErrNotFound", err)
	}
	if nf.Entity != "session" || nf.Key != "missing" {
		t.Errorf("ErrNotFound = %+v, want session/missing", nf)
	}
}

func TestGetSession_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := &models.Session{
		ID: "sess-copy",
		Order: &models.OrderTask{
			ID:    "ord-copy",
			Phase: models.PhaseCollecting,
			Items: []*models.OrderItem{{ID: "it-1", DisplayName: "Latte", Quantity: 1}},
		},
	}
	if err := s.PutSession(ctx, session); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}

	first, _ := s.GetSession(ctx, "sess-copy")
	first.Order.Items[0].Quantity = 99

	second, _ := s.GetSession(ctx, "sess-copy")
	if second.Order.Items[0].Quantity != 1 {
		t.Errorf("stored session mutated through returned copy: quantity = %d", second.Order.Items[0].Quantity)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutSession(ctx, &models.Session{ID: "sess-del"}); err != nil {
		t.Fatalf("PutSession() error = %v", err)
	}
	if err := s.DeleteSession(ctx, "sess-del"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	var nf *store.ErrNotFound
	if _, err := s.GetSession(ctx, "sess-del"); !errors.As(err, &nf) {
		t.Errorf("GetSession() after delete error = %v, want *ErrNotFound", err)
	}
	if err := s.DeleteSession(ctx, "sess-del"); !errors.As(err, &nf) {
		t.Errorf("DeleteSession() second call error = %v, want *ErrNotFound", err)
	}
}
