package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/pkg/common"
)

type fakeGraphStore struct {
	saved   []common.ContentItem
	saveErr error
}

func (f *fakeGraphStore) EntitiesByScope(ctx context.Context, scope string) ([]common.Entity, error) {
	return nil, nil
}

func (f *fakeGraphStore) RelationshipsByScope(ctx context.Context, scope string) ([]common.Relationship, error) {
	return nil, nil
}

func (f *fakeGraphStore) ContentItemsByScope(ctx context.Context, scope string, since time.Time) ([]common.ContentItem, error) {
	return nil, nil
}

func (f *fakeGraphStore) GetEntity(ctx context.Context, scope, id string) (common.Entity, error) {
	return common.Entity{}, common.ErrEntityNotFound
}

func (f *fakeGraphStore) CreateEntity(ctx context.Context, entity common.Entity) error {
	return nil
}

func (f *fakeGraphStore) UpsertRelationship(ctx context.Context, rel common.Relationship) (bool, error) {
	return false, nil
}

func (f *fakeGraphStore) SaveContentItem(ctx context.Context, item common.ContentItem) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, item)
	return nil
}

func (f *fakeGraphStore) MergeEntities(ctx context.Context, scope, winnerID, loserID string) error {
	return nil
}

func (f *fakeGraphStore) DeleteEntity(ctx context.Context, scope, id string) error {
	return nil
}

type testValidator struct {
	v *validator.Validate
}

func (t *testValidator) Validate(i any) error {
	return t.v.Struct(i)
}

func invokeContentHandler(t *testing.T, store *fakeGraphStore, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	c.SetParamNames("scope")
	c.SetParamValues("s")
	cc := &middleware.AppContext{Context: c, App: &middleware.App{Store: store}}

	if err := CreateContentItemHandler(cc); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return rec
}

func TestCreateContentItem(t *testing.T) {
	store := &fakeGraphStore{}
	rec := invokeContentHandler(t, store,
		`{"id":"c1","text":"X met with Y","entity_ids":["X","Y"],"timestamp":"2026-03-01T12:00:00Z"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(store.saved) != 1 {
		t.Fatalf("store holds %d items, want 1", len(store.saved))
	}
	item := store.saved[0]
	if item.ID != "c1" || item.Scope != "s" {
		t.Errorf("saved item id/scope = %s/%s, want c1/s", item.ID, item.Scope)
	}
	if len(item.EntityIDs) != 2 {
		t.Errorf("saved %d mentions, want 2", len(item.EntityIDs))
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !item.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", item.Timestamp, want)
	}
}

func TestCreateContentItemGeneratesID(t *testing.T) {
	store := &fakeGraphStore{}
	rec := invokeContentHandler(t, store, `{"text":"X and Y"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(store.saved) != 1 || store.saved[0].ID == "" {
		t.Error("saved item missing a generated id")
	}
	if store.saved[0].Timestamp.IsZero() {
		t.Error("saved item missing a default timestamp")
	}
}

func TestCreateContentItemMissingText(t *testing.T) {
	store := &fakeGraphStore{}
	rec := invokeContentHandler(t, store, `{"entity_ids":["X"]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(store.saved) != 0 {
		t.Error("invalid body reached the store")
	}
}

func TestCreateContentItemUnknownMention(t *testing.T) {
	store := &fakeGraphStore{saveErr: common.ErrEntityNotFound}
	rec := invokeContentHandler(t, store, `{"text":"X met Y","entity_ids":["ghost"]}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for an unknown mention", rec.Code)
	}
}
