package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrypal/backend/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestCreateItem(t *testing.T) {
	var received domain.EnrichedItem
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/items", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 0)
	item := &domain.EnrichedItem{
		Barcode:  "5901234123457",
		Name:     "Whole Milk",
		Category: domain.CategoryDairy,
		Quantity: 2,
		Unit:     "l",
		Outcome:  domain.OutcomeFound,
	}

	require.NoError(t, client.CreateItem(context.Background(), item))
	assert.Equal(t, "5901234123457", received.Barcode)
	assert.Equal(t, 2.0, received.Quantity)
}

func TestCreateItem_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 2)
	err := client.CreateItem(context.Background(), &domain.EnrichedItem{Barcode: "1", Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCreateItem_RejectionSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 0)
	err := client.CreateItem(context.Background(), &domain.EnrichedItem{Barcode: "1", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInventoryFailure)
}

func TestFlattenNotes(t *testing.T) {
	p := &domain.Product{
		Barcode: "3017620422003",
		Name:    "Nutella",
		Brand:   "Ferrero",
		Outcome: domain.OutcomeFound,
		Nutrition: &domain.Nutrition{
			Calories:  f64(539),
			Sugar:     f64(56.3),
			Allergens: []string{"Milk", "Nuts"},
		},
	}

	notes := FlattenNotes(p, "opened jar, keep cool")
	assert.Equal(t,
		"opened jar, keep cool\nBarcode: 3017620422003 | Brand: Ferrero | Calories: 539/100g | Sugar: 56.3/100g | Allergens: Milk, Nuts",
		notes)
}

func TestFlattenNotes_DegradedRecord(t *testing.T) {
	p := domain.FallbackProduct("0000000000000", domain.OutcomeNotFound)
	assert.Equal(t, "Barcode: 0000000000000", FlattenNotes(p, ""))
}
