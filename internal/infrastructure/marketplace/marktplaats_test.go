package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslister/backend/internal/domain/listing"
)

// fakeMarktplaats is an httptest-backed stand-in for the advertisement API
type fakeMarktplaats struct {
	server     *httptest.Server
	tokenCalls atomic.Int32

	handler http.HandlerFunc
}

func newFakeMarktplaats(t *testing.T, handler http.HandlerFunc) *fakeMarktplaats {
	t.Helper()
	fake := &fakeMarktplaats{handler: handler}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		fake.tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		if r.Form.Get("client_id") != "client" || r.Form.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"bearer","expires_in":3600}`, fake.tokenCalls.Load())
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if fake.handler != nil {
			fake.handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func newTestMarktplaatsAdapter(t *testing.T, fake *fakeMarktplaats) *MarktplaatsAdapter {
	t.Helper()
	adapter, err := NewMarktplaatsAdapter(&MarktplaatsConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      fake.server.URL,
	}, nil)
	require.NoError(t, err)
	return adapter
}

func TestMarktplaatsAdapter_Authenticate(t *testing.T) {
	fake := newFakeMarktplaats(t, nil)
	adapter := newTestMarktplaatsAdapter(t, fake)

	err := adapter.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())

	// Subsequent requests reuse the held token instead of refetching
	_, err = adapter.CheckListingStatus(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
}

func TestMarktplaatsAdapter_AuthenticateBadCredentials(t *testing.T) {
	fake := newFakeMarktplaats(t, nil)
	adapter, err := NewMarktplaatsAdapter(&MarktplaatsConfig{
		ClientID:     "client",
		ClientSecret: "wrong",
		BaseURL:      fake.server.URL,
	}, nil)
	require.NoError(t, err)

	err = adapter.Authenticate(context.Background())
	assert.True(t, listing.IsAuthError(err))
}

func TestMarktplaatsAdapter_CreateListing(t *testing.T) {
	var gotAuth string
	var gotBody advertRequest

	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/advertisements", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"itemId":"m123","status":"ACTIVE"}`)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	id, err := adapter.CreateListing(context.Background(), listing.ListingDraft{
		Title: "Wool Jacket",
		Price: decimal.RequireFromString("42.50"),
		Brand: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "m123", id)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, int64(4250), gotBody.PriceModel.AskingPrice)
	assert.Contains(t, gotBody.Attributes, advertAttribute{Key: "brand", Value: "Acme"})
}

func TestMarktplaatsAdapter_CreateListingInvalidDraft(t *testing.T) {
	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an invalid draft")
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	_, err := adapter.CreateListing(context.Background(), listing.ListingDraft{})
	assert.Error(t, err)
	assert.False(t, listing.IsRetryable(err))
}

func TestMarktplaatsAdapter_UpdateListingGone(t *testing.T) {
	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	err := adapter.UpdateListing(context.Background(), "m404", listing.ListingDraft{
		Title: "Jacket",
		Price: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, listing.ErrListingNotFound)
}

func TestMarktplaatsAdapter_DeleteListingAlreadyGone(t *testing.T) {
	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	assert.NoError(t, adapter.DeleteListing(context.Background(), "m404"))
}

func TestMarktplaatsAdapter_MarkAsSold(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string

	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	require.NoError(t, adapter.MarkAsSold(context.Background(), "m123"))
	assert.Equal(t, "/v1/advertisements/m123/status", gotPath)
	assert.Equal(t, "SOLD", gotPayload["status"])
}

func TestMarktplaatsAdapter_ListActiveListingsPaging(t *testing.T) {
	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		w.Header().Set("Content-Type", "application/json")

		if offset == "0" {
			adverts := make([]string, 0, advertPageSize)
			for i := 0; i < advertPageSize; i++ {
				status := "ACTIVE"
				if i == 0 {
					status = "SOLD"
				}
				adverts = append(adverts,
					fmt.Sprintf(`{"itemId":"m%d","title":"Item %d","priceModel":{"askingPrice":1000},"status":%q}`, i, i, status))
			}
			fmt.Fprintf(w, `{"adverts":[%s],"paging":{"offset":0,"limit":%d,"total":%d}}`,
				joinJSON(adverts), advertPageSize, advertPageSize+1)
			return
		}
		fmt.Fprintf(w, `{"adverts":[{"itemId":"last","priceModel":{"askingPrice":2500},"status":"ACTIVE"}],"paging":{"offset":%d,"limit":%d,"total":%d}}`,
			advertPageSize, advertPageSize, advertPageSize+1)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	items, err := adapter.ListActiveListings(context.Background())
	require.NoError(t, err)
	// One sold item filtered out of the first page, one item on the second
	assert.Len(t, items, advertPageSize)
	last := items[len(items)-1]
	assert.Equal(t, "last", last.ExternalID)
	assert.True(t, decimal.RequireFromString("25").Equal(last.Price))
}

func TestMarktplaatsAdapter_CheckListingStatus(t *testing.T) {
	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"itemId":"m123","status":"SOLD"}`)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	status, err := adapter.CheckListingStatus(context.Background(), "m123")
	require.NoError(t, err)
	assert.Equal(t, listing.ExternalStatusSold, status)
}

func TestMarktplaatsAdapter_CheckListingStatusGone(t *testing.T) {
	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	status, err := adapter.CheckListingStatus(context.Background(), "m404")
	require.NoError(t, err)
	assert.Equal(t, listing.ExternalStatusDeleted, status)
}

func TestMarktplaatsAdapter_ServerErrorIsRetryable(t *testing.T) {
	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	_, err := adapter.CreateListing(context.Background(), listing.ListingDraft{
		Title: "Jacket",
		Price: decimal.NewFromInt(10),
	})
	assert.True(t, listing.IsRetryable(err))
}

func TestMarktplaatsAdapter_UnauthorizedDropsToken(t *testing.T) {
	var calls atomic.Int32
	fake := newFakeMarktplaats(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"itemId":"m9","status":"ACTIVE"}`)
	})
	adapter := newTestMarktplaatsAdapter(t, fake)

	draft := listing.ListingDraft{Title: "Jacket", Price: decimal.NewFromInt(10)}

	_, err := adapter.CreateListing(context.Background(), draft)
	assert.True(t, listing.IsAuthError(err))

	// The revoked token was dropped, so the next call re-authenticates
	id, err := adapter.CreateListing(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "m9", id)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
}

func TestMarktplaatsAdapter_GetSalesEmpty(t *testing.T) {
	fake := newFakeMarktplaats(t, nil)
	adapter := newTestMarktplaatsAdapter(t, fake)

	sales, err := adapter.GetSales(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestMarktplaatsConfig_Validate(t *testing.T) {
	cfg := &MarktplaatsConfig{ClientSecret: "secret"}
	assert.ErrorIs(t, cfg.Validate(), ErrMarktplaatsConfigMissingClientID)

	cfg = &MarktplaatsConfig{ClientID: "client"}
	assert.ErrorIs(t, cfg.Validate(), ErrMarktplaatsConfigMissingClientSecret)

	cfg = &MarktplaatsConfig{ClientID: "client", ClientSecret: "secret"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, MarktplaatsProductionURL, cfg.BaseURL)
	assert.Equal(t, defaultMarktplaatsTimeout, cfg.Timeout)
}

func joinJSON(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
