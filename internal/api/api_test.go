package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/torlist/internal/admission"
	"github.com/starford/torlist/internal/denylist"
	"github.com/starford/torlist/internal/directory"
	"github.com/starford/torlist/internal/models"
	"github.com/starford/torlist/internal/sigverify"
	"github.com/starford/torlist/internal/sse"
	"github.com/starford/torlist/internal/testutil"
)

// testEnv wires real services over a temp log and a temp SQLite denylist.
// An empty authToken means the moderation guard is disabled.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	router, _ := testEnvWithDenylist(t, authToken)
	return router
}

func testEnvWithDenylist(t *testing.T, authToken string) (http.Handler, *denylist.Service) {
	t.Helper()
	store := testutil.TestLog(t)
	deny := denylist.NewService(testutil.TestDenylist(t), testutil.Logger(), denylist.Hooks{})
	router := NewRouter(Deps{
		Admission:   admission.NewService(store, sigverify.New(), testutil.Logger()),
		Directory:   directory.NewService(store, deny),
		Denylist:    deny,
		AuthEnabled: authToken != "",
		Token:       authToken,
	})
	return router, deny
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func signedListing(t *testing.T, entry, category string) map[string]any {
	t.Helper()
	s := testutil.NewSigner(t, "owner")
	return map[string]any{
		"entry":       entry,
		"description": "a site",
		"slpAddress":  s.Address,
		"signature":   s.Sign(t, entry),
		"category":    category,
	}
}

func submit(t *testing.T, h http.Handler, entry, category string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/entries", signedListing(t, entry, category), "")
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[SubmitListingResponse](t, w).Hash
}

func TestSubmitAndList(t *testing.T) {
	router := testEnv(t, "")

	id := submit(t, router, "  first.onion  ", "bch")
	if len(id) != 46 {
		t.Errorf("hash length = %d, want 46", len(id))
	}
	submit(t, router, "second.onion", "eth")

	w := do(t, router, http.MethodGet, "/entries", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	got := decode[ListingsResponse](t, w).Entries
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Identifier != id || got[0].Entry != "first.onion" {
		t.Errorf("first entry = %+v", got[0])
	}
	if !strings.Contains(w.Body.String(), `"slpAddress"`) || !strings.Contains(w.Body.String(), `"_id"`) {
		t.Errorf("wire keys missing from %s", w.Body.String())
	}
}

func TestListEmpty(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/entries", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"entries":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSubmit_ValidationErrors(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/entries", map[string]any{}, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty body = %d, want 422", w.Code)
	}
	if msg := decode[errResponse](t, w).Error; msg != "Property 'entry' must be a string!" {
		t.Errorf("message = %q", msg)
	}

	body := signedListing(t, "x.onion", "bch")
	body["description"] = 42
	w = do(t, router, http.MethodPost, "/entries", body, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("numeric description = %d, want 422", w.Code)
	}
	if msg := decode[errResponse](t, w).Error; msg != "Property 'description' must be a string!" {
		t.Errorf("message = %q", msg)
	}

	w = do(t, router, http.MethodPost, "/entries", signedListing(t, "x.onion", "pets"), "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad category = %d, want 422", w.Code)
	}

	w = do(t, router, http.MethodPost, "/entries", "not json", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed body = %d, want 422", w.Code)
	}
}

func TestSubmit_SignatureMismatch(t *testing.T) {
	router := testEnv(t, "")
	body := signedListing(t, "real.onion", "info")
	body["entry"] = "forged.onion"

	w := do(t, router, http.MethodPost, "/entries", body, "")
	if w.Code != http.StatusNotAcceptable {
		t.Fatalf("status = %d, want 406; body = %s", w.Code, w.Body.String())
	}

	list := do(t, router, http.MethodGet, "/entries", nil, "")
	if n := len(decode[ListingsResponse](t, list).Entries); n != 0 {
		t.Errorf("rejected listing is visible (%d entries)", n)
	}
}

func TestSubmit_KnownWalletSignature(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/entries", map[string]any{
		"entry":       "example.com",
		"description": "sample",
		"slpAddress":  "simpleledger:qp49th03gvjn58d6fxzaga6u09w4z56smyuk43lzkd",
		"signature":   "H1Bv2xUBGZBTuNsUghix03Yp8n8YPPkfsPq6LktwDpC2e1estOfYx96NH3/eaHJpQpPSHSb6pQYaiR3KZ6Z9lRc=",
		"category":    "info",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestListByCategory(t *testing.T) {
	router := testEnv(t, "")
	submit(t, router, "a.onion", "bch")
	submit(t, router, "b.onion", "ipfs")

	w := do(t, router, http.MethodGet, "/entries/c/ipfs", nil, "")
	got := decode[ListingsResponse](t, w).Entries
	if len(got) != 1 || got[0].Category != models.CategoryIPFS {
		t.Errorf("ipfs = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/entries/c/unknown", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("unknown category status = %d", w.Code)
	}
	if n := len(decode[ListingsResponse](t, w).Entries); n != 0 {
		t.Errorf("unknown category entries = %d", n)
	}
}

func TestDenylistHidesAndRestores(t *testing.T) {
	router := testEnv(t, "")
	hidden := submit(t, router, "bad.onion", "info")
	kept := submit(t, router, "good.onion", "info")

	w := do(t, router, http.MethodPost, "/blacklist", map[string]string{"hash": hidden, "reason": "spam"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[DenylistEntryResponse](t, w)
	if created.Message != "Site added to the blacklist" || created.Entry.Hash != hidden {
		t.Errorf("create = %+v", created)
	}

	for _, path := range []string{"/entries", "/entries/c/info"} {
		got := decode[ListingsResponse](t, do(t, router, http.MethodGet, path, nil, "")).Entries
		if len(got) != 1 || got[0].Identifier != kept {
			t.Errorf("%s = %+v", path, got)
		}
	}

	w = do(t, router, http.MethodDelete, "/blacklist/"+hidden, nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("delete = %d %s", w.Code, w.Body.String())
	}
	got := decode[ListingsResponse](t, do(t, router, http.MethodGet, "/entries", nil, "")).Entries
	if len(got) != 2 {
		t.Errorf("after delete entries = %d, want 2", len(got))
	}
}

func TestDenylistCRUD(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/blacklist", map[string]string{"hash": "abc", "reason": "spam"}, "")
	id := decode[DenylistEntryResponse](t, w).Entry.ID

	w = do(t, router, http.MethodGet, "/blacklist", nil, "")
	if list := decode[DenylistListResponse](t, w).Blacklist; len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	// Lookup by hash and by id.
	for _, key := range []string{"abc", id} {
		w = do(t, router, http.MethodGet, "/blacklist/"+key, nil, "")
		if w.Code != http.StatusOK {
			t.Fatalf("get %s = %d", key, w.Code)
		}
		if e := decode[DenylistEntryResponse](t, w).Entry; e.ID != id {
			t.Errorf("get %s = %+v", key, e)
		}
	}

	w = do(t, router, http.MethodPut, "/blacklist/"+id, map[string]string{"reason": "not a real site"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d %s", w.Code, w.Body.String())
	}
	updated := decode[DenylistEntryResponse](t, w)
	if updated.Message != "Entry successfully updated" || updated.Entry.Reason != "not a real site" || updated.Entry.Hash != "abc" {
		t.Errorf("update = %+v", updated)
	}

	w = do(t, router, http.MethodPut, "/blacklist/abc", map[string]any{"reason": 7}, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("numeric reason = %d, want 422", w.Code)
	}
	w = do(t, router, http.MethodPut, "/blacklist/abc", map[string]any{"hash": ""}, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty hash = %d, want 422", w.Code)
	}
}

func TestDenylist_CreateValidation(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/blacklist", map[string]any{"hash": 5, "reason": "x"}, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decode[errResponse](t, w).Error; msg != "Property 'hash' must be a string!" {
		t.Errorf("message = %q", msg)
	}
}

func TestDenylist_NotFound(t *testing.T) {
	router := testEnv(t, "")
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := do(t, router, method, "/blacklist/does-not-exist", map[string]string{"reason": "x"}, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s = %d, want 404", method, w.Code)
		}
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := do(t, router, http.MethodPost, "/blacklist", map[string]string{"hash": "h", "reason": "r"}, "secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed create = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingOrWrongToken(t *testing.T) {
	router := testEnv(t, "secret123")
	for _, tok := range []string{"", "wrong"} {
		w := do(t, router, http.MethodPost, "/blacklist", map[string]string{"hash": "h", "reason": "r"}, tok)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("token %q = %d, want 401", tok, w.Code)
		}
	}
}

func TestAuthMiddleware_PrecedesNotFoundAndValidation(t *testing.T) {
	router := testEnv(t, "tok")
	if w := do(t, router, http.MethodPut, "/blacklist/missing", map[string]any{"reason": 1}, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("PUT = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/blacklist/missing", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("DELETE = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/blacklist", map[string]any{}, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("POST = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_ReadsArePublic(t *testing.T) {
	router, deny := testEnvWithDenylist(t, "tok")
	_, _ = deny.Create(context.Background(), denylist.Draft{Hash: "h", Reason: "r"})

	for _, path := range []string{"/entries", "/blacklist", "/blacklist/h"} {
		if w := do(t, router, http.MethodGet, path, nil, ""); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
	if w := do(t, router, http.MethodPost, "/entries", signedListing(t, "pub.onion", "bch"), ""); w.Code != http.StatusOK {
		t.Errorf("public submit = %d", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/blacklist", map[string]string{"hash": "h", "reason": "r"}, "")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestEventsMounted(t *testing.T) {
	broker := sse.NewBroker(time.Second)
	defer broker.Close()
	router := NewRouter(Deps{Events: broker})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if w.Code != http.StatusOK {
		t.Errorf("events status = %d", w.Code)
	}
}
