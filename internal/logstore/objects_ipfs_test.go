package logstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeIPFS serves the subset of the daemon API used by IPFSObjects.
type fakeIPFS struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeIPFS(t *testing.T) (*httptest.Server, *fakeIPFS) {
	t.Helper()
	f := &fakeIPFS{objects: make(map[string][]byte)}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/add", f.add)
	mux.HandleFunc("/api/v0/cat", f.cat)
	mux.HandleFunc("/api/v0/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Version":"0.0.0-fake","Commit":"","Repo":"15"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, f
}

func (f *fakeIPFS) add(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	part, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(part)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sum := sha256.Sum256(data)
	cid := "bafy" + hex.EncodeToString(sum[:8])

	f.mu.Lock()
	f.objects[cid] = data
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"Name": cid, "Hash": cid, "Size": "0"})
}

func (f *fakeIPFS) cat(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("arg")
	f.mu.Lock()
	data, ok := f.objects[cid]
	f.mu.Unlock()
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"Message":"block not found","Code":0,"Type":"error"}`))
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write(data)
}

func TestIPFSObjects_PutGet(t *testing.T) {
	srv, fake := newFakeIPFS(t)
	o := NewIPFSObjects(srv.URL, 0)
	ctx := context.Background()

	cid, err := o.Put(ctx, []byte(`{"_id":"abc"}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := fake.objects[cid]; !ok {
		t.Fatalf("daemon did not receive object %s", cid)
	}

	got, err := o.Get(ctx, cid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"_id":"abc"}` {
		t.Errorf("Get = %q", got)
	}
}

func TestIPFSObjects_GetMissing(t *testing.T) {
	srv, _ := newFakeIPFS(t)
	o := NewIPFSObjects(srv.URL, 0)
	if _, err := o.Get(context.Background(), "bafymissing"); err != ErrObjectNotFound {
		t.Errorf("err = %v, want ErrObjectNotFound", err)
	}
}

func TestIPFSObjects_BackingALog(t *testing.T) {
	srv, _ := newFakeIPFS(t)
	l, err := Open(t.TempDir(), NewIPFSObjects(srv.URL, 0), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_, _ = l.Append(ctx, Record{"_id": "1", "category": "ipfs"})
	_, _ = l.Append(ctx, Record{"_id": "2", "category": "info"})

	got, err := l.Query(ctx, func(r Record) bool { return r["category"] == "ipfs" })
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0]["_id"] != "1" {
		t.Errorf("Query = %v", got)
	}
}

func TestIPFSObjects_Alive(t *testing.T) {
	srv, _ := newFakeIPFS(t)
	if !NewIPFSObjects(srv.URL, 0).Alive() {
		t.Error("expected daemon to be up")
	}
}
