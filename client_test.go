package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// fakeTreeServer is an in-memory tree server with the endpoints the client
// uses. It records every request.
type fakeTreeServer struct {
	mu         sync.Mutex
	requests   []*http.Request
	bodies     []string
	requestIDs []string
	draws      int
}

func (s *fakeTreeServer) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)
	s.bodies = append(s.bodies, string(body))
	s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-Id"))
}

func (s *fakeTreeServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *fakeTreeServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.record(r)
			next.ServeHTTP(w, r)
		})
	})
	r.Route("/trees", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"message": "ok", "id": 42})
		})
		r.Route("/{id}", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if chi.URLParam(r, "id") != "t1" {
						w.WriteHeader(http.StatusNotFound)
						writeJSON(w, map[string]string{"message": "unknown tree"})
						return
					}
					next.ServeHTTP(w, r)
				})
			})
			r.Get("/draw", func(w http.ResponseWriter, r *http.Request) {
				s.mu.Lock()
				s.draws++
				s.mu.Unlock()
				w.Write([]byte(`[["box",[0,0,10,10],"root",{},[]],["line",[0,5],[10,5]],["bogus"]]`))
			})
			r.Get("/size", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, TreeSize{Width: 12.5, Height: 40})
			})
			r.Get("/nodecount", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]int{"tnodes": 7, "tleaves": 4})
			})
			r.Get("/newick", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, "((a,b),c);")
			})
			r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("text") == "bad(" {
					w.WriteHeader(http.StatusBadRequest)
					writeJSON(w, map[string]string{"message": "invalid expression"})
					return
				}
				writeJSON(w, SearchResult{Message: "ok", NResults: 3, NParents: 1})
			})
			r.Get("/remove_search", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]string{"message": "ok"})
			})
			r.Get("/selections", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, []string{"primates"})
			})
			r.Put("/{command}", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]string{"message": chi.URLParam(r, "command") + " applied"})
			})
		})
	})
	return r
}

func newFakeServer(t *testing.T) (*fakeTreeServer, *Client) {
	t.Helper()
	fake := &fakeTreeServer{}
	srv := httptest.NewServer(fake.router())
	t.Cleanup(srv.Close)
	return fake, NewClient(srv.URL+"/", 5*time.Second)
}

func TestClientTreeInfo(t *testing.T) {
	_, client := newFakeServer(t)
	ctx := context.Background()

	size, err := client.Size(ctx, "t1")
	if err != nil || size != (TreeSize{12.5, 40}) {
		t.Errorf("size = %v, %v", size, err)
	}
	count, err := client.NodeCount(ctx, "t1")
	if err != nil || count.Nodes != 7 || count.Leaves != 4 {
		t.Errorf("count = %v, %v", count, err)
	}
	newick, err := client.Newick(ctx, "t1")
	if err != nil || newick != "((a,b),c);" {
		t.Errorf("newick = %q, %v", newick, err)
	}
	names, err := client.Selections(ctx, "t1")
	if err != nil || len(names) != 1 || names[0] != "primates" {
		t.Errorf("selections = %v, %v", names, err)
	}
}

func TestClientDrawSkipsBadItems(t *testing.T) {
	fake, client := newFakeServer(t)
	v := newViewState(ShapeRectangular)
	items, err := client.Draw(context.Background(), "t1", drawQuery(v, point{100, 100}))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
	q := fake.requests[0].URL.Query()
	if q.Get("w") != "100" || q.Get("shape") != "rectangular" {
		t.Errorf("draw query = %v", q)
	}
}

func TestClientRequestIDs(t *testing.T) {
	fake, client := newFakeServer(t)
	ctx := context.Background()
	client.Size(ctx, "t1")
	client.Size(ctx, "t1")
	if len(fake.requestIDs) != 2 {
		t.Fatalf("got %d requests", len(fake.requestIDs))
	}
	for _, id := range fake.requestIDs {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("X-Request-Id %q is not a uuid: %v", id, err)
		}
	}
	if fake.requestIDs[0] == fake.requestIDs[1] {
		t.Error("request ids repeat")
	}
}

func TestClientServerError(t *testing.T) {
	_, client := newFakeServer(t)
	_, err := client.Size(context.Background(), "missing")
	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want ServerError", err)
	}
	if serr.Status != http.StatusNotFound || serr.Message != "unknown tree" {
		t.Errorf("server error = %+v", serr)
	}
}

func TestClientSearch(t *testing.T) {
	fake, client := newFakeServer(t)
	ctx := context.Background()

	if _, err := client.Search(ctx, "t1", "  "); !errors.Is(err, ErrEmptySearch) {
		t.Errorf("empty search err = %v", err)
	}
	if fake.count() != 0 {
		t.Error("empty search reached the server")
	}

	res, err := client.Search(ctx, "t1", "name=='a'")
	if err != nil || res.NResults != 3 || res.NParents != 1 {
		t.Errorf("search = %+v, %v", res, err)
	}
	if got := fake.requests[0].URL.Query().Get("text"); got != "name=='a'" {
		t.Errorf("search text sent as %q", got)
	}

	_, err = client.Search(ctx, "t1", "bad(")
	var serr *ServerError
	if !errors.As(err, &serr) || serr.Message != "invalid expression" {
		t.Errorf("bad search err = %v", err)
	}

	if err := client.RemoveSearch(ctx, "t1", ""); err != nil {
		t.Error(err)
	}
	if q := fake.requests[len(fake.requests)-1].URL.Query(); q.Has("text") {
		t.Errorf("remove all sent text %q", q.Get("text"))
	}
}

func TestClientCommand(t *testing.T) {
	fake, client := newFakeServer(t)
	msg, err := client.Command(context.Background(), "t1", CommandRootAt, nodeParams(CommandRootAt, []int{0, 2})...)
	if err != nil {
		t.Fatal(err)
	}
	if msg != "root_at applied" {
		t.Errorf("message = %q", msg)
	}
	req := fake.requests[0]
	if req.Method != http.MethodPut || req.URL.Path != "/trees/t1/root_at" {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
	if fake.bodies[0] != "[0,2]" {
		t.Errorf("body = %s", fake.bodies[0])
	}

	client.Command(context.Background(), "t1", CommandSort, nodeParams(CommandSort, []int{1})...)
	if fake.bodies[1] != `[[1],"name",false]` {
		t.Errorf("sort body = %s", fake.bodies[1])
	}

	client.Command(context.Background(), "t1", "unroot")
	if fake.bodies[2] != "[]" {
		t.Errorf("no-param body = %s", fake.bodies[2])
	}
}

func TestClientUpload(t *testing.T) {
	fake, client := newFakeServer(t)
	ctx := context.Background()

	if _, err := client.Upload(ctx, "big", strings.Repeat("(", maxUploadBytes+1)); !errors.Is(err, ErrUploadTooLarge) {
		t.Errorf("big upload err = %v", err)
	}
	if _, err := client.Upload(ctx, "empty", " \n"); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("empty upload err = %v", err)
	}
	if fake.count() != 0 {
		t.Fatal("rejected uploads reached the server")
	}

	id, err := client.Upload(ctx, "small", "(a,b);")
	if err != nil || id != "42" {
		t.Errorf("upload = %q, %v", id, err)
	}
	var body uploadRequest
	if err := json.Unmarshal([]byte(fake.bodies[0]), &body); err != nil || body.Name != "small" || body.Newick != "(a,b);" {
		t.Errorf("upload body = %s", fake.bodies[0])
	}
}

func TestFetchSceneOverHTTP(t *testing.T) {
	fake, client := newFakeServer(t)
	var p pipeline
	v := newViewState(ShapeRectangular)
	v.Zoom = point{10, 10}
	msg := fetchScene(context.Background(), client, "t1", p.request(v, point{200, 200}), testOptions())
	if msg.err != nil {
		t.Fatal(msg.err)
	}
	if msg.scene.Nodes != 1 || len(msg.scene.Items) != 2 || fake.draws != 1 {
		t.Errorf("nodes %d items %d draws %d", msg.scene.Nodes, len(msg.scene.Items), fake.draws)
	}
}
