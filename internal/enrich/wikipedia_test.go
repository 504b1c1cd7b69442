package enrich

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/internpipe/internpipe/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// roundTripFunc lets tests rewrite outgoing requests to hit a test server.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newTestEnricher redirects all Wikipedia traffic to srv.
func newTestEnricher(srv *httptest.Server) *WikipediaEnricher {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	return NewWikipediaEnricher("https://en.wikipedia.org/api/rest_v1", httpClient, limiter, nil, discardLogger())
}

func TestEnrichCompany_DirectSummaryHit(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"title":"Acme Corp","extract":"Acme Corp is a robotics company."}`))
	}))
	defer srv.Close()

	e := newTestEnricher(srv)
	info, err := e.EnrichCompany(context.Background(), "Acme Corp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/rest_v1/page/summary/Acme_Corp" {
		t.Errorf("path = %q", gotPath)
	}
	if info.WikiSummary != "Acme Corp is a robotics company." {
		t.Errorf("WikiSummary = %q", info.WikiSummary)
	}
	if info.Description != info.WikiSummary {
		t.Errorf("Description = %q, should mirror summary", info.Description)
	}
	if len(info.Sources) != 1 || info.Sources[0] != "wikipedia" {
		t.Errorf("Sources = %v, want [wikipedia]", info.Sources)
	}
}

func TestEnrichCompany_SearchFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/w/api.php":
			if r.URL.Query().Get("srsearch") != "Acme" {
				t.Errorf("srsearch = %q", r.URL.Query().Get("srsearch"))
			}
			w.Write([]byte(`{"query":{"search":[{"title":"Acme Corporation"}]}}`))
		case strings.HasSuffix(r.URL.Path, "/page/summary/Acme_Corporation"):
			w.Write([]byte(`{"title":"Acme Corporation","extract":"Acme Corporation makes everything."}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := newTestEnricher(srv)
	info, err := e.EnrichCompany(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.WikiSummary != "Acme Corporation makes everything." {
		t.Errorf("WikiSummary = %q", info.WikiSummary)
	}
}

func TestEnrichCompany_MissIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/w/api.php" {
			w.Write([]byte(`{"query":{"search":[]}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := newTestEnricher(srv)
	info, err := e.EnrichCompany(context.Background(), "No Such Company")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "No Such Company" {
		t.Errorf("Name = %q", info.Name)
	}
	if len(info.Sources) != 0 {
		t.Errorf("Sources = %v, want empty on miss", info.Sources)
	}
}

func TestEnrichCompany_CachesResults(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"title":"Globex","extract":"Globex summary."}`))
	}))
	defer srv.Close()

	e := newTestEnricher(srv)
	ctx := context.Background()

	first, err := e.EnrichCompany(ctx, "Globex")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := e.EnrichCompany(ctx, "Globex")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (second call cached)", requests)
	}
	if first != second {
		t.Error("expected cached pointer on second call")
	}
	if e.CacheSize() != 1 {
		t.Errorf("CacheSize = %d, want 1", e.CacheSize())
	}

	e.ClearCache()
	if e.CacheSize() != 0 {
		t.Errorf("CacheSize after clear = %d, want 0", e.CacheSize())
	}
	if _, err := e.EnrichCompany(ctx, "Globex"); err != nil {
		t.Fatalf("post-clear call: %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 after cache clear", requests)
	}
}

// stubProfiler fills fixed fields so tests can observe the augmentation step.
type stubProfiler struct {
	industry string
	err      error
}

func (p *stubProfiler) Profile(_ context.Context, info *model.CompanyInfo) error {
	if p.err != nil {
		return p.err
	}
	info.Industry = p.industry
	info.Sources = append(info.Sources, "llm")
	return nil
}

func TestEnrichCompany_ProfilerAugments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"Initech","extract":"Initech is a software company."}`))
	}))
	defer srv.Close()

	e := newTestEnricher(srv)
	e.profiler = &stubProfiler{industry: "Software"}

	info, err := e.EnrichCompany(context.Background(), "Initech")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Industry != "Software" {
		t.Errorf("Industry = %q, want Software", info.Industry)
	}
	if len(info.Sources) != 2 {
		t.Errorf("Sources = %v, want wikipedia + llm", info.Sources)
	}
}
