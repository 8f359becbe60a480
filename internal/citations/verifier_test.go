package citations

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
)

func noSleep(t *testing.T) {
	t.Helper()
	orig := sleepFunc
	sleepFunc = func(time.Duration) {}
	t.Cleanup(func() { sleepFunc = orig })
}

func testConfig() model.CitationsConfig {
	return model.CitationsConfig{
		Timeout:       5 * time.Second,
		Workers:       2,
		RatePerSecond: 1000,
		RateBurst:     1000,
		UserAgent:     "hrec-test/1.0",
	}
}

func loadDataset(t *testing.T, content string) *store.Dataset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write store: %v", err)
	}
	ds, err := store.Load(path, model.ColName)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	return ds
}

func TestVerifyStore_ReportsLiveDeadAndShared(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		switch r.URL.Path {
		case "/live":
			w.WriteHeader(http.StatusOK)
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	ds := loadDataset(t,
		"Hebrew Name,Citation URLs\n"+
			"כרמל גת,"+srv.URL+"/live; "+srv.URL+"/gone\n"+
			"דנה לוי,"+srv.URL+"/live\n")

	report := NewVerifier(testConfig()).VerifyStore(context.Background(), ds)

	if report.URLsChecked != 2 {
		t.Fatalf("Expected 2 distinct URLs checked, got %d", report.URLsChecked)
	}
	if report.Dead != 1 {
		t.Errorf("Expected 1 dead URL, got %d", report.Dead)
	}
	if report.RunID == "" {
		t.Error("Expected a run ID")
	}

	// First-appearance order, with the shared URL attributed to both records.
	first := report.Results[0]
	if first.URL != srv.URL+"/live" {
		t.Errorf("Expected first-seen URL first, got %q", first.URL)
	}
	if !first.IsAccessible {
		t.Error("Live URL should be accessible")
	}
	if len(first.Records) != 2 {
		t.Errorf("Expected shared URL cited by 2 records, got %v", first.Records)
	}
	if !report.Results[1].IsDead {
		t.Error("404 URL should be dead")
	}
}

func TestVerifyStore_MoreURLsThanPoolBuffers(t *testing.T) {
	// The worker pool buffers 2x workers on each side; a store with a few
	// hundred citations must still drain.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var b strings.Builder
	b.WriteString("Hebrew Name,Citation URLs\n")
	const urls = 60
	for i := 0; i < urls; i++ {
		fmt.Fprintf(&b, "רשומה %d,%s/article-%d\n", i, srv.URL, i)
	}
	ds := loadDataset(t, b.String())

	cfg := testConfig()
	cfg.Workers = 4

	done := make(chan *model.CitationReport, 1)
	go func() {
		done <- NewVerifier(cfg).VerifyStore(context.Background(), ds)
	}()

	select {
	case report := <-done:
		if report.URLsChecked != urls {
			t.Errorf("Expected %d URLs checked, got %d", urls, report.URLsChecked)
		}
		if report.Dead != 0 {
			t.Errorf("Expected no dead URLs, got %d", report.Dead)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("VerifyStore hung on a store with more citations than the pool buffers")
	}
}

func TestVerifyStore_EmptyStore(t *testing.T) {
	ds := loadDataset(t, "Hebrew Name,Citation URLs\nכרמל גת,\n")
	report := NewVerifier(testConfig()).VerifyStore(context.Background(), ds)
	if report.URLsChecked != 0 || len(report.Results) != 0 {
		t.Errorf("Expected empty report, got %+v", report)
	}
}

func TestCheckWithRetry_RecoversAfterServerErrors(t *testing.T) {
	noSleep(t)

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewVerifier(testConfig())
	result := v.checkWithRetry(context.Background(), srv.URL+"/article")

	if !result.IsAccessible {
		t.Errorf("Expected success after retries, got %+v", result)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestCheckWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	noSleep(t)

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	v := NewVerifier(testConfig())
	result := v.checkWithRetry(context.Background(), srv.URL+"/article")

	if result.IsAccessible {
		t.Error("Expected failure")
	}
	if calls.Load() != maxRetries {
		t.Errorf("Expected %d attempts, got %d", maxRetries, calls.Load())
	}
}

func TestCheckOnce_NoRetryOn404(t *testing.T) {
	noSleep(t)

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v := NewVerifier(testConfig())
	result := v.checkWithRetry(context.Background(), srv.URL+"/article")

	if !result.IsDead {
		t.Error("Expected dead result for 404")
	}
	if calls.Load() != 1 {
		t.Errorf("404 is permanent, expected 1 attempt, got %d", calls.Load())
	}
}

func TestCheckOnce_RedirectCapIsRedirectedNotDead(t *testing.T) {
	// The page never stops redirecting, but it answers: it must surface as
	// redirected, not as a dead link.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hop", http.StatusFound)
	}))
	defer srv.Close()

	v := NewVerifier(testConfig())
	result := v.checkOnce(context.Background(), srv.URL+"/start")

	if result.IsDead {
		t.Error("Redirect cap must not mark the URL dead")
	}
	if result.RedirectURL == "" {
		t.Error("Expected the unfollowed redirect target recorded")
	}
	if !strings.Contains(result.Error, "redirect") {
		t.Errorf("Expected the redirect cap noted, got %q", result.Error)
	}
}

func TestCheckOnce_DetectsRedirectAndStaleness(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		case "/new":
			w.Header().Set("Last-Modified", time.Now().Add(-2*365*24*time.Hour).UTC().Format(time.RFC1123))
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	v := NewVerifier(testConfig())
	result := v.checkOnce(context.Background(), srv.URL+"/old")

	if result.RedirectURL != srv.URL+"/new" {
		t.Errorf("Expected redirect target recorded, got %q", result.RedirectURL)
	}
	if !result.IsStale {
		t.Error("Two-year-old Last-Modified should flag staleness")
	}
	if !result.IsAccessible {
		t.Error("Redirected-but-resolving URL is accessible")
	}
}

func TestCheckURL_CachesResults(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.CacheEnabled = true
	cfg.CacheDir = t.TempDir()
	cfg.CacheTTL = time.Hour
	v := NewVerifier(cfg)

	url := srv.URL + "/article"
	first := v.checkURL(context.Background(), url)
	second := v.checkURL(context.Background(), url)

	if !first.IsAccessible || !second.IsAccessible {
		t.Fatalf("Expected both checks accessible: %+v / %+v", first, second)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected the second check served from cache, got %d requests", calls.Load())
	}
}

func TestCheckOnce_UnreachableHostIsDead(t *testing.T) {
	noSleep(t)

	// A closed server refuses connections immediately.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL + "/article"
	srv.Close()

	v := NewVerifier(testConfig())
	result := v.checkWithRetry(context.Background(), url)

	if !result.IsDead {
		t.Errorf("Expected dead result for unreachable host, got %+v", result)
	}
	if result.Error == "" {
		t.Error("Expected transport error recorded")
	}
}
