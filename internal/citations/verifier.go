package citations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/raolev/hostage-records/internal/cache"
	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
	"github.com/raolev/hostage-records/internal/util"
	"github.com/raolev/hostage-records/internal/worker"
)

const maxRetries = 3

// sleepFunc is the backoff sleep, injectable for tests
var sleepFunc = time.Sleep

// errRedirectCap marks a chain longer than the client follows. The URL may
// still be alive, so it is reported as redirected, never as dead.
var errRedirectCap = errors.New("stopped after 3 redirects")

// Verifier checks every distinct citation URL in the store with HEAD
// requests: concurrent workers, per-domain rate limiting, retry with
// backoff on transient failures, and cached results between runs. It is a
// pure read-only consumer of the dataset.
type Verifier struct {
	httpClient *http.Client
	cfg        model.CitationsConfig
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	results    cache.Cache
}

// NewVerifier builds a verifier from config
func NewVerifier(cfg model.CitationsConfig) *Verifier {
	v := &Verifier{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return errRedirectCap
				}
				return nil
			},
		},
		cfg:     cfg,
		limiter: worker.NewLimiter(cfg.RatePerSecond, cfg.RateBurst),
	}
	if cfg.RespectRobots {
		v.robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	if cfg.CacheEnabled {
		memory := cache.NewMemory(cfg.CacheTTL, 10*time.Minute)
		var disk cache.Cache
		if cfg.CacheDir != "" {
			disk = cache.NewDisk(cfg.CacheDir, cfg.CacheTTL)
		}
		v.results = cache.NewLayered(memory, disk)
	}
	return v
}

// VerifyStore checks every distinct citation URL in the dataset and
// reports per-URL outcomes in first-appearance order.
func (v *Verifier) VerifyStore(ctx context.Context, ds *store.Dataset) *model.CitationReport {
	report := &model.CitationReport{
		RunID:     ulid.Make().String(),
		Store:     ds.Path,
		StartedAt: time.Now().UTC(),
	}

	var order []string
	citedBy := make(map[string][]string)
	for _, rec := range ds.Records {
		for _, url := range store.SplitCitations(rec.Get(model.ColCitations)) {
			if _, seen := citedBy[url]; !seen {
				order = append(order, url)
			}
			citedBy[url] = append(citedBy[url], rec.Key())
		}
	}
	if len(order) == 0 {
		return report
	}

	pool := worker.NewPool(v.cfg.Workers)
	pool.Start()
	// The batch is usually far larger than the pool's buffers, so results
	// must be drained while submission is still in flight.
	go func() {
		for _, url := range order {
			pool.Submit(&checkJob{verifier: v, url: url})
		}
		pool.Finish()
	}()
	byURL := make(map[string]model.CitationResult, len(order))
	for res := range pool.Results() {
		cr := res.(*checkResult)
		byURL[cr.result.URL] = cr.result
	}

	for _, url := range order {
		result := byURL[url]
		result.Records = citedBy[url]
		report.Results = append(report.Results, result)
		report.URLsChecked++
		if result.IsDead {
			report.Dead++
		}
		if result.RedirectURL != "" {
			report.Redirected++
		}
		if result.IsStale {
			report.Stale++
		}
	}
	return report
}

// checkJob verifies one URL on the pool
type checkJob struct {
	verifier *Verifier
	url      string
}

type checkResult struct {
	result model.CitationResult
}

func (r *checkResult) GetError() error { return nil }

func (j *checkJob) Execute(ctx context.Context) worker.Result {
	return &checkResult{result: j.verifier.checkURL(ctx, j.url)}
}

func (v *Verifier) checkURL(ctx context.Context, url string) model.CitationResult {
	if v.results != nil {
		if raw, ok := v.results.Get(cache.Key(url)); ok {
			var cached model.CitationResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached
			}
		}
	}

	if v.robots != nil {
		allowed, crawlDelay, err := v.robots.CanFetch(ctx, url)
		if err == nil && !allowed {
			return model.CitationResult{URL: url, Skipped: "robots.txt disallows"}
		}
		if crawlDelay > 0 {
			select {
			case <-ctx.Done():
				return model.CitationResult{URL: url, Error: "context cancelled"}
			case <-time.After(crawlDelay):
			}
		}
	}

	result := v.checkWithRetry(ctx, url)

	if v.results != nil && result.Error != "context cancelled" {
		if raw, err := json.Marshal(result); err == nil {
			_ = v.results.Set(cache.Key(url), raw, v.cfg.CacheTTL)
		}
	}
	return result
}

func (v *Verifier) checkWithRetry(ctx context.Context, url string) model.CitationResult {
	var result model.CitationResult
	for attempt := 0; attempt < maxRetries; attempt++ {
		result = v.checkOnce(ctx, url)
		if !isRetryable(result) {
			return result
		}
		if attempt < maxRetries-1 {
			sleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

func (v *Verifier) checkOnce(ctx context.Context, url string) model.CitationResult {
	result := model.CitationResult{URL: url}

	if err := v.limiter.Wait(ctx, url); err != nil {
		result.Error = fmt.Sprintf("rate limit wait: %v", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}
	req.Header.Set("User-Agent", v.cfg.UserAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, errRedirectCap) {
			// Do returns the last response alongside this error
			result.Error = "redirect chain longer than 3 hops, not followed"
			if resp != nil {
				_ = resp.Body.Close()
				result.StatusCode = resp.StatusCode
				result.RedirectURL = resp.Request.URL.String()
				if loc, lerr := resp.Location(); lerr == nil {
					result.RedirectURL = loc.String()
				}
			}
			return result
		}
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.IsAccessible = true
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		result.IsDead = true
	}

	if resp.Request.URL.String() != url {
		result.RedirectURL = resp.Request.URL.String()
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
			result.LastModified = &t
			if time.Since(t) > 365*24*time.Hour {
				result.IsStale = true
			}
		}
	}
	return result
}

func isRetryable(result model.CitationResult) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
