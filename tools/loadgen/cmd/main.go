// Package main provides the CLI entry point for the loyalty API load generator.
package main

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fleetrent/tools/loadgen/internal/pool"
)

// CLI flags
var (
	baseURL     string
	username    string
	password    string
	duration    time.Duration
	concurrency int
	programs    int
	customers   int
	verbose     bool
)

func init() {
	flag.StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL of the FleetRent backend")
	flag.StringVar(&username, "username", "admin", "Admin username used for seeding and authenticated calls")
	flag.StringVar(&password, "password", "", "Admin password")
	flag.DurationVar(&duration, "duration", time.Minute, "Test duration (e.g. 5m, 1h)")
	flag.DurationVar(&duration, "d", time.Minute, "Test duration (shorthand)")
	flag.IntVar(&concurrency, "concurrency", 8, "Number of concurrent workers")
	flag.IntVar(&programs, "programs", 2, "Number of loyalty programs to seed")
	flag.IntVar(&customers, "customers", 50, "Number of customers to enroll per program")
	flag.BoolVar(&verbose, "verbose", false, "Log every failed request")
	flag.BoolVar(&verbose, "v", false, "Log every failed request (shorthand)")
}

func main() {
	flag.Parse()

	if password == "" {
		fmt.Fprintln(os.Stderr, "error: -password is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := newGenerator()
	defer gen.pool.Close()

	if err := gen.login(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}
	if err := gen.seed(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded %d programs, %d memberships; running for %s with %d workers\n",
		programs, programs*customers, duration, concurrency)

	gen.run(ctx)
	gen.report()
}

// generator drives traffic against the loyalty API, harvesting IDs from
// responses into a parameter pool and drawing request parameters back out
// of it.
type generator struct {
	client *http.Client
	pool   pool.ParameterPool
	token  string

	requests atomic.Int64
	failures atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
}

func newGenerator() *generator {
	cfg := pool.DefaultPoolConfig()
	cfg.DefaultTTL = 0 // seeded IDs stay valid for the whole run
	return &generator{
		client: &http.Client{Timeout: 10 * time.Second},
		pool:   pool.NewShardedParameterPool(cfg),
	}
}

func (g *generator) login(ctx context.Context) error {
	var out struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	err := g.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return err
	}
	if out.Token.AccessToken == "" {
		return fmt.Errorf("login response carried no access token")
	}
	g.token = out.Token.AccessToken
	return nil
}

// seed creates programs and enrolls synthetic customers, filling the pool
// with IDs the workers will sample.
func (g *generator) seed(ctx context.Context) error {
	for i := 0; i < programs; i++ {
		var created struct {
			ID string `json:"id"`
		}
		err := g.do(ctx, http.MethodPost, "/api/v1/loyalty/programs", map[string]any{
			"name":                     fmt.Sprintf("Load Test Program %d %d", i, time.Now().UnixNano()),
			"points_per_currency_unit": "1",
			"tiers": []map[string]any{
				{"name": "Bronze", "minimum_points": 0},
				{"name": "Silver", "minimum_points": 1000},
				{"name": "Gold", "minimum_points": 5000},
			},
			"redemption_rules": []map[string]any{
				{"points_required": 100, "reward_description": "10 off", "monetary_value": "10"},
			},
		}, &created)
		if err != nil {
			return fmt.Errorf("create program: %w", err)
		}
		if _, err := g.pool.Add(ctx, pool.NewParameterValue(created.ID, pool.SemanticTypeProgramID, 0)); err != nil {
			return err
		}

		for j := 0; j < customers; j++ {
			customerID := randomUUID()
			var membership struct {
				ID string `json:"id"`
			}
			err := g.do(ctx, http.MethodPost, "/api/v1/loyalty/memberships", map[string]any{
				"customer_id": customerID,
				"program_id":  created.ID,
			}, &membership)
			if err != nil {
				return fmt.Errorf("enroll customer: %w", err)
			}
			if _, err := g.pool.Add(ctx, pool.NewParameterValue(customerID, pool.SemanticTypeCustomerID, 0)); err != nil {
				return err
			}
			if _, err := g.pool.Add(ctx, pool.NewParameterValue(membership.ID, pool.SemanticTypeMembershipID, 0)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generator) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				g.fire(ctx, rng)
			}
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()
}

// fire issues one randomly chosen operation. The mix leans towards reads
// the way real loyalty traffic does.
func (g *generator) fire(ctx context.Context, rng *rand.Rand) {
	switch n := rng.Intn(100); {
	case n < 25: // earn points
		membershipID, ok := g.randomValue(ctx, pool.SemanticTypeMembershipID)
		if !ok {
			return
		}
		g.timed(ctx, http.MethodPost, "/api/v1/loyalty/memberships/"+membershipID+"/transactions", map[string]any{
			"type":        "EARN",
			"points":      int64(rng.Intn(500) + 1),
			"source_type": "MANUAL",
			"description": "load test earn",
		})
	case n < 40: // redemption check
		customerID, ok1 := g.randomValue(ctx, pool.SemanticTypeCustomerID)
		programID, ok2 := g.randomValue(ctx, pool.SemanticTypeProgramID)
		if !ok1 || !ok2 {
			return
		}
		g.timed(ctx, http.MethodPost, "/api/v1/loyalty/redemptions/check", map[string]any{
			"customer_id": customerID,
			"program_id":  programID,
			"points":      100,
		})
	case n < 70: // transaction history
		membershipID, ok := g.randomValue(ctx, pool.SemanticTypeMembershipID)
		if !ok {
			return
		}
		g.timed(ctx, http.MethodGet, "/api/v1/loyalty/memberships/"+membershipID+"/transactions?page=1&page_size=20", nil)
	case n < 90: // program detail
		programID, ok := g.randomValue(ctx, pool.SemanticTypeProgramID)
		if !ok {
			return
		}
		g.timed(ctx, http.MethodGet, "/api/v1/loyalty/programs/"+programID, nil)
	default: // program statistics
		programID, ok := g.randomValue(ctx, pool.SemanticTypeProgramID)
		if !ok {
			return
		}
		g.timed(ctx, http.MethodGet, "/api/v1/loyalty/programs/"+programID+"/statistics", nil)
	}
}

func (g *generator) randomValue(ctx context.Context, st pool.SemanticType) (string, bool) {
	pv, err := g.pool.GetRandom(ctx, st)
	if err != nil || pv == nil {
		return "", false
	}
	s, ok := pv.Value.(string)
	return s, ok
}

func (g *generator) timed(ctx context.Context, method, path string, body map[string]any) {
	start := time.Now()
	err := g.do(ctx, method, path, body, nil)
	elapsed := time.Since(start)

	g.requests.Add(1)
	g.mu.Lock()
	g.latencies = append(g.latencies, elapsed)
	g.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		g.failures.Add(1)
		if verbose {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", method, path, err)
		}
	}
}

// do issues a request and decodes the envelope's data field into out.
func (g *generator) do(ctx context.Context, method, path string, body map[string]any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("HTTP %d: %w", resp.StatusCode, err)
	}
	if !envelope.Success {
		if envelope.Error != nil {
			return fmt.Errorf("HTTP %d: %s: %s", resp.StatusCode, envelope.Error.Code, envelope.Error.Message)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if out != nil {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}

func (g *generator) report() {
	total := g.requests.Load()
	failed := g.failures.Load()

	g.mu.Lock()
	latencies := g.latencies
	g.mu.Unlock()
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Printf("\nrequests:  %d\n", total)
	fmt.Printf("failures:  %d\n", failed)
	if total > 0 {
		fmt.Printf("error rate: %.2f%%\n", float64(failed)/float64(total)*100)
		fmt.Printf("throughput: %.1f req/s\n", float64(total)/duration.Seconds())
	}
	if len(latencies) > 0 {
		fmt.Printf("latency p50: %s\n", percentile(latencies, 0.50))
		fmt.Printf("latency p95: %s\n", percentile(latencies, 0.95))
		fmt.Printf("latency p99: %s\n", percentile(latencies, 0.99))
	}

	if stats, err := g.pool.Stats(context.Background()); err == nil {
		fmt.Printf("pool values: %d (hit rate %.1f%%)\n", stats.TotalValues, stats.HitRate())
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// randomUUID returns a random version 4 UUID string.
func randomUUID() string {
	var b [16]byte
	_, _ = crand.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
