package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/okhara/roleauth/role"
	"github.com/okhara/roleauth/session"
)

// Each slot models one client's single-record session slot under its own
// key prefix. The phases measure record encode+save, load+verify, and
// clear throughput against the store.
func main() {
	var (
		slots       = flag.Int("slots", 10000, "number of session slots to exercise")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (load + save)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "ras", "session key prefix base")
	)
	flag.Parse()

	if *slots <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "slots, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	signingKey := []byte("roleauth-loadtest-signing-key-32b!!!")

	stores := make([]*session.Store, *slots)
	for i := range stores {
		s, err := session.NewStore(client, fmt.Sprintf("%s:%d", *prefix, i), signingKey, 24*time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "store init failed: %v\n", err)
			os.Exit(1)
		}
		stores[i] = s
	}

	fmt.Printf("seeding %d slots...\n", *slots)
	startSeed := time.Now()
	for i, s := range stores {
		if err := s.Save(ctx, buildRecord(i)); err != nil {
			fmt.Fprintf(os.Stderr, "seed save failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loadStats := runPhase(ctx, stores, *ops, *concurrency, func(ctx context.Context, s *session.Store, i int) error {
		rec, err := s.Load(ctx)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("slot empty")
		}
		return nil
	})

	saveStats := runPhase(ctx, stores, *ops, *concurrency, func(ctx context.Context, s *session.Store, i int) error {
		return s.Save(ctx, buildRecord(i))
	})

	fmt.Println("---- results ----")
	printStats("load", loadStats)
	printStats("save", saveStats)
}

func runPhase(ctx context.Context, stores []*session.Store, ops, concurrency int, op func(context.Context, *session.Store, int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(stores))
				t0 := time.Now()
				err := op(ctx, stores[idx], i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildRecord(i int) *session.Record {
	roles := role.All()
	return &session.Record{
		ID:        fmt.Sprintf("u-%d", i),
		Name:      fmt.Sprintf("Load User %d", i),
		Email:     fmt.Sprintf("load-%d@example.com", i),
		Role:      roles[i%len(roles)],
		CreatedAt: time.Now().Unix(),
	}
}
