package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

var ErrInvalidBenchConfig = errors.New("[scenario] invalid bench config")

type BenchConfig struct {
	// Trees is the number of independent trees. Each one is owned by a
	// single task, so no tree is ever written concurrently.
	Trees   int
	Size    int
	Workers int
	// StatsName publishes the metrics of every tree under it.
	StatsName string
	Logger    xlog.XLogger
}

func (cfg *BenchConfig) validate() error {
	if cfg.Trees <= 0 || cfg.Size <= 0 || cfg.Workers <= 0 {
		return infra.WrapErrorStackWithMessage(ErrInvalidBenchConfig,
			fmt.Sprintf("trees %d, size %d, workers %d", cfg.Trees, cfg.Size, cfg.Workers))
	}
	if cfg.Logger == nil {
		cfg.Logger = xlog.NewNopXLogger()
	}
	return nil
}

type BenchResult struct {
	Trees     int
	Size      int
	Workers   int
	Inserts   int64
	Removes   int64
	MaxHeight int64
	Elapsed   time.Duration
	RSSBefore uint64
	RSSAfter  uint64
	Err       error
}

// OpsPerSecond counts both the inserts and the removes.
func (r *BenchResult) OpsPerSecond() float64 {
	if r == nil || r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Inserts+r.Removes) / r.Elapsed.Seconds()
}

type benchCounter struct {
	inserts   atomic.Int64
	removes   atomic.Int64
	maxHeight atomic.Int64
	lock      sync.Mutex
	err       error
}

func (c *benchCounter) fail(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.err = multierr.Append(c.err, err)
}

func (c *benchCounter) observeHeight(h int64) {
	for {
		cur := c.maxHeight.Load()
		if h <= cur || c.maxHeight.CompareAndSwap(cur, h) {
			return
		}
	}
}

// churn fills a tree with a shuffled permutation, removes half of it in
// another random order and drains the rest by the minimum.
func churn(ctx context.Context, idx int, cfg *BenchConfig, c *benchCounter) error {
	opts := []tree.RBTreeOpt[int64]{
		tree.WithRBTreeCapacity[int64](cfg.Size),
	}
	if len(cfg.StatsName) > 0 {
		opts = append(opts, tree.WithRBTreeStats[int64](cfg.StatsName))
	}
	t := tree.NewRBTree[int64](opts...)
	values := lo.Shuffle(lo.Map(lo.Range(cfg.Size), func(v int, _ int) int64 {
		return int64(v)
	}))
	for _, v := range values {
		if _, err := t.Add(v); err != nil {
			return err
		}
		c.inserts.Add(1)
	}
	if !t.Validate() || !t.IsBalanced() {
		return fmt.Errorf("tree %d: %w", idx, multierr.Combine(
			tree.ValidateOrder[int64](t, infra.OrderedKeyComparator[int64](false)),
			tree.RedViolationValidate[int64](t),
		))
	}
	c.observeHeight(int64(tree.Height[int64](t)))
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, v := range lo.Shuffle(values)[:cfg.Size/2] {
		if !t.Remove(v) {
			return fmt.Errorf("tree %d: %w: remove %d", idx, tree.ErrNotFound, v)
		}
		c.removes.Add(1)
	}
	if err := tree.BlackViolationValidate[int64](t); err != nil {
		return fmt.Errorf("tree %d: %w", idx, err)
	}
	for t.Len() > 0 {
		if _, err := t.RemoveMin(); err != nil {
			return err
		}
		c.removes.Add(1)
	}
	if t.Root() != nil {
		return fmt.Errorf("tree %d: %w: drained tree keeps a root", idx, tree.ErrStructureViolation)
	}
	t.Release()
	return nil
}

// Bench churns cfg.Trees independent trees on an ants pool of
// cfg.Workers goroutines. Per-tree failures are collected in the
// result; the returned error is only about the setup.
func Bench(ctx context.Context, cfg BenchConfig) (*BenchResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &benchCounter{}
	pool, err := antsv2.NewPool(cfg.Workers,
		antsv2.WithPreAlloc(true),
		antsv2.WithLogger(xlog.NewAntsXLogger(cfg.Logger)),
		antsv2.WithPanicHandler(func(p any) {
			c.fail(fmt.Errorf("[scenario] bench task panic: %v", p))
		}),
	)
	if err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	defer pool.Release()

	res := &BenchResult{
		Trees:   cfg.Trees,
		Size:    cfg.Size,
		Workers: cfg.Workers,
	}
	res.RSSBefore, _ = observability.ProcessRSS()
	start := time.Now()
	wg := sync.WaitGroup{}
	for i := 0; i < cfg.Trees; i++ {
		idx := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := churn(ctx, idx, &cfg, c); err != nil {
				c.fail(err)
			}
		}); err != nil {
			wg.Done()
			c.fail(infra.WrapErrorStack(err))
		}
	}
	wg.Wait()
	res.Elapsed = time.Since(start)
	res.RSSAfter, _ = observability.ProcessRSS()
	res.Inserts = c.inserts.Load()
	res.Removes = c.removes.Load()
	res.MaxHeight = c.maxHeight.Load()
	res.Err = c.err

	cfg.Logger.Info("[scenario] bench finished",
		zap.Int("trees", cfg.Trees),
		zap.Int("size", cfg.Size),
		zap.Int("workers", cfg.Workers),
		zap.Duration("elapsed", res.Elapsed),
		zap.Int64("inserts", res.Inserts),
		zap.Int64("removes", res.Removes),
		zap.Error(res.Err),
	)
	return res, nil
}
