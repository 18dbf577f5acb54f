package main

import (
	"context"
	"strconv"
	"time"

	"github.com/vango-dev/vtree/pkg/headless"
	"github.com/vango-dev/vtree/pkg/vtree"
)

// workerResult holds the samples of one worker.
type workerResult struct {
	reconcile []time.Duration
	layout    []time.Duration
	stats     vtree.Stats
	errors    uint64
}

func mergeResults(results []workerResult) workerResult {
	var out workerResult
	for _, r := range results {
		out.reconcile = append(out.reconcile, r.reconcile...)
		out.layout = append(out.layout, r.layout...)
		out.stats = out.stats.Add(r.stats)
		out.errors += r.errors
	}
	return out
}

// listTree builds list trees in which churn rows change reuse identifier on
// every revision, so each reconcile pass dismantles and constructs views.
type listTree struct {
	worker   int
	listSize int
	churn    int
	rev      uint64
}

func (t *listTree) build(*vtree.Context) (*vtree.Node, error) {
	t.rev++
	token := strconv.Itoa(t.worker) + ":" + strconv.FormatUint(t.rev, 10)

	root := vtree.Must("List", nil, vtree.WithReuseID("list"))
	root.SetHeader(vtree.Must("Label", nil, vtree.WithReuseID("echo"), vtree.WithKey("echo")))

	edited := make(map[int]bool, t.churn)
	if t.listSize > 0 {
		h := fnv1a32(token)
		for i := 0; i < t.churn; i++ {
			edited[int((h+uint32(i)*2654435761)%uint32(t.listSize))] = true
		}
	}
	for i := 0; i < t.listSize; i++ {
		reuse := "row"
		if edited[i] && t.rev%2 == 0 {
			reuse = "row-edited"
		}
		root.AddChild(vtree.Must("Row", nil, vtree.WithReuseID(reuse)))
	}
	return root, nil
}

// runWorker mounts one hierarchy and runs passes on it until ctx is done.
func runWorker(ctx context.Context, id int, cfg benchConfig) workerResult {
	var res workerResult

	tree := &listTree{worker: id, listSize: cfg.ListSize, churn: cfg.Churn}
	p := headless.New()
	h := vtree.NewHierarchy(vtree.NewContext(p, nil),
		vtree.WithBuilder(tree.build),
		vtree.WithMiddleware(func(pass *vtree.Pass, next func() error) error {
			err := next()
			res.stats = res.stats.Add(pass.Stats)
			return err
		}),
	)
	if err := h.BuildHierarchy(p.NewContainer(), vtree.Size{Width: 375, Height: 812}, vtree.OptionNone); err != nil {
		res.errors++
		return res
	}

	var tick <-chan time.Time
	if cfg.RPS > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.RPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	for passes := 1; ; passes++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return res
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return res
		}

		start := time.Now()
		if err := h.SetNeedsReconcile(); err != nil {
			res.errors++
			continue
		}
		res.reconcile = append(res.reconcile, time.Since(start))

		if cfg.LayoutEvery > 0 && passes%cfg.LayoutEvery == 0 {
			start = time.Now()
			if err := h.SetNeedsLayout(); err != nil {
				res.errors++
				continue
			}
			res.layout = append(res.layout, time.Since(start))
		}
	}
}

func fnv1a32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
