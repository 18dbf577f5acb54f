package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vtree/pkg/vtree"
)

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(flag.NewFlagSet("bench", flag.ContinueOnError), []string{
		"-profile", "FAST", "-workers", "2", "-duration", "150ms", "-churn", "3", "-mem-limit", "1GiB",
	})
	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.Profile)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 150*time.Millisecond, cfg.Duration)
	assert.Equal(t, 3, cfg.Churn)
	assert.Equal(t, 50, cfg.ListSize)
	assert.Equal(t, gib, cfg.MemLimitBytes)
	assert.Equal(t, "-", cfg.JSONOutput)
}

func TestParseConfigErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-profile", "huge"},
		{"-workers", "0"},
		{"-duration", "soon"},
		{"-list", "2", "-churn", "3"},
		{"-rps", "-2"},
		{"-mem-limit", "3 parsecs"},
	} {
		fs := flag.NewFlagSet("bench", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		_, err := parseConfig(fs, args)
		assert.Error(t, err, "%v", args)
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"512", 512},
		{"2kb", 2000},
		{"1.5MiB", 1572864},
		{"2GiB", 2 * gib},
	}
	for _, tt := range tests {
		got, err := parseBytes(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := parseBytes("")
	assert.Error(t, err)
	_, err = parseBytes("MB")
	assert.Error(t, err)
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
	assert.Equal(t, time.Duration(5), percentile(sorted, 0.5))
	assert.Equal(t, time.Duration(10), percentile(sorted, 0.99))
	assert.Equal(t, time.Duration(10), percentile(sorted, 1))
	assert.Zero(t, percentile(nil, 0.5))
}

func TestListTreeChurn(t *testing.T) {
	tree := &listTree{listSize: 10, churn: 2}

	first, err := tree.build(nil)
	require.NoError(t, err)
	second, err := tree.build(nil)
	require.NoError(t, err)

	assert.Len(t, first.Children(), 10)
	assert.Equal(t, "echo", first.Header().Key())

	edited := 0
	for _, c := range second.Children() {
		if c.ReuseID() == "row-edited" {
			edited++
		}
	}
	assert.GreaterOrEqual(t, edited, 1)
	assert.LessOrEqual(t, edited, 2)
	for _, c := range first.Children() {
		assert.Equal(t, "row", c.ReuseID())
	}
}

func TestRunBench(t *testing.T) {
	cfg := benchConfig{
		Profile:     "test",
		Workers:     2,
		Duration:    100 * time.Millisecond,
		ListSize:    20,
		Churn:       2,
		LayoutEvery: 2,
		JSONOutput:  "-",
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	report := runBench(ctx, cfg)
	assert.Zero(t, report.Errors)
	assert.Positive(t, report.Reconcile.Count)
	assert.Positive(t, report.Views.Dismantled)
	assert.Greater(t, report.Views.Reused, report.Views.Dismantled)
	assert.Equal(t, report.Reconcile.Count+report.Layout.Count, report.Throughput.PassesTotal)

	var summary bytes.Buffer
	writeSummary(&summary, report)
	assert.Contains(t, summary.String(), "=== vtree Reconcile Benchmark ===")

	var out bytes.Buffer
	require.NoError(t, writeJSON("-", &out, report))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Contains(t, decoded, "reconcile_ms")
}

func TestMergeResults(t *testing.T) {
	merged := mergeResults([]workerResult{
		{reconcile: []time.Duration{1}, stats: vtree.Stats{Constructed: 2}, errors: 1},
		{reconcile: []time.Duration{2, 3}, layout: []time.Duration{4}, stats: vtree.Stats{Reused: 5}},
	})
	assert.Len(t, merged.reconcile, 3)
	assert.Len(t, merged.layout, 1)
	assert.Equal(t, vtree.Stats{Constructed: 2, Reused: 5}, merged.stats)
	assert.Equal(t, uint64(1), merged.errors)
}
