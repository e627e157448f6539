package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectRBTreeStats(t *testing.T, reader sdkmetric.Reader, scope string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	res := make(map[string]int64, 8)
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != scope {
			continue
		}
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					res[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					res[m.Name] = dp.Value
				}
			}
		}
	}
	return res
}

func TestRBTreeStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	defer func() {
		_ = mp.Shutdown(context.Background())
	}()

	tree := NewRBTree[int](WithRBTreeStats[int]("test"))
	for i := 1; i <= 10; i++ {
		_, err := tree.Add(i)
		require.NoError(t, err)
	}
	require.True(t, tree.Remove(5))
	_, err := tree.RemoveMin()
	require.NoError(t, err)

	stats := collectRBTreeStats(t, reader, RBTreeStatsName+"/test")
	require.Equal(t, int64(10), stats["rbtree.insert.count"])
	require.Equal(t, int64(2), stats["rbtree.remove.count"])
	require.Equal(t, int64(8), stats["rbtree.len"])
	require.Greater(t, stats["rbtree.rotate.count"], int64(0))
	require.Greater(t, stats["rbtree.recolor.count"], int64(0))

	tree.Clear()
	stats = collectRBTreeStats(t, reader, RBTreeStatsName+"/test")
	require.Equal(t, int64(0), stats["rbtree.len"])
}

func TestRBTreeStats_Disabled(t *testing.T) {
	var stats *rbTreeStats
	stats.IncreaseInsertCount()
	stats.IncreaseRemoveCount()
	stats.IncreaseRotateCount()
	stats.IncreaseRecolorCount()
	stats.RecordLen(10)

	tree := NewRBTree[int]().(*rbTree[int])
	require.Nil(t, tree.stats)
	_, err := tree.Add(1)
	require.NoError(t, err)
}

func TestRBTreeStats_SharedName(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	defer func() {
		_ = mp.Shutdown(context.Background())
	}()

	testcases := []struct {
		name         string
		releaseFirst bool
	}{
		{"the kept tree registered first", true},
		{"the kept tree registered last", false},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			var kept, released RBTree[int]
			if tc.releaseFirst {
				kept = NewRBTree[int](WithRBTreeStats[int]("shared"))
				released = NewRBTree[int](WithRBTreeStats[int]("shared"))
			} else {
				released = NewRBTree[int](WithRBTreeStats[int]("shared"))
				kept = NewRBTree[int](WithRBTreeStats[int]("shared"))
			}
			for i := 0; i < 5; i++ {
				_, err := kept.Add(i)
				require.NoError(tt, err)
			}
			for i := 0; i < 3; i++ {
				_, err := released.Add(i)
				require.NoError(tt, err)
			}
			stats := collectRBTreeStats(tt, reader, RBTreeStatsName+"/shared")
			require.Equal(tt, int64(8), stats["rbtree.len"])

			released.Release()
			stats = collectRBTreeStats(tt, reader, RBTreeStatsName+"/shared")
			require.Equal(tt, int64(5), stats["rbtree.len"])

			kept.Release()
			stats = collectRBTreeStats(tt, reader, RBTreeStatsName+"/shared")
			require.Equal(tt, int64(0), stats["rbtree.len"])
		})
	}
}
