package tree

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	RBTreeStatsName = "xtree/rbtree"
)

// rbTreeStats is nil when the stats are disabled, all the methods
// accept the nil receiver.
// The trees sharing a name add up into one rbtree.len series.
type rbTreeStats struct {
	length       atomic.Int64
	attrs        metric.MeasurementOption
	insertCount  metric.Int64Counter
	removeCount  metric.Int64Counter
	rotateCount  metric.Int64Counter
	recolorCount metric.Int64Counter
	lenCounter   metric.Int64UpDownCounter
}

func (stats *rbTreeStats) IncreaseInsertCount() {
	if stats == nil {
		return
	}
	stats.length.Add(1)
	stats.lenCounter.Add(context.Background(), 1, stats.attrs)
	stats.insertCount.Add(context.Background(), 1, stats.attrs)
}

func (stats *rbTreeStats) IncreaseRemoveCount() {
	if stats == nil {
		return
	}
	stats.length.Add(-1)
	stats.lenCounter.Add(context.Background(), -1, stats.attrs)
	stats.removeCount.Add(context.Background(), 1, stats.attrs)
}

func (stats *rbTreeStats) IncreaseRotateCount() {
	if stats == nil {
		return
	}
	stats.rotateCount.Add(context.Background(), 1, stats.attrs)
}

func (stats *rbTreeStats) IncreaseRecolorCount() {
	if stats == nil {
		return
	}
	stats.recolorCount.Add(context.Background(), 1, stats.attrs)
}

// RecordLen moves the shared series by the difference to the last
// length of this tree only.
func (stats *rbTreeStats) RecordLen(length int64) {
	if stats == nil {
		return
	}
	if delta := length - stats.length.Swap(length); delta != 0 {
		stats.lenCounter.Add(context.Background(), delta, stats.attrs)
	}
}

func newRBTreeStats(name string) *rbTreeStats {
	meterName := fmt.Sprintf("%s/%s", RBTreeStatsName, name)
	meter := otel.Meter(meterName)
	stats := &rbTreeStats{
		attrs: metric.WithAttributeSet(attribute.NewSet(
			attribute.String("rbtree.name", name),
		)),
	}
	stats.insertCount = lo.Must[metric.Int64Counter](meter.Int64Counter(
		"rbtree.insert.count",
		metric.WithDescription("The number of nodes inserted into the rbtree."),
	))
	stats.removeCount = lo.Must[metric.Int64Counter](meter.Int64Counter(
		"rbtree.remove.count",
		metric.WithDescription("The number of nodes removed from the rbtree."),
	))
	stats.rotateCount = lo.Must[metric.Int64Counter](meter.Int64Counter(
		"rbtree.rotate.count",
		metric.WithDescription("The number of rotations to rebalance the rbtree."),
	))
	stats.recolorCount = lo.Must[metric.Int64Counter](meter.Int64Counter(
		"rbtree.recolor.count",
		metric.WithDescription("The number of repaints to rebalance the rbtree."),
	))
	stats.lenCounter = lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
		"rbtree.len",
		metric.WithDescription("The number of nodes in the rbtrees sharing the name."),
	))
	return stats
}
