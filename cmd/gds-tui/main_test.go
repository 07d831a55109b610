package main

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/proto"

	"github.com/dd0wney/cluso-gds/pkg/progress"
)

func TestFormatProgress(t *testing.T) {
	if got := formatProgress(progress.Progress{Progress: 3, Volume: 10}); got != "3/10" {
		t.Errorf("Expected 3/10, got %q", got)
	}
	if got := formatProgress(progress.Progress{Progress: 7, Volume: progress.UnknownVolume}); got != "7" {
		t.Errorf("Expected 7, got %q", got)
	}
}

func TestSummarize(t *testing.T) {
	counter := &dto.MetricFamily{
		Name: proto.String("gds_pool_tasks_total"),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{
			{Counter: &dto.Counter{Value: proto.Float64(2)}},
			{Counter: &dto.Counter{Value: proto.Float64(3)}},
		},
	}
	if got := summarize(counter); got != "5" {
		t.Errorf("Expected 5, got %q", got)
	}

	hist := &dto.MetricFamily{
		Name: proto.String("gds_partition_nodes"),
		Type: dto.MetricType_HISTOGRAM.Enum(),
		Metric: []*dto.Metric{
			{Histogram: &dto.Histogram{SampleCount: proto.Uint64(4)}},
		},
	}
	if got := summarize(hist); got != "4 observations" {
		t.Errorf("Expected 4 observations, got %q", got)
	}
}

func TestTaskRowsFollowTheTree(t *testing.T) {
	store := progress.NewMemoryTaskStore()
	root := progress.Composite("job", progress.Leaf("a", 10), progress.Leaf("b", 5))
	store.Store(progress.NewJobID(), root)

	m := model{session: &session{store: store}}
	rows := m.taskRows()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "job" || rows[1][0] != "  a" || rows[2][1] != "PENDING" {
		t.Errorf("Unexpected rows: %v", rows)
	}
}
