package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestToolCallsIncrementsByLabel(t *testing.T) {
	t.Parallel()

	ToolCalls.Reset()
	ToolCalls.WithLabelValues("get_profile", "ok").Inc()
	ToolCalls.WithLabelValues("get_profile", "ok").Inc()
	ToolCalls.WithLabelValues("get_profile", "error").Inc()

	if got := testutil.ToFloat64(ToolCalls.WithLabelValues("get_profile", "ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(ToolCalls.WithLabelValues("get_profile", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}
