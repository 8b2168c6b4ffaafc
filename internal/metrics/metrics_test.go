package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordWebhook("message", "success", 0.05)
	m.RecordCommand("可吃", "success")
	m.RecordStoreError("save")
	m.SetShopCount(3)
	m.RecordSamplerAttempts(2)
	m.RecordSamplerExhausted()
	m.RecordReply("success")

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"eatwhat_webhook_requests_total",
		"eatwhat_webhook_duration_seconds",
		"eatwhat_commands_total",
		"eatwhat_store_errors_total",
		"eatwhat_shops",
		"eatwhat_sampler_attempts",
		"eatwhat_sampler_exhausted_total",
		"eatwhat_reply_messages_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestCounterValues(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.RecordCommand("可吃", "success")
	m.RecordCommand("可吃", "success")
	m.RecordCommand("可吃", "error")

	got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("可吃", "success"))
	if got != 2 {
		t.Errorf("commands success count = %v, want 2", got)
	}
	got = testutil.ToFloat64(m.CommandsTotal.WithLabelValues("可吃", "error"))
	if got != 1 {
		t.Errorf("commands error count = %v, want 1", got)
	}
}

func TestShopCountGauge(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.SetShopCount(7)
	if got := testutil.ToFloat64(m.ShopCount.WithLabelValues("total")); got != 7 {
		t.Errorf("shop count = %v, want 7", got)
	}
	m.SetShopCount(2)
	if got := testutil.ToFloat64(m.ShopCount.WithLabelValues("total")); got != 2 {
		t.Errorf("shop count after update = %v, want 2", got)
	}
}
