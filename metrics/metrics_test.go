package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	SetsTotal.Inc()
	LiveKeys.Set(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather 失败: %v", err)
	}

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{"driftkv_sets_total", "driftkv_live_keys", "driftkv_compactions_total"} {
		if !names[want] {
			t.Errorf("缺少指标 %s", want)
		}
	}
}
