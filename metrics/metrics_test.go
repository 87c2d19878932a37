package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "svc")
	m.ObserveExtraction("amazon", "success", 0.1)
	m.ObserveScore("good", 74)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	want := map[string]bool{
		"svc_extractions_total":           false,
		"svc_extraction_duration_seconds": false,
		"svc_score_reports_total":         false,
		"svc_score_distribution":          false,
	}
	for _, fam := range families {
		if _, ok := want[fam.GetName()]; ok {
			want[fam.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("metric %s not registered on the provided registry", name)
		}
	}
}

func TestNewWithPrivateRegistriesDoesNotCollide(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("second New with a private registry panicked: %v", r)
		}
	}()
	first := New(prometheus.NewRegistry(), "svc")
	second := New(prometheus.NewRegistry(), "svc")
	first.ObserveScore("excellent", 90)
	second.ObserveScore("excellent", 90)
}
