package generate

import (
	"reflect"
	"testing"
)

func TestPlanDeviceMemoryWorkedExample(t *testing.T) {
	// 2 devices, 40 GiB each, 80% fraction:
	// device 0 gets floor(40*0.8*0.6)=19, device 1 gets floor(40*0.8)=32.
	b := PlanDeviceMemory(2, 0.8, 40)
	if b == nil {
		t.Fatalf("expected a plan, got nil")
	}
	want := MemoryBudget{"0": 19, "1": 32, HostKey: 400}
	if !reflect.DeepEqual(b, want) {
		t.Fatalf("unexpected budget: got %v want %v", b, want)
	}
}

func TestPlanDeviceMemorySkipsWhenNotUseful(t *testing.T) {
	cases := []struct {
		name     string
		devices  int
		fraction float64
		total    float64
	}{
		{"single device", 1, 0.8, 40},
		{"no devices", 0, 0.8, 40},
		{"full fraction", 4, 1.0, 40},
		{"unknown total", 4, 0.8, 0},
	}
	for _, c := range cases {
		if b := PlanDeviceMemory(c.devices, c.fraction, c.total); b != nil {
			t.Fatalf("%s: expected nil plan, got %v", c.name, b)
		}
	}
}

func TestPlanDeviceMemoryDeviceZeroDiscount(t *testing.T) {
	b := PlanDeviceMemory(4, 0.5, 80)
	if len(b) != 5 {
		t.Fatalf("expected 4 devices + host, got %d entries", len(b))
	}
	for _, key := range []string{"1", "2", "3"} {
		if b["0"] >= b[key] {
			t.Fatalf("device 0 budget %d not below device %s budget %d", b["0"], key, b[key])
		}
	}
	if b[HostKey] != hostFallbackGiB {
		t.Fatalf("host fallback: got %d want %d", b[HostKey], hostFallbackGiB)
	}
}

func TestPlanDeviceMemoryIdempotent(t *testing.T) {
	a := PlanDeviceMemory(3, 0.9, 24)
	b := PlanDeviceMemory(3, 0.9, 24)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("planner not deterministic: %v vs %v", a, b)
	}
}
