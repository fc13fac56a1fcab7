package generate

import (
	"fmt"
	"reflect"
	"testing"
)

func flatOutputs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("seq-%02d", i)
	}
	return out
}

func TestReshapeRoundTrip(t *testing.T) {
	cases := []struct{ m, b int }{
		{6, 3}, {8, 8}, {12, 4}, {1, 1}, {10, 2},
	}
	for _, c := range cases {
		flat := flatOutputs(c.m)
		groups, err := Reshape(flat, c.b)
		if err != nil {
			t.Fatalf("M=%d B=%d: %v", c.m, c.b, err)
		}
		if len(groups) != c.b {
			t.Fatalf("M=%d B=%d: got %d groups", c.m, c.b, len(groups))
		}
		k := c.m / c.b
		var back []string
		for _, g := range groups {
			if len(g) != k {
				t.Fatalf("M=%d B=%d: group size %d want %d", c.m, c.b, len(g), k)
			}
			back = append(back, g...)
		}
		if !reflect.DeepEqual(back, flat) {
			t.Fatalf("M=%d B=%d: flatten does not round-trip: %v", c.m, c.b, back)
		}
	}
}

func TestReshapeRejectsNonDivisible(t *testing.T) {
	for _, c := range []struct{ m, b int }{{7, 3}, {5, 2}, {1, 2}, {0, 3}} {
		_, err := Reshape(flatOutputs(c.m), c.b)
		if err == nil {
			t.Fatalf("M=%d B=%d: expected error", c.m, c.b)
		}
		if !IsReshapeError(err) {
			t.Fatalf("M=%d B=%d: expected ReshapeError, got %T", c.m, c.b, err)
		}
	}
}

func TestReshapeRejectsBadBatchSize(t *testing.T) {
	if _, err := Reshape(flatOutputs(4), 0); !IsReshapeError(err) {
		t.Fatalf("expected ReshapeError for zero batch size, got %v", err)
	}
	if _, err := Reshape(flatOutputs(4), -1); !IsReshapeError(err) {
		t.Fatalf("expected ReshapeError for negative batch size, got %v", err)
	}
}

func TestReshapeErrorCarriesCounts(t *testing.T) {
	_, err := Reshape(flatOutputs(7), 3)
	rerr, ok := err.(ReshapeError)
	if !ok {
		t.Fatalf("expected ReshapeError, got %T", err)
	}
	if rerr.Got != 7 {
		t.Fatalf("expected got=7 in %+v", rerr)
	}
}
