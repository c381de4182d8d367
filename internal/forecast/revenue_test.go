package forecast

import "testing"

func TestRevenue(t *testing.T) {
	got := Revenue([]int{3, 0, 7}, 2.505)

	want := []float64{7.52, 0, 17.54}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("revenue[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRevenueEmpty(t *testing.T) {
	if got := Revenue(nil, 9.99); len(got) != 0 {
		t.Errorf("expected empty revenue, got %v", got)
	}
}
