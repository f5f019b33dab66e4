package pagination

import "testing"

func TestParamsNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Params
		wantPage int
		wantSize int
	}{
		{name: "defaults", in: Params{}, wantPage: 0, wantSize: DefaultSize},
		{name: "negative page clamped", in: Params{Page: -3, Size: 10}, wantPage: 0, wantSize: 10},
		{name: "oversized clamped", in: Params{Page: 2, Size: MaxSize + 50}, wantPage: 2, wantSize: MaxSize},
		{name: "passthrough", in: Params{Page: 1, Size: 40}, wantPage: 1, wantSize: 40},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.Size != tc.wantSize {
				t.Fatalf("normalize %+v = %+v", tc.in, got)
			}
		})
	}
}

func TestEmptyPage(t *testing.T) {
	page := Empty[string](Params{Size: -1})
	if page.Content == nil || len(page.Content) != 0 {
		t.Fatalf("expected non-nil empty content")
	}
	if page.Size != DefaultSize {
		t.Fatalf("expected normalized size, got %d", page.Size)
	}
	if page.TotalElements != 0 || page.TotalPages != 0 {
		t.Fatalf("expected zero totals")
	}
}
