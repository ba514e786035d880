package storage

import "testing"

func TestBuildChartKey(t *testing.T) {
	key, err := BuildChartKey("4b1e0c8e-6a53-4c17-9d0e-1f2a3b4c5d6e", ".png")
	if err != nil {
		t.Fatalf("BuildChartKey() error = %v", err)
	}
	want := "charts/4b1e0c8e-6a53-4c17-9d0e-1f2a3b4c5d6e.png"
	if key != want {
		t.Fatalf("BuildChartKey() = %q, want %q", key, want)
	}
}

func TestBuildChartKeyRejectsInvalidComponents(t *testing.T) {
	cases := []struct {
		id  string
		ext string
	}{
		{id: "", ext: "png"},
		{id: "../escape", ext: "png"},
		{id: "chart-1", ext: ""},
		{id: "chart-1", ext: "p/ng"},
	}
	for _, tc := range cases {
		if _, err := BuildChartKey(tc.id, tc.ext); err == nil {
			t.Fatalf("BuildChartKey(%q, %q) expected error", tc.id, tc.ext)
		}
	}
}
