package core

import (
	"fmt"
	"testing"
)

func genericHeaders(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = fmt.Sprintf("col_%d", i)
	}
	return h
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Format
	}{
		{
			name:    "full old header row",
			headers: DeliveryColumns(),
			want:    FormatOld,
		},
		{
			name: "33 columns with cluster",
			headers: append(genericHeaders(31), "cluster", "ciclo"),
			want: FormatNew,
		},
		{
			name: "33 columns with bare ciclo",
			headers: append(genericHeaders(32), "ciclo"),
			want: FormatNew,
		},
		{
			name: "ciclo_final embedded in decorated header",
			headers: append(genericHeaders(10), "rota ciclo_final turno"),
			want: FormatOld,
		},
		{
			name: "exact clus column",
			headers: append(genericHeaders(20), "clus"),
			want: FormatOld,
		},
		{
			name:    "36 generic columns falls back to old",
			headers: genericHeaders(36),
			want:    FormatOld,
		},
		{
			name:    "other column counts fall back to new",
			headers: genericHeaders(12),
			want:    FormatNew,
		},
		{
			name: "33 columns without markers falls through to count check",
			headers: genericHeaders(33),
			want: FormatNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.headers); got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}
