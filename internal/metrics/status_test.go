package metrics

import (
	"reflect"
	"testing"
)

func TestStatusDistribution(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  []StatusRow
	}{
		{
			name:  "empty",
			stats: Stats{},
			want:  nil,
		},
		{
			name: "transport failures only",
			stats: Stats{
				Error: ClassStats{Count: 3},
			},
			want: nil,
		},
		{
			name: "success first then errors ascending",
			stats: Stats{
				Success: ClassStats{Count: 4, Statuses: map[int]int64{200: 4}},
				Error:   ClassStats{Count: 5, Statuses: map[int]int64{503: 2, 500: 3}},
			},
			want: []StatusRow{
				{Class: ClassSuccess, Code: 200, Count: 4},
				{Class: ClassError, Code: 500, Count: 3},
				{Class: ClassError, Code: 503, Count: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusDistribution(tt.stats)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StatusDistribution() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cases := map[int]Class{
		200: ClassSuccess,
		201: ClassError,
		204: ClassError,
		404: ClassError,
		500: ClassError,
	}
	for code, want := range cases {
		if got := Classify(code); got != want {
			t.Errorf("Classify(%d) = %q, want %q", code, got, want)
		}
	}
}
