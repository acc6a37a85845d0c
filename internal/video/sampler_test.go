package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		focusStart float64
		count      int
		want       []int
	}{
		{
			name:       "hundred frames default window",
			total:      100,
			focusStart: 0.70,
			count:      5,
			want:       []int{70, 76, 82, 88, 94},
		},
		{
			name:       "short clip clamps step to one",
			total:      10,
			focusStart: 0.70,
			count:      5,
			want:       []int{7, 8, 9, 10, 11},
		},
		{
			name:       "zero frames",
			total:      0,
			focusStart: 0.70,
			count:      5,
			want:       nil,
		},
		{
			name:       "zero count",
			total:      100,
			focusStart: 0.70,
			count:      0,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleIndices(tt.total, tt.focusStart, tt.count)
			assert.Equal(t, tt.want, got)
		})
	}
}
