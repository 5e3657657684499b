package timing

import (
	"math"
	"testing"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
)

func TestPathDestination(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Point
	}{
		{
			name: "move then line",
			path: "M 0 0 L 0.25 0.4 E",
			want: Point{0.25, 0.4},
		},
		{
			name: "relative line accumulates",
			path: "M 0.1 0.1 l 0.2 0.3 E",
			want: Point{0.3, 0.4},
		},
		{
			name: "curve endpoint is the last pair",
			path: "M 0 0 C 0.1 0.1 0.2 0.2 0.5 0.6 E",
			want: Point{0.5, 0.6},
		},
		{
			name: "close returns to subpath start",
			path: "M 0.2 0.3 L 0.9 0.9 Z",
			want: Point{0.2, 0.3},
		},
		{
			name: "comma separated coordinates",
			path: "M 0,0 L 1.5,0.5 E",
			want: Point{1.5, 0.5},
		},
		{
			name: "negative coordinates",
			path: "M 0 0 L -0.5 0.2 E",
			want: Point{-0.5, 0.2},
		},
		{
			name: "end stops consuming commands",
			path: "M 0 0 L 0.5 0.5 E L 0.9 0.9",
			want: Point{0.5, 0.5},
		},
		{
			name: "multiple pairs in one line command",
			path: "M 0 0 L 0.2 0.2 0.7 0.1 E",
			want: Point{0.7, 0.1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathDestination(tt.path)
			if err != nil {
				t.Fatalf("PathDestination(%q) error: %v", tt.path, err)
			}
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("PathDestination(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestPathDestinationMalformed(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "odd coordinate count", path: "M 0 0 L 0.5 E"},
		{name: "incomplete curve", path: "M 0 0 C 0.1 0.2 0.3 E"},
		{name: "garbage", path: "not a path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PathDestination(tt.path)
			if err == nil {
				t.Fatalf("PathDestination(%q) succeeded, want error", tt.path)
			}
			if !cerrors.Is(err, cerrors.ErrMalformedTiming) {
				t.Errorf("error %v is not ErrMalformedTiming", err)
			}
		})
	}
}
