package presenter

import (
	"testing"
	"time"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
)

func TestFrameAt(t *testing.T) {
	m := analysis.Metrics{NPSScore: 72, TotalResponses: 150, AverageRating: 8.3, SellerCount: 12}

	tests := []struct {
		name     string
		fraction float64
		want     MetricsView
	}{
		{"start", 0, MetricsView{"0", "0", "0.0", "0"}},
		{"half", 0.5, MetricsView{"36", "75", "4.2", "6"}},
		{"floored", 0.33, MetricsView{"23", "49", "2.7", "3"}},
		{"end", 1, MetricsView{"72", "150", "8.3", "12"}},
		{"clamped", 3, MetricsView{"72", "150", "8.3", "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrameAt(m, tt.fraction); got != tt.want {
				t.Errorf("FrameAt(%v) = %+v, want %+v", tt.fraction, got, tt.want)
			}
		})
	}
}

func TestFrameAt_NegativeScore(t *testing.T) {
	m := analysis.Metrics{NPSScore: -20}
	if got := FrameAt(m, 0).NPSScore; got != "0" {
		t.Errorf("start NPSScore = %q, want 0", got)
	}
	if got := FrameAt(m, 1).NPSScore; got != "-20" {
		t.Errorf("end NPSScore = %q, want -20", got)
	}
}

func TestFraction(t *testing.T) {
	if got := Fraction(400*time.Millisecond, 800*time.Millisecond); got != 0.5 {
		t.Errorf("Fraction = %v, want 0.5", got)
	}
	if got := Fraction(time.Second, 800*time.Millisecond); got != 1 {
		t.Errorf("Fraction overrun = %v, want 1", got)
	}
	if got := Fraction(0, 0); got != 1 {
		t.Errorf("Fraction with zero duration = %v, want 1", got)
	}
}
