package presenter

import (
	"math"
	"strconv"
	"time"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
)

// MetricsView 格式化后的指标
type MetricsView struct {
	NPSScore       string `json:"nps_score"`
	TotalResponses string `json:"total_responses"`
	AverageRating  string `json:"avg_rating"`
	SellerCount    string `json:"sellers"`
}

// FrameAt 返回动画进行到 fraction (0~1) 时的指标，从 0 线性插值到目标值
func FrameAt(m analysis.Metrics, fraction float64) MetricsView {
	f := min(max(fraction, 0), 1)
	return MetricsView{
		NPSScore:       formatCount(lerp(m.NPSScore, f)),
		TotalResponses: formatCount(lerp(m.TotalResponses, f)),
		AverageRating:  formatRating(lerp(m.AverageRating, f)),
		SellerCount:    formatCount(lerp(m.SellerCount, f)),
	}
}

// Fraction 计算动画已进行的比例
func Fraction(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	return min(max(float64(elapsed)/float64(duration), 0), 1)
}

func lerp(end, f float64) float64 {
	if f >= 1 {
		return end
	}
	return end * f
}

// 计数取整 (向下)
func formatCount(v float64) string {
	v = math.Floor(v)
	if v == 0 {
		v = 0 // 去掉 -0
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// 评分保留一位小数
func formatRating(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}
