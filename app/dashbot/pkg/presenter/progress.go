package presenter

import "time"

const (
	// InitialPercent 提交后、开始计时前的起始进度
	InitialPercent = 5.0
	// TimeEstimateCap 基于耗时估算的进度上限
	TimeEstimateCap = 85.0
	// WaitingCap 等待响应期间展示进度的上限，最后 10% 留给真实完成
	WaitingCap = 90.0
	// CompletePercent 收到结果后的进度
	CompletePercent = 100.0
)

// Phase 根据进度推测的后端处理阶段
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseFetchingSource
	PhaseExtracting
	PhaseAnalyzing
	PhaseComputingMetrics
	PhaseGeneratingReport
	PhaseFinalizing
)

var phaseLabels = [...]string{
	PhaseConnecting:       "Connecting to backend...",
	PhaseFetchingSource:   "Accessing Google Sheets...",
	PhaseExtracting:       "Extracting spreadsheet data...",
	PhaseAnalyzing:        "Analyzing with AI...",
	PhaseComputingMetrics: "Computing after-sales metrics...",
	PhaseGeneratingReport: "Generating report...",
	PhaseFinalizing:       "Finalizing analysis...",
}

// 各阶段的进度上界 (不含)
var phaseThresholds = [...]float64{15, 30, 45, 60, 75, 90}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseLabels) {
		return "Processing..."
	}
	return phaseLabels[p]
}

// PhaseFor 返回进度对应的阶段
func PhaseFor(percent float64) Phase {
	for i, th := range phaseThresholds {
		if percent < th {
			return Phase(i)
		}
	}
	return PhaseFinalizing
}

// Progress 进度展示状态
type Progress struct {
	Percent   float64   `json:"percent"`
	Label     string    `json:"label"`
	StartedAt time.Time `json:"started_at"`
}

// Estimator 在没有服务端进度推送时，根据耗时估算进度
type Estimator struct {
	start       time.Time
	maxExpected time.Duration
	baseline    float64
	last        float64
}

// NewEstimator 创建估算器，maxExpected 为预计最长分析耗时
func NewEstimator(start time.Time, maxExpected time.Duration) *Estimator {
	return &Estimator{start: start, maxExpected: maxExpected}
}

// Start 估算开始时间
func (e *Estimator) Start() time.Time {
	return e.start
}

// Nudge 手动抬高基线进度
func (e *Estimator) Nudge(percent float64) {
	e.baseline = max(e.baseline, min(percent, WaitingCap))
}

// At 计算 now 时刻的进度：取基线与耗时估算的较大值，不超过 WaitingCap 且不回退
func (e *Estimator) At(now time.Time) float64 {
	var timeEstimate float64
	if elapsed := now.Sub(e.start); e.maxExpected > 0 && elapsed > 0 {
		timeEstimate = min(float64(elapsed)/float64(e.maxExpected)*TimeEstimateCap, TimeEstimateCap)
	}

	v := min(max(e.baseline, timeEstimate), WaitingCap)
	v = max(v, e.last)
	e.last = v
	return v
}
