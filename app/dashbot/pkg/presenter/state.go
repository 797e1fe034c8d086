package presenter

// State 分析周期所处的阶段
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateInFlight   State = "in_flight"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Active 是否有分析正在进行
func (s State) Active() bool {
	return s == StateSubmitting || s == StateInFlight
}

// ResultView 结果页展示内容
type ResultView struct {
	Metrics     MetricsView `json:"metrics"`
	Animating   bool        `json:"animating"`
	ReportFile  string      `json:"report_file"`
	Description string      `json:"description"`
}

// Snapshot Presenter 当前状态的只读副本
type Snapshot struct {
	CycleID   string      `json:"cycle_id,omitempty"`
	State     State       `json:"state"`
	Progress  Progress    `json:"progress"`
	Ticking   bool        `json:"ticking"`
	Result    *ResultView `json:"result,omitempty"`
	LastError string      `json:"last_error,omitempty"`
	Notices   []Notice    `json:"notices"`
	Form      Form        `json:"form"`
	FormCheck FormCheck   `json:"form_check"`
}
