package conf

type Bootstrap struct {
	Server      *Server
	Backend     *Backend     `json:"backend"`
	Progress    *Progress    `json:"progress"`
	Report      *Report      `json:"report"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

// Backend 分析后端，超时单位为秒
type Backend struct {
	BaseUrl         string  `json:"base_url"`
	Discover        bool    `json:"discover"`
	Host            string  `json:"host"`
	Ports           []int32 `json:"ports"`
	AnalysisTimeout int32   `json:"analysis_timeout"`
	TestTimeout     int32   `json:"test_timeout"`
	HealthTimeout   int32   `json:"health_timeout"`
	ProbeTimeout    int32   `json:"probe_timeout"`
	RequireHealth   *bool   `json:"require_health"`
}

// Progress 进度节奏，单位为毫秒
type Progress struct {
	TickInterval      int32 `json:"tick_interval"`
	MaxExpected       int32 `json:"max_expected"`
	CompletionDelay   int32 `json:"completion_delay"`
	AnimationDuration int32 `json:"animation_duration"`
	FrameInterval     int32 `json:"frame_interval"`
	AbortOnCancel     *bool `json:"abort_on_cancel"`
}

type Report struct {
	ProjectName string `json:"project_name"`
	Style       string `json:"style"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Concurrency 提交分析的限流
type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}
