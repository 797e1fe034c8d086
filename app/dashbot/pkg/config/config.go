package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// 环境变量前缀，用于覆盖配置文件中的同名项
const envPrefix = "DASHBOT_"

// Config 项目配置结构体
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Progress ProgressConfig `yaml:"progress"`
	Report   ReportConfig   `yaml:"report"`
	Log      LogConfig      `yaml:"log"`
}

// BackendConfig 分析后端相关配置
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// Discover 为 true 时依次探测 Host:Ports 并采用第一个健康的端口
	Discover bool   `yaml:"discover"`
	Host     string `yaml:"host"`
	Ports    []int  `yaml:"ports"`
	// 以下超时单位均为秒
	AnalysisTimeout int  `yaml:"analysis_timeout"`
	TestTimeout     int  `yaml:"test_timeout"`
	HealthTimeout   int  `yaml:"health_timeout"`
	ProbeTimeout    int  `yaml:"probe_timeout"`
	RequireHealth   bool `yaml:"require_health"`
}

// ProgressConfig 进度模拟与结果动画配置 (毫秒)
type ProgressConfig struct {
	TickInterval      int  `yaml:"tick_interval"`
	MaxExpected       int  `yaml:"max_expected"`
	CompletionDelay   int  `yaml:"completion_delay"`
	AnimationDuration int  `yaml:"animation_duration"`
	FrameInterval     int  `yaml:"frame_interval"`
	AbortOnCancel     bool `yaml:"abort_on_cancel"`
}

// ReportConfig 报告相关配置
type ReportConfig struct {
	ProjectName string `yaml:"project_name"`
	Style       string `yaml:"style"`
	OutputDir   string `yaml:"output_dir"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:         "http://localhost:3001",
			Host:            "localhost",
			Ports:           []int{3001, 3002, 3003, 3004},
			AnalysisTimeout: 180,
			TestTimeout:     35,
			HealthTimeout:   5,
			ProbeTimeout:    2,
			RequireHealth:   true,
		},
		Progress: ProgressConfig{
			TickInterval:      1000,
			MaxExpected:       120000,
			CompletionDelay:   500,
			AnimationDuration: 800,
			FrameInterval:     50,
			AbortOnCancel:     true,
		},
		Report: ReportConfig{
			ProjectName: "Análise NPS",
			Style:       "mdo_weasy",
			OutputDir:   ".",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig 从指定路径加载配置，未填写的字段保留默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv 读取 envFile (可选) 与进程环境变量，覆盖后端地址与日志级别
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := gotenv.Load(envFile); err != nil {
				return err
			}
		}
	}

	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.Backend.BaseURL = v
		c.Backend.Discover = false
	}
	if v := os.Getenv(envPrefix + "PORTS"); v != "" {
		var ports []int
		for _, p := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return err
			}
			ports = append(ports, n)
		}
		c.Backend.Ports = ports
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		c.Report.OutputDir = v
	}
	return nil
}
