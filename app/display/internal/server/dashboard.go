package server

import (
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/config"
	"github.com/iWorld-y/dash_analyst/app/display/internal/conf"
)

// NewDashboardConfig 将 internal/conf 转换为 dashbot 的 config.Config，未填写的项保留默认值
func NewDashboardConfig(bc *conf.Bootstrap) *config.Config {
	cfg := config.Default()

	if b := bc.Backend; b != nil {
		if b.BaseUrl != "" {
			cfg.Backend.BaseURL = b.BaseUrl
		}
		cfg.Backend.Discover = b.Discover
		if b.Host != "" {
			cfg.Backend.Host = b.Host
		}
		if len(b.Ports) > 0 {
			cfg.Backend.Ports = cfg.Backend.Ports[:0]
			for _, p := range b.Ports {
				cfg.Backend.Ports = append(cfg.Backend.Ports, int(p))
			}
		}
		setInt(&cfg.Backend.AnalysisTimeout, b.AnalysisTimeout)
		setInt(&cfg.Backend.TestTimeout, b.TestTimeout)
		setInt(&cfg.Backend.HealthTimeout, b.HealthTimeout)
		setInt(&cfg.Backend.ProbeTimeout, b.ProbeTimeout)
		if b.RequireHealth != nil {
			cfg.Backend.RequireHealth = *b.RequireHealth
		}
	}

	if p := bc.Progress; p != nil {
		setInt(&cfg.Progress.TickInterval, p.TickInterval)
		setInt(&cfg.Progress.MaxExpected, p.MaxExpected)
		setInt(&cfg.Progress.CompletionDelay, p.CompletionDelay)
		setInt(&cfg.Progress.AnimationDuration, p.AnimationDuration)
		setInt(&cfg.Progress.FrameInterval, p.FrameInterval)
		if p.AbortOnCancel != nil {
			cfg.Progress.AbortOnCancel = *p.AbortOnCancel
		}
	}

	if r := bc.Report; r != nil {
		if r.ProjectName != "" {
			cfg.Report.ProjectName = r.ProjectName
		}
		if r.Style != "" {
			cfg.Report.Style = r.Style
		}
	}

	return cfg
}

func setInt(dst *int, v int32) {
	if v > 0 {
		*dst = int(v)
	}
}
