package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/config"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/presenter"
)

// NewClient 根据配置创建分析客户端；开启 discover 时探测本地端口
func NewClient(ctx context.Context, cfg config.BackendConfig, logger log.Logger) (*analysis.Client, error) {
	if cfg.BaseURL == "" && !cfg.Discover {
		return nil, fmt.Errorf("backend base url not configured")
	}

	client := analysis.NewClient(cfg.BaseURL, analysis.Options{
		AnalysisTimeout: seconds(cfg.AnalysisTimeout),
		TestTimeout:     seconds(cfg.TestTimeout),
		HealthTimeout:   seconds(cfg.HealthTimeout),
		ProbeTimeout:    seconds(cfg.ProbeTimeout),
	}, logger)

	if cfg.Discover {
		if _, err := client.FindActivePort(ctx, cfg.Host, cfg.Ports); err != nil {
			// 探测失败时保留配置的地址，由健康检查给出明确提示
			if cfg.BaseURL == "" {
				return nil, err
			}
			log.NewHelper(logger).Warnf("端口探测失败，继续使用 %s: %v", cfg.BaseURL, err)
		}
	}

	return client, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// PresenterOptions 将配置中的节奏参数转换为 presenter.Options
func PresenterOptions(cfg *config.Config) presenter.Options {
	return presenter.Options{
		TickInterval:      millis(cfg.Progress.TickInterval),
		MaxExpected:       millis(cfg.Progress.MaxExpected),
		CompletionDelay:   millis(cfg.Progress.CompletionDelay),
		AnimationDuration: millis(cfg.Progress.AnimationDuration),
		FrameInterval:     millis(cfg.Progress.FrameInterval),
		SkipHealthCheck:   !cfg.Backend.RequireHealth,
		DetachOnCancel:    !cfg.Progress.AbortOnCancel,
		ReportStyle:       cfg.Report.Style,
		ProjectName:       cfg.Report.ProjectName,
	}
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
