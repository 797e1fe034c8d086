package repo

import (
	"context"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/presenter"
	"github.com/iWorld-y/dash_analyst/app/display/internal/domain"
)

// AnalysisRepo 分析后端仓库接口
type AnalysisRepo interface {
	presenter.Analyzer
	// ServerInfo 获取后端地址与版本，后端不可达时 Online 为 false
	ServerInfo(ctx context.Context) *domain.ServerInfo
	// TestConnection 测试后端能否访问表格
	TestConnection(ctx context.Context, sheetsURL string) (*domain.TestOutcome, error)
}
