package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
	"github.com/iWorld-y/dash_analyst/app/display/internal/domain"
	"github.com/iWorld-y/dash_analyst/app/display/internal/repo"
)

type analysisRepo struct {
	*analysis.Client
	log *log.Helper
}

// NewAnalysisRepo 创建基于 HTTP 客户端的分析仓库
func NewAnalysisRepo(d *Data, logger log.Logger) repo.AnalysisRepo {
	return &analysisRepo{Client: d.client, log: log.NewHelper(logger)}
}

func (r *analysisRepo) ServerInfo(ctx context.Context) *domain.ServerInfo {
	info := &domain.ServerInfo{BaseURL: r.BaseURL()}
	h, err := r.Health(ctx)
	if err != nil {
		r.log.Warnf("后端健康检查失败: %v", err)
		info.Message = analysis.Message(err)
		return info
	}
	info.Online = true
	info.Version = h.Version
	info.Message = h.Message
	return info
}

func (r *analysisRepo) TestConnection(ctx context.Context, sheetsURL string) (*domain.TestOutcome, error) {
	res, err := r.Client.TestConnection(ctx, sheetsURL)
	if err != nil {
		return nil, err
	}
	return &domain.TestOutcome{Success: res.Success, Message: res.Message, SheetID: res.SheetID}, nil
}
