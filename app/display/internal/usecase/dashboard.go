package usecase

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/presenter"
	"github.com/iWorld-y/dash_analyst/app/display/internal/conf"
	"github.com/iWorld-y/dash_analyst/app/display/internal/domain"
	"github.com/iWorld-y/dash_analyst/app/display/internal/repo"
)

const ReasonRateLimited = "RATE_LIMITED"

// DashboardUseCase 仪表盘业务逻辑：一个进程对应一个分析流程
type DashboardUseCase struct {
	repo      repo.AnalysisRepo
	presenter *presenter.Presenter
	limiter   *rate.Limiter
	log       *log.Helper
}

// NewDashboardUseCase 创建仪表盘业务逻辑实例
func NewDashboardUseCase(r repo.AnalysisRepo, opts presenter.Options, c *conf.Concurrency, logger log.Logger) *DashboardUseCase {
	helper := log.NewHelper(logger)
	p := presenter.New(presenter.Deps{
		Analyzer: r,
		View:     &logView{log: helper},
		Logger:   logger,
		Options:  opts,
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if c != nil && c.Rpm > 0 {
		burst := max(int(c.Qps), 1)
		limiter = rate.NewLimiter(rate.Limit(float64(c.Rpm)/60.0), burst)
		helper.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limiter.Limit(), burst)
	}

	return &DashboardUseCase{repo: r, presenter: p, limiter: limiter, log: helper}
}

// Server 后端状态
func (uc *DashboardUseCase) Server(ctx context.Context) *domain.ServerInfo {
	return uc.repo.ServerInfo(ctx)
}

// State 当前分析状态
func (uc *DashboardUseCase) State() presenter.Snapshot {
	return uc.presenter.Snapshot()
}

// Test 测试表格访问
func (uc *DashboardUseCase) Test(ctx context.Context, sheetsURL string) (*domain.TestOutcome, error) {
	return uc.repo.TestConnection(ctx, sheetsURL)
}

// Analyze 提交分析，受限流器约束
func (uc *DashboardUseCase) Analyze(form presenter.Form) error {
	if !uc.limiter.Allow() {
		uc.log.Warn("提交过于频繁，已拒绝")
		return errors.New(429, ReasonRateLimited, "too many analysis requests, try again later")
	}
	return uc.presenter.Submit(form)
}

// Cancel 取消当前分析
func (uc *DashboardUseCase) Cancel() bool {
	return uc.presenter.Cancel()
}

// StartNew 开始新的分析
func (uc *DashboardUseCase) StartNew() {
	uc.presenter.StartNew()
}

// Dismiss 关闭提示
func (uc *DashboardUseCase) Dismiss(id string) bool {
	return uc.presenter.Dismiss(id)
}

// Report 下载当前结果的报告
func (uc *DashboardUseCase) Report(ctx context.Context) (*presenter.Report, bool) {
	return uc.presenter.Download(ctx)
}

// Wait 等待当前分析周期结束
func (uc *DashboardUseCase) Wait(ctx context.Context) (presenter.Snapshot, error) {
	return uc.presenter.Wait(ctx)
}

// logView 将状态变化写入日志，页面通过轮询获取状态
type logView struct {
	presenter.NopView
	log *log.Helper
}

func (v *logView) OnState(s presenter.State) {
	v.log.Debugf("状态变更: %s", s)
}

func (v *logView) OnNotice(n presenter.Notice) {
	if n.Level == presenter.LevelError {
		v.log.Warnf("提示[%s]: %s", n.Level, n.Text)
		return
	}
	v.log.Infof("提示[%s]: %s", n.Level, n.Text)
}
