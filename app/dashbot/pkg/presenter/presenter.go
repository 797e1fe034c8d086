package presenter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
)

const (
	ReasonBusy = "ANALYSIS_IN_PROGRESS"

	defaultDescription = "Report generated successfully"
)

// ErrBusy 已有分析在进行中
var ErrBusy = errors.Conflict(ReasonBusy, "an analysis is already running")

// Analyzer Presenter 依赖的后端能力，由 analysis.Client 实现
type Analyzer interface {
	SubmitAnalysis(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	CheckHealth(ctx context.Context) bool
	FetchReportBytes(ctx context.Context, fileName string) ([]byte, bool)
}

var _ Analyzer = (*analysis.Client)(nil)

// Options Presenter 的节奏参数
type Options struct {
	TickInterval      time.Duration
	MaxExpected       time.Duration
	CompletionDelay   time.Duration
	AnimationDuration time.Duration
	FrameInterval     time.Duration
	NoticeTTL         time.Duration
	// SkipHealthCheck 提交前不探测后端存活
	SkipHealthCheck bool
	// DetachOnCancel 取消时不中止网络请求，迟到的响应被丢弃
	DetachOnCancel bool
	// ReportStyle 报告模板，为空时使用 analysis.DefaultReportStyle
	ReportStyle string
	// ProjectName 新表单的项目名称，为空时使用 analysis.DefaultProjectName
	ProjectName string
}

// DefaultOptions 默认节奏
func DefaultOptions() Options {
	return Options{
		TickInterval:      time.Second,
		MaxExpected:       120 * time.Second,
		CompletionDelay:   500 * time.Millisecond,
		AnimationDuration: 800 * time.Millisecond,
		FrameInterval:     50 * time.Millisecond,
		NoticeTTL:         5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	if o.MaxExpected <= 0 {
		o.MaxExpected = d.MaxExpected
	}
	if o.CompletionDelay < 0 {
		o.CompletionDelay = 0
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = d.FrameInterval
	}
	if o.NoticeTTL <= 0 {
		o.NoticeTTL = d.NoticeTTL
	}
	return o
}

// Deps 启动时构造一次并传给 Presenter 的上下文
type Deps struct {
	Analyzer Analyzer
	View     View
	Logger   log.Logger
	Options  Options
	// Now 时钟，测试时可替换
	Now func() time.Time
}

// Report 下载得到的报告
type Report struct {
	Name string
	Data []byte
}

// cycle 一次分析周期
type cycle struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	estimator *Estimator
	ticking   bool
	stopTick  chan struct{}
	tickOnce  sync.Once
	quit      chan struct{}
	quitOnce  sync.Once
	done      chan struct{}
	doneOnce  sync.Once
}

func (c *cycle) stopTicker() {
	c.ticking = false
	c.tickOnce.Do(func() { close(c.stopTick) })
}

func (c *cycle) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Presenter 分析流程状态机：Idle → Submitting → InFlight → Completed | Failed(→ Idle)
type Presenter struct {
	analyzer Analyzer
	view     View
	opts     Options
	now      func() time.Time
	log      *log.Helper

	mu         sync.Mutex
	state      State
	form       Form
	cycle      *cycle
	progress   Progress
	result     *analysis.Result
	resultView *ResultView
	lastErr    string
	notices    noticeBoard
}

// New 创建 Presenter
func New(deps Deps) *Presenter {
	opts := deps.Options.withDefaults()
	p := &Presenter{
		analyzer: deps.Analyzer,
		view:     deps.View,
		opts:     opts,
		now:      deps.Now,
		state:    StateIdle,
		notices:  noticeBoard{ttl: opts.NoticeTTL},
	}
	p.form = p.blankForm()
	if p.view == nil {
		p.view = NopView{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	p.log = log.NewHelper(log.With(logger, "module", "presenter"))
	return p
}

// Submit 校验表单并开始一次分析，分析在后台进行
func (p *Presenter) Submit(form Form) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Active() {
		p.log.Warn("已有分析在进行中，忽略本次提交")
		return ErrBusy
	}

	if strings.TrimSpace(form.ProjectName) == "" {
		form.ProjectName = p.opts.ProjectName
	}
	req, err := form.Request()
	if err != nil {
		p.pushNoticeLocked(LevelError, describeError(err))
		return err
	}
	if p.opts.ReportStyle != "" {
		req.ReportStyle = p.opts.ReportStyle
	}

	// 从 Completed 直接重新提交时，丢弃上一轮的结果和动画
	if p.cycle != nil {
		p.abandonLocked(p.cycle)
	}
	p.form = form
	p.result, p.resultView, p.lastErr = nil, nil, ""

	// 网络请求的生命周期不跟随调用方，由 Cancel/StartNew 控制
	ctx, cancel := context.WithCancel(context.Background())
	c := &cycle{
		id:        uuid.NewString(),
		ctx:       ctx,
		cancel:    cancel,
		estimator: NewEstimator(p.now(), p.opts.MaxExpected),
		stopTick:  make(chan struct{}),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	p.cycle = c
	p.setStateLocked(StateSubmitting)
	p.setProgressLocked(0, "Starting analysis...")
	p.log.Infof("开始分析: cycle=%s, 输入=%s, 项目=%s", c.id, form.Method, req.ProjectName)

	go p.run(c, req)
	return nil
}

func (p *Presenter) run(c *cycle, req analysis.Request) {
	p.mu.Lock()
	if p.cycle != c {
		p.mu.Unlock()
		c.cancel()
		return
	}
	c.estimator.Nudge(InitialPercent)
	p.setProgressLocked(InitialPercent, "Checking server...")
	p.mu.Unlock()

	if !p.opts.SkipHealthCheck && !p.analyzer.CheckHealth(c.ctx) {
		p.fail(c, analysis.ErrorUnavailable("backend server is not running, start it and try again"))
		return
	}

	p.mu.Lock()
	if p.cycle != c {
		p.mu.Unlock()
		c.cancel()
		return
	}
	p.setStateLocked(StateInFlight)
	p.setProgressLocked(InitialPercent, PhaseFor(InitialPercent).String())
	c.ticking = true
	go p.tick(c)
	p.mu.Unlock()

	res, err := p.analyzer.SubmitAnalysis(c.ctx, req)
	if err == nil && res == nil {
		err = analysis.ErrorMalformed("empty response")
	}
	if err != nil {
		p.fail(c, err)
		return
	}
	p.complete(c, res)
}

// tick 周期性推进估算进度，直到被停止或达到等待上限
func (p *Presenter) tick(c *cycle) {
	t := time.NewTicker(p.opts.TickInterval)
	defer t.Stop()

	for {
		select {
		case <-c.stopTick:
			return
		case <-t.C:
			p.mu.Lock()
			if p.cycle != c || p.state != StateInFlight || !c.ticking {
				p.mu.Unlock()
				return
			}
			v := c.estimator.At(p.now())
			p.setProgressLocked(v, PhaseFor(v).String())
			if v >= WaitingCap {
				c.stopTicker()
			}
			p.mu.Unlock()
		}
	}
}

func (p *Presenter) fail(c *cycle, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cycle != c {
		c.cancel()
		p.log.Infof("丢弃已取消分析的错误: cycle=%s, err=%v", c.id, err)
		return
	}
	c.stopTicker()
	c.cancel()

	p.lastErr = describeError(err)
	p.log.Errorf("分析失败: cycle=%s, err=%v", c.id, err)
	p.setStateLocked(StateFailed)
	p.pushNoticeLocked(LevelError, p.lastErr)

	p.cycle = nil
	p.progress = Progress{}
	p.setStateLocked(StateIdle)
	c.finish()
}

func (p *Presenter) complete(c *cycle, res *analysis.Result) {
	p.mu.Lock()
	if p.cycle != c {
		p.mu.Unlock()
		c.cancel()
		p.log.Infof("丢弃已取消分析的响应: cycle=%s", c.id)
		return
	}
	// 先停计时器再写结果
	c.stopTicker()
	c.cancel()
	p.result = res
	p.setStateLocked(StateCompleted)
	p.setProgressLocked(CompletePercent, "Analysis complete!")
	p.log.Infof("分析完成: cycle=%s, 报告=%s, NPS=%.0f", c.id, res.ReportName(), res.Metrics.NPSScore)
	p.mu.Unlock()

	defer c.finish()

	select {
	case <-c.quit:
		return
	case <-time.After(p.opts.CompletionDelay):
	}

	p.mu.Lock()
	if p.cycle != c {
		p.mu.Unlock()
		return
	}
	view := &ResultView{
		ReportFile:  res.ReportName(),
		Description: res.Message,
		Animating:   p.opts.AnimationDuration > 0,
		Metrics:     FrameAt(res.Metrics, Fraction(0, p.opts.AnimationDuration)),
	}
	if view.Description == "" {
		view.Description = defaultDescription
	}
	p.resultView = view
	p.view.OnResult(*view)
	p.mu.Unlock()

	if p.opts.AnimationDuration > 0 {
		p.animate(c, res.Metrics)
	}
}

// animate 指标从 0 线性增长到目标值
func (p *Presenter) animate(c *cycle, m analysis.Metrics) {
	start := p.now()
	t := time.NewTicker(p.opts.FrameInterval)
	defer t.Stop()

	for {
		select {
		case <-c.quit:
			return
		case <-t.C:
			p.mu.Lock()
			if p.cycle != c || p.resultView == nil {
				p.mu.Unlock()
				return
			}
			f := Fraction(p.now().Sub(start), p.opts.AnimationDuration)
			p.resultView.Metrics = FrameAt(m, f)
			p.resultView.Animating = f < 1
			p.view.OnResult(*p.resultView)
			p.mu.Unlock()
			if f >= 1 {
				return
			}
		}
	}
}

// abandonLocked 让周期的后续回调全部失效
func (p *Presenter) abandonLocked(c *cycle) {
	c.stopTicker()
	c.quitOnce.Do(func() { close(c.quit) })
	if !p.opts.DetachOnCancel || !p.state.Active() {
		c.cancel()
	}
	c.finish()
}

// Nudge 抬高进度基线，不会超过等待上限
func (p *Presenter) Nudge(percent float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cycle == nil || !p.state.Active() {
		return
	}
	p.cycle.estimator.Nudge(percent)
	if p.state == StateInFlight {
		v := p.cycle.estimator.At(p.now())
		p.setProgressLocked(v, PhaseFor(v).String())
	}
}

// Cancel 取消进行中的分析并回到 Idle，没有进行中的分析时返回 false
func (p *Presenter) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.Active() || p.cycle == nil {
		return false
	}
	c := p.cycle
	p.abandonLocked(c)
	p.cycle = nil
	p.progress = Progress{}
	p.setStateLocked(StateIdle)
	p.pushNoticeLocked(LevelInfo, "Analysis canceled")
	p.log.Infof("分析已取消: cycle=%s, 中止请求=%v", c.id, !p.opts.DetachOnCancel)
	return true
}

func (p *Presenter) blankForm() Form {
	f := DefaultForm()
	if p.opts.ProjectName != "" {
		f.ProjectName = p.opts.ProjectName
	}
	return f
}

// StartNew 清空结果与进度，表单恢复默认值
func (p *Presenter) StartNew() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c := p.cycle; c != nil {
		p.abandonLocked(c)
	}
	p.cycle = nil
	p.result, p.resultView, p.lastErr = nil, nil, ""
	p.form = p.blankForm()
	p.notices.clear()
	p.progress = Progress{}
	p.view.OnProgress(p.progress)
	p.setStateLocked(StateIdle)
}

// Download 获取当前结果的报告，失败只会产生提示
func (p *Presenter) Download(ctx context.Context) (*Report, bool) {
	p.mu.Lock()
	var name string
	if p.state == StateCompleted && p.result != nil {
		name = p.result.ReportName()
	}
	if name == "" {
		p.pushNoticeLocked(LevelError, "No report available for download")
		p.mu.Unlock()
		return nil, false
	}
	p.mu.Unlock()

	data, ok := p.analyzer.FetchReportBytes(ctx, name)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !ok {
		p.pushNoticeLocked(LevelError, "Error downloading report")
		return nil, false
	}
	p.pushNoticeLocked(LevelSuccess, "Download started!")
	return &Report{Name: name, Data: data}, true
}

// Dismiss 关闭一条提示
func (p *Presenter) Dismiss(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notices.dismiss(id)
}

// Form 当前表单
func (p *Presenter) Form() Form {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// Snapshot 当前状态
func (p *Presenter) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		State:     p.state,
		Progress:  p.progress,
		LastError: p.lastErr,
		Notices:   p.notices.active(p.now()),
		Form:      p.form,
		FormCheck: p.form.Check(),
	}
	if p.cycle != nil {
		s.CycleID = p.cycle.id
		s.Ticking = p.cycle.ticking
	}
	if p.resultView != nil {
		rv := *p.resultView
		s.Result = &rv
	}
	return s
}

// Result 最近一次成功的原始结果
func (p *Presenter) Result() *analysis.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Wait 阻塞到当前周期结束 (完成动画、失败或被取消)
func (p *Presenter) Wait(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	c := p.cycle
	p.mu.Unlock()

	if c == nil {
		return p.Snapshot(), nil
	}
	select {
	case <-c.done:
		return p.Snapshot(), nil
	case <-ctx.Done():
		return p.Snapshot(), ctx.Err()
	}
}

func (p *Presenter) setStateLocked(s State) {
	p.state = s
	p.view.OnState(s)
}

func (p *Presenter) setProgressLocked(percent float64, label string) {
	p.progress = Progress{Percent: percent, Label: label}
	if p.cycle != nil {
		p.progress.StartedAt = p.cycle.estimator.Start()
	}
	p.view.OnProgress(p.progress)
}

func (p *Presenter) pushNoticeLocked(level Level, text string) {
	n := p.notices.push(level, text, p.now())
	p.view.OnNotice(n)
}
