package presenter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	healthy bool
	// healthGate 非空时健康检查阻塞到其关闭
	healthGate chan struct{}
	healthCtx  context.Context
	gate       chan struct{}
	result     *analysis.Result
	err        error
	calls      int
	requests   []analysis.Request
	returned   chan struct{}
	reports    map[string][]byte
	fetched    []string
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		healthy:  true,
		returned: make(chan struct{}, 8),
		reports:  map[string][]byte{},
	}
}

func (f *fakeAnalyzer) SubmitAnalysis(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	gate, res, err := f.gate, f.result, f.err
	f.mu.Unlock()

	defer func() { f.returned <- struct{}{} }()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return res, err
}

func (f *fakeAnalyzer) CheckHealth(ctx context.Context) bool {
	f.mu.Lock()
	f.healthCtx = ctx
	gate := f.healthGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

func (f *fakeAnalyzer) probeCtx() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthCtx
}

func (f *fakeAnalyzer) FetchReportBytes(ctx context.Context, name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, name)
	data, ok := f.reports[name]
	return data, ok
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type progressEvent struct {
	state   State
	percent float64
}

type recordingView struct {
	mu       sync.Mutex
	state    State
	states   []State
	progress []progressEvent
	results  []ResultView
	notices  []Notice
}

func (v *recordingView) OnState(s State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = s
	v.states = append(v.states, s)
}

func (v *recordingView) OnProgress(p Progress) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.progress = append(v.progress, progressEvent{state: v.state, percent: p.Percent})
}

func (v *recordingView) OnResult(r ResultView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = append(v.results, r)
}

func (v *recordingView) OnNotice(n Notice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, n)
}

func (v *recordingView) progressEvents() []progressEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]progressEvent(nil), v.progress...)
}

func fastOptions() Options {
	return Options{
		TickInterval:      2 * time.Millisecond,
		MaxExpected:       100 * time.Millisecond,
		CompletionDelay:   10 * time.Millisecond,
		AnimationDuration: 30 * time.Millisecond,
		FrameInterval:     5 * time.Millisecond,
		NoticeTTL:         time.Second,
	}
}

func newTestPresenter(a *fakeAnalyzer, v View, opts Options) *Presenter {
	return New(Deps{Analyzer: a, View: v, Logger: log.DefaultLogger, Options: opts})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitCycle(t *testing.T, p *Presenter) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	return s
}

func urlForm() Form {
	f := DefaultForm()
	f.SheetsURL = sheetsURL
	return f
}

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Success:    true,
		Metrics:    analysis.Metrics{NPSScore: 72, TotalResponses: 150, AverageRating: 8.3, SellerCount: 12},
		ReportFile: "r1.pdf",
	}
}

func TestPresenter_CompletedFlow(t *testing.T) {
	a := newFakeAnalyzer()
	a.gate = make(chan struct{})
	a.result = sampleResult()
	a.reports["r1.pdf"] = []byte("%PDF")
	v := &recordingView{}
	p := newTestPresenter(a, v, fastOptions())

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, "in flight", func() bool { return p.Snapshot().State == StateInFlight })
	time.Sleep(60 * time.Millisecond)
	close(a.gate)

	s := waitCycle(t, p)
	if s.State != StateCompleted {
		t.Fatalf("State = %s, want completed", s.State)
	}
	if s.Progress.Percent != CompletePercent {
		t.Errorf("Progress = %v, want 100", s.Progress.Percent)
	}
	if s.Ticking {
		t.Error("ticker still running after completion")
	}
	if s.Result == nil {
		t.Fatal("Result view missing")
	}
	want := MetricsView{NPSScore: "72", TotalResponses: "150", AverageRating: "8.3", SellerCount: "12"}
	if s.Result.Metrics != want || s.Result.Animating {
		t.Errorf("Result = %+v, want final metrics %+v", s.Result, want)
	}
	if s.Result.ReportFile != "r1.pdf" {
		t.Errorf("ReportFile = %q, want r1.pdf", s.Result.ReportFile)
	}

	events := v.progressEvents()
	last, inflight := 0.0, 0
	for _, e := range events {
		if e.state != StateInFlight {
			continue
		}
		inflight++
		if e.percent < last {
			t.Errorf("progress decreased %v -> %v", last, e.percent)
		}
		if e.percent > WaitingCap {
			t.Errorf("progress %v above %v before response", e.percent, WaitingCap)
		}
		last = e.percent
	}
	if inflight < 2 {
		t.Errorf("expected several ticks while in flight, got %d", inflight)
	}

	// 完成后旧计时器不再写进度
	time.Sleep(20 * time.Millisecond)
	if n := len(v.progressEvents()); n != len(events) {
		t.Errorf("progress written after completion: %d -> %d", len(events), n)
	}

	report, ok := p.Download(context.Background())
	if !ok || report.Name != "r1.pdf" || string(report.Data) != "%PDF" {
		t.Errorf("Download() = %+v, %v", report, ok)
	}
}

func TestPresenter_SecondSubmitWhileActive(t *testing.T) {
	a := newFakeAnalyzer()
	a.gate = make(chan struct{})
	p := newTestPresenter(a, nil, fastOptions())

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := p.Submit(urlForm()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Submit() error = %v, want ErrBusy", err)
	}
	waitFor(t, "request dispatched", func() bool { return a.callCount() == 1 })
	time.Sleep(10 * time.Millisecond)
	if n := a.callCount(); n != 1 {
		t.Errorf("SubmitAnalysis called %d times, want 1", n)
	}

	if !p.Cancel() {
		t.Fatal("Cancel() = false while in flight")
	}
	<-a.returned
	s := p.Snapshot()
	if s.State != StateIdle || s.LastError != "" || s.Result != nil {
		t.Errorf("after cancel snapshot = %+v", s)
	}
	if p.Cancel() {
		t.Error("Cancel() = true with nothing running")
	}
}

func TestPresenter_CancelWithoutAbortSuppressesResponse(t *testing.T) {
	a := newFakeAnalyzer()
	a.gate = make(chan struct{})
	a.result = sampleResult()
	opts := fastOptions()
	opts.DetachOnCancel = true
	v := &recordingView{}
	p := newTestPresenter(a, v, opts)

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, "request dispatched", func() bool { return a.callCount() == 1 })
	p.Cancel()
	before := len(v.progressEvents())

	close(a.gate)
	<-a.returned
	time.Sleep(30 * time.Millisecond)

	s := p.Snapshot()
	if s.State != StateIdle || s.Result != nil || p.Result() != nil {
		t.Errorf("late response leaked into state: %+v", s)
	}
	if n := len(v.progressEvents()); n != before {
		t.Errorf("progress written after cancel: %d -> %d", before, n)
	}
}

func TestPresenter_ServerErrorReturnsToIdle(t *testing.T) {
	a := newFakeAnalyzer()
	a.err = analysis.ErrorServer(500, "boom")
	v := &recordingView{}
	p := newTestPresenter(a, v, fastOptions())

	form := urlForm()
	form.ProjectName = "Loja Centro"
	if err := p.Submit(form); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	s := waitCycle(t, p)

	if s.State != StateIdle {
		t.Errorf("State = %s, want idle", s.State)
	}
	if !strings.Contains(s.LastError, "500") {
		t.Errorf("LastError = %q, want status code", s.LastError)
	}
	if s.Form.ProjectName != "Loja Centro" || !s.FormCheck.Ready {
		t.Errorf("form not kept editable: %+v / %+v", s.Form, s.FormCheck)
	}
	if len(s.Notices) != 1 || s.Notices[0].Level != LevelError {
		t.Errorf("Notices = %+v", s.Notices)
	}

	v.mu.Lock()
	states := append([]State(nil), v.states...)
	v.mu.Unlock()
	if len(states) < 2 || states[len(states)-2] != StateFailed || states[len(states)-1] != StateIdle {
		t.Errorf("state sequence = %v, want ... failed, idle", states)
	}
}

func TestPresenter_TimeoutMessageDistinct(t *testing.T) {
	messages := map[string]string{}
	for name, err := range map[string]error{
		"timeout": analysis.ErrorTimeout("request took too long (maximum %s)", "3m0s"),
		"server":  analysis.ErrorServer(502, "bad gateway"),
	} {
		a := newFakeAnalyzer()
		a.err = err
		p := newTestPresenter(a, nil, fastOptions())
		if err := p.Submit(urlForm()); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		messages[name] = waitCycle(t, p).LastError
	}

	if !strings.Contains(messages["timeout"], "took too long") {
		t.Errorf("timeout message = %q", messages["timeout"])
	}
	if messages["timeout"] == messages["server"] {
		t.Errorf("timeout and server errors share message %q", messages["timeout"])
	}
}

func TestPresenter_HealthCheckFailsFast(t *testing.T) {
	a := newFakeAnalyzer()
	a.healthy = false
	p := newTestPresenter(a, nil, fastOptions())

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	s := waitCycle(t, p)
	if s.State != StateIdle || !strings.Contains(s.LastError, "not reachable") {
		t.Errorf("snapshot = %+v", s)
	}
	if n := a.callCount(); n != 0 {
		t.Errorf("SubmitAnalysis called %d times after failed health check", n)
	}
}

func TestPresenter_ZeroOptionsProbeHealthAndAbort(t *testing.T) {
	a := newFakeAnalyzer()
	a.healthy = false
	p := newTestPresenter(a, nil, Options{})

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	s := waitCycle(t, p)
	if !strings.Contains(s.LastError, "not reachable") || a.callCount() != 0 {
		t.Errorf("health check skipped with zero options: %+v", s)
	}

	a.mu.Lock()
	a.healthy = true
	a.gate = make(chan struct{})
	a.mu.Unlock()
	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, "request dispatched", func() bool { return a.callCount() == 1 })
	p.Cancel()
	select {
	case <-a.returned:
	case <-time.After(2 * time.Second):
		t.Fatal("request not aborted on cancel with zero options")
	}
}

func TestPresenter_CancelDuringHealthCheckReleasesContext(t *testing.T) {
	a := newFakeAnalyzer()
	a.healthGate = make(chan struct{})
	opts := fastOptions()
	opts.DetachOnCancel = true
	p := newTestPresenter(a, nil, opts)

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, "health check started", func() bool { return a.probeCtx() != nil })
	if !p.Cancel() {
		t.Fatal("Cancel() = false during health check")
	}
	close(a.healthGate)

	ctx := a.probeCtx()
	waitFor(t, "cycle context canceled", func() bool { return ctx.Err() != nil })
	time.Sleep(20 * time.Millisecond)
	if n := a.callCount(); n != 0 {
		t.Errorf("SubmitAnalysis called %d times after cancel", n)
	}
	if s := p.Snapshot(); s.State != StateIdle {
		t.Errorf("State = %s, want idle", s.State)
	}
}

func TestPresenter_ConfiguredProjectName(t *testing.T) {
	a := newFakeAnalyzer()
	a.result = sampleResult()
	opts := fastOptions()
	opts.ProjectName = "Loja Norte"
	p := newTestPresenter(a, nil, opts)

	if got := p.Form().ProjectName; got != "Loja Norte" {
		t.Errorf("initial ProjectName = %q", got)
	}

	form := urlForm()
	form.ProjectName = "  "
	if err := p.Submit(form); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitCycle(t, p)
	a.mu.Lock()
	got := a.requests[0].ProjectName
	a.mu.Unlock()
	if got != "Loja Norte" {
		t.Errorf("request ProjectName = %q", got)
	}

	p.StartNew()
	if got := p.Form().ProjectName; got != "Loja Norte" {
		t.Errorf("ProjectName after StartNew = %q", got)
	}
}

func TestPresenter_InvalidFormRejected(t *testing.T) {
	a := newFakeAnalyzer()
	p := newTestPresenter(a, nil, fastOptions())

	form := DefaultForm()
	form.SheetsURL = "https://example.com/sheet"
	err := p.Submit(form)
	if !analysis.IsValidation(err) {
		t.Fatalf("Submit() error = %v, want validation", err)
	}
	s := p.Snapshot()
	if s.State != StateIdle || len(s.Notices) != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	if n := a.callCount(); n != 0 {
		t.Errorf("SubmitAnalysis called %d times", n)
	}
}

func TestPresenter_StartNewClears(t *testing.T) {
	a := newFakeAnalyzer()
	a.result = sampleResult()
	p := newTestPresenter(a, nil, fastOptions())

	form := urlForm()
	form.DateFilter = true
	form.DateStart = "2025-01-01"
	if err := p.Submit(form); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if s := waitCycle(t, p); s.State != StateCompleted {
		t.Fatalf("State = %s, want completed", s.State)
	}

	p.StartNew()
	s := p.Snapshot()
	if s.State != StateIdle || s.Result != nil || s.Progress != (Progress{}) || s.CycleID != "" {
		t.Errorf("after StartNew snapshot = %+v", s)
	}
	if s.Form != DefaultForm() {
		t.Errorf("Form = %+v, want defaults", s.Form)
	}
	if _, ok := p.Download(context.Background()); ok {
		t.Error("Download() succeeded without a result")
	}
}

func TestPresenter_ResubmitFromCompleted(t *testing.T) {
	a := newFakeAnalyzer()
	a.result = sampleResult()
	p := newTestPresenter(a, nil, fastOptions())

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	first := waitCycle(t, p)

	a.mu.Lock()
	a.result = &analysis.Result{Success: true, ReportFile: "r2.pdf"}
	a.mu.Unlock()
	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("resubmit error = %v", err)
	}
	second := waitCycle(t, p)
	if second.CycleID == first.CycleID || second.Result == nil || second.Result.ReportFile != "r2.pdf" {
		t.Errorf("second cycle = %+v", second)
	}
}

func TestPresenter_NudgeStopsTickingAtCap(t *testing.T) {
	a := newFakeAnalyzer()
	a.gate = make(chan struct{})
	opts := fastOptions()
	opts.MaxExpected = time.Hour
	p := newTestPresenter(a, nil, opts)

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, "in flight", func() bool { return p.Snapshot().State == StateInFlight })
	p.Nudge(150)
	waitFor(t, "ticker stop", func() bool { return !p.Snapshot().Ticking })

	if s := p.Snapshot(); s.Progress.Percent != WaitingCap {
		t.Errorf("Progress = %v, want %v", s.Progress.Percent, WaitingCap)
	}
	p.Cancel()
}

func TestPresenter_DownloadFailureIsNonFatal(t *testing.T) {
	a := newFakeAnalyzer()
	a.result = sampleResult()
	p := newTestPresenter(a, nil, fastOptions())

	if err := p.Submit(urlForm()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitCycle(t, p)

	if _, ok := p.Download(context.Background()); ok {
		t.Error("Download() = ok for a missing report")
	}
	s := p.Snapshot()
	if s.State != StateCompleted || s.Result == nil {
		t.Errorf("download failure disturbed result: %+v", s)
	}
}

func TestPresenter_NoticesExpireAndDismiss(t *testing.T) {
	var mu sync.Mutex
	now := time.Unix(1000, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	p := New(Deps{Analyzer: newFakeAnalyzer(), Options: Options{NoticeTTL: 5 * time.Second}, Now: clock})

	p.Submit(DefaultForm())
	p.Submit(DefaultForm())
	notices := p.Snapshot().Notices
	if len(notices) != 2 {
		t.Fatalf("Notices = %d, want 2", len(notices))
	}
	if !p.Dismiss(notices[0].ID) || p.Dismiss("missing") {
		t.Error("Dismiss() result mismatch")
	}

	mu.Lock()
	now = now.Add(5 * time.Second)
	mu.Unlock()
	if n := len(p.Snapshot().Notices); n != 0 {
		t.Errorf("Notices after ttl = %d, want 0", n)
	}
}
