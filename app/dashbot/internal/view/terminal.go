package view

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/presenter"
)

// Terminal 在终端展示分析进度和结果
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
	log     *log.Helper
	// 进度日志节流
	progressLog rate.Sometimes
	printed     bool
}

// NewTerminal 创建终端视图，interactive 为 false 时不显示 spinner，仅输出节流后的进度日志
func NewTerminal(out io.Writer, interactive bool, logger log.Logger) *Terminal {
	t := &Terminal{
		out:         out,
		log:         log.NewHelper(log.With(logger, "module", "view/terminal")),
		progressLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	if interactive {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		s.Prefix = "  "
		_ = s.Color("cyan", "bold")
		t.spinner = s
	}
	return t
}

func (t *Terminal) OnState(s presenter.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch s {
	case presenter.StateSubmitting:
		t.printed = false
		if t.spinner != nil {
			t.spinner.Start()
		}
	case presenter.StateCompleted, presenter.StateFailed, presenter.StateIdle:
		t.stopSpinner()
	}
}

func (t *Terminal) OnProgress(p presenter.Progress) {
	if p.Label == "" {
		return
	}
	line := fmt.Sprintf("%3.0f%% %s", p.Percent, p.Label)

	t.mu.Lock()
	if t.spinner != nil {
		t.spinner.Lock()
		t.spinner.Suffix = "  " + line
		t.spinner.Unlock()
	}
	t.mu.Unlock()

	t.progressLog.Do(func() {
		t.log.Infof("分析进度: %s", line)
	})
}

func (t *Terminal) OnResult(r presenter.ResultView) {
	// 只打印动画结束后的最终结果
	if r.Animating {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.printed {
		return
	}
	t.printed = true
	t.stopSpinner()

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", r.Description)
	fmt.Fprintf(&b, "  %-16s %s\n", "NPS Score", r.Metrics.NPSScore)
	fmt.Fprintf(&b, "  %-16s %s\n", "Responses", r.Metrics.TotalResponses)
	fmt.Fprintf(&b, "  %-16s %s\n", "Average Rating", r.Metrics.AverageRating)
	fmt.Fprintf(&b, "  %-16s %s\n", "Sellers", r.Metrics.SellerCount)
	if r.ReportFile != "" {
		fmt.Fprintf(&b, "  %-16s %s\n", "Report", r.ReportFile)
	}
	io.WriteString(t.out, b.String())
}

func (t *Terminal) OnNotice(n presenter.Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.spinner != nil && t.spinner.Active() {
		t.spinner.Lock()
		defer t.spinner.Unlock()
	}
	fmt.Fprintf(t.out, "\n[%s] %s\n", strings.ToUpper(string(n.Level)), n.Text)
}

// Close 停止 spinner
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopSpinner()
}

func (t *Terminal) stopSpinner() {
	if t.spinner != nil && t.spinner.Active() {
		t.spinner.Stop()
	}
}

var _ presenter.View = (*Terminal)(nil)
