package presenter

// View 接收 Presenter 的界面更新。
// 所有方法都在 Presenter 持锁期间按顺序调用，实现中不得回调 Presenter。
type View interface {
	OnState(s State)
	OnProgress(p Progress)
	OnResult(r ResultView)
	OnNotice(n Notice)
}

// NopView 不做任何展示
type NopView struct{}

func (NopView) OnState(State)       {}
func (NopView) OnProgress(Progress) {}
func (NopView) OnResult(ResultView) {}
func (NopView) OnNotice(Notice)     {}
