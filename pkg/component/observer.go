package component

import "time"

// Commit outcomes reported in CommitInfo.
const (
	OutcomeCommitted = "committed"
	OutcomeFailed    = "failed"
	OutcomeAdopted   = "adopted" // merged into another batch
	OutcomeAbandoned = "abandoned"
)

// RenderInfo describes one render function call.
type RenderInfo struct {
	App       string
	Node      NodeID
	Component string
	Duration  time.Duration
	Err       error
}

// RootInfo describes a newly created batch.
type RootInfo struct {
	App       string
	Root      FiberID
	Component string
	Mount     bool
}

// CommitInfo describes how a batch ended.
type CommitInfo struct {
	App       string
	Root      FiberID
	Component string
	Mount     bool
	Outcome   string
	Fibers    int // fibers that belonged to the batch
	Destroyed int // destroyed hooks flushed
	Start     time.Time
	Duration  time.Duration // batch creation to end
	Apply     time.Duration // time spent in the commit itself
	Err       error
}

// Observer receives scheduler events. Methods are called on the loop
// goroutine and must not block.
type Observer interface {
	RootStarted(RootInfo)
	RenderFinished(RenderInfo)
	CommitFinished(CommitInfo)
	FibersCancelled(app string, n int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RootStarted(RootInfo)        {}
func (NopObserver) RenderFinished(RenderInfo)   {}
func (NopObserver) CommitFinished(CommitInfo)   {}
func (NopObserver) FibersCancelled(string, int) {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) RootStarted(info RootInfo) {
	for _, obs := range o {
		obs.RootStarted(info)
	}
}

func (o Observers) RenderFinished(info RenderInfo) {
	for _, obs := range o {
		obs.RenderFinished(info)
	}
}

func (o Observers) CommitFinished(info CommitInfo) {
	for _, obs := range o {
		obs.CommitFinished(info)
	}
}

func (o Observers) FibersCancelled(app string, n int) {
	for _, obs := range o {
		obs.FibersCancelled(app, n)
	}
}
