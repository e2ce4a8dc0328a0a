package submit

import (
	"context"
	"sync"
	"time"

	"github.com/japaniel/jisho2anki/pkg/config"
	"github.com/japaniel/jisho2anki/pkg/jisho"
)

// DefaultResetDelay is how long a failure stays visible.
const DefaultResetDelay = 3 * time.Second

// State is what a status indicator shows.
type State string

const (
	Idle    State = "idle"
	Loading State = "loading"
)

// Indicator tracks the submission state of one entry. Created and
// Duplicate are final; Failed reverts to Idle after ResetDelay so the
// entry can be retried.
type Indicator struct {
	ResetDelay time.Duration
	// OnChange, if set, is called with every new state. It must not call
	// back into the Indicator.
	OnChange func(State)

	mu    sync.Mutex
	state State
	timer *time.Timer
}

// NewIndicator returns an idle indicator notifying onChange.
func NewIndicator(onChange func(State)) *Indicator {
	return &Indicator{ResetDelay: DefaultResetDelay, OnChange: onChange, state: Idle}
}

// State returns the current state.
func (ind *Indicator) State() State {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	if ind.state == "" {
		return Idle
	}
	return ind.state
}

// Begin moves an idle indicator to Loading. It returns false while a
// submission is in flight or after one already succeeded.
func (ind *Indicator) Begin() bool {
	ind.mu.Lock()
	if ind.state != "" && ind.state != Idle {
		ind.mu.Unlock()
		return false
	}
	ind.state = Loading
	ind.mu.Unlock()
	ind.notify(Loading)
	return true
}

// Finish shows the outcome of the submission started by Begin.
func (ind *Indicator) Finish(r Result) {
	st := State(r.Outcome)
	ind.mu.Lock()
	ind.state = st
	ind.mu.Unlock()
	ind.notify(st)

	if r.Outcome != Failed {
		return
	}
	ind.mu.Lock()
	defer ind.mu.Unlock()
	delay := ind.ResetDelay
	if delay <= 0 {
		delay = DefaultResetDelay
	}
	ind.timer = time.AfterFunc(delay, ind.reset)
}

// Abort returns a loading indicator to Idle, e.g. after a configuration
// error that never reached the backend.
func (ind *Indicator) Abort() {
	ind.mu.Lock()
	ind.state = Idle
	ind.mu.Unlock()
	ind.notify(Idle)
}

// Stop cancels a pending reset.
func (ind *Indicator) Stop() {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	if ind.timer != nil {
		ind.timer.Stop()
		ind.timer = nil
	}
}

func (ind *Indicator) reset() {
	ind.mu.Lock()
	if ind.state != State(Failed) {
		ind.mu.Unlock()
		return
	}
	ind.state = Idle
	ind.timer = nil
	ind.mu.Unlock()
	ind.notify(Idle)
}

func (ind *Indicator) notify(s State) {
	if ind.OnChange != nil {
		ind.OnChange(s)
	}
}

// Tracked runs p.Submit for e while ind shows its progress. It returns
// false without submitting when ind refuses to begin.
func Tracked(ctx context.Context, p *Pipeline, ind *Indicator, e *jisho.Entry, cfg config.MappingConfig) (Result, bool, error) {
	if !ind.Begin() {
		return Result{}, false, nil
	}
	r, err := p.Submit(ctx, e, cfg)
	if err != nil {
		ind.Abort()
		return Result{}, true, err
	}
	ind.Finish(r)
	return r, true, nil
}
