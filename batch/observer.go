package batch

// An Observer receives attempt lifecycle events for live progress display.
// Calls are made synchronously from scheduler workers, so implementations
// should be quick; they are best-effort, and a panicking observer is
// recovered and ignored rather than affecting scheduling.
type Observer interface {
	AttemptStarted(item Item, attempt int)
	AttemptFinished(outcome AttemptOutcome)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) AttemptStarted(Item, int)       {}
func (NopObserver) AttemptFinished(AttemptOutcome) {}

func (s *Scheduler) notifyStarted(item Item, attempt int) {
	defer s.recoverObserver()
	s.observer.AttemptStarted(item, attempt)
}

func (s *Scheduler) notifyFinished(outcome AttemptOutcome) {
	defer s.recoverObserver()
	s.observer.AttemptFinished(outcome)
}

func (s *Scheduler) recoverObserver() {
	if r := recover(); r != nil {
		s.log.Debugw("observer panicked", "panic", r)
	}
}

var _ Observer = NopObserver{}
