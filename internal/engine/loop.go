package engine

import (
	"fmt"
	"time"
)

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler arranges for f to run after d. Callbacks run on their own
// goroutine and must post back into the engine loop before touching state.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// run executes posted tasks one at a time until Stop is called.
func (e *Engine) run() {
	defer close(e.stopped)

	for {
		select {
		case task := <-e.tasks:
			e.exec(task)
		case <-e.quit:
			return
		}
	}
}

func (e *Engine) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Recovered panic in engine task")
		}
	}()
	task()
}

// do runs f on the loop and waits for it to finish. It must never be called
// from inside a task.
func (e *Engine) do(f func()) bool {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		f()
	}

	select {
	case e.tasks <- task:
	case <-e.quit:
		return false
	}

	<-done
	return true
}

// after schedules f onto the loop once d has elapsed.
func (e *Engine) after(d time.Duration, f func()) Timer {
	return e.scheduler.AfterFunc(d, func() {
		e.do(f)
	})
}
