package tui

import (
	"log"
	"strconv"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type jobKind string

const (
	jobKindUpload   jobKind = "upload"
	jobKindChat     jobKind = "chat"
	jobKindLoadFile jobKind = "load-file"
)

type jobState int

const (
	jobRunning jobState = iota
	jobSucceeded
	jobFailed
)

func (s jobState) String() string {
	switch s {
	case jobSucceeded:
		return "ok"
	case jobFailed:
		return "failed"
	default:
		return "running"
	}
}

// job describes one unit of background work as seen by the status bar.
type job struct {
	ID       string
	Kind     jobKind
	State    jobState
	Started  time.Time
	Finished time.Time
	Err      error
}

func (j job) Elapsed() time.Duration {
	if j.Finished.IsZero() {
		return 0
	}
	return j.Finished.Sub(j.Started)
}

type jobStartedMsg struct {
	job job
}

// jobDoneMsg carries the runner's payload back into Update.
type jobDoneMsg struct {
	job     job
	payload tea.Msg
}

type jobRunner func() (tea.Msg, error)

type jobBus struct {
	seq atomic.Int64
}

func newJobBus() *jobBus {
	return &jobBus{}
}

// Start announces the job, then runs it off the update loop. Requests pass
// their session token as id so log lines can be matched; other jobs get a
// sequence number.
func (b *jobBus) Start(kind jobKind, id string, run jobRunner) tea.Cmd {
	if id == "" {
		id = string(kind) + "-" + strconv.FormatInt(b.seq.Add(1), 10)
	}
	j := job{ID: id, Kind: kind, State: jobRunning, Started: time.Now()}

	announce := func() tea.Msg { return jobStartedMsg{job: j} }
	execute := func() tea.Msg {
		payload, err := run()
		done := j
		done.Finished = time.Now()
		done.Err = err
		done.State = jobSucceeded
		if err != nil {
			done.State = jobFailed
		}
		log.Printf("[jobs] %s %s %s (duration=%s, err=%v)", kind, id, done.State, done.Elapsed(), err)
		return jobDoneMsg{job: done, payload: payload}
	}
	return tea.Sequence(announce, execute)
}
