// Package session holds the interaction state of one client view: the
// selected file, both question inputs, the last response, and whether a
// request is in flight.
package session

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/csheth/datachat/internal/backend"
)

// DefaultTimeout bounds a single request unless configured otherwise.
const DefaultTimeout = 2 * time.Minute

// Kind names the two actions.
type Kind string

const (
	KindUpload Kind = "upload"
	KindChat   Kind = "chat"
)

// Status tracks one exchange in the history.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAnswered   Status = "answered"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
	StatusSuperseded Status = "superseded"
)

// Exchange is one dispatched request and its outcome.
type Exchange struct {
	ID          string
	Kind        Kind
	FileName    string
	Question    string
	Answer      string
	Err         string
	Status      Status
	AskedAt     time.Time
	CompletedAt time.Time
}

// Duration is zero while the exchange is pending.
func (e Exchange) Duration() time.Duration {
	if e.CompletedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.AskedAt)
}

// State is a read-only copy of the controller state.
type State struct {
	FileName     string
	FileSize     int64
	HasFile      bool
	FileQuestion string
	ChatQuestion string
	Response     string
	Busy         bool
	BusyKind     Kind
	RequestID    string
	History      []Exchange
}

// Config wires dependencies into a Controller.
type Config struct {
	Client  backend.Client
	Timeout time.Duration
	NewID   func() string
	Now     func() time.Time
}

// Controller owns the state of one view. It is driven from a single event
// loop and is not safe for concurrent use; Pending.Run is.
type Controller struct {
	client  backend.Client
	timeout time.Duration
	newID   func() string
	now     func() time.Time

	file         *backend.File
	fileQuestion string
	chatQuestion string
	response     string
	busy         bool
	current      *inflight
	history      []Exchange
}

type inflight struct {
	id     string
	kind   Kind
	cancel context.CancelFunc
	index  int
}

// Pending is a dispatched request that has not run yet.
type Pending struct {
	ID   string
	Kind Kind

	ctx    context.Context
	cancel context.CancelFunc
	call   func(ctx context.Context) (string, error)
}

// Result is the outcome of Pending.Run, fed back through Complete.
type Result struct {
	ID     string
	Kind   Kind
	Answer string
	Err    error
}

// Run performs the network call. It only touches values captured at
// dispatch, so it may run on any goroutine.
func (p *Pending) Run() Result {
	answer, err := p.call(p.ctx)
	p.cancel()
	return Result{ID: p.ID, Kind: p.Kind, Answer: answer, Err: err}
}

// New returns a controller with empty state. A zero Timeout disables the
// per-request deadline.
func New(cfg Config) *Controller {
	c := &Controller{
		client:  cfg.Client,
		timeout: cfg.Timeout,
		newID:   cfg.NewID,
		now:     cfg.Now,
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// SetFile selects the file for the upload action.
func (c *Controller) SetFile(file backend.File) {
	c.file = &file
}

// SetFileQuestion stores the question about the selected file.
func (c *Controller) SetFileQuestion(value string) {
	c.fileQuestion = value
}

// SetChatQuestion stores the freeform chat question.
func (c *Controller) SetChatQuestion(value string) {
	c.chatQuestion = value
}

// SubmitFileQuestion validates the upload inputs and dispatches the upload.
func (c *Controller) SubmitFileQuestion() (*Pending, error) {
	question := strings.TrimSpace(c.fileQuestion)
	if c.file == nil || question == "" {
		return nil, &ValidationError{Kind: KindUpload, Message: FileValidationMessage}
	}
	file := *c.file
	return c.dispatch(KindUpload, file.Name, question, func(ctx context.Context, id string) (string, error) {
		return c.client.Upload(ctx, id, file, question)
	}), nil
}

// SubmitChatQuestion validates the chat input and dispatches the chat call.
func (c *Controller) SubmitChatQuestion() (*Pending, error) {
	question := strings.TrimSpace(c.chatQuestion)
	if question == "" {
		return nil, &ValidationError{Kind: KindChat, Message: ChatValidationMessage}
	}
	return c.dispatch(KindChat, "", question, func(ctx context.Context, id string) (string, error) {
		return c.client.Chat(ctx, id, question)
	}), nil
}

func (c *Controller) dispatch(kind Kind, fileName, question string, call func(context.Context, string) (string, error)) *Pending {
	if c.current != nil {
		log.Printf("[session] %s %s superseded by new %s request", c.current.kind, c.current.id, kind)
		c.abort(StatusSuperseded)
	}

	id := c.newID()
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	c.history = append(c.history, Exchange{
		ID:       id,
		Kind:     kind,
		FileName: fileName,
		Question: question,
		Status:   StatusPending,
		AskedAt:  c.now(),
	})
	c.current = &inflight{id: id, kind: kind, cancel: cancel, index: len(c.history) - 1}
	c.busy = true

	return &Pending{
		ID:     id,
		Kind:   kind,
		ctx:    ctx,
		cancel: cancel,
		call: func(ctx context.Context) (string, error) {
			return call(ctx, id)
		},
	}
}

// Complete applies a finished request. Results from requests that were
// canceled or superseded are dropped and Complete reports false.
func (c *Controller) Complete(result Result) bool {
	if c.current == nil || c.current.id != result.ID {
		log.Printf("[session] dropping stale %s result %s", result.Kind, result.ID)
		return false
	}
	current := c.current
	c.current = nil
	c.busy = false
	current.cancel()

	entry := &c.history[current.index]
	entry.CompletedAt = c.now()
	if result.Err != nil {
		log.Printf("[session] %s request %s failed: %v", result.Kind, result.ID, result.Err)
		c.response = failureMessage(result.Kind)
		entry.Status = StatusFailed
		entry.Err = result.Err.Error()
		return true
	}
	c.response = result.Answer
	entry.Status = StatusAnswered
	entry.Answer = result.Answer
	return true
}

// Cancel aborts the in-flight request, if any. The response text is left as
// it was.
func (c *Controller) Cancel() bool {
	if c.current == nil {
		return false
	}
	log.Printf("[session] %s %s canceled", c.current.kind, c.current.id)
	c.abort(StatusCanceled)
	return true
}

func (c *Controller) abort(status Status) {
	current := c.current
	c.current = nil
	c.busy = false
	current.cancel()
	entry := &c.history[current.index]
	entry.Status = status
	entry.CompletedAt = c.now()
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	return c.busy
}

// State returns a copy of the current state for rendering.
func (c *Controller) State() State {
	state := State{
		FileQuestion: c.fileQuestion,
		ChatQuestion: c.chatQuestion,
		Response:     c.response,
		Busy:         c.busy,
		History:      append([]Exchange(nil), c.history...),
	}
	if c.file != nil {
		state.HasFile = true
		state.FileName = c.file.Name
		state.FileSize = c.file.Size()
	}
	if c.current != nil {
		state.BusyKind = c.current.kind
		state.RequestID = c.current.id
	}
	return state
}
