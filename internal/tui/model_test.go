package tui

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/datachat/internal/backend"
	"github.com/csheth/datachat/internal/fakebackend"
	"github.com/csheth/datachat/internal/inspect"
	"github.com/csheth/datachat/internal/session"
)

func newTestModel(t *testing.T, opts fakebackend.Options) (*model, *fakebackend.Server) {
	t.Helper()
	fake := fakebackend.New(opts)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	controller := session.New(session.Config{
		Client:  backend.New(backend.Config{BaseURL: server.URL}),
		Timeout: 5 * time.Second,
	})
	m, ok := New(Config{Controller: controller, BackendName: server.URL}).(*model)
	if !ok {
		t.Fatalf("expected *model")
	}
	return m, fake
}

func typeText(m *model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(m *model, key tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: key})
	return cmd
}

// drain runs cmd and every command nested in batches or sequences, returning
// the leaf messages in order.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	v := reflect.ValueOf(msg)
	if v.IsValid() && v.Kind() == reflect.Slice && v.Type().Elem() == reflect.TypeOf(tea.Cmd(nil)) {
		var out []tea.Msg
		for i := 0; i < v.Len(); i++ {
			nested, _ := v.Index(i).Interface().(tea.Cmd)
			out = append(out, drain(nested)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func deliver(m *model, cmd tea.Cmd) {
	for _, msg := range drain(cmd) {
		m.Update(msg)
	}
}

func reportFile() *backend.File {
	return &backend.File{Name: "report.csv", Data: []byte("region,total\nnorth,40\nsouth,2\n")}
}

func TestEnterWithoutFileShowsAlert(t *testing.T) {
	m, fake := newTestModel(t, fakebackend.Options{})
	typeText(m, "What is the total?")

	if cmd := press(m, tea.KeyEnter); cmd != nil {
		t.Fatalf("expected no command for a rejected submit")
	}
	if m.alert != session.FileValidationMessage {
		t.Fatalf("alert = %q", m.alert)
	}
	if !strings.Contains(m.View(), session.FileValidationMessage) {
		t.Fatalf("expected alert in view")
	}
	if fake.Calls() != 0 {
		t.Fatalf("expected no backend calls, got %d", fake.Calls())
	}

	press(m, tea.KeyEnter)
	if m.alert != "" {
		t.Fatalf("expected any key to dismiss the alert")
	}
}

func TestBlankChatShowsAlert(t *testing.T) {
	m, fake := newTestModel(t, fakebackend.Options{})
	press(m, tea.KeyTab)
	typeText(m, "   ")
	press(m, tea.KeyEnter)

	if m.alert != session.ChatValidationMessage {
		t.Fatalf("alert = %q", m.alert)
	}
	if fake.Calls() != 0 {
		t.Fatalf("expected no backend calls")
	}
}

func TestUploadRoundTrip(t *testing.T) {
	m, fake := newTestModel(t, fakebackend.Options{
		OnUpload: func(fakebackend.Upload) fakebackend.Reply { return fakebackend.Reply{Answer: "42"} },
	})
	m.selectFile(*reportFile(), inspect.Describe(*reportFile()))
	typeText(m, "What is the total?")

	if view := m.View(); !strings.Contains(view, uploadButtonLabel) || !strings.Contains(view, responsePlaceholder) {
		t.Fatalf("expected idle labels, got:\n%s", view)
	}

	cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatalf("expected a request command")
	}
	if !m.controller.Busy() {
		t.Fatalf("expected busy after submit")
	}
	view := m.View()
	for _, want := range []string{uploadBusyButtonLabel, responseBusyText} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q while busy, got:\n%s", want, view)
		}
	}

	deliver(m, cmd)

	if m.controller.Busy() {
		t.Fatalf("expected idle after completion")
	}
	if got := m.controller.State().Response; got != "42" {
		t.Fatalf("response = %q", got)
	}
	view = m.View()
	if !strings.Contains(view, "42") || !strings.Contains(view, uploadButtonLabel) {
		t.Fatalf("expected answer and idle label, got:\n%s", view)
	}
	uploads := fake.Uploads()
	if len(uploads) != 1 || uploads[0].FileName != "report.csv" || uploads[0].Question != "What is the total?" {
		t.Fatalf("unexpected uploads: %+v", uploads)
	}
	if m.lastJob.Kind != jobKindUpload || m.lastJob.State != jobSucceeded {
		t.Fatalf("unexpected job snapshot: %+v", m.lastJob)
	}
}

func TestChatFailureShowsGenericMessage(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{
		OnChat: func(fakebackend.Chat) fakebackend.Reply { return fakebackend.Reply{Status: http.StatusInternalServerError} },
	})
	press(m, tea.KeyTab)
	typeText(m, "Hello")
	cmd := press(m, tea.KeyEnter)
	if !strings.Contains(m.View(), chatBusyButtonLabel) {
		t.Fatalf("expected busy chat label")
	}
	deliver(m, cmd)

	if got := m.controller.State().Response; got != session.ChatFailureMessage {
		t.Fatalf("response = %q", got)
	}
	view := m.View()
	if !strings.Contains(view, session.ChatFailureMessage) {
		t.Fatalf("expected failure message in view:\n%s", view)
	}
	if strings.Contains(view, "analysis failed") {
		t.Fatalf("error details must not be shown")
	}
	if m.lastJob.State != jobFailed {
		t.Fatalf("expected failed job, got %+v", m.lastJob)
	}
}

func TestSubmitIsGatedWhileBusy(t *testing.T) {
	release := make(chan struct{})
	m, fake := newTestModel(t, fakebackend.Options{
		OnChat: func(fakebackend.Chat) fakebackend.Reply {
			<-release
			return fakebackend.Reply{Answer: "done"}
		},
	})
	press(m, tea.KeyTab)
	typeText(m, "first")
	first := press(m, tea.KeyEnter)
	if first == nil {
		t.Fatalf("expected request command")
	}
	id := m.controller.State().RequestID

	if cmd := press(m, tea.KeyEnter); cmd != nil {
		t.Fatalf("expected second submit to be ignored while busy")
	}
	if m.controller.State().RequestID != id {
		t.Fatalf("in-flight request changed")
	}
	if !strings.Contains(m.infoMessage, "already running") {
		t.Fatalf("info = %q", m.infoMessage)
	}

	close(release)
	deliver(m, first)
	if got := m.controller.State().Response; got != "done" {
		t.Fatalf("response = %q", got)
	}
	if fake.Calls() != 1 {
		t.Fatalf("expected a single call, got %d", fake.Calls())
	}
}

func TestEscCancelsInFlightRequest(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{
		OnChat: func(fakebackend.Chat) fakebackend.Reply {
			return fakebackend.Reply{Answer: "late", Delay: 2 * time.Second}
		},
	})
	press(m, tea.KeyTab)
	typeText(m, "slow one")
	cmd := press(m, tea.KeyEnter)

	if quit := press(m, tea.KeyEsc); quit != nil {
		t.Fatalf("esc while busy should cancel, not quit")
	}
	if m.controller.Busy() {
		t.Fatalf("expected idle after cancel")
	}
	deliver(m, cmd)

	state := m.controller.State()
	if state.Response != "" {
		t.Fatalf("canceled request must not set a response, got %q", state.Response)
	}
	if got := state.History[0].Status; got != session.StatusCanceled {
		t.Fatalf("history status = %s", got)
	}
	if !strings.Contains(m.View(), "canceled") {
		t.Fatalf("expected cancel in session log")
	}
}

func TestEscQuitsWhenIdle(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{})
	cmd := press(m, tea.KeyEsc)
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestTabMovesFocus(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{})
	if m.focus != focusFileQuestion || !m.fileQuestion.Focused() {
		t.Fatalf("expected file question focused initially")
	}
	press(m, tea.KeyTab)
	if m.focus != focusChatQuestion || !m.chatQuestion.Focused() || m.fileQuestion.Focused() {
		t.Fatalf("expected chat focused after tab")
	}
	press(m, tea.KeyShiftTab)
	if m.focus != focusFileQuestion {
		t.Fatalf("expected file focused after shift+tab")
	}
}

func TestTypingUpdatesController(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{})
	typeText(m, "why?")
	press(m, tea.KeyTab)
	typeText(m, "hi")

	state := m.controller.State()
	if state.FileQuestion != "why?" || state.ChatQuestion != "hi" {
		t.Fatalf("unexpected questions: %+v", state)
	}
}

func TestInitialFileIsSelected(t *testing.T) {
	controller := session.New(session.Config{})
	m := New(Config{Controller: controller, InitialFile: reportFile()}).(*model)

	if !controller.State().HasFile {
		t.Fatalf("expected file to be selected")
	}
	view := m.View()
	if !strings.Contains(view, "report.csv") || !strings.Contains(view, "CSV table: 2 rows") {
		t.Fatalf("expected file preview, got:\n%s", view)
	}
}

func TestFileLoadErrorIsReported(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{})
	m.loadingFile = true
	deliver(m, m.jobs.Start(jobKindLoadFile, "", loadFileJob(t.TempDir())))

	if m.loadingFile {
		t.Fatalf("expected loading flag to clear")
	}
	if !strings.Contains(m.errorMessage, "Could not read") {
		t.Fatalf("error = %q", m.errorMessage)
	}
	if m.controller.State().HasFile {
		t.Fatalf("directory must not be selected")
	}
}

func TestStaleResultIsIgnored(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{})
	m.Update(jobDoneMsg{
		job:     job{ID: "old", Kind: jobKindChat, State: jobSucceeded},
		payload: requestResultMsg{result: session.Result{ID: "old", Kind: session.KindChat, Answer: "ghost"}},
	})
	if got := m.controller.State().Response; got != "" {
		t.Fatalf("stale result applied: %q", got)
	}
}

func TestBothButtonsShowBusyLabelsWhileChatRuns(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{})
	press(m, tea.KeyTab)
	typeText(m, "Hello")
	if cmd := press(m, tea.KeyEnter); cmd == nil {
		t.Fatalf("expected a request command")
	}

	view := m.View()
	for _, want := range []string{uploadBusyButtonLabel, chatBusyButtonLabel} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q while busy, got:\n%s", want, view)
		}
	}
	if strings.Contains(view, uploadButtonLabel) {
		t.Fatalf("upload button kept its idle label while busy:\n%s", view)
	}
	m.controller.Cancel()
}

func TestBothButtonsShowBusyLabelsWhileUploadRuns(t *testing.T) {
	m, _ := newTestModel(t, fakebackend.Options{})
	m.selectFile(*reportFile(), inspect.Describe(*reportFile()))
	typeText(m, "What is the total?")
	if cmd := press(m, tea.KeyEnter); cmd == nil {
		t.Fatalf("expected a request command")
	}

	view := m.View()
	for _, want := range []string{uploadBusyButtonLabel, chatBusyButtonLabel} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q while busy, got:\n%s", want, view)
		}
	}
	m.controller.Cancel()
}
