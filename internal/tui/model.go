package tui

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/datachat/internal/backend"
	"github.com/csheth/datachat/internal/inspect"
	"github.com/csheth/datachat/internal/session"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Controller *session.Controller
	// BackendName is shown in the status bar, usually the base URL.
	BackendName string
	// StartDir is where the file picker opens. Defaults to ".".
	StartDir string
	// InitialFile, when set, is selected before the first frame.
	InitialFile *backend.File
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Controller == nil {
		config.Controller = session.New(session.Config{})
	}

	fileQuestion := textinput.New()
	fileQuestion.Placeholder = fileQuestionPlaceholder
	fileQuestion.Prompt = "? "
	fileQuestion.CharLimit = 500
	fileQuestion.Width = 70
	fileQuestion.Focus()

	chatQuestion := textinput.New()
	chatQuestion.Placeholder = chatQuestionPlaceholder
	chatQuestion.Prompt = "› "
	chatQuestion.CharLimit = 500
	chatQuestion.Width = 70

	picker := filepicker.New()
	picker.CurrentDirectory = "."
	if config.StartDir != "" {
		picker.CurrentDirectory = config.StartDir
	}
	picker.Height = 10

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(76, 6)
	vp.MouseWheelEnabled = true

	m := &model{
		config:       config,
		controller:   config.Controller,
		jobs:         newJobBus(),
		stage:        stageForm,
		focus:        focusFileQuestion,
		fileQuestion: fileQuestion,
		chatQuestion: chatQuestion,
		picker:       picker,
		spinner:      spin,
		logViewport:  vp,
		layout:       newPageLayout(),
		logDirty:     true,
		infoMessage:  "Press Ctrl+O to pick a file, or Tab to chat.",
	}
	if config.InitialFile != nil {
		m.selectFile(*config.InitialFile, inspect.Describe(*config.InitialFile))
	}
	return m
}

type model struct {
	config     Config
	controller *session.Controller
	jobs       *jobBus
	stage      stage
	focus      focusTarget

	fileQuestion textinput.Model
	chatQuestion textinput.Model
	picker       filepicker.Model
	spinner      spinner.Model
	logViewport  viewport.Model
	layout       pageLayout

	preview     *inspect.Preview
	loadingFile bool

	alert        string
	infoMessage  string
	errorMessage string
	helpVisible  bool

	lastJob  job
	logDirty bool
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.applyLayout()
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if !m.controller.Busy() && !m.loadingFile {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case jobStartedMsg:
		m.lastJob = msg.job
		return m, nil
	case jobDoneMsg:
		m.lastJob = msg.job
		return m.handlePayload(msg.payload)
	}

	if m.stage == stagePicker {
		return m.updatePicker(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	// A validation alert blocks input until it is acknowledged.
	if m.alert != "" {
		m.alert = ""
		return m, nil
	}
	if m.stage == stagePicker {
		if msg.Type == tea.KeyEsc {
			m.stage = stageForm
			m.infoMessage = "File selection canceled."
			return m, nil
		}
		return m.updatePicker(msg)
	}

	switch msg.Type {
	case tea.KeyEsc:
		if m.controller.Cancel() {
			m.infoMessage = "Request canceled."
			m.errorMessage = ""
			m.logDirty = true
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyCtrlO:
		m.stage = stagePicker
		m.errorMessage = ""
		return m, m.picker.Init()
	case tea.KeyTab:
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case tea.KeyShiftTab:
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case tea.KeyF1:
		m.helpVisible = !m.helpVisible
		return m, nil
	case tea.KeyEnter:
		if m.focus == focusFileQuestion {
			return m, m.submit(session.KindUpload)
		}
		return m, m.submit(session.KindChat)
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusFileQuestion:
		m.fileQuestion, cmd = m.fileQuestion.Update(msg)
		m.controller.SetFileQuestion(m.fileQuestion.Value())
	case focusChatQuestion:
		m.chatQuestion, cmd = m.chatQuestion.Update(msg)
		m.controller.SetChatQuestion(m.chatQuestion.Value())
	}
	return m, cmd
}

func (m *model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.stage = stageForm
		m.loadingFile = true
		m.infoMessage = fmt.Sprintf("Reading %s…", path)
		return m, tea.Batch(cmd, m.spinner.Tick, m.jobs.Start(jobKindLoadFile, "", loadFileJob(path)))
	}
	return m, cmd
}

func (m *model) setFocus(target focusTarget) {
	m.focus = target
	switch target {
	case focusFileQuestion:
		m.chatQuestion.Blur()
		m.fileQuestion.Focus()
	case focusChatQuestion:
		m.fileQuestion.Blur()
		m.chatQuestion.Focus()
	}
}

// submit dispatches the action for kind. While a request is in flight the
// buttons are disabled and submit only reports that.
func (m *model) submit(kind session.Kind) tea.Cmd {
	if m.controller.Busy() {
		m.infoMessage = "A request is already running. Press Esc to cancel it."
		return nil
	}

	var (
		pending *session.Pending
		err     error
	)
	if kind == session.KindUpload {
		pending, err = m.controller.SubmitFileQuestion()
	} else {
		pending, err = m.controller.SubmitChatQuestion()
	}
	if err != nil {
		var validation *session.ValidationError
		if errors.As(err, &validation) {
			m.alert = validation.Message
			return nil
		}
		m.errorMessage = err.Error()
		return nil
	}

	m.errorMessage = ""
	if kind == session.KindUpload {
		m.infoMessage = fmt.Sprintf("Uploading %s…", m.controller.State().FileName)
	} else {
		m.infoMessage = "Waiting for the chat reply…"
	}
	m.logDirty = true
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindFor(kind), pending.ID, requestJob(pending)))
}

func (m *model) handlePayload(payload tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := payload.(type) {
	case requestResultMsg:
		if !m.controller.Complete(msg.result) {
			return m, nil
		}
		m.logDirty = true
		if msg.result.Err != nil {
			m.infoMessage = ""
			m.errorMessage = "Request failed."
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = "Answer received."
		return m, nil
	case fileLoadedMsg:
		m.loadingFile = false
		if msg.err != nil {
			log.Printf("[tui] load %s: %v", msg.path, msg.err)
			m.errorMessage = fmt.Sprintf("Could not read %s: %v", msg.path, msg.err)
			m.infoMessage = ""
			return m, nil
		}
		m.selectFile(msg.file, msg.preview)
		return m, nil
	}
	return m, nil
}

func (m *model) selectFile(file backend.File, preview inspect.Preview) {
	m.controller.SetFile(file)
	m.preview = &preview
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Selected %s.", file.Name)
	m.setFocus(focusFileQuestion)
}

func (m *model) applyLayout() {
	width := m.layout.contentWidth
	m.logViewport.Width = width
	m.logViewport.Height = m.layout.logHeight
	m.picker.Height = m.layout.pickerHeight
	inputWidth := width - 4
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.fileQuestion.Width = inputWidth
	m.chatQuestion.Width = inputWidth
	m.logDirty = true
}

func (m *model) refreshLogIfDirty() {
	if !m.logDirty {
		return
	}
	m.logViewport.SetContent(m.buildSessionLog())
	m.logViewport.GotoBottom()
	m.logDirty = false
}

func (m *model) statusLine() string {
	switch {
	case m.controller.Busy(), m.loadingFile:
		return fmt.Sprintf("%s %s", m.spinner.View(), m.infoMessage)
	default:
		return strings.TrimSpace(m.infoMessage)
	}
}
