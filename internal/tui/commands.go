package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/datachat/internal/backend"
	"github.com/csheth/datachat/internal/inspect"
	"github.com/csheth/datachat/internal/session"
)

type requestResultMsg struct {
	result session.Result
}

type fileLoadedMsg struct {
	path    string
	file    backend.File
	preview inspect.Preview
	err     error
}

func requestJob(pending *session.Pending) jobRunner {
	return func() (tea.Msg, error) {
		result := pending.Run()
		return requestResultMsg{result: result}, result.Err
	}
}

func loadFileJob(path string) jobRunner {
	return func() (tea.Msg, error) {
		file, err := backend.LoadFile(path)
		if err != nil {
			return fileLoadedMsg{path: path, err: err}, err
		}
		return fileLoadedMsg{path: path, file: file, preview: inspect.Describe(file)}, nil
	}
}

func jobKindFor(kind session.Kind) jobKind {
	if kind == session.KindUpload {
		return jobKindUpload
	}
	return jobKindChat
}
