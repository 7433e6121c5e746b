package tuitest

import (
	"bytes"
	"io"
)

// terminalResponder answers the queries a TUI sends on startup (cursor
// position, foreground and background colour) so the program does not stall
// waiting for a real terminal.
type terminalResponder struct {
	w       io.Writer
	buf     []byte
	replies []reply
}

type reply struct {
	query    []byte
	response []byte
}

var defaultReplies = []reply{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, 128), replies: defaultReplies}
}

func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerOne() {
	}
	// Keep a tail so queries split across reads are still seen.
	if len(tr.buf) > 256 {
		tr.buf = tr.buf[len(tr.buf)-64:]
	}
}

// answerOne replies to the earliest pending query in the buffer.
func (tr *terminalResponder) answerOne() bool {
	best, bestIdx := -1, -1
	for i, r := range tr.replies {
		idx := bytes.Index(tr.buf, r.query)
		if idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = i, idx
		}
	}
	if best < 0 {
		return false
	}
	r := tr.replies[best]
	tr.buf = tr.buf[bestIdx+len(r.query):]
	_, _ = tr.w.Write(r.response)
	return true
}
