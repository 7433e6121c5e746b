package tuitest

import (
	"regexp"
	"strings"
)

// Frame is one normalized terminal render.
type Frame struct {
	Index int
	ANSI  string
	Plain string
}

var (
	clearScreen = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	escapeSeq   = regexp.MustCompile(`\x1b\][^\x07]*(?:\x07|\x1b\\)|\x1b\[[0-9;?]*[A-Za-z]|[\x0e\x0f]`)
)

// parseFrames splits the stream wherever the screen is cleared. Bubble Tea
// repaints changed lines in place, so one frame may hold several overlapping
// renders; match on substrings rather than whole frames.
func parseFrames(raw []byte) []Frame {
	stream := strings.ReplaceAll(string(raw), "\r", "")
	var frames []Frame
	for _, chunk := range clearScreen.Split(stream, -1) {
		chunk = strings.TrimPrefix(strings.Trim(chunk, "\x00"), "\x1b[H")
		if plain := plainText(chunk); plain != "" {
			frames = append(frames, Frame{Index: len(frames), ANSI: chunk, Plain: plain})
		}
	}
	if len(frames) == 0 {
		if plain := plainText(stream); plain != "" {
			frames = append(frames, Frame{ANSI: stream, Plain: plain})
		}
	}
	return frames
}

// FinalFrame returns the last captured frame. The second return value is false
// when no frames were recorded.
func (r *Recording) FinalFrame() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// Contains reports whether text was ever drawn.
func (r *Recording) Contains(text string) bool {
	return r != nil && strings.Contains(stripANSI(string(r.Raw)), text)
}

func stripANSI(s string) string {
	return escapeSeq.ReplaceAllString(s, "")
}

// plainText strips escapes and trailing blanks; it is empty for chunks that
// drew nothing visible.
func plainText(s string) string {
	lines := strings.Split(stripANSI(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n ")
}
