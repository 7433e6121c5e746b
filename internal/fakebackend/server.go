// Package fakebackend emulates the analysis service's /upload and /chat
// endpoints so the client can be exercised without the real backend.
package fakebackend

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Upload records one call to /upload.
type Upload struct {
	FileName  string
	Content   []byte
	Question  string
	RequestID string
}

// Chat records one call to /chat.
type Chat struct {
	Query     string
	RequestID string
}

// Reply controls what the fake answers. A zero Status means 200. When Raw is
// set it is written verbatim instead of the JSON envelope.
type Reply struct {
	Status int
	Answer string
	Raw    string
	Delay  time.Duration
}

// Options wires reply functions for each endpoint. Nil functions answer with
// an echo of the question.
type Options struct {
	OnUpload func(Upload) Reply
	OnChat   func(Chat) Reply
}

// Server is an echo application plus a log of received calls.
type Server struct {
	echo *echo.Echo
	opts Options

	mu      sync.Mutex
	uploads []Upload
	chats   []Chat
}

// New builds a fake backend. Mount it with httptest.NewServer(s).
func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{echo: e, opts: opts}
	e.POST("/upload", s.handleUpload)
	e.POST("/chat", s.handleChat)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Uploads returns the recorded upload calls.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Chats returns the recorded chat calls.
func (s *Server) Chats() []Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Chat(nil), s.chats...)
}

// Calls counts every request received on either endpoint.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads) + len(s.chats)
}

func (s *Server) handleUpload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.String(http.StatusBadRequest, "Error retrieving the file")
	}
	src, err := header.Open()
	if err != nil {
		return c.String(http.StatusBadRequest, "Error retrieving the file")
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		return c.String(http.StatusInternalServerError, "Error reading file")
	}

	call := Upload{
		FileName:  header.Filename,
		Content:   content,
		Question:  c.FormValue("question"),
		RequestID: c.Request().Header.Get("X-Request-ID"),
	}
	s.mu.Lock()
	s.uploads = append(s.uploads, call)
	s.mu.Unlock()

	reply := Reply{Answer: "You asked about " + call.FileName + ": " + call.Question}
	if s.opts.OnUpload != nil {
		reply = s.opts.OnUpload(call)
	}
	return s.respond(c, reply)
}

func (s *Server) handleChat(c echo.Context) error {
	var body struct {
		Query string `json:"query"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	call := Chat{
		Query:     body.Query,
		RequestID: c.Request().Header.Get("X-Request-ID"),
	}
	s.mu.Lock()
	s.chats = append(s.chats, call)
	s.mu.Unlock()

	reply := Reply{Answer: "You said: " + call.Query}
	if s.opts.OnChat != nil {
		reply = s.opts.OnChat(call)
	}
	return s.respond(c, reply)
}

func (s *Server) respond(c echo.Context, reply Reply) error {
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-c.Request().Context().Done():
			return nil
		}
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	if reply.Raw != "" {
		return c.Blob(status, echo.MIMEApplicationJSON, []byte(reply.Raw))
	}
	if status >= http.StatusBadRequest {
		return c.String(status, "analysis failed")
	}
	return c.JSON(status, map[string]string{
		"status": "success",
		"answer": reply.Answer,
	})
}
