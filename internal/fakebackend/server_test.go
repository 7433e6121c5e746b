package fakebackend

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRecordsCallAndEchoesQuestion(t *testing.T) {
	s := New(Options{})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "report.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, w.WriteField("question", "What is the total?"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "You asked about report.csv: What is the total?", payload["answer"])

	uploads := s.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "report.csv", uploads[0].FileName)
	assert.Equal(t, "a,b\n1,2\n", string(uploads[0].Content))
	assert.Equal(t, "req-1", uploads[0].RequestID)
}

func TestUploadWithoutFileIsRejected(t *testing.T) {
	s := New(Options{})
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.Calls())
}

func TestChatUsesConfiguredReply(t *testing.T) {
	s := New(Options{
		OnChat: func(c Chat) Reply { return Reply{Status: http.StatusInternalServerError} },
	})
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"Hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "analysis failed", rec.Body.String())
	require.Len(t, s.Chats(), 1)
	assert.Equal(t, "Hello", s.Chats()[0].Query)
}

func TestRawReplyIsWrittenVerbatim(t *testing.T) {
	s := New(Options{
		OnChat: func(Chat) Reply { return Reply{Raw: `{"status":"success"}`} },
	})
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
}
