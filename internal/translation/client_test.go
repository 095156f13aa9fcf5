package translation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer serves body with status and records the URL of the last request.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *url.URL) {
	t.Helper()
	last := &url.URL{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*last = *r.URL
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func TestGoogleClient_Translate(t *testing.T) {
	srv, last := newServer(t, http.StatusOK, `[[["你好，","Hello, ",null,null,10],["世界","world",null,null,10]],null,"en"]`)
	gc := NewGoogleClient(srv.URL+"/translate_a/single", 5*time.Second)

	got, err := gc.Translate(context.Background(), "Hello, world", "en", "zh-TW")
	require.NoError(t, err)
	assert.Equal(t, "你好，世界", got)

	q := last.Query()
	assert.Equal(t, "/translate_a/single", last.Path)
	assert.Equal(t, "gtx", q.Get("client"))
	assert.Equal(t, "en", q.Get("sl"))
	assert.Equal(t, "zh-TW", q.Get("tl"))
	assert.Equal(t, "t", q.Get("dt"))
	assert.Equal(t, "Hello, world", q.Get("q"))
}

func TestGoogleClient_HTMLIsThrottled(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "<html><body>Our systems have detected unusual traffic</body></html>")
	gc := NewGoogleClient(srv.URL, 5*time.Second)

	_, err := gc.Translate(context.Background(), "Hello", "en", "zh-TW")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrThrottled))
}

func TestGoogleClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "malformed json", status: http.StatusOK, body: `[[["unterminated`},
		{name: "empty array", status: http.StatusOK, body: `[]`, target: ErrEmptyResponse},
		{name: "null sentences", status: http.StatusOK, body: `[null,null,"en"]`, target: ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			gc := NewGoogleClient(srv.URL, 5*time.Second)

			_, err := gc.Translate(context.Background(), "Hello", "en", "ja")
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestGoogleClient_BlankTextSkipsRequest(t *testing.T) {
	gc := NewGoogleClient("http://127.0.0.1:1", time.Second)
	got, err := gc.Translate(context.Background(), "  ", "en", "ja")
	require.NoError(t, err)
	assert.Equal(t, "  ", got)
}
