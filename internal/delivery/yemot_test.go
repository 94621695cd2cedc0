package delivery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYemotUploader_Upload(t *testing.T) {
	var token, path, fileName, fileType string
	var file []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		token = r.FormValue("token")
		path = r.FormValue("path")
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		fileName = hdr.Filename
		fileType = hdr.Header.Get("Content-Type")
		file, _ = io.ReadAll(f)
		_, _ = w.Write([]byte(`{"responseStatus":"OK","path":"ivr2:/2/001.wav"}`))
	}))
	defer srv.Close()

	u := NewYemotUploader(srv.URL, "0700000000:1234", "", "", nil)
	resp, err := u.Upload(context.Background(), []byte("RIFFdata"), "ivr2:/2/")
	require.NoError(t, err)

	assert.Contains(t, resp, `"responseStatus":"OK"`)
	assert.Equal(t, "0700000000:1234", token)
	assert.Equal(t, "ivr2:/2/001.wav", path)
	assert.Equal(t, "001.wav", fileName)
	assert.Equal(t, "audio/wav", fileType)
	assert.Equal(t, []byte("RIFFdata"), file)
}

func TestYemotUploader_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responseStatus":"Exception","message":"token invalid"}`))
	}))
	defer srv.Close()

	_, err := NewYemotUploader(srv.URL, "bad", "", "", nil).Upload(context.Background(), []byte("x"), "ivr2:/2/")
	assert.ErrorContains(t, err, "token invalid")
}

func TestYemotUploader_PlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK\n"))
	}))
	defer srv.Close()

	resp, err := NewYemotUploader(srv.URL, "t", "", "", nil).Upload(context.Background(), []byte("x"), "ivr2:/2/")
	require.NoError(t, err)
	assert.Equal(t, "OK", resp)
}

func TestYemotUploader_RetryThenSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"responseStatus":"OK"}`))
	}))
	defer srv.Close()

	u := NewYemotUploader(srv.URL, "t", "", "", nil)
	u.Backoff = time.Millisecond
	_, err := u.UploadWithRetry(context.Background(), []byte("x"), "ivr2:/2/", 3)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestYemotUploader_RetriesExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	u := NewYemotUploader(srv.URL, "t", "", "", nil)
	u.Backoff = time.Millisecond
	_, err := u.UploadWithRetry(context.Background(), []byte("x"), "ivr2:/2/", 2)
	assert.ErrorContains(t, err, "all 3 attempts exhausted")
	assert.ErrorContains(t, err, "status 502")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestYemotUploader_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	u := NewYemotUploader(srv.URL, "t", "", "", nil)
	u.Backoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := u.UploadWithRetry(ctx, []byte("x"), "ivr2:/2/", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
