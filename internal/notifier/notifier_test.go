package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yn6733212/Market-Snapshot/internal/model"
	"github.com/yn6733212/Market-Snapshot/internal/recorder"
)

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", nil)
	n.APIBase = srv.URL
	n.Client = srv.Client()
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	err := newTestNotifier(srv).Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSendWithRetry_RecoversAfterFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).SendWithRetry(context.Background(), "x", 2))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).SendWithRetry(context.Background(), "x", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 retries exhausted")
	assert.Equal(t, int32(1), calls.Load())
}

func TestStartPolling_DispatchesCommands(t *testing.T) {
	var polled atomic.Int32
	replies := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if polled.Add(1) == 1 {
				fmt.Fprint(w, `{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /status ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/report","chat":{"id":99}}}
				]}`)
				return
			}
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case "/botTOKEN/sendMessage":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	n := newTestNotifier(srv)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var seen []string
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			seen = append(seen, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case got := <-replies:
		assert.Equal(t, "reply to /status", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done
	assert.Equal(t, []string{"/status"}, seen)
}

func TestFormatRunResult(t *testing.T) {
	r := model.RunResult{
		RunID:     "abc",
		StartedAt: time.Date(2025, 3, 4, 16, 30, 0, 0, time.UTC),
		Duration:  2500 * time.Millisecond,
		Status:    model.RunDegraded,
		Sessions:  model.Sessions{Israel: model.IsraelOpen, US: model.USPreMarket},
		Degraded: []model.Outcome{
			{Key: "oil", Ticker: "CL=F", Err: errors.New("timeout <5s>")},
			{Key: "gold", Ticker: "GC=F"},
		},
		TextChars: 900,
	}
	out := FormatRunResult(r)
	assert.Contains(t, out, "⚠️")
	assert.Contains(t, out, "TASE open, NYSE pre_market")
	assert.Contains(t, out, "oil (CL=F): timeout &lt;5s&gt;")
	assert.Contains(t, out, "gold (GC=F): empty series")
	assert.Contains(t, out, "took 2.5s")
	assert.NotContains(t, out, "Failed at")

	r.Status = model.RunFailed
	r.Stage = "upload"
	r.Err = errors.New("status 500")
	out = FormatRunResult(r)
	assert.Contains(t, out, "❌")
	assert.Contains(t, out, "Failed at <b>upload</b>: status 500")
}

func TestFormatStatus(t *testing.T) {
	assert.Contains(t, FormatStatus(nil), "No runs")

	out := FormatStatus([]recorder.RunRecord{
		{StartedAt: time.Date(2025, 3, 4, 9, 15, 0, 0, time.UTC), Status: "DELIVERED"},
		{StartedAt: time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC), Status: "FAILED", Stage: "transcode"},
		{StartedAt: time.Date(2025, 3, 4, 8, 45, 0, 0, time.UTC), Status: "DEGRADED",
			Degraded: []recorder.InstrumentFailure{{Key: "apple"}, {Key: "oil"}}},
	})
	assert.Contains(t, out, "✅ 03-04 09:15 DELIVERED")
	assert.Contains(t, out, "❌ 03-04 09:00 FAILED @transcode")
	assert.Contains(t, out, "⚠️ 03-04 08:45 DEGRADED [apple, oil]")
}
