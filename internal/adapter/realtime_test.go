package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/questlog-app/questlog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_ReceivesEvents(t *testing.T) {
	want := models.ChangeEvent{
		Table:     models.TableQuests,
		RecordID:  "q-1",
		Op:        models.OpUpsert,
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/realtime", r.URL.Path)
		assert.Equal(t, "Bearer some-token", r.Header.Get("Authorization"))

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		require.NoError(t, wsjson.Write(ctx, conn, want))

		_ = conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	rs := newTestRemoteStore(t, srv.URL)
	rs.SetToken("some-token")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := rs.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	select {
	case got, ok := <-sub.Events():
		require.True(t, ok)
		assert.Equal(t, want.Table, got.Table)
		assert.Equal(t, want.RecordID, got.RecordID)
		assert.Equal(t, want.Op, got.Op)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	// server closed normally, so the channel drains with no error
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-ctx.Done():
		t.Fatal("timed out waiting for channel close")
	}
	assert.NoError(t, sub.Err())
}

func TestSubscribe_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	rs := newTestRemoteStore(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := rs.Subscribe(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubscribe_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	rs := newTestRemoteStore(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := rs.Subscribe(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
