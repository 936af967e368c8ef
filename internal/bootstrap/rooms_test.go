package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRooms_Create(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "created", status: http.StatusCreated, body: `{"room_id":"ABC123"}`, want: "ABC123"},
		{name: "ok", status: http.StatusOK, body: `{"room_id":"XYZ789"}`, want: "XYZ789"},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `{"room_id":`, wantErr: true},
		{name: "empty id", status: http.StatusOK, body: `{}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/rooms", r.URL.Path)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			rooms := New(srv.URL+"/api/rooms", srv.Client(), zaptest.NewLogger(t))
			got, err := rooms.Create(context.Background())
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRooms_CreateHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL+"/api/rooms", nil, zaptest.NewLogger(t)).Create(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
