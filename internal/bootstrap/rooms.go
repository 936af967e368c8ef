package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/pkg/types"
)

var ErrNoRoomID = errors.New("room created without an id")

// Rooms mints room ids on the game server.
type Rooms struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

// New returns a Rooms client posting to url (the full /api/rooms endpoint).
// A nil httpClient gets a client with a 10 second timeout.
func New(url string, httpClient *http.Client, log *zap.Logger) *Rooms {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Rooms{url: url, http: httpClient, log: log.Named("bootstrap")}
}

// Create asks the server for a fresh room and returns its id.
func (r *Rooms) Create(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("build create room request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create room: status %d: %s", resp.StatusCode, body)
	}

	var out types.CreateRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode create room response: %w", err)
	}
	if out.RoomID == "" {
		return "", ErrNoRoomID
	}
	r.log.Info("room created", zap.String("room_id", out.RoomID))
	return out.RoomID, nil
}
