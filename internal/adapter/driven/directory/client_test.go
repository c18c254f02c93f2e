package directory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Wyydra/rendezvous/internal/core/port"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ port.RoomDirectory = (*Client)(nil)

type call struct {
	method string
	path   string
	auth   string
	body   string
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) at(i int) call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[i]
}

// fakeDirectory serves the CRUD routes with canned replies.
func fakeDirectory(t *testing.T) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	record := func(r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.calls = append(rec.calls, call{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: string(b)})
		rec.mu.Unlock()
	}
	room := map[string]any{"id": "abc", "name": "standup", "maxParticipants": 4, "isPublic": true}

	r := chi.NewRouter()
	r.Route("/api/rooms", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			reply(w, http.StatusCreated, map[string]any{"success": true, "message": "Room created successfully", "data": room})
		})
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			reply(w, http.StatusOK, map[string]any{"success": true, "data": []any{room}})
		})
		r.Get("/{roomId}", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			if chi.URLParam(r, "roomId") != "abc" {
				reply(w, http.StatusNotFound, map[string]any{"success": false, "message": "Room not found"})
				return
			}
			reply(w, http.StatusOK, map[string]any{"success": true, "data": room})
		})
		r.Put("/{roomId}", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			reply(w, http.StatusOK, map[string]any{"success": true, "message": "Room updated successfully", "data": room})
		})
		r.Delete("/{roomId}", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			reply(w, http.StatusOK, map[string]any{"success": true, "message": "Room deleted successfully"})
		})
		r.Post("/{roomId}/join", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			reply(w, http.StatusOK, map[string]any{"success": true, "message": "Joined room successfully"})
		})
		r.Post("/{roomId}/leave", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			reply(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Not a participant"})
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", "tok", srv.Client())
	require.NoError(t, err)
	return c, rec
}

func TestCRUD(t *testing.T) {
	c, calls := fakeDirectory(t)
	ctx := context.Background()

	created, err := c.Create(ctx, port.RoomRecord{Name: "standup", MaxParticipants: 4, IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, port.RoomRecord{ID: "abc", Name: "standup", MaxParticipants: 4, IsPublic: true}, created)

	rooms, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	got, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "standup", got.Name)

	_, err = c.Update(ctx, "abc", port.RoomRecord{Name: "retro"})
	require.NoError(t, err)

	msg, err := c.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Room deleted successfully", msg)

	first := calls.at(0)
	assert.Equal(t, http.MethodPost, first.method)
	assert.Equal(t, "/api/rooms", first.path)
	assert.Equal(t, "Bearer tok", first.auth)
	assert.JSONEq(t, `{"name":"standup","maxParticipants":4,"isPublic":true}`, first.body)
}

func TestJoinLeave(t *testing.T) {
	c, calls := fakeDirectory(t)
	ctx := context.Background()

	msg, err := c.Join(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Joined room successfully", msg)
	assert.Equal(t, "/api/rooms/abc/join", calls.at(0).path)

	msg, err = c.Leave(ctx, "abc")
	assert.Equal(t, "Not a participant", msg)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestNotFound(t *testing.T) {
	c, _ := fakeDirectory(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
