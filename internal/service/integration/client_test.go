package integration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*LMSClient, session.Store) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	client := NewLMSClient(ClientConfig{
		BaseURL: srv.URL + "/api",
		Timeout: 5 * time.Second,
	}, store, zerolog.Nop())

	return client, store
}

func storedSession(t *testing.T, store session.Store, access, refresh string) *session.Session {
	t.Helper()

	sess := &session.Session{
		ID:           "sess-1",
		User:         &models.User{ID: 1, Role: models.RoleStudent},
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(context.Background(), sess))
	return sess
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestTransport_AttachesBearerAndDecodesBothListShapes(t *testing.T) {
	var authHeaders []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/enrollments/", func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []map[string]interface{}{{"id": 1, "progress": 40}})
	})
	mux.HandleFunc("/api/wishlist/", func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":   1,
			"results": []map[string]interface{}{{"id": 9, "course": map[string]interface{}{"id": 3, "title": "Go", "price": "10.50"}}},
		})
	})

	client, store := newTestClient(t, mux)
	sess := storedSession(t, store, "access-1", "refresh-1")
	ctx := context.Background()

	enrollments, err := client.Courses.Enrollments(ctx, sess)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, 40, enrollments[0].Progress)

	wishlist, err := client.Courses.Wishlist(ctx, sess)
	require.NoError(t, err)
	require.Len(t, wishlist, 1)
	assert.Equal(t, 10.5, wishlist[0].Course.Price.Float())

	assert.Equal(t, []string{"Bearer access-1", "Bearer access-1"}, authHeaders)
}

func TestTransport_RefreshesOnceAndRetries(t *testing.T) {
	var meCalls, refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&meCalls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 1, "email": "a@b.c", "role": "student"})
	})
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var body models.RefreshRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body.Refresh)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	})

	client, store := newTestClient(t, mux)
	sess := storedSession(t, store, "stale", "refresh-1")

	user, err := client.Auth.Me(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", user.Email)

	assert.Equal(t, int32(2), atomic.LoadInt32(&meCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "fresh", sess.AccessToken)

	persisted, err := store.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", persisted.AccessToken)
	assert.Equal(t, "refresh-1", persisted.RefreshToken)
	require.NotNil(t, persisted.User)
}

func TestTransport_FailedRefreshClearsSession(t *testing.T) {
	var meCalls, refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&meCalls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
	})
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted"})
	})

	client, store := newTestClient(t, mux)
	sess := storedSession(t, store, "stale", "revoked")

	_, err := client.Auth.Me(context.Background(), sess)
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, int32(1), atomic.LoadInt32(&meCalls), "no retry after a failed refresh")
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Empty(t, sess.AccessToken)
	assert.Empty(t, sess.RefreshToken)
	assert.Nil(t, sess.User)

	_, err = store.Load(context.Background(), sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestTransport_SecondUnauthorizedAfterRefreshExpires(t *testing.T) {
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/enrollments/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "nope"})
	})
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	})

	client, store := newTestClient(t, mux)
	sess := storedSession(t, store, "stale", "refresh-1")

	_, err := client.Courses.Enrollments(context.Background(), sess)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))

	_, err = store.Load(context.Background(), sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestTransport_NoRefreshTokenExpiresWithoutCallingRefresh(t *testing.T) {
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/enrollments/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
	})
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})

	client, store := newTestClient(t, mux)
	sess := storedSession(t, store, "stale", "")

	_, err := client.Courses.Enrollments(context.Background(), sess)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Zero(t, atomic.LoadInt32(&refreshCalls))
}

func TestTransport_ErrorsPropagateWithoutRetry(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       interface{}
		wantDetail string
		wantFields map[string][]string
	}{
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       map[string]string{"detail": "boom"},
			wantDetail: "boom",
		},
		{
			name:       "permission denied",
			status:     http.StatusForbidden,
			body:       map[string]string{"detail": "You have reached the maximum number of attempts for this quiz."},
			wantDetail: "You have reached the maximum number of attempts for this quiz.",
		},
		{
			name:       "field errors",
			status:     http.StatusBadRequest,
			body:       map[string]interface{}{"title": []string{"This field is required."}},
			wantFields: map[string][]string{"title": {"This field is required."}},
		},
		{
			name:       "non field errors",
			status:     http.StatusBadRequest,
			body:       map[string]interface{}{"non_field_errors": []string{"Invalid credentials."}},
			wantDetail: "Invalid credentials.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				writeJSON(w, tt.status, tt.body)
			}))
			sess := storedSession(t, store, "access", "refresh")

			_, err := client.Courses.Get(context.Background(), sess, 1)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.wantFields, apiErr.Fields)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestAuthClient_LoginFailureIsPlainAPIError(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"detail": "Invalid credentials."})
	})
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.Auth.Login(context.Background(), models.LoginRequest{Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionExpired))
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Zero(t, atomic.LoadInt32(&refreshCalls))
}

func TestSubmissionClient_SubmitAssignmentIsMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/assignment-submissions/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		assert.Equal(t, "12", r.FormValue("assignment_id"))
		assert.Equal(t, "my essay", r.FormValue("text_response"))

		file, header, err := r.FormFile("attachment")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "essay.txt", header.Filename)
		assert.Equal(t, "hello", string(content))

		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": 5, "status": "submitted"})
	})

	client, store := newTestClient(t, mux)
	sess := storedSession(t, store, "access", "refresh")

	sub, err := client.Submissions.SubmitAssignment(context.Background(), sess, models.AssignmentSubmissionInput{
		AssignmentID: 12,
		TextResponse: "my essay",
		Attachment:   &models.FileUpload{FileName: "essay.txt", Content: strings.NewReader("hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), sub.ID)
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)
}
