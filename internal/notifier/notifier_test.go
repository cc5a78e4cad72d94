package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotifyDeliversOnFirstAttempt(t *testing.T) {
	var attempts atomic.Int64
	var received Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(time.Second, 3)
	n.Notify(context.TODO(), srv.URL, Payload{"job_id": "abc", "status": "completed"})

	require.Equal(t, int64(1), attempts.Load())
	require.Equal(t, "abc", received["job_id"])
	require.Equal(t, "completed", received["status"])
}

func TestNotifyRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(time.Second, 3)
	n.Notify(context.TODO(), srv.URL, Payload{"job_id": "abc"})

	require.Equal(t, int64(3), attempts.Load())
}

func TestNotifyGivesUpAfterMaxAttempts(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(time.Second, 2)
	n.Notify(context.TODO(), srv.URL, Payload{"job_id": "abc"})

	require.Equal(t, int64(2), attempts.Load())
}

func TestNotifyDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := New(time.Second, 3)
	n.Notify(context.TODO(), srv.URL, Payload{"job_id": "abc"})

	require.Equal(t, int64(1), attempts.Load())
}

func TestNotifyIgnoresEmptyURL(t *testing.T) {
	n := New(time.Second, 3)
	n.Notify(context.TODO(), "", Payload{"job_id": "abc"})
}
