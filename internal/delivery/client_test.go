package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"submitbox/internal/signature"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBody = `{"action_run_link":"https://github.com/o/repo/actions/runs/42","email":"ada@example.com","name":"Ada","repository_link":"https://github.com/o/repo","resume_link":"https://x/r.pdf","timestamp":"2024-01-02T03:04:05.123456+00:00"}`

func newTestClient() *Client {
	return NewClient(5*time.Second, zerolog.Nop())
}

func TestDeliver_Success(t *testing.T) {
	sig := signature.Sign([]byte(testBody), "s3cr3t")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, sig, r.Header.Get("X-Signature-256"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, testBody, string(body), "body must be sent exactly as signed")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"receipt":"rcpt-123"}`)
	}))
	defer srv.Close()

	receipt, err := newTestClient().Deliver(context.Background(), srv.URL, []byte(testBody), sig)
	require.NoError(t, err)
	assert.Equal(t, "rcpt-123", receipt.String())
}

func TestDeliver_NonStringReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"receipt":{"id":7,"ok":true}}`)
	}))
	defer srv.Close()

	receipt, err := newTestClient().Deliver(context.Background(), srv.URL, []byte(testBody), "sha256=00")
	require.NoError(t, err)
	assert.Equal(t, `{"id":7,"ok":true}`, receipt.String())
}

func TestDeliver_NonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"forbidden", http.StatusForbidden, `{"error":"Invalid signature"}`},
		{"server error", http.StatusInternalServerError, "boom"},
		{"created is not ok", http.StatusCreated, `{"receipt":"ignored"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			receipt, err := newTestClient().Deliver(context.Background(), srv.URL, []byte(testBody), "sha256=00")
			assert.Nil(t, receipt)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDelivery))

			var derr *DeliveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tc.status, derr.StatusCode)
			assert.Equal(t, tc.body, derr.Body)
			assert.False(t, derr.IsTransport())
			assert.Contains(t, err.Error(), fmt.Sprintf("HTTP %d", tc.status))
		})
	}
}

func TestDeliver_OKWithoutReceipt(t *testing.T) {
	tests := map[string]string{
		"not json":        "thanks",
		"missing receipt": `{"status":"ok"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			receipt, err := newTestClient().Deliver(context.Background(), srv.URL, []byte(testBody), "sha256=00")
			assert.Nil(t, receipt)

			var derr *DeliveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, http.StatusOK, derr.StatusCode)
			assert.Equal(t, body, derr.Body)
		})
	}
}

func TestDeliver_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	receipt, err := newTestClient().Deliver(context.Background(), url, []byte(testBody), "sha256=00")
	assert.Nil(t, receipt)
	assert.True(t, errors.Is(err, ErrDelivery))

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.True(t, derr.IsTransport())
	assert.Equal(t, 0, derr.StatusCode)
	assert.NotNil(t, derr.Unwrap())
}

func TestDeliver_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(50*time.Millisecond, zerolog.Nop())
	_, err := client.Deliver(context.Background(), srv.URL, []byte(testBody), "sha256=00")

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.True(t, derr.IsTransport())
}

func TestDeliver_InvalidURL(t *testing.T) {
	_, err := newTestClient().Deliver(context.Background(), "://bad", []byte(testBody), "sha256=00")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDelivery))
}

func TestNewRequest_Headers(t *testing.T) {
	req, err := NewRequest(context.Background(), "https://example.com/submit", []byte(testBody), "sha256=abc")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "sha256=abc", req.Header.Get("X-Signature-256"))
	assert.Equal(t, int64(len(testBody)), req.ContentLength)
}

func TestDeliver_LogsRequestAtInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"receipt":"r"}`)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	client := NewClient(5*time.Second, zerolog.New(&logs).Level(zerolog.InfoLevel))

	sig := signature.Sign([]byte(testBody), "s3cr3t")
	_, err := client.Deliver(context.Background(), srv.URL, []byte(testBody), sig)
	require.NoError(t, err)

	var entry map[string]interface{}
	line, _, _ := bytes.Cut(logs.Bytes(), []byte("\n"))
	require.NoError(t, json.Unmarshal(line, &entry))

	assert.Equal(t, "sending submission", entry["message"])
	assert.Equal(t, sig, entry["X-Signature-256"])
	assert.Equal(t, "application/json", entry["Content-Type"])
	assert.Equal(t, "ada@example.com", entry["body"].(map[string]interface{})["email"])
}
