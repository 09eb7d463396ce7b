package recognizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_Recognize(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotPath = body["image_path"]
		_, _ = w.Write([]byte(`{"answers":[{"question_number":3,"marked_answer":"E"}]}`))
	}))
	defer srv.Close()

	rec, err := NewHTTP(srv.URL, time.Second).Recognize(context.Background(), "/data/scans/a.png")
	require.NoError(t, err)
	assert.Equal(t, "/data/scans/a.png", gotPath)
	require.Len(t, rec.Answers, 1)
	assert.Equal(t, "E", rec.Answers[0].MarkedAnswer)
}

func TestHTTP_Errors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "boom", ErrProcess},
		{"logic error", http.StatusOK, `{"error":"No answer bubbles detected."}`, ErrLogic},
		{"bad json", http.StatusOK, `<html>`, ErrProcess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTP(srv.URL, time.Second).Recognize(context.Background(), "/x.png")
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHTTP_Unreachable(t *testing.T) {
	_, err := NewHTTP("http://127.0.0.1:1", 200*time.Millisecond).Recognize(context.Background(), "/x.png")
	assert.ErrorIs(t, err, ErrProcess)
}
