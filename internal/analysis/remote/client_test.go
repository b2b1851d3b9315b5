package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/lawlens/internal/analysis/domain"
)

func TestClient_CreateJob(t *testing.T) {
	var gotBody createJobRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/jobs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(createJobResponse{
			JobID:     "11111111-2222-3333-4444-555555555555",
			UploadURL: "http://storage.local/artifacts/x/law.html",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	sub, err := client.CreateJob(context.Background(), domain.SourceFile{Name: "law.html"}, domain.RiskMedium)

	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", sub.JobID)
	assert.Equal(t, "http://storage.local/artifacts/x/law.html", sub.Target.URL)
	assert.Equal(t, "text/html", sub.Target.ContentType)
	assert.Equal(t, "MEDIUM", gotBody.RiskProfile)
	assert.Equal(t, "text/html", gotBody.ContentType)
	assert.Equal(t, "law.html", gotBody.Filename)
}

func TestClient_CreateJobFailureCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"database unavailable"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	_, err := client.CreateJob(context.Background(), domain.SourceFile{Name: "law.html"}, domain.RiskSafe)

	var serr *domain.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Detail, "503")
	assert.Contains(t, serr.Detail, "database unavailable")
}

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/xml", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "<xml/>", string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	target := domain.UploadTarget{URL: srv.URL + "/artifacts/j1/regulation.xml", ContentType: "application/xml"}

	assert.NoError(t, client.Upload(context.Background(), target, strings.NewReader("<xml/>")))
}

func TestClient_UploadFailureKeepsStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("quota exceeded"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	target := domain.UploadTarget{URL: srv.URL + "/artifacts/j1/law.html", ContentType: "text/html"}
	err := client.Upload(context.Background(), target, strings.NewReader("x"))

	var uerr *domain.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 500, uerr.StatusCode)
	assert.Equal(t, "quota exceeded", uerr.Body)
}

func TestClient_Start(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{name: "202 accepted", statusCode: http.StatusAccepted, wantErr: false},
		{name: "200 is not acceptance", statusCode: http.StatusOK, wantErr: true},
		{name: "500 is fatal", statusCode: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/jobs/j1/start", r.URL.Path)
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, 0, nil)
			err := client.Start(context.Background(), "j1")

			if tt.wantErr {
				var serr *domain.StartError
				require.ErrorAs(t, err, &serr)
				assert.Equal(t, tt.statusCode, serr.StatusCode)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClient_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jobs/running":
			json.NewEncoder(w).Encode(statusResponse{JobID: "running", Status: "RUNNING"})
		case "/jobs/done":
			json.NewEncoder(w).Encode(statusResponse{JobID: "done", Status: "COMPLETED", ResultURL: "http://storage.local/artifacts/done/result.json"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	ctx := context.Background()

	rep, err := client.Status(ctx, "running")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, rep.Status)
	assert.Empty(t, rep.ResultURL)

	rep, err = client.Status(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, rep.Status)
	assert.Equal(t, "http://storage.local/artifacts/done/result.json", rep.ResultURL)

	_, err = client.Status(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestClient_FetchResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/artifacts/j1/result.json":
			json.NewEncoder(w).Encode(domain.ResultPayload{
				Summary: "Processed law.html with risk MEDIUM.",
				Stocks:  []string{"AAPL", "MSFT", "NVDA"},
				Comment: "exposure concentrated in information technology",
			})
		case "/artifacts/bad/result.json":
			w.Write([]byte("{not json"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	ctx := context.Background()

	payload, err := client.FetchResult(ctx, srv.URL+"/artifacts/j1/result.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, payload.Stocks)

	_, err = client.FetchResult(ctx, srv.URL+"/artifacts/bad/result.json")
	assert.Error(t, err)

	_, err = client.FetchResult(ctx, srv.URL+"/artifacts/missing/result.json")
	assert.Error(t, err)
}
