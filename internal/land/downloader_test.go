package land

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func TestValidateDate(t *testing.T) {
	testCases := []struct {
		name    string
		day     string
		wantErr bool
	}{
		{name: "well formed", day: "2024-01-05", wantErr: false},
		{name: "leap day", day: "2024-02-29", wantErr: false},
		{name: "impossible day", day: "2024-02-30", wantErr: true},
		{name: "missing padding", day: "2024-1-5", wantErr: true},
		{name: "compact form", day: "20240105", wantErr: true},
		{name: "empty", day: "", wantErr: true},
		{name: "free text", day: "yesterday", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDate(tc.day)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ValidateDate(%q) = %v, want ErrInvalidDate", tc.day, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateDate(%q) = %v, want nil", tc.day, err)
			}
		})
	}
}

func TestArchiveName(t *testing.T) {
	got := ArchiveName("2024-01-05")
	want := "sor-global-2024-01-05-full.parquet.zip"
	if got != want {
		t.Errorf("ArchiveName = %q, want %q", got, want)
	}
}

func newTestDownloader(baseURL string, retries int) *HTTPDownloader {
	return NewHTTPDownloader(&DownloadConfig{
		BaseURL:         baseURL,
		ConnectTimeout:  time.Second,
		TransferTimeout: 5 * time.Second,
		RetryCount:      retries,
		RetryWait:       5 * time.Millisecond,
		RetryMaxWait:    20 * time.Millisecond,
	})
}

func TestFetchDayInvalidDateSkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	d := newTestDownloader(srv.URL, 0)
	_, err := d.FetchDay(context.Background(), "2024-13-99")
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("FetchDay = %v, want ErrInvalidDate", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("server was hit %d times, want 0", hits)
	}
}

func TestFetchDaySuccess(t *testing.T) {
	payload := bytes.Repeat([]byte("parquet-bytes "), 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/" + ArchiveName("2024-01-05")
		if r.URL.Path != wantPath {
			t.Errorf("request path = %q, want %q", r.URL.Path, wantPath)
		}
		w.Write(payload)
	}))
	defer srv.Close()

	d := newTestDownloader(srv.URL, 0)
	path, err := d.FetchDay(context.Background(), "2024-01-05")
	if err != nil {
		t.Fatalf("FetchDay failed: %v", err)
	}
	defer os.Remove(path)

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded archive: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("downloaded %d bytes, want %d matching bytes", len(got), len(payload))
	}
}

func TestFetchDayRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newTestDownloader(srv.URL, 2)
	_, err := d.FetchDay(context.Background(), "2024-01-05")
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("FetchDay = %v, want ErrTransfer", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("server was hit %d times, want 3 (initial attempt plus 2 retries)", got)
	}
}

func TestFetchDayNotFound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := newTestDownloader(srv.URL, 2)
	_, err := d.FetchDay(context.Background(), "2024-01-05")
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("FetchDay = %v, want ErrTransfer", err)
	}
	// 404 is not retryable
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server was hit %d times, want 1", got)
	}
}
