package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linkfeed/linkfeed/internal/fetch"
)

func TestFetchReturnsBodyAndMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("User-Agent"), "linkfeed/")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	client := fetch.NewClient(time.Second)
	res, err := client.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	require.Equal(t, []byte("<html></html>"), res.Body)
	require.Equal(t, srv.URL+"/page", res.URL)
	require.Equal(t, "text/html; charset=utf-8", res.ContentType)
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("done"))
	})

	client := fetch.NewClient(time.Second)
	res, err := client.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/final", res.URL)
	require.Equal(t, []byte("done"), res.Body)
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	client := fetch.NewClient(time.Second)
	_, err := client.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestFetchStopsAfterTooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	client := fetch.NewClient(time.Second)
	_, err := client.Fetch(context.Background(), srv.URL+"/loop")
	require.Error(t, err)
	require.Contains(t, err.Error(), "redirects")
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := fetch.NewClient(time.Minute)
	_, err := client.Fetch(ctx, srv.URL)
	require.Error(t, err)
}
