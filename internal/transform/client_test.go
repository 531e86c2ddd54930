package transform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/musikito/imagigenie/internal/domain"
)

func TestApplyReturnsDerivedAsset(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result_url":"https://cdn.example.com/out.jpg","width":1024,"height":768}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key_test")
	result, err := c.Apply(context.Background(), Request{
		SourceURL: "https://cdn.example.com/src.jpg",
		Config:    domain.TransformationConfig{Kind: domain.KindRestore},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.ResultURL != "https://cdn.example.com/out.jpg" {
		t.Errorf("result url: got %q", result.ResultURL)
	}
	if result.Width != 1024 || result.Height != 768 {
		t.Errorf("dimensions: got %dx%d, want 1024x768", result.Width, result.Height)
	}
	if gotAuth != "Bearer key_test" {
		t.Errorf("authorization header: got %q", gotAuth)
	}
}

func TestApplyWrapsProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key_test")
	_, err := c.Apply(context.Background(), Request{
		SourceURL: "https://cdn.example.com/src.jpg",
		Config:    domain.TransformationConfig{Kind: domain.KindRestore},
	})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("provider 5xx: got %v, want ErrUpstream", err)
	}
}

func TestApplyRejectsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key_test")
	_, err := c.Apply(context.Background(), Request{
		SourceURL: "https://cdn.example.com/src.jpg",
		Config:    domain.TransformationConfig{Kind: domain.KindRestore},
	})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("empty result: got %v, want ErrUpstream", err)
	}
}
