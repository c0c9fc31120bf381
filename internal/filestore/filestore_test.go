package filestore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eludris-go/eludris/internal/apierror"
)

// TestProxyFetchRejectsMissingContentType covers §4.5: the proxy must
// reject an upstream response with no Content-Type rather than
// rewriting it to application/octet-stream.
func TestProxyFetchRejectsMissingContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("Content-Type")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	_, _, err := ProxyFetch(context.Background(), server.Client(), server.URL, 1024)
	if apiErr, ok := apierror.As(err); !ok || apiErr.Kind != apierror.Misdirected {
		t.Fatalf("expected a misdirected error for a missing Content-Type, got %v", err)
	}
}

// TestProxyFetchRejectsDisallowedContentType covers the same invariant
// for a Content-Type outside the allow-list.
func TestProxyFetchRejectsDisallowedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	_, _, err := ProxyFetch(context.Background(), server.Client(), server.URL, 1024)
	if apiErr, ok := apierror.As(err); !ok || apiErr.Kind != apierror.Misdirected {
		t.Fatalf("expected a misdirected error for a disallowed Content-Type, got %v", err)
	}
}

// TestProxyFetchAllowsAllowListedContentType covers the success path.
func TestProxyFetchAllowsAllowListedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	data, contentType, err := ProxyFetch(context.Background(), server.Client(), server.URL, 1024)
	if err != nil {
		t.Fatalf("ProxyFetch: %v", err)
	}
	if contentType != "image/png" || string(data) != "data" {
		t.Fatalf("unexpected proxy result: %q %q", contentType, data)
	}
}
