package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/cors"
)

func TestCORSOptions(t *testing.T) {
	wildcard := corsOptions(nil)
	if wildcard.AllowCredentials || len(wildcard.AllowedOrigins) != 1 || wildcard.AllowedOrigins[0] != "*" {
		t.Fatalf("wildcard origins must not allow credentials: %+v", wildcard)
	}

	listed := corsOptions([]string{"https://shop.example.com"})
	if !listed.AllowCredentials || listed.AllowedOrigins[0] != "https://shop.example.com" {
		t.Fatalf("listed origins should allow credentials: %+v", listed)
	}
}

func TestCORSWildcardResponse(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := cors.New(corsOptions(nil)).Handler(next)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatalf("credentials allowed for wildcard origin: %v", rec.Header())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected origin to be allowed: %v", rec.Header())
	}
}
