package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOIDCProvider_Discovery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/.well-known/openid-configuration" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"issuer":   "https://idp.clinic.example",
				"jwks_uri": "https://idp.clinic.example/jwks",
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	provider, err := NewOIDCProvider(server.URL + "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.JWKSURI != "https://idp.clinic.example/jwks" {
		t.Errorf("unexpected jwks_uri %s", provider.JWKSURI)
	}
}

func TestOIDCProvider_MissingJWKS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"issuer": "x"})
	}))
	defer server.Close()

	if _, err := NewOIDCProvider(server.URL); err == nil {
		t.Error("expected error for missing jwks_uri")
	}
}

func TestOIDCProvider_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewOIDCProvider(server.URL); err == nil {
		t.Error("expected error for non-200 discovery response")
	}
}

func TestJWKSCache_UnknownKid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jwksResponse{Keys: []JWKSKey{{Kty: "EC", Kid: "ec-1"}}})
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, defaultJWKSCacheTTL)
	if _, err := cache.GetKey("rsa-1"); err == nil {
		t.Error("expected error for unknown kid")
	}
}
