package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jonwraymond/tokenauth/secret"
)

func TestRegistry_RegisterProvider(t *testing.T) {
	reg := NewRegistry(nil)
	factory := func(map[string]any) (Provider, error) { return NewStaticTokenProvider("t") }

	if err := reg.RegisterProvider("", factory); err == nil {
		t.Error("RegisterProvider() with empty name error = nil")
	}
	if err := reg.RegisterProvider("x", nil); err == nil {
		t.Error("RegisterProvider() with nil factory error = nil")
	}
	if err := reg.RegisterProvider("x", factory); err != nil {
		t.Fatalf("RegisterProvider() error = %v", err)
	}
	if err := reg.RegisterProvider("x", factory); err == nil {
		t.Error("duplicate RegisterProvider() error = nil")
	}

	if _, err := reg.CreateProvider(context.Background(), "missing", nil); err == nil {
		t.Error("CreateProvider() for missing name error = nil")
	}
	p, err := reg.CreateProvider(context.Background(), "x", nil)
	if err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}
	if p.Name() != "static" {
		t.Errorf("Name() = %q, want static", p.Name())
	}
}

func TestDefaultRegistry_ListProviders(t *testing.T) {
	got := DefaultRegistry.ListProviders()
	want := []string{"api_key", "login", "static"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListProviders() = %v, want %v", got, want)
	}
}

func TestDefaultRegistry_CreateLoginProvider(t *testing.T) {
	t.Setenv("TOKENAUTH_TEST_SECRET", "from-env")

	creds := make(chan [2]string, 1)
	srv := newLoginServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		creds <- [2]string{user, pass}
		tokenHandler("abc123")(w, r)
	})

	p, err := DefaultRegistry.CreateProvider(context.Background(), "login", map[string]any{
		"base_url":      srv.URL,
		"username":      "svc",
		"secret":        "secretref:env:TOKENAUTH_TEST_SECRET",
		"name":          "corp",
		"timeout":       "5s",
		"single_flight": true,
	})
	if err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}
	if p.Name() != "corp" {
		t.Errorf("Name() = %q, want corp", p.Name())
	}

	if _, err := p.Authenticate(context.Background(), &RequestOptions{}); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got := <-creds; got != [2]string{"svc", "from-env"} {
		t.Errorf("basic auth = %v, want [svc from-env]", got)
	}

	la, ok := p.(*LoginAuthenticator)
	if !ok {
		t.Fatalf("provider type = %T, want *LoginAuthenticator", p)
	}
	if la.group == nil {
		t.Error("single_flight not applied")
	}
	if la.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", la.httpClient.Timeout)
	}
}

func TestDefaultRegistry_CreateErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		cfg      map[string]any
	}{
		{"login missing base url", "login", map[string]any{"username": "svc"}},
		{"login bad timeout", "login", map[string]any{"base_url": "https://id.example.com", "username": "svc", "timeout": "soon"}},
		{"login unresolved secret", "login", map[string]any{"base_url": "https://id.example.com", "username": "svc", "secret": "${TOKENAUTH_TEST_UNSET}"}},
		{"static empty", "static", map[string]any{}},
		{"api key empty", "api_key", map[string]any{"header_name": "X-Key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultRegistry.CreateProvider(context.Background(), tt.provider, tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("CreateProvider() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDefaultRegistry_CreateStaticAndAPIKey(t *testing.T) {
	ctx := context.Background()

	p, err := DefaultRegistry.CreateProvider(ctx, "static", map[string]any{"token": "fixed"})
	if err != nil {
		t.Fatalf("CreateProvider(static) error = %v", err)
	}
	opts, _ := p.Authenticate(ctx, &RequestOptions{})
	if token, _ := opts.BearerToken(); token != "fixed" {
		t.Errorf("static token = %q, want fixed", token)
	}

	p, err = DefaultRegistry.CreateProvider(ctx, "api_key", map[string]any{"key": "k-1", "header_name": "X-Service-Key"})
	if err != nil {
		t.Fatalf("CreateProvider(api_key) error = %v", err)
	}
	if hn := p.(*APIKeyProvider).HeaderName(); hn != "X-Service-Key" {
		t.Errorf("HeaderName() = %q, want X-Service-Key", hn)
	}
}

func TestRegistry_FileSecrets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "password"), []byte("on-disk\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry(secret.NewResolver(true, secret.FileProvider{Root: dir}))
	registerBuiltins(reg)

	p, err := reg.CreateProvider(context.Background(), "static", map[string]any{"token": "secretref:file:password"})
	if err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}
	opts, _ := p.Authenticate(context.Background(), &RequestOptions{})
	if token, _ := opts.BearerToken(); token != "on-disk" {
		t.Errorf("token = %q, want on-disk", token)
	}
}

func TestLoginConfigFromMap_TLS(t *testing.T) {
	dir := t.TempDir()
	caPath := filepath.Join(dir, "ca.pem")
	if err := os.WriteFile(caPath, []byte("ca-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoginConfigFromMap(map[string]any{
		"login_path": "/v2/login",
		"tls": map[string]any{
			"ca_file":             caPath,
			"cert":                "cert-bytes",
			"key":                 "key-bytes",
			"passphrase":          "pw",
			"reject_unauthorized": false,
		},
	})
	if err != nil {
		t.Fatalf("LoginConfigFromMap() error = %v", err)
	}
	if cfg.LoginPath != "/v2/login" {
		t.Errorf("LoginPath = %q", cfg.LoginPath)
	}
	if string(cfg.TLS.CA) != "ca-bytes" || string(cfg.TLS.Cert) != "cert-bytes" || string(cfg.TLS.Key) != "key-bytes" {
		t.Errorf("TLS material = %+v", cfg.TLS)
	}
	if cfg.TLS.Passphrase != "pw" {
		t.Errorf("Passphrase = %q, want pw", cfg.TLS.Passphrase)
	}
	if cfg.TLS.RejectUnauthorized == nil || *cfg.TLS.RejectUnauthorized {
		t.Error("RejectUnauthorized not set to false")
	}

	_, err = LoginConfigFromMap(map[string]any{"tls": map[string]any{"ca_file": filepath.Join(dir, "missing.pem")}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoginConfigFromMap() missing file error = %v, want ErrInvalidConfig", err)
	}
}
