package secret

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name    string
	values  map[string]string
	resolve func(ref string) (string, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.resolve != nil {
		return s.resolve(ref)
	}
	return s.values[ref], nil
}

func (s *stubProvider) Close() error { return nil }

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in           string
		wantProvider string
		wantRef      string
		wantOK       bool
	}{
		{in: "secretref:env:LOGIN_SECRET", wantProvider: "env", wantRef: "LOGIN_SECRET", wantOK: true},
		{in: "secretref:file:/run/secrets/a:b", wantProvider: "file", wantRef: "/run/secrets/a:b", wantOK: true},
		{in: "secretref:env:", wantOK: false},
		{in: "secretref::x", wantOK: false},
		{in: "plain-secret", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			provider, ref, ok := ParseSecretRef(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if provider != tt.wantProvider || ref != tt.wantRef {
				t.Errorf("got (%q, %q), want (%q, %q)", provider, ref, tt.wantProvider, tt.wantRef)
			}
		})
	}
}

func TestResolver_ResolveValue(t *testing.T) {
	t.Setenv("LOGIN_USER", "svc-user")
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one", "empty": ""}})

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "literal", in: "s3cr3t", want: "s3cr3t"},
		{name: "env expansion", in: "${LOGIN_USER}", want: "svc-user"},
		{name: "full ref", in: "secretref:stub:alpha", want: "one"},
		{name: "inline ref", in: "Bearer secretref:stub:alpha", want: "Bearer one"},
		{name: "strict empty", in: "secretref:stub:empty", wantErr: ErrEmptyValue},
		{name: "unknown provider", in: "secretref:vault:x", wantErr: ErrUnknownProvider},
		{name: "missing env", in: "${NOT_SET_ANYWHERE_42}", wantErr: ErrMissingEnv},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveValue(context.Background(), tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_NilExpandsEnvOnly(t *testing.T) {
	t.Setenv("LOGIN_USER", "svc-user")
	var r *Resolver

	got, err := r.ResolveValue(context.Background(), "${LOGIN_USER}")
	if err != nil || got != "svc-user" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_ResolveConfig(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"pw": "hunter2", "pp": "phrase"}})

	cfg := map[string]any{
		"username": "svc",
		"secret":   "secretref:stub:pw",
		"timeout":  "5s",
		"single":   true,
		"tls": map[string]any{
			"passphrase": "secretref:stub:pp",
		},
		"list": []any{"secretref:stub:pw", 3},
	}

	out, err := r.ResolveConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if out["secret"] != "hunter2" {
		t.Errorf("secret = %v, want hunter2", out["secret"])
	}
	if out["single"] != true {
		t.Errorf("single = %v, want true", out["single"])
	}
	if tls := out["tls"].(map[string]any); tls["passphrase"] != "phrase" {
		t.Errorf("tls.passphrase = %v, want phrase", tls["passphrase"])
	}
	if list := out["list"].([]any); list[0] != "hunter2" || list[1] != 3 {
		t.Errorf("list = %v", list)
	}
	if cfg["secret"] != "secretref:stub:pw" {
		t.Error("ResolveConfig mutated its input")
	}
}

func TestResolver_ProviderErrorPropagates(t *testing.T) {
	boom := errors.New("explode")
	r := NewResolver(true, &stubProvider{name: "stub", resolve: func(string) (string, error) {
		return "", boom
	}})

	_, err := r.ResolveConfig(context.Background(), map[string]any{"secret": "secretref:stub:x"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestNewDefaultResolver(t *testing.T) {
	t.Setenv("TOKENAUTH_TEST_SECRET", "from-env")

	r, err := NewDefaultResolver()
	if err != nil {
		t.Fatalf("NewDefaultResolver() error = %v", err)
	}
	got, err := r.ResolveValue(context.Background(), "secretref:env:TOKENAUTH_TEST_SECRET")
	if err != nil || got != "from-env" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}
