package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/tokenauth/secret"
)

// ProviderFactory creates a Provider from resolved configuration.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry manages provider factories.
//
// String values in the configuration passed to CreateProvider are resolved
// through the registry's secret.Resolver before reaching the factory.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
	resolver  *secret.Resolver
}

// NewRegistry creates a registry. A nil resolver only expands ${VAR} references.
func NewRegistry(resolver *secret.Resolver) *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		resolver:  resolver,
	}
}

// RegisterProvider adds a provider factory.
func (r *Registry) RegisterProvider(name string, factory ProviderFactory) error {
	if name == "" || factory == nil {
		return errors.New("invalid provider registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// CreateProvider resolves secrets in cfg and instantiates a provider by name.
func (r *Registry) CreateProvider(ctx context.Context, name string, cfg map[string]any) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("provider %q not found", name)
	}

	resolved, err := r.resolver.ResolveConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if resolved == nil {
		resolved = map[string]any{}
	}
	return factory(resolved)
}

// ListProviders returns registered provider names.
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global registry with the built-in "login", "static"
// and "api_key" factories and a resolver over secret.DefaultRegistry.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	resolver, err := secret.NewDefaultResolver()
	if err != nil {
		resolver = secret.NewResolver(true)
	}
	reg := NewRegistry(resolver)
	registerBuiltins(reg)
	return reg
}

func registerBuiltins(reg *Registry) {
	_ = reg.RegisterProvider("login", func(cfg map[string]any) (Provider, error) {
		config, err := LoginConfigFromMap(cfg)
		if err != nil {
			return nil, err
		}
		baseURL, _ := cfg["base_url"].(string)
		username, _ := cfg["username"].(string)
		secretValue, _ := cfg["secret"].(string)
		return New(baseURL, username, secretValue, config)
	})

	_ = reg.RegisterProvider("static", func(cfg map[string]any) (Provider, error) {
		token, _ := cfg["token"].(string)
		return NewStaticTokenProvider(token)
	})

	_ = reg.RegisterProvider("api_key", func(cfg map[string]any) (Provider, error) {
		config := APIKeyConfig{}
		if key, ok := cfg["key"].(string); ok {
			config.Key = key
		}
		if headerName, ok := cfg["header_name"].(string); ok {
			config.HeaderName = headerName
		}
		return NewAPIKeyProvider(config)
	})
}

// LoginConfigFromMap builds a login Config from map configuration.
//
// Recognized keys: name, login_path, timeout (duration string), single_flight,
// and a "tls" map with key, cert, ca (PEM strings), key_file, cert_file,
// ca_file, passphrase and reject_unauthorized.
func LoginConfigFromMap(cfg map[string]any) (Config, error) {
	config := Config{}

	if name, ok := cfg["name"].(string); ok {
		config.Name = name
	}
	if path, ok := cfg["login_path"].(string); ok {
		config.LoginPath = path
	}
	if timeout, ok := cfg["timeout"].(string); ok && timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("%w: timeout: %v", ErrInvalidConfig, err)
		}
		config.Timeout = d
	}
	if sf, ok := cfg["single_flight"].(bool); ok {
		config.SingleFlight = sf
	}

	if tlsCfg, ok := cfg["tls"].(map[string]any); ok {
		opts, err := tlsOptionsFromMap(tlsCfg)
		if err != nil {
			return Config{}, err
		}
		config.TLS = opts
	}

	return config, nil
}

func tlsOptionsFromMap(cfg map[string]any) (TLSOptions, error) {
	opts := TLSOptions{}

	pem := func(inline, file string) ([]byte, error) {
		if v, ok := cfg[inline].(string); ok && v != "" {
			return []byte(v), nil
		}
		if path, ok := cfg[file].(string); ok && path != "" {
			// #nosec G304 -- path comes from operator configuration.
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, file, err)
			}
			return data, nil
		}
		return nil, nil
	}

	var err error
	if opts.Key, err = pem("key", "key_file"); err != nil {
		return TLSOptions{}, err
	}
	if opts.Cert, err = pem("cert", "cert_file"); err != nil {
		return TLSOptions{}, err
	}
	if opts.CA, err = pem("ca", "ca_file"); err != nil {
		return TLSOptions{}, err
	}
	if passphrase, ok := cfg["passphrase"].(string); ok {
		opts.Passphrase = passphrase
	}
	if reject, ok := cfg["reject_unauthorized"].(bool); ok {
		opts.RejectUnauthorized = Bool(reject)
	}

	return opts, nil
}
