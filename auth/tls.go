package auth

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// TLSOptions is the transport material used for the login exchange.
type TLSOptions struct {
	// Key is a PEM encoded client private key, optionally encrypted.
	Key []byte

	// Cert is a PEM encoded client certificate chain.
	Cert []byte

	// CA is a PEM bundle that replaces the system roots.
	CA []byte

	// Passphrase decrypts Key when it is an encrypted PEM block.
	Passphrase string

	// RejectUnauthorized verifies the identity endpoint certificate.
	// Default: true (nil)
	RejectUnauthorized *bool

	// CheckServerIdentity replaces hostname verification. The certificate chain
	// is still verified unless RejectUnauthorized is false. host is the SNI
	// name, or the identity endpoint host when none was sent (IP literals).
	CheckServerIdentity func(host string, cert *x509.Certificate) error
}

// rejectUnauthorized returns the effective verification policy.
func (o TLSOptions) rejectUnauthorized() bool {
	return o.RejectUnauthorized == nil || *o.RejectUnauthorized
}

func (o TLSOptions) isZero() bool {
	return len(o.Key) == 0 && len(o.Cert) == 0 && len(o.CA) == 0 &&
		o.RejectUnauthorized == nil && o.CheckServerIdentity == nil
}

// BuildTLSConfig converts the options into a *tls.Config.
// It returns nil when no option is set so the default transport is used.
func (o TLSOptions) BuildTLSConfig() (*tls.Config, error) {
	return o.buildTLSConfig("")
}

// buildTLSConfig hands host to CheckServerIdentity when the handshake
// carries no server name.
func (o TLSOptions) buildTLSConfig(host string) (*tls.Config, error) {
	if o.isZero() {
		return nil, nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if len(o.CA) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(o.CA) {
			return nil, fmt.Errorf("%w: no certificates found in ca", ErrInvalidConfig)
		}
		cfg.RootCAs = pool
	}

	if len(o.Cert) > 0 || len(o.Key) > 0 {
		if len(o.Cert) == 0 || len(o.Key) == 0 {
			return nil, fmt.Errorf("%w: key and cert must be set together", ErrInvalidConfig)
		}
		keyPEM, err := decryptKey(o.Key, o.Passphrase)
		if err != nil {
			return nil, err
		}
		pair, err := tls.X509KeyPair(o.Cert, keyPEM)
		if err != nil {
			return nil, fmt.Errorf("%w: load key pair: %v", ErrInvalidConfig, err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	reject := o.rejectUnauthorized()
	if !reject {
		// #nosec G402 -- operator explicitly disabled verification.
		cfg.InsecureSkipVerify = true
	}

	if o.CheckServerIdentity != nil {
		check := o.CheckServerIdentity
		roots := cfg.RootCAs
		// Verification moves into VerifyConnection so the hostname step can be replaced.
		cfg.InsecureSkipVerify = true // #nosec G402
		cfg.VerifyConnection = func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) == 0 {
				return errors.New("identity endpoint presented no certificate")
			}
			leaf := cs.PeerCertificates[0]
			if reject {
				intermediates := x509.NewCertPool()
				for _, c := range cs.PeerCertificates[1:] {
					intermediates.AddCert(c)
				}
				if _, err := leaf.Verify(x509.VerifyOptions{
					Roots:         roots,
					Intermediates: intermediates,
				}); err != nil {
					return err
				}
			}
			name := cs.ServerName
			if name == "" {
				name = host
			}
			return check(name, leaf)
		}
	}

	return cfg, nil
}

func decryptKey(keyPEM []byte, passphrase string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("%w: key is not PEM encoded", ErrInvalidConfig)
	}
	//nolint:staticcheck // legacy encrypted PEM keys are still issued by identity operators.
	if !x509.IsEncryptedPEMBlock(block) {
		return keyPEM, nil
	}
	if passphrase == "" {
		return nil, fmt.Errorf("%w: key is encrypted but no passphrase was given", ErrInvalidConfig)
	}
	//nolint:staticcheck
	der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt key: %v", ErrInvalidConfig, err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}

// Bool returns a pointer to b, for TLSOptions.RejectUnauthorized.
func Bool(b bool) *bool {
	return &b
}
