package identity

import (
	"sync"

	"github.com/jrsteele09/go-tenant-console/internal/config"
	"github.com/pkg/errors"
)

// Factory builds a client from validated backend configuration.
type Factory func(cfg config.BackendConfig) (Client, error)

// Provider owns the single shared client. It is built lazily on first use,
// dropped by Reset and rebuilt on the next Client call. Holders must call
// Client each time rather than keep the instance.
type Provider struct {
	cfg     config.BackendConfig
	factory Factory

	lock       sync.Mutex
	client     Client
	generation uint64
}

func NewProvider(cfg config.BackendConfig, factory Factory) *Provider {
	return &Provider{cfg: cfg, factory: factory}
}

// Client returns the shared instance, building it if needed. Missing backend
// configuration fails with a ConfigurationError and leaves the slot empty.
func (p *Provider) Client() (Client, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	if err := config.ValidateBackend(p.cfg); err != nil {
		return nil, err
	}
	if p.factory == nil {
		return nil, errors.New("[identity.Provider.Client] no client factory")
	}
	c, err := p.factory(p.cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[identity.Provider.Client] factory")
	}
	p.client = c
	p.generation++
	return c, nil
}

// Reset drops the shared instance so the next Client call builds a fresh one.
func (p *Provider) Reset() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.client = nil
}

// Replace installs c as the shared instance.
func (p *Provider) Replace(c Client) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.client = c
	if c != nil {
		p.generation++
	}
}

// Generation increases every time a new instance is installed.
func (p *Provider) Generation() uint64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.generation
}
