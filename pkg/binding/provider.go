package binding

import (
	"sync"

	"go.uber.org/zap"
)

// Provider shares one session between bindings. The connection is released
// when the last mounted binding unmounts.
type Provider struct {
	session Session
	logger  *zap.Logger

	mutex   sync.Mutex
	mounted int
}

func NewProvider(session Session, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		session: session,
		logger:  logger.Named("binding"),
	}
}

func (p *Provider) New() *Binding {
	return &Binding{
		provider: p,
		logger:   p.logger,
		commands: newCommands(p.session),
		changes:  make(chan struct{}, 1),
	}
}

func (p *Provider) Mounted() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.mounted
}

func (p *Provider) acquire(identity *Identity) {
	p.mutex.Lock()
	p.mounted++
	p.mutex.Unlock()

	if identity == nil {
		p.logger.Debug("mounted without identity")
		return
	}
	p.session.Connect(identity.UserID, identity.Token)
}

func (p *Provider) release() {
	p.mutex.Lock()
	p.mounted--
	last := p.mounted == 0
	p.mutex.Unlock()

	if last {
		p.logger.Debug("last binding unmounted, disconnecting")
		p.session.Disconnect()
	}
}
