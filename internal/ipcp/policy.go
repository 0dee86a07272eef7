package ipcp

import (
	"net"

	"github.com/dgoulet-net/ppplink/internal/fsm"
	"github.com/dgoulet-net/ppplink/internal/frame"
)

// Config is the static, per-link IPCP negotiation configuration.
type Config struct {
	// OurAddress is the address we propose for ourselves; nil means
	// "ask the peer" (send 0.0.0.0 and adopt whatever it Naks back).
	OurAddress net.IP
	// PeerAddress is the address we'll suggest to the peer when it
	// asks for one (sends IpAddress(0.0.0.0)).
	PeerAddress net.IP
}

// Policy implements fsm.Policy for IPCP (spec.md Section 4.5, RFC 1332).
type Policy struct {
	cfg     Config
	ourAddr net.IP
}

// NewPolicy builds an IPCP Policy from static configuration.
func NewPolicy(cfg Config) *Policy {
	addr := cfg.OurAddress
	if addr == nil {
		addr = net.IPv4zero
	}
	return &Policy{cfg: cfg, ourAddr: addr}
}

// BuildRequestOptions implements fsm.Policy.
func (p *Policy) BuildRequestOptions() []fsm.Option {
	return []fsm.Option{IPAddress(p.ourAddr)}
}

// CheckReceived implements fsm.Policy (spec.md Section 4.5: reconcile
// IpAddress per RFC 1332 — Nak 0.0.0.0 with our suggested peer
// address, Ack any other consistent non-zero address, Reject anything
// else this core doesn't negotiate).
func (p *Policy) CheckReceived(received []fsm.Option) (ack, nak, rej []fsm.Option) {
	for _, o := range received {
		switch v := o.(type) {
		case IPAddress:
			if v.IsZero() {
				suggested := p.cfg.PeerAddress
				if suggested == nil {
					rej = append(rej, o)
					continue
				}
				nak = append(nak, IPAddress(suggested))
				continue
			}
			ack = append(ack, o)
		default:
			rej = append(rej, o)
		}
	}
	return ack, nak, rej
}

// ProcessNak implements fsm.Policy: adopt the peer's suggested address.
func (p *Policy) ProcessNak(received []fsm.Option) bool {
	converged := true
	for _, o := range received {
		if v, ok := o.(IPAddress); ok {
			if !net.IP(v).Equal(p.ourAddr) {
				p.ourAddr = net.IP(v)
				converged = false
			}
		}
	}
	return converged
}

// ProcessReject implements fsm.Policy: the peer will never let us
// negotiate an address at all; nothing further to adjust.
func (p *Policy) ProcessReject(received []fsm.Option) bool {
	return true
}

// ProtocolNumber implements fsm.Policy.
func (p *Policy) ProtocolNumber() frame.Proto { return frame.ProtoIPCP }
