package lcp

import (
	"math/rand"

	"github.com/dgoulet-net/ppplink/internal/fsm"
	"github.com/dgoulet-net/ppplink/internal/frame"
)

// supportedNegotiable is the option subset this core will Ack when
// legal and Nak when not (spec.md Section 4.3); anything else is
// Rejected outright. Callback, Quality, and LDisc are supported on the
// wire (decode cleanly) but rejected by policy default.
var supportedNegotiable = map[uint8]bool{
	OptMRU:      true,
	OptAsyncMap: true,
	OptAuth:     true,
	OptMagic:    true,
	OptPFC:      true,
	OptACFC:     true,
	OptMRRU:     true,
	OptSSNHF:    true,
	OptEPDisc:   true,
}

// Config is the static, per-link LCP negotiation configuration.
type Config struct {
	MRU         uint16 // 0 disables the option (use the implicit default)
	MaxMRU      uint16 // upper bound we'll Ack from the peer; 0 means "any"
	AsyncMap    uint32 // desired async map; proposed as given when WantAsync is set
	WantAsync   bool
	Auth        *AuthProto // authentication we offer to negotiate, if any
	AcceptAuths []AuthProto
}

// Policy implements fsm.Policy for LCP (spec.md Section 4.3).
type Policy struct {
	cfg   Config
	magic uint32

	desiredMRU      *MRU
	desiredAsyncMap *AsyncMap
	desiredAuth     *Auth
	desiredPFC      bool
	desiredACFC     bool

	rejectedTypes map[uint8]bool
}

// NewPolicy builds an LCP Policy from static configuration. magic, if
// zero, is replaced by a random nonzero value (spec.md Section 4.3:
// "Magic = random u32 != 0").
func NewPolicy(cfg Config, magic uint32) *Policy {
	if magic == 0 {
		magic = randomMagic()
	}
	p := &Policy{cfg: cfg, magic: magic, rejectedTypes: map[uint8]bool{}}
	p.resetDesired()
	return p
}

func randomMagic() uint32 {
	for {
		if v := rand.Uint32(); v != 0 {
			return v
		}
	}
}

func (p *Policy) resetDesired() {
	if p.cfg.MRU != 0 {
		m := MRU(p.cfg.MRU)
		p.desiredMRU = &m
	}
	if p.cfg.WantAsync {
		am := AsyncMap(p.cfg.AsyncMap)
		p.desiredAsyncMap = &am
	}
	if p.cfg.Auth != nil {
		p.desiredAuth = &Auth{Proto: *p.cfg.Auth}
	}
	p.desiredPFC = false
	p.desiredACFC = false
}

// BuildRequestOptions implements fsm.Policy.
func (p *Policy) BuildRequestOptions() []fsm.Option {
	var opts []fsm.Option
	if p.desiredMRU != nil {
		opts = append(opts, *p.desiredMRU)
	}
	if p.desiredAsyncMap != nil {
		opts = append(opts, *p.desiredAsyncMap)
	}
	if p.desiredAuth != nil {
		opts = append(opts, *p.desiredAuth)
	}
	opts = append(opts, Magic(p.magic))
	if p.desiredPFC {
		opts = append(opts, PFC{})
	}
	if p.desiredACFC {
		opts = append(opts, ACFC{})
	}
	return opts
}

func (p *Policy) acceptableAuth(a Auth) bool {
	if len(p.cfg.AcceptAuths) == 0 {
		return p.cfg.Auth != nil && *p.cfg.Auth == a.Proto
	}
	for _, accepted := range p.cfg.AcceptAuths {
		if accepted == a.Proto {
			return true
		}
	}
	return false
}

// CheckReceived implements fsm.Policy (spec.md Section 4.3's accept rule).
func (p *Policy) CheckReceived(received []fsm.Option) (ack, nak, rej []fsm.Option) {
	for _, o := range received {
		opt, ok := toLCPOption(o)
		if !ok || !supportedNegotiable[o.Type()] {
			rej = append(rej, o)
			continue
		}

		switch v := opt.(type) {
		case MRU:
			if p.cfg.MaxMRU != 0 && uint16(v) > p.cfg.MaxMRU {
				nak = append(nak, MRU(p.cfg.MaxMRU))
				continue
			}
			ack = append(ack, o)
		case AsyncMap:
			ack = append(ack, o)
		case Auth:
			if p.acceptableAuth(v) {
				ack = append(ack, o)
				continue
			}
			if p.cfg.Auth != nil {
				nak = append(nak, Auth{Proto: *p.cfg.Auth})
				continue
			}
			rej = append(rej, o)
		case Magic:
			if uint32(v) == p.magic && p.magic != 0 {
				// Looped-back line: peer echoed our own magic.
				nak = append(nak, Magic(randomMagic()))
				continue
			}
			ack = append(ack, o)
		case PFC, ACFC, MRRU, SSNHF, EPDisc:
			ack = append(ack, o)
		default:
			rej = append(rej, o)
		}
	}
	return ack, nak, rej
}

// ProcessNak implements fsm.Policy: adopt the peer's suggested values
// for naked options, tracking whether our desire actually changed.
func (p *Policy) ProcessNak(received []fsm.Option) bool {
	converged := true
	for _, o := range received {
		opt, ok := toLCPOption(o)
		if !ok {
			continue
		}
		switch v := opt.(type) {
		case MRU:
			if p.desiredMRU == nil || *p.desiredMRU != v {
				nv := v
				p.desiredMRU = &nv
				converged = false
			}
		case AsyncMap:
			if p.desiredAsyncMap == nil || *p.desiredAsyncMap != v {
				nv := v
				p.desiredAsyncMap = &nv
				converged = false
			}
		case Auth:
			if p.desiredAuth == nil || p.desiredAuth.Proto != v.Proto {
				na := v
				p.desiredAuth = &na
				converged = false
			}
		case Magic:
			p.magic = randomMagic()
			converged = false
		}
	}
	return converged
}

// ProcessReject implements fsm.Policy: drop rejected options from our
// future requests entirely.
func (p *Policy) ProcessReject(received []fsm.Option) bool {
	converged := true
	for _, o := range received {
		if p.rejectedTypes[o.Type()] {
			continue
		}
		p.rejectedTypes[o.Type()] = true
		converged = false
		switch o.Type() {
		case OptMRU:
			p.desiredMRU = nil
		case OptAsyncMap:
			p.desiredAsyncMap = nil
		case OptAuth:
			p.desiredAuth = nil
		case OptPFC:
			p.desiredPFC = false
		case OptACFC:
			p.desiredACFC = false
		}
	}
	return converged
}

// ProtocolNumber implements fsm.Policy.
func (p *Policy) ProtocolNumber() frame.Proto { return frame.ProtoLCP }

func toLCPOption(o fsm.Option) (Option, bool) {
	opt, ok := o.(Option)
	return opt, ok
}
