package ppp

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dgoulet-net/ppplink/internal/accounting"
	"github.com/dgoulet-net/ppplink/internal/config"
	"github.com/dgoulet-net/ppplink/internal/frame"
	"github.com/dgoulet-net/ppplink/internal/fsm"
	"github.com/dgoulet-net/ppplink/internal/ipcp"
	"github.com/dgoulet-net/ppplink/internal/lcp"
	"github.com/dgoulet-net/ppplink/internal/metrics"
	"github.com/dgoulet-net/ppplink/internal/pap"
	"github.com/dgoulet-net/ppplink/internal/transport"
)

// Phase is one of the top-level phases a Link moves through (spec.md
// Section 4.6; RFC 1661 Section 3): Establish -> Auth -> Network ->
// Terminating. Dead precedes Establish but this Link only exists once
// its transport is already up, so Establish is the initial phase.
type Phase int

const (
	PhaseEstablish Phase = iota
	PhaseAuth
	PhaseNetwork
	PhaseTerminating
)

func (p Phase) String() string {
	switch p {
	case PhaseEstablish:
		return "Establish"
	case PhaseAuth:
		return "Auth"
	case PhaseNetwork:
		return "Network"
	case PhaseTerminating:
		return "Terminating"
	default:
		return "Unknown"
	}
}

// Config is the per-link configuration the orchestrator consumes,
// layered over the static config items of spec.md Section 6.
type Config struct {
	Link       config.LinkConfig
	Accounting config.AccountingConfig
	// Verify authenticates an incoming PAP AuthReq; required whenever
	// AuthRequired is set.
	Verify pap.VerifyFunc
}

// Link is the top-level phase FSM (spec.md Section 4.6): it demuxes
// inbound frames by protocol number, enforces the per-phase filter,
// drives the LCP/IPCP CP-FSMs and the PAP authenticator(s), and emits
// accounting records. One Link is one single-threaded actor (spec.md
// Section 5); Run must be called on its own goroutine.
type Link struct {
	transport transport.Transport
	cfg       Config
	sink      accounting.Sink
	log       zerolog.Logger
	metrics   *metrics.Collector

	// phase is written only from the Run goroutine but read from
	// Phase()/Snapshot() by other goroutines (atomic read, matching
	// EchoSession.State() in the BFD engine this Link's actor shape is
	// grounded on).
	phase atomic.Uint32

	// snapMu guards the negotiated-state fields below (peerID, ourIP,
	// hisIP) that Snapshot() exposes cross-goroutine; everything else
	// on Link is only ever touched from the single Run goroutine.
	snapMu sync.Mutex
	peerID []byte

	lcpPolicy *lcp.Policy
	lcpFSM    *fsm.Machine

	ipcpPolicy *ipcp.Policy
	ipcpFSM    *fsm.Machine

	authPending     map[pap.Direction]bool
	peerAuth        *pap.PeerAuthenticator
	selfAuth        *pap.SelfAuthenticator
	terminateReason string

	sessionOpts map[string]string

	ourIP, hisIP           net.IP
	accountingStart        time.Time
	accountingStartedEmit  bool
	accountingStoppedEmit  bool
	interimInterval        time.Duration

	lcpTimer     *time.Timer
	ipcpTimer    *time.Timer
	authTimer    *time.Timer
	interimTimer *time.Timer

	miscID uint8

	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewLink constructs a Link ready to Run over t.
func NewLink(t transport.Transport, cfg Config, sink accounting.Sink, log zerolog.Logger, mx *metrics.Collector) *Link {
	if sink == nil {
		sink = accounting.NopSink{}
	}
	if mx == nil {
		mx = metrics.Noop()
	}

	l := &Link{
		transport:       t,
		cfg:             cfg,
		sink:            sink,
		log:             log.With().Str("component", "link").Logger(),
		metrics:         mx,
		authPending:     map[pap.Direction]bool{},
		sessionOpts:     map[string]string{},
		interimInterval: cfg.Link.InterimAccounting,
		stopCh:          make(chan struct{}),
	}

	lcpCfg := lcp.Config{
		MRU:       cfg.Link.MRU,
		MaxMRU:    cfg.Link.MRU,
		WantAsync: false,
	}
	if cfg.Link.AuthRequired {
		p := lcp.AuthProto{Proto: frame.ProtoPAP}
		lcpCfg.Auth = &p
	}
	lcpCfg.AcceptAuths = acceptAuthsFromConfig(cfg.Link.AllowedAuth)

	l.lcpPolicy = lcp.NewPolicy(lcpCfg, cfg.Link.Magic)
	l.lcpFSM = fsm.NewMachine(l.lcpPolicy, lcpSender{l}, lcpNotifier{l})

	return l
}

// acceptAuthsFromConfig translates the config.LinkConfig.AllowedAuth
// knob ("pap", "chap-md5", "chap-sha1") into the lcp.AuthProto set the
// peer is allowed to request; config.Validate rejects any other
// entry before it reaches here. An empty list falls back to PAP,
// matching this core's long-standing default.
func acceptAuthsFromConfig(allowed []string) []lcp.AuthProto {
	var accept []lcp.AuthProto
	for _, a := range allowed {
		switch a {
		case "pap":
			accept = append(accept, lcp.AuthProto{Proto: frame.ProtoPAP})
		case "chap-md5":
			accept = append(accept, lcp.AuthProto{Proto: frame.ProtoCHAP, Digest: lcp.MD5})
		case "chap-sha1":
			accept = append(accept, lcp.AuthProto{Proto: frame.ProtoCHAP, Digest: lcp.SHA1})
		}
	}
	if len(accept) == 0 {
		accept = []lcp.AuthProto{{Proto: frame.ProtoPAP}}
	}
	return accept
}

// Run drives the Link's single-threaded event loop until the
// transport closes or the Link tears itself down. Call on its own
// goroutine (spec.md Section 5: "each link is an independent actor").
func (l *Link) Run() {
	l.lcpFSM.Open()
	l.lcpFSM.LowerUp()

	for {
		select {
		case pkt, ok := <-l.transport.Recv():
			if !ok {
				return
			}
			l.handlePacketIn(pkt)
		case <-timerC(l.lcpTimer):
			l.lcpFSM.Timeout()
		case <-timerC(l.ipcpTimer):
			if l.ipcpFSM != nil {
				l.ipcpFSM.Timeout()
			}
		case <-timerC(l.authTimer):
			l.handleAuthTimeout()
		case <-timerC(l.interimTimer):
			l.handleInterimFire()
		case <-l.stopCh:
			return
		}
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func (l *Link) getPhase() Phase {
	return Phase(l.phase.Load()) //nolint:gosec // Phase is a small enum, fits uint32
}

func (l *Link) setPhase(p Phase) {
	l.phase.Store(uint32(p))
}

// setPeerID and setNegotiatedIPs update the fields Snapshot() exposes
// cross-goroutine; always called from the Run goroutine, guarded
// against concurrent Snapshot() reads from other goroutines.
func (l *Link) setPeerID(id []byte) {
	l.snapMu.Lock()
	l.peerID = id
	l.snapMu.Unlock()
}

func (l *Link) getPeerID() []byte {
	l.snapMu.Lock()
	defer l.snapMu.Unlock()
	return l.peerID
}

func (l *Link) setNegotiatedIPs(our, his net.IP) {
	l.snapMu.Lock()
	l.ourIP = our
	l.hisIP = his
	l.snapMu.Unlock()
}

func (l *Link) getNegotiatedIPs() (our, his net.IP) {
	l.snapMu.Lock()
	defer l.snapMu.Unlock()
	return l.ourIP, l.hisIP
}

// --- inbound demux / per-phase filter (spec.md Section 4.6) ---

func (l *Link) handlePacketIn(pkt []byte) {
	proto, rest, err := frame.SplitProto(pkt)
	if err != nil {
		return // malformed, silently dropped (spec.md Section 7 kind 1)
	}

	switch l.getPhase() {
	case PhaseEstablish:
		if proto == frame.ProtoLCP {
			l.handleLCPFrame(rest)
		}
	case PhaseAuth:
		switch {
		case proto == frame.ProtoLCP:
			l.handleLCPFrame(rest)
		case l.isPendingAuthProto(proto):
			l.handlePAPFrame(rest)
		}
	case PhaseNetwork:
		switch proto {
		case frame.ProtoLCP:
			l.handleLCPFrame(rest)
		case frame.ProtoIPCP:
			l.handleIPCPFrame(rest)
		case frame.ProtoIPv4:
			// Forwarded to the transport-upward sink; out of scope here.
		default:
			l.handleUnknownProtocol(proto, rest)
		}
	case PhaseTerminating:
		if proto == frame.ProtoLCP {
			l.handleLCPFrame(rest)
		}
	}
}

func (l *Link) isPendingAuthProto(proto frame.Proto) bool {
	if proto != frame.ProtoPAP {
		return false
	}
	return l.authPending[pap.AuthPeer] || l.authPending[pap.AuthWithPeer]
}

func (l *Link) handleUnknownProtocol(proto frame.Proto, rest []byte) {
	mru := int(l.cfg.Link.MRU)
	if mru == 0 || mru > len(rest) {
		mru = len(rest)
	}
	l.sendLCPFrame(lcp.Frame{
		Code: frame.CodeProtocolReject,
		ID:   l.nextMiscID(),
		Body: lcp.ProtocolRejectBody{Proto: proto, Info: rest[:mru]},
	})
}

// --- LCP ---

func (l *Link) handleLCPFrame(data []byte) {
	f, err := lcp.Decode(data)
	if err != nil {
		if errors.Is(err, lcp.ErrUnknownCode) && len(data) > 0 {
			l.sendLCPFrame(lcp.Frame{
				Code: frame.CodeCodeReject,
				ID:   l.nextMiscID(),
				Body: lcp.CodeRejectBody{Rejected: data},
			})
		}
		return
	}

	switch body := f.Body.(type) {
	case lcp.OptionsBody:
		opts := toFSMOptions(body.Options)
		switch f.Code {
		case frame.CodeConfigureRequest:
			l.lcpFSM.RecvConfigureRequest(f.ID, opts)
		case frame.CodeConfigureAck:
			l.lcpFSM.RecvConfigureAck(f.ID, opts)
		case frame.CodeConfigureNak:
			l.lcpFSM.RecvConfigureNak(f.ID, opts)
		case frame.CodeConfigureReject:
			l.lcpFSM.RecvConfigureReject(f.ID, opts)
		}
	case lcp.TermDataBody:
		switch f.Code {
		case frame.CodeTerminateRequest:
			l.lcpFSM.RecvTerminateRequest(f.ID)
		case frame.CodeTerminateAck:
			l.lcpFSM.RecvTerminateAck(f.ID)
		}
	case lcp.CodeRejectBody:
		l.lcpFSM.RecvCodeReject(true)
	case lcp.ProtocolRejectBody:
		l.onProtocolRejected(body.Proto)
	case lcp.EmptyBody:
		if f.Code == frame.CodeEchoRequest {
			l.lcpFSM.RecvEcho(f.ID)
		}
	}
}

func (l *Link) onProtocolRejected(proto frame.Proto) {
	if proto == frame.ProtoIPCP && l.ipcpFSM != nil {
		l.ipcpFSM.RecvCodeReject(true)
	}
}

func (l *Link) nextMiscID() uint8 {
	id := l.miscID
	l.miscID++
	return id
}

func (l *Link) sendLCPFrame(f lcp.Frame) {
	l.transport.Send(frame.PrependProto(frame.ProtoLCP, f.Encode()))
}

func (l *Link) armLCPTimer() {
	if l.lcpTimer != nil {
		l.lcpTimer.Stop()
	}
	l.lcpTimer = time.NewTimer(fsm.DefaultRestartTimer)
}

type lcpSender struct{ l *Link }

func (s lcpSender) SendConfigureRequest(id uint8, opts []fsm.Option) {
	s.l.sendLCPFrame(lcp.Frame{Code: frame.CodeConfigureRequest, ID: id, Body: lcp.OptionsBody{Options: toLCPOptions(opts)}})
	s.l.armLCPTimer()
}
func (s lcpSender) SendConfigureAck(id uint8, opts []fsm.Option) {
	s.l.sendLCPFrame(lcp.Frame{Code: frame.CodeConfigureAck, ID: id, Body: lcp.OptionsBody{Options: toLCPOptions(opts)}})
}
func (s lcpSender) SendConfigureNak(id uint8, opts []fsm.Option) {
	s.l.sendLCPFrame(lcp.Frame{Code: frame.CodeConfigureNak, ID: id, Body: lcp.OptionsBody{Options: toLCPOptions(opts)}})
}
func (s lcpSender) SendConfigureReject(id uint8, opts []fsm.Option) {
	s.l.sendLCPFrame(lcp.Frame{Code: frame.CodeConfigureReject, ID: id, Body: lcp.OptionsBody{Options: toLCPOptions(opts)}})
}
func (s lcpSender) SendTerminateRequest(id uint8) {
	s.l.sendLCPFrame(lcp.Frame{Code: frame.CodeTerminateRequest, ID: id, Body: lcp.TermDataBody{Data: []byte(s.l.terminateReason)}})
	s.l.armLCPTimer()
}
func (s lcpSender) SendTerminateAck(id uint8) {
	s.l.sendLCPFrame(lcp.Frame{Code: frame.CodeTerminateAck, ID: id, Body: lcp.TermDataBody{}})
}
func (s lcpSender) SendCodeReject(id uint8, rejected []byte) {
	s.l.sendLCPFrame(lcp.Frame{Code: frame.CodeCodeReject, ID: id, Body: lcp.CodeRejectBody{Rejected: rejected}})
}
func (s lcpSender) SendEchoReply(id uint8) {
	s.l.sendLCPFrame(lcp.Frame{Code: frame.CodeEchoReply, ID: id, Body: lcp.EmptyBody{}})
}

type lcpNotifier struct{ l *Link }

func (n lcpNotifier) Started() {}
func (n lcpNotifier) Finished() {
	n.l.onLCPFinished()
}
func (n lcpNotifier) Up(our, his []fsm.Option) {
	n.l.onLCPUp(toLCPOptions(our), toLCPOptions(his))
}
func (n lcpNotifier) Down() {
	n.l.onLCPDown()
}

func (l *Link) onLCPUp(our, his []lcp.Option) {
	l.metrics.CPFSMUp.WithLabelValues(string(l.getPeerID()), "lcp").Inc()

	ourAuth, hasOurAuth := findAuth(our)
	hisAuth, hasHisAuth := findAuth(his)

	if !hasOurAuth && !hasHisAuth {
		l.npOpen()
		return
	}

	l.setPhase(PhaseAuth)
	if hasOurAuth && ourAuth.Proto.Proto == frame.ProtoPAP {
		l.authPending[pap.AuthPeer] = true
		l.peerAuth = pap.NewPeerAuthenticator(papSender{l}, l.cfg.Verify)
	}
	if hasHisAuth && hisAuth.Proto.Proto == frame.ProtoPAP {
		l.authPending[pap.AuthWithPeer] = true
		l.selfAuth = pap.NewSelfAuthenticator(papSender{l}, []byte(l.cfg.Link.AuthName), []byte(l.cfg.Link.AuthSecret))
		l.selfAuth.Start()
		l.armAuthTimer()
	}
}

func findAuth(opts []lcp.Option) (lcp.Auth, bool) {
	for _, o := range opts {
		if a, ok := o.(lcp.Auth); ok {
			return a, true
		}
	}
	return lcp.Auth{}, false
}

func (l *Link) onLCPDown() {}

func (l *Link) onLCPFinished() {
	if !l.accountingStoppedEmit {
		l.emitAccounting(accounting.Stop, "link down")
	}
	l.transport.Terminate()
	l.stop()
}

func (l *Link) stop() {
	l.closeOnce.Do(func() { close(l.stopCh) })
}

// Close tears the Link down from outside its own event loop: it closes
// the LCP automaton (which sends a Terminate-Request) and then signals
// Run to return. Run does not wait for the peer's Terminate-Ack, the
// IPCP automaton is not closed, and no Finished notification or Stop
// accounting record follows. Safe to call more than once.
func (l *Link) Close() {
	l.lcpFSM.Close()
	l.stop()
}

// --- Authentication (spec.md Section 4.4) ---

func (l *Link) armAuthTimer() {
	if l.authTimer != nil {
		l.authTimer.Stop()
	}
	l.authTimer = time.NewTimer(pap.RestartInterval)
}

func (l *Link) handleAuthTimeout() {
	if l.selfAuth == nil {
		return
	}
	if res := l.selfAuth.Timeout(); res != nil {
		l.onAuthResult(res)
		return
	}
	l.armAuthTimer()
}

type papSender struct{ l *Link }

func (s papSender) Send(b []byte) {
	s.l.transport.Send(frame.PrependProto(frame.ProtoPAP, b))
}

func (l *Link) handlePAPFrame(data []byte) {
	f, err := pap.Decode(data)
	if err != nil {
		return
	}

	switch f.Code {
	case pap.CodeAuthenticateRequest:
		if l.peerAuth != nil {
			if res := l.peerAuth.HandleFrame(f); res != nil {
				l.onAuthResult(res)
			}
		}
	case pap.CodeAuthenticateAck, pap.CodeAuthenticateNak:
		if l.selfAuth != nil {
			if res := l.selfAuth.HandleFrame(f); res != nil {
				if l.authTimer != nil {
					l.authTimer.Stop()
				}
				l.onAuthResult(res)
			}
		}
	}
}

func (l *Link) onAuthResult(res *pap.Result) {
	delete(l.authPending, res.Direction)

	if !res.Success {
		l.metrics.AuthFailures.WithLabelValues(string(l.getPeerID()), res.Direction.String()).Inc()
		reason := "Authentication failed"
		if res.Direction == pap.AuthWithPeer {
			reason = "Failed to authenticate ourselves to peer"
		}
		l.initiateClose(reason)
		return
	}

	if res.Direction == pap.AuthPeer {
		l.setPeerID(res.PeerID)
		for k, v := range res.SessionOpts {
			l.sessionOpts[k] = v
		}
	}

	if len(l.authPending) == 0 {
		l.npOpen()
	}
}

func (l *Link) initiateClose(reason string) {
	l.terminateReason = reason
	l.setPhase(PhaseTerminating)
	l.lcpFSM.Close()
}

// --- Network phase / IPCP (spec.md Section 4.5, 4.6) ---

func (l *Link) npOpen() {
	l.setPhase(PhaseNetwork)

	our, peer := l.ipAddressConfig()
	l.ipcpPolicy = ipcp.NewPolicy(ipcp.Config{OurAddress: our, PeerAddress: peer})
	l.ipcpFSM = fsm.NewMachine(l.ipcpPolicy, ipcpSender{l}, ipcpNotifier{l})
	l.ipcpFSM.Open()
	l.ipcpFSM.LowerUp()

	l.accountingStart = time.Now()
	l.armInterimTimer(l.interimInterval)
}

func (l *Link) ipAddressConfig() (our, peer net.IP) {
	if v, ok := l.sessionOpts["our_ip"]; ok {
		our = net.ParseIP(v)
	} else if l.cfg.Link.OurIP != "" {
		our = net.ParseIP(l.cfg.Link.OurIP)
	}
	if v, ok := l.sessionOpts["peer_ip"]; ok {
		peer = net.ParseIP(v)
	} else if l.cfg.Link.PeerIPPool != "" {
		peer = net.ParseIP(l.cfg.Link.PeerIPPool)
	}
	return our, peer
}

func (l *Link) armIPCPTimer() {
	if l.ipcpTimer != nil {
		l.ipcpTimer.Stop()
	}
	l.ipcpTimer = time.NewTimer(fsm.DefaultRestartTimer)
}

func (l *Link) sendIPCPFrame(f ipcp.Frame) {
	l.transport.Send(frame.PrependProto(frame.ProtoIPCP, f.Encode()))
}

func (l *Link) handleIPCPFrame(data []byte) {
	f, err := ipcp.Decode(data)
	if err != nil {
		return
	}
	if l.ipcpFSM == nil {
		return
	}

	switch body := f.Body.(type) {
	case ipcp.OptionsBody:
		opts := toFSMOptionsIPCP(body.Options)
		switch f.Code {
		case frame.CodeConfigureRequest:
			l.ipcpFSM.RecvConfigureRequest(f.ID, opts)
		case frame.CodeConfigureAck:
			l.ipcpFSM.RecvConfigureAck(f.ID, opts)
		case frame.CodeConfigureNak:
			l.ipcpFSM.RecvConfigureNak(f.ID, opts)
		case frame.CodeConfigureReject:
			l.ipcpFSM.RecvConfigureReject(f.ID, opts)
		}
	case ipcp.TermDataBody:
		switch f.Code {
		case frame.CodeTerminateRequest:
			l.ipcpFSM.RecvTerminateRequest(f.ID)
		case frame.CodeTerminateAck:
			l.ipcpFSM.RecvTerminateAck(f.ID)
		}
	case ipcp.CodeRejectBody:
		l.ipcpFSM.RecvCodeReject(true)
	}
}

type ipcpSender struct{ l *Link }

func (s ipcpSender) SendConfigureRequest(id uint8, opts []fsm.Option) {
	s.l.sendIPCPFrame(ipcp.Frame{Code: frame.CodeConfigureRequest, ID: id, Body: ipcp.OptionsBody{Options: toIPCPOptions(opts)}})
	s.l.armIPCPTimer()
}
func (s ipcpSender) SendConfigureAck(id uint8, opts []fsm.Option) {
	s.l.sendIPCPFrame(ipcp.Frame{Code: frame.CodeConfigureAck, ID: id, Body: ipcp.OptionsBody{Options: toIPCPOptions(opts)}})
}
func (s ipcpSender) SendConfigureNak(id uint8, opts []fsm.Option) {
	s.l.sendIPCPFrame(ipcp.Frame{Code: frame.CodeConfigureNak, ID: id, Body: ipcp.OptionsBody{Options: toIPCPOptions(opts)}})
}
func (s ipcpSender) SendConfigureReject(id uint8, opts []fsm.Option) {
	s.l.sendIPCPFrame(ipcp.Frame{Code: frame.CodeConfigureReject, ID: id, Body: ipcp.OptionsBody{Options: toIPCPOptions(opts)}})
}
func (s ipcpSender) SendTerminateRequest(id uint8) {
	s.l.sendIPCPFrame(ipcp.Frame{Code: frame.CodeTerminateRequest, ID: id, Body: ipcp.TermDataBody{}})
	s.l.armIPCPTimer()
}
func (s ipcpSender) SendTerminateAck(id uint8) {
	s.l.sendIPCPFrame(ipcp.Frame{Code: frame.CodeTerminateAck, ID: id, Body: ipcp.TermDataBody{}})
}
func (s ipcpSender) SendCodeReject(id uint8, rejected []byte) {
	s.l.sendIPCPFrame(ipcp.Frame{Code: frame.CodeCodeReject, ID: id, Body: ipcp.CodeRejectBody{Rejected: rejected}})
}
func (s ipcpSender) SendEchoReply(uint8) {} // IPCP has no Echo code

type ipcpNotifier struct{ l *Link }

func (n ipcpNotifier) Started() {}
func (n ipcpNotifier) Finished() {
	n.l.npFinished()
}
func (n ipcpNotifier) Up(our, his []fsm.Option) {
	n.l.onIPCPUp(toIPCPOptions(our), toIPCPOptions(his))
}
func (n ipcpNotifier) Down() {
	n.l.onIPCPDown()
}

func (l *Link) onIPCPUp(our, his []ipcp.Option) {
	l.metrics.CPFSMUp.WithLabelValues(string(l.getPeerID()), "ipcp").Inc()
	l.setNegotiatedIPs(findIPAddress(our), findIPAddress(his))
	l.emitAccountingStart()
}

func findIPAddress(opts []ipcp.Option) net.IP {
	for _, o := range opts {
		if a, ok := o.(ipcp.IPAddress); ok {
			return net.IP(a)
		}
	}
	return nil
}

func (l *Link) onIPCPDown() {
	if l.getPhase() != PhaseNetwork {
		return
	}
	l.emitAccounting(accounting.Stop, "ipcp down")
	l.npFinished()
}

func (l *Link) npFinished() {
	l.initiateClose("No network protocols running")
}

// --- Accounting (spec.md Section 4.6, 6) ---

func (l *Link) armInterimTimer(d time.Duration) {
	if l.interimTimer != nil {
		l.interimTimer.Stop()
	}
	l.interimTimer = time.NewTimer(d)
}

func (l *Link) handleInterimFire() {
	if l.getPhase() != PhaseNetwork {
		return
	}
	l.emitAccounting(accounting.Interim, "")

	// Drift compensation (spec.md Section 4.6): next interval = interim
	// - (now - start) mod interim.
	elapsed := time.Since(l.accountingStart)
	mod := elapsed % l.interimInterval
	l.armInterimTimer(l.interimInterval - mod)
}

func (l *Link) emitAccountingStart() {
	l.emitAccounting(accounting.Start, "")
}

func (l *Link) emitAccounting(kind accounting.Kind, stopReason string) {
	if kind == accounting.Start {
		if l.accountingStartedEmit {
			return
		}
		l.accountingStartedEmit = true
	}
	if kind == accounting.Stop {
		if l.accountingStoppedEmit {
			return
		}
		l.accountingStoppedEmit = true
	}

	counters := l.transport.Counters()
	username := l.cfg.Link.AuthName
	if peerID := string(l.getPeerID()); peerID != "" {
		username = peerID
	}
	if v, ok := l.sessionOpts["username"]; ok {
		username = v
	}

	_, hisIP := l.getNegotiatedIPs()
	framedIP := ""
	if hisIP != nil {
		framedIP = hisIP.String()
	}

	rec := accounting.Record{
		Kind:                kind,
		UserName:            username,
		FramedIPAddress:     framedIP,
		SessionTime:         time.Since(l.accountingStart).Round(time.Second),
		NasIdentifier:       l.cfg.Link.NasIdentifier,
		ServiceType:         accounting.ServiceTypeFramed,
		FramedProtocol:      accounting.FramedProtocolPPP,
		StopReason:          stopReason,
		CircuitID:           counters.Line.CircuitID,
		RemoteID:            counters.Line.RemoteID,
		ActualDataRateUp:    counters.Line.ActualDataRateUp,
		ActualDataRateDown:  counters.Line.ActualDataRateDown,
		MinDataRateUp:       counters.Line.MinDataRateUp,
		MinDataRateDown:     counters.Line.MinDataRateDown,
		AttainableRateUp:    counters.Line.AttainableRateUp,
		AttainableRateDown:  counters.Line.AttainableRateDown,
		InterleavingDelayUp: counters.Line.InterleavingDelayUp,
		InterleavingDelayDn: counters.Line.InterleavingDelayDn,
		InOctets:            counters.InOctets,
		OutOctets:           counters.OutOctets,
		InPackets:           counters.InPackets,
		OutPackets:          counters.OutPackets,
	}

	l.sink.Submit(rec)
	l.metrics.AccountingRecordsEmitted.WithLabelValues(kind.String()).Inc()
}

// Phase reports the Link's current top-level phase (atomic read; safe
// to call from any goroutine while Run is draining the event loop).
func (l *Link) Phase() Phase { return l.getPhase() }

// Snapshot is a point-in-time view of the Link's negotiated state,
// useful for status introspection (e.g. a CLI `show` command or a
// debug HTTP endpoint) beyond what spec.md's core asks for. Safe to
// call from any goroutine.
type Snapshot struct {
	Phase  Phase
	PeerID string
	OurIP  net.IP
	HisIP  net.IP
}

// Snapshot returns the Link's current negotiated state.
func (l *Link) Snapshot() Snapshot {
	our, his := l.getNegotiatedIPs()
	return Snapshot{
		Phase:  l.getPhase(),
		PeerID: string(l.getPeerID()),
		OurIP:  our,
		HisIP:  his,
	}
}

// --- option-slice conversions between fsm.Option and the concrete
// per-protocol Option interfaces (structurally identical method sets). ---

func toFSMOptions(opts []lcp.Option) []fsm.Option {
	out := make([]fsm.Option, len(opts))
	for i, o := range opts {
		out[i] = o
	}
	return out
}

func toLCPOptions(opts []fsm.Option) []lcp.Option {
	out := make([]lcp.Option, len(opts))
	for i, o := range opts {
		out[i] = o.(lcp.Option)
	}
	return out
}

func toFSMOptionsIPCP(opts []ipcp.Option) []fsm.Option {
	out := make([]fsm.Option, len(opts))
	for i, o := range opts {
		out[i] = o
	}
	return out
}

func toIPCPOptions(opts []fsm.Option) []ipcp.Option {
	out := make([]ipcp.Option, len(opts))
	for i, o := range opts {
		out[i] = o.(ipcp.Option)
	}
	return out
}
