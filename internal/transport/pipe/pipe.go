// Package pipe implements an in-process Transport backed by a
// SOCK_SEQPACKET socketpair, grounded in the same raw-syscall style the
// teacher uses for its AF_PPPOX session socket
// (internal/pppoe/session.go). It requires no privilege and no kernel
// ppp_generic channel, so it's what cmd/ppplinkd and the test suite use
// to drive two Links against each other in-process.
package pipe

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/dgoulet-net/ppplink/internal/transport"
)

// ErrClosed is returned by Send once the Pipe has been terminated.
var ErrClosed = errors.New("pipe: transport closed")

const maxFrame = 65535

// Pipe is one end of an in-process Transport pair.
type Pipe struct {
	fd int

	recvCh chan []byte
	stopCh chan struct{}

	in, out   atomic.Uint64
	inPk, outPk atomic.Uint64
	closed    atomic.Bool
}

// NewPair creates two connected Pipe endpoints (spec.md Section 6
// Transport contract), analogous to the teacher's newSessionFd/connect
// pair but looped back to itself instead of bound to a PPPoE session.
func NewPair() (a, b *Pipe, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET, 0)
	if err != nil {
		return nil, nil, err
	}
	a = newPipe(fds[0])
	b = newPipe(fds[1])
	return a, b, nil
}

func newPipe(fd int) *Pipe {
	p := &Pipe{
		fd:     fd,
		recvCh: make(chan []byte, 64),
		stopCh: make(chan struct{}),
	}
	go p.readLoop()
	return p
}

func (p *Pipe) readLoop() {
	buf := make([]byte, maxFrame)
	for {
		n, err := unix.Read(p.fd, buf)
		if err != nil {
			close(p.recvCh)
			return
		}
		if n == 0 {
			close(p.recvCh)
			return
		}
		pkt := append([]byte(nil), buf[:n]...)
		p.in.Add(uint64(n))
		p.inPk.Add(1)
		select {
		case p.recvCh <- pkt:
		case <-p.stopCh:
			close(p.recvCh)
			return
		}
	}
}

// Send implements transport.Transport.
func (p *Pipe) Send(payload []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	n, err := unix.Write(p.fd, payload)
	if err != nil {
		return err
	}
	p.out.Add(uint64(n))
	p.outPk.Add(1)
	return nil
}

// Recv implements transport.Transport.
func (p *Pipe) Recv() <-chan []byte { return p.recvCh }

// Counters implements transport.Transport.
func (p *Pipe) Counters() transport.Counters {
	return transport.Counters{
		InOctets:   p.in.Load(),
		OutOctets:  p.out.Load(),
		InPackets:  p.inPk.Load(),
		OutPackets: p.outPk.Load(),
	}
}

// Terminate implements transport.Transport.
func (p *Pipe) Terminate() error {
	if p.closed.Swap(true) {
		return nil
	}
	close(p.stopCh)
	return unix.Close(p.fd)
}

var _ transport.Transport = (*Pipe)(nil)
