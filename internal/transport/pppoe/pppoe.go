// Package pppoe adapts the teacher's raw-Ethernet PPPoE session
// (internal/pppoe) into the transport.Transport contract the Link
// orchestrator consumes (spec.md Section 6).
package pppoe

import (
	"context"
	"sync/atomic"

	internalpppoe "github.com/dgoulet-net/ppplink/internal/pppoe"
	"github.com/dgoulet-net/ppplink/internal/transport"
	"github.com/rs/zerolog"
)

const maxFrame = 1500

// Transport wraps an internal/pppoe.Conn with the byte/packet counters
// and the channel-delivered recv loop transport.Transport requires.
type Transport struct {
	conn *internalpppoe.Conn

	recvCh chan []byte
	stopCh chan struct{}

	in, out     atomic.Uint64
	inPk, outPk atomic.Uint64
	closed      atomic.Bool
}

// Dial establishes a PPPoE session on ifName (discovery + session
// socket, per internal/pppoe.New) and wraps it as a Transport.
func Dial(ctx context.Context, ifName string, log zerolog.Logger) (*Transport, error) {
	conn, err := internalpppoe.New(ctx, ifName, log)
	if err != nil {
		return nil, err
	}
	return Wrap(conn), nil
}

// Wrap adapts an already-established PPPoE Conn.
func Wrap(conn *internalpppoe.Conn) *Transport {
	t := &Transport{
		conn:   conn,
		recvCh: make(chan []byte, 64),
		stopCh: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *Transport) readLoop() {
	buf := make([]byte, maxFrame)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			close(t.recvCh)
			return
		}
		if n == 0 {
			continue
		}
		pkt := append([]byte(nil), buf[:n]...)
		t.in.Add(uint64(n))
		t.inPk.Add(1)
		select {
		case t.recvCh <- pkt:
		case <-t.stopCh:
			close(t.recvCh)
			return
		}
	}
}

// Send implements transport.Transport.
func (t *Transport) Send(payload []byte) error {
	n, err := t.conn.Write(payload)
	if err != nil {
		return err
	}
	t.out.Add(uint64(n))
	t.outPk.Add(1)
	return nil
}

// Recv implements transport.Transport.
func (t *Transport) Recv() <-chan []byte { return t.recvCh }

// Counters implements transport.Transport.
func (t *Transport) Counters() transport.Counters {
	line := t.conn.LineInfo()
	return transport.Counters{
		InOctets:   t.in.Load(),
		OutOctets:  t.out.Load(),
		InPackets:  t.inPk.Load(),
		OutPackets: t.outPk.Load(),
		Line: transport.LineInfo{
			CircuitID:           line.CircuitID,
			RemoteID:            line.RemoteID,
			ActualDataRateUp:    line.ActualDataRateUp,
			ActualDataRateDown:  line.ActualDataRateDown,
			MinDataRateUp:       line.MinDataRateUp,
			MinDataRateDown:     line.MinDataRateDown,
			AttainableRateUp:    line.AttainableRateUp,
			AttainableRateDown:  line.AttainableRateDown,
			InterleavingDelayUp: line.InterleavingDelayUp,
			InterleavingDelayDn: line.InterleavingDelayDn,
		},
	}
}

// Terminate implements transport.Transport. It sends a PADT and
// releases the session socket (internal/pppoe.Conn.Close).
func (t *Transport) Terminate() error {
	if t.closed.Swap(true) {
		return nil
	}
	close(t.stopCh)
	return t.conn.Close()
}

var _ transport.Transport = (*Transport)(nil)
