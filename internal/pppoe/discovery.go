// Package pppoe creates a PPPoE session with a remote server.
package pppoe

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/mdlayher/raw"
	"github.com/rs/zerolog"
	"golang.org/x/net/bpf"
)

// Constants for PPPoE protocol EtherTypes.
const (
	protoPPPoEDiscovery = 0x8863
	protoPPPoESession   = 0x8864
)

// Constants for PPPoE Discovery packet types.
const (
	pppoePADI = 0x09 // "Hey, any PPPoE concentrators out there?
	pppoePADO = 0x07 // "Hi, I'm a PPPoE concentrator"
	pppoePADR = 0x19 // "Cool, can we set up a PPPoE session?"
	pppoePADS = 0x65 // "Done, here's the session ID!"
	pppoePADT = 0xa7 // "I'm tearing down our session"
)

// Constants for PPPoE Discovery tag types
const (
	pppoeTagServiceName    = 0x0101 // Roughly speaking, the name of the ISP.
	pppoeTagACName         = 0x0102 // Roughly speaking, the hostname of the PPPoE concentrator.
	pppoeTagCookie         = 0x0104 // The PPPoE equivalent of a syncookie.
	pppoeTagVendorSpecific = 0x0105 // Carries TR-101 access-line attributes, per RFC 4679.
)

// vendorIDBroadbandForum is the RFC 4679 Vendor-ID used by access
// concentrators to tag the TR-101 sub-attributes inside
// pppoeTagVendorSpecific.
const vendorIDBroadbandForum = 3561 // 0x00000DE9

// TR-101 (RFC 4679) sub-attribute tags carried inside the PPPoE
// Vendor-Specific discovery tag.
const (
	tr101AgentCircuitID               = 0x01
	tr101AgentRemoteID                = 0x02
	tr101ActualDataRateUpstream       = 0x81
	tr101ActualDataRateDownstream     = 0x82
	tr101MinimumDataRateUpstream      = 0x83
	tr101MinimumDataRateDownstream    = 0x84
	tr101AttainableDataRateUpstream   = 0x85
	tr101AttainableDataRateDownstream = 0x86
	tr101MaxInterleavingDelayUpstream = 0x8b
	tr101ActInterleavingDelayUpstream = 0x8c
	tr101MaxInterleavingDelayDownstm  = 0x8d
	tr101ActInterleavingDelayDownstm  = 0x8e
)

// LineInfo carries the DSL-Forum (TR-101) access-line attributes a
// PPPoE concentrator reports in the Vendor-Specific discovery tag.
// Every field is zero-valued when the concentrator didn't report it,
// which is the common case on concentrators that don't implement
// TR-101 (spec.md Section 6 accounting attributes).
type LineInfo struct {
	CircuitID           string
	RemoteID            string
	ActualDataRateUp    uint32
	ActualDataRateDown  uint32
	MinDataRateUp       uint32
	MinDataRateDown     uint32
	AttainableRateUp    uint32
	AttainableRateDown  uint32
	InterleavingDelayUp uint32
	InterleavingDelayDn uint32
}

var (
	// ErrNotPADO is returned by parsePADO when a packet's Code isn't
	// pppoePADO.
	ErrNotPADO = errors.New("pppoe: not a PADO packet")
	// ErrNotPADS is returned by parsePADS when a packet's Code isn't
	// pppoePADS.
	ErrNotPADS = errors.New("pppoe: not a PADS packet")
	// ErrPADONonZeroSession is returned when a PADO carries a non-zero
	// session ID, which violates RFC 2516.
	ErrPADONonZeroSession = errors.New("pppoe: PADO has non-zero session ID")
	// ErrUnexpectedServiceNameTag is returned when a discovery packet's
	// Service-Name tag carries a value, which every tag sender in this
	// codec sends as nil.
	ErrUnexpectedServiceNameTag = errors.New("pppoe: unexpected non-nil Service-Name tag")
	// ErrShortPacket is returned when a raw discovery packet is too
	// short to contain a PPPoE header.
	ErrShortPacket = errors.New("pppoe: packet too short to be PPPoE Discovery")
	// ErrTrailingGarbage is returned when a discovery packet's tag
	// array ends mid-tag.
	ErrTrailingGarbage = errors.New("pppoe: trailing garbage at end of packet")
	// ErrTagOverrun is returned when a tag declares a length that runs
	// past the end of the packet.
	ErrTagOverrun = errors.New("pppoe: tag declared length larger than remaining packet")
)

var (
	// padiPacket is a PPPoE Active Discovery Initiation (PADI) packet
	// that sollicits session offers from any available PPPoE
	// concentrator.
	padiPacket = encodeDiscoveryPacket(&discoveryPacket{
		Code: pppoePADI,
		Tags: map[int][]byte{
			// By convention on single-ISP customer access networks,
			// the tag is always nil, meaning "don't care," because
			// there's only one ISP around anyway.
			pppoeTagServiceName: nil,
		},
	})
	// ethernetBroadcast is the Ethernet broadcast address.
	ethernetBroadcast = &raw.Addr{
		HardwareAddr: net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	}
)

// pppoeDiscovery executes PPPoE discovery over conn and returns the
// chosen concentrator's address, the session ID it assigned, and any
// TR-101 line attributes it reported along the way.
func pppoeDiscovery(ctx context.Context, conn net.PacketConn, log zerolog.Logger) (concentrator net.HardwareAddr, sessionID uint16, line LineInfo, err error) {
	deadline, hasDeadline := ctx.Deadline()

	var (
		concentratorAddr net.Addr
		cookie           []byte
	)

	// Broadcast PADIs, looking for a PPPoE concentrator.
	for concentratorAddr == nil && (!hasDeadline || time.Now().Before(deadline)) {
		if err := sendPADI(conn); err != nil {
			return nil, 0, LineInfo{}, fmt.Errorf("sending PADI packet: %w", err)
		}
		log.Debug().Msg("sent PADI")

		padoCtx, cancelPADO := context.WithTimeout(ctx, time.Second)
		defer cancelPADO()
		concentratorAddr, cookie, line, err = readPADO(padoCtx, conn)
		if err == nil {
			log.Debug().Str("concentrator", concentratorAddr.String()).Msg("received PADO")
			break
		} else if neterr, ok := err.(net.Error); !ok || !neterr.Timeout() {
			return nil, 0, LineInfo{}, fmt.Errorf("waiting for PADO: %w", err)
		}
		// Timed out waiting for PADO. Loop back around to (maybe) try
		// again.
	}
	if concentratorAddr == nil {
		return nil, 0, LineInfo{}, ctx.Err()
	}

	// Got a concentrator, request a session.
	for !hasDeadline || time.Now().Before(deadline) {
		if err := sendPADR(conn, concentratorAddr, cookie); err != nil {
			return nil, 0, LineInfo{}, fmt.Errorf("sending PADR packet: %w", err)
		}
		log.Debug().Msg("sent PADR")

		padsCtx, cancelPADS := context.WithTimeout(ctx, time.Second)
		defer cancelPADS()
		var padsLine LineInfo
		sessionID, padsLine, err = readPADS(padsCtx, conn, concentratorAddr)
		if err == nil {
			// Prefer whichever exchange actually reported line info;
			// concentrators commonly only stamp it on the PADS.
			if (padsLine != LineInfo{}) {
				line = padsLine
			}
			log.Info().
				Str("concentrator", concentratorAddr.String()).
				Uint16("session_id", sessionID).
				Str("circuit_id", line.CircuitID).
				Msg("PPPoE session established")
			raddr, ok := concentratorAddr.(*raw.Addr)
			if !ok {
				return nil, 0, LineInfo{}, fmt.Errorf("concentrator address %T is not a raw.Addr", concentratorAddr)
			}
			return raddr.HardwareAddr, sessionID, line, nil
		} else if neterr, ok := err.(net.Error); !ok || !neterr.Timeout() {
			return nil, 0, LineInfo{}, fmt.Errorf("waiting for PADS: %w", err)
		}
		// Timed out waiting for PADS. Loop back around to (maybe) try
		// again.
	}

	// Oops, deadline exceeded :(
	return nil, 0, LineInfo{}, ctx.Err()
}

// newDiscoveryConn creates a net.PacketConn that can receive PPPoE
// discovery packets.
func newDiscoveryConn(ifName string) (net.PacketConn, error) {
	intf, err := net.InterfaceByName(ifName)
	if err != nil {
		return nil, fmt.Errorf("getting interface %v: %w", ifName, err)
	}
	conn, err := raw.ListenPacket(intf, protoPPPoEDiscovery, &raw.Config{LinuxSockDGRAM: true})
	if err != nil {
		return nil, fmt.Errorf("creating PPPoE Discovery listener: %w", err)
	}
	if err := installDiscoveryFilter(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// installDiscoveryFilter attaches a classic BPF program to conn that
// drops anything that isn't a PPPoE Discovery Ethernet frame before it
// reaches userspace. The socket is already bound to EtherType 0x8863,
// so this is a second line of defense against cross-talk on bridged
// or promiscuous interfaces, not the only filtering. A *raw.Conn is
// the only net.PacketConn this package constructs, so any other type
// (e.g. a test fake) is left unfiltered.
func installDiscoveryFilter(conn net.PacketConn) error {
	rc, ok := conn.(*raw.Conn)
	if !ok {
		return nil
	}
	prog, err := bpf.Assemble([]bpf.Instruction{
		// The socket is SOCK_DGRAM, so the filter sees no Ethernet
		// header; the EtherType is read from the packet's protocol field.
		bpf.LoadExtension{Num: bpf.ExtProto},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: protoPPPoEDiscovery, SkipFalse: 1},
		bpf.RetConstant{Val: 1500},
		bpf.RetConstant{Val: 0},
	})
	if err != nil {
		return fmt.Errorf("assembling PPPoE discovery BPF filter: %w", err)
	}
	if err := rc.SetBPF(prog); err != nil {
		return fmt.Errorf("attaching PPPoE discovery BPF filter: %w", err)
	}
	return nil
}

// sendPADI broadcasts a PADI packet. While trivial, it's separated
// out so tests can invoke it.
func sendPADI(conn net.PacketConn) error {
	_, err := conn.WriteTo(padiPacket, ethernetBroadcast)
	return err
}

// readPADO waits to receive a valid PPPoE Active Discovery Offer
// (PADO) packet, and returns relevant information from it.
func readPADO(ctx context.Context, conn net.PacketConn) (concentratorAddr net.Addr, cookie []byte, line LineInfo, err error) {
	var b [1500]byte

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		defer conn.SetReadDeadline(time.Time{})
	}
	for {
		n, from, err := conn.ReadFrom(b[:])
		if err != nil {
			return nil, nil, LineInfo{}, err
		}

		cookie, line, err := parsePADO(b[:n])
		if err == nil {
			return from, cookie, line, nil
		}

		// Not a valid PADO, keep waiting
	}
}

// parsePADO parses a raw PADO packet and extracts the PPPoE cookie and
// any TR-101 line attributes.
func parsePADO(buf []byte) (cookie []byte, line LineInfo, err error) {
	pkt, err := parseDiscoveryPacket(buf)
	if err != nil {
		return nil, LineInfo{}, err
	}
	if pkt.Code != pppoePADO {
		return nil, LineInfo{}, ErrNotPADO
	}
	if pkt.SessionID != 0 {
		return nil, LineInfo{}, ErrPADONonZeroSession
	}

	// Note, not having a cookie is fine. Its function is similar to
	// syncookies, an anti-DoS measure at the concentrator. If the
	// concentrator doesn't care, then neither do we.
	return pkt.Tags[pppoeTagCookie], parseLineInfo(pkt.Tags[pppoeTagVendorSpecific]), nil
}

func sendPADR(conn net.PacketConn, concentrator net.Addr, cookie []byte) error {
	pkt := &discoveryPacket{
		Code: pppoePADR,
		Tags: map[int][]byte{
			pppoeTagServiceName: nil,
		},
	}
	if len(cookie) != 0 {
		pkt.Tags[pppoeTagCookie] = cookie
	}
	_, err := conn.WriteTo(encodeDiscoveryPacket(pkt), concentrator)
	return err
}

func readPADS(ctx context.Context, conn net.PacketConn, concentrator net.Addr) (sessionID uint16, line LineInfo, err error) {
	var b [1500]byte

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		defer conn.SetReadDeadline(time.Time{})
	}
	for {
		n, from, err := conn.ReadFrom(b[:])
		if err != nil {
			return 0, LineInfo{}, err
		}

		if concentrator.String() != from.String() {
			// Wrong peer, keep waiting
			continue
		}

		sessionID, line, err = parsePADS(b[:n])
		if err == nil {
			return sessionID, line, nil
		}

		// Not a valid PADS, keep waiting
	}
}

func parsePADS(buf []byte) (sessionID uint16, line LineInfo, err error) {
	pkt, err := parseDiscoveryPacket(buf)
	if err != nil {
		return 0, LineInfo{}, err
	}
	if pkt.Code != pppoePADS {
		return 0, LineInfo{}, ErrNotPADS
	}
	return uint16(pkt.SessionID), parseLineInfo(pkt.Tags[pppoeTagVendorSpecific]), nil
}

// parseLineInfo decodes a PPPoE Vendor-Specific discovery tag into its
// TR-101 (RFC 4679) access-line sub-attributes. A nil tag or one with
// the wrong Vendor-ID yields a zero LineInfo, and a truncated sub-TLV
// ends decoding with the attributes read before it; malformed input
// never produces an error: reporting line characteristics is optional, and a
// concentrator that doesn't implement TR-101 is the common case.
func parseLineInfo(tag []byte) LineInfo {
	var line LineInfo
	if len(tag) < 4 {
		return line
	}
	if binary.BigEndian.Uint32(tag[:4]) != vendorIDBroadbandForum {
		return line
	}

	sub := tag[4:]
	for len(sub) >= 2 {
		subType, subLen := sub[0], int(sub[1])
		sub = sub[2:]
		if len(sub) < subLen {
			break
		}
		val := sub[:subLen]
		sub = sub[subLen:]

		switch subType {
		case tr101AgentCircuitID:
			line.CircuitID = string(val)
		case tr101AgentRemoteID:
			line.RemoteID = string(val)
		case tr101ActualDataRateUpstream:
			line.ActualDataRateUp = be32(val)
		case tr101ActualDataRateDownstream:
			line.ActualDataRateDown = be32(val)
		case tr101MinimumDataRateUpstream:
			line.MinDataRateUp = be32(val)
		case tr101MinimumDataRateDownstream:
			line.MinDataRateDown = be32(val)
		case tr101AttainableDataRateUpstream:
			line.AttainableRateUp = be32(val)
		case tr101AttainableDataRateDownstream:
			line.AttainableRateDown = be32(val)
		case tr101MaxInterleavingDelayUpstream, tr101ActInterleavingDelayUpstream:
			line.InterleavingDelayUp = be32(val)
		case tr101MaxInterleavingDelayDownstm, tr101ActInterleavingDelayDownstm:
			line.InterleavingDelayDn = be32(val)
		}
	}
	return line
}

// be32 decodes a big-endian TR-101 sub-TLV value of up to 4 bytes. A
// concentrator is free to send a narrower encoding than 4 bytes; this
// zero-extends rather than rejecting the tag. A value wider than 4
// bytes decodes as 0.
func be32(val []byte) uint32 {
	if len(val) > 4 {
		return 0
	}
	var buf [4]byte
	copy(buf[4-len(val):], val)
	return binary.BigEndian.Uint32(buf[:])
}

func sendPADT(conn net.PacketConn, concentrator net.Addr, sessionID uint16) error {
	pkt := &discoveryPacket{
		Code:      pppoePADT,
		SessionID: int(sessionID),
	}
	_, err := conn.WriteTo(encodeDiscoveryPacket(pkt), concentrator)
	conn.Close()
	return err
}

// discoveryPacket is a parsed PPPoE Discovery packet.
type discoveryPacket struct {
	// Code is the kind of PPPoE packet.
	Code int
	// SessionID is the PPPoE session ID. It's zero for all Discovery
	// packets except PADS and PADT.
	SessionID int
	// Tags is a collection of key/value pairs attached to the
	// packet. Required/optional tags vary depending on Code.
	Tags map[int][]byte
}

// parseDiscoveryPacket parses a PPPoE Discovery packet into a discoveryPacket.
func parseDiscoveryPacket(pkt []byte) (*discoveryPacket, error) {
	if len(pkt) < 6 {
		return nil, ErrShortPacket
	}
	if pkt[0] != 0x11 {
		return nil, fmt.Errorf("unknown PPPoE version %x", pkt[0])
	}

	ret := &discoveryPacket{
		Code:      int(pkt[1]),
		SessionID: int(binary.BigEndian.Uint16(pkt[2:4])),
		Tags:      map[int][]byte{},
	}

	tlvLen := int(binary.BigEndian.Uint16(pkt[4:6]))
	pkt = pkt[6:]
	if tlvLen != len(pkt) {
		return nil, fmt.Errorf("tag array length %v doesn't match remaining packet length %v", tlvLen, len(pkt))
	}

	for len(pkt) > 0 {
		if len(pkt) < 4 {
			return nil, fmt.Errorf("%w: %d bytes", ErrTrailingGarbage, len(pkt))
		}

		tagType, tagLen := int(binary.BigEndian.Uint16(pkt[:2])), int(binary.BigEndian.Uint16(pkt[2:4]))
		if len(pkt[4:]) < tagLen {
			return nil, ErrTagOverrun
		}

		tagValue := pkt[4 : 4+tagLen]
		pkt = pkt[4+tagLen:]

		if tagType == pppoeTagServiceName && tagLen != 0 {
			return nil, ErrUnexpectedServiceNameTag
		}

		ret.Tags[tagType] = tagValue
	}

	return ret, nil
}

// encodeDiscoveryPacket marshals a PPPoE Discovery packet into raw bytes.
func encodeDiscoveryPacket(pkt *discoveryPacket) []byte {
	tlvLen, tlvs := 0, []int{}
	for tlv, val := range pkt.Tags {
		tlvs = append(tlvs, tlv)
		tlvLen += len(val)
	}
	sort.Ints(tlvs)

	var ret bytes.Buffer
	ret.WriteByte(0x11)            // Protocol version 1, packet type 1
	ret.WriteByte(uint8(pkt.Code)) // PPPoE packet code
	binary.Write(&ret, binary.BigEndian, uint16(pkt.SessionID))
	binary.Write(&ret, binary.BigEndian, uint16(tlvLen+(4*len(pkt.Tags))))

	for _, tlv := range tlvs {
		val := pkt.Tags[tlv]
		binary.Write(&ret, binary.BigEndian, uint16(tlv))
		binary.Write(&ret, binary.BigEndian, uint16(len(val)))
		ret.Write(val)
	}

	return ret.Bytes()
}
