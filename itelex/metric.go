package itelex

import "sync/atomic"

// ClientMetrics contains atomic metrics for an i-Telex client.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ClientMetrics struct {
	// DialCount indicates the number of accepted dial requests.
	DialCount atomic.Uint64
	// DialRejectCount indicates the number of dial requests dropped because
	// the client was busy.
	DialRejectCount atomic.Uint64
	// ResolveFailCount indicates the number of numbers the resolver could not find.
	ResolveFailCount atomic.Uint64
	// SessionCount indicates the number of established sessions.
	SessionCount atomic.Uint64

	// PacketSendCount indicates the number of packets sent.
	PacketSendCount atomic.Uint64
	// PacketRecvCount indicates the number of packets received.
	PacketRecvCount atomic.Uint64
	// BaudotSendBytes indicates the number of Baudot codes sent.
	BaudotSendBytes atomic.Uint64
	// BaudotRecvBytes indicates the number of Baudot codes received.
	BaudotRecvBytes atomic.Uint64
	// MalformedPacketCount indicates the number of truncated packets received.
	MalformedPacketCount atomic.Uint64
	// PeerEndCount indicates the number of sessions ended by an End or Reject packet.
	PeerEndCount atomic.Uint64
}

func (m *ClientMetrics) incDialCount() {
	m.DialCount.Add(1)
}

func (m *ClientMetrics) incDialRejectCount() {
	m.DialRejectCount.Add(1)
}

func (m *ClientMetrics) incResolveFailCount() {
	m.ResolveFailCount.Add(1)
}

func (m *ClientMetrics) incSessionCount() {
	m.SessionCount.Add(1)
}

func (m *ClientMetrics) incPacketSendCount() {
	m.PacketSendCount.Add(1)
}

func (m *ClientMetrics) incPacketRecvCount() {
	m.PacketRecvCount.Add(1)
}

func (m *ClientMetrics) addBaudotSendBytes(n int) {
	m.BaudotSendBytes.Add(uint64(n))
}

func (m *ClientMetrics) addBaudotRecvBytes(n int) {
	m.BaudotRecvBytes.Add(uint64(n))
}

func (m *ClientMetrics) incMalformedPacketCount() {
	m.MalformedPacketCount.Add(1)
}

func (m *ClientMetrics) incPeerEndCount() {
	m.PeerEndCount.Add(1)
}
