package http2

import (
	"encoding/binary"
	"sync"
	"time"
)

const FramePing FrameType = 0x6

var _ Frame = &Ping{}

var pingPool = sync.Pool{
	New: func() interface{} { return &Ping{} },
}

// Ping is the HTTP/2 PING frame body, used here for idle-connection
// liveness checks.
//
// https://tools.ietf.org/html/rfc7540#section-6.7
type Ping struct {
	ack  bool
	data [8]byte
}

func (ping *Ping) Type() FrameType {
	return FramePing
}

func (ping *Ping) Reset() {
	ping.ack = false
	ping.data = [8]byte{}
}

func (ping *Ping) CopyTo(p *Ping) {
	p.ack = ping.ack
	p.data = ping.data
}

func (ping *Ping) IsAck() bool   { return ping.ack }
func (ping *Ping) SetAck(v bool) { ping.ack = v }

func (ping *Ping) Data() []byte {
	return ping.data[:]
}

func (ping *Ping) SetData(b []byte) {
	copy(ping.data[:], b)
}

// SetCurrentTime stashes the current monotonic-ish timestamp in the
// ping payload so a round-trip can be timed once the ack comes back.
func (ping *Ping) SetCurrentTime() {
	binary.BigEndian.PutUint64(ping.data[:], uint64(time.Now().UnixNano()))
}

// DataAsTime interprets the payload written by SetCurrentTime.
func (ping *Ping) DataAsTime() time.Time {
	return time.Unix(0, int64(binary.BigEndian.Uint64(ping.data[:])))
}

func (ping *Ping) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 8 {
		return ErrMissingBytes
	}

	ping.ack = frh.Flags().Has(FlagAck)
	ping.SetData(frh.payload)

	return nil
}

func (ping *Ping) Serialize(fr *FrameHeader) {
	if ping.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
	}

	fr.setPayload(ping.data[:])
}
