package http2

import (
	"sync"

	"github.com/chemodax/http2/http2utils"
)

const FramePriority FrameType = 0x2

var _ Frame = &Priority{}

var priorityPool = sync.Pool{
	New: func() interface{} { return &Priority{} },
}

// Priority is the HTTP/2 PRIORITY frame body. This client tolerates
// servers sending it (RFC 7540 section 5.3 stream dependencies) but
// takes no action on it: prioritization is a server-scheduling concern
// this engine doesn't implement.
//
// https://tools.ietf.org/html/rfc7540#section-6.3
type Priority struct {
	dependsOn uint32
	exclusive bool
	weight    byte
}

func (pry *Priority) Type() FrameType {
	return FramePriority
}

func (pry *Priority) Reset() {
	pry.dependsOn = 0
	pry.exclusive = false
	pry.weight = 0
}

func (pry *Priority) CopyTo(p *Priority) {
	p.dependsOn = pry.dependsOn
	p.exclusive = pry.exclusive
	p.weight = pry.weight
}

func (pry *Priority) DependsOn() uint32 { return pry.dependsOn }
func (pry *Priority) Exclusive() bool   { return pry.exclusive }
func (pry *Priority) Weight() byte      { return pry.weight }

func (pry *Priority) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 5 {
		return ErrMissingBytes
	}

	raw := http2utils.BytesToUint32(fr.payload)
	pry.exclusive = raw&(1<<31) != 0
	pry.dependsOn = raw & (1<<31 - 1)
	pry.weight = fr.payload[4]

	return nil
}

func (pry *Priority) Serialize(fr *FrameHeader) {
	raw := pry.dependsOn & (1<<31 - 1)
	if pry.exclusive {
		raw |= 1 << 31
	}

	fr.payload = http2utils.AppendUint32Bytes(fr.payload[:0], raw)
	fr.payload = append(fr.payload, pry.weight)
}
