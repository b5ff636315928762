package http2

import (
	"sync"

	"github.com/chemodax/http2/http2utils"
)

const FrameSettings FrameType = 0x4

var _ Frame = &Settings{}

var settingsPool = sync.Pool{
	New: func() interface{} {
		st := &Settings{}
		st.Reset()
		return st
	},
}

const (
	defaultHeaderTableSize   uint32 = 4096
	defaultConcurrentStreams uint32 = 100
	defaultWindowSize        uint32 = 1<<16 - 1
	defaultMaxFrameSize      uint32 = 1 << 14

	maxWindowSize = 1<<31 - 1

	settingHeaderTableSize      uint16 = 0x1
	settingEnablePush           uint16 = 0x2
	settingMaxConcurrentStreams uint16 = 0x3
	settingInitialWindowSize    uint16 = 0x4
	settingMaxFrameSize         uint16 = 0x5
	settingMaxHeaderListSize    uint16 = 0x6
)

// Settings is the HTTP/2 SETTINGS frame body: either a set of
// connection parameters being announced, or (when Ack is set) the
// empty acknowledgement of the peer's settings.
//
// https://tools.ietf.org/html/rfc7540#section-6.5
type Settings struct {
	ack bool

	headerTableSize      uint32
	disablePush          bool
	maxConcurrentStreams uint32
	maxWindowSize        uint32
	maxFrameSize         uint32
	maxHeaderListSize    uint32
}

func (st *Settings) Type() FrameType {
	return FrameSettings
}

func (st *Settings) Reset() {
	st.ack = false
	st.headerTableSize = defaultHeaderTableSize
	st.disablePush = false
	st.maxConcurrentStreams = defaultConcurrentStreams
	st.maxWindowSize = defaultWindowSize
	st.maxFrameSize = defaultMaxFrameSize
	st.maxHeaderListSize = 0
}

func (st *Settings) CopyTo(other *Settings) {
	other.ack = st.ack
	other.headerTableSize = st.headerTableSize
	other.disablePush = st.disablePush
	other.maxConcurrentStreams = st.maxConcurrentStreams
	other.maxWindowSize = st.maxWindowSize
	other.maxFrameSize = st.maxFrameSize
	other.maxHeaderListSize = st.maxHeaderListSize
}

func (st *Settings) IsAck() bool   { return st.ack }
func (st *Settings) SetAck(v bool) { st.ack = v }

func (st *Settings) HeaderTableSize() uint32     { return st.headerTableSize }
func (st *Settings) SetHeaderTableSize(n uint32) { st.headerTableSize = n }

func (st *Settings) Push() bool     { return !st.disablePush }
func (st *Settings) SetPush(v bool) { st.disablePush = !v }

func (st *Settings) MaxConcurrentStreams() uint32     { return st.maxConcurrentStreams }
func (st *Settings) SetMaxConcurrentStreams(n uint32) { st.maxConcurrentStreams = n }

func (st *Settings) MaxWindowSize() uint32 { return st.maxWindowSize }
func (st *Settings) SetMaxWindowSize(n uint32) {
	if n > maxWindowSize {
		n = maxWindowSize
	}
	st.maxWindowSize = n
}

func (st *Settings) MaxFrameSize() uint32     { return st.maxFrameSize }
func (st *Settings) SetMaxFrameSize(n uint32) { st.maxFrameSize = n }

func (st *Settings) MaxHeaderListSize() uint32     { return st.maxHeaderListSize }
func (st *Settings) SetMaxHeaderListSize(n uint32) { st.maxHeaderListSize = n }

func (st *Settings) Deserialize(fr *FrameHeader) error {
	if fr.Flags().Has(FlagAck) {
		st.ack = true
		return nil
	}

	payload := fr.payload
	if len(payload)%6 != 0 {
		return ErrMissingBytes
	}

	for i := 0; i+6 <= len(payload); i += 6 {
		key := uint16(payload[i])<<8 | uint16(payload[i+1])
		value := http2utils.BytesToUint32(payload[i+2 : i+6])

		switch key {
		case settingHeaderTableSize:
			st.headerTableSize = value
		case settingEnablePush:
			st.disablePush = value == 0
		case settingMaxConcurrentStreams:
			st.maxConcurrentStreams = value
		case settingInitialWindowSize:
			st.maxWindowSize = value
		case settingMaxFrameSize:
			st.maxFrameSize = value
		case settingMaxHeaderListSize:
			st.maxHeaderListSize = value
		}
	}

	return nil
}

func (st *Settings) Serialize(fr *FrameHeader) {
	if st.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
		fr.payload = fr.payload[:0]
		return
	}

	payload := fr.payload[:0]
	payload = appendSetting(payload, settingHeaderTableSize, st.headerTableSize)
	if st.disablePush {
		payload = appendSetting(payload, settingEnablePush, 0)
	}
	payload = appendSetting(payload, settingMaxConcurrentStreams, st.maxConcurrentStreams)
	payload = appendSetting(payload, settingInitialWindowSize, st.maxWindowSize)
	payload = appendSetting(payload, settingMaxFrameSize, st.maxFrameSize)
	if st.maxHeaderListSize != 0 {
		payload = appendSetting(payload, settingMaxHeaderListSize, st.maxHeaderListSize)
	}

	fr.payload = payload
}

func appendSetting(dst []byte, key uint16, value uint32) []byte {
	dst = append(dst, byte(key>>8), byte(key))
	return http2utils.AppendUint32Bytes(dst, value)
}
