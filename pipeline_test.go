package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/bytebufferpool"
)

func newTestPipeline() *responsePipeline {
	return &responsePipeline{body: bytebufferpool.Get()}
}

func TestResponsePipelineAggregatesWrites(t *testing.T) {
	p := newTestPipeline()
	defer p.release()

	n, err := p.Write([]byte("hello "))
	assert.NoError(t, err)
	assert.Equal(t, 6, n)

	_, err = p.Write([]byte("world"))
	assert.NoError(t, err)

	assert.Equal(t, "hello world", string(p.Bytes()))
}

func TestResponsePipelineEOFRules(t *testing.T) {
	p := newTestPipeline()
	defer p.release()

	notDone := []StreamStatus{
		StreamInit, StreamIdle, StreamReservedLocal, StreamReservedRemote,
		StreamOpen, StreamHalfClosedLocal,
	}
	for _, st := range notDone {
		assert.False(t, p.EOF(st), "status %s should not be EOF", st)
	}

	assert.True(t, p.EOF(StreamHalfClosedRemote))
	assert.True(t, p.EOF(StreamClosed))
}

func TestResponsePipelineHeaderBlockIsSeparateFromBody(t *testing.T) {
	p := newTestPipeline()
	defer p.release()

	p.headerBlock = append(p.headerBlock, []byte("compressed-header-bytes")...)
	p.Write([]byte("body bytes"))

	assert.Equal(t, "body bytes", string(p.Bytes()))
	assert.Equal(t, "compressed-header-bytes", string(p.headerBlock))
}
