package http2

import (
	"crypto/tls"
	"net"

	"github.com/valyala/fasthttp"
)

// ConfigureClient rewires a *fasthttp.HostClient to speak HTTP/2: it
// fills in the client's TLS config with ALPN's "h2" protocol id and
// dials one Conn up front, setting that Conn's Do as the client's
// transport so every fasthttp.HostClient.Do call after this rides the
// same multiplexed connection.
func ConfigureClient(c *fasthttp.HostClient, opts ConnOpts) error {
	tlsConfig := c.TLSConfig

	if tlsConfig == nil {
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
		}
	}

	emptyServerName := len(tlsConfig.ServerName) == 0
	if emptyServerName {
		host, _, err := net.SplitHostPort(c.Addr)
		if err != nil {
			host = c.Addr
		}
		tlsConfig.ServerName = host
	}

	tlsConfig.NextProtos = append(tlsConfig.NextProtos, H2TLSProto)

	conn, err := Dial(c.Addr, tlsConfig, opts)
	if err != nil {
		if err == ErrServerSupport && c.TLSConfig != nil {
			tlsConfig.NextProtos = tlsConfig.NextProtos[:len(tlsConfig.NextProtos)-1]
			if emptyServerName {
				tlsConfig.ServerName = ""
			}
		}
		return err
	}

	c.TLSConfig = tlsConfig
	c.Transport = conn.Do

	return nil
}
