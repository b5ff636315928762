// Command h2get is a small HTTP/2 request driver built on top of the
// http2 package: it configures a fasthttp.HostClient to speak HTTP/2
// over one multiplexed connection and fires -n concurrent requests at
// -url, printing status and body length for each (and the response
// headers too when -headers is set).
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/chemodax/http2"
	"github.com/valyala/fasthttp"
)

func main() {
	var (
		reqURL      = flag.String("url", "", "URL to request (https only)")
		method      = flag.String("method", "GET", "HTTP method")
		concurrency = flag.Int("n", 1, "number of concurrent requests to fire")
		insecure    = flag.Bool("insecure", false, "skip TLS certificate verification")
		compress    = flag.Bool("compress", true, "negotiate and decode Content-Encoding")
		showHeaders = flag.Bool("headers", false, "print response headers")
		timeout     = flag.Duration("timeout", 10*time.Second, "per-request timeout")
	)
	flag.Parse()

	if *reqURL == "" {
		fmt.Fprintln(os.Stderr, "usage: h2get -url https://host/path [-n 4] [-method GET]")
		os.Exit(2)
	}

	u, err := url.Parse(*reqURL)
	if err != nil {
		log.Fatalf("parse url: %v", err)
	}
	if u.Scheme != "https" {
		log.Fatalf("h2get only dials TLS (https) hosts, got scheme %q", u.Scheme)
	}

	addr := u.Host
	if u.Port() == "" {
		addr = u.Host + ":443"
	}

	c := &fasthttp.HostClient{
		Addr:  addr,
		IsTLS: true,
		TLSConfig: &tls.Config{
			InsecureSkipVerify: *insecure,
		},
	}

	err = http2.ConfigureClient(c, http2.ConnOpts{
		EnableCompression: *compress,
	})
	if err != nil {
		log.Fatalf("configure http2: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			fire(c, *method, *reqURL, *timeout, *showHeaders, idx)
		}(i)
	}
	wg.Wait()
}

func fire(c *fasthttp.HostClient, method, reqURL string, timeout time.Duration, showHeaders bool, idx int) {
	req := fasthttp.AcquireRequest()
	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(res)

	req.Header.SetMethod(method)
	req.SetRequestURI(reqURL)

	var err error
	if timeout > 0 {
		err = c.DoTimeout(req, res, timeout)
	} else {
		err = c.Do(req, res)
	}
	if err != nil {
		fmt.Printf("[%d] error: %v\n", idx, err)
		return
	}

	fmt.Printf("[%d] %d %d bytes\n", idx, res.StatusCode(), len(res.Body()))
	if showHeaders {
		res.Header.VisitAll(func(k, v []byte) {
			fmt.Printf("[%d]   %s: %s\n", idx, k, v)
		})
	}
}
