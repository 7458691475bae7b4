// Package webclient fetches NOTAM text from AIS web pages.
package webclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// Client is an HTTP client with a cookie jar, so AIS sites that set a
// session cookie on the first page keep working on the next.
type Client struct {
	Client *http.Client
}

// New creates a client whose dial, TLS and header timeouts are timeout.
func New(timeout time.Duration) (*Client, error) {
	// Create a cookie jar to keep session cookies between pages.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		Client: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 60 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 5 * time.Second,
				MaxIdleConnsPerHost:   100,
			},
		},
	}, nil
}

// FetchText downloads url and returns the NOTAM text found on the page.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,text/plain")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %s", url, resp.Status)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", url, err)
		}
		return string(b), nil
	}

	return ExtractText(resp.Body)
}

// ExtractText pulls NOTAM text out of an HTML page. AIS pages put each NOTAM
// in a <pre> block or a table cell; the text of every <pre>, else of every
// cell holding an "E)" item, is returned one block per line. A page with
// neither yields its whole body text.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var blocks []string
	doc.Find("pre").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})

	if len(blocks) == 0 {
		doc.Find("td").Each(func(_ int, s *goquery.Selection) {
			// Nested tables would repeat the inner cell's text.
			if s.Find("td").Length() > 0 {
				return
			}
			if t := strings.TrimSpace(s.Text()); strings.Contains(t, "E)") {
				blocks = append(blocks, t)
			}
		})
	}

	if len(blocks) == 0 {
		return strings.TrimSpace(doc.Find("body").Text()), nil
	}
	return strings.Join(blocks, "\n"), nil
}
