package http

import (
	"net"
	"net/http"
	"time"
)

const userAgent = "indicator-backend/1.0"

// NewHTTPClient は外部API呼び出し用のHTTPクライアントを作成します。
//
// http.DefaultClient はタイムアウトが無いため使わないこと。
// timeout はリクエスト全体の上限で、接続とTLSハンドシェイクはそれぞれ5秒で打ち切ります。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: &userAgentTransport{next: t}}
}

// userAgentTransport sets a User-Agent on requests that lack one.
type userAgentTransport struct {
	next http.RoundTripper
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", userAgent)
	return u.next.RoundTrip(r)
}
