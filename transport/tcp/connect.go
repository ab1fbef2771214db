package tcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"httpjar/application/http"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

var ErrProxyRefused = errors.New("proxy refused tunnel")

// connectDialer tunnels connections through an HTTP proxy with the CONNECT method.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9.3.6
type connectDialer struct {
	proxyAddr string
	user      *url.Userinfo
	forward   proxy.Dialer
}

var _ proxy.ContextDialer = (*connectDialer)(nil)

func newConnectDialer(u *url.URL, forward proxy.Dialer) (proxy.Dialer, error) {
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}
	return &connectDialer{proxyAddr: host, user: u.User, forward: forward}, nil
}

func (d *connectDialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

func (d *connectDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var nc net.Conn
	var err error
	if cd, ok := d.forward.(proxy.ContextDialer); ok {
		nc, err = cd.DialContext(ctx, network, d.proxyAddr)
	} else {
		nc, err = d.forward.Dial(network, d.proxyAddr)
	}
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(deadline)
		defer nc.SetDeadline(time.Time{})
	}

	if err := d.handshake(nc, addr); err != nil {
		_ = nc.Close()
		return nil, err
	}

	return nc, nil
}

func (d *connectDialer) handshake(nc net.Conn, addr string) error {
	var b strings.Builder
	b.WriteString("CONNECT " + addr + " HTTP/1.1\r\n")
	b.WriteString("Host: " + addr + "\r\n")
	if d.user != nil {
		password, _ := d.user.Password()
		cred := base64.StdEncoding.EncodeToString([]byte(d.user.Username() + ":" + password))
		b.WriteString("Proxy-Authorization: Basic " + cred + "\r\n")
	}
	b.WriteString("\r\n")

	if _, err := nc.Write([]byte(b.String())); err != nil {
		return errors.Wrap(err, "writing CONNECT request")
	}

	head, err := readHead(nc)
	if err != nil {
		return errors.Wrap(err, "reading CONNECT response")
	}

	var res http.Response
	if err := http.NewResponseDecoder(bytes.NewReader(head), http.DefaultDecodeOptions).Decode(&res); err != nil {
		return errors.Wrap(err, "parsing CONNECT response")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errors.Wrapf(ErrProxyRefused, "status %d", res.StatusCode)
	}

	return nil
}

// readHead reads until the end of the header section.
// It reads byte by byte so that no tunnelled byte is consumed.
func readHead(nc net.Conn) ([]byte, error) {
	const maxHead = 8 << 10

	head := make([]byte, 0, 256)
	buf := make([]byte, 1)
	for !bytes.HasSuffix(head, []byte("\r\n\r\n")) {
		if len(head) > maxHead {
			return nil, errors.New("response header too large")
		}
		if _, err := nc.Read(buf); err != nil {
			return nil, err
		}
		head = append(head, buf[0])
	}
	return head, nil
}
