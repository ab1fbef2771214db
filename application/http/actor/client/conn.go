package client

import (
	"bytes"
	"context"
	"httpjar/application/http"
	"httpjar/application/http/semantic"
	"httpjar/application/http/semantic/status"
	"httpjar/application/http/transfer"
	iolib "httpjar/lib/io"
	"httpjar/transport"
	"io"
	"log/slog"
	"strconv"

	"github.com/pkg/errors"
)

// roundtrip sends request over a new connection and reads the whole response.
// The connection is closed before it returns.
func (c *Client) roundtrip(ctx context.Context, request *semantic.Request) (*semantic.Response, error) {
	addr, err := c.convertToAddr(ctx, request.URI)
	if err != nil {
		return nil, withKind(ErrNetwork, errors.Wrap(err, "converting uri to addr"))
	}

	conn, err := c.connDialer.Dial(ctx, addr)
	if err != nil {
		return nil, withKind(ErrNetwork, errors.Wrapf(err, "dialing %s", addr))
	}
	defer conn.Close()

	if c.opts.Timeout > 0 {
		deadline := c.clock.Now().Add(c.opts.Timeout)
		conn.SetReadDeadLine(deadline)
		conn.SetWriteDeadLine(deadline)
	}

	if err := c.writeRequest(conn, request); err != nil {
		return nil, withKind(ErrNetwork, errors.Wrap(err, "writing request"))
	}

	res, err := c.readResponse(conn, request.Method)
	if err != nil {
		return nil, withKind(ErrNetwork, errors.Wrap(err, "reading response"))
	}

	return res, nil
}

func (c *Client) writeRequest(w io.Writer, request *semantic.Request) error {
	raw := request.RawRequest()

	switch {
	case len(request.TransferEncoding) > 0:
		if raw.Body == nil {
			raw.Body = bytes.NewReader(nil)
		}

		var buf bytes.Buffer
		enc, err := c.transfer.Encode(iolib.NopWriteCloser(&buf), request.TransferEncoding, nil)
		if err != nil {
			return errors.Wrap(err, "applying transfer coding")
		}
		if _, err := io.Copy(enc, raw.Body); err != nil {
			return errors.Wrap(err, "encoding body")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "encoding body")
		}
		raw.Body = &buf
	case request.ContentLength != nil && raw.Body != nil:
		raw.Body = iolib.LimitReader(raw.Body, *request.ContentLength)
	}

	return http.NewRequestEncoder(w, c.opts.Send.Encode).Encode(raw)
}

func (c *Client) readResponse(r io.Reader, method semantic.Method) (*semantic.Response, error) {
	dec := http.NewResponseDecoder(r, c.opts.Receive.Decode)

	var response *semantic.Response
	for {
		var raw http.Response
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}

		res, err := semantic.ResponseFrom(&raw, c.opts.Receive.Parse)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create a semantic response")
		}

		// Interim responses precede the final one on the same connection.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.2
		if res.Status.IsInformational() && res.Status.Code != status.SwitchingProtocols.Code {
			c.logger.Debug("Skipping interim response", slog.Uint64("status", uint64(res.Status.Code)))
			continue
		}

		response = res
		break
	}

	if !c.opts.Receive.UseReceivedReasonPhrase {
		// Overwrite the reason phrase with default one.
		if status, ok := status.FromCode(response.Status.Code); ok {
			response.Status = status
		}
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.1
	if method == semantic.MethodHead || response.Status.HasNoContent() || !c.opts.ReceiveBody {
		response.Body = nil
		return response, nil
	}

	body, err := c.readBody(response)
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}

	if c.opts.DecodeBody && len(response.TransferEncoding) == 0 {
		body, err = c.decodeContent(response, body)
		if err != nil {
			return nil, errors.Wrap(err, "decoding content")
		}
	}

	response.Body = bytes.NewReader(body)

	return response, nil
}

// readBody reads the content delimited by the framing of res.
// Transfer codings are removed when UnchunkBody is set.
func (c *Client) readBody(res *semantic.Response) ([]byte, error) {
	switch {
	case len(res.TransferEncoding) > 0:
		r := res.Body
		if !res.IsChunked() {
			// The message is finished when server closes connection.
			// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.4.2
			r = &connClosedReader{r: r}
		}

		if !c.opts.UnchunkBody {
			if !res.IsChunked() {
				return io.ReadAll(r)
			}

			// Body is delimited by last chunk, which is kept as received.
			// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.4.1
			var raw bytes.Buffer
			chunked := transfer.NewChunkedCoder().NewReader(io.TeeReader(r, &raw))
			if _, err := io.Copy(io.Discard, chunked); err != nil {
				return nil, err
			}
			return raw.Bytes(), nil
		}

		decoded, err := c.transfer.Decode(r, res.TransferEncoding, func(f []http.Field) {
			trailers := semantic.HeadersFrom(f, c.opts.Receive.Parse.CombineFieldValues)
			res.Trailers = &trailers
		})
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(decoded)
		if err != nil {
			return nil, err
		}

		res.TransferEncoding = nil
		res.Headers.Del("Transfer-Encoding")
		setContentLength(res, body)

		return body, nil
	case res.ContentLength != nil:
		// Body is delimited by Content-Length.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.6
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}
		if uint(len(body)) != *res.ContentLength {
			return nil, errors.Wrapf(io.ErrUnexpectedEOF, "got %d of %d bytes", len(body), *res.ContentLength)
		}
		return body, nil
	default:
		// Neither transfer-encoding nor content-length exists.
		// The message is finished when server closes connection.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.8
		return io.ReadAll(&connClosedReader{r: res.Body})
	}
}

// decodeContent removes content codings from body.
// Unknown codings leave body as received.
func (c *Client) decodeContent(res *semantic.Response, body []byte) ([]byte, error) {
	codings := transfer.CodingsFrom(res.Headers.List("Content-Encoding"))
	if len(codings) == 0 {
		return body, nil
	}

	if !c.transfer.Supports(codings) {
		c.logger.Debug("Leaving body encoded", slog.Any("codings", codings))
		return body, nil
	}

	r, err := c.transfer.Decode(bytes.NewReader(body), codings, nil)
	if err != nil {
		return nil, err
	}

	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	res.Headers.Del("Content-Encoding")
	setContentLength(res, decoded)

	return decoded, nil
}

func setContentLength(res *semantic.Response, body []byte) {
	l := uint(len(body))
	res.ContentLength = &l
	res.Headers.Set("Content-Length", strconv.FormatUint(uint64(l), 10))
}

// connClosedReader overwrites [transport.ErrConnClosed] as [io.EOF].
type connClosedReader struct{ r io.Reader }

func (r *connClosedReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	if errors.Is(err, transport.ErrConnClosed) {
		return n, io.EOF
	}
	return n, err
}
