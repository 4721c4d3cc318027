package p2p

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledgerlink/go-ledgerlink/params"
)

var (
	// ErrFrameTooLarge is returned when the header section or the declared
	// body exceeds the protocol limits.
	ErrFrameTooLarge = errors.New("p2p: frame too large")

	// ErrBadFrame is returned for structurally invalid frames: malformed
	// header lines, or a missing or non-decimal Content-Length.
	ErrBadFrame = errors.New("p2p: malformed frame")
)

var headerTerminator = []byte("\r\n\r\n")

// ReadFrame reads one message frame: CRLF-separated "Key: Value" header
// lines, a blank line, then exactly Content-Length bytes of body.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	header := make([]byte, 0, 256)
	for !bytes.HasSuffix(header, headerTerminator) {
		if len(header) > params.MaxHeaderBytes {
			return nil, fmt.Errorf("%w: header exceeds %d bytes", ErrFrameTooLarge, params.MaxHeaderBytes)
		}
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		header = append(header, c)
	}

	headers := make(map[string]string)
	for _, line := range strings.Split(string(header[:len(header)-len(headerTerminator)]), "\r\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: header line %q", ErrBadFrame, line)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	length, err := strconv.Atoi(headers["Content-Length"])
	if err != nil || length < 0 {
		return nil, fmt.Errorf("%w: bad Content-Length %q", ErrBadFrame, headers["Content-Length"])
	}
	if length > params.MaxBodyBytes {
		return nil, fmt.Errorf("%w: body of %d bytes", ErrFrameTooLarge, length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteFrame writes body as one message frame.
func WriteFrame(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
