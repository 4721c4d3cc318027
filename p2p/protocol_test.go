package p2p

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ledgerlink/go-ledgerlink/params"
)

func TestFrameRoundTrip(t *testing.T) {
	body := []byte(`{"to":"x","from":"y"}`)
	var buf bytes.Buffer
	if err := WriteFrame(&buf, body); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("round trip body %q, want %q", got, body)
	}
}

func TestFrameEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty frame read back %d bytes", len(got))
	}
}

func TestFrameExtraHeadersTolerated(t *testing.T) {
	raw := "Host: peer\r\nContent-Type: application/json\r\nContent-Length: 2\r\n\r\nok"
	got, err := ReadFrame(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "ok" {
		t.Errorf("body %q, want ok", got)
	}
}

func TestFrameHeaderTooLarge(t *testing.T) {
	raw := "X-Padding: " + strings.Repeat("a", params.MaxHeaderBytes) + "\r\nContent-Length: 0\r\n\r\n"
	if _, err := ReadFrame(bufio.NewReader(strings.NewReader(raw))); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("want ErrFrameTooLarge, got %v", err)
	}
}

func TestFrameBodyTooLarge(t *testing.T) {
	raw := "Content-Length: 10485760\r\n\r\n"
	if _, err := ReadFrame(bufio.NewReader(strings.NewReader(raw))); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("want ErrFrameTooLarge, got %v", err)
	}
}

func TestFrameMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing content length", "Host: peer\r\n\r\n"},
		{"non-decimal content length", "Content-Length: ten\r\n\r\n"},
		{"negative content length", "Content-Length: -4\r\n\r\n"},
		{"header line without colon", "garbage\r\nContent-Length: 0\r\n\r\n"},
	}
	for _, tc := range cases {
		if _, err := ReadFrame(bufio.NewReader(strings.NewReader(tc.raw))); !errors.Is(err, ErrBadFrame) {
			t.Errorf("%s: want ErrBadFrame, got %v", tc.name, err)
		}
	}
}
