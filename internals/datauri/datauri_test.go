package datauri

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func TestDecodeBase64RoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("a"),
		[]byte("hello world\n"),
		{0x00, 0xff, 0x10, 0x80},
		[]byte(""),
	}
	for _, payload := range payloads {
		raw := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(payload)
		decoded, err := Decode(raw)
		if err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Fatalf("round trip mismatch: got %v want %v", decoded, payload)
		}
	}
}

func TestDecodeLiteralFallback(t *testing.T) {
	decoded, err := Decode("data:text/plain,not base64!")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "not base64!" {
		t.Fatalf("expected literal payload, got %q", string(decoded))
	}
}

func TestDecodeCharsetVariant(t *testing.T) {
	raw := "data:text/plain;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte("hi"))
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "hi" {
		t.Fatalf("expected hi, got %q", string(decoded))
	}
}

func TestDecodeNoMIME(t *testing.T) {
	decoded, err := Decode("data:,plain text")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "plain text" {
		t.Fatalf("expected plain text, got %q", string(decoded))
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{"", "http://example.com", "data;base64,YQ==", "datauri:x,y"} {
		if _, err := Decode(raw); !errors.Is(err, ErrFormat) {
			t.Fatalf("expected ErrFormat for %q, got %v", raw, err)
		}
	}
}

func TestParseFlags(t *testing.T) {
	uri, err := Parse("data:text/html;base64,PGI+")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uri.MIME != "text/html" {
		t.Fatalf("expected mime text/html, got %q", uri.MIME)
	}
	if !uri.Base64 {
		t.Fatalf("expected base64 flag")
	}

	uri, err = Parse("data:text/plain,x")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uri.Base64 {
		t.Fatalf("expected no base64 flag")
	}
}
