package token

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func TestRoundTrip(t *testing.T) {
	ids := []string{"S1", "P1", "a", "sess-nested", "user-", "x y z", NewSessionToken()}
	for i := 0; i < 50; i++ {
		ids = append(ids, uuid.NewString(), fmt.Sprintf("%d", i))
	}
	for _, id := range ids {
		for _, k := range []Kind{Session, Participant} {
			raw, err := Encode(k, id)
			if err != nil {
				t.Fatalf("encode(%s, %q): %v", k, id, err)
			}
			ref, err := Decode(raw)
			if err != nil {
				t.Fatalf("decode(encode(%s, %q)): %v", k, id, err)
			}
			if ref.Kind != k || ref.ID != id {
				t.Fatalf("round trip mismatch: want (%s, %q), got (%s, %q)", k, id, ref.Kind, ref.ID)
			}
		}
	}
}

func TestEncodeRejectsIDsDecodeWouldAlter(t *testing.T) {
	for _, id := range []string{"", " ", "abc ", " abc", "abc\n", "\tabc"} {
		if ValidID(id) {
			t.Errorf("ValidID(%q) = true", id)
		}
		for _, k := range []Kind{Session, Participant} {
			if _, err := Encode(k, id); !errors.Is(err, ErrInvalidID) {
				t.Errorf("Encode(%s, %q): want ErrInvalidID, got %v", k, id, err)
			}
		}
	}
	if _, err := Encode(Kind(0), "abc"); err == nil {
		t.Error("Encode with zero kind: want error")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "sess-", "user-", "SESS-abc", "session-abc", "REG-12345678", "abc"} {
		if _, err := Decode(raw); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("Decode(%q): want ErrUnknownFormat, got %v", raw, err)
		}
	}
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	ref, err := Decode("  user-P1\n")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ref.Kind != Participant || ref.ID != "P1" {
		t.Fatalf("unexpected ref %+v", ref)
	}
}

func TestNewSessionTokenUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		tok := NewSessionToken()
		if len(tok) != 32 {
			t.Fatalf("expected 32 hex chars, got %q", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestPNG(t *testing.T) {
	raw, err := Encode(Session, "abc")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	png, err := PNG(raw, 128)
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}
}
