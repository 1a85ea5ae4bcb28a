// Package token converts between scanned QR payloads and typed references.
//
// Two namespaces exist: session tokens ("sess-" + stored session token) and
// participant tokens ("user-" + participant id). Tokens are shareable
// capabilities, not credentials.
package token

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

type Kind int

const (
	Session Kind = iota + 1
	Participant
)

const (
	SessionPrefix     = "sess-"
	ParticipantPrefix = "user-"
)

func (k Kind) String() string {
	switch k {
	case Session:
		return "session"
	case Participant:
		return "participant"
	}
	return "unknown"
}

func (k Kind) prefix() string {
	switch k {
	case Session:
		return SessionPrefix
	case Participant:
		return ParticipantPrefix
	}
	return ""
}

var (
	// ErrUnknownFormat is returned when a payload matches neither namespace.
	ErrUnknownFormat = errors.New("unknown token format")
	// ErrInvalidID rejects ids that Decode could not give back unchanged.
	ErrInvalidID = errors.New("token id must be non-empty without surrounding whitespace")
)

// Ref is a decoded token.
type Ref struct {
	Kind Kind
	ID   string
}

// Decode parses a raw scan payload.
func Decode(raw string) (Ref, error) {
	s := strings.TrimSpace(raw)
	for _, k := range []Kind{Session, Participant} {
		if id, ok := strings.CutPrefix(s, k.prefix()); ok {
			if id == "" {
				return Ref{}, ErrUnknownFormat
			}
			return Ref{Kind: k, ID: id}, nil
		}
	}
	return Ref{}, ErrUnknownFormat
}

// ValidID reports whether id survives an Encode/Decode round trip.
func ValidID(id string) bool {
	return id != "" && strings.TrimSpace(id) == id
}

// Encode is the inverse of Decode.
func Encode(kind Kind, id string) (string, error) {
	if kind.prefix() == "" {
		return "", errors.Errorf("unknown token kind %d", int(kind))
	}
	if !ValidID(id) {
		return "", errors.Wrapf(ErrInvalidID, "%s id %q", kind, id)
	}
	return kind.prefix() + id, nil
}

// NewSessionToken mints a fresh opaque session token.
func NewSessionToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PNG renders a scan payload as a QR code image.
func PNG(raw string, size int) ([]byte, error) {
	png, err := qrcode.Encode(raw, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "encode qr")
	}
	return png, nil
}
