// Package qr renders ticket QR codes whose payload can be verified at exit.
package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/Phantawat/car-parking/internal/models"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// Claims is what a ticket QR code carries.
type Claims struct {
	TicketID   string    `json:"ticket_id"`
	LotName    string    `json:"lot_name"`
	Level      int       `json:"level"`
	SpotNumber string    `json:"spot_number"`
	StartTime  time.Time `json:"start_time"`
}

// ClaimsFor extracts the QR claims of a ticket.
func ClaimsFor(t *models.Ticket) Claims {
	return Claims{
		TicketID:   t.ID,
		LotName:    t.LotName,
		Level:      t.Level,
		SpotNumber: t.SpotNumber,
		StartTime:  t.StartTime.UTC(),
	}
}

// Generator seals claims with AES-GCM and renders them as QR codes.
type Generator struct {
	aead cipher.AEAD
	size int
}

// NewGenerator derives the sealing key from secret.
func NewGenerator(secret string) (*Generator, error) {
	if secret == "" {
		return nil, errors.New("qr secret is empty")
	}
	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Generator{aead: aead, size: DefaultSize}, nil
}

// Seal returns the URL-safe payload for claims.
func (g *Generator) Seal(c Claims) (string, error) {
	plain, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	nonce := make([]byte, g.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := g.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open verifies and decodes a payload produced by Seal. Tampered or foreign
// payloads fail with a validation error.
func (g *Generator) Open(payload string) (Claims, error) {
	var c Claims

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return c, &models.ValidationError{Field: "payload", Message: "not a ticket code"}
	}
	ns := g.aead.NonceSize()
	if len(raw) < ns {
		return c, &models.ValidationError{Field: "payload", Message: "not a ticket code"}
	}

	plain, err := g.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return c, &models.ValidationError{Field: "payload", Message: "signature mismatch"}
	}
	if err := json.Unmarshal(plain, &c); err != nil {
		return c, fmt.Errorf("unmarshal claims: %w", err)
	}
	return c, nil
}

// PNG renders the sealed ticket claims as a QR code image.
func (g *Generator) PNG(t *models.Ticket) ([]byte, error) {
	payload, err := g.Seal(ClaimsFor(t))
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
