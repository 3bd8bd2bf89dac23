// Package ticket issues pickup codes and resolves scanned codes to orders.
package ticket

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	codePrefix = "CC-"
	codeLength = 16 // base32 characters after the prefix
)

// Crockford alphabet: no I, L, O or U, so codes survive being read aloud.
var encoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// CodeIndex finds the order a code is bound to. Satisfied by the stores.
type CodeIndex interface {
	GetByPickupCode(ctx context.Context, code string) (model.Order, error)
}

// Issuer implements service.Ticketing. Codes are persisted with the order, so
// the store's uniqueness constraint is the single source of truth.
type Issuer struct {
	index CodeIndex
}

// NewIssuer creates an Issuer resolving through index.
func NewIssuer(index CodeIndex) *Issuer {
	return &Issuer{index: index}
}

// Issue returns a fresh random code for orderID.
func (i *Issuer) Issue(_ context.Context, orderID uuid.UUID) (string, error) {
	if orderID == uuid.Nil {
		return "", errors.New("order id is required")
	}
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate pickup code: %w", err)
	}
	// Skip bytes 6 and 8, which carry the UUID version and variant bits.
	raw := make([]byte, 0, 10)
	raw = append(raw, u[0:6]...)
	raw = append(raw, u[12:16]...)
	return codePrefix + encoding.EncodeToString(raw)[:codeLength], nil
}

// Resolve maps a scanned code to its order id.
func (i *Issuer) Resolve(ctx context.Context, code string) (uuid.UUID, error) {
	normalized, ok := Normalize(code)
	if !ok {
		return uuid.Nil, service.ErrNotFound
	}
	order, err := i.index.GetByPickupCode(ctx, normalized)
	if err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}

// Normalize trims and upper-cases a scanned code and reports whether it has
// the shape of an issued one.
func Normalize(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !strings.HasPrefix(c, codePrefix) {
		return "", false
	}
	body := strings.TrimPrefix(c, codePrefix)
	if len(body) != codeLength {
		return "", false
	}
	for _, r := range body {
		if !strings.ContainsRune("0123456789ABCDEFGHJKMNPQRSTVWXYZ", r) {
			return "", false
		}
	}
	return c, true
}

// PNG renders code as a QR image of size×size pixels.
func PNG(code string, size int) ([]byte, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
