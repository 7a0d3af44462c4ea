package excel

import (
	"context"
	"fmt"
)

// Decoder turns raw workbook bytes into the first sheet's rows.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*Sheet, error)
}

const (
	LayoutAssociative = "associative"
	LayoutPositional  = "positional"
)

// NewDecoder picks a front end by layout name. keyFunc is only used by the
// positional front end.
func NewDecoder(layout string, keyFunc func(string) string) (Decoder, error) {
	switch layout {
	case "", LayoutAssociative:
		return NewAssociativeDecoder(), nil
	case LayoutPositional:
		return NewPositionalDecoder(keyFunc), nil
	default:
		return nil, fmt.Errorf("unknown sheet layout: %s", layout)
	}
}
