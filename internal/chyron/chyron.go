package chyron

import (
	"fmt"
	"time"
)

// Type is derived from where the chyron sits on screen, never detected.
type Type string

const (
	Bill       Type = "bill"
	Legislator Type = "legislator"
)

// DefaultCutoff separates the upper (bill) band from the lower (name) band.
const DefaultCutoff = 100

// Classify returns Bill for regions whose top edge is above cutoff and
// Legislator otherwise. y == cutoff is Legislator.
func Classify(y, cutoff int) Type {
	if y < cutoff {
		return Bill
	}
	return Legislator
}

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Bill, Legislator:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown chyron type %q", s)
}

// Record is one OCR result for one region of one frame. Text is stored as
// recognized, including the empty string.
type Record struct {
	VideoID    int64
	Timestamp  int // seconds from the start of the video
	Type       Type
	Text       string
	Normalized string
}

type Chamber string

const (
	House  Chamber = "house"
	Senate Chamber = "senate"
)

// Video is the parent row chyron records hang off.
type Video struct {
	ID        int64
	Date      time.Time
	Chamber   Chamber
	Committee string
}

func (v Video) Validate() error {
	if v.ID <= 0 {
		return fmt.Errorf("video id must be positive, got %d", v.ID)
	}
	switch v.Chamber {
	case House, Senate:
		return nil
	}
	return fmt.Errorf("chamber must be %q or %q, got %q", House, Senate, v.Chamber)
}
