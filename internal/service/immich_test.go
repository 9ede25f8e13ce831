package service

import (
	"bytes"
	"io"
	"testing"
)

func TestProgressReaderEmitsOnIntegerChangeOnly(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 400)
	var emitted []int
	pr := &progressReader{
		r:     bytes.NewReader(data),
		total: int64(len(data)),
		emit:  func(pct int) { emitted = append(emitted, pct) },
	}

	// two tiny reads inside the same percent emit nothing; the caller
	// already announced 0
	buf := make([]byte, 1)
	pr.Read(buf)
	pr.Read(buf)
	if len(emitted) != 0 {
		t.Fatalf("sub-percent reads emitted %v", emitted)
	}

	if _, err := io.Copy(io.Discard, pr); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(emitted) == 0 || emitted[len(emitted)-1] != 100 {
		t.Fatalf("emissions %v, want to end at 100", emitted)
	}
	prev := 0
	for _, pct := range emitted {
		if pct <= prev {
			t.Fatalf("emissions not strictly increasing: %v", emitted)
		}
		prev = pct
	}
}

func TestProgressReaderCapsAtHundred(t *testing.T) {
	data := []byte("abcdef")
	var emitted []int
	pr := &progressReader{
		r:     bytes.NewReader(data),
		total: 4, // total smaller than the stream
		emit:  func(pct int) { emitted = append(emitted, pct) },
	}
	if _, err := io.Copy(io.Discard, pr); err != nil {
		t.Fatalf("drain: %v", err)
	}
	for _, pct := range emitted {
		if pct > 100 {
			t.Fatalf("emitted %d%%", pct)
		}
	}
}
