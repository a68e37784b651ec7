package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestCSVInputReaderSkipsBOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("data,svc\n")...)

	got, err := io.ReadAll(NewCSVInputReader(bytes.NewReader(input)))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "data,svc\n" {
		t.Errorf("got %q, want BOM stripped", got)
	}
}

func TestCSVInputReaderWithoutBOM(t *testing.T) {
	got, err := io.ReadAll(NewCSVInputReader(strings.NewReader("data,svc\n")))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "data,svc\n" {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestCSVInputReaderShortInput(t *testing.T) {
	// Inputs shorter than the BOM probe must pass through untouched.
	got, err := io.ReadAll(NewCSVInputReader(strings.NewReader("ab")))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "ab" {
		t.Errorf("got %q, want %q", got, "ab")
	}
}

func TestCSVInputReaderReplacesInvalidUTF8(t *testing.T) {
	input := []byte{'v', 'a', 0xFF, 'n'}

	got, err := io.ReadAll(NewCSVInputReader(bytes.NewReader(input)))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "va?n" {
		t.Errorf("got %q, want %q", got, "va?n")
	}
}

func TestCSVInputReaderKeepsMultibyteRunes(t *testing.T) {
	input := "veículo,março\n"

	got, err := io.ReadAll(NewCSVInputReader(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

// oneByteReader yields a single byte per Read to force multi-byte sequences
// to split across reads.
type oneByteReader struct {
	data []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestCSVInputReaderSplitRunes(t *testing.T) {
	input := "março"

	got, err := io.ReadAll(NewCSVInputReader(&oneByteReader{data: []byte(input)}))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != input {
		t.Errorf("got %q, want %q", got, input)
	}
}
