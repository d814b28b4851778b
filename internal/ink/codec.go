package ink

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var endianess = binary.LittleEndian

// packetHeader starts every encoded packet buffer.
const packetHeader = "dmpk1"

// maxDots bounds a decoded stroke so a corrupt count cannot allocate unbounded memory.
const maxDots = 1 << 20

// EncodePackets returns the raw packet representation of the given dots.
func EncodePackets(dots []Dot) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := writePackets(buf, dots)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePackets reads dots from a buffer produced by EncodePackets.
func DecodePackets(data []byte) ([]Dot, error) {
	r := bytes.NewReader(data)

	header := make([]byte, len(packetHeader))
	_, err := io.ReadFull(r, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet header: %w", err)
	}
	if string(header) != packetHeader {
		return nil, fmt.Errorf("unsupported packet header %q", header)
	}

	var n uint32
	err = binary.Read(r, endianess, &n)
	if err != nil {
		return nil, fmt.Errorf("failed to read dot count: %w", err)
	}
	if n > maxDots {
		return nil, fmt.Errorf("dot count %d exceeds limit", n)
	}

	dots := make([]Dot, n)
	for i := uint32(0); i < n; i++ {
		d, err := readDot(r)
		if err != nil {
			return nil, fmt.Errorf("dot %d: %w", i, err)
		}
		dots[i] = d
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after packets", r.Len())
	}

	return dots, nil
}

func writePackets(w io.Writer, dots []Dot) error {
	if len(dots) > maxDots {
		return fmt.Errorf("dot count %d exceeds limit", len(dots))
	}

	_, err := w.Write([]byte(packetHeader))
	if err != nil {
		return err
	}

	err = binary.Write(w, endianess, uint32(len(dots)))
	if err != nil {
		return err
	}

	for _, d := range dots {
		err = writeDot(w, d)
		if err != nil {
			return err
		}
	}

	return nil
}

func writeDot(w io.Writer, d Dot) error {
	// field order is the wire order
	fields := []float32{d.X, d.Y, d.Speed, d.Tilt, d.Width, d.Pressure}
	for _, f := range fields {
		err := binary.Write(w, endianess, f)
		if err != nil {
			return err
		}
	}
	return nil
}

func readDot(r io.Reader) (Dot, error) {
	var d Dot
	fields := []*float32{&d.X, &d.Y, &d.Speed, &d.Tilt, &d.Width, &d.Pressure}
	for _, f := range fields {
		err := binary.Read(r, endianess, f)
		if err != nil {
			return d, err
		}
	}
	return d, nil
}
