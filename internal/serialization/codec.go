package serialization

import (
	"encoding/binary"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// Encoder writes primitive values to a stream in little-endian order.
//
// Values carry no names: readers must decode them in the order they were
// written.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteInt writes v as a signed 64-bit integer.
func (e *Encoder) WriteInt(v int) error {
	if err := binary.Write(e.w, binary.LittleEndian, int64(v)); err != nil {
		return fmt.Errorf("failed to write int: %w", err)
	}
	return nil
}

// WriteFloat64 writes a single double.
func (e *Encoder) WriteFloat64(v float64) error {
	if err := binary.Write(e.w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("failed to write float64: %w", err)
	}
	return nil
}

// WriteFloat64s writes a length-prefixed list of doubles.
func (e *Encoder) WriteFloat64s(vs []float64) error {
	if err := e.WriteInt(len(vs)); err != nil {
		return err
	}
	if len(vs) == 0 {
		return nil
	}
	if err := binary.Write(e.w, binary.LittleEndian, vs); err != nil {
		return fmt.Errorf("failed to write float64s: %w", err)
	}
	return nil
}

// WriteString writes a length-prefixed UTF-8 string.
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteInt(len(s)); err != nil {
		return err
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		return fmt.Errorf("failed to write string: %w", err)
	}
	return nil
}

// WriteVector writes an optional vector. A nil vector is written as absent.
func (e *Encoder) WriteVector(v *mat.VecDense) error {
	if v == nil {
		return e.writeTag(TagAbsent)
	}
	if err := e.writeTag(TagVector); err != nil {
		return err
	}
	if _, err := v.MarshalBinaryTo(e.w); err != nil {
		return fmt.Errorf("failed to write vector: %w", err)
	}
	return nil
}

// WriteMatrix writes an optional matrix. A nil matrix is written as absent.
func (e *Encoder) WriteMatrix(m *mat.Dense) error {
	if m == nil {
		return e.writeTag(TagAbsent)
	}
	if err := e.writeTag(TagMatrix); err != nil {
		return err
	}
	if _, err := m.MarshalBinaryTo(e.w); err != nil {
		return fmt.Errorf("failed to write matrix: %w", err)
	}
	return nil
}

func (e *Encoder) writeTag(tag byte) error {
	if _, err := e.w.Write([]byte{tag}); err != nil {
		return fmt.Errorf("failed to write %s tag: %w", tagName(tag), err)
	}
	return nil
}

// Decoder reads values written by an Encoder.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadInt reads a signed 64-bit integer.
func (d *Decoder) ReadInt() (int, error) {
	var v int64
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("failed to read int: %w", err)
	}
	return int(v), nil
}

// ReadFloat64 reads a single double.
func (d *Decoder) ReadFloat64() (float64, error) {
	var v float64
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("failed to read float64: %w", err)
	}
	return v, nil
}

// ReadFloat64s reads a length-prefixed list of doubles.
func (d *Decoder) ReadFloat64s() ([]float64, error) {
	n, err := d.readLength("float64s")
	if err != nil {
		return nil, err
	}
	vs := make([]float64, n)
	if n == 0 {
		return vs, nil
	}
	if err := binary.Read(d.r, binary.LittleEndian, vs); err != nil {
		return nil, fmt.Errorf("failed to read float64s: %w", err)
	}
	return vs, nil
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.readLength("string")
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", fmt.Errorf("failed to read string: %w", err)
	}
	return string(buf), nil
}

// ReadVector reads an optional vector. It returns nil when the value was
// written as absent.
func (d *Decoder) ReadVector() (*mat.VecDense, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagAbsent:
		return nil, nil
	case TagVector:
	default:
		return nil, &FormatError{Field: "vector", Details: "found " + tagName(tag), Err: ErrUnexpectedTag}
	}

	v := new(mat.VecDense)
	if _, err := v.UnmarshalBinaryFrom(d.r); err != nil {
		return nil, fmt.Errorf("failed to read vector: %w", err)
	}
	return v, nil
}

// ReadMatrix reads an optional matrix. It returns nil when the value was
// written as absent.
func (d *Decoder) ReadMatrix() (*mat.Dense, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagAbsent:
		return nil, nil
	case TagMatrix:
	default:
		return nil, &FormatError{Field: "matrix", Details: "found " + tagName(tag), Err: ErrUnexpectedTag}
	}

	m := new(mat.Dense)
	if _, err := m.UnmarshalBinaryFrom(d.r); err != nil {
		return nil, fmt.Errorf("failed to read matrix: %w", err)
	}
	return m, nil
}

func (d *Decoder) readTag() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read value tag: %w", err)
	}
	return buf[0], nil
}

func (d *Decoder) readLength(field string) (int, error) {
	n, err := d.ReadInt()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > MaxSliceLength {
		return 0, &FormatError{Field: field, Details: fmt.Sprintf("length %d", n), Err: ErrLengthOutOfRange}
	}
	return n, nil
}
