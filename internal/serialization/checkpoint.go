package serialization

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// WriteCheckpoint writes a checkpoint whose payload is produced by body.
//
// The payload is buffered so its checksum can precede it in the stream.
// CreatedAt and FormatVersion are filled in when zero.
func WriteCheckpoint(w io.Writer, header Header, body func(*Encoder) error) error {
	var payload bytes.Buffer
	if err := body(NewEncoder(&payload)); err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	if header.FormatVersion == 0 {
		header.FormatVersion = FormatVersion
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	if _, err := io.WriteString(w, MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	sum := ComputeChecksum(payload.Bytes())
	if _, err := w.Write(sum[:]); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(payload.Len())); err != nil {
		return fmt.Errorf("failed to write payload size: %w", err)
	}
	if _, err := payload.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// ReadCheckpoint reads a checkpoint, verifies its checksum and hands the
// payload to body.
func ReadCheckpoint(r io.Reader, body func(Header, *Decoder) error) (Header, error) {
	var header Header

	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return header, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return header, ErrInvalidMagic
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return header, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return header, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return header, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return header, ErrHeaderTooLarge
	}
	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return header, fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return header, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	var stored [ChecksumSize]byte
	if _, err := io.ReadFull(r, stored[:]); err != nil {
		return header, fmt.Errorf("failed to read checksum: %w", err)
	}
	var payloadSize uint64
	if err := binary.Read(r, binary.LittleEndian, &payloadSize); err != nil {
		return header, fmt.Errorf("failed to read payload size: %w", err)
	}
	if payloadSize > MaxPayloadSize {
		return header, ErrPayloadTooLarge
	}
	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return header, fmt.Errorf("failed to read payload: %w", err)
	}
	if ComputeChecksum(payload) != stored {
		return header, ErrChecksumMismatch
	}

	if err := body(header, NewDecoder(bytes.NewReader(payload))); err != nil {
		return header, fmt.Errorf("failed to decode payload: %w", err)
	}
	return header, nil
}

// WriteFile writes a checkpoint to path, replacing any existing file.
func WriteFile(path string, header Header, body func(*Encoder) error) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	bw := bufio.NewWriter(file)
	if err := WriteCheckpoint(bw, header, body); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// ReadFile reads a checkpoint from path.
func ReadFile(path string, body func(Header, *Decoder) error) (Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	file, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadCheckpoint(bufio.NewReader(file), body)
}
