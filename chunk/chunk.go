// Package chunk frames and unframes the length | type | body | crc32 records
// every PNG stream is made of.
package chunk

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"simplepng/oops"
	"simplepng/utils"
)

// Signature is the magic number every PNG stream starts with.
const Signature = "\x89PNG\r\n\x1a\n"

const (
	TypeIHDR = "IHDR"
	TypePLTE = "PLTE"
	TypeIDAT = "IDAT"
	TypeIEND = "IEND"
)

// maxLength is the largest body length the PNG format allows.
const maxLength = 0x7fffffff

var (
	ErrTruncated = errors.New("truncated chunk")
	ErrChecksum  = errors.New("invalid checksum")
	ErrLength    = errors.New("bad chunk length")
)

type Chunk struct {
	Type string
	Data []byte
	CRC  uint32
}

// Critical reports whether the chunk must be understood by a decoder, which
// PNG encodes as an upper-case first letter of the type code.
func (c *Chunk) Critical() bool {
	return len(c.Type) == 4 && c.Type[0] >= 'A' && c.Type[0] <= 'Z'
}

// Checksum computes the CRC-32 the chunk's trailer should hold.
func (c *Chunk) Checksum() uint32 {
	return Checksum(c.Type, c.Data)
}

func Checksum(typ string, data []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return crc.Sum32()
}

// Read reads one chunk from r. A short read anywhere in the record yields an
// error wrapping ErrTruncated. The CRC is stored but not checked; see Verify.
func Read(r io.Reader) (*Chunk, error) {
	var header [8]byte
	if err := readFull(r, header[:], "header"); err != nil {
		return nil, err
	}
	length := utils.BytesToLength(header[:4])
	typ := string(header[4:8])
	if length > maxLength {
		return nil, fmt.Errorf("%w: %s chunk claims %d bytes", ErrLength, printableType(typ), length)
	}

	data, err := readBody(r, length)
	if err != nil {
		return nil, fmt.Errorf("%s chunk: %w", printableType(typ), err)
	}

	var trailer [4]byte
	if err := readFull(r, trailer[:], "crc"); err != nil {
		return nil, fmt.Errorf("%s chunk: %w", printableType(typ), err)
	}

	return &Chunk{
		Type: typ,
		Data: data,
		CRC:  utils.BytesToLength(trailer[:]),
	}, nil
}

// Verify checks the stored CRC against one computed over type and body.
func (c *Chunk) Verify() error {
	if computed := c.Checksum(); computed != c.CRC {
		return fmt.Errorf("%w: %s chunk has %08x, computed %08x", ErrChecksum, printableType(c.Type), c.CRC, computed)
	}
	return nil
}

// Write emits length(data), typ‖data and the CRC-32 over typ‖data.
func Write(w io.Writer, typ string, data []byte) error {
	if len(typ) != 4 {
		return oops.New(nil, "chunk type must be 4 bytes, got %q", typ)
	}
	if len(data) > maxLength {
		return oops.New(ErrLength, "%s chunk body of %d bytes", typ, len(data))
	}
	buf := make([]byte, 0, 12+len(data))
	buf = utils.PutUint32(buf, uint32(len(data)))
	buf = append(buf, typ...)
	buf = append(buf, data...)
	buf = utils.PutUint32(buf, Checksum(typ, data))
	if _, err := w.Write(buf); err != nil {
		return oops.New(err, "failed to write %s chunk", typ)
	}
	return nil
}

// readBody reads length bytes without trusting length for the allocation up
// front, so a corrupt header cannot force a huge allocation.
func readBody(r io.Reader, length uint32) ([]byte, error) {
	const step = 1 << 16
	if length <= step {
		data := make([]byte, length)
		if err := readFull(r, data, "body"); err != nil {
			return nil, err
		}
		return data, nil
	}
	data := make([]byte, 0, step)
	remaining := int(length)
	for remaining > 0 {
		n := remaining
		if n > step {
			n = step
		}
		start := len(data)
		data = append(data, make([]byte, n)...)
		if err := readFull(r, data[start:], "body"); err != nil {
			return nil, err
		}
		remaining -= n
	}
	return data, nil
}

func readFull(r io.Reader, buf []byte, part string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: short %s", ErrTruncated, part)
		}
		return oops.New(err, "failed to read chunk %s", part)
	}
	return nil
}

func printableType(typ string) string {
	for i := 0; i < len(typ); i++ {
		if typ[i] < 0x20 || typ[i] > 0x7e {
			return fmt.Sprintf("%q", typ)
		}
	}
	return typ
}
