package fmindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Magic bytes identifying a serialized index.
var Magic = [4]byte{'F', 'M', 'D', 0x00}

// Supported serialization versions.
const (
	Version1 uint8 = 1

	CurrentVersion = Version1
)

const flagMirror uint8 = 1 << 0

// Save writes the index to w: a fixed header followed by two
// zstd-compressed sections (text codes, suffix array). Derived structures
// (BWT, occurrence counts, ftab) are rebuilt on load.
func (x *Index) Save(w io.Writer) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	defer enc.Close()

	textZ := enc.EncodeAll(x.text, nil)
	saRaw := make([]byte, 4*len(x.sa))
	for i, v := range x.sa {
		binary.LittleEndian.PutUint32(saRaw[4*i:], uint32(v))
	}
	saZ := enc.EncodeAll(saRaw, nil)

	var flags uint8
	if x.mirror {
		flags |= flagMirror
	}
	hdr := make([]byte, 20)
	copy(hdr[0:4], Magic[:])
	hdr[4] = CurrentVersion
	hdr[5] = flags
	hdr[6] = uint8(x.ftabChars)
	hdr[7] = 0
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(x.n))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(textZ)))
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(saZ)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if _, err := w.Write(textZ); err != nil {
		return err
	}
	_, err = w.Write(saZ)
	return err
}

// Load reads an index previously written by Save.
func Load(r io.Reader) (*Index, error) {
	hdr := make([]byte, 20)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	if [4]byte(hdr[0:4]) != Magic {
		return nil, errors.New("invalid magic bytes: not an FMD index")
	}
	if hdr[4] != Version1 {
		return nil, fmt.Errorf("unsupported index version %d", hdr[4])
	}
	x := &Index{
		mirror:    hdr[5]&flagMirror != 0,
		ftabChars: int(hdr[6]),
		n:         int(binary.LittleEndian.Uint32(hdr[8:12])),
	}
	textLen := binary.LittleEndian.Uint32(hdr[12:16])
	saLen := binary.LittleEndian.Uint32(hdr[16:20])

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	defer dec.Close()

	textZ := make([]byte, textLen)
	if _, err := io.ReadFull(r, textZ); err != nil {
		return nil, err
	}
	saZ := make([]byte, saLen)
	if _, err := io.ReadFull(r, saZ); err != nil {
		return nil, err
	}
	if x.text, err = dec.DecodeAll(textZ, nil); err != nil {
		return nil, fmt.Errorf("loading index text: %w", err)
	}
	saRaw, err := dec.DecodeAll(saZ, nil)
	if err != nil {
		return nil, fmt.Errorf("loading index suffix array: %w", err)
	}
	if len(x.text) != x.n || len(saRaw) != 4*x.n {
		return nil, errors.New("index section sizes disagree with header")
	}
	x.sa = make([]int32, x.n)
	for i := range x.sa {
		x.sa[i] = int32(binary.LittleEndian.Uint32(saRaw[4*i:]))
	}
	x.derive()
	return x, nil
}
