// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pcache persists driver pipeline cache blobs between runs.
// A file starts with a magic, followed by the size of a gob encoded
// header and the header itself, then the lz4 compressed blob. The header
// is stamped with the device the blob came from; drivers reject blobs of
// other devices anyway, so they are discarded before reaching them.
package pcache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a pipeline cache file")
	ErrStale      = errors.New("pipeline cache was written by another device or driver")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16
)

var magic = [MagicLength]byte{'K', 'P', 'C', '\x00'}

// Header identifies the device a blob was produced on.
type Header struct {
	VendorID      uint32
	DeviceID      uint32
	DriverVersion uint32
	CacheUUID     [16]byte

	// Size of the uncompressed blob.
	Size    int64
	Created int64
}

// Matches reports whether a blob stamped with h can be fed to the
// device described by other.
func (h Header) Matches(other Header) bool {
	return h.VendorID == other.VendorID &&
		h.DeviceID == other.DeviceID &&
		h.DriverVersion == other.DriverVersion &&
		h.CacheUUID == other.CacheUUID
}

// Write writes data stamped with h to w.
func Write(w io.Writer, h Header, data []byte) error {
	h.Size = int64(len(data))
	if h.Created == 0 {
		h.Created = time.Now().Unix()
	}

	var rawHeader bytes.Buffer
	if err := gob.NewEncoder(&rawHeader).Encode(h); err != nil {
		return err
	}
	headerSize := make([]byte, HeaderSizeNumberLength)
	binary.PutVarint(headerSize, int64(rawHeader.Len()))

	for _, part := range [][]byte{magic[:], headerSize, rawHeader.Bytes()} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}

	zw := lz4.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

// ReadHeader reads the header of the file in r and returns it with the
// offset of the compressed blob.
func ReadHeader(r io.ReaderAt) (Header, int64, error) {
	var got [MagicLength]byte
	if n, err := r.ReadAt(got[:], 0); n < MagicLength {
		if err == nil || err == io.EOF {
			err = ErrFileFormat
		}
		return Header{}, 0, err
	}
	if got != magic {
		return Header{}, 0, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if n, _ := r.ReadAt(headerSizeBytes, MagicLength); n < HeaderSizeNumberLength {
		return Header{}, 0, ErrFileFormat
	}
	headerSize, err := binary.ReadVarint(bytes.NewReader(headerSizeBytes))
	if err != nil || headerSize <= 0 {
		return Header{}, 0, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if n, _ := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); int64(n) < headerSize {
		return Header{}, 0, ErrFileFormat
	}
	var h Header
	if err := gob.NewDecoder(bytes.NewReader(headerBytes)).Decode(&h); err != nil {
		return Header{}, 0, fmt.Errorf("%w: %s", ErrFileFormat, err)
	}
	return h, MagicLength + HeaderSizeNumberLength + headerSize, nil
}

// Read returns the blob stored in r of size bytes. ErrStale is returned
// when the blob does not belong to the device described by want.
func Read(r io.ReaderAt, size int64, want Header) ([]byte, error) {
	h, offset, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if !h.Matches(want) {
		return nil, ErrStale
	}

	data := make([]byte, h.Size)
	zr := lz4.NewReader(io.NewSectionReader(r, offset, size-offset))
	if _, err := io.ReadFull(zr, data); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileFormat, err)
	}
	return data, nil
}

// Load reads the blob stored at path through a memory mapping.
func Load(path string, want Header) ([]byte, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Read(r, int64(r.Len()), want)
}

// Save atomically replaces the file at path with data stamped with h.
func Save(path string, h Header, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if err := Write(f, h, data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
