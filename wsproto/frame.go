// Package wsproto implements RFC 6455 WebSocket framing, the upgrade
// handshake, and message-level read/write over an established stream.
package wsproto

import (
	"encoding/binary"
	"io"

	"github.com/corehttpd/webkit/errs"
)

// OpCode identifies the kind of a Frame's payload.
type OpCode byte

const (
	OpContinuation OpCode = 0x0
	OpText         OpCode = 0x1
	OpBinary       OpCode = 0x2
	OpClose        OpCode = 0x8
	OpPing         OpCode = 0x9
	OpPong         OpCode = 0xA
)

func opcodeFromByte(b byte) (OpCode, error) {
	switch OpCode(b) {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return OpCode(b), nil
	default:
		return 0, errs.New(errs.InvalidOpCode, "reserved WebSocket opcode")
	}
}

// Frame is a single RFC 6455 WebSocket frame, post-unmasking on
// decode.
type Frame struct {
	Fin     bool
	Opcode  OpCode
	Payload []byte
}

// DecodeFrame reads exactly one frame from r.
func DecodeFrame(r io.Reader) (*Frame, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, readErr(err)
	}

	fin := hdr[0]&0x80 != 0
	opcode, err := opcodeFromByte(hdr[0] & 0x0F)
	if err != nil {
		return nil, err
	}
	masked := hdr[1]&0x80 != 0
	length := uint64(hdr[1] & 0x7F)

	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, readErr(err)
		}
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, readErr(err)
		}
		length = binary.BigEndian.Uint64(ext[:])
	}

	if length > (1 << 32) {
		return nil, errs.New(errs.IOError, "frame payload exceeds implementation limit")
	}

	var maskKey [4]byte
	if masked {
		if _, err := io.ReadFull(r, maskKey[:]); err != nil {
			return nil, readErr(err)
		}
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, readErr(err)
		}
	}
	if masked {
		unmask(payload, maskKey)
	}

	return &Frame{Fin: fin, Opcode: opcode, Payload: payload}, nil
}

// EncodeFrame serializes a single frame (always FIN=true, unmasked:
// server-to-client frames are never masked) choosing
// the smallest sufficient length encoding.
func EncodeFrame(opcode OpCode, payload []byte) []byte {
	var first byte = 0x80 | byte(opcode)
	length := len(payload)

	var out []byte
	switch {
	case length <= 125:
		out = make([]byte, 0, 2+length)
		out = append(out, first, byte(length))
	case length <= 0xFFFF:
		out = make([]byte, 0, 4+length)
		ext := make([]byte, 2)
		binary.BigEndian.PutUint16(ext, uint16(length))
		out = append(out, first, 126)
		out = append(out, ext...)
	default:
		out = make([]byte, 0, 10+length)
		ext := make([]byte, 8)
		binary.BigEndian.PutUint64(ext, uint64(length))
		out = append(out, first, 127)
		out = append(out, ext...)
	}
	out = append(out, payload...)
	return out
}

func unmask(buf []byte, key [4]byte) {
	for i := range buf {
		buf[i] ^= key[i%4]
	}
}

func readErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errs.New(errs.ConnectionClosed, "connection closed by peer")
	}
	return errs.Wrap(errs.IOError, "frame read failed", err)
}
