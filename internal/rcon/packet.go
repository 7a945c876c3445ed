package rcon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Source RCON packet types.
const (
	typeAuth          int32 = 3
	typeExecCommand   int32 = 2
	typeResponseValue int32 = 0
)

// maxPacketSize bounds the remainder field; the protocol caps single
// packets at 4096 bytes.
const maxPacketSize = 4096

// packet is one Source RCON frame. All integers are little-endian.
// Size covers the remainder: id + type + body + null + padding.
type packet struct {
	Size      int32
	RequestID int32
	Type      int32
	Body      string
}

func encodePacket(p *packet) ([]byte, error) {
	body := []byte(p.Body)
	remainder := 4 + 4 + len(body) + 1 + 1
	if remainder > maxPacketSize {
		return nil, fmt.Errorf("rcon: packet body too large (%d bytes)", len(body))
	}

	buf := make([]byte, 0, 4+remainder)
	var enc [4]byte

	binary.LittleEndian.PutUint32(enc[:], uint32(remainder))
	buf = append(buf, enc[:]...)
	binary.LittleEndian.PutUint32(enc[:], uint32(p.RequestID))
	buf = append(buf, enc[:]...)
	binary.LittleEndian.PutUint32(enc[:], uint32(p.Type))
	buf = append(buf, enc[:]...)
	buf = append(buf, body...)
	buf = append(buf, 0, 0)

	return buf, nil
}

func decodePacket(data []byte) (*packet, error) {
	if len(data) < 13 {
		return nil, fmt.Errorf("rcon: packet too short (%d bytes)", len(data))
	}

	p := &packet{
		Size:      int32(binary.LittleEndian.Uint32(data[0:4])),
		RequestID: int32(binary.LittleEndian.Uint32(data[4:8])),
		Type:      int32(binary.LittleEndian.Uint32(data[8:12])),
	}

	end := bytes.IndexByte(data[12:], 0)
	if end == -1 {
		return nil, fmt.Errorf("rcon: packet body not null-terminated")
	}
	p.Body = string(data[12 : 12+end])
	return p, nil
}

// readPacket reads exactly one frame: the 4-byte size, then the
// remainder.
func readPacket(r io.Reader) (*packet, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, err
	}

	size := int32(binary.LittleEndian.Uint32(sizeBuf[:]))
	if size < 10 || size > maxPacketSize {
		return nil, fmt.Errorf("rcon: invalid packet size %d", size)
	}

	remainder := make([]byte, size)
	if _, err := io.ReadFull(r, remainder); err != nil {
		return nil, err
	}

	return decodePacket(append(sizeBuf[:], remainder...))
}
