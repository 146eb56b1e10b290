package pongengine

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FrameSize is the fixed length of the binary state frame: four
// float32s and two uint32s in network byte order, matching
// binproto.BinaryProtocol's struct.pack('!ffffII', ...).
const FrameSize = 4*4 + 4*2

// EncodeFrame packs a Snapshot into the 24-byte wire format.
func EncodeFrame(s Snapshot) []byte {
	buf := make([]byte, FrameSize)
	binary.BigEndian.PutUint32(buf[0:4], math.Float32bits(s.BallX))
	binary.BigEndian.PutUint32(buf[4:8], math.Float32bits(s.BallY))
	binary.BigEndian.PutUint32(buf[8:12], math.Float32bits(s.Paddle1Y))
	binary.BigEndian.PutUint32(buf[12:16], math.Float32bits(s.Paddle2Y))
	binary.BigEndian.PutUint32(buf[16:20], s.Score1)
	binary.BigEndian.PutUint32(buf[20:24], s.Score2)
	return buf
}

// DecodeFrame unpacks a 24-byte wire frame back into a Snapshot.
func DecodeFrame(buf []byte) (Snapshot, error) {
	if len(buf) != FrameSize {
		return Snapshot{}, fmt.Errorf("pongengine: frame must be %d bytes, got %d", FrameSize, len(buf))
	}
	return Snapshot{
		BallX:    math.Float32frombits(binary.BigEndian.Uint32(buf[0:4])),
		BallY:    math.Float32frombits(binary.BigEndian.Uint32(buf[4:8])),
		Paddle1Y: math.Float32frombits(binary.BigEndian.Uint32(buf[8:12])),
		Paddle2Y: math.Float32frombits(binary.BigEndian.Uint32(buf[12:16])),
		Score1:   binary.BigEndian.Uint32(buf[16:20]),
		Score2:   binary.BigEndian.Uint32(buf[20:24]),
	}, nil
}
