// Package avc handles H.264 Annex B byte streams: NAL unit parsing,
// access unit splitting and conversion to length-prefixed (AVCC) samples.
package avc

import (
	"encoding/binary"
	"errors"
)

// NAL unit types used by the encoder and muxer.
const (
	NALUTypeNonIDR = 1
	NALUTypeIDR    = 5
	NALUTypeSEI    = 6
	NALUTypeSPS    = 7
	NALUTypePPS    = 8
	NALUTypeAUD    = 9
)

var (
	// ErrNoSPS is returned when a keyframe carries no sequence parameter set.
	ErrNoSPS = errors.New("avc: SPS not found")
	// ErrNoPPS is returned when a keyframe carries no picture parameter set.
	ErrNoPPS = errors.New("avc: PPS not found")
)

// NALUType returns the nal_unit_type of a NAL unit without start code.
func NALUType(nalu []byte) int {
	if len(nalu) == 0 {
		return -1
	}
	return int(nalu[0] & 0x1F)
}

// SplitNALUs parses an Annex B byte stream into individual NAL units.
// Start codes are stripped.
func SplitNALUs(data []byte) [][]byte {
	var nalus [][]byte
	start := 0
	i := 0

	for i < len(data) {
		// Look for start code (0x00 0x00 0x01 or 0x00 0x00 0x00 0x01)
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 {
			startCodeLen := 0
			if data[i+2] == 1 {
				startCodeLen = 3
			} else if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
				startCodeLen = 4
			}

			if startCodeLen > 0 {
				if i > start {
					nalus = append(nalus, data[start:i])
				}
				i += startCodeLen
				start = i
				continue
			}
		}
		i++
	}

	if start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

// IsKeyframe reports whether an access unit contains an IDR slice.
func IsKeyframe(au []byte) bool {
	for _, nalu := range SplitNALUs(au) {
		if NALUType(nalu) == NALUTypeIDR {
			return true
		}
	}
	return false
}

// ParameterSets extracts the first SPS and PPS of an access unit.
func ParameterSets(au []byte) (sps, pps []byte, err error) {
	for _, nalu := range SplitNALUs(au) {
		switch NALUType(nalu) {
		case NALUTypeSPS:
			if sps == nil {
				sps = append([]byte(nil), nalu...)
			}
		case NALUTypePPS:
			if pps == nil {
				pps = append([]byte(nil), nalu...)
			}
		}
	}
	if sps == nil {
		return nil, nil, ErrNoSPS
	}
	if pps == nil {
		return nil, nil, ErrNoPPS
	}
	return sps, pps, nil
}

// ToAVCC converts an Annex B access unit to a sample of 4-byte
// length-prefixed NAL units. Parameter sets and delimiters are dropped
// since the sample entry carries them.
func ToAVCC(au []byte) []byte {
	nalus := SplitNALUs(au)
	size := 0
	for _, nalu := range nalus {
		size += 4 + len(nalu)
	}

	out := make([]byte, 0, size)
	for _, nalu := range nalus {
		switch NALUType(nalu) {
		case NALUTypeSPS, NALUTypePPS, NALUTypeAUD:
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(len(nalu)))
		out = append(out, nalu...)
	}
	return out
}
