package avc

// Splitter cuts a continuous Annex B stream into access units.
// Each access unit must begin with an access unit delimiter, which
// x264 emits when built with aud=1.
type Splitter struct {
	buf  []byte
	scan int // resume position for the next delimiter search
}

// Write appends stream bytes and returns every access unit completed by them.
// Returned slices are owned by the caller.
func (s *Splitter) Write(p []byte) [][]byte {
	s.buf = append(s.buf, p...)

	var aus [][]byte
	for {
		i := nextDelimiter(s.buf, max(s.scan, 2))
		if i < 0 {
			// A start code plus type byte may straddle the next write.
			s.scan = max(len(s.buf)-3, 2)
			return aus
		}
		aus = append(aus, append([]byte(nil), s.buf[:i]...))
		s.buf = s.buf[i:]
		s.scan = 0
	}
}

// Flush returns the trailing access unit, if any, and resets the splitter.
func (s *Splitter) Flush() []byte {
	if len(s.buf) == 0 {
		return nil
	}
	au := append([]byte(nil), s.buf...)
	s.buf = s.buf[:0]
	s.scan = 0
	return au
}

// nextDelimiter returns the offset of the first start code at or after
// from that introduces an AUD, including a leading zero byte of a 4-byte
// start code, or -1.
func nextDelimiter(buf []byte, from int) int {
	for i := from; i+3 < len(buf); i++ {
		if buf[i] != 0 || buf[i+1] != 0 || buf[i+2] != 1 {
			continue
		}
		if int(buf[i+3]&0x1F) != NALUTypeAUD {
			continue
		}
		if i > 0 && buf[i-1] == 0 {
			return i - 1
		}
		return i
	}
	return -1
}
