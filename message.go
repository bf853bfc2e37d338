package vc4

import "unsafe"

// propMessage builds and parses mailbox property messages. The wire format
// is a flat array of little-endian uint32 words:
//
//	word 0   total size in bytes
//	word 1   request code (0) on send, response code on return
//	words 2+ tag records: [tag id][value size][indicator][value words...]
//	end      terminating zero tag
//
// The firmware writes its response in place over the value words and sets
// bit 31 of each answered tag's indicator word. The backing array is
// over-allocated so the wire view starts on a 16-byte boundary, which the
// firmware requires.
type propMessage struct {
	words []uint32
	n     int
	tags  []int
}

// newPropMessage allocates a message with room for capWords wire words.
func newPropMessage(capWords int) *propMessage {
	raw := make([]uint32, capWords+propBufferAlign/4)
	off := 0
	for uintptr(unsafe.Pointer(&raw[off]))%propBufferAlign != 0 {
		off++
	}
	m := &propMessage{words: raw[off : off+capWords]}
	m.words[1] = propRequestCode
	m.n = 2
	return m
}

// addTag appends one tag record. req holds the request words; respWords is
// how many response words the firmware may write back. The value buffer is
// sized to the larger of the two. Returns the tag's index for use with
// responded and value.
func (m *propMessage) addTag(id uint32, req []uint32, respWords int) int {
	valWords := len(req)
	if respWords > valWords {
		valWords = respWords
	}
	if m.n+3+valWords+1 > len(m.words) {
		panic("vc4: property message capacity exceeded")
	}
	m.tags = append(m.tags, m.n)
	m.words[m.n] = id
	m.words[m.n+1] = uint32(valWords * 4)
	m.words[m.n+2] = uint32(len(req) * 4)
	copy(m.words[m.n+3:m.n+3+len(req)], req)
	for i := len(req); i < valWords; i++ {
		m.words[m.n+3+i] = 0
	}
	m.n += 3 + valWords
	return len(m.tags) - 1
}

// seal terminates the tag list, patches the size word and returns the wire
// buffer. The same buffer carries the firmware's in-place response.
func (m *propMessage) seal() []uint32 {
	m.words[m.n] = propTagEnd
	m.n++
	m.words[0] = uint32(m.n * 4)
	return m.words[:m.n]
}

// code returns the response code word.
func (m *propMessage) code() uint32 {
	return m.words[1]
}

// ok reports whether the firmware accepted the whole message.
func (m *propMessage) ok() bool {
	return m.words[1] == propResponseOK
}

// responded reports whether the firmware filled in the given tag.
func (m *propMessage) responded(tag int) bool {
	return m.words[m.tags[tag]+2]&propResponseBit != 0
}

// value returns the i'th response word of the given tag.
func (m *propMessage) value(tag, i int) uint32 {
	return m.words[m.tags[tag]+3+i]
}
