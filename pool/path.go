// Package pool provides sync.Pool wrappers for rendering diagnostics.
package pool

import (
	"strconv"
	"sync"
)

// SegmentSeparator joins breadcrumb segments, innermost first.
const SegmentSeparator = " of "

// PathBuilder builds breadcrumb strings such as
// "item 2 of value of key 'a'" in a reusable byte buffer.
type PathBuilder struct {
	buf []byte
}

// pathBuilderPool holds reusable PathBuilder instances.
var pathBuilderPool = sync.Pool{
	New: func() any {
		return &PathBuilder{
			buf: make([]byte, 0, 256),
		}
	},
}

// AcquirePathBuilder gets a PathBuilder from the pool.
// Call Release() when done to return it to the pool.
func AcquirePathBuilder() *PathBuilder {
	pb := pathBuilderPool.Get().(*PathBuilder)
	pb.Reset()
	return pb
}

// Release returns the PathBuilder to the pool.
func (b *PathBuilder) Release() {
	if b == nil {
		return
	}
	// Don't return oversized buffers to the pool
	if cap(b.buf) <= 4096 {
		pathBuilderPool.Put(b)
	}
}

// Reset clears the buffer without deallocating.
func (b *PathBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the current length of the path.
func (b *PathBuilder) Len() int {
	return len(b.buf)
}

// WriteString appends a string verbatim.
func (b *PathBuilder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// AppendSegment appends a segment, separated by " of " if the buffer is not empty.
func (b *PathBuilder) AppendSegment(segment string) {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, SegmentSeparator...)
	}
	b.buf = append(b.buf, segment...)
}

// AppendItem appends an "item <n>" segment.
func (b *PathBuilder) AppendItem(index int) {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, SegmentSeparator...)
	}
	b.buf = append(b.buf, "item "...)
	b.buf = strconv.AppendInt(b.buf, int64(index), 10)
}

// String returns the built path as a string.
func (b *PathBuilder) String() string {
	return string(b.buf)
}

// JoinSegments joins segments with " of ".
func JoinSegments(segments []string) string {
	switch len(segments) {
	case 0:
		return ""
	case 1:
		return segments[0]
	}

	pb := AcquirePathBuilder()
	defer pb.Release()
	for _, s := range segments {
		pb.AppendSegment(s)
	}
	return pb.String()
}

// Render returns the segments followed by message, or message alone when
// there are no segments.
func Render(segments []string, message string) string {
	if len(segments) == 0 {
		return message
	}

	pb := AcquirePathBuilder()
	defer pb.Release()
	for _, s := range segments {
		pb.AppendSegment(s)
	}
	pb.WriteString(" ")
	pb.WriteString(message)
	return pb.String()
}

// Item returns the "item <n>" segment for a positional element.
func Item(index int) string {
	return "item " + strconv.Itoa(index)
}
