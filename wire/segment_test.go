package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextSegmentRoundTrips(t *testing.T) {
	s := NewText("hello")
	assert.Equal(t, SegText, s.Type)
	assert.Equal(t, "hello", s.Text())
}

func TestNewAtSegment(t *testing.T) {
	s := NewAt(AtAll)
	assert.Equal(t, AtAll, s.At())
}

func TestForwardRefVsInline(t *testing.T) {
	ref := NewForwardRef("abc123")
	id, isRef := ref.ForwardID()
	assert.True(t, isRef)
	assert.Equal(t, "abc123", id)

	inline := NewForwardInline([]Segment{NewText("hi")})
	_, isRef = inline.ForwardID()
	assert.False(t, isRef)
	nodes, ok := inline.ForwardNodes()
	assert.True(t, ok)
	require.Len(t, nodes, 1)
}

func TestNodeContentRoundTrips(t *testing.T) {
	node := NewNode("123", "alice", MessageArray{NewText("hi")})
	content := node.NodeContent()
	require.Len(t, content, 1)
	assert.Equal(t, "hi", content[0].Text())
}

func TestFuseTextMergesAdjacentTextSegments(t *testing.T) {
	in := MessageArray{NewText("foo"), NewText("bar"), NewAt("1"), NewText("baz")}
	out := FuseText(in)
	require.Len(t, out, 3)
	assert.Equal(t, "foobar", out[0].Text())
	assert.Equal(t, SegAt, out[1].Type)
	assert.Equal(t, "baz", out[2].Text())
}

func TestRawTextConcatenatesTextSegments(t *testing.T) {
	m := MessageArray{NewText("a"), NewAt("1"), NewText("b")}
	assert.Equal(t, "ab", m.RawText())
}

func TestFirstTextReturnsFirstTextSegment(t *testing.T) {
	m := MessageArray{NewAt("1"), NewText("hi")}
	assert.Equal(t, "hi", m.FirstText())
}

func TestFirstTextEmptyWhenNoneExists(t *testing.T) {
	m := MessageArray{NewAt("1")}
	assert.Equal(t, "", m.FirstText())
}
