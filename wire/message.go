package wire

import "strings"

// MessageArray is an ordered sequence of message segments.
type MessageArray []Segment

// FuseText merges consecutive text segments into one, simplifying downstream
// parsing (e.g. the command lexer operates on the first text segment). All
// other segments retain their relative order. Fusion only ever merges
// adjacent text segments — it never reorders the array.
func FuseText(segs MessageArray) MessageArray {
	if len(segs) == 0 {
		return segs
	}
	out := make(MessageArray, 0, len(segs))
	for _, s := range segs {
		if s.Type == SegText && len(out) > 0 && out[len(out)-1].Type == SegText {
			last := out[len(out)-1]
			out[len(out)-1] = NewText(last.Text() + s.Text())
			continue
		}
		out = append(out, s)
	}
	return out
}

// RawText concatenates the text content of every text segment in order,
// ignoring non-text segments. The command lexer reads FirstText, not
// RawText.
func (m MessageArray) RawText() string {
	var b strings.Builder
	for _, s := range m {
		if s.Type == SegText {
			b.WriteString(s.Text())
		}
	}
	return b.String()
}

// FirstText returns the first text segment's content, or "" if none exists.
func (m MessageArray) FirstText() string {
	for _, s := range m {
		if s.Type == SegText {
			return s.Text()
		}
	}
	return ""
}

func messageArrayToAny(m MessageArray) []any { return segmentsToAny(m) }

func anyToMessageArray(raw any) MessageArray { return MessageArray(anyToSegments(raw)) }
