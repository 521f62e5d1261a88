// Package wire implements the OneBot JSON wire codec: message segments,
// message arrays, and the outbound/inbound frame envelopes exchanged with
// the gateway.
package wire

// SegmentType identifies which variant of the message-segment tagged union
// a Segment carries.
type SegmentType string

const (
	SegText      SegmentType = "text"
	SegFace      SegmentType = "face"
	SegImage     SegmentType = "image"
	SegRecord    SegmentType = "record"
	SegVideo     SegmentType = "video"
	SegFile      SegmentType = "file"
	SegAt        SegmentType = "at"
	SegReply     SegmentType = "reply"
	SegForward   SegmentType = "forward"
	SegNode      SegmentType = "node"
	SegShare     SegmentType = "share"
	SegLocation  SegmentType = "location"
	SegMusic     SegmentType = "music"
	SegJSON      SegmentType = "json"
	SegMarkdown  SegmentType = "markdown"
	SegDice      SegmentType = "dice"
	SegRPS       SegmentType = "rps"
	SegPoke      SegmentType = "poke"
	SegAnonymous SegmentType = "anonymous"
	SegContact   SegmentType = "contact"
	SegXML       SegmentType = "xml"
)

// AtAll is the literal value at.qq carries to mean "mention everyone",
// as opposed to a numeric (string-normalized) user id.
const AtAll = "all"

// Segment is one element of a message array. It round-trips to
// {"type": Type, "data": Data}. Data retains every field the gateway sent,
// known or not, so decode(encode(s)) == s even for fields this package does
// not interpret. Known fields are reached through the typed accessors below
// rather than by indexing Data directly.
type Segment struct {
	Type SegmentType    `json:"type"`
	Data map[string]any `json:"data"`
}

func (s Segment) get(key string) (any, bool) {
	if s.Data == nil {
		return nil, false
	}
	v, ok := s.Data[key]
	return v, ok
}

func (s Segment) str(key string) string {
	if v, ok := s.get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func withData(typ SegmentType, data map[string]any) Segment {
	return Segment{Type: typ, Data: data}
}

// NewText builds a text segment.
func NewText(text string) Segment {
	return withData(SegText, map[string]any{"text": text})
}

// Text returns the text segment's content, or "" if s is not a text segment.
func (s Segment) Text() string {
	if s.Type != SegText {
		return ""
	}
	return s.str("text")
}

// NewFace builds a face (sticker) segment by numeric id.
func NewFace(id string) Segment {
	return withData(SegFace, map[string]any{"id": id})
}

// NewImage builds an image segment referencing a file (path, URL, or base64 payload).
func NewImage(file string) Segment {
	return withData(SegImage, map[string]any{"file": file})
}

// NewRecord builds a voice-record segment.
func NewRecord(file string) Segment {
	return withData(SegRecord, map[string]any{"file": file})
}

// NewVideo builds a video segment.
func NewVideo(file string) Segment {
	return withData(SegVideo, map[string]any{"file": file})
}

// NewFile builds a file segment.
func NewFile(file string) Segment {
	return withData(SegFile, map[string]any{"file": file})
}

// File returns the file/record/video/image segment's file reference.
func (s Segment) File() string { return s.str("file") }

// NewAt builds an at-mention segment. qq is either a string user id or AtAll.
func NewAt(qq string) Segment {
	return withData(SegAt, map[string]any{"qq": qq})
}

// At returns the mentioned user id, or AtAll.
func (s Segment) At() string { return s.str("qq") }

// NewReply builds a reply segment referencing a message id.
func NewReply(messageID string) Segment {
	return withData(SegReply, map[string]any{"id": messageID})
}

// ReplyID returns the referenced message id.
func (s Segment) ReplyID() string { return s.str("id") }

// NewForwardRef builds a forward segment that references a remote forward id
// without inlining its content.
func NewForwardRef(id string) Segment {
	return withData(SegForward, map[string]any{"id": id})
}

// NewForwardInline builds a forward segment carrying an inline list of node
// segments.
func NewForwardInline(nodes []Segment) Segment {
	return withData(SegForward, map[string]any{"content": nodesToAny(nodes)})
}

// ForwardID returns the remote forward id and true if this forward segment
// is a bare reference rather than an inline node list.
func (s Segment) ForwardID() (string, bool) {
	if s.Type != SegForward {
		return "", false
	}
	if _, hasContent := s.get("content"); hasContent {
		return "", false
	}
	id, ok := s.get("id")
	if !ok {
		return "", false
	}
	str, ok := id.(string)
	return str, ok
}

// ForwardNodes returns the inline node list and true if this forward segment
// carries inline content rather than a bare remote reference.
func (s Segment) ForwardNodes() ([]Segment, bool) {
	if s.Type != SegForward {
		return nil, false
	}
	raw, ok := s.get("content")
	if !ok {
		return nil, false
	}
	return anyToSegments(raw), true
}

// NewNode builds a forward node segment wrapping a sender and message array.
func NewNode(userID, nickname string, content MessageArray) Segment {
	return withData(SegNode, map[string]any{
		"user_id":  userID,
		"nickname": nickname,
		"content":  segmentsToAny(content),
	})
}

// NodeContent returns the node's wrapped message array.
func (s Segment) NodeContent() MessageArray {
	raw, ok := s.get("content")
	if !ok {
		return nil
	}
	return anyToSegments(raw)
}

// NewDice builds a dice-roll segment.
func NewDice() Segment { return withData(SegDice, map[string]any{}) }

// NewRPS builds a rock-paper-scissors segment.
func NewRPS() Segment { return withData(SegRPS, map[string]any{}) }

// NewPoke builds a poke segment.
func NewPoke(pokeType, id string) Segment {
	return withData(SegPoke, map[string]any{"type": pokeType, "id": id})
}

// NewShare builds a link-share segment.
func NewShare(url, title string) Segment {
	return withData(SegShare, map[string]any{"url": url, "title": title})
}

// NewLocation builds a location segment.
func NewLocation(lat, lon float64) Segment {
	return withData(SegLocation, map[string]any{"lat": lat, "lon": lon})
}

// NewMusic builds a music-share segment.
func NewMusic(platform, id string) Segment {
	return withData(SegMusic, map[string]any{"type": platform, "id": id})
}

// NewJSON builds a raw JSON-card segment.
func NewJSON(data string) Segment {
	return withData(SegJSON, map[string]any{"data": data})
}

// NewMarkdown builds a markdown segment (napcat extension).
func NewMarkdown(content string) Segment {
	return withData(SegMarkdown, map[string]any{"content": content})
}

// NewXML builds a raw XML-card segment.
func NewXML(data string) Segment {
	return withData(SegXML, map[string]any{"data": data})
}

// NewAnonymous builds an anonymous-sender marker segment.
func NewAnonymous() Segment { return withData(SegAnonymous, map[string]any{}) }

// NewContact builds a contact-card segment.
func NewContact(contactType, id string) Segment {
	return withData(SegContact, map[string]any{"type": contactType, "id": id})
}

func segmentsToAny(segs []Segment) []any {
	out := make([]any, len(segs))
	for i, s := range segs {
		out[i] = map[string]any{"type": string(s.Type), "data": s.Data}
	}
	return out
}

func nodesToAny(nodes []Segment) []any { return segmentsToAny(nodes) }

func anyToSegments(raw any) []Segment {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Segment, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := m["type"].(string)
		data, _ := m["data"].(map[string]any)
		out = append(out, Segment{Type: SegmentType(typ), Data: data})
	}
	return out
}
