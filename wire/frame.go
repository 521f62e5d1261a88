package wire

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/ncatbot/core/errors"
)

// OutboundRequest is the frame written to the gateway for send(action, params).
type OutboundRequest struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo"`
}

// NewRequest builds an OutboundRequest with a fresh, effectively-collision-free
// echo id. A leading "/" on action is stripped, matching gateway convention.
func NewRequest(action string, params any) OutboundRequest {
	if len(action) > 0 && action[0] == '/' {
		action = action[1:]
	}
	return OutboundRequest{
		Action: action,
		Params: params,
		Echo:   uuid.NewString(),
	}
}

// ResponseFrame is a gateway reply to a prior OutboundRequest, correlated by Echo.
type ResponseFrame struct {
	Status  string          `json:"status"`
	RetCode int             `json:"retcode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Echo    string          `json:"echo"`
}

// Err converts a non-zero retcode into a structured API error. Returns nil
// when RetCode == 0.
func (r *ResponseFrame) Err() error {
	if r.RetCode == 0 {
		return nil
	}
	return errors.NewAPIError(r.RetCode, r.Message)
}

// classifier is the minimal shape needed to tell a response frame from an
// event frame without committing to either decode path.
type classifier struct {
	PostType *string `json:"post_type"`
	Echo     *string `json:"echo"`
}

// IsResponse reports whether a raw inbound frame is a response (no post_type,
// has an echo) as opposed to an event frame.
func IsResponse(raw []byte) (bool, error) {
	var c classifier
	if err := json.Unmarshal(raw, &c); err != nil {
		return false, errors.Wrap(err, "decoding inbound frame")
	}
	return c.PostType == nil && c.Echo != nil, nil
}

// DecodeResponse decodes raw as a ResponseFrame.
func DecodeResponse(raw []byte) (*ResponseFrame, error) {
	var r ResponseFrame
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, errors.Wrap(err, "decoding response frame")
	}
	return &r, nil
}

// DecodeSegment decodes a single {"type","data"} segment object, preserving
// every field of Data verbatim for re-encoding.
func DecodeSegment(raw json.RawMessage) (Segment, error) {
	var s Segment
	if err := json.Unmarshal(raw, &s); err != nil {
		return Segment{}, errors.Wrap(err, "decoding message segment")
	}
	return s, nil
}

// DecodeMessageArray decodes the "message" field, which the gateway may send
// either as an array of segments or (for some legacy endpoints) as a bare
// string, in which case it becomes a single text segment.
func DecodeMessageArray(raw json.RawMessage) (MessageArray, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, errors.Wrap(err, "decoding string message")
		}
		return MessageArray{NewText(text)}, nil
	}

	var segs []Segment
	if err := json.Unmarshal(raw, &segs); err != nil {
		return nil, errors.Wrap(err, "decoding message array")
	}
	return FuseText(MessageArray(segs)), nil
}

// toStringID normalizes a gateway id field (received as a JSON number or
// string) to its canonical string form. Strings (including at.qq's "all")
// pass through unchanged; any other type yields "".
func toStringID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return formatFloatID(t)
	default:
		return ""
	}
}

func formatFloatID(f float64) string {
	i := int64(f)
	if float64(i) == f {
		return itoa(i)
	}
	return jsonFloat(f)
}

func itoa(i int64) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func jsonFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
