package tools

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// RenderJSON re-serializes a backend payload for display: two-space indentation,
// object keys in their original order, non-ASCII text written literally.
// The result parses back to a value equal to the input.
func RenderJSON(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", NewToolError(KindBackendPayload, "backend response is not valid JSON")
	}

	var compact bytes.Buffer
	writeValue(&compact, gjson.ParseBytes(raw))

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", NewToolError(KindInternal, "failed to indent backend response: "+err.Error())
	}
	return out.String(), nil
}

func writeValue(buf *bytes.Buffer, v gjson.Result) {
	switch {
	case v.IsObject():
		buf.WriteByte('{')
		first := true
		v.ForEach(func(key, value gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeString(buf, key.String())
			buf.WriteByte(':')
			writeValue(buf, value)
			return true
		})
		buf.WriteByte('}')

	case v.IsArray():
		buf.WriteByte('[')
		first := true
		v.ForEach(func(_, value gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeValue(buf, value)
			return true
		})
		buf.WriteByte(']')

	default:
		switch v.Type {
		case gjson.String:
			writeString(buf, v.Str)
		case gjson.Number:
			// Raw keeps the backend's exact number text
			buf.WriteString(v.Raw)
		case gjson.True:
			buf.WriteString("true")
		case gjson.False:
			buf.WriteString("false")
		default:
			buf.WriteString("null")
		}
	}
}

// writeString encodes s as a JSON string without \u-escaping non-ASCII or HTML characters
func writeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
}
