package viz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedPayload marks a reply that is not JSON or lacks the answer text.
var ErrMalformedPayload = errors.New("malformed payload")

// Response is a service reply kept as an untyped JSON document. Only the
// answer text is checked up front; everything else is validated by Normalize.
type Response struct {
	doc gjson.Result
}

func ParseResponse(b []byte) (Response, error) {
	if !gjson.ValidBytes(b) {
		return Response{}, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	doc := gjson.ParseBytes(b)
	if !doc.IsObject() {
		return Response{}, fmt.Errorf("%w: expected an object", ErrMalformedPayload)
	}
	text := doc.Get("response")
	if text.Type != gjson.String || strings.TrimSpace(text.Str) == "" {
		return Response{}, fmt.Errorf("%w: missing response text", ErrMalformedPayload)
	}
	return Response{doc: doc}, nil
}

func (r Response) Text() string { return r.doc.Get("response").Str }

// VisualizationType is the requested mode hint, lowercased.
func (r Response) VisualizationType() string {
	return strings.ToLower(strings.TrimSpace(r.doc.Get("visualization_type").String()))
}

func (r Response) HasForecast() bool { return r.doc.Get("has_forecast").Bool() }

func (r Response) data() gjson.Result { return r.doc.Get("data") }
