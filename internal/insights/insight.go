package insights

import (
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"
)

// Sentiment values the model is asked to choose from.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Insight is the structured summary attached to a processed document.
// Fields the model returns beyond the six known ones are kept in Extra and
// written back out unchanged.
type Insight struct {
	Summary      string   `json:"summary"`
	KeyEntities  []string `json:"keyEntities"`
	Sentiment    string   `json:"sentiment"`
	ReadingTime  string   `json:"readingTime"`
	DocumentType string   `json:"documentType"`
	Language     string   `json:"language"`

	Extra map[string]json.RawMessage `json:"-"`
}

type insightFields struct {
	Summary      string   `json:"summary,omitempty"`
	KeyEntities  []string `json:"keyEntities,omitempty"`
	Sentiment    string   `json:"sentiment,omitempty"`
	ReadingTime  string   `json:"readingTime,omitempty"`
	DocumentType string   `json:"documentType,omitempty"`
	Language     string   `json:"language,omitempty"`
}

// UnmarshalJSON requires a JSON object. A known field holding the wrong JSON
// type is kept verbatim in Extra instead of failing the record.
func (in *Insight) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("insight must be a JSON object")
	}
	out := Insight{}
	keep := func(k string, v json.RawMessage) {
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}
	for k, v := range raw {
		var ok bool
		switch k {
		case "summary":
			ok = decodeString(v, &out.Summary)
		case "sentiment":
			ok = decodeString(v, &out.Sentiment)
		case "readingTime":
			ok = decodeString(v, &out.ReadingTime)
		case "documentType":
			ok = decodeString(v, &out.DocumentType)
		case "language":
			ok = decodeString(v, &out.Language)
		case "keyEntities":
			ok = json.Unmarshal(v, &out.KeyEntities) == nil
		}
		if !ok {
			keep(k, v)
		}
	}
	*in = out
	return nil
}

// MarshalJSON writes the known fields that are set plus every extra field.
func (in Insight) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(insightFields{
		Summary:      in.Summary,
		KeyEntities:  in.KeyEntities,
		Sentiment:    in.Sentiment,
		ReadingTime:  in.ReadingTime,
		DocumentType: in.DocumentType,
		Language:     in.Language,
	})
	if err != nil || len(in.Extra) == 0 {
		return known, err
	}
	merged := make(map[string]json.RawMessage, len(in.Extra)+6)
	for k, v := range in.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func decodeString(raw json.RawMessage, dst *string) bool {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	*dst = s
	return true
}

// Fallback is the deterministic insight used when the model call or its
// output cannot be used. Reading time assumes 1000 characters per minute.
func Fallback(text string) Insight {
	minutes := int(math.Ceil(float64(utf8.RuneCountInString(text)) / 1000.0))
	return Insight{
		Summary:      "Document analysis completed",
		KeyEntities:  []string{"document", "content"},
		Sentiment:    SentimentNeutral,
		ReadingTime:  fmt.Sprintf("%d minutes", minutes),
		DocumentType: "document",
		Language:     "en",
	}
}
