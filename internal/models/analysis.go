package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AnalysisResult is the structured summary produced by the text-generation
// service. Every field is best effort: the model may omit or reshape any of
// them, so decoding is lenient and nothing here is validated.
type AnalysisResult struct {
	Sentiment        Sentiment        `json:"sentiment"`
	Themes           StringList       `json:"themes"`
	PositiveFeedback StringList       `json:"positiveFeedback"`
	NegativeFeedback NegativeFeedback `json:"negativeFeedback"`
	Questions        StringList       `json:"questions"`
	Suggestions      Suggestions      `json:"suggestions"`
}

// Sentiment percentages are expected, not guaranteed, to sum to 100.
type Sentiment struct {
	Positive Percent `json:"positive"`
	Neutral  Percent `json:"neutral"`
	Negative Percent `json:"negative"`
}

type NegativeFeedback struct {
	Summary Text       `json:"summary"`
	Points  StringList `json:"points"`
	Impact  Text       `json:"impact"`
}

type Suggestions struct {
	Summary        Text       `json:"summary"`
	Details        StringList `json:"details"`
	Implementation Text       `json:"implementation"`
	Priority       StringList `json:"priority"`
}

// SentimentSlice is one segment of a sentiment chart.
type SentimentSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Slices returns the sentiment as chart segments in positive, neutral, negative order.
func (s Sentiment) Slices() []SentimentSlice {
	return []SentimentSlice{
		{Name: "Positive", Value: int(s.Positive)},
		{Name: "Neutral", Value: int(s.Neutral)},
		{Name: "Negative", Value: int(s.Negative)},
	}
}

// StringList decodes a JSON array of strings, but also accepts a single string
// or an array with non-string items (rendered as text).
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = toStrings(raw)
	return nil
}

// Text decodes a JSON string, joining arrays line by line and rendering other
// values as their JSON text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Text(toText(raw))
	return nil
}

// Percent decodes a number or a numeric string such as "45%". Anything else
// decodes to zero.
type Percent int

func (p *Percent) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*p = Percent(math.Round(v))
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*p = 0
			return nil
		}
		*p = Percent(math.Round(f))
	default:
		*p = 0
	}
	return nil
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := toText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := toText(t); s != "" {
			return []string{s}
		}
		return nil
	}
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		return strings.Join(toStrings(t), "\n")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
