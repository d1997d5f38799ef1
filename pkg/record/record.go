package record

import "time"

// Sentiment is the label attached to a record by the upstream labeling step.
// The pipeline never infers sentiment; it only validates and counts it.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Valid reports whether s is one of the three known labels.
func (s Sentiment) Valid() bool {
	switch s {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// Raw is a record as it arrives from the source (CSV bootstrap or the ingest
// endpoint). All fields are optional; Clean decides what survives.
type Raw struct {
	TextID     string `json:"textID"`
	Text       string `json:"text"`
	Sentiment  string `json:"sentiment"`
	TimePeriod string `json:"Time of Tweet"`
	AgeBracket string `json:"Age of User"`
}

// Record is the canonical persisted shape. The JSON field names match the
// stored document fields exactly and must not change: downstream consumers
// read them as written.
type Record struct {
	TextID      string    `json:"textID"`
	Text        string    `json:"text"`
	Sentiment   Sentiment `json:"sentiment"`
	TimePeriod  string    `json:"Time of Tweet"`
	AgeBracket  string    `json:"Age of User"`
	ProcessedAt time.Time `json:"processed_timestamp"`
}

// Document field names as persisted. Aggregation filters and index
// definitions reference these, not the Go field names.
const (
	FieldTextID      = "textID"
	FieldText        = "text"
	FieldSentiment   = "sentiment"
	FieldTimePeriod  = "Time of Tweet"
	FieldAgeBracket  = "Age of User"
	FieldProcessedAt = "processed_timestamp"
)

// Clean applies the validation predicate to a raw record. A record is dropped
// (not erred) when its text is empty or its sentiment is missing or unknown.
// No other normalization happens here: the store keeps original string values
// so future dimensions can re-bucket them.
func Clean(raw Raw) (Record, bool) {
	if raw.Text == "" {
		return Record{}, false
	}
	s := Sentiment(raw.Sentiment)
	if !s.Valid() {
		return Record{}, false
	}
	return Record{
		TextID:     raw.TextID,
		Text:       raw.Text,
		Sentiment:  s,
		TimePeriod: raw.TimePeriod,
		AgeBracket: raw.AgeBracket,
	}, true
}

// Field returns the persisted value of a document field by its stored name.
// Used by store backends to evaluate filters and build index entries without
// reflection.
func (r Record) Field(name string) (string, bool) {
	switch name {
	case FieldTextID:
		return r.TextID, true
	case FieldText:
		return r.Text, true
	case FieldSentiment:
		return string(r.Sentiment), true
	case FieldTimePeriod:
		return r.TimePeriod, true
	case FieldAgeBracket:
		return r.AgeBracket, true
	}
	return "", false
}
