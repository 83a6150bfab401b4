// Package source loads hypothesis batches from upstream producers. Each
// OCR or AI boundary-detection pass drops (or serves) one batch per page
// window; sources fetch raw batches and the loader validates and
// normalizes them concurrently before the single-threaded resolution pass.
package source

import (
	"encoding/json"
	"fmt"

	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
)

// Batch is the wire envelope for one upstream batch: the producing source
// tag plus its raw proposal records. Records normally inherit the envelope
// source; a record carrying its own source tag keeps it.
type Batch struct {
	Source  hypothesis.SourceTag `json:"source"`
	Records []json.RawMessage    `json:"records"`
}

// DecodeBatch parses a batch envelope and stamps the envelope source onto
// records that do not carry their own.
func DecodeBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("invalid batch envelope: %w", err)
	}
	if b.Source.Engine == "" {
		return nil, fmt.Errorf("batch envelope missing source engine")
	}

	for i, rec := range b.Records {
		stamped, err := stampSource(rec, b.Source)
		if err != nil {
			// Leave the record as-is; collection will drop it with a
			// reason instead of losing it silently here.
			continue
		}
		b.Records[i] = stamped
	}
	return &b, nil
}

// stampSource injects the envelope source tag into a record lacking one.
func stampSource(rec json.RawMessage, src hypothesis.SourceTag) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["source"]; ok {
		return rec, nil
	}
	tag, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	fields["source"] = tag
	return json.Marshal(fields)
}
