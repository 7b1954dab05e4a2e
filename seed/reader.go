package seed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/podsearch/core"
)

// fragmentRecord is the JSON Lines shape of one transcript fragment.
type fragmentRecord struct {
	Id        string            `json:"id"`
	EpisodeId string            `json:"episode_id"`
	Text      string            `json:"text"`
	Start     float64           `json:"start"`
	End       float64           `json:"end"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (r fragmentRecord) toFragment() core.Fragment {
	return core.Fragment{
		Id:               r.Id,
		SourceDocumentId: r.EpisodeId,
		Text:             r.Text,
		StartOffset:      r.Start,
		EndOffset:        r.End,
		Metadata:         r.Metadata,
	}
}

// FragmentReader decodes transcript fragments from JSON Lines input.
// Blank lines are skipped; they do not count as records.
type FragmentReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewFragmentReader creates a reader over JSONL input. Lines up to 1 MiB
// are accepted, which fits transcript fragments with room to spare.
func NewFragmentReader(r io.Reader) *FragmentReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &FragmentReader{scanner: scanner}
}

// Next returns the next fragment, or io.EOF when the input is exhausted.
// Malformed lines and invalid fragments fail the read with the line number.
func (r *FragmentReader) Next() (core.Fragment, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}

		var record fragmentRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return core.Fragment{}, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, r.line, err)
		}

		fragment := record.toFragment()
		if err := fragment.Validate(); err != nil {
			return core.Fragment{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return fragment, nil
	}

	if err := r.scanner.Err(); err != nil {
		return core.Fragment{}, err
	}
	return core.Fragment{}, io.EOF
}

// Skip discards n fragments, typically to resume from a checkpoint.
// Returns the number actually skipped, which is less than n only if the
// input ended first.
func (r *FragmentReader) Skip(n uint64) (uint64, error) {
	var skipped uint64
	for skipped < n {
		_, err := r.Next()
		if err == io.EOF {
			return skipped, nil
		}
		if err != nil {
			return skipped, err
		}
		skipped++
	}
	return skipped, nil
}
