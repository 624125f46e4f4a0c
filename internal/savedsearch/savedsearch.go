// Package savedsearch reads saved searches from a YAML file.
package savedsearch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spigell/hh-indexer/internal/alerting"
)

type document struct {
	Searches []yaml.Node `yaml:"searches"`
}

// Load reads the saved searches from path. Only an unreadable file or a
// document that is not a list of searches is an error.
func Load(path string) ([]alerting.SavedSearch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading saved searches: %w", err)
	}

	searches, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return searches, nil
}

// Decode decodes every entry of the document on its own. An entry that fails
// to decode, or repeats an earlier id, is returned with Err set so that it
// fails alone when evaluated.
func Decode(data []byte) ([]alerting.SavedSearch, error) {
	var doc document
	if err := strictDecode(data, &doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding saved searches: %w", err)
	}

	searches := make([]alerting.SavedSearch, 0, len(doc.Searches))
	seen := make(map[string]struct{}, len(doc.Searches))

	for i := range doc.Searches {
		s := decodeEntry(&doc.Searches[i], i)

		if s.Err == nil && s.ID != "" {
			if _, dup := seen[s.ID]; dup {
				s.Err = fmt.Errorf("duplicate saved search id %q (line %d)", s.ID, doc.Searches[i].Line)
			}
			seen[s.ID] = struct{}{}
		}

		searches = append(searches, s)
	}

	return searches, nil
}

func decodeEntry(node *yaml.Node, position int) alerting.SavedSearch {
	var s alerting.SavedSearch

	// re-encode the node so unknown fields are rejected per entry
	raw, err := yaml.Marshal(node)
	if err == nil {
		err = strictDecode(raw, &s)
	}
	if err == nil {
		return s
	}

	s = alerting.SavedSearch{ID: entryID(node, position)}
	s.Err = fmt.Errorf("saved search %q (line %d): %w", s.ID, node.Line, err)
	return s
}

// entryID recovers the id of an entry that failed to decode, falling back to
// its position in the list.
func entryID(node *yaml.Node, position int) string {
	var partial struct {
		ID string `yaml:"id"`
	}
	if err := node.Decode(&partial); err == nil && partial.ID != "" {
		return partial.ID
	}
	return fmt.Sprintf("searches[%d]", position)
}

func strictDecode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
