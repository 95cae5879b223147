package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Canonical tick fields every feed must map
var CanonicalFields = []string{"open", "high", "low", "close", "volume"}

// FeedMapping describes how one upstream feed names its tick fields
type FeedMapping struct {
	// Fields maps canonical name → upstream field name
	Fields map[string]string `yaml:"fields"`
	// NumericStrings accepts quoted numbers such as "1,234.5"
	NumericStrings bool `yaml:"numeric_strings"`
}

// FeedsFile is the on-disk layout of feeds.yaml
//
//	feeds:
//	  strike:
//	    fields: {open: open, high: high, low: low, close: close, volume: volume}
type FeedsFile struct {
	Feeds map[string]FeedMapping `yaml:"feeds"`
}

// DefaultFeeds returns the built-in feed mappings
func DefaultFeeds() map[string]FeedMapping {
	return map[string]FeedMapping{
		"strike": {
			Fields: map[string]string{
				"open":   "open",
				"high":   "high",
				"low":    "low",
				"close":  "close",
				"volume": "volume",
			},
		},
		"daily": {
			Fields: map[string]string{
				"open":   "dayOpen",
				"high":   "dayHigh",
				"low":    "dayLow",
				"close":  "dayClose",
				"volume": "dayVolume",
			},
			NumericStrings: true,
		},
	}
}

// LoadFeeds reads feed mappings from path and overlays them on the defaults.
// A missing file is not an error.
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func LoadFeeds(path string) (map[string]FeedMapping, error) {
	feeds := DefaultFeeds()
	if path == "" {
		return feeds, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return feeds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var file FeedsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode feeds file %s: %w", path, err)
	}

	for name, m := range file.Feeds {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("feed %q: %w", name, err)
		}
		feeds[name] = m
	}

	return feeds, nil
}

// Feed returns the named mapping
func Feed(feeds map[string]FeedMapping, name string) (FeedMapping, error) {
	m, ok := feeds[name]
	if !ok {
		names := make([]string, 0, len(feeds))
		for n := range feeds {
			names = append(names, n)
		}
		sort.Strings(names)
		return FeedMapping{}, fmt.Errorf("unknown feed %q (known: %v)", name, names)
	}
	return m, nil
}

// Validate checks that every canonical field is mapped
func (m FeedMapping) Validate() error {
	for _, c := range CanonicalFields {
		if m.Fields[c] == "" {
			return fmt.Errorf("canonical field %q is not mapped", c)
		}
	}
	for c := range m.Fields {
		if !isCanonical(c) {
			return fmt.Errorf("unknown canonical field %q", c)
		}
	}
	return nil
}

func isCanonical(name string) bool {
	for _, c := range CanonicalFields {
		if c == name {
			return true
		}
	}
	return false
}
