package refdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/wonny/universe/internal/contracts"
)

// readFile returns the file bytes or ErrMissingReference when it does not exist
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrMissingReference, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// unwrapList accepts either a bare JSON array or an object carrying the array under "data"
func unwrapList(data []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if trimmed[0] == '[' {
		return trimmed, nil
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	if len(wrapper.Data) == 0 || wrapper.Data[0] != '[' {
		return nil, fmt.Errorf(`expected a list or {"data": [...]}`)
	}
	return wrapper.Data, nil
}

// decodeObjects decodes a JSON array of objects, keeping each object's key order.
// Numbers stay json.Number so pass-through values serialize unchanged.
func decodeObjects(raw json.RawMessage) ([][]contracts.Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var out [][]contracts.Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if tok != json.Delim('{') {
			// non-object entries are skipped
			if _, ok := tok.(json.Delim); ok {
				if err := skipContainer(dec); err != nil {
					return nil, err
				}
			}
			continue
		}

		var fields []contracts.Field
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)

			var v interface{}
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("decode %q: %w", key, err)
			}
			fields = append(fields, contracts.Field{Key: key, Value: v})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		out = append(out, fields)
	}

	return out, expectDelim(dec, ']')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// skipContainer consumes tokens up to the close of an already opened array/object
func skipContainer(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '[', '{':
				depth++
			case ']', '}':
				depth--
			}
		}
	}
	return nil
}

// lookup returns the first present key among aliases
func lookup(fields []contracts.Field, aliases ...string) (interface{}, bool) {
	for _, alias := range aliases {
		for _, f := range fields {
			if f.Key == alias {
				return f.Value, true
			}
		}
	}
	return nil, false
}

// lookupString is lookup for string values
func lookupString(fields []contracts.Field, aliases ...string) string {
	v, ok := lookup(fields, aliases...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
