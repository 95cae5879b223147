package refdata

import (
	"fmt"

	"github.com/wonny/universe/internal/contracts"
)

// LoadExtremes reads the persisted 52-week high/low reference.
// Both {"data": [{Symbol, 52_Weeks_High, 52_Weeks_Low}]} and a bare [{Symbol, High, Low}] list are accepted.
func LoadExtremes(path string) (map[string]contracts.ExtremeRef, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	raw, err := unwrapList(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	objects, err := decodeObjects(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := make(map[string]contracts.ExtremeRef, len(objects))
	for _, obj := range objects {
		symbol := contracts.NormalizeSymbol(lookupString(obj, symbolKeys...))
		if symbol == "" {
			continue
		}

		var ref contracts.ExtremeRef
		if v, ok := lookup(obj, "52_Weeks_High", "High", "high"); ok {
			ref.High = contracts.ToFloat(v)
		}
		if v, ok := lookup(obj, "52_Weeks_Low", "Low", "low"); ok {
			ref.Low = contracts.ToFloat(v)
		}
		out[symbol] = ref
	}

	return out, nil
}
