package refdata

import (
	"fmt"

	"github.com/wonny/universe/internal/contracts"
)

var (
	symbolKeys    = []string{"Symbol", "SYMBOL", "symbol"}
	codeKeys      = []string{"INECODE", "instrument_code", "ISIN"}
	marketCapKeys = []string{"Market Cap", "market_cap"}
)

// LoadSectors reads the static reference dataset (Sector_Industry.json).
// Entries without a symbol are skipped. Market cap strings such as "N/A" become nil.
func LoadSectors(path string) ([]contracts.SectorRef, error) {
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

	refs := make([]contracts.SectorRef, 0, len(objects))
	for _, obj := range objects {
		symbol := contracts.NormalizeSymbol(lookupString(obj, symbolKeys...))
		if symbol == "" {
			continue
		}

		var mcap *float64
		if v, ok := lookup(obj, marketCapKeys...); ok {
			mcap = contracts.ParseFloat(v)
		}

		refs = append(refs, contracts.SectorRef{
			Symbol:         symbol,
			InstrumentCode: lookupString(obj, codeKeys...),
			MarketCap:      mcap,
			Fields:         passThrough(obj),
		})
	}

	return refs, nil
}

// passThrough drops identity and market cap keys; they are carried as typed fields
func passThrough(obj []contracts.Field) []contracts.Field {
	out := make([]contracts.Field, 0, len(obj))
	for _, f := range obj {
		if isAny(f.Key, symbolKeys) || isAny(f.Key, codeKeys) || isAny(f.Key, marketCapKeys) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isAny(key string, set []string) bool {
	for _, s := range set {
		if key == s {
			return true
		}
	}
	return false
}
