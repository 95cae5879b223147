package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/universe/internal/contracts"
)

// CircuitEntry is one {SYMBOL, BAND} row. BAND is a number or a label like "No Band".
type CircuitEntry struct {
	Symbol string      `json:"SYMBOL"`
	Band   interface{} `json:"BAND"`
}

// LoadCircuitBands reads the circuit band file into a symbol → band lookup
func LoadCircuitBands(path string) (contracts.CircuitBands, error) {
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

	bands := make(contracts.CircuitBands, len(objects))
	for _, obj := range objects {
		symbol := contracts.NormalizeSymbol(lookupString(obj, symbolKeys...))
		if symbol == "" {
			continue
		}
		v, _ := lookup(obj, "BAND", "Band", "band")
		bands[symbol] = contracts.ParseFloat(v)
	}

	return bands, nil
}

// CircuitDocument is the on-disk circuit band file
type CircuitDocument struct {
	SourceDate  string         `json:"source_date,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
	Data        []CircuitEntry `json:"data"`
}

// WriteCircuitBands replaces the circuit band file atomically
func WriteCircuitBands(path string, doc CircuitDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode circuit bands: %w", err)
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temp file in the same directory and renames it over path
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
