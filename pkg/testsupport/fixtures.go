package testsupport

import (
	"encoding/json"
	"os"
)

// LoadFixture reads a raw fixture file, usually a request body.
func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LoadGolden decodes a JSON golden file into v.
func LoadGolden(path string, v any) error {
	data, err := LoadFixture(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
