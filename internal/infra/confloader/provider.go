package confloader

import "errors"

// confMap adapts an in-memory map to koanf's Provider interface, for
// flag overrides and tests. koanf accepts providers that implement
// either ReadBytes or Read; a map has no byte form.
type confMap map[string]any

func (m confMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: map provider has no byte form")
}

func (m confMap) Read() (map[string]any, error) {
	return m, nil
}
