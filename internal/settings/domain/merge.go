package domain

import "encoding/json"

// DeepMerge merges override into base key by key, recursing into nested
// mappings so that overriding one nested key preserves its siblings. Non-map
// values (including lists) replace wholesale. Neither input is mutated.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}

	for k, v := range override {
		existing, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}

		existingMap, existingIsMap := existing.(map[string]any)
		overrideMap, overrideIsMap := v.(map[string]any)
		if existingIsMap && overrideIsMap {
			out[k] = DeepMerge(existingMap, overrideMap)
		} else {
			out[k] = v
		}
	}

	return out
}

// ToDocument converts a typed value to its JSON map form for merging.
func ToDocument(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromDocument converts a JSON map back into a typed value.
func FromDocument(doc map[string]any, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
