package domain

import (
	"fmt"
	"slices"

	"washpricing_backend/platform/validator"
)

// ValidateOverrideDocument checks a stored override document before it is
// persisted: top-level keys must be known namespaces, and applying the
// document on top of the defaults must leave every touched namespace valid.
// Layered merges are monotonic, so a document that passes against defaults
// cannot by itself make a namespace undecodable.
func ValidateOverrideDocument(val *validator.Validator, doc map[string]any) error {
	for key := range doc {
		if !slices.Contains(Namespaces, key) {
			return fmt.Errorf("unknown settings namespace %q", key)
		}
	}

	base, err := ToDocument(DefaultSettings())
	if err != nil {
		return err
	}
	merged := DeepMerge(base, doc)

	for _, ns := range Namespaces {
		if _, touched := doc[ns]; !touched {
			continue
		}
		record := namespaceRecord(ns)
		sub, ok := merged[ns].(map[string]any)
		if !ok {
			return fmt.Errorf("namespace %q must be an object", ns)
		}
		if err := FromDocument(sub, record); err != nil {
			return fmt.Errorf("namespace %q: %w", ns, err)
		}
		if err := ValidateNamespace(val, ns, record); err != nil {
			return fmt.Errorf("namespace %q: %w", ns, err)
		}
	}
	return nil
}

func namespaceRecord(ns string) any {
	switch ns {
	case NamespacePricing:
		d := DefaultPricing()
		return &d
	case NamespaceWeather:
		d := DefaultWeather()
		return &d
	case NamespaceDM:
		d := DefaultDM()
		return &d
	default:
		d := DefaultScheduling()
		return &d
	}
}

// validateNamespace checks one namespace's typed record against its schema.
// Beyond struct tags, the pricing namespace requires all four seasonal
// multipliers to be present and positive.
func ValidateNamespace(val *validator.Validator, ns string, record any) error {
	if err := val.Struct(record); err != nil {
		return err
	}

	if ns == NamespacePricing {
		p, ok := record.(*PricingSettings)
		if !ok {
			return fmt.Errorf("pricing namespace has unexpected type %T", record)
		}
		for _, season := range seasons {
			mult, present := p.SeasonalMultipliers[season]
			if !present {
				return fmt.Errorf("seasonal_multipliers missing season %q", season)
			}
			if mult <= 0 {
				return fmt.Errorf("seasonal_multipliers[%q] must be positive, got %v", season, mult)
			}
		}
	}

	return nil
}
