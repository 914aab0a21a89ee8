// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	_ "embed"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/propagate/pkg/types"
)

// AllPresidents selects every known president.
const AllPresidents = "all"

//go:embed presidents.yaml
var presidentsYAML []byte

var presidents = mustLoadPresidents(presidentsYAML)

func mustLoadPresidents(data []byte) []types.President {
	var ps []types.President
	if err := yaml.Unmarshal(data, &ps); err != nil {
		panic(fmt.Sprintf("registry: parsing presidents.yaml: %v", err))
	}
	if len(ps) == 0 {
		panic("registry: presidents.yaml is empty")
	}
	return ps
}

// Presidents returns the known presidents; the first is the default.
func Presidents() []types.President {
	out := make([]types.President, len(presidents))
	copy(out, presidents)
	return out
}

// DefaultPresident returns the key used when none is given.
func DefaultPresident() string {
	return presidents[0].Key
}

// LookupPresident resolves a key, or "all", to the presidents it selects.
func LookupPresident(key string) ([]types.President, error) {
	if key == AllPresidents {
		return Presidents(), nil
	}
	for _, p := range presidents {
		if p.Key == key {
			return []types.President{p}, nil
		}
	}
	return nil, fmt.Errorf("unknown president %q (known: %v)", key, Keys())
}

// Keys lists the valid president keys, including "all".
func Keys() []string {
	keys := make([]string, 0, len(presidents)+1)
	for _, p := range presidents {
		keys = append(keys, p.Key)
	}
	return append(keys, AllPresidents)
}
