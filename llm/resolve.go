package llm

import (
	"fmt"
	"strings"
	"sync"

	radix "github.com/armon/go-radix"
)

// modelIndex holds one radix tree of catalog model ids per provider,
// including Bedrock's cross-region ids.
var modelIndex = sync.OnceValue(func() map[ProviderType]*radix.Tree {
	index := make(map[ProviderType]*radix.Tree)
	for _, d := range AvailableProviders() {
		tree := radix.New()
		for _, m := range d.Models {
			tree.Insert(m, struct{}{})
		}
		for _, m := range d.CrossRegionModels {
			tree.Insert(m, struct{}{})
		}
		index[d.ID] = tree
	}
	return index
})

// ResolveModel expands name to a catalog model id for providerType. An exact
// id is returned unchanged, an empty name yields the default model, and any
// other name must be the prefix of exactly one id.
func ResolveModel(providerType ProviderType, name string) (string, error) {
	tree, ok := modelIndex()[providerType]
	if !ok {
		return "", unknownProviderError(string(providerType))
	}
	if name == "" {
		return providerType.DefaultModel(), nil
	}
	if _, ok := tree.Get(name); ok {
		return name, nil
	}

	var matches []string
	tree.WalkPrefix(name, func(id string, _ interface{}) bool {
		matches = append(matches, id)
		return false
	})

	switch len(matches) {
	case 0:
		return "", configError(providerType.String(), "model", fmt.Sprintf("unknown model %q", name))
	case 1:
		return matches[0], nil
	default:
		return "", configError(providerType.String(), "model",
			fmt.Sprintf("model %q is ambiguous: %s", name, strings.Join(matches, ", ")))
	}
}
