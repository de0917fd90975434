package capi

import "github.com/samber/lo"

// Missing returns the referenced symbols that are not exported, keeping
// their order and duplicates. Names are compared exactly.
func Missing(referenced, exports []string) []string {
	exported := lo.SliceToMap(exports, func(name string) (string, struct{}) {
		return name, struct{}{}
	})

	return lo.Filter(referenced, func(name string, _ int) bool {
		_, ok := exported[name]
		return !ok
	})
}
