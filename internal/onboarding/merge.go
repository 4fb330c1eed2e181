package onboarding

// mergeDraft deep-merges patch into base and returns the result. Nested maps
// merge key by key; any other value in the patch replaces the base value.
// Keys absent from the patch are left untouched, so submitting one field of a
// section never wipes its siblings. Neither input is mutated.
func mergeDraft(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		patchMap, patchIsMap := v.(map[string]any)
		baseMap, baseIsMap := out[k].(map[string]any)
		if patchIsMap && baseIsMap {
			out[k] = mergeDraft(baseMap, patchMap)
			continue
		}
		out[k] = v
	}
	return out
}
