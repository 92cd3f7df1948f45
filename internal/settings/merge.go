package settings

import (
	"fmt"

	"github.com/aleksvolk/connectboard/internal/common"
)

// Patch is a partial update: category name to the keys being changed.
// Categories absent from the patch are left untouched.
type Patch map[string]map[string]any

// Merge applies patch to base one category at a time. Each category present
// in patch is shallow-merged over the matching category of base; categories
// absent from patch pass through unchanged. Keys present in base but absent
// from patch are never deleted, and Merge(base, Patch{}) returns base
// unchanged. Unknown category names in the patch are ignored.
func Merge(base Record, patch Patch) Record {
	out := base.Clone()
	for name, updates := range patch {
		dst, ok := out.Category(name)
		if !ok {
			continue
		}
		for k, v := range updates {
			dst[k] = v
		}
	}
	return out
}

// MergeCategory merges updates into the single named category of base,
// returning common.ErrInvalidCategory for an unknown name.
func MergeCategory(base Record, category string, updates map[string]any) (Record, error) {
	if !ValidCategory(category) {
		return Record{}, fmt.Errorf("%w: %q", common.ErrInvalidCategory, category)
	}
	return Merge(base, Patch{category: updates}), nil
}

// Overlay shallow-merges every category of over on top of base. It is the
// record-level merge used at load time: base supplies defaults, over
// supplies whatever was stored.
func Overlay(base, over Record) Record {
	out := base.Clone()
	for _, name := range CategoryNames {
		src, _ := over.Category(name)
		dst, _ := out.Category(name)
		for k, v := range src {
			dst[k] = v
		}
	}
	return out
}

// Resolve fills a loaded record out to the full shape: defaults first, then
// the loaded values on top. The result always has every category present.
func Resolve(loaded Record) Record {
	return Overlay(Default(), loaded)
}
