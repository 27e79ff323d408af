package domain

import (
	"maps"
	"slices"
)

// ApplyCategories assigns categories and the optional flag to planned records.
//
// Each explicit dependency contributes its category to every record reachable from it
// through LockedDependency.Dependencies. A record is optional only if no non-optional
// explicit dependency reaches it. Records no explicit dependency reaches stay in main.
// The input map is not modified.
func ApplyCategories(explicit []Dependency, planned map[string]LockedDependency) map[string]LockedDependency {
	categories := make(map[string]map[string]struct{}, len(planned))
	required := make(map[string]bool, len(planned))

	for _, dep := range explicit {
		if _, ok := planned[dep.Name]; !ok {
			continue
		}
		category := dep.EffectiveCategory()
		for name := range reachable(dep.Name, planned) {
			if categories[name] == nil {
				categories[name] = make(map[string]struct{})
			}
			categories[name][category] = struct{}{}
			if !dep.Optional {
				required[name] = true
			}
		}
	}

	out := make(map[string]LockedDependency, len(planned))
	for name, rec := range planned {
		if cats, ok := categories[name]; ok {
			rec.Categories = slices.Sorted(maps.Keys(cats))
			rec.Optional = !required[name]
		} else {
			rec.Categories = []string{CategoryMain}
			rec.Optional = false
		}
		out[name] = rec
	}
	return out
}

func reachable(root string, planned map[string]LockedDependency) map[string]struct{} {
	visited := map[string]struct{}{root: {}}
	queue := []string{root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for dep := range planned[name].Dependencies {
			if _, ok := planned[dep]; !ok {
				continue
			}
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}
	return visited
}
