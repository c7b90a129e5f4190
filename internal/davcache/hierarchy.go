package davcache

import "strings"

// buildPaths walks each resource's parent chain to a root and joins
// the Name components with "/", the generic tree case every concrete
// groupware layout (nested file trees, two-level calendars, synthetic
// notification namespaces) expresses itself through once Source shapes
// Resource.ParentID/Name accordingly.
func buildPaths(resources map[uint32]Resource) map[uint32]string {
	paths := make(map[uint32]string, len(resources))
	for id := range resources {
		paths[id] = resolvePath(id, resources, paths, make(map[uint32]bool))
	}
	return paths
}

func resolvePath(id uint32, resources map[uint32]Resource, memo map[uint32]string, visiting map[uint32]bool) string {
	if p, ok := memo[id]; ok {
		return p
	}
	r, ok := resources[id]
	if !ok {
		return ""
	}
	if visiting[id] {
		return r.Name // a cycle in parent links; stop rather than loop forever
	}
	visiting[id] = true

	if r.ParentID == 0 {
		memo[id] = r.Name
		return r.Name
	}
	parentPath := resolvePath(r.ParentID, resources, memo, visiting)
	p := strings.TrimSuffix(parentPath, "/") + "/" + r.Name
	memo[id] = p
	return p
}
