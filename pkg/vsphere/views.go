package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/types"
)

// View is an opaque, must-be-destroyed handle scoping a property
// collection to a set of managed objects (spec.md §4.5 primitives 1-2,
// §9 "cyclic structures").
type View struct {
	ref *view.ContainerView
	lv  *view.ListView
}

// ContainerView produces a View rooted at the upstream inventory root,
// scoped to the given managed-object kinds (spec.md §4.5 primitive 1).
func (s *Session) ContainerView(ctx context.Context, kinds ...string) (*View, error) {
	cv, err := s.views.CreateContainerView(ctx, s.rootFolder().Reference(), kinds, true)
	if err != nil {
		return nil, fmt.Errorf("create container view: %w", err)
	}
	return &View{ref: cv}, nil
}

// ListView produces a View covering exactly the given already-known
// managed objects (spec.md §4.5 primitive 2).
func (s *Session) ListView(ctx context.Context, objs []types.ManagedObjectReference) (*View, error) {
	lv, err := s.views.CreateListView(ctx, objs)
	if err != nil {
		return nil, fmt.Errorf("create list view: %w", err)
	}
	return &View{lv: lv}, nil
}

// Destroy tears down the view. Every ContainerView/ListView must be
// destroyed before its enclosing call returns, even on error paths
// (spec.md §9).
func (v *View) Destroy(ctx context.Context) {
	if v == nil {
		return
	}
	if v.ref != nil {
		_ = v.ref.Destroy(ctx)
	}
	if v.lv != nil {
		_ = v.lv.Destroy(ctx)
	}
}

// CollectProperties performs a single property-collector round trip
// for every object of the given kind reachable from view, requesting
// paths (spec.md §4.5 primitive 3). Passing include_mors adds the raw
// object reference under the "obj" key of every returned record. An
// empty paths list requests all properties of kind and is logged as a
// warning, matching connector.py's collect_properties behavior.
func (s *Session) CollectProperties(ctx context.Context, v *View, kind string, paths []string, includeMors bool) ([]map[string]any, error) {
	if len(paths) == 0 {
		s.log.Warnw("collecting all properties: empty path set requested", "kind", kind)
	}

	var refs []types.ManagedObjectReference
	var err error
	switch {
	case v.ref != nil:
		refs, err = v.ref.Find(ctx, []string{kind}, nil)
	case v.lv != nil:
		refs, err = v.lv.Find(ctx, []string{kind}, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve view objects: %w", err)
	}
	if len(refs) == 0 {
		return nil, nil
	}

	props := paths
	if len(props) == 0 {
		props = nil // nil -> collector returns all properties of kind
	}

	pc := s.propertyCollector()
	raw, err := retrieveRaw(ctx, pc, refs, props)
	if err != nil {
		return nil, fmt.Errorf("collect properties: %w", err)
	}

	records := make([]map[string]any, 0, len(raw))
	for _, oc := range raw {
		rec := objectContentToRecord(oc)
		if includeMors {
			rec["obj"] = oc.Obj
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetObjectByProperty performs the linear "find one, then collect"
// search of spec.md §4.5 primitive 4: O(N) in inventory size, matching
// connector.py's get_object_by_property.
func (s *Session) GetObjectByProperty(ctx context.Context, kind, propPath, value string) (*types.ManagedObjectReference, error) {
	v, err := s.ContainerView(ctx, kind)
	if err != nil {
		return nil, err
	}
	defer v.Destroy(ctx)

	records, err := s.CollectProperties(ctx, v, kind, []string{propPath}, true)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if fmt.Sprintf("%v", rec[propPath]) == value {
			ref, ok := rec["obj"].(types.ManagedObjectReference)
			if !ok {
				continue
			}
			return &ref, nil
		}
	}
	return nil, nil
}
