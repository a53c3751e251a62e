package vsphere

import (
	"context"

	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25/types"
)

// retrieveRaw runs a single PropertyCollector round trip returning raw
// ObjectContent records, the common substrate every CollectProperties
// call flattens into a map[string]any. It is unexported; CollectProperties
// is its only caller.
func retrieveRaw(ctx context.Context, pc *property.Collector, refs []types.ManagedObjectReference, props []string) ([]types.ObjectContent, error) {
	specs := make([]types.PropertySpec, 0, 1)
	byKind := make(map[string][]types.ManagedObjectReference)
	for _, r := range refs {
		byKind[r.Type] = append(byKind[r.Type], r)
	}
	for kind := range byKind {
		specs = append(specs, types.PropertySpec{
			Type:    kind,
			All:     types.NewBool(len(props) == 0),
			PathSet: props,
		})
	}

	objSpecs := make([]types.ObjectSpec, 0, len(refs))
	for _, r := range refs {
		objSpecs = append(objSpecs, types.ObjectSpec{Obj: r, Skip: types.NewBool(false)})
	}

	filter := types.PropertyFilterSpec{
		ObjectSet: objSpecs,
		PropSet:   specs,
	}

	resp, err := pc.RetrieveProperties(ctx, types.RetrieveProperties{
		This:    pc.Reference(),
		SpecSet: []types.PropertyFilterSpec{filter},
	})
	if err != nil {
		return nil, err
	}
	return resp.Returnval, nil
}

// objectContentToRecord flattens a single ObjectContent into the
// map[string]any shape every handler template and formatter operates
// on uniformly (spec.md §3's Reply.result convention).
func objectContentToRecord(oc types.ObjectContent) map[string]any {
	rec := make(map[string]any, len(oc.PropSet)+1)
	for _, p := range oc.PropSet {
		rec[p.Name] = p.Val
	}
	if rec["name"] == nil {
		// DynamicProperty sets "name" like any other path; nothing
		// special here, but every Discover template asks for it
		// explicitly (properties ∪ {"name"}) so it is normally present.
	}
	return rec
}
