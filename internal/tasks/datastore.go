package tasks

import (
	"context"

	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

// datastoreLookupProp is the property every datastore.* task resolves
// its target object by: a Datastore's msg['name'] actually carries the
// datastore's "info.url", not its display name (grounded on
// vsphere/tasks.py's datastore_get/datastore_alarm_get/etc., all of
// which call get_object_by_property(property_name='info.url', ...)).
const datastoreLookupProp = "info.url"

func init() {
	register("datastore.discover", nil, datastoreDiscover)
	register("datastore.get", []string{"name", "properties"}, datastoreGet)
	register("datastore.alarm.get", []string{"name"}, datastoreAlarmGet)
	register("datastore.host.get", []string{"name"}, datastoreHostGet)
	register("datastore.vm.get", []string{"name"}, datastoreVMGet)
	register("datastore.perf.metric.info", []string{"name"}, datastorePerfMetricInfo)
	register("datastore.perf.metric.get", []string{"name", "counter-name"}, datastorePerfMetricGet)
}

func datastoreDiscover(s *vsphere.Session, req wire.Request) wire.Reply {
	return discover(s, "Datastore", req.Properties)
}

// datastoreGet requests "info.url" in addition to "name" by default,
// on top of the Get-one template's usual "name" inclusion (datastore_get
// collects properties=['name', 'info.url', ...req.properties]).
func datastoreGet(s *vsphere.Session, req wire.Request) wire.Reply {
	properties := append([]string{"info.url"}, req.Properties...)
	return getOneReplyByProp(s, "Datastore", datastoreLookupProp, req.Name, properties)
}

func datastoreAlarmGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return alarmGetByProp(s, "Datastore", datastoreLookupProp, req.Name)
}

// datastoreHostGet cannot reuse crossEntityGet: a Datastore's "host"
// property is an array of DatastoreHostMount, not a bare managed-object
// reference, so the referenced HostSystem morefs live under each
// mount's Key field (grounded on datastore_host_get's
// `obj_host = [h.key for h in obj_host]` unwrap).
func datastoreHostGet(s *vsphere.Session, req wire.Request) wire.Reply {
	ctx := context.Background()
	ref, err := getOneRefByProp(ctx, s, "Datastore", datastoreLookupProp, req.Name)
	if err != nil {
		return wire.Err(err.Error())
	}
	rec, err := getOneRecord(ctx, s, *ref, "Datastore", []string{"host"}, false)
	if err != nil {
		return wire.Err(err.Error())
	}

	mounts := asDatastoreHostMounts(rec["host"])
	if len(mounts) == 0 {
		return wire.OK("Successfully discovered objects", nil)
	}
	hosts := make([]types.ManagedObjectReference, 0, len(mounts))
	for _, m := range mounts {
		hosts = append(hosts, m.Key)
	}

	v, err := s.ListView(ctx, hosts)
	if err != nil {
		return wire.Err(err.Error())
	}
	defer v.Destroy(ctx)

	records, err := s.CollectProperties(ctx, v, "HostSystem", []string{"name"}, false)
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}
	return wire.OK("Successfully discovered objects", records)
}

// asDatastoreHostMounts normalizes a collected "host" property's value.
func asDatastoreHostMounts(v any) []types.DatastoreHostMount {
	switch t := v.(type) {
	case types.ArrayOfDatastoreHostMount:
		return t.DatastoreHostMount
	case []types.DatastoreHostMount:
		return t
	default:
		return nil
	}
}

func datastoreVMGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return crossEntityGetByProp(s, "Datastore", datastoreLookupProp, req.Name, "vm", "VirtualMachine")
}

func datastorePerfMetricInfo(s *vsphere.Session, req wire.Request) wire.Reply {
	return perfMetricInfoByProp(s, "Datastore", datastoreLookupProp, req.Name, req.CounterName)
}

func datastorePerfMetricGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return perfMetricGetByProp(s, "Datastore", datastoreLookupProp, req.Name, req.CounterName, req.PerfInterval, req.Instance, req.MaxSampleOrDefault())
}
