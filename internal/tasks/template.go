// Package tasks populates the process-global task registry
// (pkg/registry) with every operation of spec.md §4.4's catalog. Each
// file in this package registers one entity family's handlers at
// init() time; this file holds the six handler algorithm templates
// of spec.md §4.5 that every concrete handler composes, grounded on
// the repeated _discover_objects/_get_object_properties/
// _object_alarm_get/_entity_perf_metric_info/_entity_perf_metric_get
// helpers of original_source/src/vpoller/vsphere/tasks.py.
package tasks

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/vim25/types"

	vperrors "github.com/kubev2v/vsphere-proxy/pkg/errors"
	"github.com/kubev2v/vsphere-proxy/pkg/registry"
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

// register adapts a (*vsphere.Session, wire.Request) handler into the
// registry.HandlerFunc shape, type-asserting the narrow
// registry.Session interface back to the concrete Session. Every
// handler file's init() calls this through registry.MustRegister.
func register(name string, required []string, h func(*vsphere.Session, wire.Request) wire.Reply) {
	registry.MustRegister(registry.Descriptor{
		Name:     name,
		Required: required,
		Handler: func(s registry.Session, req wire.Request) wire.Reply {
			return h(s.(*vsphere.Session), req)
		},
	})
}

// withName returns properties with "name" included exactly once, the
// Discover/Get-one templates' `properties ∪ {"name"}` rule.
func withName(properties []string) []string {
	for _, p := range properties {
		if p == "name" {
			return properties
		}
	}
	out := make([]string, 0, len(properties)+1)
	out = append(out, "name")
	out = append(out, properties...)
	return out
}

// discover implements spec.md §4.5's Discover template: container_view
// -> collect_properties -> destroy -> wrap.
func discover(s *vsphere.Session, kind string, properties []string) wire.Reply {
	ctx := context.Background()
	v, err := s.ContainerView(ctx, kind)
	if err != nil {
		return wire.Err(err.Error())
	}
	defer v.Destroy(ctx)

	records, err := s.CollectProperties(ctx, v, kind, withName(properties), false)
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}
	return wire.OK("Successfully discovered objects", records)
}

// getOneRef resolves name to a managed object reference of kind,
// returning vperrors.ErrObjectNotFound (wrapped with the object's
// value) when nothing matches, per spec.md §4.5's "find one, then
// collect" primitive 4.
func getOneRef(ctx context.Context, s *vsphere.Session, kind, name string) (*types.ManagedObjectReference, error) {
	return getOneRefByProp(ctx, s, kind, "name", name)
}

// getOneRefByProp is getOneRef generalized to an arbitrary lookup
// property, grounded on vsphere/tasks.py's datastore handlers, which
// resolve a Datastore by its "info.url" property rather than "name"
// (a Datastore's msg['name'] field actually carries the datastore URL).
func getOneRefByProp(ctx context.Context, s *vsphere.Session, kind, propPath, value string) (*types.ManagedObjectReference, error) {
	ref, err := s.GetObjectByProperty(ctx, kind, propPath, value)
	if err != nil {
		return nil, fmt.Errorf("Cannot collect properties: %s", err)
	}
	if ref == nil {
		return nil, fmt.Errorf("%w %s", vperrors.ErrObjectNotFound, value)
	}
	return ref, nil
}

// getOneRecord implements the collect half of the Get-one template:
// list_view([ref]) -> collect_properties -> destroy -> first record.
func getOneRecord(ctx context.Context, s *vsphere.Session, ref types.ManagedObjectReference, kind string, properties []string, includeMors bool) (map[string]any, error) {
	v, err := s.ListView(ctx, []types.ManagedObjectReference{ref})
	if err != nil {
		return nil, err
	}
	defer v.Destroy(ctx)

	records, err := s.CollectProperties(ctx, v, kind, properties, includeMors)
	if err != nil {
		return nil, fmt.Errorf("Cannot collect properties: %s", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("Cannot find object %s", ref.Value)
	}
	return records[0], nil
}

// getOne implements spec.md §4.5's Get-one template end to end,
// returning the single resolved record.
func getOne(s *vsphere.Session, kind, name string, properties []string) (map[string]any, error) {
	return getOneByProp(s, kind, "name", name, properties)
}

// getOneByProp is getOne generalized to an arbitrary lookup property
// (see getOneRefByProp).
func getOneByProp(s *vsphere.Session, kind, propPath, value string, properties []string) (map[string]any, error) {
	ctx := context.Background()
	ref, err := getOneRefByProp(ctx, s, kind, propPath, value)
	if err != nil {
		return nil, err
	}
	return getOneRecord(ctx, s, *ref, kind, withName(properties), false)
}

// getOneReply wraps getOne into a one-record wire.Reply, the shape
// most *.get handlers return directly.
func getOneReply(s *vsphere.Session, kind, name string, properties []string) wire.Reply {
	rec, err := getOne(s, kind, name, properties)
	if err != nil {
		return wire.Err(err.Error())
	}
	return wire.OK("Successfully retrieved object properties", []map[string]any{rec})
}

// getOneReplyByProp is getOneReply generalized to an arbitrary lookup
// property.
func getOneReplyByProp(s *vsphere.Session, kind, propPath, value string, properties []string) wire.Reply {
	rec, err := getOneByProp(s, kind, propPath, value, properties)
	if err != nil {
		return wire.Err(err.Error())
	}
	return wire.OK("Successfully retrieved object properties", []map[string]any{rec})
}

// asMoRefs normalizes a collected relationship property's value
// (typically an ArrayOf* SOAP wrapper, occasionally a bare slice or a
// single reference) into a plain slice.
func asMoRefs(v any) []types.ManagedObjectReference {
	switch t := v.(type) {
	case types.ArrayOfManagedObjectReference:
		return t.ManagedObjectReference
	case []types.ManagedObjectReference:
		return t
	case types.ManagedObjectReference:
		return []types.ManagedObjectReference{t}
	default:
		return nil
	}
}

// crossEntityGet implements spec.md §4.5's Cross-entity-get template:
// Get-one collecting relProp, then list_view the returned objects and
// collect relKind's "name" (grounded on host_vm_get/host_net_get/
// host_datastore_get and their datastore.*/vm.* mirrors).
func crossEntityGet(s *vsphere.Session, kind, name, relProp, relKind string) wire.Reply {
	return crossEntityGetByProp(s, kind, "name", name, relProp, relKind)
}

// crossEntityGetByProp is crossEntityGet generalized to an arbitrary
// lookup property (see getOneRefByProp).
func crossEntityGetByProp(s *vsphere.Session, kind, propPath, value, relProp, relKind string) wire.Reply {
	ctx := context.Background()
	ref, err := getOneRefByProp(ctx, s, kind, propPath, value)
	if err != nil {
		return wire.Err(err.Error())
	}
	rec, err := getOneRecord(ctx, s, *ref, kind, []string{relProp}, false)
	if err != nil {
		return wire.Err(err.Error())
	}

	related := asMoRefs(rec[relProp])
	if len(related) == 0 {
		return wire.OK("Successfully discovered objects", nil)
	}

	v, err := s.ListView(ctx, related)
	if err != nil {
		return wire.Err(err.Error())
	}
	defer v.Destroy(ctx)

	records, err := s.CollectProperties(ctx, v, relKind, []string{"name"}, false)
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}
	return wire.OK("Successfully discovered objects", records)
}

// asAlarmStates normalizes a collected triggeredAlarmState value.
func asAlarmStates(v any) []types.AlarmState {
	switch t := v.(type) {
	case types.ArrayOfAlarmState:
		return t.AlarmState
	case []types.AlarmState:
		return t
	default:
		return nil
	}
}

// alarmInfoNames resolves each distinct alarm's display name via one
// batched property-collector round trip, since AlarmState.Key is only
// a reference (grounded on _object_alarm_get's `alarm.alarm.info.name`
// dereference, which pyVmomi performs lazily and transparently).
func alarmInfoNames(ctx context.Context, s *vsphere.Session, states []types.AlarmState) (map[types.ManagedObjectReference]string, error) {
	seen := make(map[types.ManagedObjectReference]bool)
	refs := make([]types.ManagedObjectReference, 0, len(states))
	for _, st := range states {
		if !seen[st.Key] {
			seen[st.Key] = true
			refs = append(refs, st.Key)
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}

	v, err := s.ListView(ctx, refs)
	if err != nil {
		return nil, err
	}
	defer v.Destroy(ctx)

	records, err := s.CollectProperties(ctx, v, "Alarm", []string{"info"}, true)
	if err != nil {
		return nil, err
	}
	out := make(map[types.ManagedObjectReference]string, len(records))
	for _, rec := range records {
		ref, _ := rec["obj"].(types.ManagedObjectReference)
		if info, ok := rec["info"].(types.AlarmInfo); ok {
			out[ref] = info.Name
		}
	}
	return out, nil
}

// alarmGet implements spec.md §4.5's Alarm-get template: Get-one with
// properties=["triggeredAlarmState"], flattened into the seven-key
// shape invariant 4 requires.
func alarmGet(s *vsphere.Session, kind, name string) wire.Reply {
	return alarmGetByProp(s, kind, "name", name)
}

// alarmGetByProp is alarmGet generalized to an arbitrary lookup
// property (see getOneRefByProp).
func alarmGetByProp(s *vsphere.Session, kind, propPath, value string) wire.Reply {
	ctx := context.Background()
	ref, err := getOneRefByProp(ctx, s, kind, propPath, value)
	if err != nil {
		return wire.Err(err.Error())
	}
	rec, err := getOneRecord(ctx, s, *ref, kind, []string{"triggeredAlarmState"}, false)
	if err != nil {
		return wire.Err(err.Error())
	}

	states := asAlarmStates(rec["triggeredAlarmState"])
	if len(states) == 0 {
		return wire.OK("Successfully retrieved alarms", nil)
	}

	infoByAlarm, err := alarmInfoNames(ctx, s, states)
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}

	records := make([]map[string]any, 0, len(states))
	for _, st := range states {
		acked := false
		if st.Acknowledged != nil {
			acked = *st.Acknowledged
		}
		records = append(records, map[string]any{
			"key":                st.Key.Value,
			"info":               infoByAlarm[st.Key],
			"time":               st.Time.Format("2006-01-02T15:04:05Z07:00"),
			"entity":             st.Entity.Value,
			"acknowledged":       acked,
			"overallStatus":      string(st.OverallStatus),
			"acknowledgedByUser": st.AcknowledgedByUser,
		})
	}
	return wire.OK("Successfully retrieved alarms", records)
}

// counterName renders a CounterInfo as the four-part dotted form
// group.name.unit.rollup, grounded on _get_counter_by_name's
// identical string template.
func counterName(info types.PerfCounterInfo) string {
	return fmt.Sprintf("%s.%s.%s.%s", info.GroupInfo.GetElementDescription().Key, info.NameInfo.GetElementDescription().Key, info.UnitInfo.GetElementDescription().Key, string(info.RollupType))
}

// perfMetricInfo implements spec.md §4.5's Perf-metric-info template.
func perfMetricInfo(s *vsphere.Session, kind, name, counterFilter string) wire.Reply {
	return perfMetricInfoByProp(s, kind, "name", name, counterFilter)
}

// perfMetricInfoByProp is perfMetricInfo generalized to an arbitrary
// lookup property (see getOneRefByProp).
func perfMetricInfoByProp(s *vsphere.Session, kind, propPath, name, counterFilter string) wire.Reply {
	ctx := context.Background()
	ref, err := getOneRefByProp(ctx, s, kind, propPath, name)
	if err != nil {
		return wire.Err(err.Error())
	}

	var filterID int32
	var hasFilter bool
	if counterFilter != "" {
		id, ok, err := s.CounterNameToID(ctx, counterFilter)
		if err != nil {
			return wire.Errf("Cannot collect properties: %s", err)
		}
		if !ok {
			return wire.Err("Unknown performance counter requested")
		}
		filterID, hasFilter = id, true
	}

	summary, err := s.ProviderSummary(ctx, *ref)
	if err != nil {
		return wire.Errf("Cannot retrieve performance metrics for %s: %s", name, err)
	}

	var intervalID int32
	if summary.CurrentSupported {
		intervalID = summary.RefreshRate
	}
	metrics, err := s.AvailablePerfMetrics(ctx, *ref, intervalID)
	if err != nil {
		return wire.Errf("Cannot retrieve performance metrics for %s: %s", name, err)
	}

	records := make([]map[string]any, 0, len(metrics))
	for _, m := range metrics {
		if hasFilter && m.CounterId != filterID {
			continue
		}
		name, ok, err := s.CounterIDToName(ctx, m.CounterId)
		if err != nil {
			return wire.Errf("Cannot collect properties: %s", err)
		}
		if !ok {
			continue
		}
		records = append(records, map[string]any{
			"counterId": name,
			"instance":  m.Instance,
		})
	}
	return wire.OK("Successfully retrieved performance metrics", records)
}

// perfMetricGet implements spec.md §4.5's Perf-metric-get template.
func perfMetricGet(s *vsphere.Session, kind, name, counterName, intervalName, instance string, maxSample int) wire.Reply {
	return perfMetricGetByProp(s, kind, "name", name, counterName, intervalName, instance, maxSample)
}

// perfMetricGetByProp is perfMetricGet generalized to an arbitrary
// lookup property (see getOneRefByProp).
func perfMetricGetByProp(s *vsphere.Session, kind, propPath, name, counterName, intervalName, instance string, maxSample int) wire.Reply {
	ctx := context.Background()
	ref, err := getOneRefByProp(ctx, s, kind, propPath, name)
	if err != nil {
		return wire.Err(err.Error())
	}

	summary, err := s.ProviderSummary(ctx, *ref)
	if err != nil {
		return wire.Errf("Cannot retrieve performance metrics for %s: %s", name, err)
	}

	if !summary.CurrentSupported && intervalName == "" {
		return wire.Err(vperrors.NewHistoricalIntervalRequired(name).Error())
	}

	var intervalID int32
	if intervalName != "" {
		interval, ok, err := s.HistoricalIntervalByName(ctx, intervalName)
		if err != nil {
			return wire.Errf("Cannot collect properties: %s", err)
		}
		if !ok {
			return wire.Errf("Historical interval %s does not exists", intervalName)
		}
		intervalID = interval.SamplingPeriod
	} else {
		intervalID = summary.RefreshRate
	}

	counterID, ok, err := s.CounterNameToID(ctx, counterName)
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}
	if !ok {
		return wire.Err("Unknown performance counter requested")
	}

	spec := types.PerfQuerySpec{
		Entity:     *ref,
		MaxSample:  int32(maxSample),
		MetricId:   []types.PerfMetricId{{CounterId: counterID, Instance: instance}},
		IntervalId: intervalID,
	}
	samples, err := s.QueryPerf(ctx, []types.PerfQuerySpec{spec})
	if err != nil {
		return wire.Errf("Cannot retrieve performance metrics for %s: %s", name, err)
	}

	var records []map[string]any
	for _, sample := range samples {
		series, ok := sample.(*types.PerfEntityMetric)
		if !ok {
			continue
		}
		for _, v := range series.Value {
			intSeries, ok := v.(*types.PerfMetricIntSeries)
			if !ok {
				continue
			}
			for i, info := range series.SampleInfo {
				if i >= len(intSeries.Value) {
					break
				}
				records = append(records, map[string]any{
					"interval":  info.Interval,
					"timestamp": info.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
					"counterId": counterName,
					"instance":  intSeries.Id.Instance,
					"value":     intSeries.Value[i],
				})
			}
		}
	}
	return wire.OK("Successfully retrieved performance metrics", records)
}
