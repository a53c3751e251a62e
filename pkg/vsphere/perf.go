package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// ProviderSummary returns {currentSupported, summarySupported,
// refreshRate} for entity (spec.md §4.5 performance-manager call 1).
func (s *Session) ProviderSummary(ctx context.Context, entity types.ManagedObjectReference) (*types.PerfProviderSummary, error) {
	summary, err := s.perf.ProviderSummary(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("query perf provider summary: %w", err)
	}
	return &summary, nil
}

// AvailablePerfMetrics returns the metrics entity currently exposes,
// optionally scoped to an historical interval id (spec.md §4.5
// performance-manager call 2). An intervalID of 0 leaves the interval
// unset in the query; pass the provider's refresh rate for real-time.
func (s *Session) AvailablePerfMetrics(ctx context.Context, entity types.ManagedObjectReference, intervalID int32) ([]types.PerfMetricId, error) {
	metrics, err := s.perf.AvailableMetric(ctx, entity, intervalID)
	if err != nil {
		return nil, fmt.Errorf("query available perf metric: %w", err)
	}
	return []types.PerfMetricId(metrics), nil
}

// ensureCatalog lazily loads and caches the full performance-counter
// catalog and the historical-interval list on first access, providing
// bidirectional id<->name translation keyed on the four-part dotted
// form group.name.unit.rollup (spec.md §4.5's closing paragraph).
func (s *Session) ensureCatalog(ctx context.Context) error {
	s.catalogOnce.Do(func() {
		counters, err := s.perf.CounterInfoByName(ctx)
		if err != nil {
			s.catalogErr = fmt.Errorf("load perf counter catalog: %w", err)
			return
		}
		s.nameToID = make(map[string]int32, len(counters))
		s.idToName = make(map[int32]string, len(counters))
		s.counterInfos = make(map[string]types.PerfCounterInfo, len(counters))
		for name, info := range counters {
			s.nameToID[name] = info.Key
			s.idToName[info.Key] = name
			s.counterInfos[name] = info
		}

		var pm mo.PerformanceManager
		pc := property.DefaultCollector(s.vimClient())
		if err := pc.RetrieveOne(ctx, *s.vimClient().ServiceContent.PerfManager, []string{"historicalInterval"}, &pm); err != nil {
			s.catalogErr = fmt.Errorf("load historical intervals: %w", err)
			return
		}
		s.intervals = pm.HistoricalInterval
	})
	return s.catalogErr
}

// CounterNameToID translates a four-part dotted counter name to its
// numeric id.
func (s *Session) CounterNameToID(ctx context.Context, name string) (int32, bool, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return 0, false, err
	}
	id, ok := s.nameToID[name]
	return id, ok, nil
}

// CounterIDToName translates a numeric counter id to its four-part
// dotted name.
func (s *Session) CounterIDToName(ctx context.Context, id int32) (string, bool, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return "", false, err
	}
	name, ok := s.idToName[id]
	return name, ok, nil
}

// AllCounters returns a copy of the full name->id catalog. No task
// handler calls it; perf.metric.info uses AllCounterInfos instead.
func (s *Session) AllCounters(ctx context.Context) (map[string]int32, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]int32, len(s.nameToID))
	for k, v := range s.nameToID {
		out[k] = v
	}
	return out, nil
}

// AllCounterInfos returns the full performance-counter descriptor
// catalog, backing "perf.metric.info" (grounded on
// original_source/src/vpoller/vsphere/tasks.py's perf_metric_info,
// which iterates agent.perf_counter's full CounterInfo objects rather
// than just name<->id pairs).
func (s *Session) AllCounterInfos(ctx context.Context) ([]types.PerfCounterInfo, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	out := make([]types.PerfCounterInfo, 0, len(s.counterInfos))
	for _, info := range s.counterInfos {
		out = append(out, info)
	}
	return out, nil
}

// HistoricalIntervals returns the cached historical-interval catalog
// (spec.md's "Historical interval" glossary entry).
func (s *Session) HistoricalIntervals(ctx context.Context) ([]mo.HistoricalInterval, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	return s.intervals, nil
}

// HistoricalIntervalByName looks up an interval by its display name
// (e.g. "Past day"), used by the perf-metric-get template's
// perf-interval handling.
func (s *Session) HistoricalIntervalByName(ctx context.Context, name string) (*mo.HistoricalInterval, bool, error) {
	intervals, err := s.HistoricalIntervals(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range intervals {
		if intervals[i].Name == name {
			return &intervals[i], true, nil
		}
	}
	return nil, false, nil
}

// QueryPerf runs a performance query against one or more specs (spec.md
// §4.5 performance-manager call 4).
func (s *Session) QueryPerf(ctx context.Context, specs []types.PerfQuerySpec) ([]types.BasePerfEntityMetricBase, error) {
	result, err := s.perf.Query(ctx, specs)
	if err != nil {
		return nil, fmt.Errorf("query perf: %w", err)
	}
	return result, nil
}
