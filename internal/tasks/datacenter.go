package tasks

import (
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func init() {
	register("datacenter.discover", nil, datacenterDiscover)
	register("datacenter.get", []string{"name", "properties"}, datacenterGet)
	register("datacenter.alarm.get", []string{"name"}, datacenterAlarmGet)
	register("datacenter.perf.metric.get", []string{"name", "counter-name", "perf-interval"}, datacenterPerfMetricGet)
	register("datacenter.perf.metric.info", nil, datacenterPerfMetricInfo)
}

func datacenterDiscover(s *vsphere.Session, req wire.Request) wire.Reply {
	return discover(s, "Datacenter", req.Properties)
}

func datacenterGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return getOneReply(s, "Datacenter", req.Name, req.Properties)
}

func datacenterAlarmGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return alarmGet(s, "Datacenter", req.Name)
}

func datacenterPerfMetricGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return perfMetricGet(s, "Datacenter", req.Name, req.CounterName, req.PerfInterval, req.Instance, req.MaxSampleOrDefault())
}

func datacenterPerfMetricInfo(s *vsphere.Session, req wire.Request) wire.Reply {
	return perfMetricInfo(s, "Datacenter", req.Name, req.CounterName)
}
