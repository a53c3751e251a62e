package tasks

import (
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func init() {
	register("cluster.discover", nil, clusterDiscover)
	register("cluster.get", []string{"name", "properties"}, clusterGet)
	register("cluster.alarm.get", []string{"name"}, clusterAlarmGet)
	register("cluster.perf.metric.get", []string{"name", "counter-name", "perf-interval"}, clusterPerfMetricGet)
	register("cluster.perf.metric.info", nil, clusterPerfMetricInfo)
}

func clusterDiscover(s *vsphere.Session, req wire.Request) wire.Reply {
	return discover(s, "ClusterComputeResource", req.Properties)
}

func clusterGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return getOneReply(s, "ClusterComputeResource", req.Name, req.Properties)
}

func clusterAlarmGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return alarmGet(s, "ClusterComputeResource", req.Name)
}

func clusterPerfMetricGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return perfMetricGet(s, "ClusterComputeResource", req.Name, req.CounterName, req.PerfInterval, req.Instance, req.MaxSampleOrDefault())
}

func clusterPerfMetricInfo(s *vsphere.Session, req wire.Request) wire.Reply {
	return perfMetricInfo(s, "ClusterComputeResource", req.Name, req.CounterName)
}
