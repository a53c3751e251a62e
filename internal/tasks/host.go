package tasks

import (
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func init() {
	register("host.discover", nil, hostDiscover)
	register("host.get", []string{"name", "properties"}, hostGet)
	register("host.alarm.get", []string{"name"}, hostAlarmGet)
	register("host.perf.metric.get", []string{"name", "counter-name"}, hostPerfMetricGet)
	register("host.perf.metric.info", []string{"name"}, hostPerfMetricInfo)
	register("host.cluster.get", []string{"name"}, hostClusterGet)
	register("host.vm.get", []string{"name"}, hostVMGet)
	register("host.net.get", []string{"name"}, hostNetGet)
	register("host.datastore.get", []string{"name"}, hostDatastoreGet)
}

func hostDiscover(s *vsphere.Session, req wire.Request) wire.Reply {
	return discover(s, "HostSystem", req.Properties)
}

func hostGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return getOneReply(s, "HostSystem", req.Name, req.Properties)
}

func hostAlarmGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return alarmGet(s, "HostSystem", req.Name)
}

func hostPerfMetricGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return perfMetricGet(s, "HostSystem", req.Name, req.CounterName, req.PerfInterval, req.Instance, req.MaxSampleOrDefault())
}

func hostPerfMetricInfo(s *vsphere.Session, req wire.Request) wire.Reply {
	return perfMetricInfo(s, "HostSystem", req.Name, req.CounterName)
}

func hostClusterGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return crossEntityGet(s, "HostSystem", req.Name, "parent", "ClusterComputeResource")
}

func hostVMGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return crossEntityGet(s, "HostSystem", req.Name, "vm", "VirtualMachine")
}

func hostNetGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return crossEntityGet(s, "HostSystem", req.Name, "network", "Network")
}

func hostDatastoreGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return crossEntityGet(s, "HostSystem", req.Name, "datastore", "Datastore")
}
