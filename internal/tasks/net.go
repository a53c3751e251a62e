package tasks

import (
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func init() {
	register("net.discover", nil, netDiscover)
	register("net.get", []string{"name"}, netGet)
	register("net.host.get", []string{"name"}, netHostGet)
	register("net.vm.get", []string{"name"}, netVMGet)
}

func netDiscover(s *vsphere.Session, req wire.Request) wire.Reply {
	return discover(s, "Network", req.Properties)
}

func netGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return getOneReply(s, "Network", req.Name, req.Properties)
}

func netHostGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return crossEntityGet(s, "Network", req.Name, "host", "HostSystem")
}

func netVMGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return crossEntityGet(s, "Network", req.Name, "vm", "VirtualMachine")
}
