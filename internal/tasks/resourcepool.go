package tasks

import (
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func init() {
	register("resource.pool.discover", nil, resourcePoolDiscover)
	register("resource.pool.get", []string{"name", "properties"}, resourcePoolGet)
}

func resourcePoolDiscover(s *vsphere.Session, req wire.Request) wire.Reply {
	return discover(s, "ResourcePool", req.Properties)
}

func resourcePoolGet(s *vsphere.Session, req wire.Request) wire.Reply {
	return getOneReply(s, "ResourcePool", req.Name, req.Properties)
}
