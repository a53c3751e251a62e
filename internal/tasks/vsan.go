package tasks

import (
	"context"

	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func init() {
	register("vsan.health.get", []string{"name"}, vsanHealthGet)
}

// vsanHealthGet is grounded on vsphere/tasks.py's vsan_health_get: a
// Get-one collecting the host's power/connection state, two
// preconditions on those, then a single VSAN health status query.
func vsanHealthGet(s *vsphere.Session, req wire.Request) wire.Reply {
	ctx := context.Background()
	ref, err := getOneRef(ctx, s, "HostSystem", req.Name)
	if err != nil {
		return wire.Err(err.Error())
	}
	rec, err := getOneRecord(ctx, s, *ref, "HostSystem", []string{"runtime.powerState", "runtime.connectionState"}, false)
	if err != nil {
		return wire.Err(err.Error())
	}

	if powerState, _ := rec["runtime.powerState"].(types.HostSystemPowerState); powerState != types.HostSystemPowerStatePoweredOn {
		return wire.Err("Host is not powered on, cannot get VSAN health state")
	}
	if connState, _ := rec["runtime.connectionState"].(types.HostSystemConnectionState); connState != types.HostSystemConnectionStateConnected {
		return wire.Err("Host is not connected, cannot get VSAN health state")
	}

	status, err := s.VSANHealth(ctx, *ref)
	if err != nil {
		return wire.Errf("Cannot retrieve VSAN health state: %s", err)
	}

	record := map[string]any{
		"name":     req.Name,
		"uuid":     status.Uuid,
		"nodeUuid": status.NodeUuid,
		"health":   status.Health,
	}
	return wire.OK("Successfully retrieved object properties", []map[string]any{record})
}
