package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/types"
)

// VSANHealth queries the VSAN health state of a host, grounded on
// vsphere/tasks.py's vsan_health_get, which dereferences
// `obj.configManager.vsanSystem.QueryHostStatus()`.
func (s *Session) VSANHealth(ctx context.Context, host types.ManagedObjectReference) (*types.VsanHostVsanSystemHealthResult, error) {
	hs := object.NewHostSystem(s.vimClient(), host)
	cm, err := hs.ConfigManager().VsanSystem(ctx)
	if err != nil {
		return nil, fmt.Errorf("vsan system: %w", err)
	}
	status, err := cm.QueryHostStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("query vsan host status: %w", err)
	}
	return status, nil
}
