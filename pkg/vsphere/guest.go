package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/types"
)

// ListProcessesInGuest runs the guest-operations ListProcessesInGuest
// call used by vm.process.get, authenticating with an in-guest
// username/password (spec.md §7 error 8's guest-agent precondition).
func (s *Session) ListProcessesInGuest(ctx context.Context, vm types.ManagedObjectReference, username, password string) ([]types.GuestProcessInfo, error) {
	gom := object.NewGuestOperationsManager(s.vimClient())
	pm, err := gom.ProcessManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("process manager: %w", err)
	}

	auth := &types.NamePasswordAuthentication{
		GuestAuthentication: types.GuestAuthentication{InteractiveSession: false},
		Username:            username,
		Password:            password,
	}

	procs, err := pm.ListProcesses(ctx, object.NewVirtualMachine(s.vimClient(), vm), auth, nil)
	if err != nil {
		return nil, fmt.Errorf("list processes in guest: %w", err)
	}
	return procs, nil
}
