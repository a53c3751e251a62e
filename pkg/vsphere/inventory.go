package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// About returns the vCenter/ESXi ServiceContent.About struct backing
// the top-level "about" task (spec.md §4.4 top-level catalog),
// grounded on original_source/src/vpoller/vsphere/tasks.py's
// about(agent, msg) reading agent.si.content.about.
func (s *Session) About() types.AboutInfo {
	return s.client.ServiceContent.About
}

// LatestEvent returns the fully formatted message of the most recent
// event registered on the host, backing "event.latest" (grounded on
// tasks.py's event_latest reading
// agent.si.content.eventManager.latestEvent.fullFormattedMessage).
func (s *Session) LatestEvent(ctx context.Context) (string, error) {
	var em mo.EventManager
	pc := property.DefaultCollector(s.vimClient())
	ref := s.client.ServiceContent.EventManager
	if ref == nil {
		return "", fmt.Errorf("event manager not available")
	}
	if err := pc.RetrieveOne(ctx, *ref, []string{"latestEvent"}, &em); err != nil {
		return "", fmt.Errorf("retrieve latest event: %w", err)
	}
	if em.LatestEvent == nil {
		return "", nil
	}
	return em.LatestEvent.GetEvent().FullFormattedMessage, nil
}

// Sessions returns the established vSphere sessions, backing
// "session.get" (grounded on tasks.py's session_get reading
// agent.si.content.sessionManager.sessionList).
func (s *Session) Sessions(ctx context.Context) ([]types.UserSession, error) {
	var sm mo.SessionManager
	pc := property.DefaultCollector(s.vimClient())
	ref := s.client.ServiceContent.SessionManager
	if ref == nil {
		return nil, fmt.Errorf("session manager not available")
	}
	if err := pc.RetrieveOne(ctx, *ref, []string{"sessionList"}, &sm); err != nil {
		return nil, fmt.Errorf("retrieve session list: %w", err)
	}
	return sm.SessionList, nil
}
