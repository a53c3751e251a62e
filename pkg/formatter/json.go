package formatter

import "github.com/kubev2v/vsphere-proxy/pkg/wire"

// JSON is the identity formatter: the default representation when a
// request carries no `helper`, and also selectable explicitly by name
// (spec.md §4.6).
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Run(_ wire.Request, reply wire.Reply) string {
	return string(reply.Marshal())
}
