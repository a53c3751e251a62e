package registry_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vsphere-proxy/pkg/registry"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func TestRegistry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Registry Suite")
}

type fakeSession struct {
	connected bool
	host      string
}

func (f *fakeSession) Connected() bool { return f.connected }
func (f *fakeSession) Connect() error  { f.connected = true; return nil }
func (f *fakeSession) Disconnect()     { f.connected = false }
func (f *fakeSession) Host() string    { return f.host }

var _ = Describe("Registry", func() {
	var r *registry.Registry

	BeforeEach(func() {
		r = registry.New()
	})

	It("looks up the same descriptor for the same name across calls", func() {
		r.Register(registry.Descriptor{
			Name:     "vm.get",
			Required: []string{"name", "properties"},
			Handler: func(s registry.Session, req wire.Request) wire.Reply {
				return wire.OK("ok", nil)
			},
		})

		d1, ok1 := r.Lookup("vm.get")
		d2, ok2 := r.Lookup("vm.get")
		Expect(ok1).To(BeTrue())
		Expect(ok2).To(BeTrue())
		Expect(d1.Name).To(Equal(d2.Name))
		Expect(d1.Required).To(Equal(d2.Required))
	})

	It("reports unknown names as not found", func() {
		_, ok := r.Lookup("no.such.task")
		Expect(ok).To(BeFalse())
	})

	It("computes missing required keys", func() {
		d := registry.Descriptor{Name: "datastore.get", Required: []string{"name", "properties"}}
		missing := d.MissingRequired(wire.Request{Method: "datastore.get", Hostname: "vc01", Name: "ds-1"})
		Expect(missing).To(ConsistOf("properties"))
	})

	It("converts a panicking handler into a failed-task reply", func() {
		r.Register(registry.Descriptor{
			Name: "boom",
			Handler: func(s registry.Session, req wire.Request) wire.Reply {
				panic("kaboom")
			},
		})

		d, ok := r.Lookup("boom")
		Expect(ok).To(BeTrue())

		reply := d.Handler(&fakeSession{}, wire.Request{Method: "boom", Hostname: "vc01"})
		Expect(reply.Success).To(Equal(1))
		Expect(reply.Msg).To(Equal("Task boom failed"))
		Expect(reply.Traceback).NotTo(BeEmpty())
	})

	It("panics when the same name is registered twice", func() {
		r.Register(registry.Descriptor{Name: "dup", Handler: func(registry.Session, wire.Request) wire.Reply { return wire.Reply{} }})
		Expect(func() {
			r.Register(registry.Descriptor{Name: "dup", Handler: func(registry.Session, wire.Request) wire.Reply { return wire.Reply{} }})
		}).To(Panic())
	})
})
