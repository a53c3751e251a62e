package tasks_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/vmware/govmomi/simulator"

	_ "github.com/kubev2v/vsphere-proxy/internal/tasks"
	"github.com/kubev2v/vsphere-proxy/pkg/registry"
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func TestTasks(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Tasks Suite")
}

var (
	model  *simulator.Model
	server *simulator.Server
	sess   *vsphere.Session
)

var _ = BeforeSuite(func() {
	model = simulator.VPX()
	Expect(model.Create()).To(Succeed())
	server = model.Service.NewServer()

	sess = vsphere.New(vsphere.Config{
		Host:     server.URL.Host,
		User:     server.URL.User.Username(),
		Password: mustPassword(server),
		Insecure: true,
	})
	Expect(sess.Connect()).To(Succeed())
})

var _ = AfterSuite(func() {
	sess.Disconnect()
	server.Close()
	model.Remove()
})

func mustPassword(s *simulator.Server) string {
	password, _ := s.URL.User.Password()
	return password
}

// call looks up name in the process-wide registry (populated by this
// package's init() functions, imported for side effect above) and
// invokes it directly against the simulator-backed session, bypassing
// the wire/worker layers this package knows nothing about.
func call(name string, req wire.Request) wire.Reply {
	d, ok := registry.Default.Lookup(name)
	Expect(ok).To(BeTrue(), "task %q not registered", name)
	return d.Handler(sess, req)
}

var _ = Describe("datacenter tasks", func() {
	It("discovers the simulator's default datacenter", func() {
		reply := call("datacenter.discover", wire.Request{Method: "datacenter.discover"})
		Expect(reply.Success).To(Equal(0))
		Expect(reply.Result).NotTo(BeEmpty())
		Expect(reply.Result[0]).To(HaveKey("name"))
	})

	It("gets one datacenter by name", func() {
		discovered := call("datacenter.discover", wire.Request{Method: "datacenter.discover"})
		name, _ := discovered.Result[0]["name"].(string)
		Expect(name).NotTo(BeEmpty())

		reply := call("datacenter.get", wire.Request{
			Method: "datacenter.get", Name: name, Properties: []string{"name"},
		})
		Expect(reply.Success).To(Equal(0))
		Expect(reply.Result).To(HaveLen(1))
		Expect(reply.Result[0]["name"]).To(Equal(name))
	})

	It("reports a not-found error for an unknown name", func() {
		reply := call("datacenter.get", wire.Request{
			Method: "datacenter.get", Name: "no-such-dc", Properties: []string{"name"},
		})
		Expect(reply.Success).To(Equal(1))
		Expect(reply.Msg).To(ContainSubstring("no-such-dc"))
	})
})

var _ = Describe("host tasks", func() {
	It("discovers at least one host", func() {
		reply := call("host.discover", wire.Request{Method: "host.discover"})
		Expect(reply.Success).To(Equal(0))
		Expect(reply.Result).NotTo(BeEmpty())
	})
})

var _ = Describe("vm tasks", func() {
	It("discovers at least one VM", func() {
		reply := call("vm.discover", wire.Request{Method: "vm.discover"})
		Expect(reply.Success).To(Equal(0))
		Expect(reply.Result).NotTo(BeEmpty())
	})
})

var _ = Describe("top-level tasks", func() {
	It("reports the simulator's About info", func() {
		reply := call("about", wire.Request{Method: "about"})
		Expect(reply.Success).To(Equal(0))
		Expect(reply.Result).To(HaveLen(1))
		Expect(reply.Result[0]).To(HaveKey("fullName"))
	})
})
