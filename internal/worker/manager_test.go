package worker

import (
	"context"
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vsphere-proxy/internal/config"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func TestManager(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Manager Suite")
}

var managerPort = 19700

func nextManagerEndpoint() string {
	managerPort++
	return fmt.Sprintf("tcp://*:%d", managerPort)
}

var _ = Describe("buildFormatterRegistry", func() {
	It("only loads the names it recognizes", func() {
		reg := buildFormatterRegistry([]string{"csv", "bogus"})

		req := wire.Request{Method: "datastore.get", Helper: "csv"}
		reply := wire.OK("ok", []map[string]any{{"name": "ds-1"}})
		Expect(reg.Apply(req, reply)).NotTo(Equal(reply.Marshal()))

		unknown := wire.Request{Method: "datastore.get", Helper: "bogus"}
		Expect(reg.Apply(unknown, reply)).To(Equal(reply.Marshal()))
	})
})

var _ = Describe("Manager", func() {
	It("reports its own configuration from status", func() {
		m := &Manager{
			cfg: config.WorkerConfig{
				Mgmt:    "tcp://*:19701",
				Proxy:   "tcp://127.0.0.1:10123",
				DB:      ":memory:",
				Helpers: "csv",
			},
			workers: make([]*Worker, 3),
		}

		reply := m.status()
		Expect(reply.Success).To(Equal(0))
		Expect(reply.Result).To(HaveLen(1))
		record := reply.Result[0]
		Expect(record["role"]).To(Equal("worker"))
		Expect(record["concurrency"]).To(Equal(3))
		Expect(record["proxy"]).To(Equal(m.cfg.Proxy))
	})

	It("fails fast when the credential store has no enabled agents", func() {
		_, err := NewManager(context.Background(), config.WorkerConfig{
			Mgmt:  nextManagerEndpoint(),
			Proxy: "tcp://127.0.0.1:10123",
			DB:    ":memory:",
		}, 1)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("No registered or enabled vSphere Agents found"))
	})
})
