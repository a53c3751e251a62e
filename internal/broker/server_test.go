package broker_test

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vsphere-proxy/internal/broker"
	"github.com/kubev2v/vsphere-proxy/internal/config"
	"github.com/kubev2v/vsphere-proxy/pkg/transport"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

var serverEndpointCounter = 19400

func nextProxyConfig() config.ProxyConfig {
	serverEndpointCounter += 3
	base := serverEndpointCounter
	return config.ProxyConfig{
		Mgmt:     fmt.Sprintf("tcp://127.0.0.1:%d", base),
		Frontend: fmt.Sprintf("tcp://127.0.0.1:%d", base+1),
		Backend:  fmt.Sprintf("tcp://*:%d", base+2),
	}
}

var _ = Describe("Proxy", func() {
	var (
		p   *broker.Proxy
		cfg config.ProxyConfig
	)

	BeforeEach(func() {
		cfg = nextProxyConfig()

		var err error
		p, err = broker.NewProxy(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("answers a status request describing its own endpoints", func() {
		ctx, cancel := context.WithCancel(context.Background())
		go p.Run(ctx)
		defer func() {
			cancel()
			p.Close()
		}()

		client := transport.NewClient(cfg.Mgmt)
		client.Attempts = 1
		client.Timeout = 2 * time.Second

		raw, err := client.Request([]byte(`{"method":"status"}`))
		Expect(err).NotTo(HaveOccurred())

		var reply wire.Reply
		Expect(json.Unmarshal(raw, &reply)).To(Succeed())
		Expect(reply.Success).To(Equal(0))
		Expect(reply.Result).To(HaveLen(1))
		Expect(reply.Result[0]["role"]).To(Equal("proxy"))
		Expect(reply.Result[0]["frontend"]).To(Equal(cfg.Frontend))
		Expect(reply.Result[0]["backend"]).To(Equal(cfg.Backend))
	})

	It("stops Run once shutdown is requested over mgmt", func() {
		ctx := context.Background()
		runDone := make(chan struct{})
		go func() {
			defer close(runDone)
			p.Run(ctx)
		}()
		defer p.Close()

		client := transport.NewClient(cfg.Mgmt)
		client.Attempts = 1
		client.Timeout = 2 * time.Second

		raw, err := client.Request([]byte(`{"method":"shutdown"}`))
		Expect(err).NotTo(HaveOccurred())

		var reply wire.Reply
		Expect(json.Unmarshal(raw, &reply)).To(Succeed())
		Expect(reply.Success).To(Equal(0))

		Eventually(runDone, 2*time.Second).Should(BeClosed())
	})
})
