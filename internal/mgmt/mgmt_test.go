package mgmt_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vsphere-proxy/internal/mgmt"
	"github.com/kubev2v/vsphere-proxy/pkg/transport"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func TestMgmt(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mgmt Suite")
}

var mgmtPort = 19100

func nextMgmtEndpoints() (bind, connect string) {
	mgmtPort++
	return fmt.Sprintf("tcp://*:%d", mgmtPort), fmt.Sprintf("tcp://127.0.0.1:%d", mgmtPort)
}

var _ = Describe("Server", func() {
	var (
		srv    *mgmt.Server
		cancel context.CancelFunc
		client *transport.Client
	)

	BeforeEach(func() {
		bindEP, connectEP := nextMgmtEndpoints()

		var err error
		srv, err = mgmt.NewServer(bindEP)
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		go srv.Run(ctx)

		client = transport.NewClient(connectEP)
		client.Attempts = 1
		client.Timeout = 2 * time.Second
	})

	AfterEach(func() {
		cancel()
		srv.Close()
	})

	It("answers a registered method", func() {
		srv.Handle("status", func() wire.Reply {
			return wire.OK("Successfully retrieved proxy status", []map[string]any{{"role": "proxy"}})
		})

		reply := send(client, `{"method":"status"}`)
		Expect(reply.Success).To(Equal(0))
		Expect(reply.Msg).To(Equal("Successfully retrieved proxy status"))
		Expect(reply.Result).To(HaveLen(1))
	})

	It("rejects a request with no method name", func() {
		reply := send(client, `{}`)
		Expect(reply.Success).To(Equal(1))
		Expect(reply.Msg).To(Equal("Missing method name"))
	})

	It("rejects an unregistered method", func() {
		reply := send(client, `{"method":"nope"}`)
		Expect(reply.Success).To(Equal(1))
		Expect(reply.Msg).To(Equal("Unknown method name received"))
	})
})

func send(client *transport.Client, payload string) wire.Reply {
	raw, err := client.Request([]byte(payload))
	Expect(err).NotTo(HaveOccurred())
	var reply wire.Reply
	Expect(json.Unmarshal(raw, &reply)).To(Succeed())
	return reply
}
