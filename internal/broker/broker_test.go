package broker_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	czmq "github.com/zeromq/goczmq/v4"

	"github.com/kubev2v/vsphere-proxy/internal/broker"
	"github.com/kubev2v/vsphere-proxy/pkg/transport"
)

func TestBroker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Broker Suite")
}

var endpointCounter = 19200

// nextEndpoints returns a fresh port triple for each spec: a frontend
// address shared by both sides (ROUTER binds, REQ connects, by socket-type
// default) and a backend pair where the broker must bind a DEALER, so its
// address carries the wildcard host that forces bind, while the test's
// stand-in worker connects to the concrete loopback address on the same
// port.
func nextEndpoints() (frontend, backendBind, backendConnect string) {
	endpointCounter++
	port := endpointCounter
	return fmt.Sprintf("tcp://127.0.0.1:%d", port),
		fmt.Sprintf("tcp://*:%d", port+1000),
		fmt.Sprintf("tcp://127.0.0.1:%d", port+1000)
}

var _ = Describe("Broker", func() {
	var (
		b              *broker.Broker
		cancel         context.CancelFunc
		frontend       string
		backendBind    string
		backendConnect string
		workerSock     *czmq.Sock
	)

	BeforeEach(func() {
		frontend, backendBind, backendConnect = nextEndpoints()

		var err error
		b, err = broker.New(frontend, backendBind)
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		go b.Run(ctx)

		workerSock, err = transport.NewDealer(backendConnect)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cancel()
		workerSock.Destroy()
		b.Close()
	})

	It("forwards a client request to the worker-facing backend and the reply back", func() {
		client := transport.NewClient(frontend)
		client.Attempts = 1
		client.Timeout = 2 * time.Second

		done := make(chan struct{})
		var reply []byte
		var reqErr error
		go func() {
			defer close(done)
			reply, reqErr = client.Request([]byte(`{"method":"host.discover","hostname":"vc01"}`))
		}()

		frames, err := workerSock.RecvMessage()
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(HaveLen(3))
		Expect(frames[1]).To(BeEmpty())
		Expect(string(frames[2])).To(Equal(`{"method":"host.discover","hostname":"vc01"}`))

		Expect(workerSock.SendMessage([][]byte{frames[0], {}, []byte(`{"success":0,"msg":"ok"}`)})).To(Succeed())

		Eventually(done, 2*time.Second).Should(BeClosed())
		Expect(reqErr).NotTo(HaveOccurred())
		Expect(string(reply)).To(Equal(`{"success":0,"msg":"ok"}`))
	})

	It("reports the bound endpoints", func() {
		Expect(b.FrontendEndpoint()).To(Equal(frontend))
		Expect(b.BackendEndpoint()).To(Equal(backendBind))
	})
})
