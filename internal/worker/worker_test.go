package worker_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	czmq "github.com/zeromq/goczmq/v4"

	"github.com/kubev2v/vsphere-proxy/internal/worker"
	"github.com/kubev2v/vsphere-proxy/pkg/formatter"
	"github.com/kubev2v/vsphere-proxy/pkg/registry"
	"github.com/kubev2v/vsphere-proxy/pkg/transport"
	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func TestWorker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Worker Suite")
}

var workerPort = 19600

func nextWorkerEndpoints() (bind, connect string) {
	workerPort++
	return fmt.Sprintf("tcp://*:%d", workerPort), fmt.Sprintf("tcp://127.0.0.1:%d", workerPort)
}

// roundTrip sends payload from a fresh bare DEALER socket connected to a
// Worker's own DEALER socket (bound for the purpose of this test), in the
// same 3-frame envelope shape a real broker would forward (identity,
// empty delimiter, payload), and decodes the payload frame of the reply.
func roundTrip(connectEP, payload string) wire.Reply {
	peer, err := transport.NewDealer(connectEP)
	Expect(err).NotTo(HaveOccurred())
	defer peer.Destroy()
	Expect(peer.SendMessage([][]byte{[]byte("client-1"), {}, []byte(payload)})).To(Succeed())

	poller, err := transport.NewPoller(peer)
	Expect(err).NotTo(HaveOccurred())
	defer poller.Destroy()
	ready, err := poller.Wait(int(2 * time.Second / time.Millisecond))
	Expect(err).NotTo(HaveOccurred())
	Expect(ready).NotTo(BeNil())

	frames, err := ready.RecvMessage()
	Expect(err).NotTo(HaveOccurred())
	Expect(frames).To(HaveLen(3))

	var reply wire.Reply
	Expect(json.Unmarshal(frames[2], &reply)).To(Succeed())
	return reply
}

var _ = Describe("Worker", func() {
	var (
		reg        *registry.Registry
		formatters *formatter.Registry
		sessions   map[string]*vsphere.Session
		w          *worker.Worker
		cancel     context.CancelFunc
		connectEP  string
	)

	BeforeEach(func() {
		bindEP, cep := nextWorkerEndpoints()
		connectEP = cep

		reg = registry.New()
		reg.Register(registry.Descriptor{
			Name:     "datastore.get",
			Required: []string{"name", "properties"},
			Handler: func(s registry.Session, req wire.Request) wire.Reply {
				return wire.OK("ok", []map[string]any{{"name": req.Name}})
			},
		})
		formatters = formatter.NewRegistry()
		sessions = map[string]*vsphere.Session{
			"vc01": vsphere.New(vsphere.Config{Host: "vc01"}),
		}

		var err error
		w, err = worker.New(0, bindEP, sessions, reg, formatters)
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		go w.Run(ctx)
	})

	AfterEach(func() {
		cancel()
		w.Close()
	})

	It("rejects a request with no method name", func() {
		reply := roundTrip(connectEP, `{"hostname":"vc01"}`)
		Expect(reply.Success).To(Equal(1))
		Expect(reply.Msg).To(Equal("Missing method name"))
	})

	It("rejects a request for an unregistered host", func() {
		reply := roundTrip(connectEP, `{"method":"datastore.get","hostname":"nope"}`)
		Expect(reply.Success).To(Equal(1))
	})

	It("rejects a request for an unknown task", func() {
		reply := roundTrip(connectEP, `{"method":"no.such.task","hostname":"vc01"}`)
		Expect(reply.Success).To(Equal(1))
	})

	It("rejects a request missing required keys", func() {
		reply := roundTrip(connectEP, `{"method":"datastore.get","hostname":"vc01","name":"ds-1"}`)
		Expect(reply.Success).To(Equal(1))
	})

	It("rejects a malformed JSON payload as invalid", func() {
		reply := roundTrip(connectEP, `not json`)
		Expect(reply.Success).To(Equal(1))
		Expect(reply.Msg).To(Equal("Invalid message received"))
	})
})

var _ = Describe("malformed envelopes", func() {
	It("are dropped rather than crashing the poll loop", func() {
		bindEP, connectEP := nextWorkerEndpoints()

		reg := registry.New()
		formatters := formatter.NewRegistry()
		w, err := worker.New(0, bindEP, nil, reg, formatters)
		Expect(err).NotTo(HaveOccurred())
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		// A bare DEALER, unlike a REQ socket, does not auto-prepend the
		// empty delimiter frame, so this arrives as a single-frame
		// message that DecodeEnvelope rejects.
		stray, err := czmq.NewDealer(connectEP)
		Expect(err).NotTo(HaveOccurred())
		Expect(stray.SendMessage([][]byte{[]byte("short")})).To(Succeed())
		stray.Destroy()

		// The worker logged and dropped the stray frame; a well-formed
		// request on a fresh connection still gets a reply, proving the
		// poll loop survived it.
		reply := roundTrip(connectEP, `{}`)
		Expect(reply.Success).To(Equal(1))
		Expect(reply.Msg).To(Equal("Missing method name"))
	})
})
