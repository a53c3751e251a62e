package formatter_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vsphere-proxy/pkg/formatter"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func TestFormatter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Formatter Suite")
}

var okReply = wire.Reply{
	Success: 0,
	Result: []map[string]any{
		{"name": "esx01.example.com", "numCpuCores": 16},
		{"name": "esx02.example.com", "numCpuCores": 32},
	},
}

var _ = Describe("Registry", func() {
	reg := formatter.NewRegistry(formatter.Zabbix{}, formatter.CSV{})

	It("falls back to JSON when no helper is requested", func() {
		payload := reg.Apply(wire.Request{Method: "host.discover"}, okReply)
		Expect(string(payload)).To(Equal(string(okReply.Marshal())))
	})

	It("falls back to JSON when the requested helper is not loaded", func() {
		payload := reg.Apply(wire.Request{Method: "host.discover", Helper: "nope"}, okReply)
		Expect(string(payload)).To(Equal(string(okReply.Marshal())))
	})
})

var _ = Describe("JSON formatter", func() {
	It("returns the reply unchanged", func() {
		f := formatter.JSON{}
		Expect(f.Run(wire.Request{}, okReply)).To(Equal(string(okReply.Marshal())))
	})
})

var _ = Describe("Zabbix formatter", func() {
	f := formatter.Zabbix{}

	It("extracts a single item value for a .get method", func() {
		req := wire.Request{Method: "host.get", Properties: []string{"numCpuCores"}}
		Expect(f.Run(req, okReply)).To(Equal("32"))
	})

	It("builds LLD macro data for a .discover method", func() {
		req := wire.Request{Method: "host.discover"}
		out := f.Run(req, okReply)
		Expect(out).To(ContainSubstring(`{#VSPHERE.HOST.NAME}`))
		Expect(out).To(ContainSubstring(`esx01.example.com`))
	})

	It("counts matching guest processes for vm.process.get", func() {
		req := wire.Request{Method: "vm.process.get", Key: "agent"}
		reply := wire.Reply{Success: 0, Result: []map[string]any{
			{"cmdLine": "/usr/bin/agent --foo"},
			{"cmdLine": "/usr/bin/other"},
		}}
		Expect(f.Run(req, reply)).To(Equal("1"))
	})

	It("passes failed replies through untouched", func() {
		reply := wire.Reply{Success: 1, Msg: "boom"}
		Expect(f.Run(wire.Request{Method: "host.get"}, reply)).To(Equal(string(reply.Marshal())))
	})
})

var _ = Describe("CSV formatter", func() {
	f := formatter.CSV{}

	It("writes a sorted header row and substitutes None for missing fields", func() {
		reply := wire.Reply{Success: 0, Result: []map[string]any{
			{"name": "esx01", "numCpuCores": 16},
			{"name": "esx02"},
		}}
		out := f.Run(wire.Request{}, reply)
		Expect(out).To(Equal("name,numCpuCores\nesx01,16\nesx02,None\n"))
	})

	It("passes failed replies through untouched", func() {
		reply := wire.Reply{Success: 1, Msg: "boom"}
		Expect(f.Run(wire.Request{}, reply)).To(Equal(string(reply.Marshal())))
	})
})
