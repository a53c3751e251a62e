package store_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vsphere-proxy/internal/store"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("Credentials", func() {
	var (
		ctx context.Context
		st  *store.Store
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		st, err = store.Open(ctx, ":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
	})

	It("round-trips an upserted host", func() {
		Expect(st.Upsert(ctx, store.Credential{
			Host: "vc01", User: "admin", Password: "s3cr3t", Enabled: true,
		})).To(Succeed())

		creds, err := st.Credentials(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(creds).To(HaveLen(1))
		Expect(creds[0]).To(Equal(store.Credential{
			Host: "vc01", User: "admin", Password: "s3cr3t", Enabled: true,
		}))
	})

	It("filters disabled hosts out of the enabled-only worker startup query", func() {
		Expect(st.Upsert(ctx, store.Credential{Host: "vc01", User: "u", Password: "p", Enabled: true})).To(Succeed())
		Expect(st.Upsert(ctx, store.Credential{Host: "vc02", User: "u", Password: "p", Enabled: false})).To(Succeed())

		creds, err := st.Credentials(ctx, store.ByEnabled(true))
		Expect(err).NotTo(HaveOccurred())
		Expect(creds).To(HaveLen(1))
		Expect(creds[0].Host).To(Equal("vc01"))
	})

	It("updates an existing host's credentials in place on re-upsert", func() {
		Expect(st.Upsert(ctx, store.Credential{Host: "vc01", User: "old", Password: "old", Enabled: true})).To(Succeed())
		Expect(st.Upsert(ctx, store.Credential{Host: "vc01", User: "new", Password: "new", Enabled: true})).To(Succeed())

		creds, err := st.Credentials(ctx, store.ByHost("vc01"))
		Expect(err).NotTo(HaveOccurred())
		Expect(creds).To(HaveLen(1))
		Expect(creds[0].User).To(Equal("new"))
	})
})
