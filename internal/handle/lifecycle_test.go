package handle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gpustream/internal/driver"
	"github.com/san-kum/gpustream/internal/handle"
)

var _ = Describe("Handle lifecycle", func() {
	var rt *driver.SimRuntime

	BeforeEach(func() {
		rt = driver.NewSimRuntime(driver.DefaultSimConfig())
	})

	AfterEach(func() {
		rt.Cleanup()
	})

	Describe("construction", func() {
		It("starts bound to the default stream", func() {
			h, err := handle.NewWithRuntime(rt, 2)
			Expect(err).NotTo(HaveOccurred())
			defer h.Close()

			Expect(h.Stream().IsDefault()).To(BeTrue())
		})

		It("reserves exactly the requested pool", func() {
			h, err := handle.NewWithRuntime(rt, 4)
			Expect(err).NotTo(HaveOccurred())
			defer h.Close()

			Expect(h.AuxStreamCount()).To(Equal(4))
			Expect(rt.LiveStreams()).To(Equal(4))
		})

		It("hands out distinct auxiliary streams", func() {
			h, err := handle.NewWithRuntime(rt, 3)
			Expect(err).NotTo(HaveOccurred())
			defer h.Close()

			seen := map[uint64]bool{}
			for i := 0; i < h.AuxStreamCount(); i++ {
				s := h.AuxStream(i)
				Expect(s.IsDefault()).To(BeFalse())
				Expect(seen[s.ID()]).To(BeFalse())
				seen[s.ID()] = true
			}
		})
	})

	Describe("teardown", func() {
		It("releases the pool exactly once", func() {
			h, err := handle.NewWithRuntime(rt, 3)
			Expect(err).NotTo(HaveOccurred())

			Expect(h.Close()).To(Succeed())
			Expect(rt.LiveStreams()).To(BeZero())
			Expect(h.Close()).To(Succeed())
			Expect(rt.LiveStreams()).To(BeZero())
		})

		It("survives construction failure without leaking", func() {
			capped := driver.NewSimRuntime(driver.SimConfig{MaxStreams: 1})
			defer capped.Cleanup()

			_, err := handle.NewWithRuntime(capped, 3)
			Expect(err).To(HaveOccurred())
			Expect(capped.LiveStreams()).To(BeZero())
		})
	})
})
