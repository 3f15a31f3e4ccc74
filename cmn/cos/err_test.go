package cos_test

import (
	"github.com/dcsim/hdfssim/cmn/cos"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("error taxonomy", func() {
	It("reports capacity exceeded", func() {
		err := cos.NewErrCapacityExceeded("worker block table", 16)
		Expect(err.Error()).To(ContainSubstring("capacity"))
		Expect(err.Error()).To(ContainSubstring("16"))
	})

	It("reports protocol state violations", func() {
		err := cos.NewErrProtocolState("PACKET_ACK", "PipelineRequested")
		Expect(err.Error()).To(ContainSubstring("PACKET_ACK"))
		Expect(err.Error()).To(ContainSubstring("PipelineRequested"))
	})

	It("wraps and unwraps with call-site context", func() {
		base := cos.NewErrSelfNotInPipeline(167772161)
		wrapped := cos.Wrap(base, "worker.onPipelineCreate")
		Expect(wrapped.Error()).To(ContainSubstring("worker.onPipelineCreate"))
		Expect(cos.Cause(wrapped)).To(Equal(base))
	})
})
