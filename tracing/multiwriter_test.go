package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	"go.uber.org/mock/gomock"
)

var _ = Describe("MultiTraceWriter", func() {
	var (
		mockCtrl *gomock.Controller
		a, b     *MockTraceWriter
		m        *MultiTraceWriter
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		a = NewMockTraceWriter(mockCtrl)
		b = NewMockTraceWriter(mockCtrl)
		m = NewMultiTraceWriter(a, b)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should fan out every call", func() {
		record := EditRecord{ID: "x", Kind: KindField}

		a.EXPECT().Init()
		b.EXPECT().Init()
		a.EXPECT().Write(record)
		b.EXPECT().Write(record)
		a.EXPECT().Flush()
		b.EXPECT().Flush()

		m.Init()
		m.Write(record)
		m.Flush()
	})
})
