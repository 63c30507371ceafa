package vaddr

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Decompose", func() {
	It("should split a top-range address", func() {
		d, err := Decompose(0xffff800012345000)

		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(DecomposedAddress{
			VARange: Top,
			L3:      256,
			L2:      0,
			L1:      145,
			L0:      325,
			Offset:  0,
		}))
	})

	It("should split a bottom-range address", func() {
		d, err := Decompose(0x0000_7fff_ffff_ffff)

		Expect(err).NotTo(HaveOccurred())
		Expect(d.VARange).To(Equal(Bottom))
		Expect(d.Indices()).To(Equal([4]uint64{255, 511, 511, 511}))
		Expect(d.Offset).To(Equal(uint64(4095)))
	})

	It("should split the last top-range address", func() {
		d, err := Decompose(0xffff_ffff_ffff_ffff)

		Expect(err).NotTo(HaveOccurred())
		Expect(d.VARange).To(Equal(Top))
		Expect(d.Indices()).To(Equal([4]uint64{511, 511, 511, 511}))
		Expect(d.Offset).To(Equal(uint64(4095)))
	})

	It("should keep all 12 offset bits", func() {
		d, err := Decompose(0xfff)

		Expect(err).NotTo(HaveOccurred())
		Expect(d.Offset).To(Equal(uint64(0xfff)))
	})

	DescribeTable("canonical boundary",
		func(address uint64, canonical bool) {
			_, err := Decompose(address)

			if canonical {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(ErrNonCanonicalAddress))
			}
		},
		Entry("zero", uint64(0), true),
		Entry("max", ^uint64(0), true),
		Entry("top of bottom range", uint64(0x0000_ffff_ffff_ffff), true),
		Entry("bottom of top range", uint64(0xffff_0000_0000_0000), true),
		Entry("bit 48 set", uint64(0x0001_0000_0000_0000), false),
		Entry("bit 63 set", uint64(0x8000_0000_0000_0000), false),
		Entry("top bits 0xfffe", uint64(0xfffe_ffff_ffff_ffff), false),
		Entry("top bits 0x7fff", uint64(0x7fff_0000_0000_0000), false),
	)
})

var _ = Describe("Compose", func() {
	It("should compose zero", func() {
		Expect(Compose(DecomposedAddress{})).To(Equal(uint64(0)))
	})

	It("should set the upper bits for the top range", func() {
		address := Compose(DecomposedAddress{
			VARange: Top, L3: 256, L1: 145, L0: 325,
		})

		Expect(address).To(Equal(uint64(0xffff800012345000)))
	})

	It("should round trip every valid decomposition", func() {
		r := rand.New(rand.NewSource(1))

		for i := 0; i < 10000; i++ {
			d := DecomposedAddress{
				VARange: VARange(r.Intn(2)),
				L3:      uint64(r.Intn(512)),
				L2:      uint64(r.Intn(512)),
				L1:      uint64(r.Intn(512)),
				L0:      uint64(r.Intn(512)),
				Offset:  uint64(r.Intn(4096)),
			}

			back, err := Decompose(Compose(d))

			Expect(err).NotTo(HaveOccurred())
			Expect(back).To(Equal(d))
		}
	})

	It("should round trip every canonical address", func() {
		r := rand.New(rand.NewSource(2))

		for i := 0; i < 10000; i++ {
			address := r.Uint64() & 0x0000_ffff_ffff_ffff
			if r.Intn(2) == 1 {
				address |= 0xffff_0000_0000_0000
			}

			d, err := Decompose(address)

			Expect(err).NotTo(HaveOccurred())
			Expect(Compose(d)).To(Equal(address))
		}
	})

	It("should fail to decompose exactly the non-canonical addresses", func() {
		r := rand.New(rand.NewSource(3))

		for i := 0; i < 10000; i++ {
			address := r.Uint64()
			top := address >> 48

			_, err := Decompose(address)

			Expect(err != nil).To(Equal(top != 0 && top != 0xffff))
		}
	})
})

var _ = Describe("Validate", func() {
	It("should accept the largest fields", func() {
		d := DecomposedAddress{
			VARange: Top, L3: 511, L2: 511, L1: 511, L0: 511, Offset: 4095,
		}

		Expect(d.Validate()).To(Succeed())
	})

	It("should reject an index that does not fit", func() {
		d := DecomposedAddress{L2: 512}

		Expect(d.Validate()).To(MatchError(ErrFieldOutOfRange))
	})

	It("should reject an offset that does not fit", func() {
		d := DecomposedAddress{Offset: 4096}

		Expect(d.Validate()).To(MatchError(ErrFieldOutOfRange))
	})

	It("should reject an unknown range", func() {
		d := DecomposedAddress{VARange: 2}

		Expect(d.Validate()).To(MatchError(ErrFieldOutOfRange))
	})
})

var _ = Describe("Parsing", func() {
	DescribeTable("ParseField",
		func(text string, bound uint64, expected uint64, ok bool) {
			v, err := ParseField(text, bound)

			if ok {
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(expected))
			} else {
				Expect(err).To(MatchError(ErrFieldOutOfRange))
			}
		},
		Entry("at index bound", "512", IndexBound, uint64(0), false),
		Entry("below index bound", "511", IndexBound, uint64(511), true),
		Entry("negative", "-1", IndexBound, uint64(0), false),
		Entry("below offset bound", "4095", OffsetBound, uint64(4095), true),
		Entry("at offset bound", "4096", OffsetBound, uint64(0), false),
		Entry("zero", "0", IndexBound, uint64(0), true),
		Entry("empty", "", IndexBound, uint64(0), false),
		Entry("hex", "0x10", IndexBound, uint64(0), false),
		Entry("overflow", "99999999999999999999", OffsetBound, uint64(0), false),
	)

	It("should parse an address with and without prefix", func() {
		withPrefix, err := ParseAddress("0x1f")
		Expect(err).NotTo(HaveOccurred())

		upperPrefix, err := ParseAddress("0X1F")
		Expect(err).NotTo(HaveOccurred())

		bare, err := ParseAddress("1f")
		Expect(err).NotTo(HaveOccurred())

		Expect(withPrefix).To(Equal(uint64(31)))
		Expect(upperPrefix).To(Equal(uint64(31)))
		Expect(bare).To(Equal(uint64(31)))
	})

	DescribeTable("malformed addresses",
		func(text string) {
			_, err := ParseAddress(text)

			Expect(err).To(MatchError(ErrMalformedHex))
		},
		Entry("letters", "xyz"),
		Entry("empty", ""),
		Entry("bare prefix", "0x"),
		Entry("too wide", "1ffffffffffffffff"),
		Entry("spaces", " 1f"),
	)

	DescribeTable("ParseVARange",
		func(text string, expected VARange, ok bool) {
			r, err := ParseVARange(text)

			if ok {
				Expect(err).NotTo(HaveOccurred())
				Expect(r).To(Equal(expected))
			} else {
				Expect(err).To(MatchError(ErrFieldOutOfRange))
			}
		},
		Entry("index 0", "0", Bottom, true),
		Entry("index 1", "1", Top, true),
		Entry("name", "Top", Top, true),
		Entry("lower-case name", "bottom", Bottom, true),
		Entry("index 2", "2", Bottom, false),
		Entry("empty", "", Bottom, false),
	)
})

var _ = Describe("Formatting", func() {
	It("should format addresses as bare lower-case hex", func() {
		Expect(FormatAddress(0)).To(Equal("0"))
		Expect(FormatAddress(0xffff800012345000)).To(Equal("ffff800012345000"))
	})

	It("should format fields as decimal", func() {
		Expect(FormatField(325)).To(Equal("325"))
		Expect(FormatVARange(Top)).To(Equal("1"))
	})

	It("should describe a decomposition", func() {
		d := DecomposedAddress{VARange: Top, L3: 1, L2: 2, L1: 3, L0: 4, Offset: 5}

		Expect(d.String()).To(Equal("Top[1:2:3:4]+5"))
	})
})
