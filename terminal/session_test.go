package terminal

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/postcode/fieldsync"
)

type failingReader struct{}

func (failingReader) ReadLine() (string, error) {
	return "", errors.New("broken pipe")
}

var _ = Describe("Session", func() {
	var (
		out  *bytes.Buffer
		ctrl *fieldsync.Controller
		s    *Session
	)

	BeforeEach(func() {
		out = new(bytes.Buffer)
		ctrl = fieldsync.NewController("Terminal")
		s = NewSession(ctrl, out)
	})

	It("should decompose an address", func() {
		quit, err := s.Execute("address 0xffff800012345000")

		Expect(err).NotTo(HaveOccurred())
		Expect(quit).To(BeFalse())
		Expect(s.Form().Text(fieldsync.FieldAddress)).
			To(Equal("0xffff800012345000"))
		Expect(s.Form().Text(fieldsync.FieldL3)).To(Equal("256"))
		Expect(s.Form().Text(fieldsync.FieldL1)).To(Equal("145"))
		Expect(s.Form().Text(fieldsync.FieldL0)).To(Equal("325"))
		Expect(out.String()).To(ContainSubstring("1 (Top)"))
	})

	It("should recompose from fields", func() {
		for _, line := range []string{
			"va_range bottom", "l3 0", "l2 0", "l1 0", "l0 0", "offset 0",
		} {
			_, err := s.Execute(line)
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(s.Form().Text(fieldsync.FieldAddress)).To(Equal("0"))
	})

	It("should recompose on the bottom range by default", func() {
		for _, line := range []string{"l3 0", "l2 0", "l1 0", "l0 0", "offset 0"} {
			_, err := s.Execute(line)
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(s.Form().Text(fieldsync.FieldVARange)).To(Equal("0"))
		Expect(s.Form().Valid(fieldsync.FieldVARange)).To(BeTrue())
		Expect(s.Form().Text(fieldsync.FieldAddress)).To(Equal("0"))
		Expect(out.String()).To(ContainSubstring("0 (Bottom)"))
	})

	It("should mark an out-of-range offset", func() {
		_, _ = s.Execute("address ffff800012345000")
		out.Reset()

		_, err := s.Execute("offset 5000")

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Form().Valid(fieldsync.FieldOffset)).To(BeFalse())
		Expect(s.Form().Text(fieldsync.FieldOffset)).To(Equal("5000"))
		Expect(s.Form().Text(fieldsync.FieldAddress)).
			To(Equal("ffff800012345000"))
		Expect(out.String()).To(MatchRegexp(`offset\s+5000  <- invalid`))
	})

	It("should accept upper-case field names", func() {
		_, err := s.Execute("L0 3")

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Form().Text(fieldsync.FieldL0)).To(Equal("3"))
	})

	It("should reject unknown commands", func() {
		_, err := s.Execute("l4 1")

		Expect(err).To(MatchError(ErrUnknownCommand))
	})

	It("should ignore blank lines", func() {
		quit, err := s.Execute("   ")

		Expect(quit).To(BeFalse())
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Len()).To(BeZero())
	})

	It("should quit", func() {
		quit, err := s.Execute("quit")

		Expect(quit).To(BeTrue())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should run a script until quit", func() {
		in := NewLineReader(strings.NewReader(
			"address 1000\nbogus\nquit\naddress 2000\n"))

		err := s.Run(in)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("Commands:"))
		Expect(out.String()).To(ContainSubstring(`error: "bogus": unknown command`))
		Expect(s.Form().Text(fieldsync.FieldAddress)).To(Equal("1000"))
	})

	It("should stop at the end of input", func() {
		err := s.Run(NewLineReader(strings.NewReader("l0 1")))

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Form().Text(fieldsync.FieldL0)).To(Equal("1"))
	})

	It("should report read errors", func() {
		err := s.Run(failingReader{})

		Expect(err).To(MatchError("broken pipe"))
	})
})

var _ = Describe("Form", func() {
	It("should render every field", func() {
		f := NewForm()
		f.SetText(fieldsync.FieldVARange, "0")
		f.SetValid(fieldsync.FieldL2, false)
		buf := new(bytes.Buffer)

		f.Render(buf)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(7))
		Expect(lines[1]).To(Equal("  va_range  0 (Bottom)"))
		Expect(lines[3]).To(Equal("  l2          <- invalid"))
	})
})
