package terminal

import (
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/postcode/fieldsync"
)

const helpText = `Commands:
  address <hex>          edit the virtual address (0x prefix optional)
  va_range <0|1|bottom|top>
  l3|l2|l1|l0 <0-511>    edit a page-table index
  offset <0-4095>        edit the page offset
  show                   print the form
  help                   print this message
  quit                   leave
`

// ErrUnknownCommand is returned for lines that name no command or field.
var ErrUnknownCommand = errors.New("unknown command")

// A LineReader returns one line of user input at a time.
type LineReader interface {
	ReadLine() (string, error)
}

// A Session interprets command lines as edits of a form.
type Session struct {
	ctrl *fieldsync.Controller
	form *Form
	out  io.Writer
}

// NewSession attaches a new form, filled from the current state of ctrl.
// Output goes to out.
func NewSession(ctrl *fieldsync.Controller, out io.Writer) *Session {
	s := &Session{
		ctrl: ctrl,
		form: NewForm(),
		out:  out,
	}

	for _, st := range ctrl.Snapshot() {
		s.form.SetText(st.Field, st.Text)
		s.form.SetValid(st.Field, st.Valid)
	}

	ctrl.AttachPresenter(s.form)

	return s
}

// Form returns the form shown by the session.
func (s *Session) Form() *Form {
	return s.form
}

// Run reads commands until the user quits or the input ends.
func (s *Session) Run(in LineReader) error {
	fmt.Fprint(s.out, helpText)
	s.form.Render(s.out)

	for {
		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		quit, err := s.Execute(line)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			continue
		}

		if quit {
			return nil
		}
	}
}

// Execute runs a single command line. It reports whether the user asked to
// quit.
func (s *Session) Execute(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(s.out, helpText)
		return false, nil
	case "show":
		s.form.Render(s.out)
		return false, nil
	}

	field, ok := fieldsync.ParseFieldID(name)
	if !ok {
		return false, fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}

	s.edit(field, arg)
	s.form.Render(s.out)

	return false, nil
}

// edit behaves like a user typing into a field: the field shows the new text
// first and then the controller reacts to the change.
func (s *Session) edit(field fieldsync.FieldID, text string) {
	s.form.SetText(field, text)
	outcome := s.ctrl.EditField(field, text)

	log.WithFields(log.Fields{
		"field":   field,
		"text":    text,
		"updates": len(outcome.Updates),
	}).Debug("field edited")
}
