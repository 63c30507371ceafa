// Package fieldsync keeps an address field and its decomposed page-table-walk
// fields consistent with each other while the user edits either side.
package fieldsync

import (
	"github.com/sarchlab/postcode/hooking"
	"github.com/sarchlab/postcode/vaddr"
)

// A list of hook positions where the controller reports edits.
var (
	HookPosAddressEdited  = &hooking.HookPos{Name: "AddressEdited"}
	HookPosFieldEdited    = &hooking.HookPos{Name: "FieldEdited"}
	HookPosEditSuppressed = &hooking.HookPos{Name: "EditSuppressed"}
)

// A Presenter shows the fields to the user. The controller calls it to
// overwrite a field's text and to toggle a field's error indicator.
//
// A presenter may report its own SetText calls back as edits. Those edits
// arrive while the controller is still propagating and are ignored.
type Presenter interface {
	SetText(field FieldID, text string)
	SetValid(field FieldID, valid bool)
}

// An Update instructs the presenter to flag a field as valid or invalid and,
// if Rewrite is set, to replace its text.
type Update struct {
	Field   FieldID
	Valid   bool
	Rewrite bool
	Text    string
}

// Outcome is what every edit produces.
type Outcome struct {
	Updates []Update

	// Suppressed is set when the edit arrived during a propagation and was
	// dropped.
	Suppressed bool
}

// AddressEditResult reports the effect of editing the address field.
type AddressEditResult struct {
	Outcome
	AddressValid bool
	Decomposed   *vaddr.DecomposedAddress
}

// FieldEditResult reports the effect of editing a decomposed field.
type FieldEditResult struct {
	Outcome
	Validity          map[FieldID]bool
	RecomposedAddress *string
}

// EditEvent is the item passed to hooks.
type EditEvent struct {
	Field FieldID
	Text  string
}

// FieldState is the text and validity of one field.
type FieldState struct {
	Field FieldID
	Text  string
	Valid bool
}

// A Controller mediates between the address field and the decomposed fields.
// It is not safe for concurrent use; callers deliver edits one at a time.
type Controller struct {
	*hooking.HookableBase

	name        string
	texts       [numFields]string
	valid       [numFields]bool
	propagating bool
	presenter   Presenter
}

// NewController creates a controller with all fields valid. The VA range
// selects Bottom and every other field is empty.
func NewController(name string) *Controller {
	c := &Controller{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
	}

	c.texts[FieldVARange] = vaddr.FormatVARange(vaddr.Bottom)

	for i := range c.valid {
		c.valid[i] = true
	}

	return c
}

// Name returns the name of the controller.
func (c *Controller) Name() string {
	return c.name
}

// AttachPresenter makes the controller apply its updates to p.
func (c *Controller) AttachPresenter(p Presenter) {
	c.presenter = p
}

// Propagating tells whether the controller is currently writing derived
// fields.
func (c *Controller) Propagating() bool {
	return c.propagating
}

// Text returns the current text of a field.
func (c *Controller) Text(field FieldID) string {
	field.mustBeValid()
	return c.texts[field]
}

// Valid returns whether a field currently holds valid content.
func (c *Controller) Valid(field FieldID) bool {
	field.mustBeValid()
	return c.valid[field]
}

// Snapshot returns the state of all fields in display order.
func (c *Controller) Snapshot() []FieldState {
	states := make([]FieldState, 0, numFields)
	for _, id := range AllFields() {
		states = append(states, FieldState{
			Field: id,
			Text:  c.texts[id],
			Valid: c.valid[id],
		})
	}

	return states
}

// FieldTexts returns the current texts of the decomposed fields.
func (c *Controller) FieldTexts() FieldTexts {
	t := FieldTexts{}
	for _, id := range DecomposedFields() {
		t.Set(id, c.texts[id])
	}

	return t
}

// EditField reports that the user changed a single field. Edits to the
// address are decomposed; edits to any other field trigger a recomposition
// from the controller's current record.
func (c *Controller) EditField(field FieldID, text string) Outcome {
	field.mustBeValid()

	if field == FieldAddress {
		return c.OnAddressEdited(text).Outcome
	}

	if c.propagating {
		return c.suppress(field, text)
	}

	fields := c.FieldTexts()
	fields.Set(field, text)

	return c.OnFieldEdited(field, fields).Outcome
}

// OnAddressEdited handles an edit of the address field. If the text is a
// canonical address, all decomposed fields are rewritten and marked valid.
// Otherwise only the address field is marked invalid and the decomposed
// fields keep their content.
func (c *Controller) OnAddressEdited(text string) AddressEditResult {
	if c.propagating {
		return AddressEditResult{Outcome: c.suppress(FieldAddress, text)}
	}

	c.texts[FieldAddress] = text

	result := AddressEditResult{}
	d, err := decomposeText(text)
	if err != nil {
		result.Updates = []Update{{Field: FieldAddress, Valid: false}}
	} else {
		result.AddressValid = true
		result.Decomposed = &d
		result.Updates = decomposedUpdates(d)
	}

	c.apply(result.Updates)
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAddressEdited,
		Item:   EditEvent{Field: FieldAddress, Text: text},
		Detail: result,
	})

	return result
}

// OnFieldEdited handles an edit of one of the decomposed fields. Every field
// is validated on its own. Only when all of them are valid is the address
// recomposed and written; otherwise the address field is left as it was.
func (c *Controller) OnFieldEdited(
	changed FieldID,
	fields FieldTexts,
) FieldEditResult {
	changed.mustBeValid()
	if changed == FieldAddress {
		panic("address edits must go through OnAddressEdited")
	}

	if c.propagating {
		return FieldEditResult{Outcome: c.suppress(changed, fields.Get(changed))}
	}

	for _, id := range DecomposedFields() {
		c.texts[id] = fields.Get(id)
	}

	d, validity := parseFields(fields)
	result := FieldEditResult{Validity: validity}

	allValid := true
	for _, id := range DecomposedFields() {
		result.Updates = append(result.Updates,
			Update{Field: id, Valid: validity[id]})
		allValid = allValid && validity[id]
	}

	if allValid {
		text := vaddr.FormatAddress(vaddr.Compose(d))
		result.RecomposedAddress = &text
		result.Updates = append(result.Updates, Update{
			Field:   FieldAddress,
			Valid:   true,
			Rewrite: true,
			Text:    text,
		})
	}

	c.apply(result.Updates)
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosFieldEdited,
		Item:   EditEvent{Field: changed, Text: fields.Get(changed)},
		Detail: result,
	})

	return result
}

func (c *Controller) suppress(field FieldID, text string) Outcome {
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosEditSuppressed,
		Item:   EditEvent{Field: field, Text: text},
	})

	return Outcome{Suppressed: true}
}

// apply records the updates and forwards them to the presenter. Edits that
// the presenter reports while this runs are suppressed.
func (c *Controller) apply(updates []Update) {
	c.propagating = true
	defer func() { c.propagating = false }()

	for _, u := range updates {
		if u.Rewrite {
			c.texts[u.Field] = u.Text
			if c.presenter != nil {
				c.presenter.SetText(u.Field, u.Text)
			}
		}

		c.valid[u.Field] = u.Valid
		if c.presenter != nil {
			c.presenter.SetValid(u.Field, u.Valid)
		}
	}
}

func decomposeText(text string) (vaddr.DecomposedAddress, error) {
	address, err := vaddr.ParseAddress(text)
	if err != nil {
		return vaddr.DecomposedAddress{}, err
	}

	return vaddr.Decompose(address)
}

func decomposedUpdates(d vaddr.DecomposedAddress) []Update {
	texts := map[FieldID]string{
		FieldVARange: vaddr.FormatVARange(d.VARange),
		FieldL3:      vaddr.FormatField(d.L3),
		FieldL2:      vaddr.FormatField(d.L2),
		FieldL1:      vaddr.FormatField(d.L1),
		FieldL0:      vaddr.FormatField(d.L0),
		FieldOffset:  vaddr.FormatField(d.Offset),
	}

	updates := []Update{{Field: FieldAddress, Valid: true}}
	for _, id := range DecomposedFields() {
		updates = append(updates, Update{
			Field:   id,
			Valid:   true,
			Rewrite: true,
			Text:    texts[id],
		})
	}

	return updates
}

func parseFields(fields FieldTexts) (vaddr.DecomposedAddress, map[FieldID]bool) {
	d := vaddr.DecomposedAddress{}
	validity := make(map[FieldID]bool, numFields-1)

	r, err := vaddr.ParseVARange(fields.VARange)
	d.VARange = r
	validity[FieldVARange] = err == nil

	indices := []struct {
		id  FieldID
		dst *uint64
	}{
		{FieldL3, &d.L3},
		{FieldL2, &d.L2},
		{FieldL1, &d.L1},
		{FieldL0, &d.L0},
	}
	for _, index := range indices {
		v, err := vaddr.ParseField(fields.Get(index.id), vaddr.IndexBound)
		*index.dst = v
		validity[index.id] = err == nil
	}

	offset, err := vaddr.ParseField(fields.Offset, vaddr.OffsetBound)
	d.Offset = offset
	validity[FieldOffset] = err == nil

	return d, validity
}
