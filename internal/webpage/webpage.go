// Package webpage models the isolated page context the embedding surface
// hosts: a document with input fields, forms, computed style and layout,
// page events, and a title that the host process can observe natively. The
// probe runs against this model; the host never touches it directly except
// through the title observer and the probe's exported entry points.
package webpage

import "sync"

// Event types dispatched by a document.
const (
	EventSubmit   = "submit"
	EventClick    = "click"
	EventBlur     = "blur"
	EventUnload   = "unload"
	EventMutation = "mutation"
)

// Style mirrors the computed style properties relevant to field visibility.
type Style struct {
	Display    string
	Visibility string
	Opacity    float64
}

// Rect is a laid-out bounding box.
type Rect struct {
	X, Y, Width, Height float64
}

// Event is a page event delivered to registered listeners.
type Event struct {
	Type string

	// Target is the field the event fired on (blur).
	Target *Field

	// Form scopes submit and submit-like click events. Nil when the
	// control sits outside any form.
	Form *Form

	// SubmitLike marks a click on a control matching the submit-button
	// heuristic.
	SubmitLike bool
}

// FieldSpec describes a field to add to a document. Zero-value style fields
// default to a visible, laid-out element.
type FieldSpec struct {
	Type         string
	Name         string
	ID           string
	Autocomplete string
	Value        string

	Display    string   // default "block"
	Visibility string   // default "visible"
	Opacity    *float64 // default 1
	Unlaid     bool     // no bounding box (not rendered)
}

// Field is a single input element.
type Field struct {
	doc  *Document
	form *Form

	Type         string
	Name         string
	ID           string
	Autocomplete string

	value    string
	style    Style
	laid     bool
	detached bool
	events   []string
}

// Form groups fields.
type Form struct {
	doc    *Document
	fields []*Field
}

// Document is one browsed page.
type Document struct {
	mu             sync.Mutex
	url            string
	title          string
	fields         []*Field
	forms          []*Form
	listeners      map[string][]func(Event)
	titleObservers map[int]func(string)
	navObservers   []func()
	sentinels      map[string]struct{}
	nextObserverID int
}

// New returns an empty document at the given URL.
func New(url string) *Document {
	return &Document{
		url:            url,
		listeners:      make(map[string][]func(Event)),
		titleObservers: make(map[int]func(string)),
		sentinels:      make(map[string]struct{}),
	}
}

// URL returns the document's current location.
func (d *Document) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// Title returns the document title.
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.title
}

// SetTitle updates the title and notifies title observers. This is the
// host-observable side channel the title transport rides on.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	d.title = title
	observers := make([]func(string), 0, len(d.titleObservers))
	for _, fn := range d.titleObservers {
		observers = append(observers, fn)
	}
	d.mu.Unlock()

	for _, fn := range observers {
		fn(title)
	}
}

// ObserveTitle registers a host-side title observer and returns a function
// that removes it. Observers survive navigation: they are the embedding
// surface's native hook, not page script.
func (d *Document) ObserveTitle(fn func(title string)) (remove func()) {
	d.mu.Lock()
	id := d.nextObserverID
	d.nextObserverID++
	d.titleObservers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.titleObservers, id)
		d.mu.Unlock()
	}
}

// OnNavigate registers a callback fired when the document navigates or is
// torn down. Like title observers, navigation hooks belong to the host.
func (d *Document) OnNavigate(fn func()) {
	d.mu.Lock()
	d.navObservers = append(d.navObservers, fn)
	d.mu.Unlock()
}

// Navigate replaces the page: every field is invalidated, all page-level
// listeners and sentinels are gone, and the URL changes. Host observers
// (title, navigation) remain attached.
func (d *Document) Navigate(url string) {
	d.mu.Lock()
	for _, f := range d.fields {
		f.detached = true
	}
	d.fields = nil
	d.forms = nil
	d.listeners = make(map[string][]func(Event))
	d.sentinels = make(map[string]struct{})
	d.url = url
	d.title = ""
	observers := append([]func(){}, d.navObservers...)
	d.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// AddEventListener registers a page-script listener for the given event type.
func (d *Document) AddEventListener(typ string, fn func(Event)) {
	d.mu.Lock()
	d.listeners[typ] = append(d.listeners[typ], fn)
	d.mu.Unlock()
}

func (d *Document) dispatch(ev Event) {
	d.mu.Lock()
	fns := append([]func(Event){}, d.listeners[ev.Type]...)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Submit fires a capturing-phase submit event for the form.
func (d *Document) Submit(form *Form) {
	d.dispatch(Event{Type: EventSubmit, Form: form})
}

// ClickSubmit fires a click on a control matching the submit-button
// heuristic inside the form.
func (d *Document) ClickSubmit(form *Form) {
	d.dispatch(Event{Type: EventClick, Form: form, SubmitLike: true})
}

// Click fires a click that is not on a submit-like control.
func (d *Document) Click() {
	d.dispatch(Event{Type: EventClick})
}

// Blur fires a blur event on the field.
func (d *Document) Blur(f *Field) {
	d.dispatch(Event{Type: EventBlur, Target: f, Form: f.Form()})
}

// Unload fires the document's unload signal.
func (d *Document) Unload() {
	d.dispatch(Event{Type: EventUnload})
}

// Mutate fires a DOM subtree mutation notification.
func (d *Document) Mutate() {
	d.dispatch(Event{Type: EventMutation})
}

// Sentinel reports whether the named sentinel flag is set.
func (d *Document) Sentinel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sentinels[key]
	return ok
}

// SetSentinel sets the named sentinel flag and reports whether it was newly
// set (false means it was already present).
func (d *Document) SetSentinel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sentinels[key]; ok {
		return false
	}
	d.sentinels[key] = struct{}{}
	return true
}

// AddForm appends an empty form to the document.
func (d *Document) AddForm() *Form {
	d.mu.Lock()
	defer d.mu.Unlock()
	form := &Form{doc: d}
	d.forms = append(d.forms, form)
	return form
}

// AddField appends a field outside any form.
func (d *Document) AddField(spec FieldSpec) *Field {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addFieldLocked(nil, spec)
}

// AddField appends a field to the form.
func (f *Form) AddField(spec FieldSpec) *Field {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	field := f.doc.addFieldLocked(f, spec)
	f.fields = append(f.fields, field)
	return field
}

func (d *Document) addFieldLocked(form *Form, spec FieldSpec) *Field {
	style := Style{
		Display:    spec.Display,
		Visibility: spec.Visibility,
		Opacity:    1,
	}
	if style.Display == "" {
		style.Display = "block"
	}
	if style.Visibility == "" {
		style.Visibility = "visible"
	}
	if spec.Opacity != nil {
		style.Opacity = *spec.Opacity
	}

	field := &Field{
		doc:          d,
		form:         form,
		Type:         spec.Type,
		Name:         spec.Name,
		ID:           spec.ID,
		Autocomplete: spec.Autocomplete,
		value:        spec.Value,
		style:        style,
		laid:         !spec.Unlaid,
	}
	d.fields = append(d.fields, field)
	return field
}

// Fields returns a snapshot of all fields in document order.
func (d *Document) Fields() []*Field {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Field{}, d.fields...)
}

// Fields returns the form's fields in document order.
func (f *Form) Fields() []*Field {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return append([]*Field{}, f.fields...)
}

// Form returns the enclosing form, or nil.
func (f *Field) Form() *Form {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return f.form
}

// Value returns the field's current value.
func (f *Field) Value() string {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return f.value
}

// SetValue sets the field's value without dispatching events.
func (f *Field) SetValue(v string) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	f.value = v
}

// Style returns the field's computed style.
func (f *Field) Style() Style {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return f.style
}

// SetStyle updates the field's computed style.
func (f *Field) SetStyle(s Style) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	f.style = s
}

// HasLayout reports whether the field has a laid-out bounding box.
func (f *Field) HasLayout() bool {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return f.laid
}

// Detached reports whether the field's document has navigated away.
func (f *Field) Detached() bool {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return f.detached
}

// DispatchEvent records a field-level notification (input, change). Page
// scripts listening for these observe the value change; tests read the log.
func (f *Field) DispatchEvent(name string) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	f.events = append(f.events, name)
}

// Events returns the field-level notifications dispatched so far.
func (f *Field) Events() []string {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return append([]string{}, f.events...)
}
