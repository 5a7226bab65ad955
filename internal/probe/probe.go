// Package probe implements the page-context logic injected into every
// browsed document: login form detection, credential capture on submission,
// and the fill entry point the host calls back into. Signals leave the page
// over the title channel.
package probe

import (
	"errors"
	"sync"
	"time"

	"github.com/nihmadev/Axion/internal/titlechan"
	"github.com/nihmadev/Axion/internal/webpage"
)

// sentinelKey guards against double-install when the host re-injects.
const sentinelKey = "__AXION_AUTOFILL_INITIALIZED__"

// ErrAlreadyInstalled is returned when a probe is already running in the
// document's current page.
var ErrAlreadyInstalled = errors.New("probe already installed")

// Options tunes probe timing. Zero values select the defaults.
type Options struct {
	// MutationDebounce delays re-detection after DOM mutations and clicks.
	MutationDebounce time.Duration

	// PollInterval re-runs detection on a fixed schedule, covering SPA
	// navigations that mutate nothing the observer sees.
	PollInterval time.Duration

	// ClickFlushDelay is how long a submit-button click waits before
	// emitting, giving in-page validation a chance to run.
	ClickFlushDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MutationDebounce <= 0 {
		o.MutationDebounce = 100 * time.Millisecond
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.ClickFlushDelay <= 0 {
		o.ClickFlushDelay = 50 * time.Millisecond
	}
	return o
}

// DetectedForm is the live login form: weak references into the current
// page, invalid once the document navigates.
type DetectedForm struct {
	Username *webpage.Field
	Password *webpage.Field
}

// Probe is one per-document instance.
type Probe struct {
	mu      sync.Mutex
	doc     *webpage.Document
	tx      *titlechan.Sender
	opts    Options
	form    *DetectedForm
	pending *titlechan.SubmittedCredentials

	debounce *time.Timer
	pollStop chan struct{}
	stopped  bool
}

// Install injects the probe into the document's current page and runs the
// initial detection pass. A second Install on the same page returns
// ErrAlreadyInstalled; after a navigation the page is fresh and install
// succeeds again.
func Install(doc *webpage.Document, tx *titlechan.Sender, opts Options) (*Probe, error) {
	if !doc.SetSentinel(sentinelKey) {
		return nil, ErrAlreadyInstalled
	}

	p := &Probe{
		doc:      doc,
		tx:       tx,
		opts:     opts.withDefaults(),
		pollStop: make(chan struct{}),
	}

	doc.AddEventListener(webpage.EventSubmit, p.onSubmit)
	doc.AddEventListener(webpage.EventClick, p.onClick)
	doc.AddEventListener(webpage.EventBlur, p.onBlur)
	doc.AddEventListener(webpage.EventUnload, p.onUnload)
	doc.AddEventListener(webpage.EventMutation, func(webpage.Event) { p.scheduleDetect() })

	p.Detect()
	go p.pollLoop()

	return p, nil
}

// Stop halts timers and detaches the probe. Safe to call more than once.
func (p *Probe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Probe) stopLocked() {
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.pollStop)
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.form = nil
	p.pending = nil
}

func (p *Probe) pollLoop() {
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Detect()
		case <-p.pollStop:
			return
		}
	}
}

// scheduleDetect debounces a re-detection pass.
func (p *Probe) scheduleDetect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.opts.MutationDebounce, p.Detect)
}

// Detect runs one detection pass: find the first qualifying login form in
// document order and report it. Passes are serialized by the probe mutex, so
// overlapping triggers cannot register duplicate forms.
func (p *Probe) Detect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	form := p.findLoginForm()
	p.form = form
	if form == nil {
		return
	}

	// Re-emitted every pass; the channel is lossy and the coordinator
	// treats form_detected as idempotent.
	p.send(titlechan.TypeFormDetected, titlechan.FormDetected{
		URL:         p.doc.URL(),
		HasUsername: true,
		HasPassword: true,
	})
}

// findLoginForm groups visible password fields by enclosing form (document
// when none), takes the first password field of each group, and returns the
// first group with a resolvable username field. Later password fields in a
// group are confirm-password fields and are ignored.
func (p *Probe) findLoginForm() *DetectedForm {
	fields := p.doc.Fields()

	type group struct {
		form  *webpage.Form
		first *webpage.Field
	}
	var groups []group
	seen := make(map[*webpage.Form]bool)
	var seenDocGroup bool

	for _, f := range fields {
		if !matchesAny(PasswordMatchers, f) || !isVisible(f) {
			continue
		}
		form := f.Form()
		if form == nil {
			if seenDocGroup {
				continue
			}
			seenDocGroup = true
			groups = append(groups, group{nil, f})
			continue
		}
		if seen[form] {
			continue
		}
		seen[form] = true
		groups = append(groups, group{form, f})
	}

	for _, g := range groups {
		username := p.findUsernameField(g.first)
		if username == nil {
			continue
		}
		return &DetectedForm{Username: username, Password: g.first}
	}
	return nil
}

// findUsernameField resolves the companion username field for a password
// field: the ordered attribute matchers scoped to the same form (or the
// whole document), then the nearest preceding visible text/email input in
// document order.
func (p *Probe) findUsernameField(password *webpage.Field) *webpage.Field {
	var scope []*webpage.Field
	if form := password.Form(); form != nil {
		scope = form.Fields()
	} else {
		scope = p.doc.Fields()
	}

	for _, m := range UsernameMatchers {
		for _, f := range scope {
			if f == password || !isVisible(f) {
				continue
			}
			if m.Match(f) {
				return f
			}
		}
	}

	// Fallback: nearest preceding visible text/email input.
	var candidate *webpage.Field
	for _, f := range p.doc.Fields() {
		if f == password {
			break
		}
		if (f.Type == "text" || f.Type == "email") && isVisible(f) {
			candidate = f
		}
	}
	return candidate
}

// RequestAutofill signals that the user asked to fill the detected form
// (the in-page affordance click). No-op when no form is live.
func (p *Probe) RequestAutofill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.form == nil {
		return
	}
	p.send(titlechan.TypeRequestAutofill, titlechan.AutofillRequest{URL: p.doc.URL()})
}

// Fill is the host-callable entry point: write the credentials into the live
// detected form, dispatching input and change notifications, and report
// whether a form existed to fill.
func (p *Probe) Fill(username, password string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.form == nil {
		return false
	}
	if p.form.Username.Detached() || p.form.Password.Detached() {
		p.form = nil
		return false
	}

	fill := func(f *webpage.Field, value string) {
		f.SetValue(value)
		f.DispatchEvent("input")
		f.DispatchEvent("change")
	}
	if username != "" {
		fill(p.form.Username, username)
	}
	if password != "" {
		fill(p.form.Password, password)
	}
	return true
}

// Form returns the live detected form, or nil.
func (p *Probe) Form() *DetectedForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// ---------------------------------------------------------------------------
// Capture
// ---------------------------------------------------------------------------

// capture re-resolves the username/password pair for the event's form scope
// and returns the credentials if both have values.
func (p *Probe) capture(form *webpage.Form) *titlechan.SubmittedCredentials {
	var scope []*webpage.Field
	if form != nil {
		scope = form.Fields()
	} else {
		scope = p.doc.Fields()
	}

	var password *webpage.Field
	for _, f := range scope {
		if f.Type == "password" {
			password = f
			break
		}
	}
	if password == nil || password.Value() == "" {
		return nil
	}

	username := p.findUsernameField(password)
	if username == nil || username.Value() == "" {
		return nil
	}

	return &titlechan.SubmittedCredentials{
		URL:      p.doc.URL(),
		Username: username.Value(),
		Password: password.Value(),
	}
}

func (p *Probe) onSubmit(ev webpage.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	creds := p.capture(ev.Form)
	if creds == nil {
		return
	}
	p.pending = nil
	p.send(titlechan.TypeCredentialsSubmitted, creds)
}

func (p *Probe) onClick(ev webpage.Event) {
	if !ev.SubmitLike {
		// Ordinary clicks only wake up re-detection (SPA route changes).
		p.scheduleDetect()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	creds := p.capture(ev.Form)
	if creds == nil {
		return
	}
	p.pending = creds

	// Delayed so in-page validation can run; the pending buffer covers a
	// navigation beating the timer via the unload flush.
	time.AfterFunc(p.opts.ClickFlushDelay, p.flushPending)
}

func (p *Probe) onBlur(ev webpage.Event) {
	if ev.Target == nil || ev.Target.Type != "password" || ev.Target.Value() == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if creds := p.capture(ev.Form); creds != nil {
		p.pending = creds
	}
}

func (p *Probe) onUnload(webpage.Event) {
	p.mu.Lock()
	p.flushPendingLocked()
	p.stopLocked()
	p.mu.Unlock()
}

func (p *Probe) flushPending() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushPendingLocked()
}

func (p *Probe) flushPendingLocked() {
	if p.stopped || p.pending == nil {
		return
	}
	creds := p.pending
	p.pending = nil
	p.send(titlechan.TypeCredentialsSubmitted, creds)
}

// send writes to the title channel. Encode failures cannot happen for the
// fixed payload types, and the channel is allowed to lose frames.
func (p *Probe) send(typ titlechan.MessageType, payload any) {
	_ = p.tx.Send(typ, payload)
}
