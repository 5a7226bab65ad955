// Package autofill implements the host-side coordinator: it decodes
// title-channel messages from browsed surfaces, keeps the probe installed,
// drives the selection and save-password affordances, and calls back into
// the vault and the probe's fill entry point.
package autofill

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nihmadev/Axion/internal/logging"
	"github.com/nihmadev/Axion/internal/metrics"
	"github.com/nihmadev/Axion/internal/probe"
	"github.com/nihmadev/Axion/internal/titlechan"
	"github.com/nihmadev/Axion/internal/vault"
	"github.com/nihmadev/Axion/internal/webpage"
)

// CredentialPicker is the autofill selection affordance. Pick returns the
// chosen entry, or nil when the user dismissed the popup. An empty entries
// slice renders the popup's empty state.
type CredentialPicker interface {
	Pick(ctx context.Context, url string, entries []vault.Entry) (*vault.Entry, error)
}

// SavePrompter is the save-password prompt. ConfirmSave blocks until the
// user accepts, declines, or the context's auto-dismiss deadline passes.
type SavePrompter interface {
	ConfirmSave(ctx context.Context, url, username string) (bool, error)
}

// UnlockPrompter obtains the master password from the user. ok=false means
// the prompt was cancelled.
type UnlockPrompter interface {
	RequestMasterPassword(ctx context.Context) (password string, ok bool, err error)
}

// UI bundles the shell-owned affordances the coordinator drives.
type UI struct {
	Picker   CredentialPicker
	Saver    SavePrompter
	Unlocker UnlockPrompter
}

// Options tunes coordinator and probe timing. Zero values select defaults.
type Options struct {
	SavePromptTimeout time.Duration
	TitleRestoreDelay time.Duration
	Probe             probe.Options
}

func (o Options) withDefaults() Options {
	if o.SavePromptTimeout <= 0 {
		o.SavePromptTimeout = 30 * time.Second
	}
	return o
}

// fingerprint identifies a credential already offered-and-accepted for
// saving, so the same submission observed twice prompts only once.
type fingerprint struct {
	url, username, password string
}

type surface struct {
	id        string
	doc       *webpage.Document
	sender    *titlechan.Sender
	probe     *probe.Probe
	unobserve func()
}

// Coordinator routes autofill traffic for all attached surfaces.
type Coordinator struct {
	mu           sync.Mutex
	vault        *vault.Vault
	ui           UI
	opts         Options
	logger       *slog.Logger
	surfaces     map[string]*surface
	fingerprints map[fingerprint]struct{}
	wg           sync.WaitGroup
	closed       bool
}

// New returns a coordinator over the vault and UI affordances.
func New(v *vault.Vault, ui UI, opts Options) *Coordinator {
	return &Coordinator{
		vault:        v,
		ui:           ui,
		opts:         opts.withDefaults(),
		logger:       slog.Default(),
		surfaces:     make(map[string]*surface),
		fingerprints: make(map[fingerprint]struct{}),
	}
}

// AttachSurface registers a browsed surface, hooks its title observer and
// navigation signal, and installs the probe in its current page.
func (c *Coordinator) AttachSurface(id string, doc *webpage.Document) {
	s := &surface{
		id:     id,
		doc:    doc,
		sender: titlechan.NewSender(doc, c.opts.TitleRestoreDelay),
	}
	s.unobserve = doc.ObserveTitle(func(title string) {
		c.observeTitle(id, title)
	})
	doc.OnNavigate(func() {
		c.onNavigate(id)
	})

	c.mu.Lock()
	c.surfaces[id] = s
	c.mu.Unlock()

	c.EnsureProbe(id)
}

// DetachSurface stops the surface's probe and removes it.
func (c *Coordinator) DetachSurface(id string) {
	c.mu.Lock()
	s, ok := c.surfaces[id]
	delete(c.surfaces, id)
	c.mu.Unlock()

	if !ok {
		return
	}
	if s.probe != nil {
		s.probe.Stop()
	}
	s.unobserve()
}

// onNavigate drops the stale probe handle and re-injects into the new page.
func (c *Coordinator) onNavigate(id string) {
	c.mu.Lock()
	s, ok := c.surfaces[id]
	var stale *probe.Probe
	if ok {
		stale, s.probe = s.probe, nil
	}
	c.mu.Unlock()

	if stale != nil {
		stale.Stop()
	}
	if ok {
		c.EnsureProbe(id)
	}
}

// EnsureProbe installs the probe on the surface's current page if it is not
// already running (inject-once per page).
func (c *Coordinator) EnsureProbe(id string) {
	c.mu.Lock()
	s, ok := c.surfaces[id]
	if !ok || s.probe != nil {
		c.mu.Unlock()
		return
	}
	doc, sender := s.doc, s.sender
	c.mu.Unlock()

	// Install runs its initial detection synchronously, which can emit a
	// frame and re-enter observeTitle on this goroutine. It must not run
	// under c.mu.
	p, err := probe.Install(doc, sender, c.opts.Probe)
	if errors.Is(err, probe.ErrAlreadyInstalled) {
		return
	}
	if err != nil {
		c.logger.Error("probe install failed", "surface_id", id, "error", err)
		return
	}

	c.mu.Lock()
	s, ok = c.surfaces[id]
	if !ok || s.probe != nil {
		c.mu.Unlock()
		p.Stop()
		return
	}
	s.probe = p
	c.mu.Unlock()
	metrics.ProbeInstallsTotal.Inc()
}

// observeTitle is the host's native title hook. Decoding is cheap and
// synchronous; everything else (vault work, KDF, prompts) runs on a
// dispatch goroutine so this path never blocks the UI update loop.
func (c *Coordinator) observeTitle(id, title string) {
	msg, ok := titlechan.Decode(title)
	if !ok {
		return
	}
	metrics.ChannelMessagesTotal.WithLabelValues(string(msg.Type)).Inc()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.dispatch(logging.WithSurface(context.Background(), id), id, msg)
	}()
}

func (c *Coordinator) dispatch(ctx context.Context, id string, msg *titlechan.Message) {
	log := logging.Logger(ctx)

	switch msg.Type {
	case titlechan.TypeFormDetected:
		var payload titlechan.FormDetected
		if err := msg.DecodePayload(&payload); err != nil {
			metrics.MessagesDiscardedTotal.WithLabelValues("bad_payload").Inc()
			return
		}
		log.Debug("form detected", "url", payload.URL)
		c.EnsureProbe(id)

	case titlechan.TypeRequestAutofill:
		var payload titlechan.AutofillRequest
		if err := msg.DecodePayload(&payload); err != nil {
			metrics.MessagesDiscardedTotal.WithLabelValues("bad_payload").Inc()
			return
		}
		c.handleAutofillRequest(ctx, id, payload.URL)

	case titlechan.TypeCredentialsSubmitted:
		var payload titlechan.SubmittedCredentials
		if err := msg.DecodePayload(&payload); err != nil {
			metrics.MessagesDiscardedTotal.WithLabelValues("bad_payload").Inc()
			return
		}
		c.handleSubmitted(ctx, payload)

	default:
		metrics.MessagesDiscardedTotal.WithLabelValues("unknown_type").Inc()
	}
}

func (c *Coordinator) handleAutofillRequest(ctx context.Context, id, url string) {
	log := logging.Logger(ctx)

	// No vault at all: the popup is suppressed entirely rather than
	// offering to create one inline.
	if !c.vault.Exists() {
		metrics.MessagesDiscardedTotal.WithLabelValues("no_vault").Inc()
		return
	}

	if err := c.ensureUnlocked(ctx); err != nil {
		log.Info("autofill cancelled", "reason", err)
		return
	}

	entries, err := c.vault.PasswordsForURL(url)
	if err != nil {
		log.Error("query passwords failed", "error", err)
		return
	}

	selected, err := c.ui.Picker.Pick(ctx, url, entries)
	if err != nil || selected == nil {
		return
	}

	c.mu.Lock()
	s, ok := c.surfaces[id]
	p := (*probe.Probe)(nil)
	if ok {
		p = s.probe
	}
	c.mu.Unlock()

	if p == nil {
		metrics.FillsTotal.WithLabelValues("no_form").Inc()
		return
	}
	if p.Fill(selected.Username, selected.Password) {
		metrics.FillsTotal.WithLabelValues("filled").Inc()
	} else {
		metrics.FillsTotal.WithLabelValues("no_form").Inc()
	}
}

func (c *Coordinator) handleSubmitted(ctx context.Context, sc titlechan.SubmittedCredentials) {
	log := logging.Logger(ctx)

	if !c.vault.Exists() {
		metrics.MessagesDiscardedTotal.WithLabelValues("no_vault").Inc()
		return
	}
	if sc.URL == "" || sc.Username == "" || sc.Password == "" {
		metrics.MessagesDiscardedTotal.WithLabelValues("bad_payload").Inc()
		return
	}

	fp := fingerprint{sc.URL, sc.Username, sc.Password}
	c.mu.Lock()
	_, seen := c.fingerprints[fp]
	c.mu.Unlock()
	if seen {
		metrics.MessagesDiscardedTotal.WithLabelValues("duplicate").Inc()
		return
	}

	promptCtx, cancel := context.WithTimeout(ctx, c.opts.SavePromptTimeout)
	defer cancel()

	accepted, err := c.ui.Saver.ConfirmSave(promptCtx, sc.URL, sc.Username)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		metrics.SavePromptsTotal.WithLabelValues("timeout").Inc()
		return
	case err != nil:
		log.Error("save prompt failed", "error", err)
		return
	case !accepted:
		metrics.SavePromptsTotal.WithLabelValues("declined").Inc()
		return
	}

	if err := c.ensureUnlocked(ctx); err != nil {
		log.Info("save cancelled", "reason", err)
		return
	}

	if err := c.persist(sc); err != nil {
		log.Error("save password failed", "error", err)
		return
	}

	c.mu.Lock()
	c.fingerprints[fp] = struct{}{}
	c.mu.Unlock()
	metrics.SavePromptsTotal.WithLabelValues("accepted").Inc()
}

// persist updates the existing entry for (site, username) or adds a new one.
func (c *Coordinator) persist(sc titlechan.SubmittedCredentials) error {
	entries, err := c.vault.PasswordsForURL(sc.URL)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Username == sc.Username {
			_, err := c.vault.UpdatePassword(e.ID, nil, nil, &sc.Password)
			return err
		}
	}
	_, err = c.vault.AddPassword(sc.URL, sc.Username, sc.Password)
	return err
}

// errUnlockCancelled reports a cancelled master-password prompt.
var errUnlockCancelled = errors.New("unlock prompt cancelled")

// ensureUnlocked prompts for the master password and unlocks the vault when
// the session is locked. The prompt is blocking and cancellable; the caller
// already runs off the UI path.
func (c *Coordinator) ensureUnlocked(ctx context.Context) error {
	if c.vault.IsUnlocked() {
		return nil
	}

	password, ok, err := c.ui.Unlocker.RequestMasterPassword(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errUnlockCancelled
	}

	err = c.vault.Unlock(password)
	switch {
	case err == nil:
		metrics.UnlockAttemptsTotal.WithLabelValues("success").Inc()
		return nil
	case errors.Is(err, vault.ErrVaultDeleted):
		metrics.UnlockAttemptsTotal.WithLabelValues("vault_deleted").Inc()
		metrics.SelfDestructsTotal.Inc()
		return err
	case errors.Is(err, vault.ErrWrongPassword):
		metrics.UnlockAttemptsTotal.WithLabelValues("wrong_password").Inc()
		return err
	default:
		return err
	}
}

// Close detaches every surface and waits for in-flight dispatches.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	ids := make([]string, 0, len(c.surfaces))
	for id := range c.surfaces {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.DetachSurface(id)
	}
	c.wg.Wait()
}
