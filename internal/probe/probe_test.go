package probe

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nihmadev/Axion/internal/titlechan"
	"github.com/nihmadev/Axion/internal/webpage"
)

// fastOptions keeps timers short so tests finish quickly.
func fastOptions() Options {
	return Options{
		MutationDebounce: 5 * time.Millisecond,
		PollInterval:     20 * time.Millisecond,
		ClickFlushDelay:  5 * time.Millisecond,
	}
}

// frameLog collects decoded channel messages observed on a document's title.
type frameLog struct {
	mu   sync.Mutex
	msgs []*titlechan.Message
}

func observe(doc *webpage.Document) *frameLog {
	log := &frameLog{}
	doc.ObserveTitle(func(title string) {
		if msg, ok := titlechan.Decode(title); ok {
			log.mu.Lock()
			log.msgs = append(log.msgs, msg)
			log.mu.Unlock()
		}
	})
	return log
}

func (l *frameLog) ofType(typ titlechan.MessageType) []*titlechan.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*titlechan.Message
	for _, m := range l.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (l *frameLog) waitFor(t *testing.T, typ titlechan.MessageType) *titlechan.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := l.ofType(typ); len(msgs) > 0 {
			return msgs[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no %s message observed", typ)
	return nil
}

func loginPage() (*webpage.Document, *webpage.Form, *webpage.Field, *webpage.Field) {
	doc := webpage.New("https://example.com/login")
	form := doc.AddForm()
	username := form.AddField(webpage.FieldSpec{Type: "text", Name: "username"})
	password := form.AddField(webpage.FieldSpec{Type: "password", Name: "password"})
	return doc, form, username, password
}

func installProbe(t *testing.T, doc *webpage.Document) *Probe {
	t.Helper()
	tx := titlechan.NewSender(doc, 2*time.Millisecond)
	p, err := Install(doc, tx, fastOptions())
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func TestInstall_DetectsLoginForm(t *testing.T) {
	doc, _, username, password := loginPage()
	log := observe(doc)
	p := installProbe(t, doc)

	msg := log.waitFor(t, titlechan.TypeFormDetected)
	var payload titlechan.FormDetected
	if err := msg.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if payload.URL != "https://example.com/login" || !payload.HasUsername || !payload.HasPassword {
		t.Fatalf("unexpected payload %+v", payload)
	}

	form := p.Form()
	if form == nil {
		t.Fatal("expected a detected form")
	}
	if form.Username != username || form.Password != password {
		t.Fatal("detected the wrong fields")
	}
}

func TestInstall_Twice(t *testing.T) {
	doc, _, _, _ := loginPage()
	installProbe(t, doc)

	tx := titlechan.NewSender(doc, 2*time.Millisecond)
	if _, err := Install(doc, tx, fastOptions()); !errors.Is(err, ErrAlreadyInstalled) {
		t.Fatalf("expected ErrAlreadyInstalled, got %v", err)
	}
}

func TestInstall_AfterNavigation(t *testing.T) {
	doc, _, _, _ := loginPage()
	p := installProbe(t, doc)
	p.Stop()

	doc.Navigate("https://example.com/next")
	// Navigation cleared the sentinel, so a fresh install succeeds.
	installProbe(t, doc)
}

func TestDetect_NoPasswordField(t *testing.T) {
	doc := webpage.New("https://example.com")
	form := doc.AddForm()
	form.AddField(webpage.FieldSpec{Type: "text", Name: "search"})

	p := installProbe(t, doc)
	if p.Form() != nil {
		t.Fatal("no form should be detected without a password field")
	}
}

func TestDetect_IgnoresInvisiblePassword(t *testing.T) {
	doc := webpage.New("https://example.com")
	form := doc.AddForm()
	form.AddField(webpage.FieldSpec{Type: "text", Name: "username"})
	form.AddField(webpage.FieldSpec{Type: "password", Name: "password", Display: "none"})

	p := installProbe(t, doc)
	if p.Form() != nil {
		t.Fatal("hidden password field should not be detected")
	}
}

func TestDetect_SkipsConfirmPassword(t *testing.T) {
	doc := webpage.New("https://example.com/signup")
	form := doc.AddForm()
	form.AddField(webpage.FieldSpec{Type: "text", Name: "username"})
	first := form.AddField(webpage.FieldSpec{Type: "password", Name: "password"})
	form.AddField(webpage.FieldSpec{Type: "password", Name: "confirm_password"})

	p := installProbe(t, doc)
	detected := p.Form()
	if detected == nil {
		t.Fatal("expected a detected form")
	}
	if detected.Password != first {
		t.Fatal("the first password field per form should win")
	}
}

func TestDetect_FormlessFields(t *testing.T) {
	doc := webpage.New("https://example.com")
	username := doc.AddField(webpage.FieldSpec{Type: "email", Name: "user_email"})
	password := doc.AddField(webpage.FieldSpec{Type: "password", Name: "pw"})

	p := installProbe(t, doc)
	detected := p.Form()
	if detected == nil {
		t.Fatal("formless password field should still be detected")
	}
	if detected.Username != username || detected.Password != password {
		t.Fatal("detected the wrong fields")
	}
}

func TestDetect_UsernameFallbackNearestPreceding(t *testing.T) {
	doc := webpage.New("https://example.com")
	form := doc.AddForm()
	// Neither field matches the attribute strategies.
	form.AddField(webpage.FieldSpec{Type: "text", Name: "first"})
	nearest := form.AddField(webpage.FieldSpec{Type: "text", Name: "second"})
	form.AddField(webpage.FieldSpec{Type: "password", Name: "pw"})

	p := installProbe(t, doc)
	detected := p.Form()
	if detected == nil {
		t.Fatal("expected a detected form")
	}
	if detected.Username != nearest {
		t.Fatalf("expected nearest preceding text input, got %q", detected.Username.Name)
	}
}

func TestDetect_MutationRedetects(t *testing.T) {
	doc := webpage.New("https://example.com/spa")
	p := installProbe(t, doc)
	if p.Form() != nil {
		t.Fatal("empty page should have no form")
	}

	// A login form appears dynamically.
	form := doc.AddForm()
	form.AddField(webpage.FieldSpec{Type: "text", Name: "username"})
	form.AddField(webpage.FieldSpec{Type: "password", Name: "password"})
	doc.Mutate()

	deadline := time.Now().Add(2 * time.Second)
	for p.Form() == nil {
		if time.Now().After(deadline) {
			t.Fatal("mutation did not trigger re-detection")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFill(t *testing.T) {
	doc, _, username, password := loginPage()
	p := installProbe(t, doc)

	if !p.Fill("alice", "hunter22") {
		t.Fatal("Fill should succeed with a live form")
	}
	if username.Value() != "alice" || password.Value() != "hunter22" {
		t.Fatalf("fields not filled: %q %q", username.Value(), password.Value())
	}

	// Filled fields get input and change notifications so page scripts see
	// the new values.
	events := password.Events()
	if len(events) != 2 || events[0] != "input" || events[1] != "change" {
		t.Fatalf("expected input+change, got %v", events)
	}
}

func TestFill_Repeatable(t *testing.T) {
	doc, _, username, password := loginPage()
	p := installProbe(t, doc)

	if !p.Fill("alice", "hunter22") {
		t.Fatal("first Fill should succeed")
	}
	if !p.Fill("bob", "swordfish") {
		t.Fatal("second Fill should succeed while the form is live")
	}
	if username.Value() != "bob" || password.Value() != "swordfish" {
		t.Fatalf("second fill should overwrite values: %q %q", username.Value(), password.Value())
	}
}

func TestFill_DetachedForm(t *testing.T) {
	doc, _, _, _ := loginPage()
	p := installProbe(t, doc)

	doc.Navigate("https://example.com/next")

	if p.Fill("alice", "hunter22") {
		t.Fatal("Fill should fail after navigation detached the fields")
	}
	if p.Form() != nil {
		t.Fatal("stale form reference should be cleared")
	}
}

func TestFill_NoForm(t *testing.T) {
	doc := webpage.New("https://example.com")
	p := installProbe(t, doc)
	if p.Fill("alice", "hunter22") {
		t.Fatal("Fill should report false with no detected form")
	}
}

func TestRequestAutofill(t *testing.T) {
	doc, _, _, _ := loginPage()
	log := observe(doc)
	p := installProbe(t, doc)

	p.RequestAutofill()

	msg := log.waitFor(t, titlechan.TypeRequestAutofill)
	var payload titlechan.AutofillRequest
	if err := msg.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if payload.URL != "https://example.com/login" {
		t.Fatalf("unexpected URL %q", payload.URL)
	}
}

func TestCapture_OnSubmit(t *testing.T) {
	doc, form, username, password := loginPage()
	log := observe(doc)
	installProbe(t, doc)

	username.SetValue("alice")
	password.SetValue("hunter22")
	doc.Submit(form)

	msg := log.waitFor(t, titlechan.TypeCredentialsSubmitted)
	var payload titlechan.SubmittedCredentials
	if err := msg.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if payload.Username != "alice" || payload.Password != "hunter22" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCapture_SubmitWithEmptyFields(t *testing.T) {
	doc, form, _, _ := loginPage()
	log := observe(doc)
	installProbe(t, doc)

	doc.Submit(form)
	time.Sleep(20 * time.Millisecond)

	if msgs := log.ofType(titlechan.TypeCredentialsSubmitted); len(msgs) != 0 {
		t.Fatal("empty fields should not be captured")
	}
}

func TestCapture_OnSubmitButtonClick(t *testing.T) {
	doc, form, username, password := loginPage()
	log := observe(doc)
	installProbe(t, doc)

	username.SetValue("alice")
	password.SetValue("hunter22")
	doc.ClickSubmit(form)

	// Emitted after the click flush delay.
	log.waitFor(t, titlechan.TypeCredentialsSubmitted)
}

func TestCapture_BlurBuffersUntilUnload(t *testing.T) {
	doc, _, username, password := loginPage()
	log := observe(doc)
	installProbe(t, doc)

	username.SetValue("alice")
	password.SetValue("hunter22")
	doc.Blur(password)
	time.Sleep(20 * time.Millisecond)

	// Blur alone never emits.
	if msgs := log.ofType(titlechan.TypeCredentialsSubmitted); len(msgs) != 0 {
		t.Fatal("blur should only buffer, not emit")
	}

	doc.Unload()
	log.waitFor(t, titlechan.TypeCredentialsSubmitted)
}

func TestCapture_UnloadWithoutPending(t *testing.T) {
	doc, _, _, _ := loginPage()
	log := observe(doc)
	installProbe(t, doc)

	doc.Unload()
	time.Sleep(20 * time.Millisecond)

	if msgs := log.ofType(titlechan.TypeCredentialsSubmitted); len(msgs) != 0 {
		t.Fatal("unload with nothing pending should emit nothing")
	}
}

func TestMatchers_UsernamePriority(t *testing.T) {
	doc := webpage.New("https://example.com")
	form := doc.AddForm()
	// An email-typed input outranks a text input with name~user.
	byName := form.AddField(webpage.FieldSpec{Type: "text", Name: "user_login"})
	byType := form.AddField(webpage.FieldSpec{Type: "email", Name: "contact"})
	form.AddField(webpage.FieldSpec{Type: "password", Name: "pw"})

	p := installProbe(t, doc)
	detected := p.Form()
	if detected == nil {
		t.Fatal("expected a detected form")
	}
	if detected.Username != byType {
		t.Fatalf("type=email should outrank name matching, got %q", detected.Username.Name)
	}
	_ = byName
}
