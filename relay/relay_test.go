package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vkotelnikov/mistrelay/completion"
	"github.com/vkotelnikov/mistrelay/docpipe"
	"github.com/vkotelnikov/mistrelay/webpage"
)

// fakeCompleter records prompts and returns a canned result.
type fakeCompleter struct {
	prompts []string
	result  completion.Result
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) completion.Result {
	f.prompts = append(f.prompts, prompt)
	return f.result
}

func newPipeline(t *testing.T, fake *fakeCompleter) *Pipeline {
	t.Helper()
	p, err := New(Config{Completer: fake})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestHandle_PlainText(t *testing.T) {
	fake := &fakeCompleter{result: completion.Result{Text: "reply"}}
	p := newPipeline(t, fake)

	res := p.Handle(context.Background(), Request{Text: "just a question"})

	if !res.OK() || res.Text != "reply" {
		t.Fatalf("result: %+v", res)
	}
	if len(fake.prompts) != 1 || fake.prompts[0] != "just a question" {
		t.Errorf("prompt passthrough: %q", fake.prompts)
	}
}

func TestHandle_FirstURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>page text</p></body></html>"))
	}))
	defer srv.Close()

	fake := &fakeCompleter{result: completion.Result{Text: "ok"}}
	p, err := New(Config{Completer: fake, Web: webpage.New(webpage.Config{})})
	if err != nil {
		t.Fatal(err)
	}

	text := "look at " + srv.URL + " please"
	res := p.Handle(context.Background(), Request{Text: text})

	if !res.OK() {
		t.Fatalf("failure: %v", res.Failure)
	}
	if len(fake.prompts) != 1 {
		t.Fatalf("completer called %d times", len(fake.prompts))
	}
	want := "look at  please\n\npage text"
	if fake.prompts[0] != want {
		t.Errorf("prompt: got %q, want %q", fake.prompts[0], want)
	}
}

func TestHandle_OnlyFirstURLFollowed(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("<html><body>one</body></html>"))
	}))
	defer srv.Close()

	fake := &fakeCompleter{result: completion.Result{Text: "ok"}}
	p := newPipeline(t, fake)

	text := srv.URL + "/a " + srv.URL + "/b"
	if res := p.Handle(context.Background(), Request{Text: text}); !res.OK() {
		t.Fatalf("failure: %v", res.Failure)
	}
	if hits != 1 {
		t.Errorf("fetched %d URLs, want 1", hits)
	}
}

func TestHandle_FetchFailureShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	fake := &fakeCompleter{result: completion.Result{Text: "never"}}
	p := newPipeline(t, fake)

	res := p.Handle(context.Background(), Request{Text: "see " + srv.URL})

	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Failure.Kind != completion.FailureProtocol {
		t.Errorf("kind: got %q, want protocol", res.Failure.Kind)
	}
	if !strings.Contains(res.Failure.Message, "403") {
		t.Errorf("message should mention the status: %q", res.Failure.Message)
	}
	if len(fake.prompts) != 0 {
		t.Errorf("completer must not be called, got %q", fake.prompts)
	}
}

func TestHandle_Attachment(t *testing.T) {
	fake := &fakeCompleter{result: completion.Result{Text: "summary"}}
	p := newPipeline(t, fake)

	res := p.Handle(context.Background(), Request{
		Text:       "summarize this",
		Attachment: &Attachment{Data: []byte("file contents"), Format: docpipe.FormatTXT},
	})

	if !res.OK() {
		t.Fatalf("failure: %v", res.Failure)
	}
	want := "summarize this\n\nfile contents"
	if fake.prompts[0] != want {
		t.Errorf("prompt: got %q, want %q", fake.prompts[0], want)
	}
}

func TestHandle_AttachmentWithoutCaption(t *testing.T) {
	fake := &fakeCompleter{result: completion.Result{Text: "ok"}}
	p := newPipeline(t, fake)

	p.Handle(context.Background(), Request{
		Attachment: &Attachment{Data: []byte("bare document"), Format: docpipe.FormatTXT},
	})

	if fake.prompts[0] != "bare document" {
		t.Errorf("prompt: got %q", fake.prompts[0])
	}
}

func TestHandle_CorruptAttachmentShortCircuits(t *testing.T) {
	fake := &fakeCompleter{result: completion.Result{Text: "never"}}
	p := newPipeline(t, fake)

	res := p.Handle(context.Background(), Request{
		Text:       "read this",
		Attachment: &Attachment{Data: []byte("not a zip"), Format: docpipe.FormatDocx},
	})

	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Failure.Kind != completion.FailureProtocol {
		t.Errorf("kind: got %q, want protocol", res.Failure.Kind)
	}
	if len(fake.prompts) != 0 {
		t.Errorf("completer must not be called, got %q", fake.prompts)
	}
}

func TestHandle_UnsupportedAttachmentFormat(t *testing.T) {
	fake := &fakeCompleter{}
	p := newPipeline(t, fake)

	res := p.Handle(context.Background(), Request{
		Attachment: &Attachment{Data: []byte("x"), Format: docpipe.Format("odt")},
	})

	if res.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Failure.Message, "unsupported") {
		t.Errorf("message: %q", res.Failure.Message)
	}
}

func TestHandle_AttachmentTakesPriorityOverURL(t *testing.T) {
	fake := &fakeCompleter{result: completion.Result{Text: "ok"}}
	p := newPipeline(t, fake)

	// Text contains a URL, but the attachment wins; no fetch happens
	// (the URL points nowhere routable, so a fetch attempt would fail).
	p.Handle(context.Background(), Request{
		Text:       "compare with https://192.0.2.1/doc",
		Attachment: &Attachment{Data: []byte("attached"), Format: docpipe.FormatTXT},
	})

	if len(fake.prompts) != 1 || !strings.Contains(fake.prompts[0], "attached") {
		t.Errorf("prompts: %q", fake.prompts)
	}
}

func TestSegments(t *testing.T) {
	fake := &fakeCompleter{}
	p, err := New(Config{Completer: fake, SegmentLen: 4})
	if err != nil {
		t.Fatal(err)
	}

	got := p.Segments(completion.Result{Text: "abcdefghij"})
	if len(got) != 3 {
		t.Fatalf("got %d segments, want 3", len(got))
	}
	if strings.Join(got, "") != "abcdefghij" {
		t.Errorf("segments do not reproduce text: %q", got)
	}

	if got := p.Segments(completion.Result{Failure: &completion.Failure{Kind: completion.FailureTimeout}}); got != nil {
		t.Errorf("failed result must yield no segments, got %q", got)
	}
}

func TestNew_RequiresCompleter(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing completer")
	}
}
