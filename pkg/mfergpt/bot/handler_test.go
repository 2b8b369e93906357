package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/farcaster"
)

type fakeStore struct {
	sessions map[string]string
	prompts  map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]string), prompts: make(map[int64]string)}
}

func (f *fakeStore) SessionFor(threadHash string) (string, bool) {
	id, ok := f.sessions[threadHash]
	return id, ok
}

func (f *fakeStore) SaveSession(threadHash, sessionID string) error {
	f.sessions[threadHash] = sessionID
	return nil
}

func (f *fakeStore) PersonalPrompt(fid int64) (string, bool) {
	p, ok := f.prompts[fid]
	return p, ok
}

type publishedCast struct {
	text string
	opts farcaster.PublishOptions
}

type fakeSocial struct {
	threadContext string
	published     []publishedCast
	publishErr    error
}

func (f *fakeSocial) ThreadContext(context.Context, string) string { return f.threadContext }

func (f *fakeSocial) PublishCast(_ context.Context, text string, opts farcaster.PublishOptions) (*farcaster.Cast, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.published = append(f.published, publishedCast{text: text, opts: opts})
	return &farcaster.Cast{Hash: fmt.Sprintf("0xreply%d", len(f.published))}, nil
}

type fakeAssist struct {
	reply       string
	runErr      error
	threadErr   error
	threads     int
	messages    []string
	runSessions []string
}

func (f *fakeAssist) NewThread(context.Context) (string, error) {
	if f.threadErr != nil {
		return "", f.threadErr
	}
	f.threads++
	return fmt.Sprintf("thread_%d", f.threads), nil
}

func (f *fakeAssist) CreateUserMessage(_ context.Context, _, content string) error {
	f.messages = append(f.messages, content)
	return nil
}

func (f *fakeAssist) Run(_ context.Context, sessionID, _ string) (string, error) {
	f.runSessions = append(f.runSessions, sessionID)
	return f.reply, f.runErr
}

type fakeImages struct {
	url    string
	err    error
	prompt string
}

func (f *fakeImages) GenerateHostedImage(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.url, f.err
}

type fakeExpander struct{}

func (fakeExpander) ExpandTags(_ context.Context, prompt string) string {
	return strings.ReplaceAll(prompt, "#mfer1", "a zombie mfer")
}

func newTestHandler(store *fakeStore, social *fakeSocial, assist *fakeAssist, images *fakeImages) *Handler {
	return NewHandler(store, social, assist, images, fakeExpander{}, NewDedupe(16), Options{
		AssistantID: "asst_1",
		ChunkBytes:  768,
		Sanitizer:   farcaster.Sanitizer{EmojiCap: 8, TickerCap: 5, Placeholder: "…"},
	}, nil)
}

func mention(hash, threadHash, text string) farcaster.Cast {
	cast := farcaster.Cast{Hash: hash, ThreadHash: threadHash, Text: text}
	cast.Author.Username = "alice"
	cast.Author.FID = 777
	return cast
}

func TestHandleCastRepliesInThread(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	social := &fakeSocial{threadContext: "Alice: gm\nBot: gm back"}
	assist := &fakeAssist{reply: "here is your answer"}
	h := newTestHandler(store, social, assist, &fakeImages{})

	if err := h.HandleCast(context.Background(), mention("0xc1", "0xroot", "what is ham?")); err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}

	if got := store.sessions["0xroot"]; got != "thread_1" {
		t.Errorf("session mapping = %q, want thread_1", got)
	}
	if len(assist.messages) != 1 {
		t.Fatalf("assistant got %d messages, want 1", len(assist.messages))
	}
	content := assist.messages[0]
	if !strings.Contains(content, "Alice: gm") {
		t.Errorf("context missing thread history: %q", content)
	}
	if !strings.Contains(content, "Latest cast from alice: what is ham?") {
		t.Errorf("context missing latest cast: %q", content)
	}
	if len(social.published) != 1 || social.published[0].text != "here is your answer" {
		t.Errorf("published = %+v", social.published)
	}
	if social.published[0].opts.ReplyTo != "0xc1" {
		t.Errorf("reply parent = %q, want the triggering cast", social.published[0].opts.ReplyTo)
	}
}

func TestHandleCastReusesSession(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.sessions["0xroot"] = "thread_existing"
	assist := &fakeAssist{reply: "again"}
	h := newTestHandler(store, &fakeSocial{}, assist, &fakeImages{})

	if err := h.HandleCast(context.Background(), mention("0xc2", "0xroot", "follow-up")); err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}
	if assist.threads != 0 {
		t.Error("existing session must not create a new thread")
	}
	if len(assist.runSessions) != 1 || assist.runSessions[0] != "thread_existing" {
		t.Errorf("run sessions = %v", assist.runSessions)
	}
}

func TestHandleCastDeduplicates(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	social := &fakeSocial{}
	assist := &fakeAssist{reply: "once"}
	h := newTestHandler(store, social, assist, &fakeImages{})

	cast := mention("0xdup", "0xroot", "hello")
	for i := 0; i < 3; i++ {
		if err := h.HandleCast(context.Background(), cast); err != nil {
			t.Fatalf("HandleCast() #%d error = %v", i+1, err)
		}
	}
	if len(social.published) != 1 {
		t.Errorf("published %d replies for one cast, want 1", len(social.published))
	}
}

func TestHandleCastChunksLongReply(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	social := &fakeSocial{}
	assist := &fakeAssist{reply: strings.Repeat("a", 768*2+10)}
	h := newTestHandler(store, social, assist, &fakeImages{})

	if err := h.HandleCast(context.Background(), mention("0xc3", "0xroot", "long answer please")); err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}
	if len(social.published) != 3 {
		t.Fatalf("published %d chunks, want 3", len(social.published))
	}
	// Chunks chain: first replies to the mention, each next to the previous.
	if social.published[0].opts.ReplyTo != "0xc3" {
		t.Errorf("chunk 1 parent = %q", social.published[0].opts.ReplyTo)
	}
	if social.published[1].opts.ReplyTo != "0xreply1" {
		t.Errorf("chunk 2 parent = %q, want 0xreply1", social.published[1].opts.ReplyTo)
	}
	if social.published[2].opts.ReplyTo != "0xreply2" {
		t.Errorf("chunk 3 parent = %q, want 0xreply2", social.published[2].opts.ReplyTo)
	}
	var total int
	for _, p := range social.published {
		total += len(p.text)
	}
	if total != 768*2+10 {
		t.Errorf("chunked reply lost bytes: %d", total)
	}
}

func TestHandleCastImageBypass(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	social := &fakeSocial{}
	assist := &fakeAssist{}
	images := &fakeImages{url: "https://iili.io/gen.png"}
	h := newTestHandler(store, social, assist, images)

	err := h.HandleCast(context.Background(), mention("0xc4", "0xroot", "#generateimage #mfer1 surfing"))
	if err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}
	if len(assist.runSessions) != 0 {
		t.Error("image request must bypass the assistant run")
	}
	if images.prompt != "a zombie mfer surfing" {
		t.Errorf("image prompt = %q, want tag expanded and trigger stripped", images.prompt)
	}
	if len(social.published) != 1 {
		t.Fatalf("published = %+v, want one image reply", social.published)
	}
	if social.published[0].text != "heres ur image mfer" {
		t.Errorf("image reply text = %q", social.published[0].text)
	}
	embeds := social.published[0].opts.Embeds
	if len(embeds) != 1 || embeds[0].URL != "https://iili.io/gen.png" {
		t.Errorf("image reply embeds = %+v", embeds)
	}
}

func TestHandleCastImageBypassFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	social := &fakeSocial{}
	images := &fakeImages{err: errors.New("dall-e down")}
	h := newTestHandler(store, social, &fakeAssist{}, images)

	err := h.HandleCast(context.Background(), mention("0xc8", "0xroot", "#generateimage a cat"))
	if err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}
	if len(social.published) != 1 || social.published[0].text != "no luck, try again" {
		t.Errorf("published = %+v, want the failure reply", social.published)
	}
	if len(social.published[0].opts.Embeds) != 0 {
		t.Errorf("failure reply carries embeds: %+v", social.published[0].opts.Embeds)
	}
}

func TestHandleCastApologizesOnRunFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	social := &fakeSocial{}
	assist := &fakeAssist{runErr: errors.New("model melted")}
	h := newTestHandler(store, social, assist, &fakeImages{})

	if err := h.HandleCast(context.Background(), mention("0xc5", "0xroot", "hello")); err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}
	if len(social.published) != 1 {
		t.Fatalf("published = %+v, want one apology", social.published)
	}
	if !strings.Contains(social.published[0].text, "Sorry") {
		t.Errorf("apology text = %q", social.published[0].text)
	}
}

func TestHandleCastEmptyReplyPublishesNothing(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	social := &fakeSocial{}
	assist := &fakeAssist{reply: ""}
	h := newTestHandler(store, social, assist, &fakeImages{})

	if err := h.HandleCast(context.Background(), mention("0xc9", "0xroot", "hello")); err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}
	if len(social.published) != 0 {
		t.Errorf("published = %+v, want no casts for an empty reply", social.published)
	}
}

func TestHandleCastPersonalPrompt(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.prompts[777] = "always answer in haiku"
	assist := &fakeAssist{reply: "ok"}
	h := newTestHandler(store, &fakeSocial{}, assist, &fakeImages{})

	if err := h.HandleCast(context.Background(), mention("0xc6", "0xroot", "gm")); err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}
	if !strings.Contains(assist.messages[0], "always answer in haiku") {
		t.Errorf("context missing personal prompt: %q", assist.messages[0])
	}
}

func TestHandleCastSanitizesReply(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	social := &fakeSocial{}
	assist := &fakeAssist{reply: "great cast [vibes RATE:5/5 approved] fren"}
	h := newTestHandler(store, social, assist, &fakeImages{})

	if err := h.HandleCast(context.Background(), mention("0xc7", "0xroot", "rate me")); err != nil {
		t.Fatalf("HandleCast() error = %v", err)
	}
	if got := social.published[0].text; strings.Contains(got, "RATE:") {
		t.Errorf("published reply leaked rating marker: %q", got)
	}
}

func TestDedupeBounded(t *testing.T) {
	t.Parallel()

	d := NewDedupe(3)
	for i := 0; i < 10; i++ {
		if !d.MarkIfNew(fmt.Sprintf("0x%d", i)) {
			t.Fatalf("hash 0x%d should be new", i)
		}
	}
	if d.Len() != 3 {
		t.Errorf("Len() = %d, want capacity 3", d.Len())
	}
	// Oldest entries were evicted and count as new again.
	if !d.MarkIfNew("0x0") {
		t.Error("evicted hash should be markable again")
	}
	// Newest entries are still tracked.
	if d.MarkIfNew("0x9") {
		t.Error("recent hash should still be tracked")
	}
}
