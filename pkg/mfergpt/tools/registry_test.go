package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/assistant"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/farcaster"
)

func makeCall(id, name, args string) assistant.ToolCall {
	var call assistant.ToolCall
	call.ID = id
	call.Type = "function"
	call.Function.Name = name
	call.Function.Arguments = args
	return call
}

func TestResolveOneOutputPerCall(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	r.Register("greet", func(_ context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, err
		}
		return map[string]string{"greeting": "gm " + req.Name}, nil
	})
	r.Register("fail", func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("upstream down")
	})

	calls := []assistant.ToolCall{
		makeCall("call_1", "greet", `{"name":"alice"}`),
		makeCall("call_2", "fail", `{}`),
		makeCall("call_3", "no_such_tool", `{}`),
	}
	outputs := r.Resolve(context.Background(), calls)
	if len(outputs) != len(calls) {
		t.Fatalf("Resolve() returned %d outputs, want %d", len(outputs), len(calls))
	}
	for i, call := range calls {
		if outputs[i].ToolCallID != call.ID {
			t.Errorf("outputs[%d].ToolCallID = %q, want %q", i, outputs[i].ToolCallID, call.ID)
		}
	}

	if !strings.Contains(outputs[0].Output, "gm alice") {
		t.Errorf("greet output = %q", outputs[0].Output)
	}

	var errOut map[string]string
	if err := json.Unmarshal([]byte(outputs[1].Output), &errOut); err != nil {
		t.Fatalf("error output is not JSON: %v", err)
	}
	if errOut["error"] != "upstream down" {
		t.Errorf("fail output = %q", outputs[1].Output)
	}

	if err := json.Unmarshal([]byte(outputs[2].Output), &errOut); err != nil {
		t.Fatalf("unknown-tool output is not JSON: %v", err)
	}
	if errOut["error"] != "unsupported tool: no_such_tool" {
		t.Errorf("unknown-tool output = %q", outputs[2].Output)
	}
}

// fakeSocial implements Social for handler tests.
type fakeSocial struct{}

func (fakeSocial) BuildUserProfile(_ context.Context, username string, _, _ bool) *farcaster.UserProfileDetails {
	return &farcaster.UserProfileDetails{
		Profile: &farcaster.ProfileSummary{Username: username, FID: 777},
	}
}

func (fakeSocial) BuildChannelDetails(_ context.Context, query string, _ bool) *farcaster.ChannelDetails {
	return &farcaster.ChannelDetails{Channel: &farcaster.ChannelSummary{ID: query}}
}

func (fakeSocial) ResolveFID(_ context.Context, fidOrUsername string) (int64, error) {
	if fidOrUsername == "alice" {
		return 777, nil
	}
	return 0, errors.New("unknown user")
}

// fakeTips records the fid each ham call received.
type fakeTips struct {
	lastFID string
}

func (f *fakeTips) VerifyTip(_ context.Context, castHash string) (any, error) {
	return map[string]any{"valid": true, "hash": castHash}, nil
}
func (f *fakeTips) UserHamInfo(_ context.Context, fid string) (any, error) {
	f.lastFID = fid
	return map[string]any{"fid": fid}, nil
}
func (f *fakeTips) HamScores(_ context.Context, page string) (any, error) { return page, nil }
func (f *fakeTips) FloatyLeaderboard(_ context.Context, token, page string) (any, error) {
	return map[string]string{"token": token, "page": page}, nil
}
func (f *fakeTips) FloatiesLeaderboard(context.Context) (any, error) { return nil, nil }
func (f *fakeTips) FloatyReceivers(context.Context, string, string) (any, error) {
	return nil, nil
}
func (f *fakeTips) FloatyBalancesByFID(context.Context, string) (any, error) { return nil, nil }
func (f *fakeTips) AirdropPoints(_ context.Context, season, wallet string) (any, error) {
	return map[string]string{"season": season, "wallet": wallet}, nil
}
func (f *fakeTips) AirdropAllowances(context.Context, string, string) (any, error) {
	return nil, nil
}
func (f *fakeTips) AirdropTips(context.Context, string, string, string) (any, error) {
	return nil, nil
}

type fakeMfers struct{}

func (fakeMfers) Description(_ context.Context, id int) (string, error) {
	if id == 1 {
		return "a zombie mfer", nil
	}
	return "", errors.New("not found")
}

type fakeImages struct{}

func (fakeImages) GenerateHostedImage(context.Context, string) (string, error) {
	return "https://iili.io/gen.png", nil
}

type fakeURLs struct{}

func (fakeURLs) InterpretURL(context.Context, string, string) string { return "a web page" }

func newDefaultRegistry(tips *fakeTips) *Registry {
	return NewDefault(Deps{
		Social: fakeSocial{},
		Images: fakeImages{},
		URLs:   fakeURLs{},
		Mfers:  fakeMfers{},
		Tips:   tips,
	})
}

func TestDefaultRegistryProfileTool(t *testing.T) {
	t.Parallel()

	r := newDefaultRegistry(&fakeTips{})
	outputs := r.Resolve(context.Background(), []assistant.ToolCall{
		makeCall("call_1", "fetch_user_profile", `{"username":"@alice"}`),
	})
	if !strings.Contains(outputs[0].Output, `"username":"alice"`) {
		t.Errorf("fetch_user_profile output = %q, want @-prefix stripped", outputs[0].Output)
	}
}

type fakeProfileCache struct {
	entries map[string]json.RawMessage
	saves   int
}

func (f *fakeProfileCache) Profile(username string) (json.RawMessage, bool) {
	p, ok := f.entries[username]
	return p, ok
}

func (f *fakeProfileCache) SaveProfile(username string, profile json.RawMessage) error {
	f.entries[username] = profile
	f.saves++
	return nil
}

func TestDefaultRegistryProfileCache(t *testing.T) {
	t.Parallel()

	cache := &fakeProfileCache{entries: map[string]json.RawMessage{}}
	r := NewDefault(Deps{
		Social:   fakeSocial{},
		Images:   fakeImages{},
		URLs:     fakeURLs{},
		Mfers:    fakeMfers{},
		Tips:     &fakeTips{},
		Profiles: cache,
	})
	call := makeCall("call_1", "fetch_user_profile", `{"username":"alice"}`)

	r.Resolve(context.Background(), []assistant.ToolCall{call})
	if cache.saves != 1 {
		t.Fatalf("first lookup saved %d cache entries, want 1", cache.saves)
	}

	// Second lookup is served from the cache without another save.
	outputs := r.Resolve(context.Background(), []assistant.ToolCall{call})
	if cache.saves != 1 {
		t.Errorf("cached lookup wrote again (saves = %d)", cache.saves)
	}
	if !strings.Contains(outputs[0].Output, `"username":"alice"`) {
		t.Errorf("cached output = %q", outputs[0].Output)
	}
}

func TestDefaultRegistryResolvesUsernameToFID(t *testing.T) {
	t.Parallel()

	tips := &fakeTips{}
	r := newDefaultRegistry(tips)

	// A username in the fid slot resolves through user search.
	r.Resolve(context.Background(), []assistant.ToolCall{
		makeCall("call_1", "get_user_ham_info", `{"fid":"alice"}`),
	})
	if tips.lastFID != "777" {
		t.Errorf("ham info fid = %q, want 777", tips.lastFID)
	}

	// A numeric fid passes straight through, even as a JSON number.
	r.Resolve(context.Background(), []assistant.ToolCall{
		makeCall("call_2", "get_user_ham_info", `{"fid":1234}`),
	})
	if tips.lastFID != "1234" {
		t.Errorf("ham info fid = %q, want 1234", tips.lastFID)
	}
}

func TestDefaultRegistryMferBounds(t *testing.T) {
	t.Parallel()

	r := newDefaultRegistry(&fakeTips{})

	outputs := r.Resolve(context.Background(), []assistant.ToolCall{
		makeCall("call_1", "get_mfer_description", `{"id":1}`),
		makeCall("call_2", "get_mfer_description", `{"id":"not-a-number"}`),
	})
	if !strings.Contains(outputs[0].Output, "a zombie mfer") {
		t.Errorf("mfer description output = %q", outputs[0].Output)
	}
	if !strings.Contains(outputs[1].Output, "error") {
		t.Errorf("bad id output = %q, want error payload", outputs[1].Output)
	}
}

func TestDefaultRegistryMissingArguments(t *testing.T) {
	t.Parallel()

	r := newDefaultRegistry(&fakeTips{})
	tests := []struct {
		tool string
		args string
	}{
		{"fetch_user_profile", `{}`},
		{"fetch_channel_details", `{}`},
		{"generate_image", `{}`},
		{"fetch_url_details", `{}`},
		{"verify_tip", `{}`},
		{"fetch_airdrop_points", `{}`},
		{"fetch_airdrop_allowances", `{}`},
	}
	for _, tt := range tests {
		outputs := r.Resolve(context.Background(), []assistant.ToolCall{
			makeCall("call_1", tt.tool, tt.args),
		})
		var errOut map[string]string
		if err := json.Unmarshal([]byte(outputs[0].Output), &errOut); err != nil || errOut["error"] == "" {
			t.Errorf("%s with empty args = %q, want error payload", tt.tool, outputs[0].Output)
		}
	}
}
