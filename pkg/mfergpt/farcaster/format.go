package farcaster

import (
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
)

// rateTagPattern matches the bracketed ham-tip rating markers some replies
// carry (e.g. "[... RATE:4/5 ...]"). They are internal scoring artifacts
// and must never reach a published cast.
var rateTagPattern = regexp.MustCompile(`\[[^\[\]]*RATE:\d/5[^\[\]]*\]`)

// tickerPattern matches cashtag-style ticker mentions ($DEGEN, $HAM, ...).
var tickerPattern = regexp.MustCompile(`\$[A-Za-z][A-Za-z0-9]{1,9}`)

// SplitMessage splits text into chunks of at most maxBytes bytes each.
// Chunking is lossless: concatenating the chunks in order reconstructs the
// input exactly. An empty message yields no chunks, so nothing is published.
func SplitMessage(text string, maxBytes int) []string {
	if text == "" {
		return nil
	}
	if maxBytes <= 0 || len(text) <= maxBytes {
		return []string{text}
	}
	chunks := make([]string, 0, (len(text)+maxBytes-1)/maxBytes)
	for len(text) > maxBytes {
		chunks = append(chunks, text[:maxBytes])
		text = text[maxBytes:]
	}
	return append(chunks, text)
}

// RemoveRateTag strips ham-tip rating markers from a reply.
func RemoveRateTag(text string) string {
	return rateTagPattern.ReplaceAllString(text, "")
}

// Sanitizer applies the output transforms run on every reply before it is
// published: rating-marker removal and capping of runaway emoji/ticker
// repetition from a misbehaving model.
type Sanitizer struct {
	// EmojiCap is how many emoji instances survive; the rest become
	// Placeholder. Zero or negative disables the cap.
	EmojiCap int

	// TickerCap is the same cap for $TICKER mentions.
	TickerCap int

	// Placeholder replaces instances beyond the caps.
	Placeholder string
}

// Sanitize runs all transforms on a reply.
func (s Sanitizer) Sanitize(text string) string {
	text = RemoveRateTag(text)
	text = s.capEmoji(text)
	text = s.capTickers(text)
	return text
}

// capEmoji keeps the first EmojiCap emoji instances (in reading order) and
// replaces the rest with the placeholder.
func (s Sanitizer) capEmoji(text string) string {
	if s.EmojiCap <= 0 {
		return text
	}
	found := gomoji.FindAll(text)
	if len(found) == 0 {
		return text
	}

	// Distinct emoji sequences present in the text, longest first so that
	// multi-rune sequences are matched before their single-rune prefixes.
	seqs := make([]string, 0, len(found))
	for _, e := range found {
		seqs = append(seqs, e.Character)
	}

	var b strings.Builder
	b.Grow(len(text))
	count := 0
	for len(text) > 0 {
		idx, seq := earliest(text, seqs)
		if idx < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:idx])
		count++
		if count > s.EmojiCap {
			b.WriteString(s.Placeholder)
		} else {
			b.WriteString(seq)
		}
		text = text[idx+len(seq):]
	}
	return b.String()
}

// earliest finds the leftmost occurrence of any sequence, preferring the
// longest sequence at a tied position.
func earliest(text string, seqs []string) (int, string) {
	bestIdx := -1
	bestSeq := ""
	for _, seq := range seqs {
		if seq == "" {
			continue
		}
		idx := strings.Index(text, seq)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx || (idx == bestIdx && len(seq) > len(bestSeq)) {
			bestIdx = idx
			bestSeq = seq
		}
	}
	return bestIdx, bestSeq
}

// capTickers keeps the first TickerCap $TICKER mentions and replaces the
// rest with the placeholder.
func (s Sanitizer) capTickers(text string) string {
	if s.TickerCap <= 0 {
		return text
	}
	count := 0
	return tickerPattern.ReplaceAllStringFunc(text, func(match string) string {
		count++
		if count > s.TickerCap {
			return s.Placeholder
		}
		return match
	})
}
