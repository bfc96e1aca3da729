// Package tokens estimates prompt sizes with the tiktoken BPE encodings.
package tokens

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Model is the model whose encoding is tried first.
const Model = "gpt-4o-mini"

// FallbackEncoding is used when the model has no known encoding.
const FallbackEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		// Ranks ship inside the binary; nothing is downloaded.
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())

		e, err := tiktoken.EncodingForModel(Model)
		if err == nil {
			enc = e
			return
		}
		slog.Debug("No tiktoken encoding for model, using fallback", "model", Model, "error", err)

		e, err = tiktoken.GetEncoding(FallbackEncoding)
		if err == nil {
			enc = e
			return
		}
		slog.Warn("Token encodings unavailable, estimating from length", "error", err)
	})
	return enc
}

// Count returns the number of tokens in text. It never fails: when no
// encoding can be loaded it falls back to one token per four characters.
func Count(text string) int {
	if text == "" {
		return 0
	}
	if e := encoder(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return estimate(text)
}

func estimate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
