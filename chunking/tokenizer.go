// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunking

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/poiesic/vectorline/core"
)

// span is one token's character range in the source text.
type span struct {
	start int
	end   int
}

// tokenizer turns text into ordered character spans. Windowed strategies
// slice chunk text out of the original string from span offsets, so
// whatever separated the tokens survives inside a chunk.
type tokenizer interface {
	tokenize(text string) ([]span, error)
	count(text string) (int, error)
}

var nonSpace = regexp.MustCompile(`\S+`)

// whitespaceTokenizer treats every maximal run of non-whitespace as one
// token. It is the default: cheap, offline, and what the token-size knobs
// in stock profiles are calibrated against.
type whitespaceTokenizer struct{}

func (whitespaceTokenizer) tokenize(text string) ([]span, error) {
	matches := nonSpace.FindAllStringIndex(text, -1)
	spans := make([]span, len(matches))
	for i, m := range matches {
		spans[i] = span{start: m[0], end: m[1]}
	}
	return spans, nil
}

func (whitespaceTokenizer) count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

// bpeTokenizer wraps a tiktoken encoding. Offsets are recovered by
// decoding each token and locating it forward in the text, so spans stay
// monotonic even when a piece appears more than once.
type bpeTokenizer struct {
	encoding *tiktoken.Tiktoken
}

func (t *bpeTokenizer) tokenize(text string) ([]span, error) {
	ids := t.encoding.Encode(text, nil, nil)
	spans := make([]span, 0, len(ids))
	offset := 0
	for _, id := range ids {
		piece := t.encoding.Decode([]int{id})
		start := strings.Index(text[offset:], piece)
		if start < 0 {
			start = 0
		}
		start += offset
		end := start + len(piece)
		offset = end
		spans = append(spans, span{start: start, end: end})
	}
	return spans, nil
}

func (t *bpeTokenizer) count(text string) (int, error) {
	return len(t.encoding.Encode(text, nil, nil)), nil
}

var (
	encodingMu    sync.Mutex
	encodingCache = map[string]*bpeTokenizer{}
)

// forTokenizer resolves a tokenizer by config name. Empty or "whitespace"
// selects the default; "tiktoken" selects cl100k_base; any other name is
// passed to tiktoken as an encoding name. BPE encodings are cached
// process-wide after first load.
func forTokenizer(name string) (tokenizer, error) {
	switch name {
	case "", "whitespace":
		return whitespaceTokenizer{}, nil
	case "tiktoken":
		name = "cl100k_base"
	}

	encodingMu.Lock()
	defer encodingMu.Unlock()
	if t, ok := encodingCache[name]; ok {
		return t, nil
	}

	encoding, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown tokenizer %q: %v", core.ErrInvariantViolation, name, err)
	}
	t := &bpeTokenizer{encoding: encoding}
	encodingCache[name] = t
	return t, nil
}
