package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	clsTokenID = 101
	sepTokenID = 102
	vocabSize  = 30000
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// PairTokenizer encodes a (query, passage) pair for cross-encoder models.
type PairTokenizer interface {
	TokenizePair(query, passage string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer maps tokens to hash-based IDs. It does not need a vocabulary file.
type SimpleTokenizer struct{}

// Tokenize encodes [CLS] text [SEP], padded to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = clsTokenID
	attentionMask[0] = 1
	pos := fill(inputIDs, attentionMask, nil, 1, Tokens(text), maxTokens-1, 0)
	if pos < maxTokens {
		inputIDs[pos] = sepTokenID
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// TokenizePair encodes [CLS] query [SEP] passage [SEP]; passage tokens get type 1.
// The query keeps at most half the window so the passage is never crowded out.
func (t *SimpleTokenizer) TokenizePair(query, passage string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = clsTokenID
	attentionMask[0] = 1
	pos := fill(inputIDs, attentionMask, nil, 1, Tokens(query), maxTokens/2, 0)
	if pos >= maxTokens {
		return inputIDs, attentionMask, tokenTypeIDs
	}
	inputIDs[pos] = sepTokenID
	attentionMask[pos] = 1
	pos++
	pos = fill(inputIDs, attentionMask, tokenTypeIDs, pos, Tokens(passage), maxTokens-1, 1)
	if pos < maxTokens {
		inputIDs[pos] = sepTokenID
		attentionMask[pos] = 1
		tokenTypeIDs[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// fill writes token IDs starting at pos up to (not including) limit and returns the next position.
func fill(ids, mask, types []int64, pos int, tokens []string, limit int, typeID int64) int {
	for _, tok := range tokens {
		if pos >= limit {
			break
		}
		ids[pos] = int64(HashString(tok)%(vocabSize-1000)) + 1000
		mask[pos] = 1
		if types != nil {
			types[pos] = typeID
		}
		pos++
	}
	return pos
}

// Tokens lowercases text and splits it into word tokens. Letters and digits form words;
// each Han, Hiragana, Katakana or Hangul character is a token of its own.
func Tokens(text string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case isIdeographic(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isIdeographic(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString returns a deterministic 32-bit FNV-1a hash of s.
func HashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
