package embed

import (
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/kaipakiran/khoj/internal/errs"
)

// Tokenizer produces fixed-length, right-padded WordPiece encodings for the
// text embedder, matching BERT's {input_ids, attention_mask, token_type_ids}
// input contract.
type Tokenizer struct {
	inner *tokenizer.Tokenizer
}

// LoadTokenizer reads a tokenizer.json file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, errs.Embedding("load tokenizer", err)
	}
	return &Tokenizer{inner: tk}, nil
}

// Encoded holds the three parallel input tensors the BERT/CLIP graphs
// expect, each padded or truncated to maxLength.
type Encoded struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}

// Encode tokenizes text, truncating or right-padding to maxLength.
func (t *Tokenizer) Encode(text string, maxLength int) (*Encoded, error) {
	en, err := t.inner.EncodeSingle(text, true)
	if err != nil {
		return nil, errs.Embedding("tokenize text", err)
	}

	ids, mask, types := padTruncate(toInt64(en.Ids), toInt64(en.AttentionMask), toInt64(en.TypeIds), maxLength, t.padID())
	return &Encoded{InputIDs: ids, AttentionMask: mask, TokenTypeIDs: types}, nil
}

// padID returns the tokenizer's configured pad token id, defaulting to 0
// (the conventional [PAD] id for BERT-family vocabularies) when the
// tokenizer.json doesn't configure padding explicitly.
func (t *Tokenizer) padID() int64 {
	if p := t.inner.GetPadding(); p != nil {
		return int64(p.PadId)
	}
	return 0
}

// padTruncate truncates each slice to maxLength or right-pads to it.
// input_ids pad with padID; attention_mask and token_type_ids always pad
// with 0, matching BERT's convention that padding positions are masked
// out regardless of which token id fills them.
func padTruncate(ids, mask, types []int64, maxLength int, padID int64) ([]int64, []int64, []int64) {
	if len(ids) > maxLength {
		ids = ids[:maxLength]
		mask = mask[:maxLength]
		types = types[:maxLength]
	}

	pad := maxLength - len(ids)
	if pad > 0 {
		idPad := make([]int64, pad)
		for i := range idPad {
			idPad[i] = padID
		}
		ids = append(append([]int64{}, ids...), idPad...)
		mask = append(append([]int64{}, mask...), make([]int64, pad)...)
		types = append(append([]int64{}, types...), make([]int64, pad)...)
	}
	return ids, mask, types
}

func toInt64(xs []int) []int64 {
	out := make([]int64, len(xs))
	for i, x := range xs {
		out[i] = int64(x)
	}
	return out
}
