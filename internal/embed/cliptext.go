package embed

// clipTextMaxLength is CLIP's fixed context length.
const clipTextMaxLength = 77

// ClipTextEmbedder produces L2-normalized CLIP text embeddings, sharing the
// 512-dimensional space of ImageEmbedder's vision tower output.
type ClipTextEmbedder struct {
	session   *Session
	tokenizer *Tokenizer
}

// NewClipTextEmbedder loads the CLIP text tower ONNX model and its
// tokenizer. Unlike TextEmbedder's BERT-style tokenizer, CLIP's text tower
// takes no token_type_ids input.
func NewClipTextEmbedder(modelPath, tokenizerPath string) (*ClipTextEmbedder, error) {
	session, err := NewSession(modelPath, []string{"input_ids", "attention_mask"}, []string{"text_embeds"})
	if err != nil {
		return nil, err
	}

	tok, err := LoadTokenizer(tokenizerPath)
	if err != nil {
		session.Close()
		return nil, err
	}

	return &ClipTextEmbedder{session: session, tokenizer: tok}, nil
}

// Embed tokenizes text to CLIP's 77-token context length, runs the text
// tower, and L2-normalizes the pooled output.
func (e *ClipTextEmbedder) Embed(text string) ([]float32, error) {
	enc, err := e.tokenizer.Encode(text, clipTextMaxLength)
	if err != nil {
		return nil, err
	}

	shape := []int64{1, int64(len(enc.InputIDs))}
	flat, _, err := e.session.RunInt64(shape, map[string][]int64{
		"input_ids":      enc.InputIDs,
		"attention_mask": enc.AttentionMask,
	})
	if err != nil {
		return nil, err
	}

	return Normalize(flat), nil
}

// Close releases the underlying ONNX session.
func (e *ClipTextEmbedder) Close() error {
	return e.session.Close()
}
