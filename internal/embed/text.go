package embed

// TextDimension is the output dimension of the all-MiniLM-L6-v2 text
// encoder this adapter targets.
const TextDimension = 384

// textMaxLength is all-MiniLM-L6-v2's maximum sequence length.
const textMaxLength = 512

// TextEmbedder produces mean-pooled, L2-normalized sentence embeddings.
type TextEmbedder struct {
	session   *Session
	tokenizer *Tokenizer
}

// NewTextEmbedder loads the text encoder ONNX model and its tokenizer.
func NewTextEmbedder(modelPath, tokenizerPath string) (*TextEmbedder, error) {
	session, err := NewSession(modelPath, []string{"input_ids", "attention_mask", "token_type_ids"}, []string{"last_hidden_state"})
	if err != nil {
		return nil, err
	}

	tok, err := LoadTokenizer(tokenizerPath)
	if err != nil {
		session.Close()
		return nil, err
	}

	return &TextEmbedder{session: session, tokenizer: tok}, nil
}

// Embed tokenizes text, runs the encoder, mean-pools over the sequence
// dimension using the attention mask, and L2-normalizes the result.
func (e *TextEmbedder) Embed(text string) ([]float32, error) {
	enc, err := e.tokenizer.Encode(text, textMaxLength)
	if err != nil {
		return nil, err
	}

	seqLen := int64(len(enc.InputIDs))
	shape := []int64{1, seqLen}

	flat, outShape, err := e.session.RunInt64(shape, map[string][]int64{
		"input_ids":      enc.InputIDs,
		"attention_mask": enc.AttentionMask,
		"token_type_ids": enc.TokenTypeIDs,
	})
	if err != nil {
		return nil, err
	}

	hidden := unflattenHiddenStates(flat, outShape)
	pooled := MeanPool(hidden, enc.AttentionMask)
	return Normalize(pooled), nil
}

// Close releases the underlying ONNX session.
func (e *TextEmbedder) Close() error {
	return e.session.Close()
}

// unflattenHiddenStates reshapes a [1, seqLen, hiddenSize] flat tensor into
// seqLen rows of hiddenSize floats, dropping the batch dimension (batch
// size is always 1 here).
func unflattenHiddenStates(flat []float32, shape []int64) [][]float32 {
	if len(shape) != 3 {
		return nil
	}
	seqLen := int(shape[1])
	hiddenSize := int(shape[2])

	rows := make([][]float32, seqLen)
	for i := 0; i < seqLen; i++ {
		rows[i] = flat[i*hiddenSize : (i+1)*hiddenSize]
	}
	return rows
}
