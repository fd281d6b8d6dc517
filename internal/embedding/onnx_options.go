package embedding

// ONNXOption configures NewONNXEmbedder.
type ONNXOption func(*onnxOptions)

type onnxOptions struct {
	vocabPath string
}

// WithVocab names the model's WordPiece vocabulary file (vocab.txt). It is
// required: the model only understands IDs from its own vocabulary.
func WithVocab(path string) ONNXOption {
	return func(o *onnxOptions) { o.vocabPath = path }
}
