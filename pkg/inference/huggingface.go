package inference

// huggingFaceRouterURL is the OpenAI-compatible entry point for models
// hosted on Hugging Face inference providers.
const huggingFaceRouterURL = "https://router.huggingface.co/v1"

// NewHuggingFace creates a client for the Hugging Face router.
// A token (HF_TOKEN) is required; the model name uses the hub form,
// e.g. "meta-llama/Llama-3.2-3B-Instruct".
func NewHuggingFace(opts ...Option) (*Client, error) {
	preset := []Option{
		WithBaseURL(huggingFaceRouterURL),
		WithModel("meta-llama/Llama-3.2-3B-Instruct"),
	}

	c, err := NewClient(append(preset, opts...)...)
	if err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return c, nil
}
