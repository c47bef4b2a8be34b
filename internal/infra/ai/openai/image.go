package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	"github.com/bryanwahyu/marcenaria-vision/internal/infra/ai/imageref"
)

// Encoding is how input images are handed to the model.
type Encoding string

const (
	EncodingURL     Encoding = "url"
	EncodingDataURL Encoding = "data_url"
)

// Strategy is one entry of the synthesis fallback chain.
type Strategy struct {
	Model    string   `yaml:"model"`
	Encoding Encoding `yaml:"encoding"`
}

const (
	DefaultFastImageModel = "google/gemini-2.5-flash-image-preview"
	DefaultProImageModel  = "google/gemini-3-pro-image-preview"

	maxImageResponseBytes = 64 << 20
)

// DefaultChain: both models with remote URLs first, then both again with
// inline base64 for providers that cannot fetch the URLs themselves.
func DefaultChain(fast, pro string) []Strategy {
	if fast == "" {
		fast = DefaultFastImageModel
	}
	if pro == "" {
		pro = DefaultProImageModel
	}
	return []Strategy{
		{Model: fast, Encoding: EncodingURL},
		{Model: pro, Encoding: EncodingURL},
		{Model: fast, Encoding: EncodingDataURL},
		{Model: pro, Encoding: EncodingDataURL},
	}
}

type SynthesizerOptions struct {
	APIKey  string
	BaseURL string
	Chain   []Strategy
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// Budget bounds the whole chain, 0 means no limit.
	Budget time.Duration
	// MaxAttempts caps upstream calls, 0 means the whole chain.
	MaxAttempts int
}

// Synthesizer renders the furnished photo through the fallback chain.
type Synthesizer struct {
	http        *http.Client
	apiKey      string
	endpoint    string
	chain       []Strategy
	timeout     time.Duration
	budget      time.Duration
	maxAttempts int
	fetcher     ai.ImageFetcher
	log         *zap.Logger
}

func NewSynthesizer(opts SynthesizerOptions, fetcher ai.ImageFetcher, log *zap.Logger) *Synthesizer {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = openai.DefaultConfig("").BaseURL
	}
	chain := opts.Chain
	if len(chain) == 0 {
		chain = DefaultChain("", "")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{
		http:        &http.Client{},
		apiKey:      opts.APIKey,
		endpoint:    base + "/chat/completions",
		chain:       chain,
		timeout:     timeout,
		budget:      opts.Budget,
		maxAttempts: opts.MaxAttempts,
		fetcher:     fetcher,
		log:         log,
	}
}

// Synthesize walks the chain and returns the first image reference produced.
// ai.ErrSynthesisUnavailable means every strategy failed.
func (s *Synthesizer) Synthesize(ctx context.Context, req ai.SynthesisRequest) (string, error) {
	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	in := &inputs{req: req, fetcher: s.fetcher}
	attempts := 0
	for i, st := range s.chain {
		log := s.log.With(zap.Int("step", i+1), zap.String("model", st.Model), zap.String("encoding", string(st.Encoding)))

		if s.maxAttempts > 0 && attempts >= s.maxAttempts {
			log.Warn("synthesis attempt cap reached", zap.Int("max_attempts", s.maxAttempts))
			break
		}
		if err := ctx.Err(); err != nil {
			log.Warn("synthesis budget exhausted", zap.Error(err))
			break
		}

		images, err := in.encoded(ctx, st.Encoding)
		if err != nil {
			log.Warn("synthesis strategy skipped", zap.Error(err))
			continue
		}

		attempts++
		ref, err := s.attempt(ctx, st.Model, req.Instruction, images)
		if err != nil {
			log.Warn("synthesis attempt failed", zap.Error(err))
			continue
		}
		if ref == "" {
			log.Warn("synthesis response had no image")
			continue
		}
		log.Info("synthesis produced image", zap.Bool("inline", ai.IsDataURL(ref)), zap.Int("ref_len", len(ref)))
		return ref, nil
	}
	return "", ai.ErrSynthesisUnavailable
}

type imageRequest struct {
	Model      string                         `json:"model"`
	Messages   []openai.ChatCompletionMessage `json:"messages"`
	Modalities []string                       `json:"modalities"`
}

func (s *Synthesizer) attempt(ctx context.Context, model, instruction string, images []string) (string, error) {
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: instruction}}
	for _, img := range images {
		parts = append(parts, imagePart(img))
	}
	payload, err := json.Marshal(imageRequest{
		Model:      model,
		Messages:   []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, MultiContent: parts}},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal image request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read image response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("http status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}
	return imageref.Extract(body), nil
}

// inputs converts the request images per encoding. The data-URL form is
// downloaded at most once per Synthesize call.
type inputs struct {
	req     ai.SynthesisRequest
	fetcher ai.ImageFetcher

	converted bool
	dataURLs  []string
	dataErr   error
}

func (in *inputs) urls() []string {
	out := []string{in.req.ImageURL}
	if ref := strings.TrimSpace(in.req.ReferenceURL); ref != "" {
		out = append(out, ref)
	}
	return out
}

func (in *inputs) encoded(ctx context.Context, enc Encoding) ([]string, error) {
	switch enc {
	case EncodingURL:
		return in.urls(), nil
	case EncodingDataURL:
		if !in.converted {
			in.converted = true
			in.dataURLs, in.dataErr = in.download(ctx)
		}
		return in.dataURLs, in.dataErr
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
}

func (in *inputs) download(ctx context.Context) ([]string, error) {
	if in.fetcher == nil {
		return nil, fmt.Errorf("no downloader configured")
	}
	var out []string
	for _, u := range in.urls() {
		if ai.IsDataURL(u) {
			out = append(out, u)
			continue
		}
		blob, err := in.fetcher.Fetch(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("convert to data url: %w", err)
		}
		out = append(out, blob.DataURL())
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ ai.ImageSynthesizer = (*Synthesizer)(nil)
