package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// DefaultPrompt asks the model for every subject worth its own crop
const DefaultPrompt = `You are an image subject locator.

Return JSON only:
{
  "subjects": [
    {"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- One entry per distinct subject (people, animals, vehicles, products, text blocks), most important first.
- Each box should tightly include its subject.
- Labels: lowercase, one to three words.
- If no subject is found, return {"subjects": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// DefaultTimeout applies when the caller's context carries no deadline
const DefaultTimeout = 300 * time.Second

// fallbackBox is the centered box used when the model answer is unusable
var fallbackBox = types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reInlineComment = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// OllamaConfig configures the vision model detector
type OllamaConfig struct {
	URL    string
	Model  string
	Prompt string
	// MaxSubjects caps the returned list; 0 keeps everything
	MaxSubjects int
	// MaxDimension bounds the image sent to the model
	MaxDimension int
	JPEGQuality  int
}

// DefaultOllamaConfig returns defaults for a local Ollama server
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		URL:          "http://localhost:11434",
		Model:        "qwen2.5vl:7b",
		Prompt:       DefaultPrompt,
		MaxSubjects:  5,
		MaxDimension: 1024,
		JPEGQuality:  85,
	}
}

// OllamaDetector asks an Ollama vision model for subject boxes
type OllamaDetector struct {
	client *api.Client
	config OllamaConfig
}

// NewOllamaDetector creates a detector talking to config.URL
func NewOllamaDetector(config OllamaConfig) (*OllamaDetector, error) {
	if config.Model == "" {
		return nil, errors.New("ollama model is required")
	}
	parsedURL, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", config.URL)
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}

	// Only scheme and host are kept so a pasted /api/chat URL still works
	baseURL := &url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host}
	return &OllamaDetector{
		client: api.NewClient(baseURL, http.DefaultClient),
		config: config,
	}, nil
}

// Detect implements Detector
func (d *OllamaDetector) Detect(ctx context.Context, img image.Image) ([]Subject, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	imgBytes, w, h, err := d.encode(img)
	if err != nil {
		return nil, err
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: d.config.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: d.config.Prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &streamFalse,
		Options: map[string]any{"temperature": 0.2},
	}

	start := time.Now()
	var content string
	err = d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}
	if content == "" {
		return nil, errors.New("empty response from ollama")
	}

	subjects := parseSubjects(content, w, h)
	if d.config.MaxSubjects > 0 && len(subjects) > d.config.MaxSubjects {
		subjects = subjects[:d.config.MaxSubjects]
	}
	logging.Logger().Debug("ollama detection",
		"model", d.config.Model, "subjects", len(subjects), "elapsed", time.Since(start))
	return subjects, nil
}

// encode downscales and JPEG-encodes the image, returning the sent size
func (d *OllamaDetector) encode(img image.Image) ([]byte, int, int, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, 0, 0, errors.New("empty image")
	}
	src := img
	if m := d.config.MaxDimension; m > 0 && (b.Dx() > m || b.Dy() > m) {
		src = imaging.Fit(img, m, m, imaging.Lanczos)
	}
	quality := d.config.JPEGQuality
	if quality <= 0 {
		quality = 85
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), src.Bounds().Dx(), src.Bounds().Dy(), nil
}

type modelAnswer struct {
	Subjects []Subject `json:"subjects"`
	// Primary is accepted for models that answer with a single subject
	Primary *Subject `json:"primary"`
}

// parseSubjects reads a model answer. Malformed output yields the centered
// fallback subject rather than an error.
func parseSubjects(raw string, imgW, imgH int) []Subject {
	raw = sanitizeModelJSON(raw)

	var answer modelAnswer
	if !strings.HasPrefix(raw, "{") || json.Unmarshal([]byte(raw), &answer) != nil {
		logging.Logger().Warn("unparseable model answer, using fallback box")
		return []Subject{{Label: "fallback", Confidence: 0.1, Box: fallbackBox}}
	}
	if answer.Primary != nil {
		answer.Subjects = append([]Subject{*answer.Primary}, answer.Subjects...)
	}

	seen := map[string]int{}
	out := make([]Subject, 0, len(answer.Subjects))
	for _, s := range answer.Subjects {
		label := normalizeLabel(s.Label)
		if label == "none" {
			continue
		}
		s.Box = normalizePixelBox(s.Box, imgW, imgH)
		if s.Box.W <= 0 || s.Box.H <= 0 {
			continue
		}
		// repeated labels get a counter so zone labels stay distinct
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s %d", label, n)
		}
		s.Label = label
		s.Confidence = clamp(s.Confidence, 0, 1)
		out = append(out, s)
	}
	return out
}

// normalizeLabel lowercases and trims a label, defaulting to "subject"
func normalizeLabel(label string) string {
	label = strings.Join(strings.Fields(strings.ToLower(label)), " ")
	if label == "" {
		return "subject"
	}
	return label
}

// normalizePixelBox converts a box to [0,1], treating values above 1 as pixels
// of the imgW x imgH image the model saw
func normalizePixelBox(b types.Box, imgW, imgH int) types.Box {
	if imgW > 0 && imgH > 0 && (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) {
		b = types.Box{
			X: b.X / float64(imgW),
			Y: b.Y / float64(imgH),
			W: b.W / float64(imgW),
			H: b.H / float64(imgH),
		}
	}
	return normalizeBox(b)
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
