// Package speech converts report text into spoken audio.
package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/yn6733212/Market-Snapshot/internal/httpclient"
)

const (
	DefaultVoice        = "he-IL-AvriNeural"
	DefaultOutputFormat = "audio-24khz-48kbitrate-mono-mp3"
	paragraphBreak      = `<break time="600ms"/>`
)

// Synthesizer turns text into an encoded audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// AzureSynthesizer implements Synthesizer with the Azure neural TTS REST API.
type AzureSynthesizer struct {
	Endpoint     string
	Key          string
	OutputFormat string
	Client       *http.Client
}

// NewAzureSynthesizer creates a synthesizer for region. A non-empty endpoint
// overrides the regional one.
func NewAzureSynthesizer(region, key, endpoint, outputFormat, proxyURL string) *AzureSynthesizer {
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
	}
	if outputFormat == "" {
		outputFormat = DefaultOutputFormat
	}
	return &AzureSynthesizer{
		Endpoint:     endpoint,
		Key:          key,
		OutputFormat: outputFormat,
		Client:       httpclient.New(proxyURL, 60*time.Second),
	}
}

// SSML wraps text in a speak document for voice. Text is NFC-normalised so
// pointed letters reach the engine in composed form; blank lines become
// pauses.
func SSML(text, voice string) (string, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	text = norm.NFC.String(text)

	var b strings.Builder
	b.WriteString(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="he-IL">`)
	fmt.Fprintf(&b, `<voice name="%s">`, voice)
	for i, para := range strings.Split(text, "\n\n") {
		if i > 0 {
			b.WriteString(paragraphBreak)
		}
		if err := xml.EscapeText(&b, []byte(strings.TrimSpace(para))); err != nil {
			return "", fmt.Errorf("escape ssml: %w", err)
		}
	}
	b.WriteString(`</voice></speak>`)
	return b.String(), nil
}

func (a *AzureSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesize: empty text")
	}
	doc, err := SSML(text, voice)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, strings.NewReader(doc))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.Key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", a.OutputFormat)
	req.Header.Set("User-Agent", "market-snapshot")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure tts: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure tts read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure tts: status %d, body: %s", resp.StatusCode, string(bytes.TrimSpace(body)))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("azure tts: empty audio")
	}
	return body, nil
}
