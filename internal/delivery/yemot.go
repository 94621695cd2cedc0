// Package delivery uploads the finished audio to the IVR platform.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yn6733212/Market-Snapshot/internal/httpclient"
	"github.com/yn6733212/Market-Snapshot/internal/logging"
)

const (
	DefaultUploadURL = "https://www.call2all.co.il/ym/api/UploadFile"
	DefaultFileName  = "001.wav"
)

// Uploader delivers a WAV file to a destination folder.
type Uploader interface {
	UploadWithRetry(ctx context.Context, wav []byte, target string, maxRetries int) (string, error)
}

// YemotUploader uploads files through the Yemot HaMashiach UploadFile API.
type YemotUploader struct {
	UploadURL string
	Token     string
	FileName  string
	Backoff   time.Duration // first retry delay, doubled per attempt
	Client    *http.Client
	Log       *logrus.Logger
}

// NewYemotUploader creates an uploader with optional proxy support.
func NewYemotUploader(uploadURL, token, fileName, proxyURL string, log *logrus.Logger) *YemotUploader {
	if uploadURL == "" {
		uploadURL = DefaultUploadURL
	}
	if fileName == "" {
		fileName = DefaultFileName
	}
	if log == nil {
		log = logging.Discard()
	}
	return &YemotUploader{
		UploadURL: uploadURL,
		Token:     token,
		FileName:  fileName,
		Backoff:   time.Second,
		Client:    httpclient.New(proxyURL, 60*time.Second),
		Log:       log,
	}
}

type yemotResponse struct {
	ResponseStatus string `json:"responseStatus"`
	Message        string `json:"message"`
}

func (y *YemotUploader) form(wav []byte, target string) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("token", y.Token); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("path", target+y.FileName); err != nil {
		return nil, "", err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, y.FileName))
	h.Set("Content-Type", "audio/wav")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &body, w.FormDataContentType(), nil
}

// Upload posts wav to target (a folder such as "ivr2:/2/") and returns the
// response text.
func (y *YemotUploader) Upload(ctx context.Context, wav []byte, target string) (string, error) {
	body, contentType, err := y.form(wav, target)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.UploadURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := y.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	text := strings.TrimSpace(string(respBody))
	if resp.StatusCode != http.StatusOK {
		return text, fmt.Errorf("yemot API error: status %d, body: %s", resp.StatusCode, text)
	}

	var r yemotResponse
	if json.Unmarshal(respBody, &r) == nil && r.ResponseStatus != "" && r.ResponseStatus != "OK" {
		return text, fmt.Errorf("yemot API error: %s: %s", r.ResponseStatus, r.Message)
	}
	return text, nil
}

// UploadWithRetry uploads with exponential backoff retry.
func (y *YemotUploader) UploadWithRetry(ctx context.Context, wav []byte, target string, maxRetries int) (string, error) {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		text, err := y.Upload(ctx, wav, target)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := y.Backoff * time.Duration(1<<uint(i))
		y.Log.WithError(err).Warnf("Upload failed (attempt %d/%d), retrying in %v", i+1, maxRetries+1, backoff)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}
