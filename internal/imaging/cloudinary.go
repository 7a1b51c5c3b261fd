package imaging

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const cloudinaryAPIBase = "https://api.cloudinary.com/v1_1"

// CloudinaryStorage uploads photos to the Cloudinary REST API using signed requests.
type CloudinaryStorage struct {
	cloudName string
	apiKey    string
	apiSecret string
	http      *http.Client
	now       func() time.Time
	baseURL   string
}

// NewCloudinaryStorage builds a Cloudinary-backed storage client.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret string) *CloudinaryStorage {
	return &CloudinaryStorage{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
		baseURL:   cloudinaryAPIBase,
	}
}

type cloudinaryUploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// sign computes the SHA-1 request signature over the sorted upload parameters.
func (s *CloudinaryStorage) sign(publicID string, timestamp int64) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%d%s", publicID, timestamp, s.apiSecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Upload sends the photo bytes as a signed multipart request and returns the
// delivery URL plus the Cloudinary public ID.
func (s *CloudinaryStorage) Upload(ctx context.Context, content []byte, contentType string) (string, string, error) {
	publicID := uuid.NewString()
	timestamp := s.now().Unix()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", publicID)
	if err != nil {
		return "", "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", "", err
	}
	fields := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(timestamp, 10),
		"api_key":   s.apiKey,
		"signature": s.sign(publicID, timestamp),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", "", err
	}

	url := fmt.Sprintf("%s/%s/image/upload", s.baseURL, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("cloudinary upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", err
	}

	var parsed cloudinaryUploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", "", fmt.Errorf("cloudinary upload: invalid response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", "", fmt.Errorf("cloudinary upload failed: %s", msg)
	}
	if parsed.SecureURL == "" || parsed.PublicID == "" {
		return "", "", fmt.Errorf("cloudinary upload: response missing secure_url or public_id")
	}

	return parsed.SecureURL, parsed.PublicID, nil
}

// Transform builds a derived delivery URL for the named effect. Cloudinary
// applies effects on delivery, so no request round trip is needed.
func (s *CloudinaryStorage) Transform(_ context.Context, publicID string, effect Effect) (string, error) {
	var component string
	switch effect {
	case EffectGrayscale:
		component = "e_grayscale"
	case EffectSepia:
		component = "e_sepia"
	case EffectPixelate:
		component = "e_pixelate"
	default:
		return "", fmt.Errorf("unknown effect %q", effect)
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s/%s", s.cloudName, component, publicID), nil
}

// Delete removes the asset via the signed destroy endpoint.
func (s *CloudinaryStorage) Delete(ctx context.Context, publicID string) error {
	timestamp := s.now().Unix()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(timestamp, 10),
		"api_key":   s.apiKey,
		"signature": s.sign(publicID, timestamp),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/image/destroy", s.baseURL, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary destroy request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudinary destroy failed: %s", resp.Status)
	}
	return nil
}
