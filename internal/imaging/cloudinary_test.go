package imaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryUpload_SignedRequest(t *testing.T) {
	var gotSignature, gotPublicID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotSignature = r.FormValue("signature")
		gotPublicID = r.FormValue("public_id")
		assert.Equal(t, "key", r.FormValue("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/` + gotPublicID + `.jpg","public_id":"` + gotPublicID + `"}`))
	}))
	defer srv.Close()

	s := NewCloudinaryStorage("demo", "key", "secret")
	s.baseURL = srv.URL
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, publicID, err := s.Upload(context.Background(), []byte("fake-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.NotEmpty(t, publicID)
	assert.Contains(t, url, publicID)
	assert.Equal(t, s.sign(gotPublicID, 1700000000), gotSignature)
}

func TestCloudinaryUpload_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid image file"}}`))
	}))
	defer srv.Close()

	s := NewCloudinaryStorage("demo", "key", "secret")
	s.baseURL = srv.URL

	_, _, err := s.Upload(context.Background(), []byte("bad"), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid image file")
}

func TestCloudinaryTransform_BuildsDeliveryURL(t *testing.T) {
	s := NewCloudinaryStorage("demo", "key", "secret")

	url, err := s.Transform(context.Background(), "abc123", EffectSepia)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/e_sepia/abc123", url)

	_, err = s.Transform(context.Background(), "abc123", Effect("bogus"))
	assert.Error(t, err)
}
