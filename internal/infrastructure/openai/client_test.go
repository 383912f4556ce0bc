package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{BaseURL: srv.URL + "/", APIKey: "test-123"})
}

func TestGenerate_SendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]string{"model": "gpt-image-1", "prompt": "a red cube", "size": "1024x1024"}, req)

		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"b64_json": "aGk="}}})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Generate(context.Background(), domain.ImageGenerationRequest{
		Model:  "gpt-image-1",
		Prompt: "a red cube",
		Size:   domain.SizeSquare,
	})
	require.NoError(t, err)
	assert.Equal(t, "aGk=", resp.B64JSON)
	assert.Empty(t, resp.URL)
}

func TestEdit_SendsMultipart(t *testing.T) {
	image := []byte("\x89PNG fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/edits", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "gpt-image-1", r.FormValue("model"))
		assert.Equal(t, "make it blue", r.FormValue("prompt"))
		assert.Equal(t, "1536x1024", r.FormValue("size"))

		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "image.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		got, _ := io.ReadAll(file)
		assert.Equal(t, image, got)

		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"url": "https://cdn.example/img.png"}}})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Edit(context.Background(), domain.ImageGenerationRequest{
		Model:  "gpt-image-1",
		Prompt: "make it blue",
		Size:   domain.SizeLandscape,
		Image:  image,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.png", resp.URL)
}

func TestGenerate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid size","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Generate(context.Background(), domain.ImageGenerationRequest{Prompt: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid size", apiErr.Message)
	assert.Contains(t, err.Error(), "status 400")
}

func TestGenerate_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Generate(context.Background(), domain.ImageGenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrNoImageData)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	data, err := client.Fetch(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	_, err = client.Fetch(context.Background(), srv.URL+"/missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Options{BaseURL: srv.URL, GenerationTimeout: 50 * time.Millisecond})
	_, err := client.Generate(context.Background(), domain.ImageGenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
