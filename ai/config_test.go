package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "https://api.openai.com/v1", config.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-large", config.EmbeddingModel)
	assert.Equal(t, 1536, config.Dimensions)
	require.NoError(t, config.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	config := NewConfig(
		WithEmbeddingHost("http://localhost:11434"),
		WithAPIKey("test-key"),
		WithEmbeddingModel("embeddinggemma"),
		WithDimensions(384),
	)

	require.NoError(t, config.Validate())
	assert.Equal(t, "http://localhost:11434/v1", config.EmbeddingHost)
	assert.Equal(t, "test-key", config.APIKey)
	assert.Equal(t, "embeddinggemma", config.EmbeddingModel)
	assert.Equal(t, 384, config.Dimensions)
}

func TestConfig_NormalizeAddsV1Suffix(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"bare host", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"already suffixed", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty host untouched", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{EmbeddingHost: tt.host}
			config.Normalize()
			assert.Equal(t, tt.want, config.EmbeddingHost)
		})
	}
}

func TestConfig_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"missing host", Config{EmbeddingModel: "m", Dimensions: 8}},
		{"missing model", Config{EmbeddingHost: "http://h/v1", Dimensions: 8}},
		{"zero dimensions", Config{EmbeddingHost: "http://h/v1", EmbeddingModel: "m"}},
		{"negative dimensions", Config{EmbeddingHost: "http://h/v1", EmbeddingModel: "m", Dimensions: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.config.Validate())
		})
	}
}
