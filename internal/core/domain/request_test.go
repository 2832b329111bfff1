package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     FetchRequest
		wantErr bool
	}{
		{"company only", FetchRequest{CompanyName: "Acme Pty Ltd"}, false},
		{"all fields", FetchRequest{CompanyName: "Acme", ProfileURL: "https://x", Domain: "acme.com", RegistryNumber: "51 824 753 556"}, false},
		{"empty", FetchRequest{}, true},
		{"whitespace name", FetchRequest{CompanyName: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRequest))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFetchRequest_Normalise(t *testing.T) {
	req := FetchRequest{CompanyName: "  Acme ", Domain: " acme.com\n"}.Normalise()
	assert.Equal(t, "Acme", req.CompanyName)
	assert.Equal(t, "acme.com", req.Domain)
	assert.Empty(t, req.ProfileURL)
}

func TestCleanABN(t *testing.T) {
	t.Run("strips spaces", func(t *testing.T) {
		abn, err := CleanABN("51 824 753 556")
		require.NoError(t, err)
		assert.Equal(t, "51824753556", abn)
	})

	for name, input := range map[string]string{
		"empty":     "",
		"short":     "1234",
		"non digit": "5182475355X",
		"too long":  "518247535561",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := CleanABN(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingPrerequisite))
		})
	}
}
