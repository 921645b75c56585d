package prompts

import (
	"strings"
	"testing"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.ProcessPromptRequest
		wantErr bool
	}{
		{name: "valid", req: models.ProcessPromptRequest{JobPost: "Backend engineer, Go"}},
		{name: "exactly ten characters", req: models.ProcessPromptRequest{JobPost: "0123456789"}},
		{name: "nine characters", req: models.ProcessPromptRequest{JobPost: "012345678"}, wantErr: true},
		{name: "empty", req: models.ProcessPromptRequest{}, wantErr: true},
		{name: "ten multibyte runes", req: models.ProcessPromptRequest{JobPost: strings.Repeat("é", 10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.req)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsInvalidRequest(err))

			var de *domain.DomainError
			require.ErrorAs(t, err, &de)
			require.Len(t, de.Fields, 1)
			assert.Equal(t, "jobPost", de.Fields[0].Field)
		})
	}
}

func TestValidate_NormalisesToNFC(t *testing.T) {
	// "e" followed by a combining acute accent
	in, err := Validate(models.ProcessPromptRequest{JobPost: "Café manager wanted"})
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 manager wanted", in.JobPost)
}

func TestValidate_BlankOptionalsAreAbsent(t *testing.T) {
	in, err := Validate(models.ProcessPromptRequest{
		JobPost:  "Backend engineer, Go",
		Title:    strPtr("  "),
		Company:  strPtr(""),
		Position: strPtr(" Engineer "),
	})
	require.NoError(t, err)

	assert.Empty(t, in.Title)
	assert.Nil(t, in.Company)
	require.NotNil(t, in.Position)
	assert.Equal(t, "Engineer", *in.Position)
}
