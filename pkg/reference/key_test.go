package reference_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/reference"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    reference.Key
		wantErr string
	}{
		{name: "canonical", raw: "3f2b8a4e-9c1d-4e7a-b5f6-0a1b2c3d4e5f", want: "3f2b8a4e-9c1d-4e7a-b5f6-0a1b2c3d4e5f"},
		{name: "uppercase is normalized", raw: "3F2B8A4E-9C1D-4E7A-B5F6-0A1B2C3D4E5F", want: "3f2b8a4e-9c1d-4e7a-b5f6-0a1b2c3d4e5f"},
		{name: "empty", raw: "", wantErr: "Invalid company_id: "},
		{name: "non hex", raw: "zzzzzzzz-9c1d-4e7a-b5f6-0a1b2c3d4e5f", wantErr: "Invalid company_id: zzzzzzzz-9c1d-4e7a-b5f6-0a1b2c3d4e5f"},
		{name: "overlong", raw: "3f2b8a4e-9c1d-4e7a-b5f6-0a1b2c3d4e5f00", wantErr: "Invalid company_id: 3f2b8a4e-9c1d-4e7a-b5f6-0a1b2c3d4e5f00"},
		{name: "bare hex form", raw: "3f2b8a4e9c1d4e7ab5f60a1b2c3d4e5f", wantErr: "Invalid company_id: 3f2b8a4e9c1d4e7ab5f60a1b2c3d4e5f"},
		{name: "object id", raw: "65a1f0c2e4b0a1b2c3d4e5f6", wantErr: "Invalid company_id: 65a1f0c2e4b0a1b2c3d4e5f6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reference.Validate(tt.raw, "company_id")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				var formatErr *reference.InvalidReferenceFormatError
				assert.ErrorAs(t, err, &formatErr)
				assert.Equal(t, 400, formatErr.StatusCode())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewKeyIsValid(t *testing.T) {
	key := reference.NewKey()
	got, err := reference.Validate(key.String(), "id")
	require.NoError(t, err)
	assert.Equal(t, key, got)
}
