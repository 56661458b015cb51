package utils

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProofFile(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		size         int64
		expectedErr  bool
		expectedCode string
	}{
		{
			name:     "valid png file",
			filename: "payment.png",
			size:     1024,
		},
		{
			name:     "valid uppercase extension",
			filename: "payment.PNG",
			size:     1024,
		},
		{
			name:         "file too large",
			filename:     "payment.png",
			size:         MaxProofSize + 1,
			expectedErr:  true,
			expectedCode: "FILE_TOO_LARGE",
		},
		{
			name:         "wrong extension",
			filename:     "payment.pdf",
			size:         1024,
			expectedErr:  true,
			expectedCode: "INVALID_FILE_FORMAT",
		},
		{
			name:         "no extension",
			filename:     "payment",
			size:         1024,
			expectedErr:  true,
			expectedCode: "INVALID_FILE_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileHeader := &multipart.FileHeader{
				Filename: tt.filename,
				Size:     tt.size,
			}

			err := ValidateProofFile(fileHeader)
			if tt.expectedErr {
				assert.Error(t, err)
				uploadErr, ok := err.(*FileUploadError)
				assert.True(t, ok)
				assert.Equal(t, tt.expectedCode, uploadErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
