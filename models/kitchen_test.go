package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKitchenIsActive(t *testing.T) {
	active := Kitchen{Status: KitchenActive}
	inactive := Kitchen{Status: KitchenInactive}

	assert.True(t, active.IsActive())
	assert.False(t, inactive.IsActive())
}

func TestKitchenStaffIDs(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []int64
	}{
		{"single id", "501", []int64{501}},
		{"multiple ids", "501,502,503", []int64{501, 502, 503}},
		{"with spaces", " 501 , 502 ", []int64{501, 502}},
		{"empty string", "", nil},
		{"garbage skipped", "501,abc,502", []int64{501, 502}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kitchen := Kitchen{StaffChatIDs: tt.raw}
			assert.Equal(t, tt.expected, kitchen.StaffIDs())
		})
	}
}
