package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	type input struct {
		RoomId string `json:"roomId" validate:"required,max=8"`
		Action string `json:"action" validate:"omitempty,oneof=play pause seek"`
	}

	v := NewValidator()

	errs, ok := v.Validate(input{RoomId: "room1", Action: "play"})
	assert.True(t, ok)
	assert.Empty(t, errs)

	errs, ok = v.Validate(input{})
	require.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "roomId", errs[0].Field, "field names come from json tags")
	assert.Equal(t, "REQUIRED", errs[0].Code)
	assert.Equal(t, "roomId is required", errs[0].Message)

	errs, ok = v.Validate(input{RoomId: "way-too-long-room-id", Action: "rewind"})
	require.False(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "MAX", errs[0].Code)
	assert.Equal(t, "ONEOF", errs[1].Code)
	assert.Contains(t, errs[1].Message, "play pause seek")
}
