package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	o := New("c1", "pork", 5000, "Abyssinian-2024-01-01")
	assert.NotEmpty(t, o.ID)
	assert.NotEqual(t, o.ID, NextID())
	assert.Equal(t, Pending, o.Status)
	assert.False(t, o.Date.IsZero())
	assert.NoError(t, o.Validate())
}

func TestValidate(t *testing.T) {
	o := New("c1", "pork", 5000, "")
	assert.Equal(t, ErrVoyageIDMissing, o.Validate())

	o = New("c1", "pork", 0, "v")
	assert.Equal(t, ErrInvalid, o.Validate())
}

func TestAdvanceIsMonotone(t *testing.T) {
	o := New("c1", "pork", 1, "v")
	assert.True(t, o.Advance(Booked))
	assert.True(t, o.Advance(InTransit))
	assert.False(t, o.Advance(Booked))
	assert.True(t, o.Advance(Spoilt))
	assert.False(t, o.Advance(InTransit))
	assert.True(t, o.Advance(Delivered))
	assert.False(t, o.Advance(Spoilt))
	assert.Equal(t, Delivered, o.Status)
}
