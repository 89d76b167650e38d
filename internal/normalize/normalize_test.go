package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sun City Shadow Hills", "sun city shadow hills"},
		{"  PGA West  ", "pga west"},
		{"St. James Club", "st james club"},
		{"Rancho Peñasquitos", "rancho penasquitos"},
		{"Indian  Wells", "indian wells"},
		{"La Quinta C.C.", "la quinta cc"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sun City Shadow Hills-Indio", "sun-city-shadow-hills-indio"},
		{"Non-HOA Palm Springs-Palm Springs", "non-hoa-palm-springs-palm-springs"},
		{"St. James  Club_Rancho Mirage", "st-james-club-rancho-mirage"},
		{"--The Reserve--", "the-reserve"},
		{"Rancho Peñasquitos", "rancho-penasquitos"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestIdentityAndOverrideKey(t *testing.T) {
	assert.Equal(t, "pga west|la quinta", Identity("PGA West", "La Quinta"))
	assert.Equal(t, Identity("St. James", "Indio"), Identity("st james", "INDIO"))
	assert.Equal(t, "pga west-la quinta", OverrideKey("PGA West", "La Quinta"))
}

func TestAllocatorAssign(t *testing.T) {
	a := NewAllocator()

	s1, c1 := a.Assign("A-B-Indio", "a-b|indio")
	assert.Equal(t, "a-b-indio", s1)
	assert.False(t, c1)

	// Same identity claims the same slug again.
	again, c := a.Assign("A-B-Indio", "a-b|indio")
	assert.Equal(t, s1, again)
	assert.False(t, c)

	// A different identity that slugifies identically gets a suffix.
	s2, c2 := a.Assign("A B-Indio", "a b|indio")
	assert.True(t, c2)
	assert.NotEqual(t, s1, s2)
	assert.Regexp(t, `^a-b-indio-[0-9a-f]{6}$`, s2)

	// Deterministic across allocators given the same order.
	b := NewAllocator()
	b.Assign("A-B-Indio", "a-b|indio")
	s3, _ := b.Assign("A B-Indio", "a b|indio")
	assert.Equal(t, s2, s3)
}

func TestAllocatorEmptySlug(t *testing.T) {
	a := NewAllocator()
	s, _ := a.Assign("???", "x")
	assert.Equal(t, "unnamed", s)
}

func TestAllocatorReserveKeepsPriorSlug(t *testing.T) {
	a := NewAllocator()
	// Last run: "a b|indio" was alone and owned the bare slug.
	a.Reserve("a-b-indio", "a b|indio")

	// This run a new identity that sorts first slugifies the same.
	newcomer, c1 := a.Assign("A-B-Indio", "a-b|indio")
	assert.True(t, c1)
	assert.Regexp(t, `^a-b-indio-[0-9a-f]{6}$`, newcomer)

	existing, c2 := a.Assign("A B-Indio", "a b|indio")
	assert.False(t, c2)
	assert.Equal(t, "a-b-indio", existing)
}

func TestAllocatorReserve_IgnoresConflicts(t *testing.T) {
	a := NewAllocator()
	a.Reserve("pga-west-la-quinta", "pga west|la quinta")
	a.Reserve("pga-west-la-quinta", "other|la quinta")
	a.Reserve("", "blank|indio")

	s, c := a.Assign("Other-La Quinta", "other|la quinta")
	assert.False(t, c)
	assert.Equal(t, "other-la-quinta", s)

	s, _ = a.Assign("PGA West-La Quinta", "pga west|la quinta")
	assert.Equal(t, "pga-west-la-quinta", s)
}

func TestAllocatorSuffixAvoidsTakenSlug(t *testing.T) {
	a := NewAllocator()
	first, _ := a.Assign("A-B-Indio", "a-b|indio")

	// Predict the suffixed slug for the second identity and let a third
	// identity hold it already.
	twin := NewAllocator()
	twin.Assign("A-B-Indio", "a-b|indio")
	predicted, _ := twin.Assign("A B-Indio", "a b|indio")
	a.Reserve(predicted, "squatter|indio")

	got, collided := a.Assign("A B-Indio", "a b|indio")
	assert.True(t, collided)
	assert.NotEqual(t, first, got)
	assert.NotEqual(t, predicted, got)
	assert.Regexp(t, `^a-b-indio-[0-9a-f]{8}$`, got)
}
