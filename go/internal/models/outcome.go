package models

import (
	"errors"
	"fmt"
)

// Category identifies one wheel of a round.
type Category string

const (
	CategoryA1 Category = "a1"
	CategoryA2 Category = "a2"
	CategoryB1 Category = "b1"
	CategoryB2 Category = "b2"
	CategoryC1 Category = "c1"
	CategoryC2 Category = "c2"
)

// Outcome values are single digits.
const (
	MinOutcomeValue = 0
	MaxOutcomeValue = 9
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrValueOutOfRange = errors.New("outcome value out of range")
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryA1, CategoryA2,
	CategoryB1, CategoryB2,
	CategoryC1, CategoryC2,
}

// ParseCategory validates a raw category key.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// ValidateValue checks that v is a legal outcome value.
func ValidateValue(v int) error {
	if v < MinOutcomeValue || v > MaxOutcomeValue {
		return fmt.Errorf("%w: %d", ErrValueOutOfRange, v)
	}
	return nil
}

// OutcomeSet maps every category to its value for a round. A nil entry means
// the value has not been assigned yet.
type OutcomeSet map[Category]*int

// NewOutcomeSet returns a set with every category present and unassigned.
func NewOutcomeSet() OutcomeSet {
	o := make(OutcomeSet, len(Categories))
	for _, c := range Categories {
		o[c] = nil
	}
	return o
}

// Set assigns a value to a category.
func (o OutcomeSet) Set(c Category, v int) error {
	if _, err := ParseCategory(string(c)); err != nil {
		return err
	}
	if err := ValidateValue(v); err != nil {
		return err
	}
	o[c] = &v
	return nil
}

// Get returns the value for a category, or nil if unassigned.
func (o OutcomeSet) Get(c Category) *int {
	return o[c]
}

// Clone returns a deep copy that is safe to hand to other goroutines.
func (o OutcomeSet) Clone() OutcomeSet {
	out := NewOutcomeSet()
	for c, v := range o {
		if v != nil {
			val := *v
			out[c] = &val
		}
	}
	return out
}

// Complete reports whether every category has a value.
func (o OutcomeSet) Complete() bool {
	for _, c := range Categories {
		if o[c] == nil {
			return false
		}
	}
	return true
}

// Assigned returns how many categories have a value.
func (o OutcomeSet) Assigned() int {
	n := 0
	for _, c := range Categories {
		if o[c] != nil {
			n++
		}
	}
	return n
}
