package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestOutcomeSetSetValidates(t *testing.T) {
	o := NewOutcomeSet()

	if err := o.Set("z9", 1); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("unknown category: got %v", err)
	}
	if err := o.Set(CategoryA1, 10); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("out of range: got %v", err)
	}
	if err := o.Set(CategoryA1, -1); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("negative: got %v", err)
	}
	if o.Assigned() != 0 {
		t.Fatalf("rejected values were stored: %d assigned", o.Assigned())
	}
}

func TestOutcomeSetCloneIsDeep(t *testing.T) {
	o := NewOutcomeSet()
	if err := o.Set(CategoryB2, 7); err != nil {
		t.Fatal(err)
	}

	c := o.Clone()
	if err := o.Set(CategoryB2, 3); err != nil {
		t.Fatal(err)
	}
	if v := c.Get(CategoryB2); v == nil || *v != 7 {
		t.Fatalf("clone changed with original: %v", v)
	}
}

func TestOutcomeSetComplete(t *testing.T) {
	o := NewOutcomeSet()
	for i, c := range Categories {
		if o.Complete() {
			t.Fatalf("complete with %d values", i)
		}
		if err := o.Set(c, i); err != nil {
			t.Fatal(err)
		}
	}
	if !o.Complete() || o.Assigned() != len(Categories) {
		t.Fatal("set with every category should be complete")
	}
}

func TestOutcomeSetJSONKeepsNulls(t *testing.T) {
	o := NewOutcomeSet()
	if err := o.Set(CategoryA1, 4); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]*int
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) != len(Categories) {
		t.Fatalf("got %d keys, want %d", len(raw), len(Categories))
	}
	if raw["a1"] == nil || *raw["a1"] != 4 || raw["c2"] != nil {
		t.Fatalf("unexpected encoding %s", data)
	}
}
