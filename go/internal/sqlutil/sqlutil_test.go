package sqlutil

import (
	"testing"
	"time"
)

func TestNullConverters(t *testing.T) {
	if v := FromSqlInt32(ToSqlInt32(nil)); v != nil {
		t.Errorf("nil int round trip = %v", *v)
	}
	n := 7
	if v := FromSqlInt32(ToSqlInt32(&n)); v == nil || *v != 7 {
		t.Errorf("int round trip = %v", v)
	}

	var id int64 = 42
	if v := FromSqlInt64(ToSqlInt64(&id)); v == nil || *v != 42 {
		t.Errorf("int64 round trip = %v", v)
	}
	if v := FromSqlStringPtr(ToSqlString(nil)); v != nil {
		t.Errorf("nil string round trip = %q", *v)
	}
}

func TestUnixMilli(t *testing.T) {
	ts := time.Date(2026, 3, 14, 3, 31, 5, 123_000_000, time.UTC)
	if got := FromUnixMilli(ToUnixMilli(ts)); !got.Equal(ts) {
		t.Fatalf("FromUnixMilli = %s, want %s", got, ts)
	}
}
