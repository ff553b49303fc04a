package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestExpectedVersion(t *testing.T) {
	if got := expectedVersion(3); got != 3 {
		t.Fatalf("version filter: want=3 got=%v", got)
	}
	m, ok := expectedVersion(0).(bson.M)
	if !ok {
		t.Fatalf("absent document filter must be a $in expression, got %T", expectedVersion(0))
	}
	in, ok := m["$in"].(bson.A)
	if !ok || len(in) != 2 || in[0] != 0 || in[1] != nil {
		t.Fatalf("absent document filter: %v", m)
	}
}

func TestSetOrUnset(t *testing.T) {
	set, unset := bson.M{}, bson.M{}
	setOrUnset(set, unset, "routine", true, nil)
	setOrUnset(set, unset, "diet", false, "doc")
	if _, ok := unset["routine"]; !ok {
		t.Fatalf("missing routine must be unset")
	}
	if set["diet"] != "doc" {
		t.Fatalf("diet must be set, got %v", set)
	}
	if _, ok := set["routine"]; ok {
		t.Fatalf("routine both set and unset")
	}
}
