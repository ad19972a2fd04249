package core

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/stevegt/goadapt"
)

// lastLine returns the most recent log line.
func lastLine(tbl *Table) string {
	lines := tbl.Log()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

func TestNewSized(t *testing.T) {
	tbl := New()
	Tassert(t, tbl.Size() == DefaultSize, "size %d", tbl.Size())
	Tassert(t, tbl.Len() == 0, "new table not empty")
	Tassert(t, len(tbl.Entries()) == 0, "new table has entries")

	_, err := NewSized(0)
	Tassert(t, err != nil, "expected error for size 0")
	_, err = NewSized(-3)
	Tassert(t, err != nil, "expected error for negative size")
}

// insert, search, delete, then search again
func TestEndToEnd(t *testing.T) {
	tbl := New()
	idx := Hash("cat", DefaultSize)

	res := tbl.Insert("cat", "meow")
	Tassert(t, res.Outcome == Inserted, "outcome %s", res.Outcome)
	Tassert(t, res.Clear, "insert should clear inputs")
	Tassert(t, lastLine(tbl) == fmt.Sprintf("Inserted: cat = meow at index %d", idx), "got %q", lastLine(tbl))

	res = tbl.Search("cat")
	Tassert(t, res.Outcome == Found && res.Value == "meow", "search: %+v", res)
	Tassert(t, !res.Clear, "search should not clear inputs")
	Tassert(t, lastLine(tbl) == fmt.Sprintf("Found: cat = meow at index %d", idx), "got %q", lastLine(tbl))

	res = tbl.Delete("cat")
	Tassert(t, res.Outcome == Deleted && res.Value == "meow", "delete: %+v", res)
	Tassert(t, res.Clear, "delete should clear inputs")
	Tassert(t, lastLine(tbl) == fmt.Sprintf("Deleted: cat = meow from index %d", idx), "got %q", lastLine(tbl))

	res = tbl.Search("cat")
	Tassert(t, res.Outcome == NotFound, "outcome %s", res.Outcome)
	Tassert(t, lastLine(tbl) == "Not found: cat", "got %q", lastLine(tbl))

	Tassert(t, tbl.LogLen() == 4, "log has %d lines", tbl.LogLen())
}

func TestInsertThenSearch(t *testing.T) {
	tbl := New()
	pairs := map[string]string{"a": "1", "b": "2", "Hello World": "greeting", "😀": "smile", " padded ": "x"}
	for k, v := range pairs {
		ins := tbl.Insert(k, v)
		got := tbl.Search(k)
		Tassert(t, got.Outcome == Found, "%q not found", k)
		Tassert(t, got.Value == v, "%q = %q, want %q", k, got.Value, v)
		Tassert(t, got.Index == ins.Index, "%q index %d != %d", k, got.Index, ins.Index)
	}
	Tassert(t, tbl.Len() == len(pairs), "len %d", tbl.Len())
}

func TestUpdateOverwrites(t *testing.T) {
	tbl := New()
	tbl.Insert("k", "v1")
	res := tbl.Insert("k", "v2")
	Tassert(t, res.Outcome == Updated, "outcome %s", res.Outcome)
	Tassert(t, res.Clear, "update should clear inputs")
	Tassert(t, lastLine(tbl) == fmt.Sprintf("Updated: k = v2 at index %d", res.Index), "got %q", lastLine(tbl))
	Tassert(t, tbl.Len() == 1, "len %d", tbl.Len())
	Tassert(t, tbl.Search("k").Value == "v2", "value not overwritten")

	// update in place keeps chain position; "k" and "a" share bucket 7
	tbl.Insert("a", "first")
	tbl.Insert("k", "v3")
	chain := tbl.Bucket(7)
	Tassert(t, len(chain) == 2, "chain: %+v", chain)
	Tassert(t, chain[0].Key == "k" && chain[0].Value == "v3", "chain: %+v", chain)
	Tassert(t, chain[1].Key == "a" && chain[1].Value == "first", "chain: %+v", chain)
}

func TestDeleteRemoves(t *testing.T) {
	tbl := New()
	tbl.Insert("k", "v")
	tbl.Delete("k")
	res := tbl.Search("k")
	Tassert(t, res.Outcome == NotFound, "outcome %s", res.Outcome)
	Tassert(t, tbl.Len() == 0, "len %d", tbl.Len())
}

func TestDeleteMissing(t *testing.T) {
	tbl := New()
	tbl.Insert("a", "1")
	res := tbl.Delete("nope")
	Tassert(t, res.Outcome == NotFound, "outcome %s", res.Outcome)
	Tassert(t, res.Clear, "delete of missing key should still clear inputs")
	Tassert(t, lastLine(tbl) == "Not found for deletion: nope", "got %q", lastLine(tbl))
	Tassert(t, tbl.Len() == 1, "table mutated")
}

func TestDeletePreservesChainOrder(t *testing.T) {
	tbl := New()
	// all of these hash to bucket 7
	keys := []string{"a", "k", "u"}
	for _, k := range keys {
		Tassert(t, Hash(k, DefaultSize) == 7, "%q not in bucket 7", k)
		tbl.Insert(k, k+"-value")
	}
	tbl.Delete("k")
	chain := tbl.Bucket(7)
	Tassert(t, len(chain) == 2, "chain: %+v", chain)
	Tassert(t, chain[0].Key == "a" && chain[1].Key == "u", "order lost: %+v", chain)
}

func TestValidationRejectsBlanks(t *testing.T) {
	cases := []struct {
		name   string
		op     func(*Table) Result
		reason string
		line   string
		clear  bool
	}{
		{"insert empty key", func(tbl *Table) Result { return tbl.Insert("", "x") }, ReasonInsert, "Error: Both key and value are required", false},
		{"insert space key", func(tbl *Table) Result { return tbl.Insert(" ", "x") }, ReasonInsert, "Error: Both key and value are required", false},
		{"insert empty value", func(tbl *Table) Result { return tbl.Insert("x", "") }, ReasonInsert, "Error: Both key and value are required", false},
		{"insert tab value", func(tbl *Table) Result { return tbl.Insert("x", "\t\n") }, ReasonInsert, "Error: Both key and value are required", false},
		{"insert bom key", func(tbl *Table) Result { return tbl.Insert("\uFEFF", "x") }, ReasonInsert, "Error: Both key and value are required", false},
		{"search empty", func(tbl *Table) Result { return tbl.Search("") }, ReasonSearch, "Error: Key is required for search", false},
		{"delete spaces", func(tbl *Table) Result { return tbl.Delete("  ") }, ReasonDelete, "Error: Key is required for deletion", false},
	}
	for _, c := range cases {
		tbl := New()
		tbl.Insert("keep", "me")
		before := tbl.Entries()
		res := c.op(tbl)
		Tassert(t, res.Outcome == Invalid, "%s: outcome %s", c.name, res.Outcome)
		Tassert(t, res.Index == -1, "%s: index %d", c.name, res.Index)
		Tassert(t, res.Clear == c.clear, "%s: clear %v", c.name, res.Clear)
		var verr *ValidationError
		Tassert(t, errors.As(res.Err, &verr), "%s: err %v", c.name, res.Err)
		Tassert(t, verr.Reason == c.reason, "%s: reason %q", c.name, verr.Reason)
		Tassert(t, tbl.LogLen() == 2, "%s: %d log lines", c.name, tbl.LogLen())
		Tassert(t, lastLine(tbl) == c.line, "%s: line %q", c.name, lastLine(tbl))
		after := tbl.Entries()
		Tassert(t, len(after) == len(before) && after[0] == before[0], "%s: table mutated", c.name)
	}
}

func TestNextLineIsNotBlank(t *testing.T) {
	// U+0085 is not stripped from form input, so it makes a valid key
	tbl := New()
	res := tbl.Insert("\u0085", "x")
	Tassert(t, res.Outcome == Inserted, "outcome %s", res.Outcome)
}

func TestUntrimmedKeyStored(t *testing.T) {
	tbl := New()
	res := tbl.Insert(" cat", "meow")
	Tassert(t, res.Outcome == Inserted, "outcome %s", res.Outcome)
	Tassert(t, res.Index == Hash(" cat", DefaultSize), "hashed trimmed key")
	Tassert(t, tbl.Search("cat").Outcome == NotFound, "trimmed key should not match")
	Tassert(t, tbl.Search(" cat").Outcome == Found, "untrimmed key should match")
	entries := tbl.Entries()
	Tassert(t, len(entries) == 1 && entries[0].Key == " cat", "entries: %+v", entries)
}

func TestCollisionIndependence(t *testing.T) {
	tbl := New()
	// both accumulate to 2112
	Tassert(t, Hash("Aa", DefaultSize) == Hash("BB", DefaultSize), "keys do not collide")
	tbl.Insert("Aa", "one")
	tbl.Insert("BB", "two")
	Tassert(t, tbl.Search("Aa").Value == "one", "Aa lost")
	Tassert(t, tbl.Search("BB").Value == "two", "BB lost")

	tbl.Delete("Aa")
	Tassert(t, tbl.Search("Aa").Outcome == NotFound, "Aa still present")
	Tassert(t, tbl.Search("BB").Value == "two", "BB affected by deleting Aa")

	tbl.Insert("Aa", "three")
	tbl.Delete("BB")
	Tassert(t, tbl.Search("Aa").Value == "three", "Aa affected by deleting BB")
}

func TestSearchIdempotent(t *testing.T) {
	tbl := New()
	tbl.Insert("x", "y")
	before := tbl.Entries()
	for i := 0; i < 3; i++ {
		Tassert(t, tbl.Search("x").Outcome == Found, "found changed")
		Tassert(t, tbl.Search("z").Outcome == NotFound, "not found changed")
	}
	Tassert(t, tbl.LogLen() == 7, "log has %d lines", tbl.LogLen())
	after := tbl.Entries()
	Tassert(t, len(after) == 1 && after[0] == before[0], "search mutated table")
}

func TestEntriesOrder(t *testing.T) {
	tbl := New()
	tbl.Insert("x", "0")  // bucket 0
	tbl.Insert("u", "7b") // bucket 7
	tbl.Insert("cat", "2")
	tbl.Insert("a", "7a") // bucket 7, after u
	got := tbl.Entries()
	want := []Slot{{0, "x", "0"}, {2, "cat", "2"}, {7, "u", "7b"}, {7, "a", "7a"}}
	Tassert(t, len(got) == len(want), "entries: %+v", got)
	for i := range want {
		Tassert(t, got[i] == want[i], "entry %d: %+v, want %+v", i, got[i], want[i])
	}
	Tassert(t, tbl.LoadFactor() == 0.4, "load factor %v", tbl.LoadFactor())
}

func TestBucketCopy(t *testing.T) {
	tbl := New()
	tbl.Insert("cat", "meow")
	b := tbl.Bucket(2)
	b[0].Value = "woof"
	Tassert(t, tbl.Search("cat").Value == "meow", "bucket not copied")
}

func TestOutcomeStrings(t *testing.T) {
	Tassert(t, NotFound.String() == "not_found", "%s", NotFound)
	Tassert(t, OpDelete.String() == "delete", "%s", OpDelete)
}
