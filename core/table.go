package core

import (
	"fmt"

	. "github.com/stevegt/goadapt"
)

// DefaultSize is the number of buckets in a table made by New.
const DefaultSize = 10

// Entry is a key-value pair stored in a bucket.
type Entry struct {
	Key   string
	Value string
}

// Slot is an entry together with the index of the bucket holding it.
type Slot struct {
	Index int
	Key   string
	Value string
}

// Table is a fixed-size hash table with separate chaining.  Every
// operation appends one line to the table's log.  A Table is not safe
// for concurrent use; callers that share one must serialize access.
type Table struct {
	buckets [][]Entry
	log     Log
}

// New returns an empty table with DefaultSize buckets.
func New() *Table {
	t, err := NewSized(DefaultSize)
	Ck(err)
	return t
}

// NewSized returns an empty table with size buckets.  The size never
// changes.
func NewSized(size int) (t *Table, err error) {
	if size <= 0 {
		err = fmt.Errorf("table size must be positive, got %d", size)
		return
	}
	t = &Table{buckets: make([][]Entry, size)}
	return
}

// Insert adds key with value, or overwrites the value if key is
// already present.
func (t *Table) Insert(key, value string) (res Result) {
	res = Result{Op: OpInsert, Key: key, Value: value, Index: -1}
	if blank(key) || blank(value) {
		return t.invalid(res, ReasonInsert)
	}
	res.Index = t.Hash(key)
	bucket := t.buckets[res.Index]
	if i := lookup(key, bucket); i >= 0 {
		bucket[i].Value = value
		res.Outcome = Updated
		res.Line = fmt.Sprintf("Updated: %s = %s at index %d", key, value, res.Index)
	} else {
		t.buckets[res.Index] = append(bucket, Entry{Key: key, Value: value})
		res.Outcome = Inserted
		res.Line = fmt.Sprintf("Inserted: %s = %s at index %d", key, value, res.Index)
	}
	res.Clear = true
	return t.record(res)
}

// Search looks up key without changing the table.
func (t *Table) Search(key string) (res Result) {
	res = Result{Op: OpSearch, Key: key, Index: -1}
	if blank(key) {
		return t.invalid(res, ReasonSearch)
	}
	res.Index = t.Hash(key)
	bucket := t.buckets[res.Index]
	if i := lookup(key, bucket); i >= 0 {
		res.Value = bucket[i].Value
		res.Outcome = Found
		res.Line = fmt.Sprintf("Found: %s = %s at index %d", key, res.Value, res.Index)
	} else {
		res.Outcome = NotFound
		res.Line = fmt.Sprintf("Not found: %s", key)
	}
	return t.record(res)
}

// Delete removes key from the table.  The remaining entries of the
// bucket keep their order.
func (t *Table) Delete(key string) (res Result) {
	res = Result{Op: OpDelete, Key: key, Index: -1}
	if blank(key) {
		return t.invalid(res, ReasonDelete)
	}
	res.Index = t.Hash(key)
	bucket := t.buckets[res.Index]
	if i := lookup(key, bucket); i >= 0 {
		res.Value = bucket[i].Value
		t.buckets[res.Index] = append(bucket[:i], bucket[i+1:]...)
		res.Outcome = Deleted
		res.Line = fmt.Sprintf("Deleted: %s = %s from index %d", key, res.Value, res.Index)
	} else {
		res.Outcome = NotFound
		res.Line = fmt.Sprintf("Not found for deletion: %s", key)
	}
	res.Clear = true
	return t.record(res)
}

func (t *Table) invalid(res Result, reason string) Result {
	verr := &ValidationError{Reason: reason}
	res.Outcome = Invalid
	res.Err = verr
	res.Line = verr.logLine()
	return t.record(res)
}

func (t *Table) record(res Result) Result {
	t.log.Append(res.Line)
	Debug("%s %q: %s", res.Op, res.Key, res.Outcome)
	return res
}

// lookup returns the position of key in bucket, or -1.
func lookup(key string, bucket []Entry) int {
	for i, e := range bucket {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Log returns a copy of the operation log, oldest first.
func (t *Table) Log() []string {
	return t.log.Lines()
}

// LogLen returns the number of lines in the operation log.
func (t *Table) LogLen() int {
	return t.log.Len()
}

// LogSince returns a copy of the log lines with sequence numbers >= n.
func (t *Table) LogSince(n int) []string {
	return t.log.Since(n)
}

// Size returns the number of buckets.
func (t *Table) Size() int {
	return len(t.buckets)
}

// Len returns the number of entries in the table.
func (t *Table) Len() (n int) {
	for _, b := range t.buckets {
		n += len(b)
	}
	return
}

// LoadFactor returns entries per bucket.  The table does not act on it.
func (t *Table) LoadFactor() float64 {
	return float64(t.Len()) / float64(len(t.buckets))
}

// Bucket returns a copy of the chain at index i.
func (t *Table) Bucket(i int) []Entry {
	Assert(i >= 0 && i < len(t.buckets), "bucket index out of range: %d", i)
	out := make([]Entry, len(t.buckets[i]))
	copy(out, t.buckets[i])
	return out
}

// Entries returns every entry in the table ordered by bucket index,
// then by position in the chain.
func (t *Table) Entries() (slots []Slot) {
	slots = []Slot{}
	for i, b := range t.buckets {
		for _, e := range b {
			slots = append(slots, Slot{Index: i, Key: e.Key, Value: e.Value})
		}
	}
	return
}
