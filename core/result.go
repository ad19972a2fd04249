package core

// Op identifies a table operation.
type Op int

const (
	OpInsert Op = iota
	OpSearch
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpSearch:
		return "search"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Outcome is what an operation did to, or found in, the table.
type Outcome int

const (
	Invalid Outcome = iota
	Inserted
	Updated
	Found
	NotFound
	Deleted
)

func (o Outcome) String() string {
	switch o {
	case Invalid:
		return "invalid"
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Result describes one completed operation.
type Result struct {
	Op      Op
	Outcome Outcome
	// Key is the key as given by the caller, untrimmed.
	Key string
	// Value is the value inserted, found, or deleted.  It is empty for
	// NotFound and for Invalid search and delete.
	Value string
	// Index is the bucket the key hashes to, or -1 for Invalid.
	Index int
	// Line is the log line the operation appended.
	Line string
	// Err is a *ValidationError when Outcome is Invalid.
	Err error
	// Clear is true when the caller should reset its key and value
	// inputs.
	Clear bool
}
