package core

// Log is the append-only operation log.  Lines are never removed or
// reordered.
type Log struct {
	lines []string
}

// Append adds a line to the end of the log and returns its sequence
// number, starting at 0.
func (l *Log) Append(line string) (seq int) {
	seq = len(l.lines)
	l.lines = append(l.lines, line)
	return
}

// Lines returns a copy of all lines, oldest first.
func (l *Log) Lines() []string {
	return l.Since(0)
}

// Since returns a copy of the lines with sequence numbers >= n.
func (l *Log) Since(n int) (lines []string) {
	if n < 0 {
		n = 0
	}
	if n >= len(l.lines) {
		return []string{}
	}
	lines = make([]string, len(l.lines)-n)
	copy(lines, l.lines[n:])
	return
}

// Len returns the number of lines in the log.
func (l *Log) Len() int {
	return len(l.lines)
}
