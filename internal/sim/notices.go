package sim

// noticeRing keeps the most recent operator advisories, dropping the oldest
// when the capacity is reached.
type noticeRing struct {
	entries  []string
	capacity int
	total    int
}

func newNoticeRing(capacity int) *noticeRing {
	if capacity <= 0 {
		capacity = 64
	}
	return &noticeRing{entries: make([]string, 0, capacity), capacity: capacity}
}

func (n *noticeRing) push(notice string) {
	if n == nil {
		return
	}
	n.entries = append(n.entries, notice)
	n.total++
	if len(n.entries) > n.capacity {
		n.entries = n.entries[len(n.entries)-n.capacity:]
	}
}

// pushed counts every notice ever recorded, including entries already
// rotated out. The count survives reset so external cursors stay valid.
func (n *noticeRing) pushed() int {
	if n == nil {
		return 0
	}
	return n.total
}

func (n *noticeRing) list() []string {
	if n == nil {
		return nil
	}
	copied := make([]string, len(n.entries))
	copy(copied, n.entries)
	return copied
}

func (n *noticeRing) reset() {
	if n == nil {
		return
	}
	n.entries = n.entries[:0]
}
