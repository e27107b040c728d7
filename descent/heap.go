package descent

import "container/heap"

// frontier is the min-heap of (priority, descent id) pairs driving
// best-first exploration. There is no decrease-key: a descent that loses
// its best edge is simply re-inserted under its new priority.
type frontier struct {
	entries []frontierEntry
}

type frontierEntry struct {
	pri priority
	id  int
}

func (f *frontier) Len() int           { return len(f.entries) }
func (f *frontier) Less(i, j int) bool { return f.entries[i].pri.less(f.entries[j].pri) }
func (f *frontier) Swap(i, j int)      { f.entries[i], f.entries[j] = f.entries[j], f.entries[i] }
func (f *frontier) Push(x any)         { f.entries = append(f.entries, x.(frontierEntry)) }

func (f *frontier) Pop() any {
	n := len(f.entries)
	e := f.entries[n-1]
	f.entries = f.entries[:n-1]
	return e
}

func (f *frontier) insert(pri priority, id int) {
	heap.Push(f, frontierEntry{pri: pri, id: id})
}

func (f *frontier) pop() frontierEntry {
	return heap.Pop(f).(frontierEntry)
}

func (f *frontier) empty() bool { return len(f.entries) == 0 }

func (f *frontier) clear() { f.entries = f.entries[:0] }
