package reconciler

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/element"
)

// workLoop walks the in-progress tree depth first: begin on the way down,
// complete on the way up.
type workLoop struct {
	*pass
	next NodeID
	// node being worked on, for panic reports
	working NodeID
}

func (l *workLoop) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			n := l.arena.get(l.working)
			err = fmt.Errorf("panic while working on node %d (%s %s): %v",
				l.working, n.kind, element.TypeName(n.typ), r)
		}
	}()

	for l.next != none {
		if err := l.performUnitOfWork(l.next); err != nil {
			return err
		}
	}
	return nil
}

func (l *workLoop) performUnitOfWork(id NodeID) error {
	l.working = id
	next, err := l.beginWork(id)
	if err != nil {
		return err
	}
	n := l.arena.get(id)
	n.memoizedProps = n.pendingProps

	if next == none {
		return l.completeUnitOfWork(id)
	}
	l.next = next
	return nil
}

// completeUnitOfWork completes id and its ancestors until one has a sibling
// left to begin.
func (l *workLoop) completeUnitOfWork(id NodeID) error {
	for id != none {
		l.working = id
		if err := l.completeWork(id); err != nil {
			return err
		}
		n := l.arena.get(id)
		if n.sibling != none {
			l.next = n.sibling
			return nil
		}
		id = n.parent
	}
	l.next = none
	return nil
}
