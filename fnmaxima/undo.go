package fnmaxima

// undoLog collects compensating actions for the mutations of one call. Unless
// committed, rollback runs them newest first.
type undoLog struct {
	actions   []func()
	committed bool
}

func (u *undoLog) push(action func()) {
	u.actions = append(u.actions, action)
}

func (u *undoLog) commit() {
	u.committed = true
	u.actions = nil
}

func (u *undoLog) rollback() (rolledBack bool) {
	if u.committed || len(u.actions) == 0 {
		return
	}

	for idx := len(u.actions) - 1; idx >= 0; idx-- {
		u.actions[idx]()
	}

	u.actions = nil
	rolledBack = true

	return
}
