package common

var ErrModulePaused = NewError(CategoryState, "module paused")

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// StaticPauses is a fixed module-to-paused table, typically loaded from config.
type StaticPauses map[string]bool

func (p StaticPauses) IsPaused(module string) bool {
	return p[module]
}
