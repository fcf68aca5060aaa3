package session

import "github.com/verte-zerg/swingkiosk/internal/model"

// Screen identifies a frontend screen.
type Screen string

// Kiosk screens. Home is the initial screen and accepts any step.
const (
	ScreenHome     Screen = "home"
	ScreenSwing    Screen = "swing"
	ScreenSolution Screen = "solution"
	ScreenComplete Screen = "complete"
)

// ParseScreen maps a screen name, reporting false for unknown names.
func ParseScreen(name string) (Screen, bool) {
	switch s := Screen(name); s {
	case ScreenHome, ScreenSwing, ScreenSolution, ScreenComplete:
		return s, true
	}
	return "", false
}

// ScreenFor returns the screen that renders step.
func ScreenFor(step model.Step) Screen {
	switch step {
	case model.StepSwingFirst, model.StepSwingSecond:
		return ScreenSwing
	case model.StepSolutionVideo, model.StepSolutionChart:
		return ScreenSolution
	case model.StepComplete:
		return ScreenComplete
	}
	return ScreenHome
}

// Accepts reports whether screen may render while the session is at step.
func (s Screen) Accepts(step model.Step) bool {
	return s == ScreenHome || ScreenFor(step) == s
}

// Guard returns screen when it matches the current step. Otherwise any active
// measurement phase is canceled and the home screen is returned.
func (e *Engine) Guard(screen Screen) Screen {
	e.mu.Lock()
	defer e.mu.Unlock()

	if screen.Accepts(e.step) {
		return screen
	}
	if e.phase != model.PhaseIdle {
		e.cancelPhaseLocked()
	}
	e.log.Info("redirecting out-of-sequence screen", "screen", screen, "step", e.step)
	e.publishLocked(EventRedirect)
	return ScreenHome
}
