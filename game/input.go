package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/pressure/config"
	"github.com/pthm-cable/pressure/world"
)

// RunState is the simulation run state.
type RunState int

const (
	Running RunState = iota
	Paused
	Skipping // paused, but step once on the next update
	Exited
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Skipping:
		return "skipping"
	case Exited:
		return "exited"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// Action is the held input action applied at the cursor every frame.
type Action int

const (
	ActionNone Action = iota
	EntitiesBrush
	WallsBrush
	DrainsBrush
	PositivePressureBrush
	NegativePressureBrush
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case EntitiesBrush:
		return config.ActionEntities
	case WallsBrush:
		return config.ActionWalls
	case DrainsBrush:
		return config.ActionDrains
	case PositivePressureBrush:
		return config.ActionPositive
	case NegativePressureBrush:
		return config.ActionNegative
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps a config action name to an Action.
func ParseAction(name string) (Action, error) {
	switch name {
	case config.ActionEntities:
		return EntitiesBrush, nil
	case config.ActionWalls:
		return WallsBrush, nil
	case config.ActionDrains:
		return DrainsBrush, nil
	case config.ActionPositive:
		return PositivePressureBrush, nil
	case config.ActionNegative:
		return NegativePressureBrush, nil
	}
	return ActionNone, fmt.Errorf("unknown action %q", name)
}

// State returns the current run state.
func (s *Session) State() RunState { return s.state }

// Action returns the held action.
func (s *Session) Action() Action { return s.action }

// Cursor returns the cell the held action applies to.
func (s *Session) Cursor() world.Point { return s.cursor }

// TogglePause flips between running and paused. A pending single step is
// dropped.
func (s *Session) TogglePause() {
	switch s.state {
	case Paused:
		s.state = Running
	case Running, Skipping:
		s.state = Paused
	}
}

// StepOnce requests a single tick on the next update. Ignored unless paused.
func (s *Session) StepOnce() {
	if s.state == Paused {
		s.state = Skipping
	}
}

// Exit stops the session for good.
func (s *Session) Exit() { s.state = Exited }

// Press sets the held action to a.
func (s *Session) Press(a Action) { s.action = a }

// Release clears the held action if it is a.
func (s *Session) Release(a Action) {
	if s.action == a {
		s.action = ActionNone
	}
}

// MoveCursor moves the cursor to p. p may lie outside the grid.
func (s *Session) MoveCursor(p world.Point) { s.cursor = p }

// applyScript applies every scripted event due on the current frame.
func (s *Session) applyScript() {
	for s.scriptPos < len(s.script) {
		ev := s.script[s.scriptPos]
		if ev.Frame > s.frame {
			return
		}
		s.scriptPos++
		if ev.Frame < s.frame {
			continue
		}
		if err := s.applyEvent(ev); err != nil {
			slog.Warn("skipping script event", "frame", ev.Frame, "op", ev.Op, "error", err)
		}
	}
}

func (s *Session) applyEvent(ev config.ScriptEvent) error {
	slog.Debug("script event", "frame", ev.Frame, "op", ev.Op, "action", ev.Action, "x", ev.X, "y", ev.Y)

	switch ev.Op {
	case config.OpPress, config.OpRelease:
		a, err := ParseAction(ev.Action)
		if err != nil {
			return err
		}
		if ev.Op == config.OpPress {
			s.Press(a)
		} else {
			s.Release(a)
		}
	case config.OpMove:
		s.MoveCursor(world.Point{X: ev.X, Y: ev.Y})
	case config.OpPause:
		s.TogglePause()
	case config.OpStep:
		s.StepOnce()
	case config.OpExit:
		s.Exit()
		slog.Info("exit requested", "frame", s.frame, "tick", s.world.Tick())
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}
	return nil
}
