package reorder_test

import (
	"testing"

	"blockeditor/internal/reorder"
)

func TestSession_Transitions(t *testing.T) {
	var s reorder.Session

	if s.State() != reorder.Idle {
		t.Fatalf("zero session should be idle, got %s", s.State())
	}
	if s.Over("b", reorder.Above) {
		t.Error("Over while idle should be ignored")
	}

	if !s.Start("a") || s.State() != reorder.Dragging || s.DraggedID() != "a" {
		t.Fatalf("Start(a): state=%s dragged=%q", s.State(), s.DraggedID())
	}
	if s.Start("b") {
		t.Error("second Start should be ignored")
	}
	if s.DraggedID() != "a" {
		t.Errorf("dragged id changed to %q", s.DraggedID())
	}

	if s.Over("a", reorder.Below) {
		t.Error("hovering the dragged block should be ignored")
	}
	if !s.Over("b", reorder.Below) || s.State() != reorder.DraggedOver {
		t.Fatalf("Over(b): state=%s", s.State())
	}
	target, ok := s.Target()
	if !ok || target.TargetID != "b" || target.Position != reorder.Below {
		t.Errorf("unexpected target %+v ok=%v", target, ok)
	}

	if s.Leave("c") {
		t.Error("leaving a block that is not hovered should be ignored")
	}
	if !s.Leave("b") || s.State() != reorder.Dragging {
		t.Fatalf("Leave(b): state=%s", s.State())
	}
	if _, ok := s.Target(); ok {
		t.Error("no target expected after leave")
	}

	s.Over("c", reorder.Above)
	s.End()
	if s.State() != reorder.Idle || s.DraggedID() != "" {
		t.Errorf("End: state=%s dragged=%q", s.State(), s.DraggedID())
	}
	if !s.Start("c") {
		t.Error("session should be reusable after End")
	}
}

func TestSession_HoverMovesBetweenBlocks(t *testing.T) {
	var s reorder.Session
	s.Start("a")
	s.Over("b", reorder.Above)
	s.Over("c", reorder.Below)

	if v := s.Visual("b"); v.Indicator {
		t.Error("indicator should have moved off b")
	}
	if v := s.Visual("c"); !v.Indicator || v.Position != reorder.Below {
		t.Errorf("expected below indicator on c, got %+v", v)
	}
}

func TestSession_EndFromIdle(t *testing.T) {
	var s reorder.Session
	s.End()
	if s.State() != reorder.Idle {
		t.Errorf("expected idle, got %s", s.State())
	}
}
