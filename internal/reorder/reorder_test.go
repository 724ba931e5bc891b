package reorder_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blockeditor/internal/domain"
	"blockeditor/internal/reorder"
)

func seqOf(ids ...string) []domain.Block {
	out := make([]domain.Block, len(ids))
	for i, id := range ids {
		out[i] = domain.Block{ID: id, Type: domain.BlockTypeRichText, Data: domain.RichText{Body: id}}
	}
	return out
}

// ─────────────────────────────────────────────────────────────
// Reorder
// ─────────────────────────────────────────────────────────────

func TestReorder(t *testing.T) {
	tests := []struct {
		name   string
		seq    []string
		moved  string
		target string
		pos    reorder.Position
		want   []string
	}{
		{"drop first below second", []string{"A", "B", "C"}, "A", "B", reorder.Below, []string{"B", "A", "C"}},
		{"drop first above second keeps order", []string{"A", "B", "C"}, "A", "B", reorder.Above, []string{"A", "B", "C"}},
		{"drop last above first", []string{"A", "B", "C"}, "C", "A", reorder.Above, []string{"C", "A", "B"}},
		{"drop first below last", []string{"A", "B", "C"}, "A", "C", reorder.Below, []string{"B", "C", "A"}},
		{"drop middle above first", []string{"A", "B", "C", "D"}, "C", "A", reorder.Above, []string{"C", "A", "B", "D"}},
		{"drop onto itself", []string{"A", "B", "C"}, "B", "B", reorder.Below, []string{"A", "B", "C"}},
		{"unknown moved id", []string{"A", "B", "C"}, "missing", "B", reorder.Below, []string{"A", "B", "C"}},
		{"unknown target id", []string{"A", "B", "C"}, "A", "missing", reorder.Above, []string{"A", "B", "C"}},
		{"empty sequence", nil, "A", "B", reorder.Above, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.IDs(reorder.Reorder(seqOf(tt.seq...), tt.moved, tt.target, tt.pos))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Reorder(%v, %s, %s, %s) mismatch (-want +got):\n%s", tt.seq, tt.moved, tt.target, tt.pos, diff)
			}
		})
	}
}

func TestReorder_IsPermutation(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	seq := seqOf(ids...)
	for _, moved := range ids {
		for _, target := range ids {
			for _, pos := range []reorder.Position{reorder.Above, reorder.Below} {
				got := domain.IDs(reorder.Reorder(seq, moved, target, pos))
				sort.Strings(got)
				if diff := cmp.Diff(ids, got); diff != "" {
					t.Fatalf("Reorder(%s, %s, %s) is not a permutation (-want +got):\n%s", moved, target, pos, diff)
				}
			}
		}
	}
}

func TestReorder_DoesNotModifyInput(t *testing.T) {
	seq := seqOf("A", "B", "C")
	_ = reorder.Reorder(seq, "C", "A", reorder.Above)
	if diff := cmp.Diff([]string{"A", "B", "C"}, domain.IDs(seq)); diff != "" {
		t.Errorf("input sequence changed (-want +got):\n%s", diff)
	}
}

// ─────────────────────────────────────────────────────────────
// MoveUp / MoveDown
// ─────────────────────────────────────────────────────────────

func TestMoveUpDown(t *testing.T) {
	seq := seqOf("A", "B", "C")

	if _, moved := reorder.MoveUp(seq, "A"); moved {
		t.Error("MoveUp on the first block should be a no-op")
	}
	if _, moved := reorder.MoveDown(seq, "C"); moved {
		t.Error("MoveDown on the last block should be a no-op")
	}
	if _, moved := reorder.MoveUp(seq, "missing"); moved {
		t.Error("MoveUp on an unknown block should be a no-op")
	}

	got, moved := reorder.MoveDown(seq, "A")
	if !moved {
		t.Fatal("expected MoveDown(A) to move")
	}
	if diff := cmp.Diff([]string{"B", "A", "C"}, domain.IDs(got)); diff != "" {
		t.Errorf("MoveDown(A) mismatch (-want +got):\n%s", diff)
	}

	got, _ = reorder.MoveUp(seq, "C")
	if diff := cmp.Diff([]string{"A", "C", "B"}, domain.IDs(got)); diff != "" {
		t.Errorf("MoveUp(C) mismatch (-want +got):\n%s", diff)
	}
}

func TestCanMove(t *testing.T) {
	seq := seqOf("A", "B", "C")
	cases := []struct {
		id       string
		up, down bool
	}{
		{"A", false, true},
		{"B", true, true},
		{"C", true, false},
		{"missing", false, false},
	}
	for _, c := range cases {
		if got := reorder.CanMoveUp(seq, c.id); got != c.up {
			t.Errorf("CanMoveUp(%s) = %v, want %v", c.id, got, c.up)
		}
		if got := reorder.CanMoveDown(seq, c.id); got != c.down {
			t.Errorf("CanMoveDown(%s) = %v, want %v", c.id, got, c.down)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Drop zones
// ─────────────────────────────────────────────────────────────

func TestClassify(t *testing.T) {
	// block spans 100..200, midpoint 150
	if got := reorder.Classify(120, 100, 100); got != reorder.Above {
		t.Errorf("upper half: got %s", got)
	}
	if got := reorder.Classify(149.9, 100, 100); got != reorder.Above {
		t.Errorf("just above midpoint: got %s", got)
	}
	if got := reorder.Classify(150, 100, 100); got != reorder.Below {
		t.Errorf("on midpoint: got %s", got)
	}
	if got := reorder.Classify(199, 100, 100); got != reorder.Below {
		t.Errorf("lower half: got %s", got)
	}
}

func TestPosition_Text(t *testing.T) {
	for _, p := range []reorder.Position{reorder.Above, reorder.Below} {
		text, _ := p.MarshalText()
		var back reorder.Position
		if err := back.UnmarshalText(text); err != nil || back != p {
			t.Errorf("round trip of %s gave %s, err %v", p, back, err)
		}
	}
	var p reorder.Position
	if err := p.UnmarshalText([]byte("sideways")); err == nil {
		t.Error("expected error for unknown position")
	}
}
