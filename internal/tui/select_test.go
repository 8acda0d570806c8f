package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestSelectLotEmptyList(t *testing.T) {
	result, err := SelectLot("Select a lot", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionSkipped {
		t.Errorf("expected ActionSkipped for empty list, got %d", result.Action)
	}
	if result.Selection != nil {
		t.Errorf("expected nil selection, got %+v", result.Selection)
	}
}

func TestSelectLotReturnsSelection(t *testing.T) {
	lots := []LotInfo{
		{LotNumber: "LOT-001", DefectCount: 3},
		{LotNumber: "LOT-002", DefectCount: 5, RepairCount: 2},
	}

	original := runProgram
	defer func() { runProgram = original }()
	runProgram = func(m tea.Model) (tea.Model, error) {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		return updated, nil
	}

	result, err := SelectLot("Select a lot", lots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionSelected {
		t.Fatalf("expected ActionSelected, got %d", result.Action)
	}
	if result.Selection == nil || result.Selection.LotNumber != "LOT-001" {
		t.Errorf("expected first lot selected, got %+v", result.Selection)
	}
}

func TestSelectLotEscapeSkips(t *testing.T) {
	lots := []LotInfo{{LotNumber: "LOT-001", DefectCount: 1}}

	original := runProgram
	defer func() { runProgram = original }()
	runProgram = func(m tea.Model) (tea.Model, error) {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		return updated, nil
	}

	result, err := SelectLot("Select a lot", lots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionSkipped {
		t.Errorf("expected ActionSkipped, got %d", result.Action)
	}
}

func TestSelectLotQuitStops(t *testing.T) {
	lots := []LotInfo{{LotNumber: "LOT-001", DefectCount: 1}}

	original := runProgram
	defer func() { runProgram = original }()
	runProgram = func(m tea.Model) (tea.Model, error) {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		return updated, nil
	}

	result, err := SelectLot("Select a lot", lots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionStopped {
		t.Errorf("expected ActionStopped, got %d", result.Action)
	}
}

func TestFormatCounts(t *testing.T) {
	tests := []struct {
		lot  LotInfo
		want string
	}{
		{LotInfo{LotNumber: "A", DefectCount: 3}, "3 defects"},
		{LotInfo{LotNumber: "B", DefectCount: 5, RepairCount: 2}, "5 defects | 2 repairs"},
		{LotInfo{LotNumber: "C"}, "0 defects"},
	}
	for _, tt := range tests {
		if got := formatCounts(tt.lot); got != tt.want {
			t.Errorf("formatCounts(%+v) = %q, want %q", tt.lot, got, tt.want)
		}
	}
}
