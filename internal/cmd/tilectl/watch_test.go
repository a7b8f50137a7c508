package tilectl

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	tileshttp "github.com/louisbranch/wear-tiles/internal/services/tiles/api/http/tiles"
)

func TestWatchModelRefreshesOnFrame(t *testing.T) {
	t.Parallel()

	frames := make(chan tea.Msg, 1)
	fetches := 0
	model := newWatchModel(context.Background(), frames, func(context.Context) (string, error) {
		fetches++
		return "tile view", nil
	})

	updated, cmd := model.Update(frameMsg{frame: tileshttp.UpdateFrame{
		Type:     tileshttp.FrameTypeState,
		Version:  3,
		Contacts: []tileshttp.ContactJSON{{ID: "a"}},
	}})
	if cmd == nil {
		t.Fatal("expected refresh command")
	}
	m := updated.(watchModel)
	if m.version != 3 || !strings.Contains(m.status, "version 3") {
		t.Fatalf("model = %+v", m)
	}

	msg := m.refresh(3)()
	updated, _ = m.Update(msg)
	m = updated.(watchModel)
	if fetches != 1 || m.view != "tile view" {
		t.Fatalf("fetches = %d view = %q", fetches, m.view)
	}
	if !strings.Contains(m.View(), "tile view") {
		t.Fatalf("View() = %q", m.View())
	}
}

func TestWatchModelDropsStaleTiles(t *testing.T) {
	t.Parallel()

	m := newWatchModel(context.Background(), nil, nil)
	m.version = 5
	updated, _ := m.Update(tileMsg{version: 4, view: "old"})
	if updated.(watchModel).view != "" {
		t.Fatal("stale tile should be ignored")
	}
}

func TestWatchModelShowsErrors(t *testing.T) {
	t.Parallel()

	frames := make(chan tea.Msg, 1)
	m := newWatchModel(context.Background(), frames, nil)
	updated, _ := m.Update(frameMsg{frame: tileshttp.UpdateFrame{
		Type:  tileshttp.FrameTypeError,
		Error: &tileshttp.FrameError{Code: "FAVORITES_UNAVAILABLE", Message: "down"},
	}})
	m = updated.(watchModel)
	if m.err == nil || !strings.Contains(m.View(), "down") {
		t.Fatalf("View() = %q, want error", m.View())
	}
}

func TestWatchModelQuits(t *testing.T) {
	t.Parallel()

	m := newWatchModel(context.Background(), nil, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}

	updated, cmd := m.Update(streamClosedMsg{err: io.EOF})
	if cmd == nil || updated.(watchModel).err != nil {
		t.Fatal("EOF should quit without error")
	}
	updated, _ = m.Update(streamClosedMsg{err: errors.New("reset")})
	if updated.(watchModel).err == nil {
		t.Fatal("stream failure should be reported")
	}
}

func TestWaitFrameReportsClosedStream(t *testing.T) {
	t.Parallel()

	frames := make(chan tea.Msg)
	close(frames)
	if _, ok := waitFrame(frames)().(streamClosedMsg); !ok {
		t.Fatal("expected streamClosedMsg")
	}
}
