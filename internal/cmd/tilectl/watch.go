package tilectl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/websocket"

	"github.com/louisbranch/wear-tiles/internal/platform/timeouts"
	tileshttp "github.com/louisbranch/wear-tiles/internal/services/tiles/api/http/tiles"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/render"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
)

type frameMsg struct {
	frame tileshttp.UpdateFrame
}

type streamClosedMsg struct {
	err error
}

type tileMsg struct {
	version uint64
	view    string
	err     error
}

// tileFetcher renders one preview. showTile satisfies it in production.
type tileFetcher func(ctx context.Context) (string, error)

type watchModel struct {
	ctx     context.Context
	frames  <-chan tea.Msg
	fetch   tileFetcher
	version uint64
	view    string
	status  string
	err     error
}

func newWatchModel(ctx context.Context, frames <-chan tea.Msg, fetch tileFetcher) watchModel {
	return watchModel{ctx: ctx, frames: frames, fetch: fetch, status: "waiting for updates"}
}

func (m watchModel) Init() tea.Cmd {
	return waitFrame(m.frames)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case frameMsg:
		if msg.frame.Type == tileshttp.FrameTypeError && msg.frame.Error != nil {
			m.err = fmt.Errorf("%s: %s", msg.frame.Error.Code, msg.frame.Error.Message)
			return m, waitFrame(m.frames)
		}
		m.version = msg.frame.Version
		m.status = fmt.Sprintf("version %d, %d contacts", msg.frame.Version, len(msg.frame.Contacts))
		return m, tea.Batch(m.refresh(msg.frame.Version), waitFrame(m.frames))
	case tileMsg:
		if msg.version != m.version {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = msg.view
		return m, nil
	case streamClosedMsg:
		if msg.err != nil && !errors.Is(msg.err, io.EOF) {
			m.err = msg.err
		}
		m.status = "update stream closed"
		return m, tea.Quit
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	if m.view != "" {
		b.WriteString(m.view)
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func (m watchModel) refresh(version uint64) tea.Cmd {
	fetch := m.fetch
	ctx := m.ctx
	return func() tea.Msg {
		view, err := fetch(ctx)
		return tileMsg{version: version, view: view, err: err}
	}
}

func waitFrame(frames <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-frames
		if !ok {
			return streamClosedMsg{}
		}
		return msg
	}
}

// readFrames forwards update frames until the stream ends. The final message
// is always a streamClosedMsg.
func readFrames(conn *websocket.Conn, frames chan<- tea.Msg) {
	defer close(frames)
	for {
		var frame tileshttp.UpdateFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			frames <- streamClosedMsg{err: err}
			return
		}
		frames <- frameMsg{frame: frame}
	}
}

func runWatch(ctx context.Context, client *Client, device render.DeviceParams, out io.Writer) error {
	conn, err := client.Updates()
	if err != nil {
		return err
	}
	defer conn.Close()

	frames := make(chan tea.Msg)
	go readFrames(conn, frames)

	fetch := func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Request)
		defer cancel()
		return showTile(ctx, client, device)
	}
	program := tea.NewProgram(newWatchModel(ctx, frames, fetch), tea.WithContext(ctx), tea.WithOutput(out))
	final, err := program.Run()
	// Unblock readFrames if the program quit before the stream ended.
	_ = conn.Close()
	go func() {
		for range frames {
		}
	}()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if model, ok := final.(watchModel); ok && model.err != nil {
		return model.err
	}
	return nil
}
