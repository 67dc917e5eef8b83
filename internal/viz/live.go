package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/resolvent/internal/optim"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 2000
)

type TickMsg time.Time

// ProgressMsg carries one optimizer iteration into the view.
type ProgressMsg optim.Progress

// DoneMsg ends a search. Samples is the converged orbit in state space.
type DoneMsg struct {
	Result  *optim.Result
	Samples [][]float64
	Err     error
}

// SolveModel shows a running search and, once it finishes, the orbit it found.
type SolveModel struct {
	title    string
	maxIter  int
	cancel   context.CancelFunc
	history  []float64
	last     optim.Progress
	frame    int
	done     bool
	result   *optim.Result
	err      error
	canvas   *Canvas
	orbit    *Wireframe
	camera   *Camera
	rotating bool
}

func NewSolveModel(title string, maxIter int, cancel context.CancelFunc) SolveModel {
	return SolveModel{
		title:    title,
		maxIter:  maxIter,
		cancel:   cancel,
		history:  make([]float64, 0, historyCapacity),
		canvas:   NewCanvas(width/2, height/2),
		camera:   NewCamera(),
		rotating: true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/20, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m SolveModel) Init() tea.Cmd { return tick() }

func (m SolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ":
			m.rotating = !m.rotating
		case "left", "h":
			m.camera.RotateY(-0.1)
		case "right", "l":
			m.camera.RotateY(0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-":
			m.camera.ZoomOut()
		}
	case ProgressMsg:
		m.last = optim.Progress(msg)
		if len(m.history) == historyCapacity {
			m.history = append(m.history[:0], m.history[historyCapacity/2:]...)
		}
		m.history = append(m.history, msg.Residual)
	case DoneMsg:
		m.done, m.result, m.err = true, msg.Result, msg.Err
		if len(msg.Samples) > 0 {
			m.orbit = OrbitWireframe(msg.Samples)
		}
	case TickMsg:
		m.frame++
		if m.done && m.rotating {
			m.camera.RotateY(0.03)
		}
		return m, tick()
	}
	return m, nil
}

func (m SolveModel) status() string {
	switch {
	case m.done && m.err != nil:
		return StatusFailed.Render("FAILED")
	case m.done && m.result != nil:
		return StatusRunning.Render("DONE " + m.result.Status)
	case m.done:
		return StatusRunning.Render("DONE")
	default:
		return StatusPaused.Render(AnimatedSpinner(m.frame) + " SEARCHING")
	}
}

func (m SolveModel) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	iter, resid, gnorm, freq, elapsed := m.last.Iteration, m.last.Residual, m.last.GradNorm, m.last.Freq, m.last.Elapsed
	if m.done && m.result != nil {
		iter, resid, gnorm, freq, elapsed = m.result.Iterations, m.result.Residual, m.result.GradNorm, m.result.Freq, m.result.Runtime
	}
	if m.maxIter > 0 {
		s.WriteString(ProgressBar(float64(iter)/float64(m.maxIter), 30) + "\n\n")
	}
	s.WriteString(Metric("Iteration", "%d", iter) + "\n")
	s.WriteString(Metric("Residual", "%.4e", resid) + "\n")
	s.WriteString(Metric("Grad norm", "%.4e", gnorm) + "\n")
	if freq > 0 {
		s.WriteString(Metric("Period", "%.6f", 2*3.141592653589793/freq) + "\n")
	}
	s.WriteString(Metric("Elapsed", "%s", elapsed.Round(time.Millisecond)) + "\n")
	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}
	if chart := PlotHistory(m.history, 40, 6); chart != "" {
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(KeyHint.Render("\nQ:Quit  SP:Rotate  ←→:Turn  +/-:Zoom"))
	stats := Panel.Render(s.String())

	if m.orbit == nil {
		return stats
	}
	m.canvas.Clear()
	Render3D(m.canvas, m.orbit, m.camera)
	return lipgloss.JoinHorizontal(lipgloss.Top, Panel.Render(m.canvas.String()), stats)
}

// SolveFunc runs one search, reporting every iteration through progress.
type SolveFunc func(ctx context.Context, progress func(optim.Progress)) (*optim.Result, [][]float64, error)

// RunLive runs solve under a SolveModel until the user quits. Quitting
// before the search ends cancels it.
func RunLive(ctx context.Context, title string, maxIter int, solve SolveFunc) (*optim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewSolveModel(title, maxIter, cancel), tea.WithAltScreen())
	var (
		res  *optim.Result
		err  error
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		var samples [][]float64
		res, samples, err = solve(ctx, func(pr optim.Progress) { p.Send(ProgressMsg(pr)) })
		p.Send(DoneMsg{Result: res, Samples: samples, Err: err})
	}()

	if _, runErr := p.Run(); runErr != nil {
		cancel()
		<-done
		return res, fmt.Errorf("live view: %w", runErr)
	}
	cancel()
	<-done
	return res, err
}
