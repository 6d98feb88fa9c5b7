package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/Style3D/block/internal/engine"
	"github.com/Style3D/block/internal/geom"
	"github.com/Style3D/block/internal/scene"
	"github.com/Style3D/block/internal/solver"
)

const historyCapacity = 240

type TickMsg time.Time

// Model steps an oscillating demo scene through the collision pipeline
// once per frame and charts the results.
type Model struct {
	eng       *engine.Engine
	base      []geom.Primitive
	prims     []geom.Primitive
	sceneName string

	t, dt     float64
	amplitude float64
	running   bool
	stepErr   error

	contactHistory  []float64
	residualHistory []float64
	lastReport      *engine.Report
	lastSolve       solver.Result
}

// NewModel wraps eng around a named demo scene.
func NewModel(eng *engine.Engine, sceneName string, prims []geom.Primitive) Model {
	base := make([]geom.Primitive, len(prims))
	copy(base, prims)
	return Model{
		eng:             eng,
		base:            base,
		prims:           prims,
		sceneName:       sceneName,
		dt:              1.0 / 30,
		amplitude:       0.3,
		running:         true,
		contactHistory:  make([]float64, 0, historyCapacity),
		residualHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	m.t += m.dt
	scene.Oscillate(m.prims, m.base, m.t, m.amplitude)

	rep, err := m.eng.Step(m.prims)
	if err != nil {
		m.stepErr = err
		m.running = false
		return
	}
	m.stepErr = nil
	m.lastReport = rep
	m.lastSolve = m.eng.SolveContacts(len(m.prims), rep.Contacts)

	m.contactHistory = append(m.contactHistory, float64(len(rep.Contacts)))
	if len(m.contactHistory) > historyCapacity {
		m.contactHistory = m.contactHistory[1:]
	}
	m.residualHistory = append(m.residualHistory, m.lastSolve.Residual)
	if len(m.residualHistory) > historyCapacity {
		m.residualHistory = m.residualHistory[1:]
	}
}

func (m *Model) reset() {
	m.t = 0
	copy(m.prims, m.base)
	m.contactHistory = m.contactHistory[:0]
	m.residualHistory = m.residualHistory[:0]
	m.lastReport = nil
	m.stepErr = nil
	m.running = true
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.sceneName)) + "\n")

	switch {
	case m.stepErr != nil:
		s.WriteString(statusError.Render("ERROR ") + m.stepErr.Error() + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.contactHistory) > 1 {
		chart := asciigraph.Plot(m.contactHistory,
			asciigraph.Height(5), asciigraph.Width(48), asciigraph.Caption("Contacts"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	if len(m.residualHistory) > 1 {
		chart := asciigraph.Plot(m.residualHistory,
			asciigraph.Height(4), asciigraph.Width(48), asciigraph.Caption("Solver residual"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(m.statsView())
	s.WriteString(helpStyle.Render("SP:Pause  R:Reset  Q:Quit"))
	return panelStyle.Render(s.String())
}

func (m Model) statsView() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")

	if rep := m.lastReport; rep != nil {
		s.WriteString(labelStyle.Render("Primitives") + valueStyle.Render(fmt.Sprintf("%d", rep.Primitives)) + "\n")
		s.WriteString(labelStyle.Render("Pairs") + valueStyle.Render(fmt.Sprintf("%d", rep.Pairs)) + "\n")
		s.WriteString(labelStyle.Render("Contacts") + valueStyle.Render(fmt.Sprintf("%d", len(rep.Contacts))) + "\n")
		s.WriteString(labelStyle.Render("Step time") + valueStyle.Render(fmt.Sprintf("%.2fms", float64(rep.Elapsed.Microseconds())/1000)) + "\n")

		solveState := "converged"
		if !m.lastSolve.Converged {
			solveState = "iteration cap"
		}
		s.WriteString(labelStyle.Render("Solve") + valueStyle.Render(fmt.Sprintf(
			"%d iters, %.1e (%s)", m.lastSolve.Iterations, m.lastSolve.Residual, solveState)) + "\n")

		budget := float64(m.lastSolve.Iterations) / float64(m.eng.Config().SolverMaxIterations)
		s.WriteString(labelStyle.Render("Iter budget") + ProgressBar(budget, 20) + "\n")
	}
	s.WriteString("\n")
	return s.String()
}

// Run starts the live view and blocks until the user quits.
func Run(eng *engine.Engine, sceneName string, prims []geom.Primitive) error {
	p := tea.NewProgram(NewModel(eng, sceneName, prims), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
