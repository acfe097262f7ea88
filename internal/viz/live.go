package viz

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	trailCapacity   = 400
	frameRate       = 30

	// turtlesim world
	worldSize = 11.0
)

type TickMsg time.Time

// Model steps a plant under a goal seeker and draws it.
type Model struct {
	seeker     *control.GoalSeeker
	plant      dynamo.System
	integrator dynamo.Integrator

	start, pose dynamo.Pose
	startGoal   dynamo.Goal
	t, dt       float64
	last        control.Decision
	initialDist float64

	frame         Frame
	canvas        *Canvas
	trail         []dynamo.Pose
	distHistory   []float64
	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int
	running       bool
	showHelp      bool
	rng           *rand.Rand
}

// NewModel arms seeker with goal and starts the plant at start.
func NewModel(seeker *control.GoalSeeker, plant dynamo.System, integ dynamo.Integrator, start dynamo.Pose, goal dynamo.Goal, dt float64) Model {
	params := seeker.GetParams()
	keys := make([]string, 0, len(params))
	initialParams := make(map[string]float64, len(params))
	for k, v := range params {
		keys = append(keys, k)
		initialParams[k] = v
	}
	sort.Strings(keys)

	m := Model{
		seeker:        seeker,
		plant:         plant,
		integrator:    integ,
		start:         start,
		pose:          start,
		startGoal:     goal,
		dt:            dt,
		canvas:        NewCanvas(width, height),
		trail:         make([]dynamo.Pose, 0, trailCapacity),
		distHistory:   make([]float64, 0, historyCapacity),
		params:        params,
		initialParams: initialParams,
		paramKeys:     keys,
		running:       true,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.setGoal(goal)
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
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
		case "n":
			m.setGoal(dynamo.Goal{X: m.rng.Float64() * worldSize, Y: m.rng.Float64() * worldSize})
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			names := ThemeNames()
			for i, name := range names {
				if name == CurrentTheme.Name {
					SetTheme(names[(i+1)%len(names)])
					break
				}
			}
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && !m.showHelp {
			// canvasStyle pads one row and two columns
			col, row := msg.X-2, msg.Y-1
			if col >= 0 && col < width && row >= 0 && row < height {
				x, y := m.frame.FromCell(col, row)
				m.setGoal(dynamo.Goal{X: x, Y: y})
			}
		}
	case TickMsg:
		if m.running {
			m.advance(1.0 / frameRate)
		}
		return m, tick()
	}
	return m, nil
}

// advance integrates d seconds of simulated time, running the controller
// every step.
func (m *Model) advance(d float64) {
	steps := int(math.Max(1, math.Round(d/m.dt)))
	for i := 0; i < steps; i++ {
		m.step()
	}

	m.trail = append(m.trail, m.pose)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
	if goal, armed := m.seeker.Goal(); armed {
		m.distHistory = append(m.distHistory, m.pose.DistanceTo(goal))
		if len(m.distHistory) > historyCapacity {
			m.distHistory = m.distHistory[1:]
		}
	}
}

func (m *Model) step() {
	m.last = m.seeker.Decide(m.pose)
	x := m.integrator.Step(m.plant, m.pose.State(), m.last.Command.Control(), m.t, m.dt)
	m.pose = dynamo.PoseFromState(x)
	m.t += m.dt
}

func (m *Model) setGoal(g dynamo.Goal) {
	m.seeker.SetGoal(g.X, g.Y)
	m.initialDist = m.pose.DistanceTo(g)
	m.distHistory = m.distHistory[:0]
	if m.frame.Contains(g.X, g.Y) {
		return
	}
	m.frame = NewFrame(width, height, 0.5,
		[2]float64{0, 0}, [2]float64{worldSize, worldSize},
		[2]float64{m.start.X, m.start.Y}, [2]float64{m.pose.X, m.pose.Y}, [2]float64{g.X, g.Y})
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	newVal := m.params[key] * factor
	if err := m.seeker.SetParam(key, newVal); err != nil {
		return
	}
	m.params[key] = newVal
}

// reset restores the start pose, the first goal and the initial gains.
func (m *Model) reset() {
	m.t = 0
	m.pose = m.start
	m.trail = m.trail[:0]
	m.last = control.Decision{}
	for k, v := range m.initialParams {
		m.params[k] = v
		_ = m.seeker.SetParam(k, v)
	}
	m.frame = Frame{}
	m.setGoal(m.startGoal)
}

func (m *Model) draw() {
	m.canvas.Clear()
	drawTrail(m.canvas, m.frame, m.trail)

	if goal, armed := m.seeker.Goal(); armed {
		gx, gy := m.frame.ToCanvas(goal.X, goal.Y)
		m.canvas.DrawCross(gx, gy, 2)
	}

	// agent body and heading
	ax, ay := m.frame.ToCanvas(m.pose.X, m.pose.Y)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			m.canvas.Set(ax+dx, ay+dy)
		}
	}
	sin, cos := math.Sincos(m.pose.Theta)
	m.canvas.DrawLine(ax, ay, ax+int(math.Round(5*cos)), ay-int(math.Round(5*sin)))
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle().Render("GOALSEEK") + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	goal, armed := m.seeker.Goal()
	mode := m.last.Mode.String()
	if !armed {
		mode = "idle"
	}
	s.WriteString(status + "  " + modeStyle(mode).Render(strings.ToUpper(mode)) + "\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.t))
	row("Pose", m.pose.String())
	if armed {
		row("Goal", goal.String())
		dist := m.pose.DistanceTo(goal)
		row("Distance", fmt.Sprintf("%.3f", dist))
		row("Heading err", fmt.Sprintf("%+.3f rad", dynamo.NormalizeAngle(m.pose.BearingTo(goal)-m.pose.Theta)))
		if m.initialDist > 0 {
			row("Progress", ProgressBar(1-dist/m.initialDist, 20))
		}
	} else {
		row("Goal", "none")
	}
	row("Command", fmt.Sprintf("v=%.3f ω=%+.3f", m.last.Command.Linear, m.last.Command.Angular))
	row("Arrivals", fmt.Sprintf("%d", m.seeker.Arrivals()))

	if len(m.distHistory) > 1 {
		chart := asciigraph.Plot(m.distHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Distance"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString("\nGAINS\n")
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-17s %.3f", k, m.params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle().Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Width(0).Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset N:Goal Click:Goal\nTab ↑↓:Tune T:Theme ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset                    ║
║  N        - New random goal          ║
║  Click    - Set goal under cursor    ║
║  Tab      - Cycle gains              ║
║  Up/K     - Increase gain (+5%)      ║
║  Down/J   - Decrease gain (-5%)      ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
