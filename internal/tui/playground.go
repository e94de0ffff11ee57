// Package tui is the interactive terminal driving playground.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/velox-sim/velox/internal/input"
	"github.com/velox-sim/velox/internal/models"
	"github.com/velox-sim/velox/internal/params"
	"github.com/velox-sim/velox/internal/sim"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	frameDt      = 1.0 / 30.0
	historyLen   = 120
	controlDecay = 0.85
)

type tickMsg time.Time

type playground struct {
	daemon    *sim.Daemon
	bundle    *params.Bundle
	modelKind models.Kind
	vehicleID int
	drift     bool

	throttle float64
	brake    float64
	nudge    float64

	paused  bool
	history []float64
	err     error

	width  int
	height int
}

// NewPlayground builds the interactive model. Reset errors surface in the
// view rather than aborting the program.
func NewPlayground(bundle *params.Bundle, kind models.Kind, vehicleID int, drift bool) tea.Model {
	p := &playground{
		daemon:    sim.NewDaemon(bundle, nil),
		bundle:    bundle,
		modelKind: kind,
		vehicleID: vehicleID,
		drift:     drift,
		history:   make([]float64, 0, historyLen),
	}
	p.reset()
	return p
}

func (p *playground) reset() {
	p.err = p.daemon.Reset(sim.ResetOptions{
		Model:       p.modelKind,
		VehicleID:   p.vehicleID,
		Drift:       p.drift,
		ControlMode: input.Keyboard,
	})
	p.history = p.history[:0]
	p.throttle, p.brake, p.nudge = 0, 0, 0
}

func (p *playground) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (p *playground) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return p, tea.Quit
		case " ":
			p.paused = !p.paused
		case "up", "w":
			p.throttle = 1
		case "down", "s":
			p.brake = 1
		case "left", "a":
			p.nudge = 1
		case "right", "d":
			p.nudge = -1
		case "m":
			if p.modelKind == models.Kinematic {
				p.modelKind = models.ExtendedDynamic
			} else {
				p.modelKind = models.Kinematic
			}
			p.reset()
		case "v":
			p.vehicleID = p.vehicleID%3 + 1
			p.reset()
		case "g":
			p.drift = !p.drift
			p.reset()
		case "r":
			p.reset()
		}
	case tickMsg:
		if !p.paused && p.err == nil {
			p.step()
		}
		return p, tick()
	}
	return p, nil
}

func (p *playground) step() {
	frame, err := p.daemon.Step(input.Input{
		Mode:          input.Keyboard,
		Dt:            frameDt,
		Throttle:      p.throttle,
		Brake:         p.brake,
		SteeringNudge: p.nudge,
	})
	if err != nil {
		p.err = err
		return
	}

	// keyboards have no release events; let held controls decay
	p.throttle *= controlDecay
	p.brake *= controlDecay
	p.nudge *= controlDecay

	p.history = append(p.history, frame.Velocity.Speed)
	if len(p.history) > historyLen {
		p.history = p.history[1:]
	}
}

func (p *playground) View() string {
	if p.err != nil {
		return red.Render(fmt.Sprintf("error: %v", p.err)) + dim.Render("\n\npress r to reset, q to quit\n")
	}

	snap := p.daemon.Snapshot()
	f := snap.Telemetry
	veh := p.daemon.Vehicle()

	var b strings.Builder
	mode := "normal"
	if p.drift {
		mode = "drift"
	}
	b.WriteString(cyan.Render("velox playground"))
	b.WriteString(dim.Render(fmt.Sprintf("  %s · vehicle %d (%s) · %s · t=%.1fs\n\n",
		p.modelKind, p.vehicleID, veh.Name, mode, snap.SimTime)))

	stage := green.Render(f.Safety.Stage.String())
	switch f.Safety.Stage.String() {
	case "transition":
		stage = yellow.Render("transition")
	case "emergency":
		stage = red.Render("emergency")
	}

	rows := []string{
		fmt.Sprintf("speed     %s m/s", white.Render(fmt.Sprintf("%7.2f", f.Velocity.Speed))),
		fmt.Sprintf("yaw rate  %s rad/s", white.Render(fmt.Sprintf("%7.3f", f.Velocity.YawRate))),
		fmt.Sprintf("slip      %s rad", white.Render(fmt.Sprintf("%7.3f", f.Traction.SlipAngle))),
		fmt.Sprintf("steering  %s rad", white.Render(fmt.Sprintf("%7.3f", f.Steering.ActualAngle))),
		fmt.Sprintf("accel     %7.2f / %7.2f m/s²", f.Acceleration.Longitudinal, f.Acceleration.Lateral),
		fmt.Sprintf("grip      %5.0f%%   loc %.2f", 100*f.Traction.FrictionSaturation, f.LossOfControl),
		fmt.Sprintf("distance  %8.1f m   energy %9.0f", f.Totals.Distance, f.Totals.Energy),
		fmt.Sprintf("safety    %s  latched=%v", stage, f.Safety.Latched),
	}
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n\n")

	if len(p.history) > 1 {
		b.WriteString(dim.Render("speed [m/s]\n"))
		b.WriteString(asciigraph.Plot(p.history, asciigraph.Height(8), asciigraph.Width(60)))
		b.WriteString("\n")
	}

	if p.paused {
		b.WriteString(yellow.Render("\n⏸ paused\n"))
	}
	b.WriteString(dim.Render("\nw/s throttle·brake  a/d steer  m model  v vehicle  g drift  space pause  r reset  q quit\n"))
	return b.String()
}

// Run starts the playground program.
func Run(bundle *params.Bundle, kind models.Kind, vehicleID int, drift bool) error {
	_, err := tea.NewProgram(NewPlayground(bundle, kind, vehicleID, drift), tea.WithAltScreen()).Run()
	return err
}
