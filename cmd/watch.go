// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/ble"
	"github.com/strapline/strapline/pkg/sensordata"
	"github.com/strapline/strapline/pkg/whoopproto"
)

var (
	watchIMU     bool
	watchShowAll bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live terminal dashboard for strap vitals",
	Long: `Connect to the strap and watch vitals update in place: heart rate,
beat-to-beat intervals, wear state, skin temperature and SpO2 when the
strap sends them, plus link statistics and an event log.

With --imu the accelerometer stream is enabled and wrist movement shows
up alongside the vitals. 'q' quits.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchIMU, "imu", false, "Also enable the accelerometer stream")
	watchCmd.Flags().BoolVar(&watchShowAll, "show-all", false, "Log every frame, not just errors and state changes")
}

// Event log entry
type watchEvent struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Latest vitals extracted from the stream
type watchVitals struct {
	bpm        int
	preciseBPM float64
	rr         []int
	wearing    bool
	hasHR      bool
	lastHR     time.Time

	tempC   float64
	hasTemp bool

	spo2    float64
	hasSpO2 bool

	accelMag     float64
	accelSamples int
	hasAccel     bool
}

type watchModel struct {
	stats     *whoopproto.Statistics
	vitals    watchVitals
	events    []watchEvent
	maxEvents int
	spin      spinner.Model
	gotFrame  bool
	width     int
	height    int
	quitting  bool
}

// Messages
type watchTickMsg time.Time
type watchPacketMsg struct {
	packet  *whoopproto.Packet
	records []sensordata.Record
}
type watchErrMsg struct{ err error }

func newWatchModel() watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return watchModel{
		stats:     whoopproto.NewStatistics(),
		events:    make([]watchEvent, 0),
		maxEvents: 100,
		spin:      sp,
		width:     80,
		height:    24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(watchTickCmd(), m.spin.Tick, tea.EnterAltScreen)
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case watchTickMsg:
		m.stats.CalculateRates()
		return m, watchTickCmd()

	case spinner.TickMsg:
		if !m.gotFrame {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}

	case watchErrMsg:
		m.addEvent(fmt.Sprintf("ERROR: %v", msg.err), true)

	case watchPacketMsg:
		m.gotFrame = true
		m.stats.Update(msg.packet)
		m.absorb(msg)
	}

	return m, nil
}

func (m *watchModel) addEvent(message string, isError bool) {
	m.events = append(m.events, watchEvent{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.events) > m.maxEvents {
		m.events = m.events[len(m.events)-m.maxEvents:]
	}
}

// absorb folds a decoded packet into the vitals panel.
func (m *watchModel) absorb(msg watchPacketMsg) {
	if watchShowAll {
		m.addEvent(fmt.Sprintf("%s seq=%d %d bytes",
			whoopproto.FormatPacketType(msg.packet.Type()), msg.packet.Seq(), len(msg.packet.Payload())), false)
	}

	for _, rec := range msg.records {
		switch r := rec.(type) {
		case sensordata.HeartRateData:
			hadHR := m.vitals.hasHR
			wasWearing := m.vitals.wearing
			m.vitals.bpm = r.BPM
			m.vitals.preciseBPM = r.PreciseBPM
			if len(r.RRIntervals) > 0 {
				m.vitals.rr = r.RRIntervals
			}
			m.vitals.wearing = r.Wearing
			m.vitals.hasHR = true
			m.vitals.lastHR = time.Now()
			if hadHR && wasWearing != r.Wearing {
				if r.Wearing {
					m.addEvent("Strap back on wrist", false)
				} else {
					m.addEvent("Strap off wrist", true)
				}
			}

		case sensordata.TemperatureData:
			m.vitals.tempC = r.Celsius
			m.vitals.hasTemp = true

		case sensordata.SpO2Data:
			m.vitals.spo2 = r.Percentage
			m.vitals.hasSpO2 = true

		case sensordata.AccelBatch:
			if len(r.Samples) > 0 {
				m.vitals.accelMag = r.Samples[len(r.Samples)-1].Magnitude()
				m.vitals.accelSamples += len(r.Samples)
				m.vitals.hasAccel = true
			}

		case sensordata.EventRecord:
			m.addEvent(fmt.Sprintf("Device event 0x%02X", r.EventID), false)

		case sensordata.UnknownRecord:
			m.addEvent(fmt.Sprintf("Unknown record subtype 0x%02X (%d bytes)", r.Subtype, len(r.Raw)), false)
		}
	}
}

func (m watchModel) View() string {
	if m.quitting {
		return "Disconnecting...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("STRAPLINE - LIVE VITALS"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("Press 'q' to quit"))
	s.WriteString("\n\n")

	if !m.gotFrame {
		s.WriteString(warningStyle.Render(m.spin.View() + " Waiting for the first frame..."))
		s.WriteString("\n\n")
	}

	// Vitals
	vitals := strings.Builder{}
	if m.vitals.hasHR {
		wear := valueStyle.Render("on wrist")
		if !m.vitals.wearing {
			wear = errorStyle.Render("off wrist")
		}
		vitals.WriteString(fmt.Sprintf("%s %s   %s\n",
			labelStyle.Render("Heart rate:"),
			valueStyle.Render(fmt.Sprintf("%d bpm (%.2f)", m.vitals.bpm, m.vitals.preciseBPM)),
			wear,
		))
		if len(m.vitals.rr) > 0 {
			vitals.WriteString(fmt.Sprintf("%s %s\n",
				labelStyle.Render("RR:"),
				valueStyle.Render(fmt.Sprintf("%v ms", m.vitals.rr)),
			))
		}
		vitals.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Last beat:"),
			headerStyle.Render(m.vitals.lastHR.Format("15:04:05")),
		))
	} else {
		vitals.WriteString(headerStyle.Render("(no heart-rate data yet)"))
		vitals.WriteString("\n")
	}
	if m.vitals.hasTemp {
		vitals.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Skin temp:"),
			valueStyle.Render(fmt.Sprintf("%.2f C", m.vitals.tempC)),
		))
	}
	if m.vitals.hasSpO2 {
		vitals.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("SpO2:"),
			valueStyle.Render(fmt.Sprintf("%.1f%%", m.vitals.spo2)),
		))
	}
	if m.vitals.hasAccel {
		vitals.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Motion:"),
			valueStyle.Render(fmt.Sprintf("|%.2f|g (%d samples)", m.vitals.accelMag, m.vitals.accelSamples)),
		))
	}
	s.WriteString(boxStyle.Render(strings.TrimRight(vitals.String(), "\n")))
	s.WriteString("\n\n")

	// Link statistics
	statsContent := strings.Builder{}
	var validPercent float64
	if m.stats.TotalPackets > 0 {
		validPercent = float64(m.stats.ValidPackets) * 100.0 / float64(m.stats.TotalPackets)
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalPackets)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidPackets, validPercent)),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f pkts/s", m.stats.PacketRate)),
	))
	if m.stats.HeaderErrors > 0 || m.stats.TrailerErrors > 0 || m.stats.Incomplete > 0 {
		statsContent.WriteString(fmt.Sprintf("\n%s %s   %s %s   %s %s",
			labelStyle.Render("Hdr CRC:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.HeaderErrors)),
			labelStyle.Render("Trl CRC:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.TrailerErrors)),
			labelStyle.Render("Truncated:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.Incomplete)),
		))
	}
	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 18
	if logHeight < 5 {
		logHeight = 5
	}
	startIdx := len(m.events) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.events) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.events); i++ {
			entry := m.events[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("x "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					valueStyle.Render("- "+entry.message),
				))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(strings.TrimRight(logContent.String(), "\n")))

	return s.String()
}

func runWatch(cmd *cobra.Command, args []string) error {
	adapter, err := ble.EnableAdapter()
	if err != nil {
		return err
	}
	findCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	client, err := ble.Connect(findCtx, adapter, deviceAddress)
	if err != nil {
		return err
	}
	defer client.Close()

	p := tea.NewProgram(newWatchModel())

	var asm ble.Assembler
	err = client.Subscribe(func(n ble.Notification) {
		for _, pkt := range asm.Feed(n.Data) {
			msg := watchPacketMsg{packet: pkt}
			if pkt.Valid() {
				msg.records = sensordata.DecodePacket(pkt)
			}
			p.Send(msg)
		}
	})
	if err != nil {
		return err
	}

	if _, err := client.Send(whoopproto.CmdToggleRealtimeHR, []byte{0x01}); err != nil {
		return err
	}
	defer client.Send(whoopproto.CmdToggleRealtimeHR, []byte{0x00})
	if watchIMU {
		if _, err := client.Send(whoopproto.CmdToggleIMUMode, []byte{0x01}); err != nil {
			return err
		}
		defer client.Send(whoopproto.CmdToggleIMUMode, []byte{0x00})
	}

	_, err = p.Run()
	return err
}
