// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package outputs

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

const (
	// rows lost to the header, footer and borders
	tableChromeHeight = 8
	headerPadding     = 2

	tableControls = "Controls: ↑/↓ - up/down • ←/→ - left/right • shift + ←/→ - pg up/down • e - expand • f - filter • s - sort • q - quit"
	ellipses      = "..."

	// row data key holding the candidate, no column displays it
	candidateKey = "candidate"

	rankColumn = "Rank"
)

// matchColumn is one column of the interactive table
type matchColumn struct {
	title string
	value func(rank int, c selector.Candidate) interface{}
}

// matchColumns are the interactive table columns, the first one stays frozen while scrolling
var matchColumns = []matchColumn{
	{"Instance Type", func(_ int, c selector.Candidate) interface{} { return c.Record.InstanceType }},
	{rankColumn, func(rank int, _ selector.Candidate) interface{} { return rank }},
	{"VCPUs", func(_ int, c selector.Candidate) interface{} { return c.Record.VCpus }},
	{"Mem (GiB)", func(_ int, c selector.Candidate) interface{} { return formatFloat(float64(c.Record.MemoryMiB) / 1024.0) }},
	{"GPUs", func(_ int, c selector.Candidate) interface{} { return c.Record.GpuCount }},
	{"Slack (vCPU/MiB/GPU)", func(_ int, c selector.Candidate) interface{} { return formatSlack(c.Slack) }},
	{"Storage Mismatch", func(_ int, c selector.Candidate) interface{} { return c.StorageMismatch }},
	{"Regions", func(_ int, c selector.Candidate) interface{} { return strings.Join(c.Regions, ", ") }},
	{"On-Demand Price/Hr", func(_ int, c selector.Candidate) interface{} { return formatPrice(c.Record.OndemandPricePerHour) }},
	{"CPU Arch", func(_ int, c selector.Candidate) interface{} { return string(c.Record.Architecture) }},
	{"Hypervisor", func(_ int, c selector.Candidate) interface{} { return hypervisorDisplay(c.Record) }},
}

// mismatchStyle dims candidates whose instance storage support differs from the current type
var mismatchStyle = lipgloss.NewStyle().Faint(true)

type tableModel struct {
	table table.Model

	// ranks from the matcher, kept when the rows are re-sorted for display
	ranks map[string]int

	tableWidth  int
	tableHeight int

	filterTextInput textinput.Model
}

// initTableModel builds the table for candidates in matcher rank order
func initTableModel(candidates []selector.Candidate) *tableModel {
	ranks := make(map[string]int, len(candidates))
	for i, c := range candidates {
		ranks[c.Record.InstanceType] = i + 1
	}
	filterTextInput := textinput.New()
	filterTextInput.Prompt = "Filter: "
	filterTextInput.PromptStyle = lipgloss.NewStyle().Bold(true)

	return &tableModel{
		table:           newMatchTable(candidates, ranks),
		ranks:           ranks,
		tableWidth:      initialDimensionVal,
		tableHeight:     initialDimensionVal,
		filterTextInput: filterTextInput,
	}
}

// withCandidates replaces the rows, keeping ranks, dimensions and the filter
func (m tableModel) withCandidates(candidates []selector.Candidate) tableModel {
	m.table = newMatchTable(candidates, m.ranks).WithFilterInput(m.filterTextInput)
	return m.resizeView(tea.WindowSizeMsg{Width: m.tableWidth, Height: m.tableHeight}).updateFooter()
}

// highlightedCandidate returns the candidate in the highlighted row
func (m tableModel) highlightedCandidate() (selector.Candidate, bool) {
	if len(m.table.GetVisibleRows()) == 0 {
		return selector.Candidate{}, false
	}
	candidate, ok := m.table.HighlightedRow().Data[candidateKey].(selector.Candidate)
	return candidate, ok
}

func newMatchTable(candidates []selector.Candidate, ranks map[string]int) table.Model {
	widths := make([]int, len(matchColumns))
	for i, col := range matchColumns {
		widths[i] = len(col.title) + headerPadding
	}
	rows := make([]table.Row, 0, len(candidates))
	for _, c := range candidates {
		data := table.RowData{candidateKey: c}
		for i, col := range matchColumns {
			value := col.value(ranks[c.Record.InstanceType], c)
			data[col.title] = value
			widths[i] = max(widths[i], len(fmt.Sprint(value)))
		}
		row := table.NewRow(data)
		if c.StorageMismatch {
			row = row.WithStyle(mismatchStyle)
		}
		rows = append(rows, row)
	}
	columns := make([]table.Column, 0, len(matchColumns))
	for i, col := range matchColumns {
		columns = append(columns, table.NewColumn(col.title, col.title, widths[i]).WithFiltered(true))
	}

	bind := func(keys ...string) key.Binding { return key.NewBinding(key.WithKeys(keys...)) }
	return table.New(columns).
		WithRows(rows).
		WithKeyMap(table.KeyMap{
			RowDown:     bind("down"),
			RowUp:       bind("up"),
			ScrollLeft:  bind("left"),
			ScrollRight: bind("right"),
			PageDown:    bind("shift+right"),
			PageUp:      bind("shift+left"),
		}).
		WithPageSize(initialDimensionVal).
		WithMaxTotalWidth(initialDimensionVal).
		WithHorizontalFreezeColumnCount(1).
		WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left)).
		HeaderStyle(lipgloss.NewStyle().Align(lipgloss.Center).Bold(true)).
		BorderRounded().
		Focused(true).
		Filtered(true)
}

// resizeView fits the table to the window
func (m tableModel) resizeView(msg tea.WindowSizeMsg) tableModel {
	m.tableWidth = msg.Width
	m.tableHeight = msg.Height
	m.table = m.table.WithMaxTotalWidth(msg.Width).WithPageSize(max(msg.Height-tableChromeHeight, 0))
	return m
}

// updateFooter shows the page and as much of the controls as fits on one line
func (m tableModel) updateFooter() tableModel {
	pageStr := fmt.Sprintf("Page: %d/%d | ", m.table.CurrentPage(), m.table.MaxPages())
	controls := tableControls
	if room := m.tableWidth - len(pageStr) - len(ellipses) - 2; len(pageStr)+len(controls) > m.tableWidth {
		controls = controls[:min(max(room, 0), len(controls))] + ellipses
	}
	m.table = m.table.WithStaticFooter(pageStr + controlsStyle.Render(controls))
	return m
}

func (m tableModel) update(msg tea.Msg) (tableModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.filterTextInput.Focused() {
			var cmd tea.Cmd
			switch msg.String() {
			case "enter", "esc":
				m.filterTextInput.Blur()
				m = m.updateFooter()
			default:
				m.filterTextInput, cmd = m.filterTextInput.Update(msg)
			}
			m.table = m.table.WithFilterInput(m.filterTextInput)
			return m, cmd
		}
		if msg.String() == "f" {
			m.filterTextInput.Focus()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m.updateFooter(), cmd
}

func (m tableModel) view() string {
	out := m.table.View() + "\n"
	if m.filterTextInput.Value() != "" || m.filterTextInput.Focused() {
		out += m.filterTextInput.View() + "\n"
	}
	return out
}
