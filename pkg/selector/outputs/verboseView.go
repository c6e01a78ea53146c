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
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

const (
	// verbose view formatting
	outsideHeaderPadding = 3

	// controls
	verboseControls = "Controls: ↑/↓ - up/down • e/esc - return to table • q - quit"
)

// styling for viewport
var (
	titleStyle = func() lipgloss.Style {
		b := lipgloss.RoundedBorder()
		b.Right = "├"
		return lipgloss.NewStyle().BorderStyle(b).Padding(0, 1)
	}()

	infoStyle = func() lipgloss.Style {
		b := lipgloss.RoundedBorder()
		b.Left = "┤"
		return titleStyle.BorderStyle(b)
	}()
)

// verboseModel holds the state for the verbose view
type verboseModel struct {
	// model for verbose output viewport
	viewport viewport.Model

	// the name of the instance type being displayed
	focusedInstanceName string
}

// initVerboseModel initializes and returns a new verboseModel
func initVerboseModel() *verboseModel {
	viewportModel := viewport.New(initialDimensionVal, initialDimensionVal)
	viewportModel.MouseWheelEnabled = true

	return &verboseModel{
		viewport: viewportModel,
	}
}

// focusOn fills the viewport with the verbose output of the given candidate
func (m verboseModel) focusOn(candidate selector.Candidate) verboseModel {
	m.focusedInstanceName = candidate.Record.InstanceType
	content := VerboseInstanceTypeOutput([]selector.Candidate{candidate})
	if len(content) > 0 {
		m.viewport.SetContent(content[0])
	}
	// move viewport to top of printout
	m.viewport.SetYOffset(0)
	return m
}

// resizeView will change the dimensions of the verbose viewport in order to accommodate
// the new window dimensions represented by the given tea.WindowSizeMsg
func (m verboseModel) resizeView(msg tea.WindowSizeMsg) verboseModel {
	m.viewport.Width = msg.Width
	m.viewport.Height = int(math.Max(0, float64(msg.Height-2*outsideHeaderPadding-1)))
	return m
}

// update updates the state of the verboseModel
func (m verboseModel) update(msg tea.Msg) (verboseModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// view returns a string representing the verbose view
func (m verboseModel) view() string {
	outputStr := strings.Builder{}

	// format header for viewport
	instanceName := titleStyle.Render(m.focusedInstanceName)
	line := strings.Repeat("─", int(math.Max(0, float64(m.viewport.Width-lipgloss.Width(instanceName)))))
	outputStr.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, instanceName, line))
	outputStr.WriteString("\n")

	outputStr.WriteString(m.viewport.View())
	outputStr.WriteString("\n")

	// format footer for viewport
	pagePercentage := infoStyle.Render(fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100))
	line = strings.Repeat("─", int(math.Max(0, float64(m.viewport.Width-lipgloss.Width(pagePercentage)))))
	outputStr.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, line, pagePercentage))
	outputStr.WriteString("\n")

	outputStr.WriteString(controlsStyle.Render(verboseControls))

	return outputStr.String()
}
