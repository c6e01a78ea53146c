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
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

const (
	// can't get terminal dimensions on startup, so use this
	initialDimensionVal = 30

	// view states
	tableState   = "table"
	verboseState = "verbose"
	sortingState = "sorting"
)

// controlsStyle is used to style the controls string of every view
var controlsStyle = lipgloss.NewStyle().Faint(true)

// BubbleTeaModel is used to hold the state of the bubble tea TUI
type BubbleTeaModel struct {
	// holds the output currentState of the model
	currentState string

	// the model for the table view
	tableModel tableModel

	// the model for the verbose view
	verboseModel verboseModel

	// the model for the sorting view
	sortingModel sortingModel
}

// NewBubbleTeaModel initializes a new bubble tea Model which represents
// a stylized table to display candidates
func NewBubbleTeaModel(candidates []selector.Candidate) BubbleTeaModel {
	return BubbleTeaModel{
		currentState: tableState,
		tableModel:   *initTableModel(candidates),
		verboseModel: *initVerboseModel(),
		sortingModel: *initSortingModel(candidates),
	}
}

// Init is used by bubble tea to initialize a bubble tea table
func (m BubbleTeaModel) Init() tea.Cmd {
	return nil
}

// Update is used by bubble tea to update the state of the bubble
// tea model based on user input
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// don't listen for input if currently typing into text field
		if m.tableModel.filterTextInput.Focused() || m.sortingModel.sortTextInput.Focused() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.currentState == tableState {
				return m, tea.Quit
			}
			m.currentState = tableState
			return m, nil
		case "e":
			// switch between table and verbose views
			switch m.currentState {
			case tableState:
				candidate, ok := m.tableModel.highlightedCandidate()
				if !ok {
					return m, nil
				}
				m.currentState = verboseState
				m.verboseModel = m.verboseModel.focusOn(candidate)
			case verboseState:
				m.currentState = tableState
			}
			return m, nil
		case "s":
			if m.currentState == tableState {
				m.currentState = sortingState
				return m, nil
			}
		}
	case tea.WindowSizeMsg:
		// resize every view so switching keeps the layout
		m.tableModel = m.tableModel.resizeView(msg)
		m.verboseModel = m.verboseModel.resizeView(msg)
		m.sortingModel = m.sortingModel.resizeView(msg)
	case sortSelectedMsg:
		m.tableModel = m.tableModel.withCandidates(msg.candidates)
		m.currentState = tableState
		return m, nil
	case sortCancelledMsg:
		m.currentState = tableState
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentState {
	case tableState:
		m.tableModel, cmd = m.tableModel.update(msg)
	case verboseState:
		m.verboseModel, cmd = m.verboseModel.update(msg)
	case sortingState:
		m.sortingModel, cmd = m.sortingModel.update(msg)
	}
	return m, cmd
}

// View is used by bubble tea to render the bubble tea model
func (m BubbleTeaModel) View() string {
	outputStr := strings.Builder{}

	switch m.currentState {
	case tableState:
		outputStr.WriteString(m.tableModel.view())
	case verboseState:
		outputStr.WriteString(m.verboseModel.view())
	case sortingState:
		outputStr.WriteString(m.sortingModel.view())
	}

	return outputStr.String()
}
