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
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/sorter"
)

const (
	// formatting
	sortingTitlePadding  = 3
	sortingFooterPadding = 3

	// controls
	sortingListControls = "Controls: ↑/↓ - up/down • enter - select field • tab - toggle direction • esc - return to table • q - quit"
	sortingTextControls = "Controls: ↑/↓ - up/down • enter - sort by json path • esc - return to table"
)

// sortSelectedMsg carries the re-sorted candidates back to the table view
type sortSelectedMsg struct {
	candidates []selector.Candidate
}

// sortCancelledMsg returns to the table view without sorting
type sortCancelledMsg struct{}

// sortingModel holds the state for the sorting view
type sortingModel struct {
	// list which holds the available sorting shorthands
	shorthandList list.Model

	// text input for json paths
	sortTextInput textinput.Model

	// ascending unless toggled
	isDescending bool

	// last sorting error, shown under the text input
	err error

	candidates []selector.Candidate
}

// list format styles
var (
	listTitleStyle    = lipgloss.NewStyle().MarginLeft(2)
	listItemStyle     = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#faa"))
)

// implement Item interface for list
type item string

func (i item) FilterValue() string { return "" }
func (i item) Title() string       { return string(i) }
func (i item) Description() string { return "" }

// implement ItemDelegate for list
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(item)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, i)

	fn := listItemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// initSortingModel initializes and returns a new sortingModel for the given candidates
func initSortingModel(candidates []selector.Candidate) *sortingModel {
	shorthandList := list.New(*createListItems(), itemDelegate{}, initialDimensionVal, initialDimensionVal)
	shorthandList.Title = "Select sorting field:"
	shorthandList.Styles.Title = listTitleStyle
	shorthandList.SetFilteringEnabled(false)
	shorthandList.SetShowStatusBar(false)
	shorthandList.SetShowHelp(false)
	shorthandList.SetShowPagination(false)
	shorthandList.KeyMap = createListKeyMap()

	sortTextInput := textinput.New()
	sortTextInput.Prompt = "JSON Path: "
	sortTextInput.PromptStyle = lipgloss.NewStyle().Bold(true)

	return &sortingModel{
		shorthandList: shorthandList,
		sortTextInput: sortTextInput,
		candidates:    candidates,
	}
}

// createListKeyMap creates a KeyMap with the controls for the shorthand list
func createListKeyMap() list.KeyMap {
	return list.KeyMap{
		CursorDown: key.NewBinding(
			key.WithKeys("down"),
		),
		CursorUp: key.NewBinding(
			key.WithKeys("up"),
		),
	}
}

// createListItems creates a list item for each shorthand sorting field
func createListItems() *[]list.Item {
	items := []list.Item{}

	for _, flag := range sorter.Shorthands {
		items = append(items, item(flag))
	}

	return &items
}

// resizeView will change the dimensions of the sorting view
// in order to accommodate the new window dimensions represented by
// the given tea.WindowSizeMsg
func (m sortingModel) resizeView(msg tea.WindowSizeMsg) sortingModel {
	shorthandList := &m.shorthandList
	shorthandList.SetWidth(msg.Width)
	// ensure that text input is right below last option
	if msg.Height >= len(shorthandList.Items())+sortingTitlePadding+sortingFooterPadding {
		shorthandList.SetHeight(len(shorthandList.Items()) + sortingTitlePadding)
	} else if msg.Height-sortingFooterPadding > 0 {
		shorthandList.SetHeight(msg.Height - sortingFooterPadding)
	} else {
		shorthandList.SetHeight(1)
	}

	// ensure cursor of list is still hidden after resize
	if m.sortTextInput.Focused() {
		shorthandList.Select(len(m.shorthandList.Items()))
	}

	m.shorthandList = *shorthandList

	return m
}

// direction returns the sort direction understood by the sorter package
func (m sortingModel) direction() string {
	if m.isDescending {
		return "desc"
	}
	return "asc"
}

// sortCandidates sorts the candidates by the given field and returns a command which
// hands the result to the table view
func (m sortingModel) sortCandidates(sortField string) (sortingModel, tea.Cmd) {
	sorted, err := sorter.Sort(m.candidates, sortField, m.direction())
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	return m, func() tea.Msg { return sortSelectedMsg{candidates: sorted} }
}

// update updates the state of the sortingModel
func (m sortingModel) update(msg tea.Msg) (sortingModel, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "down":
			if m.shorthandList.Index() == len(m.shorthandList.Items())-1 {
				// focus text input and hide cursor in shorthand list
				m.shorthandList.Select(len(m.shorthandList.Items()))
				m.sortTextInput.Focus()
			}
		case "up":
			if m.sortTextInput.Focused() {
				// go back to list from text input
				m.shorthandList.Select(len(m.shorthandList.Items()) - 1)
				m.sortTextInput.Blur()
				return m, nil
			}
		case "tab":
			m.isDescending = !m.isDescending
			return m, nil
		case "esc":
			m.sortTextInput.Blur()
			return m, func() tea.Msg { return sortCancelledMsg{} }
		case "enter":
			if m.sortTextInput.Focused() {
				return m.sortCandidates(m.sortTextInput.Value())
			}
			if selected, ok := m.shorthandList.SelectedItem().(item); ok {
				return m.sortCandidates(string(selected))
			}
		}

		if m.sortTextInput.Focused() {
			m.sortTextInput, cmd = m.sortTextInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.sortTextInput.Focused() {
		m.shorthandList, cmd = m.shorthandList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// view returns a string representing the sorting view
func (m sortingModel) view() string {
	outputStr := strings.Builder{}

	outputStr.WriteString(m.shorthandList.View())
	outputStr.WriteString("\n")

	outputStr.WriteString(m.sortTextInput.View())
	outputStr.WriteString("\n")

	outputStr.WriteString(fmt.Sprintf("Direction: %s\n", m.direction()))
	if m.err != nil {
		outputStr.WriteString(errorStyle.Render(m.err.Error()))
		outputStr.WriteString("\n")
	}

	if m.sortTextInput.Focused() {
		outputStr.WriteString(controlsStyle.Render(sortingTextControls))
	} else {
		outputStr.WriteString(controlsStyle.Render(sortingListControls))
	}

	return outputStr.String()
}
