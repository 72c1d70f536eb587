package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/armsim/pkg/arm"
	"github.com/gwillem/armsim/pkg/control"
	"github.com/gwillem/armsim/pkg/program"
)

const cellWidth = 9

// Object colors
var objectColors = map[arm.Object]string{
	arm.Red:     "9",
	arm.Green:   "10",
	arm.Brown:   "130",
	arm.Magenta: "13",
}

var (
	railStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	armStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	floorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func objectStyle(o arm.Object) lipgloss.Style {
	color, ok := objectColors[o]
	if !ok {
		color = "15"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func center(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}

// renderWorkspace draws the rail, the gripper at its depth and the bins.
func renderWorkspace(s control.Snapshot, g arm.Geometry) string {
	bins := len(s.Bar)
	armIndex := g.BinIndex(s.Arm.X)
	levels := g.MaxCaptureLen / g.CaptureStep
	depth := s.Arm.CaptureDelta / g.CaptureStep

	var sb strings.Builder

	// Rail with the carriage
	for i := 0; i < bins; i++ {
		if i == armIndex {
			sb.WriteString(armStyle.Render(center("[=====]", cellWidth)))
		} else {
			sb.WriteString(railStyle.Render(strings.Repeat("═", cellWidth)))
		}
	}
	sb.WriteString("\n")

	// Gripper shaft and claw, one row per depth step
	for level := 0; level <= levels; level++ {
		for i := 0; i < bins; i++ {
			cell := ""
			if i == armIndex {
				switch {
				case level < depth:
					cell = armStyle.Render("│")
				case level == depth:
					cell = renderClaw(s)
				}
			}
			sb.WriteString(center(cell, cellWidth))
		}
		sb.WriteString("\n")
	}

	// Bins, topmost object first
	height := 0
	for _, bin := range s.Bar {
		height = max(height, len(bin))
	}
	for row := height - 1; row >= 0; row-- {
		for _, bin := range s.Bar {
			cell := ""
			if row < len(bin) {
				cell = objectStyle(bin[row]).Render("●")
			}
			sb.WriteString(center(cell, cellWidth))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(floorStyle.Render(strings.Repeat("▔", bins*cellWidth)))
	sb.WriteString("\n")
	for i := 0; i < bins; i++ {
		sb.WriteString(floorStyle.Render(center(fmt.Sprintf("%d", i), cellWidth)))
	}

	return sb.String()
}

func renderClaw(s control.Snapshot) string {
	claw := "╰ ╯"
	if s.Arm.CaptureOn {
		claw = "╰─╯"
	}
	if s.Holding {
		claw = "╰" + objectStyle(s.Held).Render("●") + "╯"
	}
	return armStyle.Render(claw)
}

// renderSteps lists the program steps with counts, marking the current one.
// Trailing no-op padding is folded away.
func renderSteps(steps []program.Step, current int) string {
	last := len(steps) - 1
	for last > current && steps[last].Action == program.None {
		last--
	}

	var lines []string
	for i := 0; i <= last; i++ {
		step := steps[i]
		line := fmt.Sprintf("%2d %-9s ×%d", i+1, program.Label(step.Action), step.Value)
		switch {
		case i == current:
			line = currentStyle.Render("▶" + line)
		case step.Value == 0:
			line = doneStyle.Render(" " + line)
		default:
			line = " " + line
		}
		lines = append(lines, line)
	}
	if last < len(steps)-1 {
		lines = append(lines, doneStyle.Render(fmt.Sprintf("   … %d empty steps", len(steps)-1-last)))
	}
	return strings.Join(lines, "\n")
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable draws a rounded table. cell may override the style of body
// cells; nil uses the plain cell style.
func renderTable(headers []string, rows [][]string, cell func(row, col int) lipgloss.Style) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if cell != nil {
				return cell(row, col)
			}
			return tableCellStyle
		}).
		Render()
}

// renderBins renders the bin contents as a table, used by headless runs.
func renderBins(s control.Snapshot) string {
	rows := make([][]string, 0, len(s.Bar))
	for i, bin := range s.Bar {
		var objs []string
		for _, o := range bin {
			objs = append(objs, objectStyle(o).Render(string(o)))
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i), strings.Join(objs, ", ")})
	}
	return renderTable([]string{"Bin", "Objects"}, rows, nil)
}
