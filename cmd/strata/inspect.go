package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"strata/internal/driver"
	"strata/internal/object"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <file.toml | dir> <class>",
	Short: "Render a linked class's flattened member table",
	Args:  cobra.ExactArgs(2),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Bool("parents", false, "also list parent links and ancestors")
}

var (
	inspectTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	inspectHeader = lipgloss.NewStyle().Bold(true).Underline(true)
	inspectDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	inspectBad    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func runInspect(cmd *cobra.Command, args []string) error {
	path, className := args[0], args[1]
	showParents, err := cmd.Flags().GetBool("parents")
	if err != nil {
		return fmt.Errorf("failed to get parents flag: %w", err)
	}

	res, err := driver.Load(cmd.Context(), path, driver.Options{})
	if err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		for _, d := range res.Bag.Items() {
			fmt.Fprintln(os.Stderr, renderDiagnostic(d))
		}
		os.Exit(1)
	}
	desc, ok := res.Registry.Lookup(className)
	if !ok {
		return fmt.Errorf("class %q is not defined in %s", className, path)
	}

	title := desc.Name
	if desc.Interface {
		title = "interface " + title
	} else {
		title = "class " + title
	}
	if desc.HasAbstract {
		title += inspectBad.Render(" (abstract)")
	}
	fmt.Println(inspectTitle.Render(title))

	renderMemberTable(desc)
	if showParents {
		renderHierarchy(desc)
	}
	return nil
}

func renderMemberTable(desc *object.ClassDescriptor) {
	fmt.Printf("\n%s\n", inspectHeader.Render(fmt.Sprintf("%-24s %-32s %-20s %s", "MEMBER", "MODIFIERS", "OWNER", "VALUE")))
	for _, name := range desc.MemberNames() {
		meta := desc.Meta[name]
		value := "-"
		if cell := desc.Statics[name]; cell != nil {
			value = previewValue(cell.Value)
		} else if v, ok := desc.Values[name]; ok {
			value = previewValue(v)
		}
		fmt.Printf("%-24s %-32s %-20s %s\n",
			runewidth.Truncate(name, 24, "…"),
			runewidth.Truncate(meta.Mods.String(), 32, "…"),
			runewidth.Truncate(ownerLabel(desc, meta), 20, "…"),
			value)
	}
}

func renderHierarchy(desc *object.ClassDescriptor) {
	fmt.Printf("\n%s\n", inspectHeader.Render("PARENTS"))
	for _, link := range desc.ParentLinks {
		fmt.Printf("  %s %s\n", link.Class.Name, inspectDim.Render("as "+strings.Join(link.Aliases, ", ")))
	}
	if len(desc.Ancestors) > 0 {
		names := make([]string, 0, len(desc.Ancestors))
		for anc := range desc.Ancestors {
			names = append(names, anc.Name)
		}
		sort.Strings(names)
		fmt.Printf("\n%s\n  %s\n", inspectHeader.Render("ANCESTORS"), strings.Join(names, ", "))
	}
	if len(desc.Interfaces) > 0 {
		names := make([]string, 0, len(desc.Interfaces))
		for iface := range desc.Interfaces {
			names = append(names, iface.Name)
		}
		sort.Strings(names)
		fmt.Printf("\n%s\n  %s\n", inspectHeader.Render("IMPLEMENTS"), strings.Join(names, ", "))
	}
}

func ownerLabel(desc *object.ClassDescriptor, meta *object.MemberMeta) string {
	if meta.Owner == nil {
		return "-"
	}
	if meta.Owner == desc {
		return "(own)"
	}
	return meta.Owner.Name
}

func previewValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case object.Method:
		return inspectDim.Render("<method>")
	case *object.ClassDescriptor:
		return inspectDim.Render("<class " + v.Name + ">")
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return runewidth.Truncate(fmt.Sprintf("%v", v), 40, "…")
	}
}
