package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/ncattr/internal/session"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
	outputPlain = "plain"
)

func (a *app) listCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list FILE",
		Short: "Print the global attributes of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := session.ReadSnapshot(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch output {
			case outputTable:
				return writeTable(w, snap)
			case outputYAML:
				return writeYAML(w, snap)
			case outputPlain:
				_, err := io.WriteString(w, strings.TrimRight(snap.Render(), "\n")+"\n")
				return err
			default:
				return fmt.Errorf("invalid --output %q (use table, yaml or plain)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, yaml or plain")
	return cmd
}

func writeTable(w io.Writer, snap *session.Snapshot) error {
	if snap.Len() == 0 {
		_, err := fmt.Fprintln(w, session.EmptyMessage)
		return err
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"NAME", "TYPE", "VALUE"})
	for _, attr := range snap.Attributes() {
		tw.AppendRow(table.Row{attr.Name, attr.Value.Type(), attr.Value.String()})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, WidthMax: 80},
	})
	tw.SetStyle(table.StyleLight)
	tw.Render()
	return nil
}

// writeYAML writes the attributes as one mapping in file order. Values keep
// their kind: integers and floats are numbers, text is a string.
func writeYAML(w io.Writer, snap *session.Snapshot) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, attr := range snap.Attributes() {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: attr.Name},
			yamlValue(attr.Value),
		)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func yamlValue(v session.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: v.String()}
	switch v.Kind {
	case session.Integer:
		n.Tag = "!!int"
	case session.Float:
		n.Tag = "!!float"
		switch {
		case math.IsNaN(v.Float):
			n.Value = ".nan"
		case math.IsInf(v.Float, 1):
			n.Value = ".inf"
		case math.IsInf(v.Float, -1):
			n.Value = "-.inf"
		}
	default:
		n.Tag = "!!str"
	}
	return n
}
