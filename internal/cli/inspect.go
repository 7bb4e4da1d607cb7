package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/ncattr/hdf5"
	"github.com/robert-malhotra/ncattr/internal/cdf"
	"github.com/robert-malhotra/ncattr/internal/ncfile"
)

func (a *app) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Describe the header structure of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := hdf5.Open(args[0])
			if errors.Is(err, hdf5.ErrNotHDF5) {
				return inspectClassic(cmd.OutOrStdout(), args[0])
			}
			if err != nil {
				return ncfile.Classify(err)
			}
			defer f.Close()
			info := f.Info()

			w := cmd.OutOrStdout()
			storage := "compact"
			if info.DenseAttributes {
				storage = fmt.Sprintf("dense, %d attribute(s), moved into the header on the next edit", info.DenseCount)
			}
			fmt.Fprintf(w, "File:              %s\n", f.Path())
			fmt.Fprintf(w, "Superblock:        version %d, offsets %d bytes, lengths %d bytes\n",
				info.SuperblockVersion, info.OffsetSize, info.LengthSize)
			fmt.Fprintf(w, "End of file:       %#x\n", info.EOF)
			fmt.Fprintf(w, "Root header:       version %d at %#x, %d chunk(s)\n",
				info.HeaderVersion, info.RootAddress, info.HeaderChunks)
			fmt.Fprintf(w, "Creation order:    %t\n", info.CreationOrder)
			fmt.Fprintf(w, "Attribute storage: %s\n\n", storage)

			tw := table.NewWriter()
			tw.SetOutputMirror(w)
			tw.AppendHeader(table.Row{"#", "MESSAGE", "SIZE", "FLAGS", "ORDER", "NOTE"})
			for i, m := range info.Messages {
				note := ""
				if m.Err != nil {
					note = m.Err.Error()
				}
				tw.AppendRow(table.Row{i, m.Type, m.Size, fmt.Sprintf("%#04x", m.Flags), m.CreationOrder, note})
			}
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		},
	}
}

// inspectClassic describes the header of a classic netCDF file.
func inspectClassic(w io.Writer, path string) error {
	f, err := cdf.Open(path)
	if err != nil {
		return ncfile.Classify(err)
	}
	defer f.Close()
	h := f.Header()

	fmt.Fprintf(w, "File:              %s\n", f.Path())
	fmt.Fprintf(w, "Format:            %s\n", h.Version)
	fmt.Fprintf(w, "Records:           %d\n", h.NumRecs)
	fmt.Fprintf(w, "Global attributes: %d\n\n", len(h.Attrs))

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"VARIABLE", "TYPE", "DIMENSIONS", "ATTRS", "BEGIN", "VSIZE"})
	for _, v := range h.Vars {
		var dims []string
		for _, id := range v.DimIDs {
			if id < uint64(len(h.Dims)) {
				dims = append(dims, h.Dims[id].Name)
			}
		}
		tw.AppendRow(table.Row{v.Name, v.Type, strings.Join(dims, ", "), len(v.Attrs), v.Begin, v.VSize})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
	return nil
}
