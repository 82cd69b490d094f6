package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/export"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mapctl",
		Short:        "Inspect, lay out and export mind map documents",
		SilenceUsage: true,
	}
	root.AddCommand(
		validateCmd(),
		layoutCmd(),
		exportCmd(),
		sampleCmd(),
	)
	return root
}

func readDocument(path string) (*document.Document, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	doc, fixes, err := document.Parse(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return doc, fixes, nil
}

// writeOutput writes to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(w)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeDocument(w io.Writer, path string, doc *document.Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	return writeOutput(w, path, func(out io.Writer) error {
		_, err := out.Write(append(data, '\n'))
		return err
	})
}

func validateCmd() *cobra.Command {
	var fix string

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a map document, optionally writing the repaired copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, fixes, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if err := doc.Graph.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d nodes, %d edges, %d drawings\n",
				doc.ID, doc.Graph.Len(), len(doc.Graph.Edges()), len(doc.Drawings))
			if fixes == 0 {
				fmt.Fprintln(out, "ok")
				return nil
			}
			fmt.Fprintf(out, "repaired %d problem(s)\n", fixes)
			if fix != "" {
				return writeDocument(out, fix, doc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fix, "fix", "", "Write the repaired document to this path")
	return cmd
}

func layoutCmd() *cobra.Command {
	var (
		kind   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout <file>",
		Short: "Re-run a layout over every node",
		Long:  fmt.Sprintf("Re-run a layout over every node. Kinds: %v", layout.Kinds()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := layout.ParseKind(kind)
			if err != nil {
				return err
			}
			doc, _, err := readDocument(args[0])
			if err != nil {
				return err
			}
			pos, err := layout.Apply(k, doc.Graph)
			if err != nil {
				return err
			}
			for id, p := range pos {
				if err := doc.Graph.Move(id, p); err != nil {
					return err
				}
			}
			doc.Settings.Layout = k
			return writeDocument(cmd.OutOrStdout(), output, doc)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(layout.KindMindmap), "Layout kind")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default stdout)")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		format string
		output string
		opts   export.PNGOptions
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a map as png, opml or csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == export.FormatPNG && (output == "" || output == "-") {
				return fmt.Errorf("png export needs --output")
			}
			doc, _, err := readDocument(args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
				return export.Write(w, f, doc, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatOPML), "png, opml or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default stdout)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 1, "PNG scale factor")
	cmd.Flags().Float64Var(&opts.Padding, "padding", export.DefaultPadding, "PNG padding in world units")
	cmd.Flags().StringVar(&opts.Background, "background", "", "PNG background colour (#rrggbb)")
	return cmd
}

func sampleCmd() *cobra.Command {
	var (
		id     string
		output string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write the onboarding sample map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = typeid.NewMapID()
			}
			return writeDocument(cmd.OutOrStdout(), output, document.NewSampleDocument(id))
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Map id (default: generated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default stdout)")
	return cmd
}
