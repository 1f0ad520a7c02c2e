package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/resourcegraph/internal/cli/ui"
	"github.com/conduit-lang/resourcegraph/internal/graph"
)

type inspectOptions struct {
	format string
}

func newInspectCommand(a *app) *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [resource]",
		Short: "Show the resources in the graph",
		Long: `Build the resource graph and print it.

Without arguments every resource is listed. Given a resource name, its
attributes and relationships are shown in detail.`,
		Example: `  resourcegraph inspect
  resourcegraph inspect people
  resourcegraph inspect people --format json`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, a, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format (table|json)")

	return cmd
}

func runInspect(cmd *cobra.Command, a *app, opts *inspectOptions, args []string) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unsupported format %q (expected table or json)", opts.format)
	}

	g, err := loadGraph(cmd.Context(), a.cfg, a.logger)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.GraphBuildError(err, a.noColor))
		return err
	}

	out := cmd.OutOrStdout()

	if len(args) == 0 {
		if opts.format == "json" {
			summaries := make([]resourceJSON, 0, g.Len())
			for _, res := range g.Resources() {
				summaries = append(summaries, toJSON(g, res))
			}
			return writeJSON(out, summaries)
		}
		renderResourceList(out, g, a.noColor)
		return nil
	}

	res, err := g.ResourceByName(args[0])
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			names := make([]string, 0, g.Len())
			for _, r := range g.Resources() {
				names = append(names, r.PublicName())
			}
			fmt.Fprint(cmd.ErrOrStderr(), ui.ResourceNotFoundError(args[0], ui.FindSimilar(args[0], names), a.noColor))
		}
		return err
	}

	if opts.format == "json" {
		return writeJSON(out, toJSON(g, res))
	}
	renderResource(out, g, res, a.noColor)
	return nil
}

func renderResourceList(w io.Writer, g *graph.Graph, noColor bool) {
	ui.Header(w, fmt.Sprintf("Resources (%d)", g.Len()), noColor)

	table := ui.NewTable(w, []string{"NAME", "TYPE", "ID", "SOURCE", "ATTRIBUTES", "RELATIONSHIPS"}, noColor)
	for _, res := range g.Resources() {
		table.AddRow(
			res.PublicName(),
			string(res.Type()),
			res.IDType().String(),
			res.Source(),
			strconv.Itoa(len(res.Attributes())),
			strconv.Itoa(len(res.Relationships())),
		)
	}
	table.Render()
}

func renderResource(w io.Writer, g *graph.Graph, res *graph.ResourceDescriptor, noColor bool) {
	ui.Header(w, res.PublicName(), noColor)

	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("Type", string(res.Type()))
	kv.AddRow("ID", res.IDType().String())
	kv.AddRow("Source", res.Source())
	kv.Render()

	if attrs := res.Attributes(); len(attrs) > 0 {
		fmt.Fprintln(w)
		table := ui.NewTable(w, []string{"ATTRIBUTE", "MEMBER", "FLAGS"}, noColor)
		for _, attr := range attrs {
			table.AddRow(attr.PublicName, attr.Member, attributeFlags(attr))
		}
		table.Render()
	}

	if rels := res.Relationships(); len(rels) > 0 {
		fmt.Fprintln(w)
		table := ui.NewTable(w, []string{"RELATIONSHIP", "CARDINALITY", "TARGET", "FOREIGN KEY", "INVERSE"}, noColor)
		for _, rel := range rels {
			inverse := "-"
			if inv, ok := g.Inverse(res.PublicName(), rel.PublicName); ok {
				inverse = inv.PublicName
			}
			fk := "-"
			if rel.Dependent {
				fk = rel.ForeignKey
			}
			table.AddRow(rel.PublicName, rel.Cardinality.String(), rel.Target, fk, inverse)
		}
		table.Render()
	}
}

func attributeFlags(attr graph.AttributeDescriptor) string {
	var flags []string
	if attr.Immutable {
		flags = append(flags, "immutable")
	}
	if attr.Filterable {
		flags = append(flags, "filter")
	}
	if attr.Sortable {
		flags = append(flags, "sort")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

type resourceJSON struct {
	Name          string             `json:"name"`
	Type          string             `json:"type"`
	IDType        string             `json:"id_type"`
	Source        string             `json:"source"`
	Attributes    []attributeJSON    `json:"attributes"`
	Relationships []relationshipJSON `json:"relationships"`
}

type attributeJSON struct {
	Name       string `json:"name"`
	Member     string `json:"member"`
	Immutable  bool   `json:"immutable"`
	Filterable bool   `json:"filterable"`
	Sortable   bool   `json:"sortable"`
}

type relationshipJSON struct {
	Name        string `json:"name"`
	Member      string `json:"member"`
	Cardinality string `json:"cardinality"`
	Target      string `json:"target"`
	ForeignKey  string `json:"foreign_key,omitempty"`
	Inverse     string `json:"inverse,omitempty"`
}

func toJSON(g *graph.Graph, res *graph.ResourceDescriptor) resourceJSON {
	out := resourceJSON{
		Name:          res.PublicName(),
		Type:          string(res.Type()),
		IDType:        res.IDType().String(),
		Source:        res.Source(),
		Attributes:    []attributeJSON{},
		Relationships: []relationshipJSON{},
	}
	for _, attr := range res.Attributes() {
		out.Attributes = append(out.Attributes, attributeJSON{
			Name:       attr.PublicName,
			Member:     attr.Member,
			Immutable:  attr.Immutable,
			Filterable: attr.Filterable,
			Sortable:   attr.Sortable,
		})
	}
	for _, rel := range res.Relationships() {
		rj := relationshipJSON{
			Name:        rel.PublicName,
			Member:      rel.Member,
			Cardinality: rel.Cardinality.String(),
			Target:      rel.Target,
		}
		if rel.Dependent {
			rj.ForeignKey = rel.ForeignKey
		}
		if inv, ok := g.Inverse(res.PublicName(), rel.PublicName); ok {
			rj.Inverse = inv.PublicName
		}
		out.Relationships = append(out.Relationships, rj)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
