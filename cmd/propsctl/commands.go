package main

import (
	"container/list"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/lixenwraith/props"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Resolve one property",
	Long: `Resolve one property and print its converted value.
The --type flag takes a type expression such as int, []string or tree-map<string,int>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		expr, _ := cmd.Flags().GetString("type")
		spec, err := loader.Engine().Registry().ParseType(expr)
		if err != nil {
			return err
		}
		info := loader.Property(args[0], spec).WithRequired(true)
		if def, _ := cmd.Flags().GetString("default"); cmd.Flags().Changed("default") {
			info.WithDefault(def)
		}

		v, _, err := loader.Resolve(info)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), render(v))
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every resolved property",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return loader.Dump(cmd.OutOrStdout(), format)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve MANIFEST",
	Short: "Resolve a declarative manifest",
	Long:  "Resolve every property declared by a TOML, YAML or JSON manifest and print the result tree.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		m, err := props.LoadManifest(args[0])
		if err != nil {
			return err
		}
		table, err := m.Table(loader.Engine().Registry(), loader.Info())
		if err != nil {
			return err
		}
		values, err := loader.ResolveTable(table)
		if err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), values, "")
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List scalar type names usable in type expressions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range props.Default().TypeNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show loader settings, resources and values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), loader.Debug())
		return nil
	},
}

func init() {
	getCmd.Flags().String("type", "string", "type expression of the value")
	getCmd.Flags().String("default", "", "literal default when the key is absent")
	dumpCmd.Flags().String("format", "properties", "output format: properties, toml, yaml or json")
}

func printTree(w io.Writer, values map[string]any, indent string) {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if nested, ok := values[name].(map[string]any); ok {
			fmt.Fprintf(w, "%s%s:\n", indent, name)
			printTree(w, nested, indent+"  ")
			continue
		}
		fmt.Fprintf(w, "%s%s = %s\n", indent, name, render(values[name]))
	}
}

// render prints container results in a stable, readable form.
func render(v any) string {
	switch x := v.(type) {
	case *list.List:
		var parts []string
		for e := x.Front(); e != nil; e = e.Next() {
			parts = append(parts, render(e.Value))
		}
		return "[" + strings.Join(parts, " ") + "]"
	case *props.SortedMap:
		var parts []string
		for _, k := range x.Keys() {
			value, _ := x.Get(k)
			parts = append(parts, fmt.Sprintf("%v:%s", k, render(value)))
		}
		return "map[" + strings.Join(parts, " ") + "]"
	case *atomic.Value:
		return render(x.Load())
	case fmt.Stringer:
		return x.String()
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
