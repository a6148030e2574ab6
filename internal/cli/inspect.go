package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/xco2-etl/internal/adapter/netcdf"
)

var inspectFlags struct {
	variable string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print a dataset's format, groups, dimensions, variables and attributes as JSON",
	Long: `Print a JSON description of a netCDF file without reading any values.
With --variable, print only that variable's attributes (units, long_name,
comment and so on).`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFlags.variable, "variable", "", "print the documentation of one variable")
	rootCmd.AddCommand(inspectCmd)
}

// datasetReport is the JSON document printed by inspect.
type datasetReport struct {
	Path       string             `json:"path"`
	Format     string             `json:"format"`
	Groups     []string           `json:"groups"`
	Dimensions []netcdf.Dimension `json:"dimensions"`
	Variables  []netcdf.Variable  `json:"variables"`
	Attributes []netcdf.Attribute `json:"attributes"`
}

func runInspect(cmd *cobra.Command, args []string) (err error) {
	ds, err := netcdf.Open(args[0])
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", args[0], cerr)
		}
	}()

	var out any
	if inspectFlags.variable != "" {
		out, err = ds.VariableDoc(inspectFlags.variable)
	} else {
		out, err = describe(ds)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func describe(ds *netcdf.Dataset) (datasetReport, error) {
	format, err := ds.Format()
	if err != nil {
		return datasetReport{}, err
	}
	groups, err := ds.Groups()
	if err != nil {
		return datasetReport{}, err
	}
	vars, err := ds.Variables()
	if err != nil {
		return datasetReport{}, err
	}
	if groups == nil {
		groups = []string{}
	}
	return datasetReport{
		Path:       ds.Path(),
		Format:     format,
		Groups:     groups,
		Dimensions: ds.Dimensions(),
		Variables:  vars,
		Attributes: ds.Attributes(),
	}, nil
}
