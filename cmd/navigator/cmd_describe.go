package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/navpolicy/navigation"
	"github.com/signalsfoundry/navpolicy/navigation/surfacegrid"
)

type volumeSummary struct {
	Name     string             `json:"name"`
	Surfaces int                `json:"surfaces"`
	Portals  int                `json:"portals"`
	Policies []string           `json:"policies"`
	Grid     *surfacegrid.Stats `json:"grid,omitempty"`
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "List volumes with their navigation policies and grid occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			summaries := describe(s)
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VOLUME\tSURFACES\tPORTALS\tPOLICIES\tGRID")
			for _, v := range summaries {
				grid := "-"
				if v.Grid != nil {
					grid = fmt.Sprintf("%d cells, %d occupied, max %d, mean %.2f",
						v.Grid.Cells, v.Grid.OccupiedCells, v.Grid.MaxOccupancy, v.Grid.MeanOccupancy)
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%s\n", v.Name, v.Surfaces, v.Portals, v.Policies, grid)
			}
			return w.Flush()
		},
	}
}

func describe(s *session) []volumeSummary {
	vols := s.det.Volumes()
	out := make([]volumeSummary, 0, len(vols))
	for _, vol := range vols {
		sum := volumeSummary{
			Name:     vol.Name(),
			Surfaces: vol.NumSurfaces(),
			Portals:  vol.NumPortals(),
		}
		if comp := s.det.Policy(vol.Name()); comp != nil {
			for _, p := range comp.Policies() {
				sum.Policies = append(sum.Policies, p.Kind().String())
				if sa, ok := p.(*navigation.SurfaceArrayPolicy); ok {
					stats := sa.Stats()
					sum.Grid = &stats
				}
			}
		}
		out = append(out, sum)
	}
	return out
}
