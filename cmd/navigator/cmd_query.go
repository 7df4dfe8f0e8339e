package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/navpolicy/geometry"
	"github.com/signalsfoundry/navpolicy/navigation"
)

type candidateRow struct {
	Index    int     `json:"index"`
	ID       string  `json:"id"`
	Portal   bool    `json:"portal"`
	Distance float64 `json:"distance"`
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the navigation candidates for one position and direction",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			posFlag, _ := cmd.Flags().GetString("pos")
			dirFlag, _ := cmd.Flags().GetString("dir")
			volName, _ := cmd.Flags().GetString("volume")
			dedup, _ := cmd.Flags().GetBool("dedup")

			pos, err := parseVec(posFlag)
			if err != nil {
				return fmt.Errorf("--pos: %w", err)
			}
			dir, err := parseVec(dirFlag)
			if err != nil {
				return fmt.Errorf("--dir: %w", err)
			}

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			var vol *geometry.Volume
			if volName != "" {
				vol = s.det.Volume(volName)
				if vol == nil {
					return fmt.Errorf("volume %q not found", volName)
				}
			} else if vol = s.det.VolumeAt(pos); vol == nil {
				return fmt.Errorf("no volume contains %v", pos)
			}
			comp := s.det.Policy(vol.Name())
			if comp == nil {
				return fmt.Errorf("volume %q has no navigation policy", vol.Name())
			}

			cands := navigation.Observed(comp, s.collector).Candidates(navigation.Query{Position: pos, Direction: dir})
			if dedup {
				cands = navigation.Deduplicate(cands)
			}

			rows := make([]candidateRow, len(cands))
			for i, c := range cands {
				rows[i] = candidateRow{
					Index:    i,
					ID:       c.ID(),
					Portal:   c.IsPortal(),
					Distance: geometry.Distance(c.Surface.Center, pos),
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"volume":     vol.Name(),
					"candidates": rows,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "volume %s: %d candidates\n", vol.Name(), len(rows))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tID\tKIND\tDISTANCE")
			for _, r := range rows {
				kind := "surface"
				if r.Portal {
					kind = "portal"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\n", r.Index, r.ID, kind, r.Distance)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("volume", "", "Volume to query (default: the volume containing --pos)")
	cmd.Flags().String("pos", "0,0,0", "Query position x,y,z")
	cmd.Flags().String("dir", "0,0,1", "Query direction x,y,z")
	cmd.Flags().Bool("dedup", false, "Drop repeated surfaces from the candidate list")
	return cmd
}
