package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/status"
)

type statusRow struct {
	Status      domain.ClaimStatus   `json:"status"`
	Label       string               `json:"label"`
	Description string               `json:"description"`
	Transitions []domain.ClaimStatus `json:"transitions"`
}

type transitionRow struct {
	Status         domain.ClaimStatus `json:"status"`
	Label          string             `json:"label"`
	RequiredFields []string           `json:"required_fields"`
}

func (rt *app) statusesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "Print every claim status and its allowed transitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([]statusRow, 0, len(status.All()))
			for _, info := range status.Available() {
				rows = append(rows, statusRow{
					Status:      info.Value,
					Label:       info.Label,
					Description: info.Description,
					Transitions: status.PossibleTransitions(info.Value),
				})
			}
			if rt.jsonOutput {
				return rt.printJSON(rows)
			}

			w := tabwriter.NewWriter(rt.opts.Out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tLABEL\tNEXT")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\n", row.Status, row.Label, joinStatuses(row.Transitions))
			}
			return w.Flush()
		},
	}
}

func (rt *app) transitionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transitions STATUS",
		Short: "Show the transitions allowed from a status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, ok := status.Parse(args[0])
			if !ok {
				return fmt.Errorf("unknown status %q", args[0])
			}
			rows := []transitionRow{}
			for _, to := range status.PossibleTransitions(from) {
				required := status.RequiredFields(from, to)
				if required == nil {
					required = []string{}
				}
				rows = append(rows, transitionRow{Status: to, Label: status.Label(to), RequiredFields: required})
			}
			if rt.jsonOutput {
				return rt.printJSON(rows)
			}
			if len(rows) == 0 {
				fmt.Fprintf(rt.opts.Out, "%s is terminal\n", from)
				return nil
			}

			w := tabwriter.NewWriter(rt.opts.Out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "TO\tLABEL\tREQUIRES")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\n", row.Status, row.Label, strings.Join(row.RequiredFields, ","))
			}
			return w.Flush()
		},
	}
}

func joinStatuses(list []domain.ClaimStatus) string {
	if len(list) == 0 {
		return "-"
	}
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
