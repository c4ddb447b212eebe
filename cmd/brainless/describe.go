package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/brainless/pkg/dataset"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/json"
	"github.com/ajitpratap0/brainless/pkg/schema"
)

func newDescribeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Suggest column roles for a data source",
		Long: `Inspect every column of a data source and suggest a role for it. The
output can be pasted into --roles after choosing the output column.

Example:
  brainless describe --source csv --data houses.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.describe(cmd.Context())
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the full inference report as JSON")
	return cmd
}

func (a *app) describe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	src, err := a.sourceConfig()
	if err != nil {
		return err
	}
	rows, err := dataset.Rows(ctx, src)
	if err != nil {
		return err
	}
	rows = dropHeader(rows)

	engine := schema.NewTypeInferenceEngine(a.log, schema.InferenceOptions{
		MaxCategoricalCardinality: a.cfg.Features.MaxCategoricalCardinality,
	})
	report := engine.Describe(rows)

	if a.v.GetBool("json") {
		return a.printJSON(report)
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tTYPE\tPRESENT\tDISTINCT\tSUGGESTED ROLE")
	pairs := make([]string, 0, len(report))
	for _, it := range report {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%s\n", it.Name, it.Type, it.Present, len(rows), it.Cardinality, it.Suggested)
		pairs = append(pairs, it.Name+"="+string(it.Suggested))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n--roles %s\n", strings.Join(pairs, ","))
	return nil
}

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the summary of a stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd.Context())
		},
	}
	cmd.Flags().String("model", "", "Snapshot location (required)")
	cmd.Flags().Bool("full", false, "Decode the payload and print the training summary")
	return cmd
}

func (a *app) inspect(ctx context.Context) error {
	location := a.v.GetString("model")
	if location == "" {
		return errors.New(errors.ErrorTypeConfig, "--model is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !a.v.GetBool("full") {
		env, err := a.readEnvelope(ctx, location)
		if err != nil {
			return err
		}
		env.Payload = nil
		return a.printJSON(env)
	}

	p, env, err := a.loadSnapshot(ctx, location)
	if err != nil {
		return err
	}
	summary, err := p.Summary()
	if err != nil {
		return err
	}
	env.Payload = nil
	return a.printJSON(map[string]interface{}{"envelope": env, "summary": summary})
}

func (a *app) printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = a.out.Write(append(out, '\n'))
	return err
}
