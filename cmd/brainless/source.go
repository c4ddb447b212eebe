package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
	"github.com/ajitpratap0/brainless/pkg/schema"
)

// addSourceFlags registers the flags that address input data.
func addSourceFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("data", "", "Input path for file sources (- for stdin)")
	flags.String("source", "", "Source type (json, csv, avro, postgres, mysql, snowflake, mongodb, bigquery)")
	flags.String("query", "", "Query for database sources")
	flags.String("dsn", "", "Connection string for database sources")
	flags.StringSlice("roles", nil, "Column roles as name=role pairs, e.g. price=output,area=categorical")
}

// sourceConfig overlays the source flags on the configured source.
func (a *app) sourceConfig() (config.SourceConfig, error) {
	src := a.cfg.Source
	if v := a.v.GetString("source"); v != "" {
		src.Type = v
	}
	if v := a.v.GetString("data"); v != "" {
		src.Path = v
	}
	if v := a.v.GetString("query"); v != "" {
		src.Query = v
	}
	if v := a.v.GetString("dsn"); v != "" {
		src.DSN = v
	}
	if pairs := a.v.GetStringSlice("roles"); len(pairs) > 0 {
		roles, err := parseRoles(pairs)
		if err != nil {
			return src, err
		}
		src.Roles = roles
	}
	if src.Type == "" {
		src.Type = "json"
	}
	return src, nil
}

func parseRoles(pairs []string) (map[string]string, error) {
	roles := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, role, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.New(errors.ErrorTypeConfig, "roles must be name=role pairs").WithDetail("pair", pair)
		}
		roles[name] = strings.TrimSpace(role)
	}
	return roles, nil
}

// dropHeader removes a leading role header, so a training file can be reused
// for prediction or description.
func dropHeader(rows []record.Record) []record.Record {
	if len(rows) == 0 {
		return rows
	}
	for _, v := range rows[0] {
		s, ok := v.(string)
		if !ok {
			return rows
		}
		if _, known := schema.ParseRole(s); !known {
			return rows
		}
	}
	if _, err := schema.Parse(rows[0]); err != nil {
		return rows
	}
	return rows[1:]
}
