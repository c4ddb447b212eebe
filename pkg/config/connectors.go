package config

// SourceConfig describes where records are read from. Which fields apply
// depends on Type; unused fields are ignored by the dataset registry.
type SourceConfig struct {
	// Type selects the source (json, csv, avro, postgres, mysql, snowflake, mongodb, bigquery)
	Type string `yaml:"type" json:"type"`

	// Path is the file for json, csv and avro sources
	Path string `yaml:"path" json:"path"`

	// DSN is the connection string for postgres, mysql, snowflake and mongodb
	DSN string `yaml:"dsn" json:"dsn"`
	// Query is the SQL query (postgres, mysql, snowflake, bigquery)
	Query string `yaml:"query" json:"query"`

	// Database and Collection address a mongodb collection
	Database   string `yaml:"database" json:"database"`
	Collection string `yaml:"collection" json:"collection"`
	// Filter is a JSON filter document for mongodb
	Filter string `yaml:"filter" json:"filter"`

	// Project is the GCP project for bigquery
	Project string `yaml:"project" json:"project"`
	// CredentialsFile is a service-account key for bigquery and gs:// stores
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`

	// Limit caps the number of rows read (0 = no limit)
	Limit int `yaml:"limit" json:"limit"`

	// Roles is the schema header when the source carries none
	Roles map[string]string `yaml:"roles" json:"roles"`

	// CSV-specific options
	CSV CSVSourceConfig `yaml:"csv" json:"csv"`
}

// CSVSourceConfig contains CSV parsing options
type CSVSourceConfig struct {
	Delimiter  string   `yaml:"delimiter" json:"delimiter"`
	Comment    string   `yaml:"comment" json:"comment"`
	NullValues []string `yaml:"null_values" json:"null_values"`
	TrimSpaces bool     `yaml:"trim_spaces" json:"trim_spaces"`
	// InferTypes parses numeric and boolean cells instead of keeping strings
	InferTypes bool `yaml:"infer_types" json:"infer_types"`
}

// HasRoles returns true if the source supplies its own schema header
func (s *SourceConfig) HasRoles() bool {
	return len(s.Roles) > 0
}

// Header returns Roles as a header record suitable for the schema parser
func (s *SourceConfig) Header() map[string]interface{} {
	h := make(map[string]interface{}, len(s.Roles))
	for k, v := range s.Roles {
		h[k] = v
	}
	return h
}
