// Package config provides unified configuration management for brainless.
//
// # Key Features
//
// - Config: one structure describing a training run
// - Structured sections: Features, Search, Observability, Snapshot, Source
// - Environment variable substitution with ${VAR_NAME} syntax
// - Automatic defaults and validation returning config-typed errors
//
// # Usage
//
// ## Loading a Configuration
//
//	cfg, err := config.LoadConfig("train.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// ## Environment Variable Substitution
//
// Any ${VAR_NAME} occurrence in the YAML file is replaced with the value of the
// environment variable before parsing:
//
//	source:
//	  type: postgres
//	  dsn: ${TRAINING_DB_DSN}
//	  query: SELECT * FROM listings
//	  roles:
//	    price: output
//	    neighbourhood: categorical
//	    summary: nlp
//
// ## Search Overrides
//
// Grids of individual model families can be replaced. Unknown families or
// parameters are rejected when the predictor is constructed:
//
//	search:
//	  families: [ridge, random_forest]
//	  overrides:
//	    ridge:
//	      alpha: [0.01, 0.1]
//	  intervals: true
package config
