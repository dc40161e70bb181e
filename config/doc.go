// Package config loads gopipe configuration documents.
//
// It uses Viper to read a YAML file, a .env file (via godotenv) and the
// process environment, then unmarshals the merged result into a struct.
// Load additionally applies defaults and runs struct-tag validation.
//
// # Usage
//
//	var cfg pipeline.FileConfig
//	err := config.Load("checkout", &cfg, config.WithConfigFile("pipeline.yml"))
//
// Environment variables map onto nested keys by splitting on underscores,
// e.g. PIPELINE_USE_PIPE_ERROR=true sets pipeline.use_pipe_error.
package config
