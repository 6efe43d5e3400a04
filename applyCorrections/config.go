package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	corrections "github.com/anniinakinnunen/MuonCorrections/pkg"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

//go:embed schema/config-schema.json
var configSchema []byte

const schemaURL = "https://github.com/anniinakinnunen/MuonCorrections/schema/config-schema.json"

func LoadConfiguration(filename string) (corrections.Configuration, error) {
	var config corrections.Configuration

	// Set default values
	params := corrections.DefaultCorrectionParams()
	config.Verbosity = 0
	config.NumWorkers = 1
	config.MaxParticles = corrections.MAX_PARTICLES
	config.NTrk = params.NTrk
	config.RunOpt = params.RunOpt
	config.Qter = params.Qter

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	document, err := toJSON(filename, data)
	if err != nil {
		return config, err
	}
	if err := ValidateConfiguration(document); err != nil {
		return config, err
	}
	err = json.Unmarshal(document, &config)
	if err != nil {
		return config, err
	}

	// Output file names are derived from the run names
	names := make(map[string]bool)
	for _, run := range config.Runs {
		if names[run.Name] {
			return config, fmt.Errorf("duplicated run name %q", run.Name)
		}
		names[run.Name] = true
	}
	return config, nil
}

// toJSON converts YAML configuration files to JSON, so that both go
// through the same validation and decoding.
func toJSON(filename string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		var document any
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", filename, err)
		}
		return json.Marshal(document)
	default:
		return data, nil
	}
}

func compileSchema() (*jsonschema.Schema, error) {
	var schemaDoc any
	if err := json.Unmarshal(configSchema, &schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to parse embedded schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
}

func ValidateConfiguration(document []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(document, &instance); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func printConfiguration(config corrections.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Max muons per event: %d", config.MaxParticles), "config")
	logger.Info(fmt.Sprintf("ntrk: %g, run option: %g, qter: %g", config.NTrk, config.RunOpt, config.Qter), "config")
	logger.Info(fmt.Sprintf("Calibration driver: %q", config.Calibration.Driver), "config")
	switch config.Calibration.Driver {
	case "mysql":
		logger.Info(fmt.Sprintf("Host: %s", config.Calibration.Host), "config")
		logger.Info(fmt.Sprintf("DB name: %s", config.Calibration.DBName), "config")
	case "sqlite":
		logger.Info(fmt.Sprintf("Calibration file: %s", config.Calibration.Path), "config")
	}
	logger.Info(fmt.Sprintf("Calibration run: %d", config.Calibration.RunNumber), "config")

	runs := make(map[string]corrections.DatasetConfig)
	for _, run := range config.Runs {
		runs[run.Name] = run
	}
	names := maps.Keys(runs)
	sort.Strings(names)
	for _, name := range names {
		run := runs[name]
		logger.Info(fmt.Sprintf("Run %s: %s [%s] -> %s (data: %t, correct all: %t)",
			name, run.FileIn, run.Tree, run.OutputFilename(), run.IsData, run.CorrectAll), "config")
	}
}
