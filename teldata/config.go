package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	teldata "github.com/jmbenlloch/teldata_go/pkg"
	"gopkg.in/yaml.v3"
)

// LoadConfiguration reads a JSON or YAML configuration file, chosen by
// extension, on top of the defaults. TELDATA_* environment variables
// override the file. An empty filename gives the defaults.
func LoadConfiguration(filename string) (teldata.Configuration, error) {
	var config teldata.Configuration

	// Set default values
	config.MaxEvents = 0
	config.Skip = 0
	config.Verbosity = 0
	config.NumWorkers = 1
	config.WriteData = true
	config.Discard = true
	config.StrictSchema = false
	config.WriteResiduals = false
	config.CompressionLevel = teldata.DefaultCompressionLevel
	config.ChunkSize = teldata.DefaultChunkSize
	config.NoDB = true
	config.DBDriver = "mysql"
	config.Host = "localhost"
	config.Port = 3306
	config.User = "telreader"
	config.DBName = "TELESCOPE"

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return config, err
		}
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &config)
		default:
			err = json.Unmarshal(data, &config)
		}
		if err != nil {
			return config, fmt.Errorf("error decoding %s: %w", filename, err)
		}
	}

	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("error reading environment: %w", err)
	}
	return config, nil
}

func printConfiguration(config teldata.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Discard: %t", config.Discard), "config")
	logger.Info(fmt.Sprintf("Strict schema: %t", config.StrictSchema), "config")
	logger.Info(fmt.Sprintf("Write residuals: %t", config.WriteResiduals), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Chunk size: %d", config.ChunkSize), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
}
