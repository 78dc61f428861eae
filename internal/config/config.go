// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
)

// Options holds the configuration values for the application.
type Options struct {
	// DataDir is the directory holding the store files.
	DataDir string

	// TasksFile is the active task store file name inside DataDir.
	TasksFile string

	// HistoryFile is the history store file name inside DataDir.
	HistoryFile string

	// UsersFile is the credential store file name inside DataDir.
	UsersFile string

	// MultiUser enables accounts and per-owner task records.
	MultiUser bool

	// LogLevel sets the logging verbosity.
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.DataDir, "d", "data", "directory for store files")
	flag.StringVar(&options.TasksFile, "tasks", "tasks.txt", "task store file name")
	flag.StringVar(&options.HistoryFile, "history", "history.txt", "history store file name")
	flag.StringVar(&options.UsersFile, "users", "users.txt", "credential store file name")
	flag.BoolVar(&options.MultiUser, "multiuser", false, "enable accounts and per-user tasks")
	flag.StringVar(&options.LogLevel, "loglevel", "info", "log level")
	flag.StringVar(&options.Config, "config", "", "path to config file")
	flag.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		options.DataDir = dataDir
	}
	if os.Getenv("MULTI_USER") == "true" {
		options.MultiUser = true
	}

	return options
}

// TasksPath returns the full path of the task store file.
func (o *Options) TasksPath() string { return filepath.Join(o.DataDir, o.TasksFile) }

// HistoryPath returns the full path of the history store file.
func (o *Options) HistoryPath() string { return filepath.Join(o.DataDir, o.HistoryFile) }

// UsersPath returns the full path of the credential store file.
func (o *Options) UsersPath() string { return filepath.Join(o.DataDir, o.UsersFile) }
