package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/chrissnell/pvlifetime/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML scenario file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite scenario database (required)")
		name       = flag.String("scenario", "", "Name to store the scenario under (default: the scenario's name, or 'default')")
		force      = flag.Bool("force", false, "Replace an existing scenario with the same name")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <scenario.yaml> -sqlite <scenarios.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if YAML file exists
	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	fmt.Printf("Converting YAML scenario to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	// Load YAML configuration
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	configData, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}
	if *name != "" {
		configData.Name = *name
	}
	if configData.Name == "" {
		configData.Name = config.DefaultScenario
	}

	if err := configData.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		printConfigSummary(configData)
		fmt.Println("DRY RUN complete - no database changes made")
		return
	}

	if err := convert(*sqliteFile, configData, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario into SQLite: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s -scenario %s\n", *sqliteFile, configData.Name)
}

func convert(dbPath string, configData *config.ConfigData, force bool) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	sqliteProvider, err := config.NewSQLiteProvider(dbPath, configData.Name)
	if err != nil {
		return fmt.Errorf("failed to create SQLite provider: %w", err)
	}
	defer sqliteProvider.Close()

	existing, err := sqliteProvider.ListScenarios()
	if err != nil {
		return err
	}
	if slices.Contains(existing, configData.Name) && !force {
		return fmt.Errorf("scenario %q already exists; use -force to replace it", configData.Name)
	}

	return sqliteProvider.SaveConfig(configData)
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Println("\nScenario Summary:")
	fmt.Printf("  Name:        %s\n", configData.Name)
	fmt.Printf("  Start year:  %d\n", configData.StartYear)
	fmt.Printf("  Site:        %.4f, %.4f (%.0f m)\n", configData.Site.Latitude, configData.Site.Longitude, configData.Site.Altitude)
	fmt.Printf("  Mode:        %s\n", configData.Degradation.Mode)
	fmt.Printf("  Weather:     %s\n", configData.Weather.Source)
	fmt.Printf("  Parameters:  %d\n", len(configData.System))

	fmt.Printf("\nStorage Backends:\n")
	if configData.Storage.SQLite != nil {
		fmt.Printf("  - SQLite: %s\n", configData.Storage.SQLite.Path)
	}
	if configData.Storage.TimescaleDB != nil {
		fmt.Printf("  - TimescaleDB: %s\n", configData.Storage.TimescaleDB.ConnectionString)
	}
	if configData.Storage.Parquet != nil {
		fmt.Printf("  - Parquet: %s\n", configData.Storage.Parquet.Path)
	}
	if configData.Storage.Msgpack != nil {
		fmt.Printf("  - msgpack: %s\n", configData.Storage.Msgpack.Path)
	}
}
