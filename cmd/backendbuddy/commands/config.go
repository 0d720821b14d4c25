package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/config"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/errors"
)

// ConfigCmd manages the Configuration Store, grounded on the teacher's
// am.go "am show"/"am get" subcommand layout.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update the backendbuddy configuration store",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single configuration field",
	Long: `Set a single configuration field. Recognized keys: name, directory,
command, frontend_directory, frontend_command, port, lan_ip, lan_enabled,
ngrok_enabled, cloudflare_enabled, queue_enabled.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configFormatFlag string

func init() {
	configShowCmd.Flags().StringVar(&configFormatFlag, "format", "json", "Output format: json, yaml")
	ConfigCmd.PersistentFlags().StringVar(&serveDBPath, "db-path", "backendbuddy.db", "configuration database path")
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configSetCmd)
}

func openConfigStore() (*config.Store, error) {
	store, err := config.Open(serveDBPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open configuration store")
	}
	if err := store.Seed(context.Background()); err != nil {
		store.Close()
		return nil, errors.Wrap(err, "failed to seed configuration store")
	}
	return store, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(context.Background())
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	switch configFormatFlag {
	case "yaml":
		data, err := yaml.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
		}
		fmt.Printf("# backendbuddy configuration\n%s", string(data))
	case "json":
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal configuration to JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		return fmt.Errorf("unsupported format: %s (supported: json, yaml)", configFormatFlag)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	store, err := openConfigStore()
	if err != nil {
		return err
	}
	defer store.Close()

	patch, err := buildPatch(key, value)
	if err != nil {
		return err
	}

	if _, err := store.Update(context.Background(), patch); err != nil {
		return errors.Wrap(err, "failed to update configuration")
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}

func buildPatch(key, value string) (config.PartialUpdate, error) {
	var patch config.PartialUpdate
	switch key {
	case "name":
		patch.Name = &value
	case "directory":
		patch.Directory = &value
	case "command":
		patch.Command = &value
	case "frontend_directory":
		patch.FrontendDirectory = &value
	case "frontend_command":
		patch.FrontendCommand = &value
	case "lan_ip":
		patch.LANIP = &value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return patch, fmt.Errorf("port must be an integer: %w", err)
		}
		patch.Port = &port
	case "lan_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return patch, fmt.Errorf("lan_enabled must be a boolean: %w", err)
		}
		patch.LANEnabled = &b
	case "ngrok_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return patch, fmt.Errorf("ngrok_enabled must be a boolean: %w", err)
		}
		patch.NgrokEnabled = &b
	case "cloudflare_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return patch, fmt.Errorf("cloudflare_enabled must be a boolean: %w", err)
		}
		patch.CloudflareEnabled = &b
	case "queue_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return patch, fmt.Errorf("queue_enabled must be a boolean: %w", err)
		}
		patch.QueueEnabled = &b
	default:
		return patch, fmt.Errorf("unrecognized configuration key %q", key)
	}
	return patch, nil
}
