package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"reelcut/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, inspect and validate configuration",
	}
	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigShowCommand(ctx),
		newConfigValidateCommand(),
	)
	return cmd
}

// configTarget resolves an explicit path or falls back to the default location.
func configTarget(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit == "" {
		return config.DefaultConfigPath()
	}
	return config.ExpandPath(explicit)
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample config",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			if _, err := os.Stat(target); err == nil && !overwrite {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check config path: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: put a pigo facefinder cascade at tracking.cascade_path.")
			fmt.Fprintln(out, "Set llm.api_key or OPENROUTER_API_KEY to rank clips with an LLM.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			if section = strings.TrimSpace(section); section != "" {
				if data, err = pickSection(data, section); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			source := ctx.configPath
			if !ctx.configSeen {
				source += " (not found; defaults in use)"
			}
			fmt.Fprintf(out, "# %s\n", source)
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&section, "section", "s", "", "Print only this table, e.g. tracking")
	return cmd
}

// pickSection re-encodes one top-level table of an encoded config.
func pickSection(data []byte, name string) ([]byte, error) {
	var tables map[string]any
	if err := toml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	table, ok := tables[name]
	if !ok {
		known := make([]string, 0, len(tables))
		for key := range tables {
			known = append(known, key)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("unknown section %q (have %s)", name, strings.Join(known, ", "))
	}
	return toml.Marshal(map[string]any{name: table})
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate [path]",
		Short:       "Load a config file and report problems without creating directories",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			} else if flag := cmd.Flag("config"); flag != nil {
				explicit = flag.Value.String()
			}
			_, resolved, exists, err := config.Load(explicit)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("no config file at %s", resolved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", resolved)
			return nil
		},
	}
}
