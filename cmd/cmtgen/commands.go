package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/johnstilia/cmtgen/pkg/config"
	"github.com/johnstilia/cmtgen/pkg/templates"
)

// newInitCmd writes an example configuration file
func newInitCmd() *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targetPath, _ := cmd.Flags().GetString("config")
			switch {
			case targetPath != "":
			case project:
				targetPath = config.ProjectFileName
			default:
				p, err := config.GlobalPath()
				if err != nil {
					return err
				}
				targetPath = p
			}

			if _, err := os.Stat(targetPath); err == nil && !force {
				return errors.WithHint(
					errors.Newf("configuration file already exists at %s", targetPath),
					"use --force to overwrite it",
				)
			}

			if err := config.SaveExampleConfig(targetPath); err != nil {
				return err
			}

			out := newUI(cmd.OutOrStdout(), cmd.InOrStdin(), isTerminal(os.Stdout))
			out.success("Configuration written to " + targetPath)
			fmt.Fprintln(cmd.OutOrStdout(), "  Set ai.command to the program that talks to your model.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")
	cmd.Flags().BoolVar(&project, "project", false, "Write "+config.ProjectFileName+" in the current directory instead of ~/"+config.GlobalFileName)
	return cmd
}

func loadTemplates(cmd *cobra.Command) (*templates.Manager, *config.Config, func(), error) {
	cfg, flush, err := setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	tm, err := templates.NewManager(cfg.Commit.TemplateDir)
	if err != nil {
		flush()
		return nil, nil, nil, err
	}
	return tm, cfg, flush, nil
}

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage commit message templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tm, cfg, flush, err := loadTemplates(cmd)
			if err != nil {
				return err
			}
			defer flush()

			for _, name := range tm.Names() {
				var tags []string
				if templates.IsBuiltin(name) {
					tags = append(tags, "built-in")
				}
				if name == cfg.Commit.Template {
					tags = append(tags, "selected")
				}
				if len(tags) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", name, strings.Join(tags, ", "))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Print a template's source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tm, _, flush, err := loadTemplates(cmd)
			if err != nil {
				return err
			}
			defer flush()

			src, err := tm.Source(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), src)
			return nil
		},
	})

	var fromFile string
	create := &cobra.Command{
		Use:   "create NAME [TEMPLATE]",
		Short: "Create a custom template in the template directory",
		Long: `Create a custom template. The template uses Go text/template syntax with the
fields .Type, .Scope, .Subject, .Details, .Issues and .Breaking.`,
		Example: `  cmtgen templates create short '{{.Type}}: {{.Subject}}'
  cmtgen templates create ticket --file ticket.tmpl`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src string
			switch {
			case fromFile != "":
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return errors.Wrapf(err, "reading %s", fromFile)
				}
				src = string(data)
			case len(args) == 2:
				src = args[1]
			default:
				return errors.WithHint(errors.New("no template text given"), "pass it as the second argument or with --file")
			}

			tm, cfg, flush, err := loadTemplates(cmd)
			if err != nil {
				return err
			}
			defer flush()

			if err := tm.Save(args[0], src); err != nil {
				return err
			}
			out := newUI(cmd.OutOrStdout(), cmd.InOrStdin(), isTerminal(os.Stdout))
			out.success(fmt.Sprintf("Template %q saved to %s", args[0], filepath.Join(cfg.Commit.TemplateDir, args[0]+templates.Extension)))
			return nil
		},
	}
	create.Flags().StringVarP(&fromFile, "file", "f", "", "Read the template from this file")
	cmd.AddCommand(create)

	return cmd
}

// newModelsCmd lists the configured model catalog
func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models configured for the provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, flush, err := setup(cmd)
			if err != nil {
				return err
			}
			defer flush()

			c := catalog(cfg)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Provider: %s\n", c.Provider)
			if len(c.Models) == 0 {
				fmt.Fprintln(w, "No known models configured; any model name is passed through.")
				if cfg.AI.Model != "" {
					fmt.Fprintf(w, "Selected: %s\n", cfg.AI.Model)
				}
				return nil
			}

			selected, err := c.Resolve(cfg.AI.Model)
			if err != nil {
				return err
			}
			for _, m := range c.Models {
				marker := "  "
				if m == selected {
					marker = "* "
				}
				fmt.Fprintln(w, marker+m)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cmtgen %s\n", version)
		},
	}
}
