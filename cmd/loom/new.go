package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/internal/templates"
)

func newCmd() *cobra.Command {
	var (
		template    string
		description string
		skipPrompts bool
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new Loom project",
		Long: `Create a new Loom project with the specified name.

Templates:
  minimal   Templates and config only, served with 'loom serve' (default)
  full      A Go program embedding Loom, with live event handlers

Examples:
  loom new my-site
  loom new my-app --template=full`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(args[0], template, description, skipPrompts)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "minimal", "Project template (minimal, full)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().BoolVarP(&skipPrompts, "yes", "y", false, "Skip prompts and use defaults")

	return cmd
}

func runNew(name, templateName, description string, skipPrompts bool) error {
	printBanner()
	fmt.Println("  Creating a new Loom project...")
	fmt.Println()

	if !isValidProjectName(name) {
		return errors.New("E082").
			WithSuggestion("Use lowercase letters, digits, and hyphens, starting with a letter")
	}

	projectDir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
		return errors.New("E083").
			WithDetail("Directory '" + name + "' already exists").
			WithSuggestion("Choose a different name or remove the existing directory")
	}

	if !skipPrompts {
		description, err = promptForDescription(description)
		if err != nil {
			return err
		}
	}
	if description == "" {
		description = "A Loom site"
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	info("Creating project directory...")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return err
	}

	cfg := templates.Config{
		ProjectName: name,
		ModulePath:  name,
		Description: description,
	}

	info("Creating project from '%s' template...", templateName)
	if err := tmpl.Create(projectDir, cfg); err != nil {
		os.RemoveAll(projectDir)
		return err
	}

	fmt.Println()
	success("Created %s/", name)
	fmt.Println()
	fmt.Println("  To get started:")
	fmt.Println()
	fmt.Printf("    cd %s\n", name)
	if templateName == "full" {
		fmt.Println("    go mod tidy")
		fmt.Println("    go run .")
	} else {
		fmt.Println("    loom serve")
	}
	fmt.Println()
	fmt.Println("  Your site will be running at http://localhost:3000")
	fmt.Println()

	return nil
}

func promptForDescription(description string) (string, error) {
	if description != "" {
		return description, nil
	}

	fmt.Printf("? Description: ")
	reader := bufio.NewReader(os.Stdin)
	desc, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(desc), nil
}

func isValidProjectName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		lower := r >= 'a' && r <= 'z'
		digit := r >= '0' && r <= '9'
		if i == 0 && !lower {
			return false
		}
		if !lower && !digit && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
