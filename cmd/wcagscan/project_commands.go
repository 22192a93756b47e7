package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wcagscan/internal/api"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage scan target projects",
	}
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))
	projectCmd.AddCommand(newProjectUpdateCommand(ctx))
	projectCmd.AddCommand(newProjectDeleteCommand(ctx))
	return projectCmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var search string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			list, err := client.ListProjects(cmd.Context(), api.ProjectFilter{Search: search, Limit: limit})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}

			stdout := cmd.OutOrStdout()
			if len(list.Projects) == 0 {
				fmt.Fprintln(stdout, "No projects registered")
				return nil
			}

			rows := make([][]string, 0, len(list.Projects))
			for _, project := range list.Projects {
				rows = append(rows, []string{
					project.ID,
					project.Name,
					project.BaseURL,
					strconv.Itoa(project.Settings.MaxPages),
				})
			}
			fmt.Fprintln(stdout, renderTable([]tableColumn{
				column("ID"),
				column("Name"),
				column("Base URL"),
				numericColumn("Max Pages"),
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	cmd.Flags().StringVar(&search, "search", "", "Filter projects by name")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum projects to list")
	return cmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var description string
	var maxDepth int
	var maxPages int
	var wcagLevel string

	cmd := &cobra.Command{
		Use:   "create <name> <base-url>",
		Short: "Register a new project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			req := api.ProjectRequest{
				Name:        args[0],
				BaseURL:     args[1],
				Description: description,
			}
			if maxDepth > 0 || maxPages > 0 || wcagLevel != "" {
				req.Settings = &api.ProjectSettings{
					MaxDepth:  maxDepth,
					MaxPages:  maxPages,
					WCAGLevel: wcagLevel,
				}
			}

			project, err := client.CreateProject(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", project.Name, project.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Crawl depth limit")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Crawl page limit")
	cmd.Flags().StringVar(&wcagLevel, "wcag-level", "", "Target WCAG level (A, AA, AAA)")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			project, err := client.GetProject(cmd.Context(), args[0])
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("project %s not found", args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, project)
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "ID:          %s\n", project.ID)
			fmt.Fprintf(stdout, "Name:        %s\n", project.Name)
			fmt.Fprintf(stdout, "Base URL:    %s\n", project.BaseURL)
			if project.Description != "" {
				fmt.Fprintf(stdout, "Description: %s\n", project.Description)
			}
			fmt.Fprintf(stdout, "Max depth:   %d\n", project.Settings.MaxDepth)
			fmt.Fprintf(stdout, "Max pages:   %d\n", project.Settings.MaxPages)
			if project.Settings.WCAGLevel != "" {
				fmt.Fprintf(stdout, "WCAG level:  %s\n", project.Settings.WCAGLevel)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newProjectUpdateCommand(ctx *commandContext) *cobra.Command {
	var name string
	var baseURL string
	var description string
	var maxDepth int
	var maxPages int
	var wcagLevel string

	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update project fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			req := api.ProjectRequest{
				Name:        name,
				BaseURL:     baseURL,
				Description: description,
			}
			if cmd.Flags().Changed("max-depth") || cmd.Flags().Changed("max-pages") || cmd.Flags().Changed("wcag-level") {
				req.Settings = &api.ProjectSettings{
					MaxDepth:  maxDepth,
					MaxPages:  maxPages,
					WCAGLevel: wcagLevel,
				}
			}

			project, err := client.UpdateProject(cmd.Context(), args[0], req)
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("project %s not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", project.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New project name")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "New base URL")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Crawl depth limit")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Crawl page limit")
	cmd.Flags().StringVar(&wcagLevel, "wcag-level", "", "Target WCAG level (A, AA, AAA)")
	return cmd
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its scans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("refusing to delete without --force")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.DeleteProject(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, api.ErrNotFound) {
					return fmt.Errorf("project %s not found", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion")
	return cmd
}
