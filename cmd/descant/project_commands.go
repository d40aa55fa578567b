package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "upload <video-file>",
		Short: "Upload a video and create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.apiClient()
			project, err := client.Upload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created project %s (%s)\n", project.ID, project.OriginalFilename)

			if !analyze {
				return nil
			}
			result, err := client.Analyze(cmd.Context(), project.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Analysis complete: %d scenes\n", result.TotalScenes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "Run analysis immediately after upload")
	return cmd
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <project-id>",
		Short: "Detect scenes and generate audio descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.apiClient().Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analysis complete: %d scenes\n", result.TotalScenes)
			return nil
		},
	}
}

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := ctx.apiClient().Projects(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects")
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, project := range projects {
				rows = append(rows, []string{
					project.ID,
					project.OriginalFilename,
					string(project.Status),
					strconv.Itoa(project.TotalScenes),
					project.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "File", "Status", "Scenes", "Created"},
				rows,
				"Scenes",
			))
			return nil
		},
	}
}

func newScenesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scenes <project-id>",
		Short: "List a project's detected scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenes, err := ctx.apiClient().Scenes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(scenes) == 0 {
				fmt.Fprintln(out, "No scenes; run analyze first")
				return nil
			}

			rows := make([][]string, 0, len(scenes))
			for _, scene := range scenes {
				rows = append(rows, []string{
					scene.ID,
					strconv.Itoa(scene.FrameNumber),
					fmt.Sprintf("%.2fs", scene.Timestamp),
					fmt.Sprintf("%.1fs", scene.Duration),
					truncate(scene.Description, 60),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Frame", "Time", "Narration", "Description"},
				rows,
				"Frame", "Time", "Narration",
			))
			return nil
		},
	}
}

func newUpdateSceneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update-scene <scene-id> <description>",
		Short: "Replace a scene's description and regenerate its narration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.apiClient().UpdateScene(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scene updated; narration runs %.1fs\n", result.Duration)
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <project-id>",
		Short: "Finalize a project and print its ordered scene set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.apiClient().Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d scenes)\n", result.Message, len(result.Scenes))
			for _, scene := range result.Scenes {
				fmt.Fprintf(out, "  %6.2fs  %s\n", scene.Timestamp, truncate(scene.Description, 80))
			}
			return nil
		},
	}
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
