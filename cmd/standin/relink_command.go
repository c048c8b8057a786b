package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"standin/internal/config"
	"standin/internal/fileutil"
	"standin/internal/project"
)

func newRelinkCommand(ctx *cliContext) *cobra.Command {
	var rootDir string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "relink <project.mlt>",
		Short: "Rewrite a project so proxied clips point at their originals",
		Long: `Relink streams the project document and replaces each proxy-tagged clip's
resource with its original file, relative to the project root. Without -o the
project file is replaced in place; the rewrite happens in a temp file first,
so a failed parse never damages the original.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}

			root := strings.TrimSpace(rootDir)
			if root == "" {
				root = filepath.Dir(projectPath)
			} else if root, err = config.ExpandPath(root); err != nil {
				return err
			}

			tempPath, err := project.Relink(projectPath, root, logger)
			if err != nil {
				return err
			}

			target := projectPath
			if trimmed := strings.TrimSpace(outputPath); trimmed != "" {
				if target, err = config.ExpandPath(trimmed); err != nil {
					return err
				}
			}
			if err := fileutil.MoveFile(tempPath, target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Relinked %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&rootDir, "root", "", "Project root for relativizing resource paths (default: project directory)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the rewritten document here instead of replacing the original")
	return cmd
}
