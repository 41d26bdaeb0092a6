package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/questiongen"
	"github.com/abhisek/mockprep/internal/store"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage saved interview roles",
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your roles and public roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		return withStore(cmd, func(st *store.Store) error {
			roles, err := st.Roles().ListRoles(cmd.Context(), user)
			if err != nil {
				return fmt.Errorf("list roles: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(roles) == 0 {
				fmt.Fprintln(out, theme.Hint.Render("No saved roles."))
				return nil
			}
			t := newTable("ID", "Title", "Level", "Visibility", "Used")
			for _, r := range roles {
				t.Row(r.ID, truncate(r.Title, 28), string(r.RoleBlock.Difficulty), string(r.Visibility), strconv.FormatInt(r.UsageCount, 10))
			}
			fmt.Fprintln(out, t.String())
			return nil
		})
	},
}

var rolesCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Generate a role from a job description and save it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		user, _ := f.GetString("user")
		jobText, _ := f.GetString("job")
		if path, _ := f.GetString("job-file"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read job description: %w", err)
			}
			jobText = string(b)
		}
		if jobText == "" {
			jobText = args[0]
		}
		types, _ := f.GetStringSlice("types")
		categories, err := parseCategories(types)
		if err != nil {
			return err
		}
		custom, _ := f.GetString("custom-type")
		count, _ := f.GetInt("questions")
		private, _ := f.GetBool("private")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := buildRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		block, err := rt.architect.FromJobText(cmd.Context(), questiongen.RoleRequest{
			JobText:        jobText,
			Categories:     categories,
			CustomCategory: custom,
			QuestionCount:  count,
		})
		if err != nil {
			return err
		}

		role := &store.Role{
			Title:     args[0],
			RoleBlock: block,
			CreatorID: user,
		}
		if private {
			role.Visibility = store.VisibilityPrivate
		}
		if err := rt.store.Roles().CreateRole(cmd.Context(), role); err != nil {
			return err
		}

		b, _ := json.MarshalIndent(role, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

// roleFile is the YAML layout accepted by "roles import".
type roleFile struct {
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Visibility  store.Visibility    `yaml:"visibility"`
	RoleBlock   interview.RoleBlock `yaml:"role_block"`
}

func readRoleFile(path string) (*roleFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role file: %w", err)
	}
	var rf roleFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("parse role file %s: %w", path, err)
	}
	for i, c := range rf.RoleBlock.Categories {
		parsed, err := interview.ParseCategory(string(c))
		if err != nil {
			return nil, fmt.Errorf("parse role file %s: %w", path, err)
		}
		rf.RoleBlock.Categories[i] = parsed
	}
	if rf.Title == "" {
		rf.Title = rf.RoleBlock.RoleName
	}
	return &rf, nil
}

var rolesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Save a hand-written role block from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		rf, err := readRoleFile(args[0])
		if err != nil {
			return err
		}

		role := &store.Role{
			Title:       rf.Title,
			Description: rf.Description,
			RoleBlock:   rf.RoleBlock,
			CreatorID:   user,
			Visibility:  rf.Visibility,
		}
		return withStore(cmd, func(st *store.Store) error {
			if err := st.Roles().CreateRole(cmd.Context(), role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s\n", role.Title, role.ID)
			return nil
		})
	},
}

var rolesDeleteCmd = &cobra.Command{
	Use:   "delete <role-id>",
	Short: "Delete a role you created",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		return withStore(cmd, func(st *store.Store) error {
			err := st.Roles().DeleteRole(cmd.Context(), args[0], user)
			if interview.IsKind(err, interview.KindNotFound) {
				return fmt.Errorf("role %s not found or not yours", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
			return nil
		})
	},
}

var rolesVisibilityCmd = &cobra.Command{
	Use:   "visibility <role-id> <private|public>",
	Short: "Change who can see a role you created",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		visibility, err := parseVisibility(args[1])
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		return withStore(cmd, func(st *store.Store) error {
			if err := st.Roles().UpdateVisibility(cmd.Context(), args[0], user, visibility); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Role %s is now %s\n", args[0], visibility)
			return nil
		})
	},
}

func parseVisibility(s string) (store.Visibility, error) {
	switch v := store.Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case store.VisibilityPrivate, store.VisibilityPublic:
		return v, nil
	}
	return "", fmt.Errorf("visibility must be private or public, got %q", s)
}

func init() {
	rolesCmd.PersistentFlags().String("user", "local", "User id that owns the roles")

	rolesCreateCmd.Flags().String("job", "", "Job title or short description (default: the title)")
	rolesCreateCmd.Flags().String("job-file", "", "Read the job description from a file")
	rolesCreateCmd.Flags().StringSlice("types", []string{"technical"}, "Interview types: technical, behavioral, hr, custom")
	rolesCreateCmd.Flags().String("custom-type", "", "Label for the custom interview type")
	rolesCreateCmd.Flags().IntP("questions", "n", 0, "Number of questions (default from config)")
	rolesCreateCmd.Flags().Bool("private", false, "Hide the role from other users")

	rolesCmd.AddCommand(rolesListCmd)
	rolesCmd.AddCommand(rolesCreateCmd)
	rolesCmd.AddCommand(rolesImportCmd)
	rolesCmd.AddCommand(rolesDeleteCmd)
	rolesCmd.AddCommand(rolesVisibilityCmd)
}
