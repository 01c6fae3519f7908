package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sealworks/seal-erp/internal/platform/httpx"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/users"
)

func newUserCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Example: `  # Bootstrap the first administrator
  sealctl user create --username owner --password 's3cret-pass' --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")

			input := users.CreateInput{Username: username, Password: password, Role: role}
			if err := httpx.Validate(&input); err != nil {
				return err
			}

			svc, release, err := env.OpenUsers(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			u, err := svc.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) id=%s\n", u.Username, u.Role, u.ID)
			return nil
		},
	}
	create.Flags().String("username", "", "Login name")
	create.Flags().String("password", "", "Initial password (min 8 characters)")
	create.Flags().String("role", string(shared.RoleUser), "Role: admin or user")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
