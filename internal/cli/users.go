package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/martijn/userbase/internal/api/form"
	"github.com/martijn/userbase/internal/core/domain"
	"github.com/martijn/userbase/internal/core/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdinIsTerminal reports whether confirmation can be asked interactively.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long:  "Manage user records from the command line",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		users, err := services.UserService.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		if len(users) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No users found")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tFIRST NAME\tLAST NAME\tCREATED AT\tUPDATED AT")
		for _, user := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				user.ID,
				displayOrDash(form.Fields[0], user.UserFields),
				displayOrDash(form.Fields[1], user.UserFields),
				displayOrDash(form.Fields[2], user.UserFields),
				user.CreatedAt.Format("2006-01-02 15:04:05"),
				user.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		user, err := services.UserService.Read(cmd.Context(), id)
		if err != nil {
			return userError(id, err)
		}

		printUser(cmd.OutOrStdout(), user)
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new user",
	Long:  "Add a new user. Attributes that are not given are left empty.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := form.FromFlags(cmd.Flags())
		if err != nil {
			return fmt.Errorf("invalid user attributes: %w", err)
		}

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		user, err := services.UserService.Create(cmd.Context(), fields)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %d created successfully\n", user.ID)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			if !stdinIsTerminal() {
				return fmt.Errorf("refusing to delete user %d without confirmation; pass --yes", id)
			}

			// Confirm deletion
			fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete user %d? (yes/no): ", id)
			confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(confirm) != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
		}

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		if err := services.UserService.Destroy(cmd.Context(), id); err != nil {
			return userError(id, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %d deleted successfully\n", id)
		return nil
	},
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id: %s", raw)
	}
	return id, nil
}

func userError(id int64, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Errorf("user not found: %d", id)
	}
	return err
}

func printUser(out io.Writer, user *domain.User) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", user.ID)
	for _, f := range form.Fields {
		fmt.Fprintf(w, "%s:\t%s\n", f.Label, displayOrDash(f, user.UserFields))
	}
	fmt.Fprintf(w, "Created at:\t%s\n", user.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(w, "Updated at:\t%s\n", user.UpdatedAt.Format("2006-01-02 15:04:05 UTC"))
	w.Flush()
}

func displayOrDash(f form.Field, u domain.UserFields) string {
	if s := f.Display(u); s != "" {
		return s
	}
	return "-"
}

func init() {
	form.RegisterFlags(usersAddCmd.Flags())
	usersDeleteCmd.Flags().BoolP("yes", "y", false, "delete without asking for confirmation")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersShowCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}
