package cli

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/user"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

var (
	tokenUser    string
	tokenStaff   string
	tokenOrg     string
	tokenCompany string
	tokenRole    string
)

// tokenCmd mints access tokens for local testing of the API.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token signed with JWT_SECRET_KEY",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User ID")
	tokenCmd.Flags().StringVar(&tokenStaff, "staff", "", "Staff member ID bound to the token")
	tokenCmd.Flags().StringVar(&tokenOrg, "org", "", "Organization ID")
	tokenCmd.Flags().StringVar(&tokenCompany, "company", "", "Company ID")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(user.RoleEmployee), "Role: owner, manager, employee")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("company")
}

func runToken(cmd *cobra.Command, args []string) error {
	role := user.Role(tokenRole)
	if _, ok := user.RolePermissions[role]; !ok {
		return fmt.Errorf("unknown role %q", tokenRole)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).GenerateAccessToken(user.Actor{
		UserID:         tokenUser,
		StaffMemberID:  tokenStaff,
		OrganizationID: tokenOrg,
		CompanyID:      tokenCompany,
		Role:           role,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
	return nil
}
