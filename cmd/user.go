package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/model"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// userCmd 用户管理命令
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "用户管理命令",
	Long:  `用户管理相关的命令，包括创建管理员、列出用户、重置密码、授权等`,
}

// createAdminCmd 创建管理员用户命令
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "交互式创建管理员用户",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("请输入管理员用户名: ")
		username, _ := reader.ReadString('\n')
		fmt.Print("请输入管理员邮箱: ")
		email, _ := reader.ReadString('\n')

		password, err := readPassword("请输入管理员密码: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("请确认管理员密码: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("两次输入的密码不一致")
		}

		user, key, err := a.services.Users.Create(cmd.Context(), service.NewUser{
			Username:    strings.TrimSpace(username),
			Email:       strings.TrimSpace(email),
			Password:    password,
			Role:        model.RoleAdmin,
			IsStaff:     true,
			IsSuperuser: true,
		})
		if err != nil {
			return fmt.Errorf("创建管理员用户失败: %w", err)
		}

		fmt.Println("管理员用户创建成功！")
		fmt.Printf("用户名: %s\n", user.Username)
		fmt.Printf("API令牌: %s\n", key)
		return nil
	},
}

var listSearch string

// listUsersCmd 列出用户命令
var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "列出用户",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		admin := &model.User{IsStaff: true}
		req := &dto.UserListRequest{PageRequest: dto.PageRequest{PageSize: 100, Search: listSearch, Ordering: "-date_joined"}}
		users, total, _, err := a.services.Users.List(cmd.Context(), admin, req)
		if err != nil {
			return fmt.Errorf("查询用户列表失败: %w", err)
		}

		fmt.Printf("%-5s %-20s %-30s %-10s %-6s %-16s\n", "ID", "用户名", "邮箱", "角色", "管理员", "注册时间")
		fmt.Println(strings.Repeat("-", 95))
		for _, u := range users {
			staff := "否"
			if u.IsStaff {
				staff = "是"
			}
			fmt.Printf("%-5d %-20s %-30s %-10s %-6s %-16s\n",
				u.ID, u.Username, u.Email, u.Role, staff, u.DateJoined.Format("2006-01-02 15:04"))
		}
		fmt.Printf("共 %d 个用户\n", total)
		return nil
	},
}

// resetPasswordCmd 重置用户密码命令
var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password [username]",
	Short: "重置用户密码",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		password, err := readPassword("请输入新密码: ")
		if err != nil {
			return err
		}
		if err := a.services.Users.ResetPassword(cmd.Context(), args[0], password); err != nil {
			return fmt.Errorf("重置密码失败: %w", err)
		}
		fmt.Printf("用户 %s 的密码已重置，原有会话需重新登录\n", args[0])
		return nil
	},
}

var revokePermission bool

// grantCmd 授予或撤销权限
var grantCmd = &cobra.Command{
	Use:   "grant [username] [permission]",
	Short: "授予用户权限",
	Long:  `授予用户权限，可选 ` + strings.Join(model.PermissionCodes, ", ") + `，--revoke 撤销`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.services.Users.GetByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if revokePermission {
			err = a.services.Permissions.Revoke(cmd.Context(), user.ID, args[1])
		} else {
			err = a.services.Permissions.Grant(cmd.Context(), user.ID, args[1])
		}
		if err != nil {
			return fmt.Errorf("更新权限失败: %w", err)
		}
		fmt.Println("权限已更新")
		return nil
	},
}

// setRoleCmd 设置角色
var setRoleCmd = &cobra.Command{
	Use:   "set-role [username] [role]",
	Short: "设置用户角色",
	Long:  `设置用户角色，可选 ` + strings.Join(model.Roles, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.services.Users.GetByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := a.services.Permissions.SetRole(cmd.Context(), user.ID, args[1]); err != nil {
			return fmt.Errorf("设置角色失败: %w", err)
		}
		fmt.Printf("用户 %s 的角色已设置为 %s\n", user.Username, args[1])
		return nil
	},
}

func init() {
	listUsersCmd.Flags().StringVarP(&listSearch, "search", "s", "", "按用户名或邮箱搜索")
	grantCmd.Flags().BoolVar(&revokePermission, "revoke", false, "撤销权限")

	userCmd.AddCommand(createAdminCmd)
	userCmd.AddCommand(listUsersCmd)
	userCmd.AddCommand(resetPasswordCmd)
	userCmd.AddCommand(grantCmd)
	userCmd.AddCommand(setRoleCmd)
	rootCmd.AddCommand(userCmd)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(b), nil
}
