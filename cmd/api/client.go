package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yasinhessnawi1/authflow/pkg/authclient"
)

// Seams for tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var stdin io.Reader = os.Stdin

type clientFlags struct {
	url       string
	tokenFile string
}

// NewClientCmd creates the client subcommand and its actions.
func NewClientCmd() *cobra.Command {
	flags := &clientFlags{}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Talk to a running authflow server",
		Long: `Register, sign in and manage passwords against a running server. The
session token is kept in a file readable only by the current user.`,
	}

	cmd.PersistentFlags().StringVar(&flags.url, "url", "http://localhost:5000", "server base url")
	cmd.PersistentFlags().StringVar(&flags.tokenFile, "token-file", "", "session token file (default: user config dir)")

	cmd.AddCommand(newClientRegisterCmd(flags))
	cmd.AddCommand(newClientLoginCmd(flags))
	cmd.AddCommand(newClientLogoutCmd(flags))
	cmd.AddCommand(newClientMeCmd(flags))
	cmd.AddCommand(newClientForgotCmd(flags))
	cmd.AddCommand(newClientResetCmd(flags))
	cmd.AddCommand(newClientCheckUserCmd(flags))
	cmd.AddCommand(newClientDirectResetCmd(flags))

	return cmd
}

func (f *clientFlags) client() (*authclient.Client, error) {
	path := f.tokenFile
	if path == "" {
		var err error
		if path, err = authclient.DefaultTokenPath(); err != nil {
			return nil, fmt.Errorf("locating token file: %w", err)
		}
	}
	return authclient.New(f.url, authclient.WithTokenStorage(authclient.NewFileTokenStorage(path)))
}

func (f *clientFlags) session() (*authclient.Session, error) {
	c, err := f.client()
	if err != nil {
		return nil, err
	}
	return authclient.NewSession(c), nil
}

// promptPassword reads a password without echo from a terminal, or one line
// from stdin otherwise.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)

	if f, ok := stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}

// userError returns the message a user should see for err.
func userError(err error) error {
	return errors.New(authclient.MessageFor(err))
}

func printUser(cmd *cobra.Command, u *authclient.User) {
	cmd.Printf("id:    %s\nname:  %s\nemail: %s\n", u.ID, u.Name, u.Email)
}

func newClientRegisterCmd(flags *clientFlags) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			password, err := promptPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			s, err := flags.session()
			if err != nil {
				return err
			}
			if err := s.Register(cmd.Context(), name, email, password); err != nil {
				return userError(err)
			}

			cmd.Println("Registered and signed in")
			printUser(cmd, s.Store().GetState().User)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newClientLoginCmd(flags *clientFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			password, err := promptPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			s, err := flags.session()
			if err != nil {
				return err
			}
			if err := s.Login(cmd.Context(), email, password); err != nil {
				return userError(err)
			}

			cmd.Println("Signed in")
			printUser(cmd, s.Store().GetState().User)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newClientLogoutCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and revoke the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := flags.session()
			if err != nil {
				return err
			}
			if err := s.Logout(cmd.Context()); err != nil {
				return userError(err)
			}
			cmd.Println("Signed out")
			return nil
		},
	}
}

func newClientMeCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := flags.session()
			if err != nil {
				return err
			}
			if err := s.Init(cmd.Context()); err != nil {
				return userError(err)
			}

			state := s.Store().GetState()
			if state.User == nil {
				cmd.Println("Not signed in")
				return nil
			}
			printUser(cmd, state.User)
			return nil
		},
	}
}

func newClientForgotCmd(flags *clientFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := flags.session()
			if err != nil {
				return err
			}
			msg, err := s.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return userError(err)
			}
			cmd.Println(msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newClientResetCmd(flags *clientFlags) *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the emailed reset token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("token", secret); err != nil {
				return err
			}
			password, err := promptPassword(cmd, "New password: ")
			if err != nil {
				return err
			}

			s, err := flags.session()
			if err != nil {
				return err
			}
			if err := s.ResetPassword(cmd.Context(), secret, password); err != nil {
				return userError(err)
			}

			cmd.Println("Password reset, signed in")
			printUser(cmd, s.Store().GetState().User)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "token", "", "reset token from the email")
	return cmd
}

func newClientCheckUserCmd(flags *clientFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "check-user",
		Short: "Check whether an account exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}
			exists, err := c.CheckUser(cmd.Context(), email)
			if err != nil {
				return userError(err)
			}
			cmd.Printf("exists: %t\n", exists)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newClientDirectResetCmd(flags *clientFlags) *cobra.Command {
	var email, secret string
	cmd := &cobra.Command{
		Use:   "direct-reset-password",
		Short: "Reset a password by email and emailed reset token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := promptPassword(cmd, "New password: ")
			if err != nil {
				return err
			}

			c, err := flags.client()
			if err != nil {
				return err
			}
			user, err := c.DirectResetPassword(cmd.Context(), email, secret, password)
			if err != nil {
				return userError(err)
			}

			cmd.Println("Password reset")
			printUser(cmd, user)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&secret, "token", "", "reset token from the email")
	return cmd
}
