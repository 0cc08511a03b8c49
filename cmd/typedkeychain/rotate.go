package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/benaskins/typedkeychain/internal/audit"
	"github.com/spf13/cobra"
)

var (
	rotateCommand string
	rotateTimeout time.Duration
)

var rotateCmd = &cobra.Command{
	Use:   "rotate <key> --command <script>",
	Short: "Replace a value with the output of a rotation command",
	Long: "Run a shell command and store its stdout as the new value of key. " +
		"The command must print the new value and nothing else.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if rotateCommand == "" {
			return fmt.Errorf("--command is required")
		}
		vt, err := lookupType(valueTypeName)
		if err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), rotateTimeout)
		defer cancel()

		key := args[0]
		value, err := runRotationCommand(ctx, rotateCommand)
		if err == nil {
			err = vt.set(s.kc, key, value)
		}
		if s.audit != nil {
			entry := audit.Entry{
				Action:  audit.ActionItemRotate,
				Key:     key,
				Scope:   s.kc.String(),
				Actor:   "cli",
				Trigger: "manual",
				Command: rotateCommand,
			}
			if err != nil {
				entry.Error = err.Error()
			}
			s.audit.Log(entry)
		}
		if err != nil {
			return fmt.Errorf("rotating %s: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Item %q rotated\n", key)
		return nil
	},
}

// runRotationCommand executes a rotation script and captures its stdout.
// The script must output the new value to stdout (and only the value).
func runRotationCommand(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	value := strings.TrimRight(string(output), "\n")
	if value == "" {
		return "", fmt.Errorf("rotation command produced no output")
	}
	return value, nil
}

func init() {
	rotateCmd.Flags().StringVarP(&rotateCommand, "command", "c", "", "Shell command that prints the new value")
	rotateCmd.Flags().DurationVar(&rotateTimeout, "timeout", 30*time.Second, "Rotation command timeout")
	rotateCmd.Flags().StringVarP(&valueTypeName, "type", "t", "string", "Value type: "+typeNames())
	rootCmd.AddCommand(rotateCmd)
}
