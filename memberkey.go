// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blessed-dialekt/calmunity/auth"
)

func memberKeyCommand() *cobra.Command {
	var salt string
	cmd := &cobra.Command{
		Use:   "member-key <member-id>",
		Short: "Print the X-Kalmitee-Key for a kalmitee member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if salt == "" {
				salt = os.Getenv("KALMITEE_KEY_SALT")
			}
			if salt == "" {
				return errors.New("KALMITEE_KEY_SALT required (use --salt or the environment)")
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.GenerateMemberKey(args[0], salt))
			return nil
		},
	}
	cmd.Flags().StringVar(&salt, "salt", "", "kalmitee key salt (prefer KALMITEE_KEY_SALT)")
	return cmd
}
