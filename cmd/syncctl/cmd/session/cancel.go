// cmd/syncctl/cmd/session/cancel.go
package session

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var CancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Отменить активную сессию",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := client.CancelSession(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка отмены сессии: %w", err)
		}

		fmt.Printf("Сессия %s отменена\n", args[0])
		return nil
	},
}
