// cmd/syncctl/cmd/conflict/ignore.go
package conflict

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var ignoreBy string

var IgnoreCmd = &cobra.Command{
	Use:   "ignore [id]",
	Short: "Проигнорировать конфликт",
	Long: `Помечает конфликт как проигнорированный. Клиентское изменение не
применяется; связанный элемент очереди остается в статусе CONFLICT и
может быть удален командой queue.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("неверный ID конфликта: %w", err)
		}

		if err := client.Ignore(cmd.Context(), id, ignoreBy); err != nil {
			return fmt.Errorf("ошибка игнорирования конфликта: %w", err)
		}

		fmt.Printf("Конфликт %d проигнорирован\n", id)
		return nil
	},
}

func init() {
	IgnoreCmd.Flags().StringVar(&ignoreBy, "by", "", "имя оператора")
}
