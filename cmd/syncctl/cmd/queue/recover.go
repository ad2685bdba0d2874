// cmd/syncctl/cmd/queue/recover.go
package queue

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var recoverStaleAfter int

var RecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Восстановить зависшие элементы",
	Long: `Возвращает элементы, застрявшие в статусе IN_PROGRESS после падения
сервера или устройства, обратно в очередь на обработку.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		n, err := client.QueueRecover(cmd.Context(), recoverStaleAfter)
		if err != nil {
			return fmt.Errorf("ошибка восстановления очереди: %w", err)
		}

		if n == 0 {
			fmt.Println("Зависших элементов не найдено")
			return nil
		}

		fmt.Printf("Восстановлено элементов: %d\n", n)
		return nil
	},
}

func init() {
	RecoverCmd.Flags().IntVar(&recoverStaleAfter, "stale-after", 0, "порог зависания в минутах (0 — серверное значение)")
}
